package websocket

import (
	"context"
	"sync"
	"time"

	"fishfollow/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait   = 10 * time.Second
	queueLength = 64
)

// Welcome builds the messages a viewer gets as soon as it joins. It runs on
// the hub goroutine after the viewer is added, so no broadcast falls between
// the snapshot and the live stream.
type Welcome func() [][]byte

type registration struct {
	client  *websocket.Conn
	welcome Welcome
}

// HubService fans messages out to every connected viewer.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan registration
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, queueLength),
		register:   make(chan registration),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case reg := <-h.register:
			h.mutex.Lock()
			h.clients[reg.client] = true
			if reg.welcome != nil {
				for _, message := range reg.welcome() {
					if !h.send(reg.client, message) {
						break
					}
				}
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", total)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				h.send(client, message)
			}
			h.mutex.Unlock()
		}
	}
}

// send writes one message and drops the client on failure. Callers hold mutex.
func (h *HubService) send(client *websocket.Conn, message []byte) bool {
	client.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
		h.logger.Error("Error sending message: %v", err)
		delete(h.clients, client)
		client.Close()
		return false
	}
	return true
}

// Register adds a viewer. welcome may be nil.
func (h *HubService) Register(client *websocket.Conn, welcome Welcome) {
	select {
	case h.register <- registration{client: client, welcome: welcome}:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues a message for all viewers, dropping it when the queue is full.
func (h *HubService) Broadcast(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	default:
		h.logger.Warning("Broadcast queue full - dropping message")
		return false
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
