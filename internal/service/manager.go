package service

import (
	"encoding/base64"
	"sync"

	"fishfollow/internal/config"
	"fishfollow/internal/logger"
	"fishfollow/internal/models"
	"fishfollow/internal/service/pose"
	"fishfollow/internal/service/presentation"
	"fishfollow/internal/service/tracking"
	"fishfollow/internal/service/websocket"
)

type jpegEncoder interface {
	JPEG() ([]byte, error)
}

// Manager renders tracker updates and pushes them to viewers.
type Manager struct {
	tracker          *tracking.Tracker
	websocketService *websocket.HubService
	viewConfig       presentation.Config
	logger           *logger.Logger

	alertMu   sync.RWMutex
	lastAlert string
}

func NewManager(tracker *tracking.Tracker, websocketService *websocket.HubService, config *config.Config, logger *logger.Logger) *Manager {
	manager := &Manager{
		tracker:          tracker,
		websocketService: websocketService,
		viewConfig: presentation.Config{
			ImageURL:           config.ImageURL,
			ImageWidth:         config.ImageWidth,
			TransitionDuration: config.TransitionDuration,
		},
		logger: logger,
	}

	tracker.Subscribe(manager.HandleState)
	tracker.OnAlert(manager.HandleAlert)
	if config.StreamVideo {
		tracker.OnFrame(manager.SendFrame)
	}

	manager.logger.Info("🐟 Manager started - streaming video: %v", config.StreamVideo)
	return manager
}

// HandleState broadcasts the view for a new tracker state.
func (m *Manager) HandleState(state tracking.State) {
	msg, err := models.NewPositionMessage(presentation.Render(state, m.viewConfig))
	if err != nil {
		m.logger.Error("Failed to encode position: %v", err)
		return
	}
	m.websocketService.Broadcast(msg)
}

// HandleAlert records a terminal failure and shows it to every viewer.
func (m *Manager) HandleAlert(message string) {
	m.logger.Error("Camera setup failed: %s", message)

	m.alertMu.Lock()
	m.lastAlert = message
	m.alertMu.Unlock()

	msg, err := models.NewAlertMessage(message)
	if err != nil {
		m.logger.Error("Failed to encode alert: %v", err)
		return
	}
	m.websocketService.Broadcast(msg)
}

// SendFrame pushes the video surface to viewers as a base64 JPEG.
func (m *Manager) SendFrame(frame pose.Frame) {
	enc, ok := frame.(jpegEncoder)
	if !ok {
		return
	}
	data, err := enc.JPEG()
	if err != nil {
		m.logger.Warning("Failed to encode frame: %v", err)
		return
	}
	msg, err := models.NewFrameMessage(base64.StdEncoding.EncodeToString(data))
	if err != nil {
		m.logger.Error("Failed to encode frame message: %v", err)
		return
	}
	m.websocketService.Broadcast(msg)
}

// CurrentView renders the tracker's latest state.
func (m *Manager) CurrentView() presentation.View {
	return presentation.Render(m.tracker.State(), m.viewConfig)
}

// LastAlert returns the last setup failure, if any.
func (m *Manager) LastAlert() string {
	m.alertMu.RLock()
	defer m.alertMu.RUnlock()
	return m.lastAlert
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.websocketService
}

func (m *Manager) GetTracker() *tracking.Tracker {
	return m.tracker
}
