package handler

import (
	"net/http"

	"fishfollow/internal/logger"
	"fishfollow/internal/models"
	"fishfollow/internal/service"
	ws "fishfollow/internal/service/websocket"

	"github.com/gorilla/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler registers a new viewer in the HubService. The hub
// greets it with the current view (and any pending alert) before live updates.
func ViewWebsocketHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)

		manager.GetWebsocketService().Register(connection, welcome(manager, logger))
		defer manager.GetWebsocketService().Unregister(connection)

		for {
			_, _, err := connection.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Viewer disconnected normally")
				} else {
					logger.Warning("Viewer disconnected with error: %v", err)
				}
				break
			}
		}
	}
}

func welcome(manager *service.Manager, logger *logger.Logger) ws.Welcome {
	return func() [][]byte {
		var messages [][]byte

		msg, err := models.NewPositionMessage(manager.CurrentView())
		if err != nil {
			logger.Error("Failed to encode initial view: %v", err)
			return nil
		}
		messages = append(messages, msg)

		if alert := manager.LastAlert(); alert != "" {
			msg, err := models.NewAlertMessage(alert)
			if err != nil {
				logger.Error("Failed to encode pending alert: %v", err)
				return messages
			}
			messages = append(messages, msg)
		}
		return messages
	}
}
