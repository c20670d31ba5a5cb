package handler

import (
	"net/http"

	"fishfollow/internal/logger"
	"fishfollow/internal/service"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PositionHandler serves the current view of the tracked image as JSON.
func PositionHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		if err := json.NewEncoder(w).Encode(manager.CurrentView()); err != nil {
			logger.Error("Failed to encode position: %v", err)
		}
	}
}
