package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"fishfollow/internal/config"
	"fishfollow/internal/handler"
	"fishfollow/internal/logger"
	"fishfollow/internal/service"
)

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers the page, static assets, the viewer websocket and the log endpoints.
func SetupRoutes(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDirectory))))

	// API endpoints
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(manager, logger))
	mux.HandleFunc("/api/position", handler.PositionHandler(manager, logger))

	// Log endpoints
	for _, level := range handler.LogLevels {
		mux.HandleFunc("/logs/"+level, handler.ShowLogsHandler(cfg, level))
		mux.HandleFunc("/logs/"+level+"/clear", handler.ClearLogsHandler(logger, level))
	}

	mux.HandleFunc("/", dynamicHTMLHandler(cfg.StaticDirectory))

	return mux
}
