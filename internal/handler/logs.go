package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"fishfollow/internal/config"
	"fishfollow/internal/logger"
)

// LogLevels are the levels that have a file under the log directory.
var LogLevels = []string{"info", "warning", "error"}

func logFileName(level string) string {
	return level + ".log"
}

// ShowLogsHandler serves the log file of one level as plain text.
func ShowLogsHandler(cfg *config.Config, level string) http.HandlerFunc {
	filename := logFileName(level)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		filePath := filepath.Join(cfg.LogDirectory, filename)
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.Error(w, "Log file not found: "+filename, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, filePath)
	}
}

// ClearLogsHandler truncates the log file of one level. POST only.
func ClearLogsHandler(logger *logger.Logger, level string) http.HandlerFunc {
	filename := logFileName(level)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := logger.CleanLogs(filename); err != nil {
			http.Error(w, "Failed to clear "+filename, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
