package handlers

import (
	"net/http"

	"github.com/smartfarmdiy/strawbydetet/internal/logger"
)

// ShowLogsHandler serves the named per-level log file as plain text.
func ShowLogsHandler(log *logger.Logger, fileName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := log.ReadLog(fileName)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Unable to read log file")
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write(content)
	}
}

// ClearLogsHandler truncates the named per-level log file.
func ClearLogsHandler(log *logger.Logger, fileName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := log.CleanLog(fileName); err != nil {
			writeError(w, http.StatusInternalServerError, "Unable to clear log file")
			return
		}
		writeSuccess(w, "Log cleared")
	}
}
