package handlers

import (
	"net/http"

	"github.com/mkbrechtel/patterns/internal/httpserver/deps"
	"github.com/mkbrechtel/patterns/internal/logger"
)

// Reload asks the content reloader for a rebuild. A rebuild that is already
// queued answers 429.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual reload triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeText(d, w, http.StatusAccepted, "✅ Reload triggered successfully\n")
		default:
			d.Logger.Warn("reload already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeText(d, w, http.StatusTooManyRequests, "⏳ Reload already pending, please wait\n")
		}
	}
}

func writeText(d deps.Deps, w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}
