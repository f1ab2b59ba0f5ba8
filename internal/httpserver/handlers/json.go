package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mkbrechtel/patterns/internal/httpserver/deps"
	"github.com/mkbrechtel/patterns/internal/logger"
)

func writeJSON(d deps.Deps, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}
