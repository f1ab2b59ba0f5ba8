package handlers

import (
	"net/http"

	"github.com/mkbrechtel/patterns/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool `json:"ready"`
	Pages int  `json:"pages"`
}

// Readyz answers 200 once the first snapshot is served, 503 before.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		if !d.Index.Ready() {
			status = http.StatusServiceUnavailable
		}
		writeJSON(d, w, status, readyzResponse{
			Ready: d.Index.Ready(),
			Pages: d.Index.Count(),
		})
	}
}
