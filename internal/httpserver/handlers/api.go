package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/mkbrechtel/patterns/internal/httpserver/deps"
	"github.com/mkbrechtel/patterns/internal/logger"
	"github.com/mkbrechtel/patterns/internal/sidebar"
)

type pageSummary struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
	Draft bool   `json:"draft,omitempty"`
	Views int64  `json:"views"`
}

// Sidebar returns the sidebar entries of the served snapshot. Until the
// first build finishes it falls back to the sidebar the previous process
// saved in Redis.
func Sidebar(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Index.Ready() {
			if d.Store != nil {
				ctx, cancel := context.WithTimeout(r.Context(), time.Second)
				cached, err := d.Store.GetSidebar(ctx)
				cancel()
				if err == nil {
					w.Header().Set("X-Sidebar-Source", "cache")
					writeJSON(d, w, http.StatusOK, cached)
					return
				}
				d.Logger.Debug("no cached sidebar", logger.Error(err))
			}
			writeJSON(d, w, http.StatusServiceUnavailable, map[string]string{"error": "site is still building"})
			return
		}
		entries := d.Index.Entries()
		if entries == nil {
			entries = []sidebar.Entry{}
		}
		writeJSON(d, w, http.StatusOK, entries)
	}
}

// Pages lists the served pages with their view counters, sorted by ID.
func Pages(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := d.Index.PageIDs()
		out := make([]pageSummary, 0, len(ids))
		for _, id := range ids {
			p, ok := d.Index.GetPage(id)
			if !ok {
				continue
			}
			out = append(out, pageSummary{
				ID:    p.ID,
				URL:   p.URL(),
				Title: p.Title,
				Draft: p.Draft,
				Views: d.Index.Views(id),
			})
		}
		writeJSON(d, w, http.StatusOK, out)
	}
}
