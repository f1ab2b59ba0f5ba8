package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mkbrechtel/patterns/internal/httpserver/deps"
	"github.com/mkbrechtel/patterns/internal/logger"
	"github.com/mkbrechtel/patterns/internal/render"
)

// PageID maps a request path to a document ID: "/" is the home document,
// "/deployment/docker/" is "deployment/docker".
func PageID(path string) string {
	id := strings.Trim(path, "/")
	if id == "" {
		return render.HomeID
	}
	return id
}

// Page serves the rendered HTML of the snapshot. Paths without the trailing
// slash redirect to the canonical URL.
func Page(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Index.Ready() {
			http.Error(w, "site is still building", http.StatusServiceUnavailable)
			return
		}

		id := PageID(r.URL.Path)
		p, ok := d.Index.GetPage(id)
		if !ok {
			http.NotFound(w, r)
			return
		}

		if r.URL.Path != p.URL() {
			http.Redirect(w, r, p.URL(), http.StatusMovedPermanently)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Last-Modified", d.Index.GetLastReload().UTC().Format(http.TimeFormat))
		if _, err := w.Write(p.HTML); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
			return
		}

		if r.Method == http.MethodGet {
			countView(r.Context(), d, id)
		}
	}
}

func countView(ctx context.Context, d deps.Deps, id string) {
	d.Index.IncrementViews(id)
	if d.Metrics != nil {
		d.Metrics.PageViewsTotal.WithLabelValues(id).Inc()
	}

	// Update Redis store (best effort)
	if d.Store != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if _, err := d.Store.IncrementViews(ctx, id); err != nil {
			d.Logger.Warn("failed to count page view in redis",
				logger.String("page", id),
				logger.Error(err))
		}
	}
}
