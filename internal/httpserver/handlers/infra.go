package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/mkbrechtel/patterns/internal/httpserver/deps"
)

type componentStatus struct {
	OK          bool   `json:"ok"`
	PagesLoaded *int   `json:"pages_loaded,omitempty"`
	LastReload  string `json:"last_reload,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Error       string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of the content snapshot and of Redis.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pages := d.Index.Count()
		lastReload := "never"
		if t := d.Index.GetLastReload(); !t.IsZero() {
			lastReload = t.Format(time.RFC3339)
		}

		mode := "interval"
		if d.Watching {
			mode = "watch"
		}

		components := map[string]componentStatus{
			"content": {
				OK:          d.Index.Ready(),
				PagesLoaded: &pages,
				LastReload:  lastReload,
				Mode:        mode,
			},
			"redis": checkRedis(r.Context(), d),
		}

		writeJSON(d, w, http.StatusOK, infraResponse{
			Status:     overallStatus(components),
			Components: components,
		})
	}
}

func overallStatus(components map[string]componentStatus) string {
	if content, ok := components["content"]; ok && !content.OK {
		return "critical" // nothing to serve
	}
	if redis, ok := components["redis"]; ok && !redis.OK {
		return "degraded" // views are not persisted
	}
	return "ok"
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "page-views-in-memory",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "page-views-not-persisted",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "page-views-persisted",
	}
}
