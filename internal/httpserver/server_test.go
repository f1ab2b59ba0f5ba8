package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/mkbrechtel/patterns/internal/httpserver/deps"
	"github.com/mkbrechtel/patterns/internal/httpserver/handlers"
	"github.com/mkbrechtel/patterns/internal/index"
	"github.com/mkbrechtel/patterns/internal/logger"
	"github.com/mkbrechtel/patterns/internal/metrics"
	"github.com/mkbrechtel/patterns/internal/site"
)

func contentFS() fstest.MapFS {
	page := func(title string) *fstest.MapFile {
		return &fstest.MapFile{Data: []byte("---\ntitle: " + title + "\n---\n\n# " + title + "\n")}
	}
	return fstest.MapFS{
		"docs/index.md":             page("Home"),
		"docs/deployment/docker.md": page("Docker"),
		"docs/guides/intro.md":      page("Intro"),
	}
}

func testDeps(t *testing.T, built bool) deps.Deps {
	t.Helper()
	fsys := contentFS()
	idx := index.NewSiteIndex()
	if built {
		loader := site.NewLoader(filepath.Join(t.TempDir(), "site.yaml"), true)
		snap, err := site.NewBuilder(fsys, loader, false, logger.Nop()).Build(context.Background())
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		idx.Update(snap)
	}
	return deps.Deps{
		Logger:        logger.Nop(),
		StartTime:     time.Now(),
		Version:       "test",
		Index:         idx,
		ContentFS:     fsys,
		Metrics:       metrics.New("test", "go"),
		ReloadTrigger: make(chan struct{}, 1),
		ReloadBurst:   10,
		ReloadPerMin:  10,
	}
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestPages(t *testing.T) {
	d := testDeps(t, true)
	h := NewRouter(logger.Nop(), d)

	tests := []struct {
		name     string
		target   string
		want     int
		contains string
		location string
	}{
		{name: "home", target: "/", want: http.StatusOK, contains: "<h1 id=\"home\">Home</h1>"},
		{name: "page", target: "/deployment/docker/", want: http.StatusOK, contains: `aria-current="page">Docker</a>`},
		{name: "missing slash redirects", target: "/deployment/docker", want: http.StatusMovedPermanently, location: "/deployment/docker/"},
		{name: "index path redirects home", target: "/index/", want: http.StatusMovedPermanently, location: "/"},
		{name: "unknown page", target: "/deployment/nomad/", want: http.StatusNotFound},
		{name: "raw file", target: "/raw/docs/guides/intro.md", want: http.StatusOK, contains: "title: Intro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodGet, tt.target)
			if rec.Code != tt.want {
				t.Fatalf("GET %s status = %d, want %d", tt.target, rec.Code, tt.want)
			}
			if tt.contains != "" && !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("GET %s body missing %q", tt.target, tt.contains)
			}
			if tt.location != "" && rec.Header().Get("Location") != tt.location {
				t.Errorf("Location = %q, want %q", rec.Header().Get("Location"), tt.location)
			}
		})
	}

	if got := d.Index.Views("deployment/docker"); got != 1 {
		t.Errorf("Views(deployment/docker) = %d, want 1", got)
	}
	if got := d.Index.Views("deployment/nomad"); got != 0 {
		t.Errorf("missing page counted a view")
	}
}

func TestPagesBeforeFirstBuild(t *testing.T) {
	h := NewRouter(logger.Nop(), testDeps(t, false))

	for _, target := range []string{"/", "/api/sidebar", "/readyz"} {
		if rec := do(h, http.MethodGet, target); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s status = %d, want 503", target, rec.Code)
		}
	}
}

func TestAPISidebar(t *testing.T) {
	h := NewRouter(logger.Nop(), testDeps(t, true))

	rec := do(h, http.MethodGet, "/api/sidebar")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3: %s", len(got), rec.Body.String())
	}
	if got[0]["link"] != "/" {
		t.Errorf("first entry = %v, want home link", got[0])
	}
	if got[1]["label"] != "Deployment" {
		t.Errorf("second entry label = %v", got[1]["label"])
	}
	items, _ := got[1]["items"].([]any)
	if len(items) != 1 || items[0] != "deployment/docker" {
		t.Errorf("Deployment items = %v", got[1]["items"])
	}
}

func TestAPIPages(t *testing.T) {
	d := testDeps(t, true)
	h := NewRouter(logger.Nop(), d)
	do(h, http.MethodGet, "/guides/intro/")

	rec := do(h, http.MethodGet, "/api/pages")
	var got []struct {
		ID    string `json:"id"`
		URL   string `json:"url"`
		Views int64  `json:"views"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 3 || got[0].ID != "deployment/docker" || got[2].ID != "index" {
		t.Fatalf("pages = %+v", got)
	}
	if got[1].URL != "/guides/intro/" || got[1].Views != 1 {
		t.Errorf("guides/intro = %+v", got[1])
	}
}

func TestReload(t *testing.T) {
	d := testDeps(t, true)
	h := NewRouter(logger.Nop(), d)

	if rec := do(h, http.MethodPost, "/reload"); rec.Code != http.StatusAccepted {
		t.Fatalf("first POST /reload status = %d, want 202", rec.Code)
	}
	if rec := do(h, http.MethodPost, "/reload"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST /reload status = %d, want 429", rec.Code)
	}
	if len(d.ReloadTrigger) != 1 {
		t.Errorf("trigger queue = %d, want 1", len(d.ReloadTrigger))
	}
}

func TestReloadRateLimited(t *testing.T) {
	d := testDeps(t, true)
	d.ReloadBurst = 1
	d.ReloadPerMin = 1
	h := NewRouter(logger.Nop(), d)

	do(h, http.MethodPost, "/reload")
	<-d.ReloadTrigger

	rec := do(h, http.MethodPost, "/reload")
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Errorf("status = %d Retry-After = %q, want rate limited", rec.Code, rec.Header().Get("Retry-After"))
	}
}

func TestAdminEndpoints(t *testing.T) {
	d := testDeps(t, true)
	h := NewRouter(logger.Nop(), d)

	if rec := do(h, http.MethodGet, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/readyz"); rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d", rec.Code)
	}

	rec := do(h, http.MethodGet, "/infra")
	var infra struct {
		Status     string `json:"status"`
		Components map[string]struct {
			OK   bool   `json:"ok"`
			Mode string `json:"mode"`
		} `json:"components"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &infra); err != nil {
		t.Fatalf("infra invalid JSON: %v", err)
	}
	if infra.Status != "ok" || infra.Components["redis"].Mode != "disabled" {
		t.Errorf("infra = %+v", infra)
	}

	do(h, http.MethodGet, "/")
	rec = do(h, http.MethodGet, "/metrics")
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `patterns_page_views_total{page="index"} 1`) {
		t.Errorf("metrics missing page view counter")
	}
}

func TestAdminEndpointsAllowList(t *testing.T) {
	d := testDeps(t, true)
	d.AllowedCIDRS = []string{"10.0.0.0/8"}
	h := NewRouter(logger.Nop(), d)

	// httptest requests come from 192.0.2.1
	for _, target := range []string{"/readyz", "/infra", "/metrics"} {
		if rec := do(h, http.MethodGet, target); rec.Code != http.StatusForbidden {
			t.Errorf("GET %s status = %d, want 403", target, rec.Code)
		}
	}
	if rec := do(h, http.MethodPost, "/reload"); rec.Code != http.StatusForbidden {
		t.Errorf("POST /reload status = %d, want 403", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
}

func TestPageID(t *testing.T) {
	tests := map[string]string{
		"/":                   "index",
		"":                    "index",
		"/deployment/docker/": "deployment/docker",
		"/guides/intro":       "guides/intro",
	}
	for in, want := range tests {
		if got := handlers.PageID(in); got != want {
			t.Errorf("PageID(%q) = %q, want %q", in, got, want)
		}
	}
}
