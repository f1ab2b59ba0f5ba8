package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"github.com/mkbrechtel/patterns/internal/index"
	"github.com/mkbrechtel/patterns/internal/logger"
	"github.com/mkbrechtel/patterns/internal/metrics"
	"github.com/mkbrechtel/patterns/internal/render"
	"github.com/mkbrechtel/patterns/internal/site"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func page(title string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte("---\ntitle: " + title + "\n---\n\n" + title + "\n")}
}

func newBuilder(t *testing.T, fsys fstest.MapFS) *site.Builder {
	t.Helper()
	loader := site.NewLoader(filepath.Join(t.TempDir(), "site.yaml"), true)
	return site.NewBuilder(fsys, loader, false, logger.Nop())
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestContentReloaderStartAndTrigger(t *testing.T) {
	fsys := fstest.MapFS{
		"docs/index.md":             page("Home"),
		"docs/deployment/docker.md": page("Docker"),
	}
	idx := index.NewSiteIndex()
	m := metrics.New("test", "go")
	trigger := make(chan struct{}, 1)

	cr := NewContentReloader(newBuilder(t, fsys), nil, idx, m, logger.Nop(), time.Hour, trigger)
	if err := cr.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer cr.Stop()

	if !idx.Ready() || idx.Count() != 2 {
		t.Fatalf("index after Start: ready=%v count=%d", idx.Ready(), idx.Count())
	}

	trigger <- struct{}{}
	waitFor(t, "triggered rebuild", func() bool { return idx.Reloads() == 2 })

	if got := testutil.ToFloat64(m.BuildsTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("builds_total{success} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Pages); got != 2 {
		t.Errorf("pages = %v, want 2", got)
	}
}

func TestContentReloaderInitialFailure(t *testing.T) {
	idx := index.NewSiteIndex()
	cr := NewContentReloader(newBuilder(t, fstest.MapFS{}), nil, idx, nil, logger.Nop(), time.Hour, nil)

	if err := cr.Start(context.Background()); err == nil {
		t.Fatal("Start() should fail when the first build fails")
	}
	cr.Stop()

	if idx.Ready() {
		t.Error("index should not be ready after a failed first build")
	}
}

func TestContentReloaderKeepsSnapshotOnFailure(t *testing.T) {
	fsys := fstest.MapFS{"docs/index.md": page("Home")}
	idx := index.NewSiteIndex()
	m := metrics.New("test", "go")
	cr := NewContentReloader(newBuilder(t, fsys), nil, idx, m, logger.Nop(), time.Hour, nil)

	if err := cr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	before := idx.Snapshot()

	fsys["docs/broken.md"] = &fstest.MapFile{Data: []byte("---\ndescription: no title\n---\n")}
	if err := cr.Reload(context.Background()); err == nil {
		t.Fatal("Reload() should fail for a page without title")
	}

	if idx.Snapshot() != before {
		t.Error("failed reload replaced the snapshot")
	}
	if got := testutil.ToFloat64(m.BuildsTotal.WithLabelValues("failure")); got != 1 {
		t.Errorf("builds_total{failure} = %v, want 1", got)
	}
}

func TestContentReloaderStopWithoutStart(t *testing.T) {
	cr := NewContentReloader(nil, nil, index.NewSiteIndex(), nil, logger.Nop(), time.Hour, nil)
	cr.Stop()
	cr.Stop()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func received(ch <-chan struct{}, within time.Duration) bool {
	select {
	case <-ch:
		return true
	case <-time.After(within):
		return false
	}
}

func drain(ch <-chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func TestWatcherTriggersOnChange(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "docs", "index.md"), "---\ntitle: Home\n---\n")

	trigger := make(chan struct{}, 1)
	m := metrics.New("test", "go")
	w, err := NewWatcher(root, filepath.Join(root, "site.yaml"), 20*time.Millisecond, trigger, m, logger.Nop())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() {
		if err := w.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	}()

	writeFile(t, filepath.Join(root, "docs", "deployment", "docker.md"), "---\ntitle: Docker\n---\n")
	if !received(trigger, 3*time.Second) {
		t.Fatal("no trigger after creating a category")
	}

	// files inside a directory created after Start are watched too
	time.Sleep(50 * time.Millisecond)
	writeFile(t, filepath.Join(root, "docs", "deployment", "nomad.md"), "---\ntitle: Nomad\n---\n")
	if !received(trigger, 3*time.Second) {
		t.Fatal("no trigger for a file in a new directory")
	}

	writeFile(t, filepath.Join(root, "site.yaml"), "title: X\n")
	if !received(trigger, 3*time.Second) {
		t.Fatal("no trigger after writing the site file")
	}

	time.Sleep(100 * time.Millisecond)
	drain(trigger)
	writeFile(t, filepath.Join(root, "docs", ".draft.swp"), "x")
	if received(trigger, 200*time.Millisecond) {
		t.Error("hidden file triggered a reload")
	}

	if testutil.ToFloat64(m.WatchEventsTotal) == 0 {
		t.Error("watch events not counted")
	}
}

func TestWatcherDebounces(t *testing.T) {
	root := t.TempDir()
	trigger := make(chan struct{}, 10)

	w, err := NewWatcher(root, "", 150*time.Millisecond, trigger, nil, logger.Nop())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { _ = w.Stop() }()

	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(root, "a.md"), "change")
	}

	if !received(trigger, 3*time.Second) {
		t.Fatal("no trigger after a burst of writes")
	}
	if received(trigger, 400*time.Millisecond) {
		t.Error("burst of writes produced more than one trigger")
	}
}

func TestWatcherMissingRoot(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), "", time.Millisecond, make(chan struct{}, 1), nil, logger.Nop())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Start(context.Background()); err == nil {
		t.Fatal("Start() should fail for a missing root")
	}
}

func TestViewCollectorCollect(t *testing.T) {
	idx := index.NewSiteIndex()
	idx.Update(&index.Snapshot{Pages: map[string]*render.Page{"index": {ID: "index"}}})
	idx.MergeViews(map[string]int64{"index": 3, "old": 5, "renamed": 1})

	now := time.Now()
	vc := NewViewCollector(nil, idx, logger.Nop(), time.Hour, 24*time.Hour)
	vc.now = func() time.Time { return now }

	// first pass only records the orphans
	if err := vc.Collect(context.Background()); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(idx.ViewIDs()) != 3 {
		t.Fatalf("Collect() deleted before threshold: %v", idx.ViewIDs())
	}

	// "renamed" comes back before the threshold
	idx.Update(&index.Snapshot{Pages: map[string]*render.Page{
		"index":   {ID: "index"},
		"renamed": {ID: "renamed"},
	}})

	now = now.Add(25 * time.Hour)
	if err := vc.Collect(context.Background()); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	ids := idx.ViewIDs()
	if len(ids) != 2 || ids[0] != "index" || ids[1] != "renamed" {
		t.Errorf("ViewIDs() = %v, want [index renamed]", ids)
	}
	if idx.Views("index") != 3 {
		t.Errorf("live counter changed: %d", idx.Views("index"))
	}
}

func TestViewCollectorBeforeFirstBuild(t *testing.T) {
	idx := index.NewSiteIndex()
	idx.MergeViews(map[string]int64{"old": 1})

	vc := NewViewCollector(nil, idx, logger.Nop(), time.Hour, time.Nanosecond)
	for i := 0; i < 2; i++ {
		if err := vc.Collect(context.Background()); err != nil {
			t.Fatalf("Collect() error = %v", err)
		}
	}
	if idx.Views("old") != 1 {
		t.Error("Collect() deleted counters without a snapshot")
	}
}

func TestViewCollectorStartStop(t *testing.T) {
	vc := NewViewCollector(nil, index.NewSiteIndex(), logger.Nop(), time.Millisecond, 0)
	vc.Start(context.Background())
	time.Sleep(5 * time.Millisecond)
	vc.Stop()
	vc.Stop()
}
