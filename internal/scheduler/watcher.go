package scheduler

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mkbrechtel/patterns/internal/logger"
	"github.com/mkbrechtel/patterns/internal/metrics"
)

// Watcher turns filesystem changes under the content root (and the site
// file) into reload triggers. Bursts of events collapse into one trigger
// once the tree has been quiet for the debounce delay.
type Watcher struct {
	root     string
	siteFile string
	debounce time.Duration
	trigger  chan<- struct{}
	metrics  *metrics.Metrics
	logger   logger.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher creates a watcher. siteFile may be empty and m may be nil.
func NewWatcher(
	root, siteFile string,
	debounce time.Duration,
	trigger chan<- struct{},
	m *metrics.Metrics,
	log logger.Logger,
) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve content root: %w", err)
	}
	if siteFile != "" {
		if siteFile, err = filepath.Abs(siteFile); err != nil {
			return nil, fmt.Errorf("failed to resolve site file: %w", err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher: %w", err)
	}

	return &Watcher{
		root:     absRoot,
		siteFile: siteFile,
		debounce: debounce,
		trigger:  trigger,
		metrics:  m,
		logger:   log,
		fsw:      fsw,
	}, nil
}

// Start adds watches on every directory under the root and begins
// processing events.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		_ = w.fsw.Close()
		return err
	}
	if w.siteFile != "" {
		// the site file may not exist yet; watching its directory catches creation
		dir := filepath.Dir(w.siteFile)
		if !w.within(dir) {
			if err := w.fsw.Add(dir); err != nil {
				w.logger.Warn("failed to watch site file directory",
					logger.String("path", dir),
					logger.Error(err))
			}
		}
	}

	w.done = make(chan struct{})
	go w.loop(ctx)

	w.logger.Info("content watcher started",
		logger.String("root", w.root),
		logger.Duration("debounce", w.debounce))

	return nil
}

// Stop closes the fs watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	err := w.fsw.Close()
	if w.done != nil {
		<-w.done
	}
	return err
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		w.logger.Debug("watching directory", logger.String("path", path))
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory",
							logger.String("path", event.Name),
							logger.Error(err))
					}
				}
			}
			if w.metrics != nil {
				w.metrics.WatchEventsTotal.Inc()
			}
			w.logger.Debug("content change detected",
				logger.String("path", event.Name),
				logger.String("op", event.Op.String()))

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", logger.Error(err))

		case <-fire:
			fire = nil
			select {
			case w.trigger <- struct{}{}:
				w.logger.Info("content changed, reload triggered")
			default:
				w.logger.Debug("reload already pending")
			}
		}
	}
}

// relevant drops chmod-only events, hidden entries and files outside the
// content root other than the site file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if event.Name == w.siteFile {
		return true
	}
	if !w.within(event.Name) {
		return false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if hidden(part) {
			return false
		}
	}
	return true
}

func (w *Watcher) within(path string) bool {
	return path == w.root || strings.HasPrefix(path, w.root+string(filepath.Separator))
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
