package site

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/mkbrechtel/patterns/internal/collection"
	"github.com/mkbrechtel/patterns/internal/index"
	"github.com/mkbrechtel/patterns/internal/logger"
	"github.com/mkbrechtel/patterns/internal/render"
	"github.com/mkbrechtel/patterns/internal/sidebar"
)

// Builder runs the full pipeline over a content FS: site config, document
// collection, sidebar and rendering.
type Builder struct {
	fsys          fs.FS
	loader        *Loader
	includeDrafts bool
	logger        logger.Logger
}

// NewBuilder returns a builder reading content from fsys and the site file
// through loader.
func NewBuilder(fsys fs.FS, loader *Loader, includeDrafts bool, log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		fsys:          fsys,
		loader:        loader,
		includeDrafts: includeDrafts,
		logger:        log,
	}
}

// FS returns the content filesystem the builder reads.
func (b *Builder) FS() fs.FS { return b.fsys }

// Sidebar loads the site config and builds only the navigation.
func (b *Builder) Sidebar() ([]sidebar.Entry, error) {
	cfg, err := b.loader.Load()
	if err != nil {
		return nil, err
	}
	return sidebar.NewBuilder(b.fsys, cfg.Content.Base, cfg.Sidebar).Sidebar()
}

// Build produces a complete snapshot. Any failure aborts the build and the
// caller keeps whatever it served before.
func (b *Builder) Build(ctx context.Context) (*index.Snapshot, error) {
	start := time.Now()

	cfg, err := b.loader.Load()
	if err != nil {
		return nil, err
	}

	docs, err := collection.New(b.fsys, cfg.Content.Base, cfg.Content.Pattern, b.logger).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}

	entries, err := sidebar.NewBuilder(b.fsys, cfg.Content.Base, cfg.Sidebar).Sidebar()
	if err != nil {
		return nil, fmt.Errorf("failed to build sidebar: %w", err)
	}

	if !b.includeDrafts {
		docs = withoutDrafts(docs)
	}

	r := render.New(render.Site{
		Title:       cfg.Title,
		URL:         cfg.Site,
		Description: cfg.Description,
		Social:      cfg.Social,
		EditBase:    cfg.EditLink.BaseURL,
	})

	pages, err := r.Prepare(docs)
	if err != nil {
		return nil, fmt.Errorf("failed to render content: %w", err)
	}
	if err := r.Layout(pages, entries); err != nil {
		return nil, err
	}

	snap := &index.Snapshot{
		Entries:  entries,
		Pages:    pages,
		BuiltAt:  time.Now(),
		Duration: time.Since(start),
	}

	b.logger.Debug("Site built",
		logger.Int("pages", len(pages)),
		logger.Int("entries", len(entries)),
		logger.Duration("duration", snap.Duration),
	)

	return snap, nil
}

func withoutDrafts(docs []*collection.Document) []*collection.Document {
	out := docs[:0:0]
	for _, d := range docs {
		if !d.FrontMatter.Draft {
			out = append(out, d)
		}
	}
	return out
}
