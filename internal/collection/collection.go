// Package collection loads the markdown documents of the docs content
// collection and checks their frontmatter against the docs schema.
package collection

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goliatone/go-slug"

	"github.com/mkbrechtel/patterns/internal/logger"
)

const (
	DefaultBase    = "docs"
	DefaultPattern = "**/*.md"
)

// Document is one markdown file of the collection.
type Document struct {
	ID          string // path under the base without extension, e.g. "deployment/docker"
	Path        string // path inside the collection FS
	FrontMatter FrontMatter
	Body        []byte
}

// Collection globs a pattern under a base directory of an fs.FS.
type Collection struct {
	fsys    fs.FS
	base    string
	pattern string
	logger  logger.Logger
}

// New returns a collection. Empty base and pattern fall back to the defaults.
func New(fsys fs.FS, base, pattern string, log logger.Logger) *Collection {
	if base == "" {
		base = DefaultBase
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &Collection{
		fsys:    fsys,
		base:    base,
		pattern: pattern,
		logger:  log,
	}
}

// Load reads every matching file. Any unreadable file or invalid
// frontmatter aborts the load; documents come back sorted by ID.
func (c *Collection) Load(ctx context.Context) ([]*Document, error) {
	sub, err := fs.Sub(c.fsys, c.base)
	if err != nil {
		return nil, fmt.Errorf("failed to open content base %q: %w", c.base, err)
	}
	if _, err := fs.Stat(sub, "."); err != nil {
		return nil, fmt.Errorf("failed to open content base %q: %w", c.base, err)
	}

	matches, err := doublestar.Glob(sub, c.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to glob %q: %w", c.pattern, err)
	}

	docs := make([]*Document, 0, len(matches))
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		source, err := fs.ReadFile(sub, match)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", match, err)
		}

		fm, body, err := ParseFrontMatter(source)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", match, err)
		}

		id := strings.TrimSuffix(match, path.Ext(match))
		c.checkSlug(id)

		docs = append(docs, &Document{
			ID:          id,
			Path:        path.Join(c.base, match),
			FrontMatter: fm,
			Body:        body,
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// checkSlug warns about path segments that would not survive URL slug
// normalization. They are still served under their literal name.
func (c *Collection) checkSlug(id string) {
	if c.logger == nil {
		return
	}
	for _, seg := range strings.Split(id, "/") {
		if slug.IsValid(seg) {
			continue
		}
		normalized, err := slug.Normalize(seg)
		if err != nil {
			normalized = ""
		}
		c.logger.Warn("document path segment is not a normalized slug",
			logger.String("id", id),
			logger.String("segment", seg),
			logger.String("suggested", normalized))
	}
}
