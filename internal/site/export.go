package site

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkbrechtel/patterns/internal/index"
)

// Export writes every page of snap as a static file tree under dir, so that
// a plain file server answers the same URLs as the live server:
// "/" is dir/index.html and "/deployment/docker/" is
// dir/deployment/docker/index.html. It returns the number of files written.
func Export(snap *index.Snapshot, dir string) (int, error) {
	written := 0
	for id, p := range snap.Pages {
		rel := strings.Trim(p.URL(), "/")
		target := filepath.Join(dir, filepath.FromSlash(rel), "index.html")

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, fmt.Errorf("failed to create directory for %s: %w", id, err)
		}
		if err := os.WriteFile(target, p.HTML, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", id, err)
		}
		written++
	}
	return written, nil
}
