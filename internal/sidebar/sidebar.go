// Package sidebar builds the documentation navigation tree from a content
// directory: every immediate subdirectory of the root becomes a category and
// every markdown file inside it becomes a document reference.
package sidebar

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Extension is the only file suffix treated as a document. The check is a
// literal, case-sensitive suffix match: "guide.mdx" and "README.MD" are skipped.
const Extension = ".md"

// Category is a navigation group derived from one content subdirectory.
type Category struct {
	Label string   `json:"label" yaml:"label"`
	Items []string `json:"items" yaml:"items"`
}

// ScanCategories returns the names of the immediate subdirectories of root.
// Entries come back in fs.ReadDir order, which is sorted by filename.
func ScanCategories(fsys fs.FS, root string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, clean(root))
	if err != nil {
		return nil, fmt.Errorf("failed to read content root %q: %w", root, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// ListDocuments returns the slugs of the markdown files directly inside dir,
// i.e. their names with Extension removed. Subdirectories are not descended.
func ListDocuments(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, clean(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to read category dir %q: %w", dir, err)
	}

	slugs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
			continue
		}
		slugs = append(slugs, strings.TrimSuffix(e.Name(), Extension))
	}
	return slugs, nil
}

// Build scans root once and lists every category it finds. A category without
// markdown files is kept with an empty item list.
func Build(fsys fs.FS, root string) ([]Category, error) {
	dirs, err := ScanCategories(fsys, root)
	if err != nil {
		return nil, err
	}

	categories := make([]Category, 0, len(dirs))
	for _, dir := range dirs {
		items, err := Group(fsys, root, dir)
		if err != nil {
			return nil, err
		}
		categories = append(categories, Category{
			Label: Label(dir),
			Items: items,
		})
	}
	return categories, nil
}

// Group returns the document references of root/dir, prefixed with dir.
// dir is cleaned first, so "deployment/" and "./deployment" both yield
// "deployment/<slug>".
func Group(fsys fs.FS, root, dir string) ([]string, error) {
	dir = CleanDir(dir)
	slugs, err := ListDocuments(fsys, path.Join(clean(root), dir))
	if err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		refs = append(refs, Reference(dir, slug))
	}
	return refs, nil
}

// Reference joins a category directory and a document slug into the
// "<category>/<slug>" form handed to the renderer. Documents of the root
// itself are referenced by their slug alone.
func Reference(category, slug string) string {
	if category == "." || category == "" {
		return slug
	}
	return category + "/" + slug
}

// CleanDir normalizes a directory relative to the content root: surrounding
// slashes and "." segments are dropped. The result may still escape the root
// ("..") and is then rejected by fs.FS.
func CleanDir(dir string) string {
	return path.Clean(strings.Trim(dir, "/"))
}

// Label turns a directory name into a display label by upper-casing its
// first letter. The rest of the name is left as is.
func Label(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

func clean(p string) string {
	if p == "" {
		return "."
	}
	return path.Clean(p)
}
