package sidebar

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
)

// ErrNoTarget is returned for a declared item with neither link nor
// autogenerate set.
var ErrNoTarget = errors.New("sidebar item has neither link nor autogenerate")

// Entry is one top-level sidebar element: either a link or a group of
// document references.
type Entry struct {
	Label     string
	Link      string
	Items     []string
	Collapsed bool
}

// IsLink reports whether the entry points at a single URL.
func (e Entry) IsLink() bool { return e.Link != "" }

type linkJSON struct {
	Label string `json:"label" yaml:"label"`
	Link  string `json:"link" yaml:"link"`
}

type groupJSON struct {
	Label     string   `json:"label" yaml:"label"`
	Items     []string `json:"items" yaml:"items"`
	Collapsed bool     `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
}

func (e Entry) shape() any {
	if e.IsLink() {
		return linkJSON{Label: e.Label, Link: e.Link}
	}
	items := e.Items
	if items == nil {
		items = []string{}
	}
	return groupJSON{Label: e.Label, Items: items, Collapsed: e.Collapsed}
}

// MarshalJSON renders links as {label, link} and groups as {label, items}.
// Groups always carry an items array, even when it is empty.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.shape())
}

// MarshalYAML mirrors MarshalJSON for yaml.v3.
func (e Entry) MarshalYAML() (any, error) {
	return e.shape(), nil
}

// Autogenerate asks the builder to fill a group from one content directory.
type Autogenerate struct {
	Directory string `yaml:"directory"`
}

// Item is a sidebar entry as declared in the site configuration.
type Item struct {
	Label        string        `yaml:"label"`
	Link         string        `yaml:"link,omitempty"`
	Autogenerate *Autogenerate `yaml:"autogenerate,omitempty"`
	Collapsed    bool          `yaml:"collapsed,omitempty"`
}

// Builder merges declared items with the categories found under a content
// root. It holds no state between calls.
type Builder struct {
	fsys  fs.FS
	root  string
	items []Item
}

// NewBuilder returns a builder over root inside fsys.
func NewBuilder(fsys fs.FS, root string, items []Item) *Builder {
	return &Builder{fsys: fsys, root: root, items: items}
}

// Sidebar expands the declared items in order. Link items are copied, and
// autogenerate items become a group of their directory's documents. When no
// item uses autogenerate, every category under the root is appended after
// the declared items.
func (b *Builder) Sidebar() ([]Entry, error) {
	entries := make([]Entry, 0, len(b.items))
	autogenerated := false

	for _, it := range b.items {
		switch {
		case it.Autogenerate != nil:
			autogenerated = true
			refs, err := Group(b.fsys, b.root, it.Autogenerate.Directory)
			if err != nil {
				return nil, fmt.Errorf("failed to autogenerate %q: %w", it.Label, err)
			}
			entries = append(entries, Entry{Label: it.Label, Items: refs, Collapsed: it.Collapsed})
		case it.Link != "":
			entries = append(entries, Entry{Label: it.Label, Link: it.Link})
		default:
			return nil, fmt.Errorf("%q: %w", it.Label, ErrNoTarget)
		}
	}

	if autogenerated {
		return entries, nil
	}

	categories, err := Build(b.fsys, b.root)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		entries = append(entries, Entry{Label: c.Label, Items: c.Items})
	}
	return entries, nil
}
