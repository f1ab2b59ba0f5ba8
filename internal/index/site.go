package index

import (
	"sort"
	"sync"
	"time"

	"github.com/mkbrechtel/patterns/internal/render"
	"github.com/mkbrechtel/patterns/internal/sidebar"
)

// Snapshot is the output of one successful site build.
type Snapshot struct {
	Entries  []sidebar.Entry
	Pages    map[string]*render.Page // ID -> Page
	BuiltAt  time.Time
	Duration time.Duration
}

// SiteIndex holds the snapshot currently being served. Builds replace it as a
// whole, readers never see a partially built site.
type SiteIndex struct {
	mu         sync.RWMutex
	snapshot   *Snapshot
	views      map[string]int64 // ID -> page views
	lastReload time.Time
	reloads    int
}

// NewSiteIndex creates an empty index
func NewSiteIndex() *SiteIndex {
	return &SiteIndex{
		views: make(map[string]int64),
	}
}

// Update replaces the served snapshot
func (idx *SiteIndex) Update(snap *Snapshot) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.snapshot = snap
	idx.lastReload = time.Now()
	idx.reloads++
}

// Snapshot returns the served snapshot, nil before the first build
func (idx *SiteIndex) Snapshot() *Snapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.snapshot
}

// Ready reports whether a snapshot has been loaded
func (idx *SiteIndex) Ready() bool {
	return idx.Snapshot() != nil
}

// Entries returns the sidebar of the served snapshot
func (idx *SiteIndex) Entries() []sidebar.Entry {
	snap := idx.Snapshot()
	if snap == nil {
		return nil
	}
	return snap.Entries
}

// GetPage retrieves a page by ID
func (idx *SiteIndex) GetPage(id string) (*render.Page, bool) {
	snap := idx.Snapshot()
	if snap == nil {
		return nil, false
	}
	p, ok := snap.Pages[id]
	return p, ok
}

// PageIDs returns the IDs of all served pages, sorted
func (idx *SiteIndex) PageIDs() []string {
	snap := idx.Snapshot()
	if snap == nil {
		return nil
	}
	ids := make([]string, 0, len(snap.Pages))
	for id := range snap.Pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of served pages
func (idx *SiteIndex) Count() int {
	snap := idx.Snapshot()
	if snap == nil {
		return 0
	}
	return len(snap.Pages)
}

// GetLastReload returns the timestamp of the last successful build
func (idx *SiteIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}

// Reloads returns how many snapshots have been installed
func (idx *SiteIndex) Reloads() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.reloads
}

// ─────────────────────────────────────────────────────────────────
// Page views
// ─────────────────────────────────────────────────────────────────

// IncrementViews bumps the view counter of a page and returns the new value
func (idx *SiteIndex) IncrementViews(id string) int64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.views[id]++
	return idx.views[id]
}

// Views returns the view counter of a page
func (idx *SiteIndex) Views(id string) int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.views[id]
}

// MergeViews raises local counters to the given values, used when counters
// are restored from the store
func (idx *SiteIndex) MergeViews(views map[string]int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for id, n := range views {
		if n > idx.views[id] {
			idx.views[id] = n
		}
	}
}

// DeleteViews drops the counter of a page
func (idx *SiteIndex) DeleteViews(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.views, id)
}

// ViewIDs returns the IDs that have a counter
func (idx *SiteIndex) ViewIDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ids := make([]string, 0, len(idx.views))
	for id := range idx.views {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
