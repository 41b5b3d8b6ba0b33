package cache

import (
	"github.com/spiffcs/scout/internal/model"
)

// KindStat summarizes one store.
type KindStat struct {
	Entries int `json:"entries"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}

// Stats contains per-kind cache statistics.
type Stats map[Kind]KindStat

// Total returns the number of entries across all kinds.
func (s Stats) Total() int {
	n := 0
	for _, ks := range s {
		n += ks.Entries
	}
	return n
}

// ResultCache groups the stores one session needs. Keys follow the model
// package key builders: pages by model.PageKey, issue lists and counts by
// model.RepoFilterKey, explanations by model.ExplanationKey.
type ResultCache struct {
	Pages        *Store[[]model.Repository]
	Issues       *Store[[]model.Issue]
	Counts       *Store[int]
	Explanations *Store[string]
}

// New creates an empty result cache.
func New() *ResultCache {
	return &ResultCache{
		Pages:        NewStore[[]model.Repository](KindPages),
		Issues:       NewStore[[]model.Issue](KindIssues),
		Counts:       NewStore[int](KindCounts),
		Explanations: NewStore[string](KindExplanations),
	}
}

// PutPage stores a copy of a primary page so later merges into the rendered
// result set never alias the cached slice.
func (c *ResultCache) PutPage(key string, repos []model.Repository) {
	page := make([]model.Repository, len(repos))
	copy(page, repos)
	c.Pages.Put(key, page)
}

// GetPage returns a copy of a cached primary page.
func (c *ResultCache) GetPage(key string) ([]model.Repository, bool) {
	page, ok := c.Pages.Get(key)
	if !ok {
		return nil, false
	}
	out := make([]model.Repository, len(page))
	copy(out, page)
	return out, true
}

// InvalidateAll clears every store.
func (c *ResultCache) InvalidateAll() {
	c.Pages.InvalidateAll()
	c.Issues.InvalidateAll()
	c.Counts.InvalidateAll()
	c.Explanations.InvalidateAll()
}

// Stats returns per-kind statistics.
func (c *ResultCache) Stats() Stats {
	return Stats{
		KindPages:        c.Pages.Stat(),
		KindIssues:       c.Issues.Stat(),
		KindCounts:       c.Counts.Stat(),
		KindExplanations: c.Explanations.Stat(),
	}
}
