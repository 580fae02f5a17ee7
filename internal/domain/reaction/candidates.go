package reaction

import (
	"strings"
	"sync"
)

// ResolvedNames is a concurrency-safe set of candidate names that have
// already produced a successful resolution somewhere in the current batch.
// It is shared across workers so identical candidates are deprioritized for
// later components instead of being retried first.
type ResolvedNames struct {
	mu    sync.Mutex
	names map[string]struct{}
}

func NewResolvedNames() *ResolvedNames {
	return &ResolvedNames{names: make(map[string]struct{})}
}

func (r *ResolvedNames) Add(name string) {
	key := normalizeCandidate(name)
	if key == "" {
		return
	}
	r.mu.Lock()
	r.names[key] = struct{}{}
	r.mu.Unlock()
}

func (r *ResolvedNames) Contains(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.names[normalizeCandidate(name)]
	return ok
}

func normalizeCandidate(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Candidates builds the ordered lookup list for a component: primary name
// first, then CAS number, then aliases.  Duplicates are removed
// case-insensitively keeping the first occurrence.  Candidates already
// resolved elsewhere in the batch are moved to the back, preserving their
// relative order, so each component tries its most specific untried name
// first.
func Candidates(c *RawComponent, prior *ResolvedNames) []string {
	seen := make(map[string]struct{})
	var fresh, deferred []string

	add := func(name string) {
		key := normalizeCandidate(name)
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		name = strings.TrimSpace(name)
		if prior != nil && prior.Contains(name) {
			deferred = append(deferred, name)
		} else {
			fresh = append(fresh, name)
		}
	}

	add(c.Name)
	add(c.CASNumber)
	for _, alias := range c.Aliases {
		add(alias)
	}
	return append(fresh, deferred...)
}
