package world

import (
	"cmp"
	"errors"
	"iter"
	"slices"
)

// ErrSealed is the panic value raised when a sealed Spectators is modified.
var ErrSealed = errors.New("world: spectators sealed")

type cacheKey struct {
	pos         Position
	multiFloor  bool
	onlyPlayers bool
}

// cacheEntry holds the raw result for one query signature. covered is the
// widest window swept into it so far.
type cacheEntry struct {
	creatures []Creature
	covered   extents
	dirty     bool // creatures may hold duplicates
}

func (e *cacheEntry) merge(batch []Creature) {
	if len(batch) == 0 {
		return
	}
	e.creatures = append(e.creatures, batch...)
	e.dirty = true
}

func (e *cacheEntry) update() bool {
	if !e.dirty {
		return false
	}
	e.creatures = sortUnique(e.creatures)
	e.dirty = false
	return true
}

// sortUnique orders creatures by ID and drops repeated references in place.
func sortUnique(list []Creature) []Creature {
	slices.SortFunc(list, func(a, b Creature) int {
		return cmp.Compare(a.ID(), b.ID())
	})
	return slices.Compact(list)
}

// CacheStats counts cache activity since creation.
type CacheStats struct {
	Hits     uint64 // answered from an entry without sweeping
	Misses   uint64 // new entry swept
	Widened  uint64 // entry too narrow, extra sweep merged in
	Filtered uint64 // answer narrowed from a wider entry
	Dedups   uint64 // lazy sort-and-unique passes
	Clears   uint64
}

// Cache memoizes Resolve results per (center, multi-floor, players-only).
// Entries never expire on their own; Clear drops them all. Positions change
// far more often than a signature repeats, so coarse invalidation wins.
// Accessed only from the game loop goroutine, no locks.
type Cache struct {
	grid    *Grid
	entries map[cacheKey]*cacheEntry
	stats   CacheStats
}

func NewCache(grid *Grid) *Cache {
	return &Cache{
		grid:    grid,
		entries: make(map[cacheKey]*cacheEntry, 256),
	}
}

// Find returns the creatures visible from center under scope. The returned
// slice is a snapshot owned by the caller. References may be stale until the
// next Clear; check liveness before use.
func (c *Cache) Find(center Position, scope Scope) []Creature {
	return c.appendFind(nil, center, scope)
}

func (c *Cache) appendFind(dst []Creature, center Position, scope Scope) []Creature {
	ext := scope.extents()
	w := newWindow(center, scope.MultiFloor, ext)
	key := cacheKey{pos: center, multiFloor: scope.MultiFloor, onlyPlayers: scope.OnlyPlayers}

	e := c.entries[key]
	switch {
	case e == nil:
		c.stats.Misses++
		e = &cacheEntry{covered: ext}
		e.creatures = c.grid.sweep(make([]Creature, 0, 16), w, scope.OnlyPlayers)
		c.entries[key] = e
		return append(dst, e.creatures...)
	case !e.covered.covers(ext):
		c.stats.Widened++
		wider := e.covered.union(ext)
		e.merge(c.grid.sweep(nil, newWindow(center, scope.MultiFloor, wider), scope.OnlyPlayers))
		e.covered = wider
	default:
		c.stats.Hits++
	}

	if e.update() {
		c.stats.Dedups++
	}
	if e.covered == ext {
		return append(dst, e.creatures...)
	}
	c.stats.Filtered++
	for _, cr := range e.creatures {
		if w.contains(cr.Position()) {
			dst = append(dst, cr)
		}
	}
	return dst
}

// Clear drops every entry.
func (c *Cache) Clear() {
	clear(c.entries)
	c.stats.Clears++
}

// Len returns the number of cached signatures.
func (c *Cache) Len() int { return len(c.entries) }

// Stats returns a copy of the activity counters.
func (c *Cache) Stats() CacheStats { return c.stats }

// Spectators accumulates the results of several queries, e.g. everyone who
// sees either end of a move. Duplicates are removed lazily on first read.
// Once sealed it is read-only.
type Spectators struct {
	cache     *Cache
	creatures []Creature
	dirty     bool
	sealed    bool
}

// NewSpectators returns an empty aggregate backed by cache.
func NewSpectators(cache *Cache) *Spectators {
	return &Spectators{cache: cache}
}

func (s *Spectators) mustOpen() {
	if s.sealed {
		panic(ErrSealed)
	}
}

// Find merges the creatures visible from center under scope.
func (s *Spectators) Find(center Position, scope Scope) *Spectators {
	s.mustOpen()
	before := len(s.creatures)
	s.creatures = s.cache.appendFind(s.creatures, center, scope)
	if before > 0 && len(s.creatures) > before {
		s.dirty = true
	}
	return s
}

// Insert adds a single creature.
func (s *Spectators) Insert(c Creature) *Spectators {
	s.mustOpen()
	if c == nil {
		panic("world: insert of nil spectator")
	}
	s.creatures = append(s.creatures, c)
	s.dirty = len(s.creatures) > 1
	return s
}

// Erase removes c and reports whether it was present.
func (s *Spectators) Erase(c Creature) bool {
	s.mustOpen()
	s.update()
	i := slices.Index(s.creatures, c)
	if i < 0 {
		return false
	}
	s.creatures = slices.Delete(s.creatures, i, i+1)
	return true
}

// Seal deduplicates and freezes the aggregate.
func (s *Spectators) Seal() *Spectators {
	s.update()
	s.sealed = true
	return s
}

// Sealed reports whether Seal was called.
func (s *Spectators) Sealed() bool { return s.sealed }

func (s *Spectators) update() {
	if !s.dirty {
		return
	}
	s.creatures = sortUnique(s.creatures)
	s.dirty = false
}

// Len returns the number of distinct creatures.
func (s *Spectators) Len() int {
	s.update()
	return len(s.creatures)
}

// Contains reports whether c is among the spectators.
func (s *Spectators) Contains(c Creature) bool {
	return slices.Contains(s.creatures, c)
}

// All iterates the distinct creatures.
func (s *Spectators) All() iter.Seq[Creature] {
	s.update()
	list := s.creatures
	return func(yield func(Creature) bool) {
		for _, c := range list {
			if !yield(c) {
				return
			}
		}
	}
}

// Slice returns a copy of the distinct creatures.
func (s *Spectators) Slice() []Creature {
	s.update()
	return slices.Clone(s.creatures)
}

// Filter returns the spectators of one category.
func (s *Spectators) Filter(cat Category) []Creature {
	s.update()
	var out []Creature
	for _, c := range s.creatures {
		if c.Category() == cat {
			out = append(out, c)
		}
	}
	return out
}

// Players returns the privileged spectators.
func (s *Spectators) Players() []Creature {
	s.update()
	var out []Creature
	for _, c := range s.creatures {
		if c.Category().Privileged() {
			out = append(out, c)
		}
	}
	return out
}
