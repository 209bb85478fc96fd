package world

import (
	"github.com/l1jgo/spectators/internal/core/ecs"
	"github.com/l1jgo/spectators/internal/core/event"
	"go.uber.org/zap"
)

// CreatureInfo holds in-memory data for a creature currently in-world.
// Accessed only from the game loop goroutine, no locks needed.
type CreatureInfo struct {
	EntityID ecs.EntityID
	Name     string
	Kind     Category
	Pos      Position

	// Spawn point and wander state for NPCs (see system.WanderSystem).
	SpawnPos    Position
	WanderRange int32
	WanderTimer int

	// Known is set for players only: what the visibility system last told them about.
	Known *KnownEntities
}

func (c *CreatureInfo) ID() ecs.EntityID   { return c.EntityID }
func (c *CreatureInfo) Position() Position { return c.Pos }
func (c *CreatureInfo) Category() Category { return c.Kind }

// KnownEntities tracks the creatures currently in a player's view, with the
// position each was last seen at.
type KnownEntities struct {
	Creatures map[ecs.EntityID]Position
}

func NewKnownEntities() *KnownEntities {
	return &KnownEntities{Creatures: make(map[ecs.EntityID]Position)}
}

// Options configures a State.
type Options struct {
	FloorSize int
	// ImmediateInvalidate clears the spectator cache on every mutation
	// instead of once per tick in FlushSpectators.
	ImmediateInvalidate bool
}

// State tracks all creatures currently in-world and answers spectator
// queries for them.
// Single-goroutine access only (game loop).
type State struct {
	ecs       *ecs.World
	creatures *ecs.PtrComponentStore[CreatureInfo]
	byName    map[string]*CreatureInfo

	grid  *Grid
	cache *Cache
	bus   *event.Bus
	log   *zap.Logger

	immediate bool
	stale     bool // mutations since the last cache clear
}

func NewState(ew *ecs.World, bus *event.Bus, opts Options, log *zap.Logger) *State {
	grid := NewGrid(opts.FloorSize)
	s := &State{
		ecs:       ew,
		creatures: ecs.NewPtrComponentStore[CreatureInfo](),
		byName:    make(map[string]*CreatureInfo),
		grid:      grid,
		cache:     NewCache(grid),
		bus:       bus,
		log:       log,
		immediate: opts.ImmediateInvalidate,
	}
	ew.RegisterStore(s.creatures)
	ew.OnDestroy(s.despawnNow)
	return s
}

func (s *State) Grid() *Grid   { return s.grid }
func (s *State) Cache() *Cache { return s.cache }

// AllocateRegion pre-allocates grid leaves for a static map area.
func (s *State) AllocateRegion(x1, y1, x2, y2 int32) {
	s.grid.Allocate(x1, y1, x2, y2)
}

// --- lifecycle hooks ---

// OnCreatureSpawned indexes a creature that just entered the world.
func (s *State) OnCreatureSpawned(c Creature) {
	s.grid.Insert(c)
	s.markStale()
	event.Emit(s.bus, event.CreatureSpawned{EntityID: c.ID(), At: toEventPos(c.Position())})
}

// OnCreatureMoved re-indexes a creature that moved from oldPos to newPos.
func (s *State) OnCreatureMoved(c Creature, oldPos, newPos Position) {
	s.grid.Move(c, oldPos, newPos)
	s.markStale()
	event.Emit(s.bus, event.CreatureMoved{EntityID: c.ID(), From: toEventPos(oldPos), To: toEventPos(newPos)})
}

// OnCreatureDespawned drops a creature from the index. Cached results may
// still reference it until the next flush.
func (s *State) OnCreatureDespawned(c Creature) {
	s.grid.Remove(c)
	s.markStale()
	event.Emit(s.bus, event.CreatureDespawned{EntityID: c.ID(), At: toEventPos(c.Position())})
}

func (s *State) markStale() {
	if s.immediate {
		s.cache.Clear()
		return
	}
	s.stale = true
}

// --- queries ---

// Query returns the creatures visible from center under scope.
// Results may contain despawned creatures until the next flush; check
// Alive before acting on them.
func (s *State) Query(center Position, scope Scope) []Creature {
	return s.cache.Find(center, scope)
}

// Spectators starts an aggregate query backed by the cache.
func (s *State) Spectators() *Spectators {
	return NewSpectators(s.cache)
}

// InvalidateAll drops every cached spectator result.
func (s *State) InvalidateAll() {
	s.cache.Clear()
	s.stale = false
}

// FlushSpectators clears the cache if anything moved since the last clear.
// Called once per tick after all mutations.
func (s *State) FlushSpectators() bool {
	if !s.stale {
		return false
	}
	s.InvalidateAll()
	return true
}

// Stale reports whether mutations are pending a cache flush.
func (s *State) Stale() bool { return s.stale }

// --- creature registry ---

// Spawn creates a creature and indexes it. Returns nil if pos is not on a
// real layer.
func (s *State) Spawn(name string, kind Category, pos Position) *CreatureInfo {
	if !pos.Valid() {
		s.log.Warn("refusing spawn on invalid layer",
			zap.String("name", name), zap.Uint8("z", pos.Z))
		return nil
	}
	c := &CreatureInfo{
		EntityID: s.ecs.CreateEntity(),
		Name:     name,
		Kind:     kind,
		Pos:      pos,
		SpawnPos: pos,
	}
	if kind.Privileged() {
		c.Known = NewKnownEntities()
	}
	s.creatures.Set(c.EntityID, c)
	if name != "" {
		s.byName[name] = c
	}
	s.OnCreatureSpawned(c)
	s.log.Debug("creature spawned",
		zap.Stringer("id", c.EntityID),
		zap.String("name", name),
		zap.Stringer("kind", kind),
		zap.Uint16("x", pos.X), zap.Uint16("y", pos.Y), zap.Uint8("z", pos.Z))
	return c
}

// MoveCreature moves a creature and keeps the index consistent.
// All creature position changes MUST go through this method.
// Returns false for unknown creatures and targets off the layer range.
func (s *State) MoveCreature(id ecs.EntityID, to Position) bool {
	if !to.Valid() {
		return false
	}
	c, ok := s.creatures.Get(id)
	if !ok {
		return false
	}
	from := c.Pos
	if from == to {
		return true
	}
	c.Pos = to
	s.OnCreatureMoved(c, from, to)
	return true
}

// Despawn queues a creature for removal at the end of the tick.
func (s *State) Despawn(id ecs.EntityID) {
	s.ecs.MarkForDestruction(id)
}

// despawnNow runs from the ECS destroy queue before the component is dropped.
func (s *State) despawnNow(id ecs.EntityID) {
	c, ok := s.creatures.Get(id)
	if !ok {
		return
	}
	s.OnCreatureDespawned(c)
	if s.byName[c.Name] == c {
		delete(s.byName, c.Name)
	}
	s.log.Debug("creature despawned", zap.Stringer("id", id), zap.String("name", c.Name))
}

// Alive reports whether id still names a live creature.
func (s *State) Alive(id ecs.EntityID) bool {
	return s.ecs.Alive(id)
}

// Creature returns a creature by ID, or nil.
func (s *State) Creature(id ecs.EntityID) *CreatureInfo {
	c, _ := s.creatures.Get(id)
	return c
}

// GetByName returns a creature by name, or nil.
func (s *State) GetByName(name string) *CreatureInfo {
	return s.byName[name]
}

// CreatureCount returns the number of creatures in-world.
func (s *State) CreatureCount() int {
	return s.creatures.Len()
}

// AllCreatures iterates all in-world creatures.
func (s *State) AllCreatures(fn func(*CreatureInfo)) {
	for _, c := range s.creatures.All() {
		fn(c)
	}
}

// AllPlayers iterates all in-world players.
func (s *State) AllPlayers(fn func(*CreatureInfo)) {
	for _, c := range s.creatures.All() {
		if c.Kind.Privileged() {
			fn(c)
		}
	}
}

func toEventPos(p Position) event.Position {
	return event.Position{X: p.X, Y: p.Y, Z: p.Z}
}
