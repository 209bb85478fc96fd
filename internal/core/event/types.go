package event

import "github.com/l1jgo/spectators/internal/core/ecs"

// Position is the plain tile triple carried by events, so this package does
// not depend on world.
type Position struct {
	X, Y uint16
	Z    uint8
}

// Creature lifecycle events, emitted by world.State.

type CreatureSpawned struct {
	EntityID ecs.EntityID
	At       Position
}

type CreatureMoved struct {
	EntityID ecs.EntityID
	From     Position
	To       Position
}

type CreatureDespawned struct {
	EntityID ecs.EntityID
	At       Position
}

// Perception events, emitted by the visibility system when a player's
// known set changes.

type CreatureAppeared struct {
	Viewer ecs.EntityID
	Target ecs.EntityID
}

type CreatureVanished struct {
	Viewer ecs.EntityID
	Target ecs.EntityID
}
