package event

// RosterChanged fires when an actor joins or leaves the controllable set.
type RosterChanged struct {
	ActorID   int64
	Available bool
}

// ActorRenamed fires when an actor's display name or tag changes.
type ActorRenamed struct {
	ActorID int64
}

// PrioritiesChanged fires when any actor's work priorities move.
type PrioritiesChanged struct {
	ActorID int64
}

// SchedulesChanged fires when any actor's timetable moves.
type SchedulesChanged struct {
	ActorID int64
}

// ZonesChanged fires when the zone list or an actor's zone assignment
// changes.
type ZonesChanged struct{}
