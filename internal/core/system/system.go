package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput   Phase = iota // 0: drain relay frames
	PhaseEvent                // 1: deliver last tick's events
	PhaseUpdate               // 2: simulation step
	PhaseQueue                // 3: drain deferred operations
	PhasePush                 // 4: periodic outbound pushes
	PhaseOutput               // 5: flush the relay socket
	PhasePersist              // 6: periodic saves
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
