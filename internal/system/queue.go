package system

import (
	"time"

	"github.com/puppetbridge/server/internal/core/system"
	"github.com/puppetbridge/server/internal/opqueue"
)

// QueueSystem drains the deferred operation queue once per tick, after
// the simulation has stepped so renders requested last tick are ready.
type QueueSystem struct {
	queue *opqueue.Queue
}

func NewQueueSystem(queue *opqueue.Queue) *QueueSystem {
	return &QueueSystem{queue: queue}
}

func (s *QueueSystem) Phase() system.Phase { return system.PhaseQueue }

func (s *QueueSystem) Update(dt time.Duration) {
	s.queue.Drain()
}
