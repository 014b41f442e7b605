package opqueue

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Kind buckets deferred operations so expensive work can be rationed.
// Ordering is FIFO within a kind; kinds drain independently.
type Kind string

const (
	KindCommand   Kind = "command"
	KindPortrait  Kind = "portrait"
	KindSelect    Kind = "select"
	KindSocial    Kind = "social"
	KindGear      Kind = "gear"
	KindInventory Kind = "inventory"
	KindRenderMap Kind = "rendermap"
)

// ErrRetry asks the queue to run the operation again on a later tick.
// Honored once per operation; a second ErrRetry drops it.
var ErrRetry = errors.New("opqueue: retry")

type op struct {
	name    string
	fn      func() error
	retried bool
}

// Queue collects operations from any goroutine and runs them on the game
// loop, once per tick, under per-kind budgets. A budget of 0 means no cap.
type Queue struct {
	mu      sync.Mutex
	pending map[Kind][]op

	budgets map[Kind]int
	log     *zap.Logger
}

func New(budgets map[Kind]int, log *zap.Logger) *Queue {
	return &Queue{
		pending: make(map[Kind][]op),
		budgets: budgets,
		log:     log,
	}
}

// Push enqueues an operation. The name is for logs only.
func (q *Queue) Push(kind Kind, name string, fn func() error) {
	q.mu.Lock()
	q.pending[kind] = append(q.pending[kind], op{name: name, fn: fn})
	q.mu.Unlock()
}

// Len returns the number of pending operations of a kind.
func (q *Queue) Len(kind Kind) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending[kind])
}

// Drain runs up to each kind's budget of operations, in enqueue order.
// Call once per tick from the game loop. An operation that panics is
// dropped and logged; one that returns ErrRetry goes back to the tail of
// its kind, at most once.
func (q *Queue) Drain() {
	q.mu.Lock()
	batch := make(map[Kind][]op, len(q.pending))
	for kind, ops := range q.pending {
		n := len(ops)
		if budget := q.budgets[kind]; budget > 0 && n > budget {
			n = budget
		}
		batch[kind] = ops[:n]
		rest := ops[n:]
		if len(rest) == 0 {
			delete(q.pending, kind)
		} else {
			q.pending[kind] = rest
		}
	}
	q.mu.Unlock()

	for kind, ops := range batch {
		for _, o := range ops {
			q.run(kind, o)
		}
	}
}

func (q *Queue) run(kind Kind, o op) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("deferred op panicked",
				zap.String("kind", string(kind)),
				zap.String("op", o.name),
				zap.Any("panic", r))
		}
	}()
	err := o.fn()
	switch {
	case err == nil:
	case errors.Is(err, ErrRetry):
		if o.retried {
			q.log.Warn("deferred op gave up after retry",
				zap.String("kind", string(kind)),
				zap.String("op", o.name))
			return
		}
		o.retried = true
		q.mu.Lock()
		q.pending[kind] = append(q.pending[kind], o)
		q.mu.Unlock()
	default:
		q.log.Warn("deferred op failed",
			zap.String("kind", string(kind)),
			zap.String("op", o.name),
			zap.Error(err))
	}
}
