package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/puppetbridge/server/internal/config"
	"github.com/puppetbridge/server/internal/protocol"
)

// Session is the bridge's connection to the relay. It dials out, keeps a
// read goroutine feeding In and a write goroutine draining batches, and
// redials with backoff when the socket drops. Send and FlushOutput are
// game-loop only; In is consumed by the game loop each tick.
type Session struct {
	cfg config.RelayConfig
	log *zap.Logger

	// In receives every decoded frame from the relay. A full channel
	// drops frames rather than stalling the socket.
	In chan protocol.Envelope

	mu     sync.Mutex
	outBuf []protocol.Envelope

	batches   chan []protocol.Envelope
	connected atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}
}

// Dial starts the session. It returns immediately; the connection is
// established (and re-established) in the background.
func Dial(ctx context.Context, cfg config.RelayConfig, log *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		cfg:     cfg,
		log:     log,
		In:      make(chan protocol.Envelope, cfg.InQueueSize),
		batches: make(chan []protocol.Envelope, cfg.OutQueueSize),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// Connected reports whether a socket is currently up.
func (s *Session) Connected() bool { return s.connected.Load() }

// Send buffers an envelope for the next flush.
func (s *Session) Send(env protocol.Envelope) {
	s.mu.Lock()
	s.outBuf = append(s.outBuf, env)
	s.mu.Unlock()
}

// FlushOutput hands the buffered frames to the write goroutine, at most
// MaxMessagesPerTick of them; the rest stay buffered for the next tick.
// While disconnected the buffer is discarded: the relay gets a fresh
// snapshot on reconnect instead of a stale backlog.
func (s *Session) FlushOutput() {
	s.mu.Lock()
	if len(s.outBuf) == 0 {
		s.mu.Unlock()
		return
	}
	if !s.connected.Load() {
		s.outBuf = s.outBuf[:0]
		s.mu.Unlock()
		return
	}
	n := len(s.outBuf)
	if limit := s.cfg.MaxMessagesPerTick; limit > 0 && n > limit {
		n = limit
	}
	batch := make([]protocol.Envelope, n)
	copy(batch, s.outBuf)
	s.outBuf = append(s.outBuf[:0], s.outBuf[n:]...)
	s.mu.Unlock()

	select {
	case s.batches <- batch:
	default:
		s.log.Warn("output queue full, dropping batch", zap.Int("frames", len(batch)))
	}
}

// Close tears the session down and waits for its goroutines.
func (s *Session) Close() {
	s.cancel()
	<-s.done
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	backoff := s.cfg.ReconnectMin
	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("relay dial failed",
				zap.String("url", s.cfg.URL),
				zap.Duration("retryIn", backoff),
				zap.Error(err))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff *= 2
			if backoff > s.cfg.ReconnectMax {
				backoff = s.cfg.ReconnectMax
			}
			continue
		}

		s.log.Info("relay connected", zap.String("url", s.cfg.URL))
		backoff = s.cfg.ReconnectMin
		s.connected.Store(true)

		writerDone := make(chan struct{})
		go s.writeLoop(conn, writerDone)
		s.readLoop(ctx, conn)

		s.connected.Store(false)
		conn.Close()
		<-writerDone
		if ctx.Err() != nil {
			return
		}
		s.log.Info("relay disconnected, reconnecting")
	}
}

// readLoop decodes frames until the socket fails or the context ends.
func (s *Session) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var env protocol.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() == nil {
				s.log.Warn("relay read failed", zap.Error(err))
			}
			return
		}
		select {
		case s.In <- env:
		default:
			s.log.Warn("input queue full, dropping frame", zap.String("type", env.Type))
		}
	}
}

// writeLoop serializes batches onto the socket. It exits when the socket
// errors or the session drops the connection flag.
func (s *Session) writeLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for s.connected.Load() {
		select {
		case batch := <-s.batches:
			for _, env := range batch {
				conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
				if err := conn.WriteJSON(env); err != nil {
					s.log.Warn("relay write failed", zap.Error(err))
					conn.Close()
					return
				}
			}
		case <-time.After(time.Second):
			// re-check connected
		}
	}
}
