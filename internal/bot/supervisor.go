/**
 * @description
 * This file implements the connection supervisor: the component that owns
 * the chat-transport session lifecycle. It connects, dispatches inbound
 * messages to the assistant service, and drives an explicit reconnect state
 * machine (Connected -> Reconnecting -> Failed) with bounded backoff instead
 * of exiting the process on disconnect.
 *
 * Duplicate-delivery safety: Transport.Connect tears down the previous
 * session and drains its consume loop before installing the new one, so at
 * no point can one message reach two handler instances. Ledger operations
 * already committed when a disconnect hits are unaffected.
 */

package bot

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/knightvest/assistant-service/pkg/chattransport"
)

// State is the supervisor's connection state.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// MessageService handles one inbound message and produces the reply text.
type MessageService interface {
	HandleMessage(ctx context.Context, phone, text string) string
}

// ErrReconnectExhausted is returned by Run when the bounded backoff gives up.
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

// Supervisor owns the transport session lifecycle.
type Supervisor struct {
	transport chattransport.Transport
	service   MessageService

	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	state        atomic.Int32
	disconnected chan error
}

// NewSupervisor creates a supervisor with the given backoff policy.
// maxAttempts bounds consecutive failed reconnects before Run gives up.
func NewSupervisor(transport chattransport.Transport, service MessageService, maxAttempts int, initialBackoff, maxBackoff time.Duration) *Supervisor {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if initialBackoff <= 0 {
		initialBackoff = time.Second
	}
	if maxBackoff < initialBackoff {
		maxBackoff = 30 * time.Second
	}
	return &Supervisor{
		transport:      transport,
		service:        service,
		maxAttempts:    maxAttempts,
		initialBackoff: initialBackoff,
		maxBackoff:     maxBackoff,
		disconnected:   make(chan error, 1),
	}
}

// State reports the current connection state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Run connects and supervises the session until ctx is cancelled or the
// reconnect budget is exhausted. It blocks.
func (s *Supervisor) Run(ctx context.Context) error {
	s.transport.OnMessage(s.handleMessage)
	s.transport.OnConnectionEvent(s.handleConnectionEvent)

	for {
		if err := s.connectWithBackoff(ctx); err != nil {
			s.state.Store(int32(StateFailed))
			return err
		}
		s.state.Store(int32(StateConnected))
		log.Printf("level=info component=supervisor msg=\"transport connected\"")

		select {
		case <-ctx.Done():
			s.state.Store(int32(StateDisconnected))
			return s.transport.Close()
		case err := <-s.disconnected:
			log.Printf("level=warn component=supervisor msg=\"transport disconnected\" err=%v", err)
			s.state.Store(int32(StateReconnecting))
		}
	}
}

func (s *Supervisor) connectWithBackoff(ctx context.Context) error {
	backoff := s.initialBackoff
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.transport.Connect(ctx)
		if err == nil {
			// A disconnect notification from the session we just replaced
			// may still be buffered; it must not tear down the new session.
			select {
			case <-s.disconnected:
			default:
			}
			return nil
		}
		log.Printf("level=warn component=supervisor msg=\"connect failed\" attempt=%d max_attempts=%d backoff=%s err=%v",
			attempt, s.maxAttempts, backoff, err)
		if attempt == s.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.maxBackoff {
			backoff = s.maxBackoff
		}
	}
	return ErrReconnectExhausted
}

func (s *Supervisor) handleMessage(ctx context.Context, msg chattransport.Message) {
	reply := s.service.HandleMessage(ctx, msg.From, msg.Text)
	if reply == "" {
		return
	}
	// Outbound delivery is best effort: failures are logged and dropped.
	if err := s.transport.SendText(ctx, msg.From, reply); err != nil {
		log.Printf("level=error component=supervisor msg=\"reply send failed\" phone=%s err=%v", msg.From, err)
	}
}

func (s *Supervisor) handleConnectionEvent(evt chattransport.ConnectionEvent) {
	if evt.Type != chattransport.EventDisconnected {
		return
	}
	select {
	case s.disconnected <- evt.Err:
	default:
	}
}
