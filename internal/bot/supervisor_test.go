package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/knightvest/assistant-service/pkg/chattransport"
)

type fakeTransport struct {
	mu          sync.Mutex
	msgHandler  chattransport.MessageHandler
	evtHandler  chattransport.EventHandler
	connectErrs []error
	connects    int
	sent        []string
	sendErr     error

	connected chan struct{}
}

func newFakeTransport(connectErrs ...error) *fakeTransport {
	return &fakeTransport{
		connectErrs: connectErrs,
		connected:   make(chan struct{}, 16),
	}
}

func (f *fakeTransport) Connect(ctx context.Context) error {
	f.mu.Lock()
	f.connects++
	var err error
	if f.connects <= len(f.connectErrs) {
		err = f.connectErrs[f.connects-1]
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.connected <- struct{}{}
	return nil
}

func (f *fakeTransport) OnMessage(handler chattransport.MessageHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgHandler = handler
}

func (f *fakeTransport) OnConnectionEvent(handler chattransport.EventHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evtHandler = handler
}

func (f *fakeTransport) SendText(ctx context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, to+"|"+text)
	return nil
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) deliver(msg chattransport.Message) {
	f.mu.Lock()
	handler := f.msgHandler
	f.mu.Unlock()
	handler(context.Background(), msg)
}

func (f *fakeTransport) dropConnection(err error) {
	f.mu.Lock()
	handler := f.evtHandler
	f.mu.Unlock()
	handler(chattransport.ConnectionEvent{Type: chattransport.EventDisconnected, Err: err})
}

func (f *fakeTransport) connectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

func (f *fakeTransport) sentMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type echoService struct{}

func (echoService) HandleMessage(ctx context.Context, phone, text string) string {
	return "echo: " + text
}

type silentService struct{}

func (silentService) HandleMessage(ctx context.Context, phone, text string) string {
	return ""
}

func waitForState(t *testing.T, s *Supervisor, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state never reached %s, still %s", want, s.State())
}

func TestSupervisor_DispatchesRepliesForInboundMessages(t *testing.T) {
	transport := newFakeTransport()
	supervisor := NewSupervisor(transport, echoService{}, 3, time.Millisecond, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- supervisor.Run(ctx) }()

	<-transport.connected
	transport.deliver(chattransport.Message{From: "+15550001", Text: "deposit 100"})

	sent := transport.sentMessages()
	if len(sent) != 1 || sent[0] != "+15550001|echo: deposit 100" {
		t.Fatalf("expected one echoed reply, got %v", sent)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if got := supervisor.State(); got != StateDisconnected {
		t.Fatalf("expected disconnected after shutdown, got %s", got)
	}
}

func TestSupervisor_EmptyReplyIsNotSent(t *testing.T) {
	transport := newFakeTransport()
	supervisor := NewSupervisor(transport, silentService{}, 3, time.Millisecond, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- supervisor.Run(ctx) }()

	<-transport.connected
	transport.deliver(chattransport.Message{From: "+15550001", Text: "hi"})

	if sent := transport.sentMessages(); len(sent) != 0 {
		t.Fatalf("expected no outbound messages, got %v", sent)
	}
	cancel()
	<-done
}

func TestSupervisor_ReconnectsAfterDisconnect(t *testing.T) {
	transport := newFakeTransport()
	supervisor := NewSupervisor(transport, echoService{}, 3, time.Millisecond, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- supervisor.Run(ctx) }()

	<-transport.connected
	transport.dropConnection(errors.New("stream closed"))
	<-transport.connected
	waitForState(t, supervisor, StateConnected)

	if got := transport.connectCount(); got != 2 {
		t.Fatalf("expected 2 connects, got %d", got)
	}

	// Messages keep flowing on the new session.
	transport.deliver(chattransport.Message{From: "+15550001", Text: "still here"})
	if sent := transport.sentMessages(); len(sent) != 1 {
		t.Fatalf("expected reply on new session, got %v", sent)
	}

	cancel()
	<-done
}

func TestSupervisor_RetriesConnectWithBackoffThenRecovers(t *testing.T) {
	transport := newFakeTransport(errors.New("dial refused"), errors.New("dial refused"))
	supervisor := NewSupervisor(transport, echoService{}, 5, time.Millisecond, 4*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- supervisor.Run(ctx) }()

	<-transport.connected
	waitForState(t, supervisor, StateConnected)
	if got := transport.connectCount(); got != 3 {
		t.Fatalf("expected 3 connect attempts, got %d", got)
	}

	cancel()
	<-done
}

func TestSupervisor_FailsAfterReconnectBudgetExhausted(t *testing.T) {
	errs := make([]error, 3)
	for i := range errs {
		errs[i] = fmt.Errorf("dial refused %d", i)
	}
	transport := newFakeTransport(errs...)
	supervisor := NewSupervisor(transport, echoService{}, 3, time.Millisecond, 4*time.Millisecond)

	err := supervisor.Run(context.Background())
	if !errors.Is(err, ErrReconnectExhausted) {
		t.Fatalf("expected ErrReconnectExhausted, got %v", err)
	}
	if got := supervisor.State(); got != StateFailed {
		t.Fatalf("expected failed state, got %s", got)
	}
	if got := transport.connectCount(); got != 3 {
		t.Fatalf("expected 3 connect attempts, got %d", got)
	}
}

func TestSupervisor_SendFailureIsDroppedNotFatal(t *testing.T) {
	transport := newFakeTransport()
	transport.sendErr = errors.New("publish failed")
	supervisor := NewSupervisor(transport, echoService{}, 3, time.Millisecond, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- supervisor.Run(ctx) }()

	<-transport.connected
	transport.deliver(chattransport.Message{From: "+15550001", Text: "hi"})
	if got := supervisor.State(); got != StateConnected {
		t.Fatalf("expected supervisor to stay connected, got %s", got)
	}

	cancel()
	<-done
}
