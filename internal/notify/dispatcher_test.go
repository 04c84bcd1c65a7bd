package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type recordingNotifier struct {
	mu       sync.Mutex
	verify   []Message
	reset    []Message
	fail     bool
	block    chan struct{}
	received chan struct{}
}

func (r *recordingNotifier) SendVerification(ctx context.Context, msg Message) error {
	return r.record(ctx, &r.verify, msg)
}

func (r *recordingNotifier) SendPasswordReset(ctx context.Context, msg Message) error {
	return r.record(ctx, &r.reset, msg)
}

func (r *recordingNotifier) record(ctx context.Context, into *[]Message, msg Message) error {
	if r.received != nil {
		r.received <- struct{}{}
	}
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("smtp down")
	}
	*into = append(*into, msg)
	return nil
}

func (r *recordingNotifier) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.verify), len(r.reset)
}

func TestDispatcherRoutesByKind(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDispatcher(DefaultConfig(), n, nil)

	if !d.Enqueue(Message{Kind: KindVerification, To: "a@example.com"}) {
		t.Fatal("expected enqueue to succeed")
	}
	if !d.Enqueue(Message{Kind: KindPasswordReset, To: "b@example.com"}) {
		t.Fatal("expected enqueue to succeed")
	}
	d.Close()

	verify, reset := n.counts()
	if verify != 1 || reset != 1 {
		t.Fatalf("expected one of each kind, got verify=%d reset=%d", verify, reset)
	}
	if s := d.Stats(); s.Sent != 2 || s.Failed != 0 || s.Dropped != 0 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestDispatcherCountsFailures(t *testing.T) {
	n := &recordingNotifier{fail: true}
	d := NewDispatcher(DefaultConfig(), n, nil)

	d.Enqueue(Message{Kind: KindVerification})
	d.Close()

	if s := d.Stats(); s.Failed != 1 || s.Sent != 0 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	n := &recordingNotifier{block: make(chan struct{}), received: make(chan struct{}, 8)}
	cfg := DefaultConfig()
	cfg.BufferSize = 1
	d := NewDispatcher(cfg, n, nil)

	d.Enqueue(Message{Kind: KindVerification})
	<-n.received // worker is now blocked inside the sender

	if !d.Enqueue(Message{Kind: KindVerification}) {
		t.Fatal("second message should fit in the buffer")
	}
	if d.Enqueue(Message{Kind: KindVerification}) {
		t.Fatal("third message should be dropped")
	}

	close(n.block)
	d.Close()

	if s := d.Stats(); s.Dropped != 1 || s.Sent != 2 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(DefaultConfig(), &recordingNotifier{}, nil)
	d.Close()
	d.Close()

	if d.Enqueue(Message{Kind: KindVerification}) {
		t.Fatal("closed dispatcher must not accept messages")
	}
}

func TestDispatcherAccountsForEveryMessageAcrossClose(t *testing.T) {
	n := &recordingNotifier{}
	cfg := DefaultConfig()
	cfg.RatePerSecond = 1e6
	cfg.Burst = 1000
	cfg.BufferSize = 64
	d := NewDispatcher(cfg, n, nil)

	const (
		senders = 8
		each    = 200
	)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < each; j++ {
				d.Enqueue(Message{Kind: KindVerification})
			}
		}()
	}

	close(start)
	d.Close()
	wg.Wait()

	verify, _ := n.counts()
	s := d.Stats()
	if uint64(verify) != s.Sent {
		t.Fatalf("sent counter %d disagrees with %d deliveries", s.Sent, verify)
	}
	if total := s.Sent + s.Failed + s.Dropped; total != senders*each {
		t.Fatalf("accounted for %d of %d messages: %+v", total, senders*each, s)
	}
}

func TestNilDispatcher(t *testing.T) {
	d := NewDispatcher(DefaultConfig(), nil, nil)
	if d != nil {
		t.Fatal("expected nil dispatcher without a notifier")
	}
	if d.Enqueue(Message{}) {
		t.Fatal("nil dispatcher must drop")
	}
	d.Close()
	if d.Stats() != (Stats{}) {
		t.Fatal("nil dispatcher must report zero stats")
	}
}

func TestDispatcherThrottles(t *testing.T) {
	n := &recordingNotifier{}
	cfg := DefaultConfig()
	cfg.RatePerSecond = 20
	cfg.Burst = 1
	d := NewDispatcher(cfg, n, nil)

	start := time.Now()
	for i := 0; i < 3; i++ {
		d.Enqueue(Message{Kind: KindVerification})
	}
	d.Close()

	// One token up front, then 50ms per message.
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Fatalf("expected throttled delivery, finished in %v", elapsed)
	}
	if verify, _ := n.counts(); verify != 3 {
		t.Fatalf("expected 3 deliveries, got %d", verify)
	}
}

func TestLogNotifierRedactsLinks(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(&buf), zap.InfoLevel)
	n := &LogNotifier{Logger: zap.New(core)}

	secret := "0123456789abcdef"
	if err := n.SendPasswordReset(context.Background(), Message{
		Kind: KindPasswordReset,
		To:   "a@example.com",
		Link: "https://app.example.com/reset-password/" + secret,
	}); err != nil {
		t.Fatalf("SendPasswordReset failed: %v", err)
	}
	if strings.Contains(buf.String(), secret) {
		t.Fatalf("raw token leaked into log: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "https://app.example.com/[redacted]") {
		t.Fatalf("expected redacted link, got %s", buf.String())
	}

	buf.Reset()
	n.RevealLinks = true
	_ = n.SendVerification(context.Background(), Message{Kind: KindVerification, Link: "https://app.example.com/verify-email/" + secret})
	if !strings.Contains(buf.String(), secret) {
		t.Fatal("RevealLinks should log the full link")
	}
}
