package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config controls queueing and throttling of outgoing messages.
type Config struct {
	BufferSize    int
	RatePerSecond float64
	Burst         int
	SendTimeout   time.Duration
	DrainTimeout  time.Duration
}

// DefaultConfig returns conservative limits suitable for a single SMTP relay.
func DefaultConfig() Config {
	return Config{
		BufferSize:    256,
		RatePerSecond: 10,
		Burst:         20,
		SendTimeout:   10 * time.Second,
		DrainTimeout:  5 * time.Second,
	}
}

// Stats are monotonically increasing delivery counters.
type Stats struct {
	Sent    uint64
	Failed  uint64
	Dropped uint64
}

// Dispatcher queues messages and delivers them from one worker goroutine.
type Dispatcher struct {
	cfg      Config
	notifier Notifier
	logger   *zap.Logger
	limiter  *rate.Limiter

	ch   chan Message
	done chan struct{}
	wg   sync.WaitGroup

	// mu is held shared by Enqueue around its send and exclusively by Close,
	// so no message enters ch after the worker starts draining.
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once

	sent    atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

// NewDispatcher starts a dispatcher delivering through n. It returns nil when
// n is nil; a nil *Dispatcher drops everything.
func NewDispatcher(cfg Config, n Notifier, logger *zap.Logger) *Dispatcher {
	if n == nil {
		return nil
	}
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = def.RatePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = def.SendTimeout
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = def.DrainTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{
		cfg:      cfg,
		notifier: n,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		ch:       make(chan Message, cfg.BufferSize),
		done:     make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

// Enqueue hands msg to the worker. It never blocks; when the queue is full
// or the dispatcher is closed the message is dropped and false is returned.
func (d *Dispatcher) Enqueue(msg Message) bool {
	if d == nil {
		return false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		return false
	}

	select {
	case d.ch <- msg:
		return true
	default:
		d.dropped.Add(1)
		d.logger.Warn("notification queue full, dropping message", zap.String("kind", string(msg.Kind)))
		return false
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		select {
		case msg := <-d.ch:
			d.deliver(ctx, msg)
		case <-d.done:
			d.drain()
			return
		}
	}
}

// drain delivers what is still queued, bounded by DrainTimeout. Anything left
// after the deadline is counted as dropped.
func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.DrainTimeout)
	defer cancel()

	for {
		select {
		case msg := <-d.ch:
			if ctx.Err() != nil {
				d.dropped.Add(1)
				continue
			}
			d.deliver(ctx, msg)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	if err := d.limiter.Wait(ctx); err != nil {
		d.dropped.Add(1)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	if err := send(sendCtx, d.notifier, msg); err != nil {
		d.failed.Add(1)
		d.logger.Error("notification delivery failed",
			zap.String("kind", string(msg.Kind)),
			zap.Error(err),
		)
		return
	}
	d.sent.Add(1)
}

// Close stops accepting messages, flushes the queue and waits for the worker.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		close(d.done)
		d.wg.Wait()
	})
}

// Stats returns delivery counters.
func (d *Dispatcher) Stats() Stats {
	if d == nil {
		return Stats{}
	}
	return Stats{
		Sent:    d.sent.Load(),
		Failed:  d.failed.Load(),
		Dropped: d.dropped.Load(),
	}
}
