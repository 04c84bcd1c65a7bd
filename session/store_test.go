package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore/internal/cache"
)

// commandCounter is a go-redis hook recording every command name sent.
type commandCounter struct {
	mu   sync.Mutex
	cmds []string
}

func (c *commandCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (c *commandCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		c.mu.Lock()
		c.cmds = append(c.cmds, strings.ToLower(cmd.Name()))
		c.mu.Unlock()
		return next(ctx, cmd)
	}
}

func (c *commandCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (c *commandCounter) reset() {
	c.mu.Lock()
	c.cmds = nil
	c.mu.Unlock()
}

func (c *commandCounter) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, cmd := range c.cmds {
		if cmd == name {
			n++
		}
	}
	return n
}

func (c *commandCounter) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cmds)
}

type recordingObserver struct {
	events []Event
}

func (r *recordingObserver) SessionEvent(e Event) { r.events = append(r.events, e) }

// afterCommand runs fn once a command with the given name has completed.
type afterCommand struct {
	name string
	fn   func()
}

func (a *afterCommand) DialHook(next redis.DialHook) redis.DialHook { return next }

func (a *afterCommand) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if strings.EqualFold(cmd.Name(), a.name) && a.fn != nil {
			a.fn()
		}
		return err
	}
}

func (a *afterCommand) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

type testEnv struct {
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	store    *Store
	counter  *commandCounter
	observer *recordingObserver
	now      time.Time
}

func newTestStore(t *testing.T) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	counter := &commandCounter{}
	rdb.AddHook(counter)
	t.Cleanup(func() { _ = rdb.Close() })

	env := &testEnv{
		mr:       mr,
		rdb:      rdb,
		counter:  counter,
		observer: &recordingObserver{},
		now:      time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}

	cfg := cache.DefaultConfig()
	cfg.RetryInterval = 0
	env.store = NewStore(cache.New(rdb, cfg), Config{}, nil, env.observer)
	env.store.now = func() time.Time { return env.now }
	return env
}

func TestSessionRoundTrip(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()

	id, err := env.store.Create(ctx, Payload{UserID: "u1", Role: RoleUser})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(id) != 64 {
		t.Fatalf("expected 64-char id, got %d", len(id))
	}
	if ttl := env.mr.TTL("session:" + id); ttl != 7*24*time.Hour {
		t.Fatalf("expected 7d ttl, got %v", ttl)
	}

	sess := env.store.Get(ctx, id)
	if sess == nil {
		t.Fatal("expected session")
	}
	if sess.UserID != "u1" || sess.Role != RoleUser || sess.ID != id {
		t.Fatalf("unexpected session %+v", sess)
	}
	if !sess.CreatedAt.Equal(env.now) || !sess.LastAccessed.Equal(env.now) {
		t.Fatalf("unexpected timestamps %+v", sess)
	}

	if !env.store.Delete(ctx, id) {
		t.Fatal("expected Delete to report removal")
	}
	if env.store.Get(ctx, id) != nil {
		t.Fatal("expected nil after delete")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()

	id, err := env.store.Create(ctx, Payload{UserID: "u1", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !env.store.Delete(ctx, id) {
		t.Fatal("first delete should remove the record")
	}
	if env.store.Delete(ctx, id) {
		t.Fatal("second delete should report nothing removed")
	}
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()

	for _, p := range []Payload{{Role: RoleUser}, {UserID: "u1", Role: "root"}} {
		if _, err := env.store.Create(ctx, p); err != ErrInvalidPayload {
			t.Fatalf("Create(%+v) = %v, want ErrInvalidPayload", p, err)
		}
	}
}

func TestCreateSurfacesUnavailable(t *testing.T) {
	env := newTestStore(t)
	env.mr.Close()

	_, err := env.store.Create(context.Background(), Payload{UserID: "u1", Role: RoleUser})
	if err == nil || !strings.Contains(err.Error(), ErrSessionUnavailable.Error()) {
		t.Fatalf("expected ErrSessionUnavailable, got %v", err)
	}
}

func TestUnconfiguredStore(t *testing.T) {
	store := NewStore(cache.New(nil, cache.DefaultConfig()), Config{}, nil, nil)
	ctx := context.Background()

	if _, err := store.Create(ctx, Payload{UserID: "u1", Role: RoleUser}); err == nil {
		t.Fatal("expected Create to fail without a cache")
	}
	id := strings.Repeat("ab", 32)
	if store.Get(ctx, id) != nil {
		t.Fatal("expected nil session")
	}
	if store.Touch(ctx, id, nil) {
		t.Fatal("expected touch to fail")
	}
	if store.Delete(ctx, id) {
		t.Fatal("expected delete to report false")
	}
	if store.Health(ctx).Healthy {
		t.Fatal("expected unhealthy")
	}
}

func TestGetDeletesCorruptRecord(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()
	id := strings.Repeat("cd", 32)

	for _, body := range []string{`not json`, `{"id":"u1","role":"superuser","createdAt":1,"lastAccessed":1}`, `{"role":"user"}`} {
		if err := env.mr.Set("session:"+id, body); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if env.store.Get(ctx, id) != nil {
			t.Fatalf("expected nil for corrupt body %q", body)
		}
		if env.mr.Exists("session:" + id) {
			t.Fatalf("expected corrupt body %q to be deleted", body)
		}
	}
}

func TestGetRejectsMalformedID(t *testing.T) {
	env := newTestStore(t)

	for _, id := range []string{"", "short", strings.Repeat("z", 64), "../" + strings.Repeat("a", 61)} {
		if env.store.Get(context.Background(), id) != nil {
			t.Fatalf("expected nil for id %q", id)
		}
	}
	if env.counter.total() != 0 {
		t.Fatalf("malformed ids must not reach redis, saw %d commands", env.counter.total())
	}
}

func TestTouchWithinIntervalSkipsWrite(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()

	id, err := env.store.Create(ctx, Payload{UserID: "u1", Role: RoleUser})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first := env.now
	if !env.store.Touch(ctx, id, nil) {
		t.Fatal("first touch should succeed")
	}

	env.counter.reset()
	env.now = env.now.Add(time.Minute)
	if !env.store.Touch(ctx, id, &first) {
		t.Fatal("throttled touch must still report true")
	}
	if env.counter.total() != 0 {
		t.Fatalf("throttled touch issued %d redis commands", env.counter.total())
	}
}

func TestTouchAfterIntervalRefreshes(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()

	id, err := env.store.Create(ctx, Payload{UserID: "u1", Role: RoleUser})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	created := env.now

	env.mr.FastForward(time.Hour)
	env.now = env.now.Add(6 * time.Minute)
	env.counter.reset()

	if !env.store.Touch(ctx, id, &created) {
		t.Fatal("expected touch to succeed")
	}
	if env.counter.count("set") != 1 {
		t.Fatalf("expected exactly one SET, saw %v", env.counter.cmds)
	}
	if ttl := env.mr.TTL("session:" + id); ttl != 7*24*time.Hour {
		t.Fatalf("expected ttl reset to 7d, got %v", ttl)
	}

	sess := env.store.Get(ctx, id)
	if sess == nil || !sess.LastAccessed.Equal(env.now) || !sess.CreatedAt.Equal(created) {
		t.Fatalf("unexpected session after touch: %+v", sess)
	}
}

func TestTouchIgnoresFutureHint(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()

	id, err := env.store.Create(ctx, Payload{UserID: "u1", Role: RoleUser})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	future := env.now.Add(time.Hour)
	env.counter.reset()
	if !env.store.Touch(ctx, id, &future) {
		t.Fatal("expected touch to succeed")
	}
	if env.counter.count("set") != 1 {
		t.Fatal("a future hint must not suppress the refresh")
	}
}

func TestTouchDoesNotResurrectDeletedSession(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()

	id, err := env.store.Create(ctx, Payload{UserID: "u1", Role: RoleUser})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Log out lands between Touch's read and its write.
	env.rdb.AddHook(&afterCommand{name: "get", fn: func() { env.mr.Del("session:" + id) }})

	if env.store.Touch(ctx, id, nil) {
		t.Fatal("touch of a concurrently deleted session must report false")
	}
	if env.mr.Exists("session:" + id) {
		t.Fatal("touch recreated a deleted session")
	}
}

func TestTouchMissingSession(t *testing.T) {
	env := newTestStore(t)

	if env.store.Touch(context.Background(), strings.Repeat("ef", 32), nil) {
		t.Fatal("expected false for missing session")
	}
}

func TestValidateDeletesStaleSession(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()

	id, err := env.store.Create(ctx, Payload{UserID: "u1", Role: RoleUser})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if env.store.Validate(ctx, id) == nil {
		t.Fatal("fresh session should validate")
	}

	// The cache entry is still present, but the clock says it is too old.
	env.now = env.now.Add(7*24*time.Hour + time.Second)
	if env.store.Validate(ctx, id) != nil {
		t.Fatal("stale session must not validate")
	}
	if env.mr.Exists("session:" + id) {
		t.Fatal("stale session must be deleted")
	}

	last := env.observer.events[len(env.observer.events)-1]
	if last != EventStaleDeleted {
		t.Fatalf("expected EventStaleDeleted, got %v", last)
	}
}

func TestActiveSessionOutlivesTTLFromCreation(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()

	id, err := env.store.Create(ctx, Payload{UserID: "u1", Role: RoleUser})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for day := 1; day <= 10; day++ {
		env.now = env.now.Add(24 * time.Hour)
		env.mr.FastForward(24 * time.Hour)

		if env.store.Validate(ctx, id) == nil {
			t.Fatalf("day %d: active session rejected", day)
		}
		if !env.store.Touch(ctx, id, nil) {
			t.Fatalf("day %d: touch failed", day)
		}
	}

	// Idle for longer than the TTL by the clock, even though the key survives.
	env.now = env.now.Add(7*24*time.Hour + time.Second)
	if env.store.Validate(ctx, id) != nil {
		t.Fatal("idle session must not validate")
	}
}

func TestHealth(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()

	h := env.store.Health(ctx)
	if !h.Healthy || h.Probe != "ok" || h.Cache.State != "connected" {
		t.Fatalf("unexpected health %+v", h)
	}
	if env.mr.Exists("session:" + healthProbeID) {
		t.Fatal("probe key must be cleaned up")
	}

	env.mr.Close()
	if env.store.Health(ctx).Healthy {
		t.Fatal("expected unhealthy after redis loss")
	}
}

func TestSessionDataUnreachableAfterServerLoss(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()

	id, err := env.store.Create(ctx, Payload{UserID: "u1", Role: RoleUser})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	env.mr.Close()

	if env.store.Get(ctx, id) != nil {
		t.Fatal("reads must degrade to nil")
	}
	if env.store.Touch(ctx, id, nil) {
		t.Fatal("touch must degrade to false")
	}
}
