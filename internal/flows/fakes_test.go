package flows

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/authcore/internal/dbx"
	"github.com/MrEthical07/authcore/internal/notify"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/internal/stores"
	"github.com/MrEthical07/authcore/session"
)

type fakeUsers struct {
	byEmail   map[string]*stores.User
	lookupErr error
	createErr error
	passwords map[string]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*stores.User{}, passwords: map[string]string{}}
}

func (f *fakeUsers) add(u *stores.User) { f.byEmail[u.Email] = u }

func (f *fakeUsers) Create(_ context.Context, u *stores.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUsers) ByEmail(_ context.Context, email string) (*stores.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, stores.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, _ dbx.DBTX, id, hash, salt string) error {
	f.passwords[id] = hash + "|" + salt
	return nil
}

// fakeTokens serves as both the verification and the reset store.
type fakeTokens struct {
	validations map[string]stores.Validation
	created     []string
	createErr   error
	decision    rate.Decision
	consumeOK   bool
	consumeErr  error
	consumed    []string
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{
		validations: map[string]stores.Validation{},
		decision:    rate.Decision{Allowed: true, Remaining: 3},
		consumeOK:   true,
	}
}

func (f *fakeTokens) Create(_ context.Context, userID string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	raw := "raw-" + userID
	f.created = append(f.created, raw)
	return raw, nil
}

func (f *fakeTokens) Validate(_ context.Context, raw string) stores.Validation {
	if v, ok := f.validations[raw]; ok {
		return v
	}
	return stores.Validation{Err: stores.TokenNotFound}
}

func (f *fakeTokens) Consume(ctx context.Context, raw string) (bool, error) {
	return f.ConsumeWith(ctx, nil, raw)
}

func (f *fakeTokens) ConsumeWith(_ context.Context, _ dbx.DBTX, raw string) (bool, error) {
	if f.consumeErr != nil {
		return false, f.consumeErr
	}
	f.consumed = append(f.consumed, raw)
	return f.consumeOK, nil
}

func (f *fakeTokens) CheckRateLimit(context.Context, string) rate.Decision {
	return f.decision
}

type fakeSessions struct {
	created   []session.Payload
	createErr error
	deleted   []string
}

func (f *fakeSessions) Create(_ context.Context, p session.Payload) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, p)
	return strings.Repeat("ab", 32), nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) bool {
	f.deleted = append(f.deleted, id)
	return true
}

// fakeHasher derives "h(<password>,<salt>)" so tests can assert on stored values.
type fakeHasher struct {
	verifyCalls int
}

func (f *fakeHasher) GenerateSalt() (string, error) { return "salt", nil }

func (f *fakeHasher) Hash(_ context.Context, pw, salt string) (string, error) {
	return "h(" + pw + "," + salt + ")", nil
}

func (f *fakeHasher) Verify(_ context.Context, pw, salt, hash string) (bool, error) {
	f.verifyCalls++
	return hash == "h("+pw+","+salt+")", nil
}

type fakeLimiter struct {
	checkErr error
	failures map[string]int
	resets   int
}

func (f *fakeLimiter) CheckSignIn(context.Context, string) error { return f.checkErr }

func (f *fakeLimiter) RecordFailure(_ context.Context, id string) error {
	if f.failures == nil {
		f.failures = map[string]int{}
	}
	f.failures[id]++
	return nil
}

func (f *fakeLimiter) Reset(context.Context, string) error {
	f.resets++
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (f *fakeMailer) Enqueue(msg notify.Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return true
}

type harness struct {
	users        *fakeUsers
	verification *fakeTokens
	reset        *fakeTokens
	sessions     *fakeSessions
	hasher       *fakeHasher
	limiter      *fakeLimiter
	mailer       *fakeMailer
	events       []Event
	svc          Service
}

func newHarness() *harness {
	h := &harness{
		users:        newFakeUsers(),
		verification: newFakeTokens(),
		reset:        newFakeTokens(),
		sessions:     &fakeSessions{},
		hasher:       &fakeHasher{},
		limiter:      &fakeLimiter{},
		mailer:       &fakeMailer{},
	}
	h.svc = New(Deps{
		Users:        h.users,
		Verification: h.verification,
		Reset:        h.reset,
		Sessions:     h.sessions,
		Hasher:       h.hasher,
		Limiter:      h.limiter,
		Mailer:       h.mailer,
		RunInTx: func(ctx context.Context, fn func(context.Context, dbx.DBTX) error) error {
			return fn(ctx, nil)
		},
		AppURL: "https://app.test/",
		Record: func(_ context.Context, e Event) { h.events = append(h.events, e) },
	})
	return h
}

func (h *harness) verifiedUser(email, pw string) *stores.User {
	now := time.Now()
	u := &stores.User{
		ID:            "user-" + strings.Split(email, "@")[0],
		Name:          "Ada",
		Email:         email,
		EmailVerified: &now,
		PasswordHash:  "h(" + pw + ",salt)",
		Salt:          "salt",
		Role:          session.RoleUser,
	}
	h.users.add(u)
	return u
}

func (h *harness) lastEvent() Event {
	if len(h.events) == 0 {
		return Event{}
	}
	return h.events[len(h.events)-1]
}

var errBoom = errors.New("boom")
