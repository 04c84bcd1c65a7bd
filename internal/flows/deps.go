package flows

import (
	"context"

	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/dbx"
	"github.com/MrEthical07/authcore/internal/notify"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/internal/stores"
	"github.com/MrEthical07/authcore/session"
)

type Users interface {
	Create(ctx context.Context, u *stores.User) error
	ByEmail(ctx context.Context, email string) (*stores.User, error)
	UpdatePassword(ctx context.Context, q dbx.DBTX, id, hash, salt string) error
}

type VerificationTokens interface {
	Create(ctx context.Context, userID string) (string, error)
	Validate(ctx context.Context, rawToken string) stores.Validation
	Consume(ctx context.Context, rawToken string) (bool, error)
	CheckRateLimit(ctx context.Context, userID string) rate.Decision
}

type ResetTokens interface {
	Create(ctx context.Context, userID string) (string, error)
	Validate(ctx context.Context, rawToken string) stores.Validation
	ConsumeWith(ctx context.Context, q dbx.DBTX, rawToken string) (bool, error)
	CheckRateLimit(ctx context.Context, userID string) rate.Decision
}

type Sessions interface {
	Create(ctx context.Context, p session.Payload) (string, error)
	Delete(ctx context.Context, id string) bool
}

type Hasher interface {
	GenerateSalt() (string, error)
	Hash(ctx context.Context, password, salt string) (string, error)
	Verify(ctx context.Context, password, salt, hash string) (bool, error)
}

type SignInLimiter interface {
	CheckSignIn(ctx context.Context, identifier string) error
	RecordFailure(ctx context.Context, identifier string) error
	Reset(ctx context.Context, identifier string) error
}

type Mailer interface {
	Enqueue(msg notify.Message) bool
}

// TxRunner runs fn inside one database transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context, q dbx.DBTX) error) error

// Deps is the full dependency set of a Service. Limiter and Mailer are
// optional; everything else is required.
type Deps struct {
	Users        Users
	Verification VerificationTokens
	Reset        ResetTokens
	Sessions     Sessions
	Hasher       Hasher
	Limiter      SignInLimiter
	Mailer       Mailer
	RunInTx      TxRunner

	// AppURL prefixes the links put in outgoing messages.
	AppURL string
	Logger *zap.Logger
	Record func(context.Context, Event)
}
