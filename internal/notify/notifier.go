package notify

import (
	"context"
	"net/url"

	"go.uber.org/zap"
)

// Kind names the message template.
type Kind string

const (
	KindVerification  Kind = "email_verification"
	KindPasswordReset Kind = "password_reset"
)

// Message is what a sender needs to render one email.
type Message struct {
	Kind Kind
	To   string
	Name string
	Link string
}

// Notifier sends rendered messages. Implementations must be safe for
// concurrent use.
type Notifier interface {
	SendVerification(ctx context.Context, msg Message) error
	SendPasswordReset(ctx context.Context, msg Message) error
}

func send(ctx context.Context, n Notifier, msg Message) error {
	if msg.Kind == KindPasswordReset {
		return n.SendPasswordReset(ctx, msg)
	}
	return n.SendVerification(ctx, msg)
}

// LogNotifier writes messages to a logger instead of sending them.
// Links carry raw tokens, so they are only logged when RevealLinks is set.
type LogNotifier struct {
	Logger      *zap.Logger
	RevealLinks bool
}

func (n *LogNotifier) SendVerification(ctx context.Context, msg Message) error {
	n.log(msg)
	return nil
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, msg Message) error {
	n.log(msg)
	return nil
}

func (n *LogNotifier) log(msg Message) {
	if n == nil || n.Logger == nil {
		return
	}
	link := redactLink(msg.Link)
	if n.RevealLinks {
		link = msg.Link
	}
	n.Logger.Info("notification",
		zap.String("kind", string(msg.Kind)),
		zap.String("to", msg.To),
		zap.String("name", msg.Name),
		zap.String("link", link),
	)
}

// redactLink keeps only the scheme and host.
func redactLink(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "[redacted]"
	}
	return u.Scheme + "://" + u.Host + "/[redacted]"
}
