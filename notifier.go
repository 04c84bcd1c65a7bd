package authcore

import (
	"github.com/MrEthical07/authcore/internal/notify"
)

// Notifier delivers verification and password-reset emails. Calls happen on
// a background worker, never on the request path.
type Notifier = notify.Notifier

// Notification is one outgoing message. Link contains a raw single-use
// token and must not be logged.
type Notification = notify.Message

// NotificationKind selects the message template.
type NotificationKind = notify.Kind

const (
	NotificationVerification  = notify.KindVerification
	NotificationPasswordReset = notify.KindPasswordReset
)

// LogNotifier logs notifications instead of sending them. It is the default
// when no Notifier is configured.
type LogNotifier = notify.LogNotifier

// NotificationStats are the delivery counters of the notification queue.
type NotificationStats = notify.Stats
