// Package notify delivers verification and password-reset messages off the
// request path.
//
// # Components
//
//   - [Notifier]: the external sender (SMTP relay, transactional email API).
//   - [Dispatcher]: bounded queue plus a single worker, throttled with a
//     token bucket so a burst of sign-ups cannot flood the sender.
//   - [LogNotifier]: development sender that writes messages to a zap logger.
//
// # What this package must NOT do
//
//   - Decide whether a message should be sent. Flows own that.
//   - Retry failed sends. A failed delivery is logged and counted; the token
//     it carries stays valid and the user can ask for another message.
package notify
