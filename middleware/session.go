package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/MrEthical07/authcore"
)

// SessionEngine is the subset of *authcore.Engine the middleware uses.
type SessionEngine interface {
	ValidateSession(ctx context.Context, sessionID string) *authcore.Session
	TouchSession(ctx context.Context, sessionID string, lastTouch *time.Time) bool
	SessionTouchInterval() time.Duration
}

// Session loads the session named by the request cookies. Requests without
// a valid session pass through anonymously and have their stale cookies
// cleared. When a refresh is due it touches the session and rewrites both
// cookies.
func Session(engine SessionEngine, cookies Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, lastTouch := ReadSessionCookies(r)
			if id == "" || engine == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			sess := engine.ValidateSession(ctx, id)
			if sess == nil {
				cookies.Clear(w)
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			due := touchDue(lastTouch, now, engine.SessionTouchInterval())
			if !engine.TouchSession(ctx, id, lastTouch) {
				cookies.Clear(w)
				next.ServeHTTP(w, r)
				return
			}
			if due {
				cookies.Set(w, id, now)
			}

			next.ServeHTTP(w, r.WithContext(authcore.WithSession(ctx, sess)))
		})
	}
}

// RequireSession responds 401 unless [Session] stored a session upstream.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authcore.SessionFromContext(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func touchDue(lastTouch *time.Time, now time.Time, interval time.Duration) bool {
	if lastTouch == nil || lastTouch.After(now) {
		return true
	}
	return now.Sub(*lastTouch) >= interval
}
