package middleware

import (
	"net/http"
	"strconv"
	"time"
)

const (
	SessionCookie = "sessionId"
	TouchCookie   = "sessionTouchAt"
)

// Cookies writes and reads the session cookie pair. Both cookies are
// HttpOnly, SameSite=Lax, scoped to "/" and live as long as the session.
type Cookies struct {
	TTL time.Duration
	// Secure should be true everywhere except plain-http development.
	Secure bool
}

// Set writes the session id and the time of its last refresh.
func (c Cookies) Set(w http.ResponseWriter, sessionID string, touchedAt time.Time) {
	maxAge := int(c.TTL / time.Second)
	http.SetCookie(w, c.cookie(SessionCookie, sessionID, maxAge))
	http.SetCookie(w, c.cookie(TouchCookie, strconv.FormatInt(touchedAt.UnixMilli(), 10), maxAge))
}

// Clear expires both cookies.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(SessionCookie, "", -1))
	http.SetCookie(w, c.cookie(TouchCookie, "", -1))
}

func (c Cookies) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ReadSessionCookies returns the session id, or "" when absent, and the
// client's claimed last-touch time, or nil when absent or malformed.
func ReadSessionCookies(r *http.Request) (string, *time.Time) {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}

	c, err := r.Cookie(TouchCookie)
	if err != nil {
		return id, nil
	}
	ms, err := strconv.ParseInt(c.Value, 10, 64)
	if err != nil || ms <= 0 {
		return id, nil
	}
	t := time.UnixMilli(ms)
	return id, &t
}
