package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/middleware"
)

// maxBodyBytes bounds request bodies; forms are tiny.
const maxBodyBytes = 16 << 10

// Auth is the subset of *authcore.Engine served over HTTP.
type Auth interface {
	middleware.SessionEngine

	SignUp(ctx context.Context, in authcore.SignUpInput) error
	SignIn(ctx context.Context, email, password string) (string, error)
	LogOut(ctx context.Context, sessionID string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
	VerifyEmail(ctx context.Context, rawToken string) error
	ResendVerificationEmail(ctx context.Context, email string) error

	Health(ctx context.Context) authcore.HealthReport
	Ready(ctx context.Context) error
	SessionTTL() time.Duration
}

// Config wires a Handler.
type Config struct {
	Auth         Auth
	Logger       *zap.Logger
	SecureCookie bool
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

type handler struct {
	auth    Auth
	logger  *zap.Logger
	cookies middleware.Cookies
}

// New returns the API router with request logging, panic recovery and
// client IP propagation applied.
func New(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{
		auth:    cfg.Auth,
		logger:  logger,
		cookies: middleware.Cookies{TTL: cfg.Auth.SessionTTL(), Secure: cfg.SecureCookie},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/sign-up", h.signUp)
	mux.HandleFunc("POST /api/auth/sign-in", h.signIn)
	mux.HandleFunc("POST /api/auth/sign-out", h.signOut)
	mux.HandleFunc("POST /api/auth/forgot-password", h.forgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", h.resetPassword)
	mux.HandleFunc("POST /api/auth/verify-email", h.verifyEmail)
	mux.HandleFunc("POST /api/auth/resend-verification", h.resendVerification)
	mux.Handle("GET /api/auth/session",
		middleware.Session(cfg.Auth, h.cookies)(middleware.RequireSession(http.HandlerFunc(h.currentSession))))
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /ready", h.ready)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	var root http.Handler = mux
	root = clientIP(root)
	root = requestLog(logger)(root)
	root = recoverer(logger)(root)
	return root
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

func (h *handler) signUp(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !h.decode(w, r, &in) {
		return
	}
	err := h.auth.SignUp(r.Context(), authcore.SignUpInput{Name: in.Name, Email: in.Email, Password: in.Password})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (h *handler) signIn(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !h.decode(w, r, &in) {
		return
	}
	id, err := h.auth.SignIn(r.Context(), in.Email, in.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.cookies.Set(w, id, time.Now())
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handler) signOut(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.ReadSessionCookies(r)
	if err := h.auth.LogOut(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !h.decode(w, r, &in) {
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), in.Email); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

func (h *handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !h.decode(w, r, &in) {
		return
	}
	if err := h.auth.ResetPassword(r.Context(), in.Token, in.Password); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !h.decode(w, r, &in) {
		return
	}
	if err := h.auth.VerifyEmail(r.Context(), in.Token); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !h.decode(w, r, &in) {
		return
	}
	if err := h.auth.ResendVerificationEmail(r.Context(), in.Email); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

type sessionView struct {
	UserID       string    `json:"userId"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed time.Time `json:"lastAccessed"`
}

func (h *handler) currentSession(w http.ResponseWriter, r *http.Request) {
	sess := authcore.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, sessionView{
		UserID:       sess.UserID,
		Role:         sess.Role,
		CreatedAt:    sess.CreatedAt,
		LastAccessed: sess.LastAccessed,
	})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	report := h.auth.Health(r.Context())
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (h *handler) ready(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Ready(r.Context()); err != nil {
		h.logger.Warn("not ready", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: string(authcore.CodeInvalidForm)})
		return false
	}
	return true
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	code := authcore.CodeOf(err)
	if code == authcore.CodeUnknownError {
		h.logger.Error("request failed", zap.Error(err))
	}
	if at, ok := authcore.RetryAfter(err); ok {
		secs := int(time.Until(at).Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	writeJSON(w, statusFor(code), errorBody{Error: string(code)})
}

func statusFor(code authcore.ErrorCode) int {
	switch code {
	case authcore.CodeInvalidForm, authcore.CodeInvalidToken:
		return http.StatusBadRequest
	case authcore.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case authcore.CodeEmailNotVerified:
		return http.StatusForbidden
	case authcore.CodeUserNotFound:
		return http.StatusNotFound
	case authcore.CodeExistingEmail, authcore.CodeTokenAlreadyUsed:
		return http.StatusConflict
	case authcore.CodeExpiredToken:
		return http.StatusGone
	case authcore.CodeRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
