package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/mockround/mockround/internal/platform/httpx"
	"github.com/mockround/mockround/internal/shared"
)

const (
	credentialRateLimit  = 10
	credentialRateWindow = time.Minute
	maxCredentialBody    = 1 << 20
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	validator    *validator.Validate
	secureCookie bool
}

// NewHandler constructs a Handler instance. secureCookie marks the token
// cookie Secure and should be set in production.
func NewHandler(logger *slog.Logger, service *Service, secureCookie bool) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:       logger,
		service:      service,
		validator:    validator.New(),
		secureCookie: secureCookie,
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router, authn *Authenticator) {
	r.Group(func(pub chi.Router) {
		pub.Use(httpx.RateLimit(credentialRateLimit, credentialRateWindow))
		pub.Use(httpx.RateLimit(credentialRateLimit, credentialRateWindow, keyByEmail))
		pub.Post("/register", h.handleRegister)
		pub.Post("/login", h.handleLogin)
	})
	r.Group(func(priv chi.Router) {
		priv.Use(authn.Middleware)
		priv.Post("/logout", h.handleLogout)
		priv.Get("/me", h.handleMe)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := httpx.Bind(r, h.validator, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	session, err := h.service.Register(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	h.setCookie(w, session.Token)
	httpx.OK(w, http.StatusCreated, session)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := httpx.Bind(r, h.validator, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	session, err := h.service.Login(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	h.setCookie(w, session.Token)
	httpx.OK(w, http.StatusOK, session)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, h.logger, shared.ErrUnauthenticated)
		return
	}
	if err := h.service.Logout(r.Context(), claims); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	h.clearCookie(w)
	httpx.OK(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, h.logger, shared.ErrUnauthenticated)
		return
	}
	httpx.OK(w, http.StatusOK, identity)
}

func (h *Handler) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenLifetime.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

// keyByEmail buckets credential attempts by account so that a client
// rotating its source address still hits one counter per email.
func keyByEmail(r *http.Request) (string, error) {
	if r.Body == nil {
		return httprate.KeyByIP(r)
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxCredentialBody))
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || strings.TrimSpace(body.Email) == "" {
		return httprate.KeyByIP(r)
	}
	return "email:" + strings.ToLower(strings.TrimSpace(body.Email)), nil
}
