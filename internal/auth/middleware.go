package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mockround/mockround/internal/observability"
	"github.com/mockround/mockround/internal/platform/httpx"
	"github.com/mockround/mockround/internal/shared"
)

// CookieName is the cookie carrying the token.
const CookieName = "token"

type claimsKey struct{}

// ClaimsFromContext returns the verified token claims of the request.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok
}

// Authenticator resolves request identities and enforces role gates.
type Authenticator struct {
	service *Service
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAuthenticator constructs the middleware provider.
func NewAuthenticator(service *Service, logger *slog.Logger, metrics *observability.Metrics) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{service: service, logger: logger, metrics: metrics}
}

// Middleware rejects requests without a valid, unrevoked token belonging to
// an existing user and attaches the resolved Identity otherwise.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			a.metrics.AuthFailure("missing")
			httpx.RespondError(w, a.logger, shared.ErrUnauthenticated)
			return
		}
		identity, claims, err := a.service.Resolve(r.Context(), raw)
		if err != nil {
			if errors.Is(err, shared.ErrUnauthenticated) {
				a.metrics.AuthFailure("rejected")
				a.logger.Debug("token rejected", slog.String("reason", err.Error()))
			}
			httpx.RespondError(w, a.logger, err)
			return
		}
		a.logger.Debug("request authenticated",
			slog.String("user_id", identity.ID),
			slog.String("role", string(identity.Role)),
		)
		ctx := WithIdentity(r.Context(), identity)
		ctx = context.WithValue(ctx, claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles allows the request through only when the resolved identity
// holds one of roles. It never reloads the user.
func (a *Authenticator) RequireRoles(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, a.logger, shared.ErrUnauthenticated)
				return
			}
			if !HasRole(identity, roles...) {
				httpx.RespondError(w, a.logger, fmt.Errorf("%w: role %s not allowed", shared.ErrForbidden, identity.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HasRole reports whether identity holds any of roles.
func HasRole(identity Identity, roles ...Role) bool {
	for _, role := range roles {
		if identity.Role == role {
			return true
		}
	}
	return false
}

// tokenFromRequest prefers the cookie over the Authorization header.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value)
	}
	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
