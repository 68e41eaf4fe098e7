package users

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mockround/mockround/internal/auth"
	"github.com/mockround/mockround/internal/platform/httpx"
	"github.com/mockround/mockround/internal/shared"
)

// Handler manages user administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers user routes. The router must already resolve identities.
func (h *Handler) MountRoutes(r chi.Router, authn *auth.Authenticator) {
	admin := authn.RequireRoles(auth.RoleAdmin)
	r.With(admin).Get("/", h.list)
	r.Get("/{id}", h.get)
	r.With(admin).Put("/{id}/role", h.updateRole)
	r.With(admin).Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := shared.PageFromQuery(q)
	filters := ListFilters{
		PageRequest: page,
		Role:        auth.Role(strings.ToLower(strings.TrimSpace(q.Get("role")))),
		Search:      strings.TrimSpace(q.Get("search")),
	}
	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.List(w, items, shared.NewPagination(page.Page, page.PerPage, total))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	u, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, u)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var body RoleUpdate
	if err := httpx.Bind(r, h.validator, &body); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	u, err := h.service.UpdateRole(r.Context(), actor, chi.URLParam(r, "id"), body.Role)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, u)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
