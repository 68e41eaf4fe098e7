package problems

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mockround/mockround/internal/auth"
	"github.com/mockround/mockround/internal/platform/httpx"
	"github.com/mockround/mockround/internal/shared"
)

// Handler exposes problem and tag endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers /problems routes. The router must already resolve identities.
func (h *Handler) MountRoutes(r chi.Router, authn *auth.Authenticator) {
	admin := authn.RequireRoles(auth.RoleAdmin)
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.With(admin).Post("/{id}/approve", h.approve)
	r.Get("/{id}/tags", h.listTags)
	r.With(admin).Post("/{id}/tags", h.addTag)
	r.With(admin).Delete("/{id}/tags/{tag}", h.removeTag)
}

// MountTagRoutes registers the distinct tag listing.
func (h *Handler) MountTagRoutes(r chi.Router) {
	r.Get("/", h.tagCounts)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	q := r.URL.Query()
	page := shared.PageFromQuery(q)
	filters := ListFilters{
		PageRequest: page,
		Difficulty:  Difficulty(strings.TrimSpace(q.Get("difficulty"))),
		Tag:         q.Get("tag"),
		Search:      strings.TrimSpace(q.Get("search")),
	}
	if raw := q.Get("approved"); raw != "" {
		approved, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.RespondError(w, h.logger, fmt.Errorf("%w: approved must be true or false", shared.ErrValidation))
			return
		}
		filters.Approved = &approved
	}
	items, total, err := h.service.List(r.Context(), actor, filters)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.List(w, items, shared.NewPagination(page.Page, page.PerPage, total))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var req CreateProblemRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	p, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, p)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	p, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var req UpdateProblemRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	p, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"message": "problem deleted"})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	p, err := h.service.Approve(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	tags, err := h.service.Tags(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, tags)
}

func (h *Handler) addTag(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var req AddTagRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	tag, err := h.service.AddTag(r.Context(), actor, chi.URLParam(r, "id"), req.Tag)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, tag)
}

func (h *Handler) removeTag(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	tag, err := url.PathUnescape(chi.URLParam(r, "tag"))
	if err != nil {
		httpx.RespondError(w, h.logger, fmt.Errorf("%w: malformed tag", shared.ErrValidation))
		return
	}
	if err := h.service.RemoveTag(r.Context(), actor, chi.URLParam(r, "id"), tag); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"message": "tag removed"})
}

func (h *Handler) tagCounts(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	counts, err := h.service.TagCounts(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, counts)
}
