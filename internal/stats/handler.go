package stats

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mockround/mockround/internal/auth"
	"github.com/mockround/mockround/internal/platform/httpx"
	"github.com/mockround/mockround/internal/shared"
)

// Handler exposes statistics endpoints.
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

// MountRoutes registers /stats routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/leaderboard", h.leaderboard)
	r.Get("/{userID}", h.get)
	r.Put("/{userID}", h.update)
	r.Post("/{userID}/solve", h.solve)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpx.RespondError(w, h.logger, fmt.Errorf("%w: limit must be a positive integer", shared.ErrValidation))
			return
		}
		limit = n
	}
	entries, err := h.service.Leaderboard(r.Context(), SortBy(strings.TrimSpace(q.Get("sort_by"))), limit)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, entries)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	st, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "userID"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, st)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var req UpdateStatsRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	st, err := h.service.UpdateStudyPlan(r.Context(), actor, chi.URLParam(r, "userID"), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, st)
}

func (h *Handler) solve(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var req RecordSolveRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	st, err := h.service.RecordSolve(r.Context(), actor, chi.URLParam(r, "userID"), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, st)
}
