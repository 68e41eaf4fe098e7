package sessions

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

// Handler exposes session and question endpoints.
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

// MountRoutes registers /sessions routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Put("/{id}/feedback", h.feedback)
	r.Get("/{id}/questions", h.listQuestions)
	r.Post("/{id}/questions", h.addQuestion)
}

// MountQuestionRoutes registers /questions routes.
func (h *Handler) MountQuestionRoutes(r chi.Router) {
	r.Get("/{id}", h.getQuestion)
	r.Delete("/{id}", h.deleteQuestion)
	r.Put("/{id}/answer", h.answer)
	r.Put("/{id}/feedback", h.questionFeedback)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	q := r.URL.Query()
	page := shared.PageFromQuery(q)
	filters := ListFilters{
		PageRequest: page,
		Status:      Status(strings.TrimSpace(q.Get("status"))),
		UserID:      strings.TrimSpace(q.Get("user_id")),
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
	var req CreateSessionRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	sess, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, sess)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	sess, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, sess)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var req UpdateSessionRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	sess, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, sess)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"message": "session deleted"})
}

func (h *Handler) feedback(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var req FeedbackRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	sess, err := h.service.Feedback(r.Context(), actor, chi.URLParam(r, "id"), req.Feedback)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, sess)
}

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	questions, err := h.service.Questions(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, questions)
}

func (h *Handler) addQuestion(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var req CreateQuestionRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	q, err := h.service.AddQuestion(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, q)
}

func (h *Handler) getQuestion(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	q, err := h.service.GetQuestion(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, q)
}

func (h *Handler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	if err := h.service.DeleteQuestion(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"message": "question deleted"})
}

func (h *Handler) answer(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var req AnswerRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	q, err := h.service.Answer(r.Context(), actor, chi.URLParam(r, "id"), req.Answer)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, q)
}

func (h *Handler) questionFeedback(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var req FeedbackRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	q, err := h.service.QuestionFeedback(r.Context(), actor, chi.URLParam(r, "id"), req.Feedback)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, q)
}
