package sessions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mockround/mockround/internal/auth"
	"github.com/mockround/mockround/internal/authz"
	"github.com/mockround/mockround/internal/shared"
)

// Service implements session and question rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// elevated reports whether actor may see every session.
func elevated(actor auth.Identity) bool {
	return auth.HasRole(actor, auth.RoleAdmin, auth.RoleInterviewer)
}

// List returns sessions visible to actor. Admins and interviewers may filter
// by owner; everyone else only sees their own sessions.
func (s *Service) List(ctx context.Context, actor auth.Identity, filters ListFilters) ([]Session, int, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, 0, statusError()
	}
	if !elevated(actor) {
		filters.UserID = actor.ID
	}
	if filters.UserID != "" && uuid.Validate(filters.UserID) != nil {
		return nil, 0, fmt.Errorf("%w: user_id must be a uuid", shared.ErrValidation)
	}
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	return items, total, nil
}

// Create opens a session owned by actor.
func (s *Service) Create(ctx context.Context, actor auth.Identity, req CreateSessionRequest) (Session, error) {
	if err := authz.Authorize(actor, authz.Resource{Kind: authz.KindSession}, authz.ActionCreate); err != nil {
		return Session{}, err
	}
	status := StatusPending
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status = Status(raw)
		if !status.Valid() {
			return Session{}, statusError()
		}
	}
	if err := checkTimes(req.StartTime, req.EndTime); err != nil {
		return Session{}, err
	}
	by := actor.ID
	created, err := s.repo.Create(ctx, Session{
		ID:            uuid.NewString(),
		UserID:        actor.ID,
		InterviewerID: blankToNil(req.InterviewerID),
		Title:         strings.TrimSpace(req.Title),
		Status:        status,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		LastUpdatedBy: &by,
	})
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return created, nil
}

// Get returns a session the actor may read.
func (s *Service) Get(ctx context.Context, actor auth.Identity, id string) (Session, error) {
	sess, err := s.load(ctx, actor, id, authz.ActionRead)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Update applies a partial update and records the editor.
func (s *Service) Update(ctx context.Context, actor auth.Identity, id string, req UpdateSessionRequest) (Session, error) {
	sess, err := s.load(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return Session{}, err
	}
	if req.Title != nil {
		sess.Title = strings.TrimSpace(*req.Title)
		if sess.Title == "" {
			return Session{}, fmt.Errorf("%w: title must not be empty", shared.ErrValidation)
		}
	}
	if req.InterviewerID != nil {
		sess.InterviewerID = blankToNil(req.InterviewerID)
	}
	if req.Status != nil {
		sess.Status = Status(strings.TrimSpace(*req.Status))
		if !sess.Status.Valid() {
			return Session{}, statusError()
		}
	}
	if req.StartTime != nil {
		sess.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		sess.EndTime = req.EndTime
	}
	if err := checkTimes(sess.StartTime, sess.EndTime); err != nil {
		return Session{}, err
	}
	by := actor.ID
	sess.LastUpdatedBy = &by
	updated, err := s.repo.Update(ctx, sess)
	if err != nil {
		return Session{}, fmt.Errorf("update session: %w", err)
	}
	return updated, nil
}

// Delete removes a session. Only admins may delete, owners included.
func (s *Service) Delete(ctx context.Context, actor auth.Identity, id string) error {
	if _, err := s.load(ctx, actor, id, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Feedback stores reviewer feedback on a session.
func (s *Service) Feedback(ctx context.Context, actor auth.Identity, id, feedback string) (Session, error) {
	sess, err := s.load(ctx, actor, id, authz.ActionFeedback)
	if err != nil {
		return Session{}, err
	}
	sess.Feedback = feedback
	by := actor.ID
	sess.LastUpdatedBy = &by
	updated, err := s.repo.Update(ctx, sess)
	if err != nil {
		return Session{}, fmt.Errorf("session feedback: %w", err)
	}
	return updated, nil
}

// Questions lists the questions of a session for its participants and admins.
func (s *Service) Questions(ctx context.Context, actor auth.Identity, sessionID string) ([]Question, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if err := authz.Authorize(actor, questionResource(sess, ""), authz.ActionRead); err != nil {
		return nil, err
	}
	questions, err := s.repo.ListQuestions(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// AddQuestion appends a question to a session.
func (s *Service) AddQuestion(ctx context.Context, actor auth.Identity, sessionID string, req CreateQuestionRequest) (Question, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return Question{}, fmt.Errorf("get session: %w", err)
	}
	if err := authz.Authorize(actor, questionResource(sess, ""), authz.ActionCreate); err != nil {
		return Question{}, err
	}
	q, err := s.repo.CreateQuestion(ctx, Question{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		ProblemID: blankToNil(req.ProblemID),
		Prompt:    strings.TrimSpace(req.Prompt),
	})
	if err != nil {
		return Question{}, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// GetQuestion returns a question visible to actor.
func (s *Service) GetQuestion(ctx context.Context, actor auth.Identity, id string) (Question, error) {
	q, _, err := s.loadQuestion(ctx, actor, id, authz.ActionRead)
	return q, err
}

// Answer stores a participant's answer. Admins who are not participants
// cannot answer.
func (s *Service) Answer(ctx context.Context, actor auth.Identity, id, answer string) (Question, error) {
	q, _, err := s.loadQuestion(ctx, actor, id, authz.ActionAnswer)
	if err != nil {
		return Question{}, err
	}
	q.SubmittedAnswer = answer
	return s.saveQuestion(ctx, q)
}

// QuestionFeedback stores admin feedback on a question.
func (s *Service) QuestionFeedback(ctx context.Context, actor auth.Identity, id, feedback string) (Question, error) {
	q, _, err := s.loadQuestion(ctx, actor, id, authz.ActionFeedback)
	if err != nil {
		return Question{}, err
	}
	q.Feedback = feedback
	return s.saveQuestion(ctx, q)
}

// DeleteQuestion removes a question.
func (s *Service) DeleteQuestion(ctx context.Context, actor auth.Identity, id string) error {
	if _, _, err := s.loadQuestion(ctx, actor, id, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.DeleteQuestion(ctx, id); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

func (s *Service) load(ctx context.Context, actor auth.Identity, id string, action authz.Action) (Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	res := authz.Resource{Kind: authz.KindSession, ID: sess.ID, OwnerID: sess.UserID}
	if err := authz.Authorize(actor, res, action); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *Service) loadQuestion(ctx context.Context, actor auth.Identity, id string, action authz.Action) (Question, Session, error) {
	q, err := s.repo.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, Session{}, fmt.Errorf("get question: %w", err)
	}
	sess, err := s.repo.Get(ctx, q.SessionID)
	if err != nil {
		return Question{}, Session{}, fmt.Errorf("get session: %w", err)
	}
	if err := authz.Authorize(actor, questionResource(sess, q.ID), action); err != nil {
		return Question{}, Session{}, err
	}
	return q, sess, nil
}

func (s *Service) saveQuestion(ctx context.Context, q Question) (Question, error) {
	updated, err := s.repo.UpdateQuestion(ctx, q)
	if err != nil {
		return Question{}, fmt.Errorf("update question: %w", err)
	}
	return updated, nil
}

// questionResource describes a question by its parent session: the session
// owner and interviewer are its participants.
func questionResource(sess Session, questionID string) authz.Resource {
	return authz.Resource{
		Kind:         authz.KindQuestion,
		ID:           questionID,
		OwnerID:      sess.UserID,
		Participants: sess.Participants(),
	}
}

func checkTimes(start time.Time, end *time.Time) error {
	if start.IsZero() {
		return fmt.Errorf("%w: start_time is required", shared.ErrValidation)
	}
	if end != nil && !end.After(start) {
		return fmt.Errorf("%w: end_time must be after start_time", shared.ErrValidation)
	}
	return nil
}

func statusError() error {
	return fmt.Errorf("%w: status must be one of %q, %q, %q", shared.ErrValidation, StatusPending, StatusInProgress, StatusCompleted)
}

func blankToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	return &trimmed
}
