package submissions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mockround/mockround/internal/auth"
	"github.com/mockround/mockround/internal/authz"
	"github.com/mockround/mockround/internal/shared"
	"github.com/mockround/mockround/internal/stats"
)

// SolveNotifier is told when a submission is graded as accepted.
type SolveNotifier interface {
	NotifySolve(ctx context.Context, solve stats.Solve) error
}

// Service implements submission rules.
type Service struct {
	repo     Repository
	notifier SolveNotifier
	logger   *slog.Logger
}

// NewService constructs a Service. notifier may be nil.
func NewService(repo Repository, notifier SolveNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// List returns submissions visible to actor. Non-admins only see their own.
func (s *Service) List(ctx context.Context, actor auth.Identity, filters ListFilters) ([]SubmissionWithDetails, int, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, 0, statusError()
	}
	if !actor.IsAdmin() {
		filters.UserID = actor.ID
	}
	for name, id := range map[string]string{"problem_id": filters.ProblemID, "user_id": filters.UserID} {
		if id != "" && uuid.Validate(id) != nil {
			return nil, 0, fmt.Errorf("%w: %s must be a uuid", shared.ErrValidation, name)
		}
	}
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	return items, total, nil
}

// Create records a pending submission owned by actor.
func (s *Service) Create(ctx context.Context, actor auth.Identity, req CreateSubmissionRequest) (Submission, error) {
	if err := authz.Authorize(actor, authz.Resource{Kind: authz.KindSubmission}, authz.ActionCreate); err != nil {
		return Submission{}, err
	}
	created, err := s.repo.Create(ctx, Submission{
		ID:        uuid.NewString(),
		UserID:    actor.ID,
		ProblemID: req.ProblemID,
		Language:  strings.TrimSpace(req.Language),
		Code:      req.Code,
		Status:    StatusPending,
		TimeSpent: req.TimeSpent,
	})
	if err != nil {
		return Submission{}, fmt.Errorf("create submission: %w", err)
	}
	return created, nil
}

// Get returns a submission to its author or an admin.
func (s *Service) Get(ctx context.Context, actor auth.Identity, id string) (SubmissionWithDetails, error) {
	return s.load(ctx, actor, id, authz.ActionRead)
}

// Update grades a submission. A transition into Accepted is forwarded to the
// notifier; a notification failure does not undo the grade.
func (s *Service) Update(ctx context.Context, actor auth.Identity, id string, req UpdateSubmissionRequest) (Submission, error) {
	current, err := s.load(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return Submission{}, err
	}
	sub := current.Submission
	if req.Status != nil {
		sub.Status = Status(strings.TrimSpace(*req.Status))
		if !sub.Status.Valid() {
			return Submission{}, statusError()
		}
	}
	if req.Score != nil {
		sub.Score = *req.Score
	}
	if req.TimeSpent != nil {
		sub.TimeSpent = *req.TimeSpent
	}
	updated, err := s.repo.Update(ctx, sub)
	if err != nil {
		return Submission{}, fmt.Errorf("update submission: %w", err)
	}
	if current.Status != StatusAccepted && updated.Status == StatusAccepted {
		s.notify(ctx, updated)
	}
	return updated, nil
}

// Delete removes a submission.
func (s *Service) Delete(ctx context.Context, actor auth.Identity, id string) error {
	if _, err := s.load(ctx, actor, id, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, sub Submission) {
	if s.notifier == nil {
		return
	}
	solve := stats.Solve{
		UserID:       sub.UserID,
		SubmissionID: sub.ID,
		Score:        sub.Score,
		TimeSpent:    sub.TimeSpent,
	}
	if err := s.notifier.NotifySolve(ctx, solve); err != nil {
		s.logger.Error("notify solve", slog.String("submission_id", sub.ID), slog.Any("error", err))
	}
}

func (s *Service) load(ctx context.Context, actor auth.Identity, id string, action authz.Action) (SubmissionWithDetails, error) {
	sub, err := s.repo.Get(ctx, id)
	if err != nil {
		return SubmissionWithDetails{}, fmt.Errorf("get submission: %w", err)
	}
	res := authz.Resource{Kind: authz.KindSubmission, ID: sub.ID, OwnerID: sub.UserID}
	if err := authz.Authorize(actor, res, action); err != nil {
		return SubmissionWithDetails{}, err
	}
	return sub, nil
}

func statusError() error {
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	return fmt.Errorf("%w: status must be one of %s", shared.ErrValidation, strings.Join(names, ", "))
}
