package problems

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/mockround/mockround/internal/auth"
	"github.com/mockround/mockround/internal/authz"
	"github.com/mockround/mockround/internal/shared"
)

// Service implements problem and tag rules.
type Service struct {
	repo   Repository
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// List returns problems visible to actor. Admins see everything; others see
// approved problems plus their own.
func (s *Service) List(ctx context.Context, actor auth.Identity, filters ListFilters) ([]Problem, int, error) {
	if filters.Difficulty != "" && !filters.Difficulty.Valid() {
		return nil, 0, fmt.Errorf("%w: difficulty must be Easy, Medium or Hard", shared.ErrValidation)
	}
	if err := authz.Authorize(actor, authz.Resource{Kind: authz.KindProblem}, authz.ActionRead); err != nil {
		return nil, 0, err
	}
	filters.ViewerID = actor.ID
	filters.IncludeUnapproved = actor.IsAdmin()
	filters.Tag = NormalizeTag(filters.Tag)
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("list problems: %w", err)
	}
	return items, total, nil
}

// Get returns a single problem.
func (s *Service) Get(ctx context.Context, actor auth.Identity, id string) (Problem, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Problem{}, fmt.Errorf("get problem: %w", err)
	}
	if err := authz.Authorize(actor, resource(p), authz.ActionRead); err != nil {
		return Problem{}, err
	}
	if !visibleTo(actor, p) {
		return Problem{}, fmt.Errorf("get problem: %w", shared.ErrNotFound)
	}
	return p, nil
}

// visibleTo applies the List visibility to a single problem: admins see
// everything, others approved problems and their own.
func visibleTo(actor auth.Identity, p Problem) bool {
	return p.Approved || actor.IsAdmin() || p.Creator() == actor.ID
}

// Create stores a new problem with its initial tags in one transaction.
func (s *Service) Create(ctx context.Context, actor auth.Identity, req CreateProblemRequest) (Problem, error) {
	difficulty := Difficulty(strings.TrimSpace(req.Difficulty))
	if !difficulty.Valid() {
		return Problem{}, fmt.Errorf("%w: difficulty must be Easy, Medium or Hard", shared.ErrValidation)
	}
	if err := authz.Authorize(actor, authz.Resource{Kind: authz.KindProblem}, authz.ActionCreate); err != nil {
		return Problem{}, err
	}
	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return Problem{}, err
	}
	if len(tags) > 0 {
		if err := authz.Authorize(actor, tagResource(""), authz.ActionCreate); err != nil {
			return Problem{}, err
		}
	}
	creator := actor.ID
	draft := Problem{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Difficulty:  difficulty,
		CreatorID:   &creator,
		Approved:    actor.IsAdmin(),
	}

	var created Problem
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.CreateProblem(ctx, draft)
		if err != nil {
			return err
		}
		for _, tag := range tags {
			if _, err := tx.InsertTag(ctx, p.ID, tag); err != nil {
				return err
			}
		}
		p.Tags = slices.Sorted(slices.Values(tags))
		created = p
		return nil
	})
	if err != nil {
		return Problem{}, fmt.Errorf("create problem: %w", err)
	}
	return created, nil
}

// Update applies a partial update. Admins and the creator may update.
func (s *Service) Update(ctx context.Context, actor auth.Identity, id string, req UpdateProblemRequest) (Problem, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Problem{}, fmt.Errorf("get problem: %w", err)
	}
	if err := authz.Authorize(actor, resource(p), authz.ActionUpdate); err != nil {
		return Problem{}, err
	}
	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
		if p.Title == "" {
			return Problem{}, fmt.Errorf("%w: title must not be empty", shared.ErrValidation)
		}
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Difficulty != nil {
		p.Difficulty = Difficulty(strings.TrimSpace(*req.Difficulty))
		if !p.Difficulty.Valid() {
			return Problem{}, fmt.Errorf("%w: difficulty must be Easy, Medium or Hard", shared.ErrValidation)
		}
	}
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return Problem{}, fmt.Errorf("update problem: %w", err)
	}
	return updated, nil
}

// Delete removes a problem. Admins and the creator may delete.
func (s *Service) Delete(ctx context.Context, actor auth.Identity, id string) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get problem: %w", err)
	}
	if err := authz.Authorize(actor, resource(p), authz.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete problem: %w", err)
	}
	return nil
}

// Approve publishes a problem to every user.
func (s *Service) Approve(ctx context.Context, actor auth.Identity, id string) (Problem, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Problem{}, fmt.Errorf("get problem: %w", err)
	}
	if err := authz.Authorize(actor, resource(p), authz.ActionApprove); err != nil {
		return Problem{}, err
	}
	approved, err := s.repo.SetApproved(ctx, id, true)
	if err != nil {
		return Problem{}, fmt.Errorf("approve problem: %w", err)
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "problem.approved",
			Entity:   "problem",
			EntityID: id,
			Meta:     map[string]any{"title": p.Title},
		})
		if err != nil {
			s.logger.Warn("audit record failed", slog.String("problem_id", id), slog.Any("error", err))
		}
	}
	return approved, nil
}

// Tags lists the tags of a problem.
func (s *Service) Tags(ctx context.Context, actor auth.Identity, problemID string) ([]Tag, error) {
	p, err := s.repo.Get(ctx, problemID)
	if err != nil {
		return nil, fmt.Errorf("get problem: %w", err)
	}
	if err := authz.Authorize(actor, tagResource(problemID), authz.ActionRead); err != nil {
		return nil, err
	}
	if !visibleTo(actor, p) {
		return nil, fmt.Errorf("get problem: %w", shared.ErrNotFound)
	}
	tags, err := s.repo.ListTags(ctx, problemID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// AddTag labels a problem. The same tag, after trimming and case folding,
// cannot be added twice to one problem.
func (s *Service) AddTag(ctx context.Context, actor auth.Identity, problemID, raw string) (Tag, error) {
	tag := NormalizeTag(raw)
	if tag == "" {
		return Tag{}, fmt.Errorf("%w: tag must not be empty", shared.ErrValidation)
	}
	if _, err := s.repo.Get(ctx, problemID); err != nil {
		return Tag{}, fmt.Errorf("get problem: %w", err)
	}
	if err := authz.Authorize(actor, tagResource(problemID), authz.ActionCreate); err != nil {
		return Tag{}, err
	}
	created, err := s.repo.AddTag(ctx, problemID, tag)
	if err != nil {
		return Tag{}, fmt.Errorf("add tag: %w", err)
	}
	return created, nil
}

// RemoveTag removes a tag from a problem.
func (s *Service) RemoveTag(ctx context.Context, actor auth.Identity, problemID, raw string) error {
	if _, err := s.repo.Get(ctx, problemID); err != nil {
		return fmt.Errorf("get problem: %w", err)
	}
	if err := authz.Authorize(actor, tagResource(problemID), authz.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.RemoveTag(ctx, problemID, NormalizeTag(raw)); err != nil {
		return fmt.Errorf("remove tag: %w", err)
	}
	return nil
}

// TagCounts lists distinct tags with usage counts.
func (s *Service) TagCounts(ctx context.Context, actor auth.Identity) ([]TagCount, error) {
	if err := authz.Authorize(actor, authz.Resource{Kind: authz.KindProblemTag}, authz.ActionRead); err != nil {
		return nil, err
	}
	counts, err := s.repo.TagCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("tag counts: %w", err)
	}
	return counts, nil
}

func resource(p Problem) authz.Resource {
	return authz.Resource{Kind: authz.KindProblem, ID: p.ID, OwnerID: p.Creator()}
}

func tagResource(problemID string) authz.Resource {
	return authz.Resource{Kind: authz.KindProblemTag, ID: problemID}
}

// normalizeTags folds and de-duplicates initial tags.
func normalizeTags(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		tag := NormalizeTag(r)
		if tag == "" {
			return nil, fmt.Errorf("%w: tags must not be empty", shared.ErrValidation)
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out, nil
}
