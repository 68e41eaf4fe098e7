package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mockround/mockround/internal/auth"
	"github.com/mockround/mockround/internal/authz"
	"github.com/mockround/mockround/internal/shared"
)

// Service handles user administration.
type Service struct {
	repo   Repository
	roles  auth.RoleSet
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewService builds a Service. roles is the set accepted by UpdateRole.
func NewService(repo Repository, roles auth.RoleSet, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, roles: roles, audit: audit, logger: logger}
}

// List returns a page of users.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]auth.Identity, int, error) {
	if filters.Role != "" && !filters.Role.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown role %q", shared.ErrValidation, filters.Role)
	}
	records, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	out := make([]auth.Identity, 0, len(records))
	for _, u := range records {
		out = append(out, u.Identity())
	}
	return out, total, nil
}

// Get returns a user visible to actor.
func (s *Service) Get(ctx context.Context, actor auth.Identity, id string) (auth.Identity, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("get user: %w", err)
	}
	if err := authz.Authorize(actor, userResource(u), authz.ActionRead); err != nil {
		return auth.Identity{}, err
	}
	return u.Identity(), nil
}

// UpdateRole changes the role of a user. Roles outside the configured set
// are rejected before anything is loaded or stored.
func (s *Service) UpdateRole(ctx context.Context, actor auth.Identity, id, rawRole string) (auth.Identity, error) {
	role := auth.Role(strings.ToLower(strings.TrimSpace(rawRole)))
	if !s.roles.Contains(role) {
		return auth.Identity{}, fmt.Errorf("%w: role must be one of %v", shared.ErrValidation, s.roles.Roles())
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("get user: %w", err)
	}
	if err := authz.Authorize(actor, userResource(current), authz.ActionUpdate); err != nil {
		return auth.Identity{}, err
	}
	updated, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("update role: %w", err)
	}
	s.record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "user.role_updated",
		Entity:   "user",
		EntityID: id,
		Meta:     map[string]any{"from": string(current.Role), "to": string(role)},
	})
	return updated.Identity(), nil
}

// Delete removes a user and everything that cascades from it.
func (s *Service) Delete(ctx context.Context, actor auth.Identity, id string) error {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if err := authz.Authorize(actor, userResource(u), authz.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "user.deleted",
		Entity:   "user",
		EntityID: id,
		Meta:     map[string]any{"username": u.Username},
	})
	return nil
}

func (s *Service) record(ctx context.Context, entry shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", entry.Action), slog.Any("error", err))
	}
}

func userResource(u auth.User) authz.Resource {
	return authz.Resource{Kind: authz.KindUser, ID: u.ID, OwnerID: u.ID}
}
