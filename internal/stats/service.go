package stats

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mockround/mockround/internal/auth"
	"github.com/mockround/mockround/internal/authz"
	"github.com/mockround/mockround/internal/platform/cache"
	"github.com/mockround/mockround/internal/shared"
)

const (
	// DefaultLeaderboardLimit is used when the caller omits limit.
	DefaultLeaderboardLimit = 10
	// MaxLeaderboardLimit caps leaderboard size.
	MaxLeaderboardLimit = 100

	// leaderboardLoadTimeout bounds a shared load that outlives its first caller.
	leaderboardLoadTimeout = 10 * time.Second
)

// Service implements statistics and leaderboard rules.
type Service struct {
	repo   Repository
	cache  *cache.JSONCache
	group  singleflight.Group
	logger *slog.Logger
}

// NewService constructs a Service. A nil cache disables leaderboard caching.
func NewService(repo Repository, leaderboard *cache.JSONCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: leaderboard, logger: logger}
}

// Get returns the stats of userID, creating them on first access.
func (s *Service) Get(ctx context.Context, actor auth.Identity, userID string) (Stats, error) {
	if err := authz.Authorize(actor, resource(userID), authz.ActionRead); err != nil {
		return Stats{}, err
	}
	st, err := s.repo.Get(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("get stats: %w", err)
	}
	return st, nil
}

// UpdateStudyPlan replaces the study plan. Only the user and admins may write.
func (s *Service) UpdateStudyPlan(ctx context.Context, actor auth.Identity, userID string, req UpdateStatsRequest) (Stats, error) {
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return Stats{}, fmt.Errorf("get stats: %w", err)
	}
	if err := authz.Authorize(actor, resource(userID), authz.ActionUpdate); err != nil {
		return Stats{}, err
	}
	st, err := s.repo.UpdateStudyPlan(ctx, userID, req.StudyPlan)
	if err != nil {
		return Stats{}, fmt.Errorf("update study plan: %w", err)
	}
	return st, nil
}

// RecordSolve folds a solve into userID's stats on behalf of actor.
func (s *Service) RecordSolve(ctx context.Context, actor auth.Identity, userID string, req RecordSolveRequest) (Stats, error) {
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return Stats{}, fmt.Errorf("get stats: %w", err)
	}
	if err := authz.Authorize(actor, resource(userID), authz.ActionUpdate); err != nil {
		return Stats{}, err
	}
	return s.ApplySolve(ctx, Solve{UserID: userID, Score: req.Score, TimeSpent: req.TimeSpent})
}

// ApplySolve records a solve without an acting identity. It backs the
// background job fed by accepted submissions; a solve carrying a submission
// id is counted once and repeats return ErrAlreadyCounted.
func (s *Service) ApplySolve(ctx context.Context, solve Solve) (Stats, error) {
	if solve.UserID == "" {
		return Stats{}, fmt.Errorf("%w: user id required", shared.ErrValidation)
	}
	if solve.Score < 0 || solve.Score > 100 || solve.TimeSpent < 0 {
		return Stats{}, fmt.Errorf("%w: score must be 0-100 and time_spent non-negative", shared.ErrValidation)
	}
	if solve.SubmissionID != "" {
		st, applied, err := s.repo.RecordSubmissionSolve(ctx, solve)
		if err != nil {
			return Stats{}, fmt.Errorf("record solve: %w", err)
		}
		if !applied {
			return st, fmt.Errorf("submission %s: %w", solve.SubmissionID, ErrAlreadyCounted)
		}
		s.bumpLeaderboard(ctx)
		return st, nil
	}
	st, err := s.repo.RecordSolve(ctx, solve.UserID, solve.Score, solve.TimeSpent)
	if err != nil {
		return Stats{}, fmt.Errorf("record solve: %w", err)
	}
	s.bumpLeaderboard(ctx)
	return st, nil
}

func (s *Service) bumpLeaderboard(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("leaderboard cache bump failed", slog.Any("error", err))
	}
}

// Leaderboard returns the top users ordered by sortBy.
func (s *Service) Leaderboard(ctx context.Context, sortBy SortBy, limit int) ([]LeaderboardEntry, error) {
	if sortBy == "" {
		sortBy = SortProblemsSolved
	}
	if !sortBy.Valid() {
		return nil, fmt.Errorf("%w: sort_by must be one of %v", shared.ErrValidation, SortOptions)
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	key, err := s.cache.BuildKey(ctx, string(sortBy), strconv.Itoa(limit))
	if err != nil {
		s.logger.Warn("leaderboard cache key", slog.Any("error", err))
		return s.repo.Leaderboard(ctx, sortBy, limit)
	}
	ch := s.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaderboardLoadTimeout)
		defer cancel()
		var entries []LeaderboardEntry
		err := s.cache.FetchJSON(loadCtx, key, &entries, func(ctx context.Context) (any, error) {
			return s.repo.Leaderboard(ctx, sortBy, limit)
		})
		return entries, err
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("leaderboard: %w", res.Err)
		}
		return res.Val.([]LeaderboardEntry), nil
	}
}

// WarmLeaderboard refreshes the cached default leaderboards.
func (s *Service) WarmLeaderboard(ctx context.Context) error {
	if err := s.cache.Bump(ctx); err != nil {
		return fmt.Errorf("bump leaderboard cache: %w", err)
	}
	for _, sortBy := range SortOptions {
		if _, err := s.Leaderboard(ctx, sortBy, DefaultLeaderboardLimit); err != nil {
			return err
		}
	}
	return nil
}

func resource(userID string) authz.Resource {
	return authz.Resource{Kind: authz.KindUserStats, ID: userID, OwnerID: userID}
}
