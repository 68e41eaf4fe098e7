package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/mockround/mockround/internal/jobs"
	"github.com/mockround/mockround/internal/shared"
	"github.com/mockround/mockround/internal/stats"
)

// StatsService is the slice of stats.Service the jobs need.
type StatsService interface {
	ApplySolve(ctx context.Context, solve stats.Solve) (stats.Stats, error)
	WarmLeaderboard(ctx context.Context) error
}

// StatsJobs handles the stats-related tasks.
type StatsJobs struct {
	Stats   StatsService
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewStatsJobs wires dependencies for the stats handlers.
func NewStatsJobs(service StatsService, logger *slog.Logger, metrics *jobmetrics.Metrics) *StatsJobs {
	return &StatsJobs{Stats: service, Logger: logger, Metrics: metrics}
}

// Handlers lists the task handlers to register on a worker.
func (j *StatsJobs) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskRecordSolve, Handler: j.HandleRecordSolve},
		{Type: TaskLeaderboardWarm, Handler: j.HandleLeaderboardWarm},
	}
}

// HandleRecordSolve processes TaskRecordSolve tasks.
func (j *StatsJobs) HandleRecordSolve(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Stats == nil {
		return errors.New("record solve: handler not configured")
	}
	var payload RecordSolvePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("record solve payload: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskRecordSolve)
	defer func() { err = tracker.End(err) }()

	solve := payload.Solve
	logger := j.logger().With(slog.String("user_id", solve.UserID), slog.String("submission_id", solve.SubmissionID))
	st, err := j.Stats.ApplySolve(ctx, solve)
	if errors.Is(err, stats.ErrAlreadyCounted) {
		logger.Info("solve already counted", slog.Int("problems_solved", st.ProblemsSolved))
		return nil
	}
	if err != nil {
		logger.Error("record solve", slog.Any("error", err))
		if errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	j.Metrics.AddSolve()
	logger.Info("solve recorded", slog.Int("problems_solved", st.ProblemsSolved))
	return nil
}

// HandleLeaderboardWarm processes TaskLeaderboardWarm tasks.
func (j *StatsJobs) HandleLeaderboardWarm(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Stats == nil {
		return errors.New("leaderboard warm: handler not configured")
	}
	tracker := j.Metrics.Track(TaskLeaderboardWarm)
	defer func() { err = tracker.End(err) }()

	if err := j.Stats.WarmLeaderboard(ctx); err != nil {
		j.logger().Error("warm leaderboard", slog.Any("error", err))
		return err
	}
	j.logger().Info("leaderboard warmed")
	return nil
}

func (j *StatsJobs) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
