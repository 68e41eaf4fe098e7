package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/mockround/mockround/internal/stats"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRecordSolve folds an accepted submission into user stats.
	TaskRecordSolve = "stats:record_solve"
	// TaskLeaderboardWarm refreshes the cached leaderboards.
	TaskLeaderboardWarm = "leaderboard:warm"
)

// RecordSolvePayload carries one accepted submission.
type RecordSolvePayload struct {
	Solve stats.Solve `json:"solve"`
}

// NewRecordSolveTask constructs an Asynq task. The task id collapses
// concurrent enqueues for one submission; the stats store counts it once.
func NewRecordSolveTask(solve stats.Solve) (*asynq.Task, error) {
	data, err := json.Marshal(RecordSolvePayload{Solve: solve})
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(5)}
	if solve.SubmissionID != "" {
		opts = append(opts, asynq.TaskID(TaskRecordSolve+":"+solve.SubmissionID))
	}
	return asynq.NewTask(TaskRecordSolve, data, opts...), nil
}

// LeaderboardWarmPayload is empty; the task refreshes every ordering.
type LeaderboardWarmPayload struct{}

// NewLeaderboardWarmTask constructs the leaderboard warm-up task.
func NewLeaderboardWarmTask() (*asynq.Task, error) {
	data, err := json.Marshal(LeaderboardWarmPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeaderboardWarm, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// NewTask builds a task by type name for manual triggers.
func NewTask(taskType string) (*asynq.Task, error) {
	switch taskType {
	case TaskLeaderboardWarm:
		return NewLeaderboardWarmTask()
	default:
		return nil, errUnknownTask(taskType)
	}
}
