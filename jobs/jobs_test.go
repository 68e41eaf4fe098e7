package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/mockround/mockround/internal/jobs"
	"github.com/mockround/mockround/internal/shared"
	"github.com/mockround/mockround/internal/stats"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{Type: task.Type(), Queue: QueueDefault}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

type fakeStats struct {
	solves  []stats.Solve
	counted map[string]bool
	warmed  int
	err     error
}

func (f *fakeStats) ApplySolve(_ context.Context, solve stats.Solve) (stats.Stats, error) {
	if f.err != nil {
		return stats.Stats{}, f.err
	}
	if solve.SubmissionID != "" {
		if f.counted[solve.SubmissionID] {
			return stats.Stats{UserID: solve.UserID, ProblemsSolved: len(f.solves)}, stats.ErrAlreadyCounted
		}
		if f.counted == nil {
			f.counted = map[string]bool{}
		}
		f.counted[solve.SubmissionID] = true
	}
	f.solves = append(f.solves, solve)
	return stats.Stats{UserID: solve.UserID, ProblemsSolved: len(f.solves)}, nil
}

func (f *fakeStats) WarmLeaderboard(context.Context) error {
	f.warmed++
	return f.err
}

func TestNotifySolveEnqueuesRecordSolve(t *testing.T) {
	enq := &fakeEnqueuer{}
	client := NewClientWith(enq)
	solve := stats.Solve{UserID: "u1", SubmissionID: "s1", Score: 80, TimeSpent: 30}

	require.NoError(t, client.NotifySolve(context.Background(), solve))
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskRecordSolve, enq.tasks[0].Type())

	var payload RecordSolvePayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	assert.Equal(t, solve, payload.Solve)
}

func TestNotifySolveTreatsDuplicateAsDone(t *testing.T) {
	client := NewClientWith(&fakeEnqueuer{err: asynq.ErrTaskIDConflict})
	assert.NoError(t, client.NotifySolve(context.Background(), stats.Solve{UserID: "u1", SubmissionID: "s1"}))

	client = NewClientWith(&fakeEnqueuer{err: errors.New("redis down")})
	assert.Error(t, client.NotifySolve(context.Background(), stats.Solve{UserID: "u1", SubmissionID: "s1"}))
}

func TestHandleRecordSolve(t *testing.T) {
	svc := &fakeStats{}
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	j := NewStatsJobs(svc, nil, metrics)

	task, err := NewRecordSolveTask(stats.Solve{UserID: "u1", Score: 70, TimeSpent: 5})
	require.NoError(t, err)
	require.NoError(t, j.HandleRecordSolve(context.Background(), task))
	require.Len(t, svc.solves, 1)
	assert.Equal(t, 70, svc.solves[0].Score)

	err = j.HandleRecordSolve(context.Background(), asynq.NewTask(TaskRecordSolve, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	svc.err = fmt.Errorf("record solve: %w", shared.ErrNotFound)
	err = j.HandleRecordSolve(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	svc.err = errors.New("connection reset")
	err = j.HandleRecordSolve(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleRecordSolveCountsSubmissionOnce(t *testing.T) {
	svc := &fakeStats{}
	reg := prometheus.NewRegistry()
	j := NewStatsJobs(svc, nil, jobmetrics.NewMetrics(reg))

	task, err := NewRecordSolveTask(stats.Solve{UserID: "u1", SubmissionID: "sub-1", Score: 90})
	require.NoError(t, err)
	require.NoError(t, j.HandleRecordSolve(context.Background(), task))

	// Same submission accepted again after a regrade.
	again, err := NewRecordSolveTask(stats.Solve{UserID: "u1", SubmissionID: "sub-1", Score: 90})
	require.NoError(t, err)
	require.NoError(t, j.HandleRecordSolve(context.Background(), again))
	assert.Len(t, svc.solves, 1)
}

func TestHandleLeaderboardWarm(t *testing.T) {
	svc := &fakeStats{}
	j := NewStatsJobs(svc, nil, nil)

	task, err := NewTask(TaskLeaderboardWarm)
	require.NoError(t, err)
	require.NoError(t, j.HandleLeaderboardWarm(context.Background(), task))
	assert.Equal(t, 1, svc.warmed)

	_, err = NewTask("mail:send")
	assert.Error(t, err)

	handlers := j.Handlers()
	require.Len(t, handlers, 2)
	assert.Equal(t, TaskRecordSolve, handlers[0].Type)
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return f.info, f.err
}

func TestHealthEndpoint(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		status    int
		body      string
	}{
		{
			name:   "no inspector",
			status: http.StatusOK,
			body:   `{"success":true,"data":{"queue":"default","pending":0,"active":0,"retry":0,"scheduled":0}}`,
		},
		{
			name:      "queue info",
			inspector: fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3, Active: 1}},
			status:    http.StatusOK,
			body:      `{"success":true,"data":{"queue":"default","pending":3,"active":1,"retry":0,"scheduled":0}}`,
		},
		{
			name:      "queue not created yet",
			inspector: fakeInspector{err: asynq.ErrQueueNotFound},
			status:    http.StatusOK,
			body:      `{"success":true,"data":{"queue":"default","pending":0,"active":0,"retry":0,"scheduled":0}}`,
		},
		{
			name:      "redis failure",
			inspector: fakeInspector{err: errors.New("dial tcp")},
			status:    http.StatusServiceUnavailable,
			body:      `{"message":"job queue unavailable","error":"unavailable"}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Route("/jobs", NewHandler(tc.inspector, nil).MountRoutes)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
			assert.Equal(t, tc.status, rr.Code)
			assert.JSONEq(t, tc.body, rr.Body.String())
		})
	}
}
