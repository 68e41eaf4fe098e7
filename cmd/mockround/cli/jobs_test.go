package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/mockround/mockround/jobs"
)

type stubClient struct {
	tasks  []*asynq.Task
	closed bool
}

func (s *stubClient) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

func (s *stubClient) Close() error {
	s.closed = true
	return nil
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }
func (s stubInspector) Close() error                                  { return nil }

func TestTriggerEnqueuesKnownTask(t *testing.T) {
	client := &stubClient{}
	c := NewJobsCLIWith(client, nil)

	info, err := c.Trigger(context.Background(), jobs.TaskLeaderboardWarm)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if info.Type != jobs.TaskLeaderboardWarm || len(client.tasks) != 1 {
		t.Fatalf("unexpected enqueue: %+v", info)
	}

	if _, err := c.Trigger(context.Background(), "gl:integrity"); err == nil {
		t.Fatal("expected unknown task to fail")
	}
	if err := c.Close(); err != nil || !client.closed {
		t.Fatalf("expected client closed, err=%v", err)
	}
}

func TestInspectQueue(t *testing.T) {
	c := NewJobsCLIWith(nil, stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 2, Retry: 1}})
	stats, err := c.InspectQueue()
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if stats.Pending != 2 || stats.Retry != 1 || stats.Queue != jobs.QueueDefault {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	c = NewJobsCLIWith(nil, stubInspector{err: asynq.ErrQueueNotFound})
	stats, err = c.InspectQueue()
	if err != nil || stats.Pending != 0 {
		t.Fatalf("expected empty stats for missing queue, got %+v %v", stats, err)
	}

	c = NewJobsCLIWith(nil, stubInspector{err: errors.New("dial")})
	if _, err := c.InspectQueue(); err == nil {
		t.Fatal("expected inspector error")
	}

	var nilCLI *JobsCLI
	if _, err := nilCLI.InspectQueue(); err == nil {
		t.Fatal("expected error for unconfigured cli")
	}
}
