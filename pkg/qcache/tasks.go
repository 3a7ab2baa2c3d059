package qcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"memento-be/pkg/cist"
)

const taskTTL = time.Hour

// ErrTaskNotFound is returned when a task id is unknown or expired.
var ErrTaskNotFound = errors.New("qcache: task not found")

// TaskStore keeps background production task records. Records are
// observability state, not a work queue, so they expire after an hour.
type TaskStore struct {
	store Store
}

func NewTaskStore(store Store) *TaskStore {
	return &TaskStore{store: store}
}

func taskKey(taskId string) string {
	return keyPrefix + "tasks:" + taskId
}

func (s *TaskStore) Save(ctx context.Context, task *cist.AsyncTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", task.Id, err)
	}
	return s.store.SetTTL(ctx, taskKey(task.Id), payload, taskTTL)
}

func (s *TaskStore) Get(ctx context.Context, taskId string) (*cist.AsyncTask, error) {
	payload, err := s.store.Get(ctx, taskKey(taskId))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	var task cist.AsyncTask
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", taskId, err)
	}
	return &task, nil
}

// MarkProcessing stamps the start of work on a task.
func (s *TaskStore) MarkProcessing(ctx context.Context, task *cist.AsyncTask) error {
	now := time.Now()
	task.Status = cist.TaskStatusProcessing
	task.StartedAt = &now
	return s.Save(ctx, task)
}

// MarkCompleted records the result payload and completion time.
func (s *TaskStore) MarkCompleted(ctx context.Context, task *cist.AsyncTask, result map[string]interface{}) error {
	now := time.Now()
	task.Status = cist.TaskStatusCompleted
	task.CompletedAt = &now
	task.ResultData = result
	return s.Save(ctx, task)
}

// MarkFailed records the failure. Failed tasks are terminal; the next turn
// triggers fresh production rather than a retry of this record.
func (s *TaskStore) MarkFailed(ctx context.Context, task *cist.AsyncTask, cause error) error {
	now := time.Now()
	task.Status = cist.TaskStatusFailed
	task.CompletedAt = &now
	if cause != nil {
		task.ErrorMessage = cause.Error()
	}
	return s.Save(ctx, task)
}

// Sweep deletes terminal task records past the retention window and returns
// how many were removed. Stores with native TTL evict these on their own;
// this covers backends that ignore the TTL hint.
func (s *TaskStore) Sweep(ctx context.Context) int {
	keys, err := s.store.Keys(ctx, keyPrefix+"tasks:*")
	if err != nil {
		return 0
	}

	removed := 0
	cutoff := time.Now().Add(-taskTTL)
	for _, key := range keys {
		payload, err := s.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var task cist.AsyncTask
		if err := json.Unmarshal(payload, &task); err != nil {
			// Undecodable records are garbage either way.
			_ = s.store.Delete(ctx, key)
			removed++
			continue
		}
		terminal := task.Status == cist.TaskStatusCompleted || task.Status == cist.TaskStatusFailed
		if terminal && task.CompletedAt != nil && task.CompletedAt.Before(cutoff) {
			if s.store.Delete(ctx, key) == nil {
				removed++
			}
		}
	}
	return removed
}
