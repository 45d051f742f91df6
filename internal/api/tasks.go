package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tradepsych/coach-web-ui/internal/models"
)

// ErrTaskTimeout is returned by WaitForTask when the backend job does not
// reach a terminal state before the deadline. The task may still finish on
// the backend; the caller is only informed the wait gave up.
var ErrTaskTimeout = errors.New("task did not complete in time")

const taskPollInterval = time.Second

// Task fetches the state of one asynchronous backend job.
func (c *Client) Task(ctx context.Context, id string) (models.TaskStatus, error) {
	var status models.TaskStatus
	err := c.do(ctx, http.MethodGet, "/tasks/"+id, nil, nil, &status)
	return status, err
}

// WaitForTask polls a task every second until it completes, fails, or the
// timeout elapses. A failed task is returned with a nil error; inspecting
// the status is the caller's job. A zero timeout waits 60 seconds.
func (c *Client) WaitForTask(ctx context.Context, id string, timeout time.Duration) (models.TaskStatus, error) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(taskPollInterval)
	defer ticker.Stop()

	for {
		status, err := c.Task(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return models.TaskStatus{}, ErrTaskTimeout
			}
			return models.TaskStatus{}, fmt.Errorf("failed to poll task %s: %w", id, err)
		}
		if status.Terminal() {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return models.TaskStatus{}, ErrTaskTimeout
		case <-ticker.C:
		}
	}
}
