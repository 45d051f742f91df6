package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tradepsych/coach-web-ui/internal/api"
	"github.com/tradepsych/coach-web-ui/internal/models"
)

func taskServer(t *testing.T, statuses ...models.TaskStatus) *httptest.Server {
	t.Helper()
	calls := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tasks/task-1" {
			t.Errorf("request path = %q, want /v1/tasks/task-1", r.URL.Path)
		}
		status := statuses[calls]
		if calls < len(statuses)-1 {
			calls++
		}
		_ = json.NewEncoder(w).Encode(status)
	}))
}

func TestWaitForTaskCompleted(t *testing.T) {
	srv := taskServer(t, models.TaskStatus{TaskID: "task-1", Status: models.TaskStatusCompleted, Result: "doc-7"})
	defer srv.Close()

	client := api.NewClient(srv.URL, time.Second, nil, discardLogger())

	status, err := client.WaitForTask(context.Background(), "task-1", 5*time.Second)
	if err != nil {
		t.Fatalf("WaitForTask() error = %v", err)
	}
	if status.Status != models.TaskStatusCompleted {
		t.Errorf("status = %q, want %q", status.Status, models.TaskStatusCompleted)
	}
	if status.Result != "doc-7" {
		t.Errorf("result = %q, want %q", status.Result, "doc-7")
	}
}

func TestWaitForTaskFailedIsNotAnError(t *testing.T) {
	srv := taskServer(t, models.TaskStatus{TaskID: "task-1", Status: models.TaskStatusFailed, Error: "unsupported file type"})
	defer srv.Close()

	client := api.NewClient(srv.URL, time.Second, nil, discardLogger())

	status, err := client.WaitForTask(context.Background(), "task-1", 5*time.Second)
	if err != nil {
		t.Fatalf("WaitForTask() error = %v", err)
	}
	if status.Status != models.TaskStatusFailed {
		t.Errorf("status = %q, want %q", status.Status, models.TaskStatusFailed)
	}
	if status.Error != "unsupported file type" {
		t.Errorf("status.Error = %q, want %q", status.Error, "unsupported file type")
	}
}

func TestWaitForTaskTimeout(t *testing.T) {
	srv := taskServer(t, models.TaskStatus{TaskID: "task-1", Status: models.TaskStatusRunning})
	defer srv.Close()

	client := api.NewClient(srv.URL, time.Second, nil, discardLogger())

	_, err := client.WaitForTask(context.Background(), "task-1", 100*time.Millisecond)
	if !errors.Is(err, api.ErrTaskTimeout) {
		t.Fatalf("WaitForTask() error = %v, want ErrTaskTimeout", err)
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{models.TaskStatusPending, false},
		{models.TaskStatusRunning, false},
		{models.TaskStatusCompleted, true},
		{models.TaskStatusFailed, true},
	}
	for _, tt := range tests {
		got := models.TaskStatus{Status: tt.status}.Terminal()
		if got != tt.want {
			t.Errorf("Terminal(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
