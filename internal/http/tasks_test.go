package http

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTaskRunner struct {
	enqueued   []uint
	enqueueErr error
	status     backlite.TaskStatus
}

func (f *fakeTaskRunner) EnqueueWarmBookAudio(bookID uint) (string, error) {
	if f.enqueueErr != nil {
		return "", f.enqueueErr
	}
	f.enqueued = append(f.enqueued, bookID)
	return "task-1", nil
}

func (f *fakeTaskRunner) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return f.status, nil
}

func TestTasksController_RunTask(t *testing.T) {
	env := setupTestEnv(t)
	runner := &fakeTaskRunner{}
	env.cfg.TaskRunner = runner
	router := env.router()

	t.Run("enqueues audio warm-up", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/tasks/warm_book_audio/run", []byte(`{"book_id": 7}`))
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
		assert.Equal(t, []uint{7}, runner.enqueued)

		resp := decode[struct {
			Data map[string]string `json:"data"`
		}](t, w)
		assert.Equal(t, "task-1", resp.Data["task_id"])
	})

	t.Run("requires book id", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/tasks/warm_book_audio/run", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown task type", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/tasks/reindex/run", []byte(`{"book_id": 7}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("enqueue failure", func(t *testing.T) {
		runner.enqueueErr = errors.New("queue closed")
		defer func() { runner.enqueueErr = nil }()

		w := doRequest(router, "POST", "/api/tasks/warm_book_audio/run", []byte(`{"book_id": 7}`))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestTasksController_GetTaskStatus(t *testing.T) {
	env := setupTestEnv(t)
	env.cfg.TaskRunner = &fakeTaskRunner{status: backlite.TaskStatusRunning}
	router := env.router()

	w := doRequest(router, "GET", "/api/tasks/task-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[map[string]string](t, w)
	assert.Equal(t, "task-1", resp["id"])
	assert.Equal(t, "running", resp["status"])
}

func TestRouter_TaskRoutesDisabled(t *testing.T) {
	env := setupTestEnv(t)
	router := env.router()

	w := doRequest(router, "GET", "/api/tasks/task-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
