package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hanyong5/2025book/internal/tasks"
)

// TasksController handles task queue endpoints.
type TasksController struct {
	runner TaskRunner
}

func NewTasksController(runner TaskRunner) *TasksController {
	return &TasksController{runner: runner}
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.runner.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": tasks.StatusName(status),
	})
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	BookID uint `json:"book_id" form:"book_id"`
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBind(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	switch taskType {
	case "warm_book_audio":
		if req.BookID == 0 {
			respondBadRequest(c, "book_id is required for warm_book_audio task")
			return
		}
		id, err := tc.runner.EnqueueWarmBookAudio(req.BookID)
		if err != nil {
			respondInternalError(c, err, "enqueue task")
			return
		}
		respondAccepted(c, "task enqueued", gin.H{"task_id": id, "type": taskType})

	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
	}
}
