package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc                  *taskUC.UseCase
	autoCompleteProject bool
	approachingWindow   time.Duration
}

func NewTaskHandler(uc *taskUC.UseCase, autoCompleteProject bool, approachingWindow time.Duration, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	if approachingWindow <= 0 {
		approachingWindow = 24 * time.Hour
	}
	return &TaskHandler{
		baseHandler:         newBaseHandler(adapter, logger),
		uc:                  uc,
		autoCompleteProject: autoCompleteProject,
		approachingWindow:   approachingWindow,
	}
}

// GetTasks lists tasks. Filters are applied in order of precedence:
// completed, overdue, approaching, project_id.
//
// @Summary List tasks
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var (
		tasks []*domain.Task
		err   error
	)
	switch {
	case args.Has("completed"):
		completed, perr := strconv.ParseBool(string(args.Peek("completed")))
		if perr != nil {
			h.respondInvalid(ctx, "completed must be a boolean")
			return
		}
		tasks, err = h.listByCompletion(stdCtx, completed)
	case queryFlag(args, "overdue"):
		tasks, err = h.uc.GetOverdueTasks(stdCtx)
	case queryFlag(args, "approaching"):
		tasks, err = h.uc.GetApproachingTasks(stdCtx, h.approachingWindow)
	case args.Has("project_id"):
		projectID, perr := uuid.ParseBytes(args.Peek("project_id"))
		if perr != nil {
			h.respondInvalid(ctx, "invalid project_id")
			return
		}
		tasks, err = h.uc.GetTasksByProject(stdCtx, projectID)
	default:
		tasks, err = h.uc.GetAllTasks(stdCtx)
	}
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondList(ctx, tasks, len(tasks))
}

func (h *TaskHandler) listByCompletion(stdCtx context.Context, completed bool) ([]*domain.Task, error) {
	if completed {
		return h.uc.GetCompletedTasks(stdCtx)
	}
	all, err := h.uc.GetAllTasks(stdCtx)
	if err != nil {
		return nil, err
	}
	open := make([]*domain.Task, 0, len(all))
	for _, t := range all {
		if !t.Completed {
			open = append(open, t)
		}
	}
	return open, nil
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.GetTask(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	var req transport.CreateTaskRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, err.Error())
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateTask(stdCtx, taskUC.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline.UTC(),
		ProjectID:   req.ProjectID,
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	var req transport.UpdateTaskRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, err.Error())
		return
	}

	in := taskUC.UpdateInput{Title: req.Title, Description: req.Description}
	if req.Deadline != nil {
		deadline := req.Deadline.UTC()
		in.Deadline = &deadline
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateTask(stdCtx, id, in)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if _, err := h.uc.DeleteTask(stdCtx, id); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondNoContent(ctx)
}

// @Summary Mark task as completed
// @Tags tasks
// @Router /api/v1/tasks/{id}/complete [patch]
func (h *TaskHandler) CompleteTask(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.CompleteTask(stdCtx, id, h.autoCompleteProject)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Reopen a completed task
// @Tags tasks
// @Router /api/v1/tasks/{id}/reopen [patch]
func (h *TaskHandler) ReopenTask(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.ReopenTask(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

func queryFlag(args *fasthttp.Args, key string) bool {
	v, err := strconv.ParseBool(string(args.Peek(key)))
	return err == nil && v
}
