package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	projectUC "github.com/fastygo/taskboard/usecase/project"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

type ProjectHandler struct {
	baseHandler
	uc    *projectUC.UseCase
	tasks *taskUC.UseCase
}

func NewProjectHandler(uc *projectUC.UseCase, tasks *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		tasks:       tasks,
	}
}

// @Summary List projects
// @Tags projects
// @Router /api/v1/projects [get]
func (h *ProjectHandler) GetProjects(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	projects, err := h.uc.GetAllProjects(stdCtx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondList(ctx, projects, len(projects))
}

// @Summary Get project
// @Tags projects
// @Router /api/v1/projects/{id} [get]
func (h *ProjectHandler) GetProject(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	project, err := h.uc.GetProject(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, project)
}

// @Summary Create project
// @Tags projects
// @Router /api/v1/projects [post]
func (h *ProjectHandler) CreateProject(ctx *fasthttp.RequestCtx) {
	var req transport.CreateProjectRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, err.Error())
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateProject(stdCtx, req.Title, req.Deadline.UTC())
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// UpdateProject may shorten the deadline, in which case later task deadlines
// are pulled in before the response is written.
//
// @Summary Update project
// @Tags projects
// @Router /api/v1/projects/{id} [put]
func (h *ProjectHandler) UpdateProject(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	var req transport.UpdateProjectRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, err.Error())
		return
	}

	in := projectUC.UpdateInput{Title: req.Title}
	if req.Deadline != nil {
		deadline := req.Deadline.UTC()
		in.Deadline = &deadline
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateProject(stdCtx, id, in)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete project
// @Tags projects
// @Router /api/v1/projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if _, err := h.uc.DeleteProject(stdCtx, id); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondNoContent(ctx)
}

// @Summary Get project tasks
// @Tags projects
// @Router /api/v1/projects/{id}/tasks [get]
func (h *ProjectHandler) GetProjectTasks(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.tasks.GetTasksByProject(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondList(ctx, tasks, len(tasks))
}

// @Summary Link task to project
// @Tags projects
// @Router /api/v1/projects/{id}/tasks/{task_id}/link [post]
func (h *ProjectHandler) LinkTask(ctx *fasthttp.RequestCtx) {
	projectID, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	taskID, ok := h.pathID(ctx, "task_id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.LinkTask(stdCtx, projectID, taskID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Unlink task from project
// @Tags projects
// @Router /api/v1/projects/{id}/tasks/{task_id}/unlink [delete]
func (h *ProjectHandler) UnlinkTask(ctx *fasthttp.RequestCtx) {
	projectID, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	taskID, ok := h.pathID(ctx, "task_id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.UnlinkTask(stdCtx, projectID, taskID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Complete project
// @Tags projects
// @Router /api/v1/projects/{id}/complete [patch]
func (h *ProjectHandler) CompleteProject(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	project, err := h.uc.CompleteProject(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, project)
}

// @Summary Reopen project
// @Tags projects
// @Router /api/v1/projects/{id}/reopen [patch]
func (h *ProjectHandler) ReopenProject(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	project, err := h.uc.ReopenProject(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, project)
}
