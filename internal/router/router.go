package router

import (
	"github.com/fasthttp/router"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/internal/middleware"
)

type Handlers struct {
	Task    *apiHandler.TaskHandler
	Project *apiHandler.ProjectHandler
	Health  *apiHandler.HealthHandler
}

// New registers the API. auth wraps every /api/v1 route; nil leaves them open.
func New(handlers Handlers, auth middleware.Middleware) *router.Router {
	if auth == nil {
		auth = middleware.Passthrough
	}
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	api := r.Group("/api/v1")

	api.GET("/tasks", auth(handlers.Task.GetTasks))
	api.POST("/tasks", auth(handlers.Task.CreateTask))
	api.GET("/tasks/{id}", auth(handlers.Task.GetTask))
	api.PUT("/tasks/{id}", auth(handlers.Task.UpdateTask))
	api.DELETE("/tasks/{id}", auth(handlers.Task.DeleteTask))
	api.PATCH("/tasks/{id}/complete", auth(handlers.Task.CompleteTask))
	api.PATCH("/tasks/{id}/reopen", auth(handlers.Task.ReopenTask))

	api.GET("/projects", auth(handlers.Project.GetProjects))
	api.POST("/projects", auth(handlers.Project.CreateProject))
	api.GET("/projects/{id}", auth(handlers.Project.GetProject))
	api.PUT("/projects/{id}", auth(handlers.Project.UpdateProject))
	api.DELETE("/projects/{id}", auth(handlers.Project.DeleteProject))
	api.PATCH("/projects/{id}/complete", auth(handlers.Project.CompleteProject))
	api.PATCH("/projects/{id}/reopen", auth(handlers.Project.ReopenProject))
	api.GET("/projects/{id}/tasks", auth(handlers.Project.GetProjectTasks))
	api.POST("/projects/{id}/tasks/{task_id}/link", auth(handlers.Project.LinkTask))
	api.DELETE("/projects/{id}/tasks/{task_id}/unlink", auth(handlers.Project.UnlinkTask))

	return r
}
