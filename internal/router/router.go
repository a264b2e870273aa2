package router

import (
	"github.com/fasthttp/router"

	apiHandler "github.com/fastygo/followup/api/handler"
	"github.com/fastygo/followup/internal/middleware"
)

type Handlers struct {
	Task      *apiHandler.TaskHandler
	Dashboard *apiHandler.DashboardHandler
	Failures  *apiHandler.FailureHandler
	Health    *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware middleware.Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// create-task answers every method itself, OPTIONS and 405 included.
	createTask := apiHandler.CORS(authMiddleware(handlers.Task.CreateTask))
	r.ANY("/create-task", createTask)
	r.ANY("/functions/v1/create-task", createTask)

	// Dashboard
	r.GET(apiHandler.DashboardPath, authMiddleware(handlers.Dashboard.Page))
	r.GET(apiHandler.DashboardFragmentPath, authMiddleware(handlers.Dashboard.Fragment))
	r.POST("/dashboard/tasks/{id}/complete", authMiddleware(handlers.Dashboard.Complete))
	r.GET("/api/v1/dashboard/today", authMiddleware(handlers.Dashboard.TodayTasks))

	r.GET("/api/v1/broadcast-failures", authMiddleware(handlers.Failures.Recent))

	return r
}
