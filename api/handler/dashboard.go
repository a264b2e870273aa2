package handler

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/followup/api/transport"
	"github.com/fastygo/followup/domain"
	"github.com/fastygo/followup/pkg/httpcontext"
)

const (
	DashboardPath         = "/dashboard/today"
	DashboardFragmentPath = "/dashboard/today/tasks"
	dueAtDisplayLayout    = "2006-01-02 15:04"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Dashboard is implemented by usecase/dashboard.UseCase.
type Dashboard interface {
	TodayTasks(ctx context.Context, tenantID string) ([]domain.Task, error)
	LastFetched(tenantID string) (time.Time, bool)
	Complete(ctx context.Context, tenantID, id string) error
}

type DashboardHandler struct {
	baseHandler
	uc      Dashboard
	loc     *time.Location
	appName string
}

func NewDashboardHandler(uc Dashboard, loc *time.Location, appName string, adapter *httpcontext.Adapter, logger *zap.Logger) *DashboardHandler {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		loc:         loc,
		appName:     appName,
	}
}

type pageData struct {
	AppName      string
	FragmentPath string
}

type taskRow struct {
	ID            string
	Title         string
	Type          string
	ApplicationID string
	DueAt         string
	Status        string
	Completed     bool
	CompletePath  string
}

type fragmentData struct {
	Error string
	Tasks []taskRow
}

// @Summary Today dashboard page
// @Tags dashboard
// @Router /dashboard/today [get]
func (h *DashboardHandler) Page(ctx *fasthttp.RequestCtx) {
	h.render(ctx, http.StatusOK, "today.html", pageData{AppName: h.appName, FragmentPath: DashboardFragmentPath})
}

// @Summary Today dashboard task table
// @Tags dashboard
// @Router /dashboard/today/tasks [get]
func (h *DashboardHandler) Fragment(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	status := http.StatusOK
	var data fragmentData
	tasks, err := h.uc.TodayTasks(stdCtx, httpcontext.Tenant(ctx))
	if err != nil {
		dErr := domain.AsError(err)
		status = statusFor(dErr.Code)
		h.logger.Warn("today tasks query failed", zap.Error(err))
		data.Error = dErr.Message
	}
	for i := range tasks {
		data.Tasks = append(data.Tasks, h.row(&tasks[i]))
	}
	h.render(ctx, status, "tasks.html", data)
}

// @Summary Today tasks as JSON
// @Tags dashboard
// @Router /api/v1/dashboard/today [get]
func (h *DashboardHandler) TodayTasks(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tenantID := httpcontext.Tenant(ctx)
	tasks, err := h.uc.TodayTasks(stdCtx, tenantID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	resp := transport.TodayTasksResponse{
		Tasks:     make([]transport.TaskView, 0, len(tasks)),
		FetchedAt: time.Now().UTC(),
	}
	if fetchedAt, ok := h.uc.LastFetched(tenantID); ok {
		resp.FetchedAt = fetchedAt.UTC()
	}
	for i := range tasks {
		t := &tasks[i]
		resp.Tasks = append(resp.Tasks, transport.TaskView{
			ID:            t.ID,
			Title:         t.Title,
			Type:          t.Type.String(),
			Status:        t.Status.String(),
			ApplicationID: t.ApplicationID,
			DueAt:         domain.FormatTimestamp(t.DueAt),
		})
	}
	h.respondJSON(ctx, http.StatusOK, resp)
}

// @Summary Mark task complete
// @Tags dashboard
// @Router /dashboard/tasks/{id}/complete [post]
func (h *DashboardHandler) Complete(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, _ := ctx.UserValue("id").(string)
	if err := h.uc.Complete(stdCtx, httpcontext.Tenant(ctx), id); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.CompleteTaskResponse{Success: true, TaskID: id})
}

func (h *DashboardHandler) row(t *domain.Task) taskRow {
	return taskRow{
		ID:            t.ID,
		Title:         t.Title,
		Type:          t.Type.String(),
		ApplicationID: t.ApplicationID,
		DueAt:         t.DueAt.In(h.loc).Format(dueAtDisplayLayout),
		Status:        t.Status.String(),
		Completed:     t.IsCompleted(),
		CompletePath:  "/dashboard/tasks/" + url.PathEscape(t.ID) + "/complete",
	}
}

func (h *DashboardHandler) render(ctx *fasthttp.RequestCtx, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("render template", zap.String("template", name), zap.Error(err))
		ctx.Error(domain.ErrInternal.Message, http.StatusInternalServerError)
		return
	}
	ctx.Response.Header.SetContentType("text/html; charset=utf-8")
	ctx.SetStatusCode(status)
	ctx.SetBody(buf.Bytes())
}
