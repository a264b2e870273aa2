package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/followup/api/transport"
	"github.com/fastygo/followup/domain"
	"github.com/fastygo/followup/pkg/httpcontext"
)

// TaskCreator is implemented by usecase/task.UseCase.
type TaskCreator interface {
	CreateTask(ctx context.Context, in domain.NewTask) (*domain.Task, error)
}

type TaskHandler struct {
	baseHandler
	uc  TaskCreator
	loc *time.Location
	now func() time.Time
}

// NewTaskHandler builds the create-task endpoint. loc interprets due_at
// values sent without an offset.
func NewTaskHandler(uc TaskCreator, loc *time.Location, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	if loc == nil {
		loc = time.Local
	}
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		loc:         loc,
		now:         time.Now,
	}
}

// @Summary Create follow-up task
// @Tags tasks
// @Router /create-task [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	setCORS(ctx)

	if ctx.IsOptions() {
		ctx.Response.Header.SetContentType("application/json")
		ctx.SetStatusCode(http.StatusOK)
		ctx.SetBodyString("ok")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			setCORS(ctx)
			h.respondError(ctx, stdCtx, domain.ErrInternal.Wrap(fmt.Errorf("panic: %v", r)))
		}
	}()

	if !ctx.IsPost() {
		h.respondError(ctx, stdCtx, domain.ErrMethodNotAllowed)
		return
	}

	req, err := transport.DecodeCreateTask(ctx.PostBody())
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	in, err := req.Validate(h.now(), h.loc)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	task, err := h.uc.CreateTask(stdCtx, in)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	h.respondJSON(ctx, http.StatusOK, transport.CreateTaskResponse{Success: true, TaskID: task.ID})
}
