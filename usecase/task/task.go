package task

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/followup/domain"
	"github.com/fastygo/followup/pkg/async"
	appLogger "github.com/fastygo/followup/pkg/logger"
	"github.com/fastygo/followup/repository"
	"github.com/fastygo/followup/usecase"
)

type UseCase struct {
	applications repository.ApplicationRepository
	tasks        repository.TaskRepository
	broadcaster  repository.Broadcaster
	failures     usecase.FailureRecorder
	logger       *zap.Logger
	dispatch     async.Dispatcher
}

func New(
	applications repository.ApplicationRepository,
	tasks repository.TaskRepository,
	broadcaster repository.Broadcaster,
	failures usecase.FailureRecorder,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		applications: applications,
		tasks:        tasks,
		broadcaster:  broadcaster,
		failures:     failures,
		logger:       logger,
		dispatch:     async.Dispatch,
	}
}

// CreateTask resolves the tenant from the application, inserts an open task
// and announces it on the tenant channel.
func (uc *UseCase) CreateTask(ctx context.Context, in domain.NewTask) (*domain.Task, error) {
	log := appLogger.WithRequestID(ctx, uc.logger)

	app, err := uc.applications.GetByID(ctx, in.ApplicationID)
	if err != nil || app == nil {
		log.Warn("application lookup failed",
			zap.String("application_id", in.ApplicationID),
			zap.Error(err))
		return nil, domain.ErrApplicationNotFound.Wrap(err)
	}

	task := &domain.Task{
		ApplicationID: in.ApplicationID,
		TenantID:      app.TenantID,
		Type:          in.Type,
		Title:         in.Title,
		DueAt:         in.DueAt.UTC(),
		Status:        domain.TaskStatusOpen,
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil || created == nil || created.ID == "" {
		log.Error("task insert failed",
			zap.String("application_id", in.ApplicationID),
			zap.String("tenant_id", app.TenantID),
			zap.Error(err))
		return nil, domain.ErrCreateTaskFailed.Wrap(err)
	}

	// Best-effort and not awaited: a failed publish is logged and journaled,
	// the committed task and the response are unaffected.
	uc.notifyCreated(ctx, created)

	log.Info("task created",
		zap.String("task_id", created.ID),
		zap.String("tenant_id", created.TenantID),
		zap.String("type", created.Type.String()))
	return created, nil
}

func (uc *UseCase) notifyCreated(ctx context.Context, task *domain.Task) {
	if uc.broadcaster == nil {
		return
	}
	msg := domain.NewTaskCreated(task)
	uc.dispatch(ctx, uc.logger, "broadcast "+msg.Event, func(ctx context.Context) error {
		err := uc.broadcaster.Publish(ctx, msg)
		if err == nil {
			return nil
		}
		if uc.failures != nil {
			if jErr := uc.failures.RecordBroadcastFailure(ctx, msg, err); jErr != nil {
				uc.logger.Error("failed to journal broadcast failure",
					zap.String("task_id", task.ID),
					zap.Error(jErr))
			}
		}
		return err
	})
}
