package repository

import (
	"context"
	"time"

	"github.com/fastygo/followup/domain"
)

// DueFilter selects one tenant's tasks due inside the closed interval
// [From, To]. TenantID is required.
type DueFilter struct {
	TenantID      string
	From          time.Time
	To            time.Time
	ExcludeStatus domain.TaskStatus
}

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	ListDue(ctx context.Context, filter DueFilter) ([]domain.Task, error)
	// UpdateStatus changes the task only when it belongs to tenantID.
	UpdateStatus(ctx context.Context, tenantID, id string, status domain.TaskStatus) error
}
