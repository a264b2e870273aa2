package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/followup/domain"
	"github.com/fastygo/followup/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrCreateTaskFailed
	}

	const query = `
	INSERT INTO tasks (application_id, tenant_id, type, title, due_at, status)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at, updated_at
	`

	created := *task
	if err := r.pool.QueryRow(ctx, query,
		task.ApplicationID,
		task.TenantID,
		string(task.Type),
		task.Title,
		task.DueAt.UTC(),
		string(task.Status),
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	return &created, nil
}

func (r *taskRepository) ListDue(ctx context.Context, filter repository.DueFilter) ([]domain.Task, error) {
	if filter.TenantID == "" {
		return nil, errMissingTenant
	}

	const query = `
	SELECT id, application_id, tenant_id, type, title, due_at, status, created_at, updated_at
	FROM tasks
	WHERE tenant_id = $1
	  AND due_at >= $2
	  AND due_at <= $3
	  AND ($4::text = '' OR status <> $4::text)
	ORDER BY due_at ASC
	`
	tasks := make([]domain.Task, 0)
	rows, err := r.pool.Query(ctx, query, filter.TenantID, filter.From.UTC(), filter.To.UTC(), string(filter.ExcludeStatus))
	if err != nil {
		if isInvalidInput(err) {
			return tasks, nil
		}
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		// a tenant id that is not a uuid owns no rows
		if isInvalidInput(err) {
			return make([]domain.Task, 0), nil
		}
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) UpdateStatus(ctx context.Context, tenantID, id string, status domain.TaskStatus) error {
	if tenantID == "" {
		return errMissingTenant
	}

	const query = `
	UPDATE tasks
	SET status = $3,
		updated_at = NOW()
	WHERE id = $1
	  AND tenant_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, id, tenantID, string(status))
	if err != nil {
		if isInvalidInput(err) {
			return domain.ErrTaskNotFound.Wrap(err)
		}
		return fmt.Errorf("update task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task           domain.Task
		taskType, stat string
	)

	if err := row.Scan(
		&task.ID,
		&task.ApplicationID,
		&task.TenantID,
		&taskType,
		&task.Title,
		&task.DueAt,
		&stat,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	task.Type = domain.TaskType(taskType)
	task.Status = domain.TaskStatus(stat)
	return &task, nil
}
