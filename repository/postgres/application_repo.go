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

type applicationRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationRepository returns a read-only Postgres view of applications.
func NewApplicationRepository(pool *pgxpool.Pool) repository.ApplicationRepository {
	return &applicationRepository{pool: pool}
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	const query = `SELECT id, tenant_id FROM applications WHERE id = $1`

	var app domain.Application
	if err := r.pool.QueryRow(ctx, query, id).Scan(&app.ID, &app.TenantID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidInput(err) {
			return nil, domain.ErrApplicationNotFound.Wrap(err)
		}
		return nil, fmt.Errorf("get application %s: %w", id, err)
	}
	return &app, nil
}
