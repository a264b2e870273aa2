package repository

import (
	"context"

	"github.com/fastygo/followup/domain"
)

type ApplicationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Application, error)
}
