package repository

import (
	"context"

	"github.com/fastygo/followup/domain"
)

// Broadcaster publishes change notifications on the store's pub/sub layer.
type Broadcaster interface {
	Publish(ctx context.Context, msg domain.Broadcast) error
}
