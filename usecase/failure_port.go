package usecase

import (
	"context"

	"github.com/fastygo/followup/domain"
)

// FailureRecorder keeps a record of broadcasts that could not be delivered so
// operators can see them. Recorded broadcasts are never re-sent.
type FailureRecorder interface {
	RecordBroadcastFailure(ctx context.Context, msg domain.Broadcast, cause error) error
}
