package redis

import (
	"context"
	"encoding/json"
	"fmt"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/followup/domain"
	"github.com/fastygo/followup/repository"
)

// Publisher is the subset of the go-redis client used for broadcasts.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redislib.IntCmd
}

type broadcaster struct {
	client Publisher
}

// NewBroadcaster publishes task events on tenant-scoped Redis channels.
func NewBroadcaster(client Publisher) repository.Broadcaster {
	return &broadcaster{client: client}
}

func (b *broadcaster) Publish(ctx context.Context, msg domain.Broadcast) error {
	if msg.Payload.TenantID == "" {
		return fmt.Errorf("broadcast %s: missing tenant id", msg.Event)
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, msg.Channel(), payload).Err(); err != nil {
		return fmt.Errorf("publish %s on %s: %w", msg.Event, msg.Channel(), err)
	}
	return nil
}
