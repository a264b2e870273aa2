package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/followup/domain"
)

type fakePublisher struct {
	channel string
	message []byte
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redislib.IntCmd {
	f.channel = channel
	f.message, _ = message.([]byte)
	return redislib.NewIntResult(1, f.err)
}

func TestBroadcasterPublishesOnTenantChannel(t *testing.T) {
	pub := &fakePublisher{}
	b := NewBroadcaster(pub)

	task := &domain.Task{
		ID:            "task-1",
		ApplicationID: "app-1",
		TenantID:      "tenant-a",
		Type:          domain.TaskTypeEmail,
		DueAt:         time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, b.Publish(context.Background(), domain.NewTaskCreated(task)))

	assert.Equal(t, "public:tasks:tenant_id=eq.tenant-a", pub.channel)

	var got domain.Broadcast
	require.NoError(t, json.Unmarshal(pub.message, &got))
	assert.Equal(t, "broadcast", got.Type)
	assert.Equal(t, domain.EventTaskCreated, got.Event)
	assert.Equal(t, domain.TaskCreatedPayload{
		TaskID:        "task-1",
		ApplicationID: "app-1",
		TaskType:      domain.TaskTypeEmail,
		DueAt:         "2030-01-02T03:04:05.000Z",
		TenantID:      "tenant-a",
	}, got.Payload)
}

func TestBroadcasterReturnsPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection refused")}
	b := NewBroadcaster(pub)

	err := b.Publish(context.Background(), domain.NewTaskCreated(&domain.Task{ID: "t", TenantID: "x"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestBroadcasterRejectsMissingTenant(t *testing.T) {
	pub := &fakePublisher{}
	err := NewBroadcaster(pub).Publish(context.Background(), domain.NewTaskCreated(&domain.Task{ID: "t"}))
	require.Error(t, err)
	assert.Empty(t, pub.channel)
}
