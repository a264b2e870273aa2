package services

import (
	"context"
	"encoding/json"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/followup/domain"
)

// TaskEventSink reacts to task.created broadcasts.
type TaskEventSink interface {
	TaskCreated(payload domain.TaskCreatedPayload) bool
}

// PatternSubscriber is implemented by *redis.Client.
type PatternSubscriber interface {
	PSubscribe(ctx context.Context, channels ...string) *redislib.PubSub
}

// BroadcastListener follows every tenant task channel and forwards
// task.created events to the dashboard.
type BroadcastListener struct {
	client PatternSubscriber
	sink   TaskEventSink
	logger *zap.Logger
}

func NewBroadcastListener(client PatternSubscriber, sink TaskEventSink, logger *zap.Logger) *BroadcastListener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BroadcastListener{
		client: client,
		sink:   sink,
		logger: logger,
	}
}

// Run subscribes and dispatches messages until ctx is cancelled. go-redis
// reconnects the subscription on its own after network errors.
func (l *BroadcastListener) Run(ctx context.Context) {
	pubsub := l.client.PSubscribe(ctx, domain.TaskChannelPattern)
	defer pubsub.Close()

	l.logger.Info("listening for task broadcasts", zap.String("pattern", domain.TaskChannelPattern))
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			l.Handle(msg.Channel, msg.Payload)
		}
	}
}

// Handle decodes one broadcast and forwards it when it is a task.created
// event whose tenant matches its channel.
func (l *BroadcastListener) Handle(channel, payload string) {
	var msg domain.Broadcast
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		l.logger.Warn("ignoring malformed broadcast", zap.String("channel", channel), zap.Error(err))
		return
	}
	if msg.Event != domain.EventTaskCreated {
		return
	}
	if msg.Channel() != channel {
		l.logger.Warn("broadcast tenant does not match channel",
			zap.String("channel", channel),
			zap.String("tenant_id", msg.Payload.TenantID))
		return
	}
	if l.sink.TaskCreated(msg.Payload) {
		l.logger.Debug("dashboard invalidated by broadcast", zap.String("task_id", msg.Payload.TaskID))
	}
}
