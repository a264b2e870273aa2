package domain

import (
	"fmt"
	"time"
)

// EventTaskCreated is the broadcast event name emitted after a task insert.
const EventTaskCreated = "task.created"

// TaskChannelPattern matches every tenant-scoped task channel.
const TaskChannelPattern = "public:tasks:tenant_id=eq.*"

// TaskChannel returns the broadcast channel scoped to a tenant.
func TaskChannel(tenantID string) string {
	return fmt.Sprintf("public:tasks:tenant_id=eq.%s", tenantID)
}

// TaskCreatedPayload is the body of a task.created broadcast.
type TaskCreatedPayload struct {
	TaskID        string   `json:"task_id"`
	ApplicationID string   `json:"application_id"`
	TaskType      TaskType `json:"task_type"`
	DueAt         string   `json:"due_at"`
	TenantID      string   `json:"tenant_id"`
}

// Broadcast is the message published on a tenant channel.
type Broadcast struct {
	Type    string             `json:"type"`
	Event   string             `json:"event"`
	Payload TaskCreatedPayload `json:"payload"`
}

// NewTaskCreated builds the broadcast for a freshly inserted task.
func NewTaskCreated(task *Task) Broadcast {
	return Broadcast{
		Type:  "broadcast",
		Event: EventTaskCreated,
		Payload: TaskCreatedPayload{
			TaskID:        task.ID,
			ApplicationID: task.ApplicationID,
			TaskType:      task.Type,
			DueAt:         FormatTimestamp(task.DueAt),
			TenantID:      task.TenantID,
		},
	}
}

// Channel is the tenant channel the broadcast belongs on.
func (b Broadcast) Channel() string {
	return TaskChannel(b.Payload.TenantID)
}

// FormatTimestamp renders t in UTC with millisecond precision,
// e.g. 2025-01-02T15:04:05.000Z.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
