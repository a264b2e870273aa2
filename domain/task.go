package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTaskTitle is used when a task is created without a title.
const DefaultTaskTitle = "Follow up on application"

// TaskType is the kind of follow-up action a task represents.
type TaskType string

const (
	TaskTypeCall   TaskType = "call"
	TaskTypeEmail  TaskType = "email"
	TaskTypeReview TaskType = "review"
)

// AllTaskTypes returns the task types in their canonical order.
func AllTaskTypes() []TaskType {
	return []TaskType{TaskTypeCall, TaskTypeEmail, TaskTypeReview}
}

func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeCall, TaskTypeEmail, TaskTypeReview:
		return true
	default:
		return false
	}
}

func (t TaskType) String() string {
	return string(t)
}

// ParseTaskType converts raw input into a TaskType.
func ParseTaskType(s string) (TaskType, error) {
	t := TaskType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid task type: %s", s)
	}
	return t, nil
}

// TaskTypeList renders the valid task types as "call, email, review".
func TaskTypeList() string {
	names := make([]string, 0, 3)
	for _, t := range AllTaskTypes() {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}

// TaskStatus is the completion state of a task. The store may hold values
// other than the ones declared here; those read as not completed.
type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "open"
	TaskStatusCompleted TaskStatus = "completed"
)

func (s TaskStatus) String() string {
	return string(s)
}

// Task represents a follow-up action tied to an application.
type Task struct {
	ID            string     `json:"id"`
	ApplicationID string     `json:"application_id"`
	TenantID      string     `json:"tenant_id"`
	Type          TaskType   `json:"type"`
	Title         string     `json:"title"`
	DueAt         time.Time  `json:"due_at"`
	Status        TaskStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == TaskStatusCompleted
}

// NewTask is a validated creation request. TenantID is never part of it:
// the tenant is always taken from the referenced application.
type NewTask struct {
	ApplicationID string
	Type          TaskType
	Title         string
	DueAt         time.Time
}
