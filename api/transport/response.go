package transport

import (
	"encoding/json"
	"time"
)

// ErrorResponse is the single failure envelope of the service.
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewError(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

type CreateTaskResponse struct {
	Success bool   `json:"success"`
	TaskID  string `json:"task_id"`
}

type CompleteTaskResponse struct {
	Success bool   `json:"success"`
	TaskID  string `json:"task_id"`
}

// TaskView is the dashboard's projection of a task row.
type TaskView struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	ApplicationID string `json:"application_id"`
	DueAt         string `json:"due_at"`
}

type TodayTasksResponse struct {
	Tasks     []TaskView `json:"tasks"`
	FetchedAt time.Time  `json:"fetched_at"`
}

type HealthResponse struct {
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
}

// BroadcastFailureView is one undelivered task broadcast.
type BroadcastFailureView struct {
	ID        string          `json:"id"`
	Channel   string          `json:"channel"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	Timestamp time.Time       `json:"timestamp"`
}

type BroadcastFailuresResponse struct {
	Failures []BroadcastFailureView `json:"failures"`
}
