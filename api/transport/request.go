package transport

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fastygo/followup/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateTaskRequest is the create-task body as sent by clients. Any tenant_id
// in the body is deliberately not decoded.
type CreateTaskRequest struct {
	ApplicationID string `json:"application_id" validate:"required"`
	TaskType      string `json:"task_type" validate:"required,oneof=call email review"`
	DueAt         string `json:"due_at" validate:"required"`
	Title         string `json:"title"`
}

// DecodeCreateTask parses the raw body. Any decoding failure is reported as
// domain.ErrInvalidJSON.
func DecodeCreateTask(body []byte) (CreateTaskRequest, error) {
	var req CreateTaskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return CreateTaskRequest{}, domain.ErrInvalidJSON.Wrap(err)
	}
	return req, nil
}

// Validate checks presence, then the task type, then due_at, and converts
// the request into a domain.NewTask. now is the instant due_at must follow;
// loc interprets timestamps that carry no offset.
func (r CreateTaskRequest) Validate(now time.Time, loc *time.Location) (domain.NewTask, error) {
	if err := validate.Struct(r); err != nil {
		return domain.NewTask{}, classify(err)
	}

	taskType, err := domain.ParseTaskType(r.TaskType)
	if err != nil {
		return domain.NewTask{}, domain.ErrInvalidTaskType.Wrap(err)
	}

	due, ok := ParseDueAt(r.DueAt, loc)
	if !ok || !due.After(now) {
		return domain.NewTask{}, domain.ErrInvalidDueAt
	}

	title := r.Title
	if title == "" {
		title = domain.DefaultTaskTitle
	}

	return domain.NewTask{
		ApplicationID: r.ApplicationID,
		Type:          taskType,
		Title:         title,
		DueAt:         due.UTC(),
	}, nil
}

func classify(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ErrInternal.Wrap(err)
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return domain.ErrMissingFields
		}
	}
	return domain.ErrInvalidTaskType
}

var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDueAt accepts RFC 3339 timestamps, offset-less date-times (read in
// loc) and bare dates (read as UTC midnight). A space may stand in for the
// T separator.
func ParseDueAt(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
