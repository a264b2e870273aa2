package services

import (
	"context"
	"encoding/json"

	"github.com/fastygo/followup/domain"
	"github.com/fastygo/followup/internal/infrastructure/journal"
	"github.com/fastygo/followup/usecase"
)

// JournalWriter is implemented by journal.Store.
type JournalWriter interface {
	Record(entry journal.Entry) error
}

// JournalBridge stores undelivered broadcasts in the failure journal.
type JournalBridge struct {
	store JournalWriter
}

func NewJournalBridge(store JournalWriter) *JournalBridge {
	return &JournalBridge{store: store}
}

func (b *JournalBridge) RecordBroadcastFailure(ctx context.Context, msg domain.Broadcast, cause error) error {
	if b.store == nil {
		return nil
	}
	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		return err
	}
	entry := journal.Entry{
		TenantID: msg.Payload.TenantID,
		Channel:  msg.Channel(),
		Event:    msg.Event,
		Payload:  payload,
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	return b.store.Record(entry)
}

var _ usecase.FailureRecorder = (*JournalBridge)(nil)
