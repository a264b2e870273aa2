package monitor

import (
	"context"
	"errors"
	"testing"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

type pgStub struct{ err error }

func (p pgStub) Ping(context.Context) error { return p.err }

type redisStub struct{ err error }

func (r redisStub) Ping(context.Context) *redislib.StatusCmd {
	return redislib.NewStatusResult("PONG", r.err)
}

type journalStub struct {
	size int
	err  error
}

func (j journalStub) Size() (int, error) { return j.size, j.err }

func TestRefresh(t *testing.T) {
	tests := []struct {
		name    string
		pg      pgStub
		redis   redisStub
		journal journalStub
		want    Status
	}{
		{
			name:    "all healthy",
			journal: journalStub{size: 3},
			want:    Status{PostgreSQL: true, Redis: true, Journal: true, JournalSize: 3},
		},
		{
			name:  "redis down",
			redis: redisStub{err: errors.New("refused")},
			want:  Status{PostgreSQL: true, Journal: true},
		},
		{
			name:    "journal closed",
			pg:      pgStub{err: errors.New("timeout")},
			journal: journalStub{err: errors.New("database not open")},
			want:    Status{Redis: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.pg, tt.redis, tt.journal, 0, nil)
			m.Refresh()

			got := m.GetStatus()
			assert.False(t, got.LastCheck.IsZero())
			got.LastCheck = tt.want.LastCheck
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.PostgreSQL && tt.want.Redis, got.Healthy())
		})
	}
}

func TestStopIsIdempotent(t *testing.T) {
	m := New(pgStub{}, redisStub{}, journalStub{}, 0, nil)
	m.Start()
	m.Stop()
	m.Stop()
}
