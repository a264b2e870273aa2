package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/followup/domain"
	"github.com/fastygo/followup/internal/query"
	"github.com/fastygo/followup/repository"
)

const (
	tenantA = "tenant-a"
	tenantB = "tenant-b"
)

// memoryTasks applies the same filter and ordering as the Postgres query.
type memoryTasks struct {
	mu        sync.Mutex
	rows      map[string]domain.Task
	listErr   error
	updateErr error
	listCalls map[string]int

	blockID string
	started chan struct{}
	release chan struct{}
}

func (m *memoryTasks) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	return nil, errors.New("not used")
}

func (m *memoryTasks) ListDue(ctx context.Context, filter repository.DueFilter) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listCalls == nil {
		m.listCalls = make(map[string]int)
	}
	m.listCalls[filter.TenantID]++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Task
	for _, row := range m.rows {
		if row.TenantID != filter.TenantID {
			continue
		}
		if row.DueAt.Before(filter.From) || row.DueAt.After(filter.To) {
			continue
		}
		if filter.ExcludeStatus != "" && row.Status == filter.ExcludeStatus {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *memoryTasks) UpdateStatus(ctx context.Context, tenantID, id string, status domain.TaskStatus) error {
	if id == m.blockID {
		close(m.started)
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	row, ok := m.rows[id]
	if !ok || row.TenantID != tenantID {
		return domain.ErrTaskNotFound
	}
	row.Status = status
	m.rows[id] = row
	return nil
}

func (m *memoryTasks) calls(tenantID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls[tenantID]
}

func (m *memoryTasks) status(id string) domain.TaskStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id].Status
}

var (
	loc   = time.FixedZone("UTC-5", -5*60*60)
	clock = time.Date(2030, 3, 10, 9, 30, 0, 0, loc)
)

func at(h, m, s int) time.Time {
	return time.Date(2030, 3, 10, h, m, s, 0, loc)
}

func seed() *memoryTasks {
	return &memoryTasks{rows: map[string]domain.Task{
		"late":      {ID: "late", TenantID: tenantA, Title: "Late call", Type: domain.TaskTypeCall, Status: domain.TaskStatusOpen, DueAt: at(23, 59, 58)},
		"early":     {ID: "early", TenantID: tenantA, Title: "Early email", Type: domain.TaskTypeEmail, Status: domain.TaskStatusOpen, DueAt: at(0, 0, 1)},
		"done":      {ID: "done", TenantID: tenantA, Title: "Done review", Type: domain.TaskTypeReview, Status: domain.TaskStatusCompleted, DueAt: at(12, 0, 0)},
		"tomorrow":  {ID: "tomorrow", TenantID: tenantA, Title: "Tomorrow", Type: domain.TaskTypeCall, Status: domain.TaskStatusOpen, DueAt: at(24, 0, 0)},
		"yesterday": {ID: "yesterday", TenantID: tenantA, Title: "Yesterday", Type: domain.TaskTypeCall, Status: domain.TaskStatusOpen, DueAt: at(-1, 59, 59)},
		"foreign":   {ID: "foreign", TenantID: tenantB, Title: "Other tenant", Type: domain.TaskTypeCall, Status: domain.TaskStatusOpen, DueAt: at(10, 0, 0)},
	}}
}

func newUseCase(tasks *memoryTasks) *UseCase {
	uc := New(tasks, query.NewClient(nil), loc, nil)
	uc.now = func() time.Time { return clock }
	return uc
}

func ids(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestDayBounds(t *testing.T) {
	start, end := DayBounds(time.Date(2030, 3, 10, 3, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, time.Date(2030, 3, 9, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2030, 3, 9, 23, 59, 59, 999_000_000, loc), end)
}

func TestTodayTasksFiltersAndOrders(t *testing.T) {
	uc := newUseCase(seed())

	tasks, err := uc.TodayTasks(context.Background(), tenantA)
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, ids(tasks))
}

func TestTodayTasksScopedToTenant(t *testing.T) {
	repo := seed()
	uc := newUseCase(repo)

	a, err := uc.TodayTasks(context.Background(), tenantA)
	require.NoError(t, err)
	b, err := uc.TodayTasks(context.Background(), tenantB)
	require.NoError(t, err)

	assert.NotContains(t, ids(a), "foreign")
	assert.Equal(t, []string{"foreign"}, ids(b))
	for _, task := range a {
		assert.Equal(t, tenantA, task.TenantID)
	}

	_, err = uc.TodayTasks(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Zero(t, repo.calls(""))
}

func TestTodayTasksTreatsUnknownStatusAsOpen(t *testing.T) {
	repo := seed()
	repo.rows["snoozed"] = domain.Task{ID: "snoozed", TenantID: tenantA, Status: "snoozed", DueAt: at(8, 0, 0)}

	tasks, err := newUseCase(repo).TodayTasks(context.Background(), tenantA)
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "snoozed", "late"}, ids(tasks))
}

func TestTodayTasksServedFromCache(t *testing.T) {
	repo := seed()
	uc := newUseCase(repo)

	_, ok := uc.LastFetched(tenantA)
	assert.False(t, ok)

	for i := 0; i < 2; i++ {
		_, err := uc.TodayTasks(context.Background(), tenantA)
		require.NoError(t, err)
	}
	_, err := uc.TodayTasks(context.Background(), tenantB)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls(tenantA))

	last, ok := uc.LastFetched(tenantA)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), last, 5*time.Second)

	require.NoError(t, uc.Refresh(context.Background()))
	assert.Equal(t, 2, repo.calls(tenantA))
	assert.Equal(t, 2, repo.calls(tenantB))
}

func TestRefreshReportsFailures(t *testing.T) {
	repo := seed()
	uc := newUseCase(repo)
	_, err := uc.TodayTasks(context.Background(), tenantA)
	require.NoError(t, err)

	repo.listErr = errors.New("connection refused")
	assert.ErrorContains(t, uc.Refresh(context.Background()), "connection refused")
}

func TestTodayTasksEmpty(t *testing.T) {
	uc := newUseCase(&memoryTasks{rows: map[string]domain.Task{}})

	tasks, err := uc.TodayTasks(context.Background(), tenantA)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTodayTasksQueryFailure(t *testing.T) {
	repo := seed()
	repo.listErr = errors.New("relation \"tasks\" does not exist")

	_, err := newUseCase(repo).TodayTasks(context.Background(), tenantA)
	assert.EqualError(t, err, "relation \"tasks\" does not exist")
}

func TestCompleteRemovesTaskFromList(t *testing.T) {
	repo := seed()
	uc := newUseCase(repo)

	_, err := uc.TodayTasks(context.Background(), tenantA)
	require.NoError(t, err)

	require.NoError(t, uc.Complete(context.Background(), tenantA, "early"))
	assert.Equal(t, domain.TaskStatusCompleted, repo.status("early"))

	tasks, err := uc.TodayTasks(context.Background(), tenantA)
	require.NoError(t, err)
	assert.Equal(t, []string{"late"}, ids(tasks))
	assert.Equal(t, 2, repo.calls(tenantA))
}

func TestCompleteFailureLeavesTask(t *testing.T) {
	repo := seed()
	repo.updateErr = errors.New("permission denied")
	uc := newUseCase(repo)

	err := uc.Complete(context.Background(), tenantA, "early")
	assert.ErrorIs(t, err, domain.ErrUpdateTaskFailed)
	assert.Equal(t, domain.TaskStatusOpen, repo.status("early"))

	tasks, err := uc.TodayTasks(context.Background(), tenantA)
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, ids(tasks))
}

func TestCompleteUnknownTask(t *testing.T) {
	uc := newUseCase(seed())
	assert.ErrorIs(t, uc.Complete(context.Background(), tenantA, "nope"), domain.ErrTaskNotFound)
	assert.ErrorIs(t, uc.Complete(context.Background(), tenantA, ""), domain.ErrTaskNotFound)
	assert.ErrorIs(t, uc.Complete(context.Background(), "", "early"), domain.ErrUnauthorized)
}

func TestCompleteOtherTenantsTask(t *testing.T) {
	repo := seed()
	uc := newUseCase(repo)

	assert.ErrorIs(t, uc.Complete(context.Background(), tenantA, "foreign"), domain.ErrTaskNotFound)
	assert.Equal(t, domain.TaskStatusOpen, repo.status("foreign"))
}

func TestCompleteGuardIsPerTask(t *testing.T) {
	repo := seed()
	repo.blockID = "early"
	repo.started = make(chan struct{})
	repo.release = make(chan struct{})
	uc := newUseCase(repo)

	first := make(chan error, 1)
	go func() { first <- uc.Complete(context.Background(), tenantA, "early") }()
	<-repo.started

	// same task while its completion is running
	assert.ErrorIs(t, uc.Complete(context.Background(), tenantA, "early"), domain.ErrMutationInFlight)

	// a different task, and another tenant, are not held up
	require.NoError(t, uc.Complete(context.Background(), tenantA, "late"))
	require.NoError(t, uc.Complete(context.Background(), tenantB, "foreign"))
	assert.Equal(t, domain.TaskStatusCompleted, repo.status("late"))

	close(repo.release)
	require.NoError(t, <-first)
	assert.Equal(t, domain.TaskStatusCompleted, repo.status("early"))
}

func TestTaskCreatedInvalidatesOnlyForToday(t *testing.T) {
	repo := seed()
	uc := newUseCase(repo)
	_, err := uc.TodayTasks(context.Background(), tenantA)
	require.NoError(t, err)

	assert.False(t, uc.TaskCreated(domain.TaskCreatedPayload{TenantID: tenantA, DueAt: domain.FormatTimestamp(at(30, 0, 0))}))
	assert.False(t, uc.TaskCreated(domain.TaskCreatedPayload{TenantID: tenantA, DueAt: "garbage"}))
	assert.False(t, uc.TaskCreated(domain.TaskCreatedPayload{TenantID: "unviewed", DueAt: domain.FormatTimestamp(at(15, 0, 0))}))
	_, _ = uc.TodayTasks(context.Background(), tenantA)
	assert.Equal(t, 1, repo.calls(tenantA))

	assert.True(t, uc.TaskCreated(domain.TaskCreatedPayload{TenantID: tenantA, DueAt: domain.FormatTimestamp(at(15, 0, 0))}))
	_, _ = uc.TodayTasks(context.Background(), tenantA)
	assert.Equal(t, 2, repo.calls(tenantA))
}
