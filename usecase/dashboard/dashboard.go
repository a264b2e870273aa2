package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/followup/domain"
	"github.com/fastygo/followup/internal/query"
	appLogger "github.com/fastygo/followup/pkg/logger"
	"github.com/fastygo/followup/repository"
)

// TodayTasksKey prefixes the per-tenant cache key of the due-today query.
const TodayTasksKey = "todayTasks"

// TodayTasksKeyFor is the cache key of one tenant's due-today query.
func TodayTasksKeyFor(tenantID string) string {
	return TodayTasksKey + ":" + tenantID
}

// Cache is the part of the query client the dashboard drives.
type Cache interface {
	Register(key string, fetcher query.Fetcher)
	Fetch(ctx context.Context, key string) (interface{}, error)
	Refetch(ctx context.Context, key string) (interface{}, error)
	Invalidate(key string)
	Snapshot(key string) (query.Entry, bool)
}

// UseCase serves each tenant its own due-today list. Tenants are registered
// with the cache the first time they are viewed.
type UseCase struct {
	tasks  repository.TaskRepository
	cache  Cache
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger

	mu       sync.Mutex
	tenants  map[string]struct{}
	inflight sync.Map
}

func New(tasks repository.TaskRepository, cache Cache, loc *time.Location, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &UseCase{
		tasks:   tasks,
		cache:   cache,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
		tenants: make(map[string]struct{}),
	}
}

// DayBounds returns [local midnight, 23:59:59.999] of the day containing now.
func DayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
	return start, end
}

// TodayTasks returns the tenant's open tasks due today, soonest first, from
// the cache when it is fresh.
func (uc *UseCase) TodayTasks(ctx context.Context, tenantID string) ([]domain.Task, error) {
	if tenantID == "" {
		return nil, domain.ErrUnauthorized
	}
	v, err := uc.cache.Fetch(ctx, uc.register(tenantID))
	if err != nil {
		return nil, err
	}
	return asTasks(v)
}

// LastFetched reports when the tenant's list was last loaded from the store.
func (uc *UseCase) LastFetched(tenantID string) (time.Time, bool) {
	entry, ok := uc.cache.Snapshot(TodayTasksKeyFor(tenantID))
	if !ok {
		return time.Time{}, false
	}
	return entry.FetchedAt, true
}

// Refresh reloads the list of every tenant viewed so far.
func (uc *UseCase) Refresh(ctx context.Context) error {
	var result error
	for _, tenantID := range uc.knownTenants() {
		key := TodayTasksKeyFor(tenantID)
		uc.cache.Invalidate(key)
		if _, err := uc.cache.Refetch(ctx, key); err != nil {
			result = errors.Join(result, fmt.Errorf("refresh %s: %w", key, err))
		}
	}
	return result
}

// Complete marks one of the tenant's tasks completed, then invalidates and
// refetches that tenant's list. A second call for a task whose completion
// is still running fails with ErrMutationInFlight; other tasks are not
// blocked.
func (uc *UseCase) Complete(ctx context.Context, tenantID, id string) error {
	if tenantID == "" {
		return domain.ErrUnauthorized
	}
	if id == "" {
		return domain.ErrTaskNotFound
	}
	flightKey := tenantID + "/" + id
	if _, busy := uc.inflight.LoadOrStore(flightKey, struct{}{}); busy {
		return domain.ErrMutationInFlight
	}
	defer uc.inflight.Delete(flightKey)

	log := appLogger.WithRequestID(ctx, uc.logger).With(
		zap.String("tenant_id", tenantID),
		zap.String("task_id", id))

	if err := uc.tasks.UpdateStatus(ctx, tenantID, id, domain.TaskStatusCompleted); err != nil {
		log.Warn("task completion failed", zap.Error(err))
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return err
		}
		return domain.ErrUpdateTaskFailed.Wrap(err)
	}

	key := uc.register(tenantID)
	uc.cache.Invalidate(key)
	if _, err := uc.cache.Refetch(ctx, key); err != nil {
		// the page shows the query error on its next render
		log.Warn("refetch after completion failed", zap.Error(err))
	}
	log.Info("task completed")
	return nil
}

// TaskCreated invalidates the announcing tenant's list when the new task
// falls inside today's window and the tenant has been viewed.
func (uc *UseCase) TaskCreated(payload domain.TaskCreatedPayload) bool {
	if !uc.known(payload.TenantID) {
		return false
	}
	due, err := time.Parse(time.RFC3339Nano, payload.DueAt)
	if err != nil {
		uc.logger.Debug("ignoring broadcast with unreadable due_at", zap.String("due_at", payload.DueAt))
		return false
	}
	start, end := DayBounds(uc.now(), uc.loc)
	if due.Before(start) || due.After(end) {
		return false
	}
	uc.cache.Invalidate(TodayTasksKeyFor(payload.TenantID))
	return true
}

func (uc *UseCase) register(tenantID string) string {
	key := TodayTasksKeyFor(tenantID)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if _, ok := uc.tenants[tenantID]; !ok {
		uc.cache.Register(key, func(ctx context.Context) (interface{}, error) {
			return uc.fetchToday(ctx, tenantID)
		})
		uc.tenants[tenantID] = struct{}{}
	}
	return key
}

func (uc *UseCase) known(tenantID string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	_, ok := uc.tenants[tenantID]
	return ok
}

func (uc *UseCase) knownTenants() []string {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	out := make([]string, 0, len(uc.tenants))
	for tenantID := range uc.tenants {
		out = append(out, tenantID)
	}
	sort.Strings(out)
	return out
}

func (uc *UseCase) fetchToday(ctx context.Context, tenantID string) (interface{}, error) {
	start, end := DayBounds(uc.now(), uc.loc)
	tasks, err := uc.tasks.ListDue(ctx, repository.DueFilter{
		TenantID:      tenantID,
		From:          start,
		To:            end,
		ExcludeStatus: domain.TaskStatusCompleted,
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].DueAt.Before(tasks[j].DueAt)
	})
	return tasks, nil
}

func asTasks(v interface{}) ([]domain.Task, error) {
	tasks, ok := v.([]domain.Task)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result %T", TodayTasksKey, v)
	}
	return tasks, nil
}
