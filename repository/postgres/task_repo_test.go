package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/followup/domain"
	"github.com/fastygo/followup/repository"
)

// testDatabaseEnv points at a disposable Postgres. Tests run in a schema of
// their own, dropped afterwards.
const testDatabaseEnv = "FOLLOWUP_TEST_DATABASE_URL"

const testSchemaDDL = `
CREATE TABLE applications (
    id UUID PRIMARY KEY,
    tenant_id UUID NOT NULL
);
CREATE TABLE tasks (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    application_id UUID NOT NULL REFERENCES applications(id),
    tenant_id UUID NOT NULL,
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    due_at TIMESTAMPTZ NOT NULL,
    status TEXT NOT NULL DEFAULT 'open',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(testDatabaseEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}
	ctx := context.Background()

	schema := "followup_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	admin, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		admin.Close()
	})

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema + ",public"
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, testSchemaDDL)
	require.NoError(t, err)
	return pool
}

func seedTask(t *testing.T, repo repository.TaskRepository, appID, tenantID string, due time.Time, status domain.TaskStatus) string {
	t.Helper()
	created, err := repo.Create(context.Background(), &domain.Task{
		ApplicationID: appID,
		TenantID:      tenantID,
		Type:          domain.TaskTypeCall,
		Title:         domain.DefaultTaskTitle,
		DueAt:         due,
		Status:        status,
	})
	require.NoError(t, err)
	return created.ID
}

func TestTaskRepositoryAgainstPostgres(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()

	tenantA, tenantB := uuid.NewString(), uuid.NewString()
	appA, appB := uuid.NewString(), uuid.NewString()
	_, err := pool.Exec(ctx, `INSERT INTO applications (id, tenant_id) VALUES ($1, $2), ($3, $4)`, appA, tenantA, appB, tenantB)
	require.NoError(t, err)

	repo := NewTaskRepository(pool)
	day := time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC)
	from, to := day, day.Add(24*time.Hour-time.Millisecond)

	late := seedTask(t, repo, appA, tenantA, day.Add(23*time.Hour+59*time.Minute+59*time.Second), domain.TaskStatusOpen)
	early := seedTask(t, repo, appA, tenantA, day, domain.TaskStatusOpen)
	snoozed := seedTask(t, repo, appA, tenantA, day.Add(12*time.Hour), domain.TaskStatus("snoozed"))
	seedTask(t, repo, appA, tenantA, day.Add(13*time.Hour), domain.TaskStatusCompleted)
	seedTask(t, repo, appA, tenantA, day.Add(24*time.Hour), domain.TaskStatusOpen)
	seedTask(t, repo, appA, tenantA, day.Add(-time.Millisecond), domain.TaskStatusOpen)
	other := seedTask(t, repo, appB, tenantB, day.Add(9*time.Hour), domain.TaskStatusOpen)

	filter := repository.DueFilter{TenantID: tenantA, From: from, To: to, ExcludeStatus: domain.TaskStatusCompleted}

	t.Run("window status and order", func(t *testing.T) {
		tasks, err := repo.ListDue(ctx, filter)
		require.NoError(t, err)
		got := make([]string, 0, len(tasks))
		for _, task := range tasks {
			assert.Equal(t, tenantA, task.TenantID)
			got = append(got, task.ID)
		}
		assert.Equal(t, []string{early, snoozed, late}, got)
	})

	t.Run("other tenant cannot complete", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, tenantA, other, domain.TaskStatusCompleted)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("complete drops task from list", func(t *testing.T) {
		require.NoError(t, repo.UpdateStatus(ctx, tenantA, early, domain.TaskStatusCompleted))
		tasks, err := repo.ListDue(ctx, filter)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, snoozed, tasks[0].ID)
	})

	t.Run("malformed ids", func(t *testing.T) {
		assert.ErrorIs(t, repo.UpdateStatus(ctx, tenantA, "not-a-uuid", domain.TaskStatusCompleted), domain.ErrTaskNotFound)
		tasks, err := repo.ListDue(ctx, repository.DueFilter{TenantID: "not-a-uuid", From: from, To: to})
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})
}

func TestTaskRepositoryRequiresTenant(t *testing.T) {
	repo := NewTaskRepository(nil)
	_, err := repo.ListDue(context.Background(), repository.DueFilter{})
	assert.ErrorIs(t, err, errMissingTenant)
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), "", "id", domain.TaskStatusCompleted), errMissingTenant)
}
