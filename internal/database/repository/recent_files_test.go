package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/menutree/internal/database"
	"github.com/jask/menutree/internal/database/repository"
)

func setupRecentTest(t *testing.T) (*repository.RecentFileRepo, *sql.DB, context.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	dbPath := filepath.Join(t.TempDir(), "recent.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := repository.NewRecentFileRepo(db).WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
	return repo, db, ctx
}

func TestRecentFileRepo_TouchAndList(t *testing.T) {
	t.Parallel()
	repo, _, ctx := setupRecentTest(t)

	require.NoError(t, repo.Touch(ctx, "/jobs/a.lbrn", "A"))
	require.NoError(t, repo.Touch(ctx, "/jobs/b.lbrn", ""))
	require.NoError(t, repo.Touch(ctx, "/jobs/c.lbrn", "C"))
	require.NoError(t, repo.Touch(ctx, "/jobs/a.lbrn", "A2"))

	got, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "/jobs/b.lbrn", got[0].Path)
	require.Equal(t, "/jobs/c.lbrn", got[1].Path)
	require.Equal(t, "/jobs/a.lbrn", got[2].Path)
	require.Equal(t, "A2", got[2].Name)
	require.Equal(t, repository.RecentFileID("/jobs/a.lbrn"), got[2].ID)

	last2, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"/jobs/c.lbrn", "/jobs/a.lbrn"}, []string{last2[0].Path, last2[1].Path})
}

func TestRecentFileRepo_PruneRemoveClear(t *testing.T) {
	t.Parallel()
	repo, db, ctx := setupRecentTest(t)
	for i := range 6 {
		require.NoError(t, repo.Touch(ctx, fmt.Sprintf("/jobs/%d.lbrn", i), ""))
	}

	n, err := repo.Prune(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	f, err := repo.ByPath(ctx, "/jobs/0.lbrn")
	require.NoError(t, err)
	require.Nil(t, f)
	f, err = repo.ByPath(ctx, "/jobs/5.lbrn")
	require.NoError(t, err)
	require.NotNil(t, f)

	require.NoError(t, repo.Remove(ctx, "/jobs/5.lbrn"))
	got, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.NoError(t, repo.Clear(ctx))
	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM recent_files").Scan(&count))
	require.Zero(t, count)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "nested", "recent.db")
	require.NoError(t, database.RunMigrations(dbPath))
	require.NoError(t, database.RunMigrations(dbPath))

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	v, err := database.Version(db)
	require.NoError(t, err)
	require.Equal(t, uint(1), v)
}
