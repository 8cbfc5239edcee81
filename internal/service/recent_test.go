package service

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
	"github.com/jask/menutree/internal/sections"
)

func setupRecentTest(t *testing.T) (*RecentFiles, *[][]sections.RecentFile, *sql.DB, context.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := repository.NewRecentFileRepo(db).WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	var pushed [][]sections.RecentFile
	svc := &RecentFiles{
		Repo: repo,
		Keep: 12,
		Sink: func(items []sections.RecentFile) { pushed = append(pushed, items) },
	}
	return svc, &pushed, db, ctx
}

func TestRecentFiles_OpenedPushesOldestFirst(t *testing.T) {
	t.Parallel()
	svc, pushed, _, ctx := setupRecentTest(t)

	require.NoError(t, svc.Opened(ctx, "/jobs/a.lbrn", "A"))
	require.NoError(t, svc.Opened(ctx, "/jobs/b.lbrn", ""))
	require.NoError(t, svc.Opened(ctx, "/jobs/a.lbrn", "A"))

	require.Len(t, *pushed, 3)
	last := (*pushed)[2]
	require.Equal(t, []sections.RecentFile{
		{Path: "/jobs/b.lbrn"},
		{Path: "/jobs/a.lbrn", Name: "A"},
	}, last)

	require.ErrorIs(t, svc.Opened(ctx, "  ", ""), ErrEmptyPath)
}

func TestRecentFiles_KeepsHistoryBounded(t *testing.T) {
	t.Parallel()
	svc, pushed, db, ctx := setupRecentTest(t)
	for i := range 15 {
		require.NoError(t, svc.Opened(ctx, fmt.Sprintf("/jobs/%02d.lbrn", i), ""))
	}

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM recent_files").Scan(&count))
	require.Equal(t, 12, count)

	last := (*pushed)[len(*pushed)-1]
	require.Len(t, last, sections.RecentCap)
	require.Equal(t, "/jobs/14.lbrn", last[len(last)-1].Path)
}

func TestRecentFiles_ForgetAndClear(t *testing.T) {
	t.Parallel()
	svc, pushed, _, ctx := setupRecentTest(t)
	require.NoError(t, svc.Opened(ctx, "/jobs/a.lbrn", ""))
	require.NoError(t, svc.Opened(ctx, "/jobs/b.lbrn", ""))

	require.NoError(t, svc.Forget(ctx, "/jobs/a.lbrn"))
	require.Equal(t, []sections.RecentFile{{Path: "/jobs/b.lbrn"}}, (*pushed)[len(*pushed)-1])

	require.NoError(t, svc.Clear(ctx))
	require.Empty(t, (*pushed)[len(*pushed)-1])
}

func TestMaintenanceReset(t *testing.T) {
	t.Parallel()
	svc, _, db, ctx := setupRecentTest(t)
	require.NoError(t, svc.Opened(ctx, "/jobs/a.lbrn", ""))

	m := &MaintenanceService{DB: db}
	require.NoError(t, m.Reset(ctx))
	items, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, items)

	require.Error(t, (&MaintenanceService{}).Reset(ctx))
}
