package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// RecentFile is one row of recent_files.
type RecentFile struct {
	ID       string
	Path     string
	Name     string
	OpenedAt time.Time
}

// RecentFileRepo handles recently opened project files.
type RecentFileRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewRecentFileRepo(db *sql.DB) *RecentFileRepo {
	return &RecentFileRepo{db: db, now: time.Now}
}

// WithClock returns a copy of r that stamps rows with now.
func (r *RecentFileRepo) WithClock(now func() time.Time) *RecentFileRepo {
	c := *r
	c.now = now
	return &c
}

// RecentFileID derives a stable row id from a path.
func RecentFileID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+path)).String()
}

// Touch records that path was opened now.
func (r *RecentFileRepo) Touch(ctx context.Context, path, name string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO recent_files(id, path, name, opened_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET name=excluded.name, opened_at=excluded.opened_at;
	`, RecentFileID(path), path, name, r.now().UTC().UnixNano())
	return err
}

// ByPath returns the row for path, or nil.
func (r *RecentFileRepo) ByPath(ctx context.Context, path string) (*RecentFile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, path, name, opened_at FROM recent_files WHERE path = ?`, path)
	f, err := scanRecent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

// List returns up to limit of the most recently opened files, oldest first.
func (r *RecentFileRepo) List(ctx context.Context, limit int) ([]RecentFile, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, path, name, opened_at FROM recent_files
	ORDER BY opened_at DESC, rowid DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecentFile
	for rows.Next() {
		f, err := scanRecent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Remove deletes path.
func (r *RecentFileRepo) Remove(ctx context.Context, path string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM recent_files WHERE path = ?`, path)
	return err
}

// Clear deletes every row.
func (r *RecentFileRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM recent_files`)
	return err
}

// Prune keeps the keep most recent rows and returns how many were deleted.
func (r *RecentFileRepo) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	DELETE FROM recent_files WHERE id NOT IN (
		SELECT id FROM recent_files ORDER BY opened_at DESC, rowid DESC LIMIT ?
	)`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecent(s scanner) (RecentFile, error) {
	var f RecentFile
	var openedAt int64
	if err := s.Scan(&f.ID, &f.Path, &f.Name, &openedAt); err != nil {
		return RecentFile{}, err
	}
	f.OpenedAt = time.Unix(0, openedAt).UTC()
	return f, nil
}
