package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jask/menutree/internal/database/repository"
	"github.com/jask/menutree/internal/sections"
)

// ErrEmptyPath indicates an open without a path.
var ErrEmptyPath = errors.New("recent file path is empty")

const defaultKeep = 50

// RecentFiles keeps the recent-files feed backed by sqlite and pushes the
// current list, oldest first, to Sink after every change.
type RecentFiles struct {
	Repo *repository.RecentFileRepo
	// Keep bounds the stored history. The menu shows at most
	// sections.RecentCap of it.
	Keep int
	Sink func([]sections.RecentFile)
	Log  *zap.Logger
}

func (s *RecentFiles) keep() int {
	if s.Keep <= 0 {
		return defaultKeep
	}
	return max(s.Keep, sections.RecentCap)
}

func (s *RecentFiles) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// Load reads the stored list and pushes it to Sink.
func (s *RecentFiles) Load(ctx context.Context) ([]sections.RecentFile, error) {
	rows, err := s.Repo.List(ctx, sections.RecentCap)
	if err != nil {
		return nil, fmt.Errorf("list recent files: %w", err)
	}
	items := make([]sections.RecentFile, 0, len(rows))
	for _, r := range rows {
		items = append(items, sections.RecentFile{Path: r.Path, Name: r.Name})
	}
	if s.Sink != nil {
		s.Sink(items)
	}
	return items, nil
}

// Opened records path as the most recent file.
func (s *RecentFiles) Opened(ctx context.Context, path, name string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrEmptyPath
	}
	if err := s.Repo.Touch(ctx, path, name); err != nil {
		return fmt.Errorf("touch recent file: %w", err)
	}
	pruned, err := s.Repo.Prune(ctx, s.keep())
	if err != nil {
		return fmt.Errorf("prune recent files: %w", err)
	}
	if pruned > 0 {
		s.logger().Debug("recent files pruned", zap.Int64("rows", pruned))
	}
	_, err = s.Load(ctx)
	return err
}

// Forget removes path, e.g. after it failed to open.
func (s *RecentFiles) Forget(ctx context.Context, path string) error {
	if err := s.Repo.Remove(ctx, path); err != nil {
		return fmt.Errorf("remove recent file: %w", err)
	}
	_, err := s.Load(ctx)
	return err
}

// Clear empties the history.
func (s *RecentFiles) Clear(ctx context.Context) error {
	if err := s.Repo.Clear(ctx); err != nil {
		return fmt.Errorf("clear recent files: %w", err)
	}
	_, err := s.Load(ctx)
	return err
}
