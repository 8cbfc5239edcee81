package main

import (
	"database/sql"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jask/menutree/internal/database"
	"github.com/jask/menutree/internal/database/repository"
	"github.com/jask/menutree/internal/service"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Manage the recent-files history",
}

func openRecentDB() (*sql.DB, error) {
	if err := database.RunMigrations(cfg.Recent.DatabasePath); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return database.Open(cfg.Recent.DatabasePath)
}

var recentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent files, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRecentDB()
		if err != nil {
			return err
		}
		defer db.Close()
		rows, err := repository.NewRecentFileRepo(db).List(cmd.Context(), cfg.Recent.Keep)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for i := len(rows) - 1; i >= 0; i-- {
			r := rows[i]
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.OpenedAt.Format(time.DateTime), r.Name, r.Path)
		}
		return w.Flush()
	},
}

var recentAddCmd = &cobra.Command{
	Use:   "add <path> [name]",
	Short: "Record a file as opened",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRecentDB()
		if err != nil {
			return err
		}
		defer db.Close()
		name := ""
		if len(args) == 2 {
			name = args[1]
		}
		svc := &service.RecentFiles{Repo: repository.NewRecentFileRepo(db), Keep: cfg.Recent.Keep, Log: logger}
		return svc.Opened(cmd.Context(), args[0], name)
	},
}

var recentResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the whole history and compact the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRecentDB()
		if err != nil {
			return err
		}
		defer db.Close()
		m := &service.MaintenanceService{DB: db}
		if err := m.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "recent files cleared")
		return nil
	},
}

func init() {
	recentCmd.AddCommand(recentListCmd, recentAddCmd, recentResetCmd)
}
