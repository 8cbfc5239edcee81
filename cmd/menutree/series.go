package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jask/menutree/internal/prefs"
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Choose the template gallery series",
}

var seriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the series in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog(cfg.Menu.CatalogPath)
		if err != nil {
			return err
		}
		current := seriesKey()
		resolved, _, _ := catalog.Resolve(current)
		for _, k := range catalog.Keys() {
			mark := " "
			if k == resolved {
				mark = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d)\n", mark, k, len(catalog.Series[k]))
		}
		return nil
	},
}

var seriesSetCmd = &cobra.Command{
	Use:   "set <key>",
	Short: "Remember a series for the next run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if cfg.Menu.CatalogPath != "" {
			catalog, err := loadCatalog(cfg.Menu.CatalogPath)
			if err != nil {
				return err
			}
			if _, ok := catalog.Series[key]; !ok {
				if near, ok := catalog.Nearest(key); ok {
					return fmt.Errorf("unknown series %q (did you mean %q?)", key, near)
				}
				return fmt.Errorf("unknown series %q", key)
			}
		}
		if err := prefs.SaveSeries(key); err != nil {
			return fmt.Errorf("save prefs: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "series set to %s\n", key)
		return nil
	},
}

func init() {
	seriesCmd.AddCommand(seriesListCmd, seriesSetCmd)
}
