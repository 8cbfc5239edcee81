package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jask/menutree/internal/config"
	"github.com/jask/menutree/internal/logging"
)

var (
	cfg    config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "menutree",
	Short: "Command tree host for the laser control application",
	Long: `menutree keeps the application's menu in step with its state.

Run without arguments to open the terminal menu bar. With --native-shell the
tree is mirrored to a shell process over stdin/stdout instead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Read(newViper(cmd.Root()))
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Log)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runHost,
}

var flagKeys = map[string]string{
	"native-shell": "host.native_shell",
	"shell":        "host.shell_path",
	"platform":     "host.platform",
	"developer":    "host.developer",
	"template":     "menu.template_path",
	"catalog":      "menu.catalog_path",
	"series":       "menu.series",
	"log-level":    "log.level",
}

// newViper layers root's persistent flags over file, env and defaults.
func newViper(root *cobra.Command) *viper.Viper {
	v := config.New()
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, root.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	return v
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.Bool("native-shell", false, "mirror the tree to a shell process instead of the terminal bus")
	pf.String("shell", "", "shell executable for --native-shell")
	pf.String("platform", "", "platform to build the tree for (darwin, linux, windows)")
	pf.Bool("developer", false, "show developer tools")
	pf.String("template", "", "TOML menu template replacing the built-in one")
	pf.String("catalog", "", "TOML template gallery catalog")
	pf.String("series", "", "template gallery series")
	pf.String("log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(templateCmd, recentCmd, seriesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
