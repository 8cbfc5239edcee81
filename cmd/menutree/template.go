package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jask/menutree/internal/menu"
	"github.com/jask/menutree/internal/template"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Inspect menu templates",
}

var templateDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the active template as TOML",
	Long: `Prints the template in use: the file named by --template, or the built-in
one. The output is a valid starting point for a custom template.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		nodes, err := loadTemplate(cfg.Menu.TemplatePath)
		if err != nil {
			return err
		}
		return template.Encode(cmd.OutOrStdout(), nodes)
	},
}

var templateCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a template for every platform",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Menu.TemplatePath
		if len(args) == 1 {
			path = args[0]
		}
		nodes, err := loadTemplate(path)
		if err != nil {
			return err
		}
		failed := false
		for _, platform := range []string{"darwin", "linux", "windows"} {
			if err := menu.Validate(menu.ForPlatform(nodes, platform)); err != nil {
				failed = true
				fmt.Fprintf(cmd.ErrOrStderr(), "%s:\n%v\n", platform, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", platform)
		}
		if failed {
			return fmt.Errorf("template has structural errors")
		}
		return nil
	},
}

func init() {
	templateCmd.AddCommand(templateDumpCmd, templateCheckCmd)
}
