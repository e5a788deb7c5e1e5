package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"invoicer/internal/localstore"
)

var themeCmd = &cobra.Command{
	Use:       "theme [light|dark|toggle]",
	Short:     "Show or change the stored theme preference",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"light", "dark", "toggle"},
	RunE:      runTheme,
}

func init() {
	rootCmd.AddCommand(themeCmd)
}

func runTheme(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	local, err := localstore.Open(cfg.StateDir)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		fmt.Println(local.Theme())
		return nil
	}

	theme := localstore.Theme(args[0])
	if args[0] == "toggle" {
		theme, err = local.ToggleTheme()
	} else {
		err = local.SetTheme(theme)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Theme: %s\n", theme)
	return nil
}
