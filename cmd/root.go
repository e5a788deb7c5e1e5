package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"invoicer/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "invoicer",
	Short: "Invoicer - build, preview and export invoices from the command line",
	Long: `Invoicer keeps one invoice draft on disk and edits it one command at a time.

Every editing command loads the draft, applies a single change, saves it and
prints the refreshed totals. Clients and invoices can be stored in a Notion
workspace, a Google spreadsheet or through a workspace relay started with
"invoicer serve", and the draft can be exported as an A4 PDF.

Start with "invoicer new".`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Debug().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("draft", "", "Draft file (default $INVOICER_DRAFT or <state-dir>/draft.json)")
	rootCmd.PersistentFlags().String("state-dir", "", "Directory of the local store (default $INVOICER_STATE_DIR or ~/.invoicer)")
}
