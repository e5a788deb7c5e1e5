package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the invoice to the workspace",
	Long: `Store a snapshot of the current draft as a new invoice record in the
configured workspace. The draft itself is left unchanged.`,
	Args: cobra.NoArgs,
	RunE: runSave,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the invoice as a PDF",
	Long: `Render the invoice preview to an A4 PDF named Invoice_<number>_<client>.pdf.

The client logo is embedded when it can be fetched, otherwise its initial is
drawn. A successful export remembers the invoice number so the next draft
continues from it.`,
	Example: `  invoicer export
  invoicer export -o ~/invoices`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	saveCmd.Flags().Int("timeout", 60, "Workspace timeout in seconds")
	exportCmd.Flags().StringP("output", "o", "", "Output directory (default $INVOICER_EXPORT_DIR or .)")
	exportCmd.Flags().Int("timeout", 60, "Export timeout in seconds")
	rootCmd.AddCommand(saveCmd, exportCmd)
}

func runSave(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	e, err := openEnv(ctx, cmd, envOptions{workspace: true})
	if err != nil {
		return err
	}

	result, err := e.session.SaveInvoice(ctx)
	if err != nil {
		return err
	}
	if result.ID != "" {
		fmt.Printf("Record: %s\n", result.ID)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	outputDir, _ := cmd.Flags().GetString("output")

	ctx, cancel := commandContext(cmd)
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if outputDir != "" {
		cfg.ExportDir = outputDir
	}

	e, err := openEnvWith(ctx, cfg, envOptions{exporter: true})
	if err != nil {
		return err
	}

	_, err = e.session.ExportPDF(ctx)
	return err
}
