package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"invoicer/internal/preview"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the invoice preview",
	Long: `Print the invoice as it would be exported, with every placeholder and
derived amount filled in. Use --json for the complete preview model.`,
	Args: cobra.NoArgs,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().Bool("json", false, "Print the preview model as JSON")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	e, err := openEnv(context.Background(), cmd, envOptions{})
	if err != nil {
		return err
	}

	m := e.session.Preview()
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}

	writePreview(os.Stdout, m)
	return nil
}

func writePreview(w io.Writer, m preview.Model) {
	fmt.Fprintf(w, "INVOICE #%s\n", m.Number)
	fmt.Fprintf(w, "Issued %s, due %s\n\n", m.IssueDate, m.DueDate)

	writeParty(w, "From", m.Company)
	writeParty(w, "Bill to", m.Client)

	fmt.Fprintf(w, "%-40s %8s %14s %14s\n", "Description", "Qty", "Unit price", "Amount")
	fmt.Fprintln(w, strings.Repeat("-", 79))
	for _, line := range m.LineItems {
		fmt.Fprintf(w, "%-40s %8s %14s %14s\n", truncate(line.Description, 40), line.Quantity, line.UnitPrice, line.Amount)
	}
	fmt.Fprintln(w, strings.Repeat("-", 79))

	fmt.Fprintf(w, "%64s %14s\n", "Subtotal", m.Subtotal)
	if m.Discount.Visible {
		fmt.Fprintf(w, "%64s %14s\n", m.Discount.Label, m.Discount.Amount)
	}
	if m.Tax.Visible {
		fmt.Fprintf(w, "%64s %14s\n", m.Tax.Label, m.Tax.Amount)
	}
	fmt.Fprintf(w, "%64s %14s\n\n", "Total", m.Total)

	fmt.Fprintf(w, "Note: %s\n\n", m.Note)
	fmt.Fprintln(w, m.Footer)
}

func writeParty(w io.Writer, title string, p preview.Party) {
	fmt.Fprintf(w, "%s:\n  %s <%s>\n", title, p.Name, p.Email)
	for _, line := range p.AddressLines() {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
