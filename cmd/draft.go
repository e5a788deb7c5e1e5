package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"invoicer/internal/draft"
	"invoicer/internal/format"
	"invoicer/internal/localstore"
	"invoicer/internal/session"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a fresh invoice draft",
	Long: `Replace the current draft with a fresh one.

The new draft is dated today and due in 30 days, carries the company details
saved by earlier sessions and the invoice number following the last exported one.`,
	Args: cobra.NoArgs,
	RunE: runNew,
}

var setCmd = &cobra.Command{
	Use:   "set <section>.<field> <value>",
	Short: "Set a company, client or invoice field",
	Long: `Set one free-text field of the draft.

Sections and fields:
  company  name, email, logo, address, city, state, zip, country, taxId
  client   name, email, logo, logoUrl, address, city, state, zip, country, taxId
  invoice  number, issueDate, dueDate, currency, note, customFooter

Company fields are remembered for later drafts.`,
	Example: `  invoicer set company.name "Acme GmbH"
  invoicer set invoice.currency EUR
  invoicer set invoice.dueDate 2026-12-01`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Add, remove or update line items",
}

var itemAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a blank line item",
	Args:  cobra.NoArgs,
	RunE:  runItemAdd,
}

var itemRemoveCmd = &cobra.Command{
	Use:   "remove <n>",
	Short: "Remove line item n (the last item is kept)",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemRemove,
}

var itemUpdateCmd = &cobra.Command{
	Use:   "update <n> <description|quantity|price> <value>",
	Short: "Update one field of line item n",
	Example: `  invoicer item update 1 description "Consulting"
  invoicer item update 1 quantity 12
  invoicer item update 1 price 95.50`,
	Args: cobra.ExactArgs(3),
	RunE: runItemUpdate,
}

var discountCmd = &cobra.Command{
	Use:   "discount <none|percentage|fixed> [value]",
	Short: "Set the discount applied before tax",
	Example: `  invoicer discount percentage 10
  invoicer discount fixed 50
  invoicer discount none`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDiscount,
}

var taxCmd = &cobra.Command{
	Use:   "tax <rate|off>",
	Short: "Enable tax at a rate in percent, or disable it",
	Example: `  invoicer tax 19
  invoicer tax off`,
	Args: cobra.ExactArgs(1),
	RunE: runTax,
}

func init() {
	itemCmd.AddCommand(itemAddCmd, itemRemoveCmd, itemUpdateCmd)
	rootCmd.AddCommand(newCmd, setCmd, itemCmd, discountCmd, taxCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	local, err := localstore.Open(cfg.StateDir)
	if err != nil {
		return err
	}

	d := session.NewDraft(time.Now(), local)
	if err := draft.WriteFile(cfg.DraftPath, d); err != nil {
		return err
	}

	fmt.Printf("New draft %s written to %s\n", d.Invoice.Number, cfg.DraftPath)
	printDates(d)
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	section, field, ok := strings.Cut(args[0], ".")
	if !ok || field == "" {
		return fmt.Errorf("expected <section>.<field>, got %q", args[0])
	}
	if draft.Section(section) == draft.SectionInvoice && field == "currency" {
		if note := currencyNote(args[1]); note != "" {
			fmt.Println(note)
		}
	}
	return mutate(cmd, draft.SetField{Section: draft.Section(section), Field: field, Value: args[1]})
}

func runItemAdd(cmd *cobra.Command, args []string) error {
	return mutate(cmd, draft.AddLineItem{})
}

func runItemRemove(cmd *cobra.Command, args []string) error {
	index, err := itemIndex(args[0])
	if err != nil {
		return err
	}
	return mutate(cmd, draft.RemoveLineItem{Index: index})
}

func runItemUpdate(cmd *cobra.Command, args []string) error {
	index, err := itemIndex(args[0])
	if err != nil {
		return err
	}
	return mutate(cmd, draft.UpdateLineItem{Index: index, Field: args[1], Value: args[2]})
}

func runDiscount(cmd *cobra.Command, args []string) error {
	discountType, err := draft.ParseDiscountType(args[0])
	if err != nil {
		return err
	}
	value := 0.0
	if len(args) == 2 {
		value = draft.ParseNumber(args[1])
	}
	return mutate(cmd, draft.SetDiscount{Type: discountType, Value: value})
}

func runTax(cmd *cobra.Command, args []string) error {
	e, err := openEnv(context.Background(), cmd, envOptions{})
	if err != nil {
		return err
	}

	action := draft.SetTax{Enabled: true, Rate: draft.ParseNumber(args[0])}
	if strings.EqualFold(args[0], "off") {
		// Disabling keeps the stored rate.
		action = draft.SetTax{Enabled: false, Rate: e.session.Draft().Tax.Rate}
	}
	if err := e.apply(action); err != nil {
		return err
	}
	printTotals(e.session.Preview())
	return nil
}

// mutate applies one action to the draft file and prints the new totals.
func mutate(cmd *cobra.Command, action draft.Action) error {
	e, err := openEnv(context.Background(), cmd, envOptions{})
	if err != nil {
		return err
	}
	if err := e.apply(action); err != nil {
		return err
	}
	printTotals(e.session.Preview())
	return nil
}

// currencyNote warns about a currency code that has no symbol of its own.
func currencyNote(code string) string {
	if format.Known(code) {
		return ""
	}
	return fmt.Sprintf("Note: %s has no known symbol and is shown with $ (known: %s)", code, strings.Join(format.Currencies(), ", "))
}

// itemIndex converts a 1-based command line position to a slice index.
func itemIndex(arg string) (int, error) {
	n, ok := draft.ParseInt(arg)
	if !ok || n < 1 {
		return 0, fmt.Errorf("line item number must be 1 or greater, got %q", arg)
	}
	return n - 1, nil
}
