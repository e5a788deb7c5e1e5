package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List, select and save workspace clients",
	Long: `Work with the client records of the configured workspace.

Required environment variables depend on WORKSPACE_BACKEND:
  notion  NOTION_API_KEY, NOTION_CLIENTS_DB, NOTION_INVOICES_DB
  sheets  GOOGLE_SHEET_URL and GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS
  proxy   INVOICER_API_URL`,
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the workspace clients",
	Args:  cobra.NoArgs,
	RunE:  runClientsList,
}

var clientsSelectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Fill the draft client from a workspace record",
	Long: `Fill the draft client from the workspace record with the given id.
An empty id ("") unlinks the client from its record and keeps its fields.`,
	Args: cobra.ExactArgs(1),
	RunE: runClientsSelect,
}

var clientsSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the draft client as a new workspace record",
	Args:  cobra.NoArgs,
	RunE:  runClientsSave,
}

func init() {
	clientsCmd.PersistentFlags().Int("timeout", 60, "Workspace timeout in seconds")
	clientsCmd.AddCommand(clientsListCmd, clientsSelectCmd, clientsSaveCmd)
	rootCmd.AddCommand(clientsCmd)
}

func runClientsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	e, err := openEnv(ctx, cmd, envOptions{workspace: true})
	if err != nil {
		return err
	}

	clients, err := e.session.LoadClients(ctx)
	if err != nil {
		return err
	}
	printClients(clients)
	return nil
}

func runClientsSelect(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	// Clearing the selection does not reach the workspace.
	id := args[0]
	load := id != ""

	e, err := openEnv(ctx, cmd, envOptions{workspace: load})
	if err != nil {
		return err
	}

	if load {
		if _, err := e.session.LoadClients(ctx); err != nil {
			return err
		}
	}
	if err := e.session.SelectClient(id); err != nil {
		return err
	}
	if err := e.save(); err != nil {
		return err
	}
	printTotals(e.session.Preview())
	return nil
}

func runClientsSave(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	e, err := openEnv(ctx, cmd, envOptions{workspace: true})
	if err != nil {
		return err
	}

	if _, err := e.session.SaveClient(ctx); err != nil {
		return err
	}
	return e.save()
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeoutSecs, err := cmd.Flags().GetInt("timeout")
	if err != nil || timeoutSecs <= 0 {
		timeoutSecs = 60
	}
	return context.WithTimeout(cmd.Context(), time.Duration(timeoutSecs)*time.Second)
}
