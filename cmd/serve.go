package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"invoicer/internal/config"
	"invoicer/internal/logger"
	"invoicer/internal/proxy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the workspace relay",
	Long: `Serve the workspace over HTTP so clients without credentials can list and
create clients, save invoices and fetch logo images.

A single endpoint accepts getClients, createClient, saveInvoice and proxyImage
actions. The relay talks to the Notion or Google Sheets workspace configured
through WORKSPACE_BACKEND; it cannot relay to another relay.`,
	Example: `  invoicer serve
  invoicer serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default $PROXY_ADDR or :8888)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.ProxyAddr = addr
	}
	if cfg.WorkspaceBackend == config.BackendProxy {
		return fmt.Errorf("WORKSPACE_BACKEND must be notion or sheets to serve: %w", config.ErrInvalidConfig)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newWorkspace(ctx, cfg)
	if err != nil {
		return err
	}

	server := proxy.NewServer(svc, newImageFetcher(cfg), proxy.WithPath(cfg.ProxyPath))

	log.Info().
		Str("addr", cfg.ProxyAddr).
		Str("path", cfg.ProxyPath).
		Str("backend", cfg.WorkspaceBackend).
		Msg("Starting workspace relay")
	fmt.Printf("Serving %s on %s\n", cfg.ProxyPath, cfg.ProxyAddr)

	return server.ListenAndServe(ctx, cfg.ProxyAddr)
}
