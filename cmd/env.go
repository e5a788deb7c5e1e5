package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"invoicer/internal/cache"
	"invoicer/internal/config"
	"invoicer/internal/draft"
	"invoicer/internal/export"
	"invoicer/internal/format"
	"invoicer/internal/imagerelay"
	"invoicer/internal/localstore"
	"invoicer/internal/preview"
	"invoicer/internal/proxy"
	"invoicer/internal/session"
	"invoicer/internal/workspace"
	"invoicer/pkg/models"
)

// env is what a command works with: configuration, the local store and the
// session editing the draft file.
type env struct {
	cfg     *config.Config
	local   *localstore.Store
	session *session.Controller
}

type envOptions struct {
	workspace bool
	exporter  bool
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if dir, _ := cmd.Flags().GetString("state-dir"); dir != "" {
		cfg.StateDir = dir
		if !cmd.Flags().Changed("draft") {
			cfg.DraftPath = filepath.Join(dir, "draft.json")
		}
	}
	if path, _ := cmd.Flags().GetString("draft"); path != "" {
		cfg.DraftPath = path
	}
	return cfg, nil
}

// openEnv loads the draft file, or starts a fresh draft when there is none,
// and wires the collaborators the command asked for.
func openEnv(ctx context.Context, cmd *cobra.Command, opts envOptions) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return openEnvWith(ctx, cfg, opts)
}

func openEnvWith(ctx context.Context, cfg *config.Config, opts envOptions) (*env, error) {
	local, err := localstore.Open(cfg.StateDir)
	if err != nil {
		return nil, err
	}

	d, err := draft.ReadFile(cfg.DraftPath)
	if errors.Is(err, draft.ErrNoDraft) {
		d = session.NewDraft(time.Now(), local)
	} else if err != nil {
		return nil, err
	}

	sessionOpts := []session.Option{
		session.WithLocalStore(local),
		session.WithNotifier(stdoutNotifier{}),
	}

	if opts.workspace {
		svc, err := newWorkspace(ctx, cfg)
		if err != nil {
			return nil, err
		}
		sessionOpts = append(sessionOpts, session.WithWorkspace(svc))
	}

	if opts.exporter {
		exp := export.New(export.WithImageInliner(newImageInliner(cfg)))
		sessionOpts = append(sessionOpts, session.WithExporter(exp, cfg.ExportDir))
	}

	return &env{
		cfg:     cfg,
		local:   local,
		session: session.New(d, sessionOpts...),
	}, nil
}

// apply performs one action and writes the draft back.
func (e *env) apply(action draft.Action) error {
	if err := e.session.Apply(action); err != nil {
		return err
	}
	return e.save()
}

func (e *env) save() error {
	return draft.WriteFile(e.cfg.DraftPath, e.session.Draft())
}

func newWorkspace(ctx context.Context, cfg *config.Config) (workspace.Service, error) {
	if err := cfg.ValidateWorkspace(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	switch cfg.WorkspaceBackend {
	case config.BackendSheets:
		return workspace.NewSheetsService(ctx, workspace.SheetsConfig{
			SheetURL:      cfg.GoogleSheetURL,
			ClientsSheet:  cfg.GoogleSheetClients,
			InvoicesSheet: cfg.GoogleSheetInvoices,
		})
	case config.BackendProxy:
		return proxy.NewClient(cfg.APIURL, httpClient)
	default:
		return workspace.NewNotionService(workspace.NotionConfig{
			APIKey:             cfg.NotionAPIKey,
			ClientsDatabaseID:  cfg.NotionClientsDB,
			InvoicesDatabaseID: cfg.NotionInvoicesDB,
			Version:            cfg.NotionVersion,
			Timeout:            cfg.HTTPTimeout,
		}, httpClient)
	}
}

// newImageInliner relays logos through the relay when one is configured and
// fetches them directly otherwise.
func newImageInliner(cfg *config.Config) export.ImageInliner {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	if cfg.WorkspaceBackend == config.BackendProxy && cfg.APIURL != "" {
		if client, err := proxy.NewClient(cfg.APIURL, httpClient); err == nil {
			return client
		}
	}
	return newImageFetcher(cfg)
}

func newImageFetcher(cfg *config.Config) *imagerelay.Fetcher {
	return imagerelay.NewFetcher(
		imagerelay.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		imagerelay.WithCache(cache.NewExpiring[string, imagerelay.Image](cfg.ImageCacheSize, cfg.ImageCacheTTL)),
	)
}

type stdoutNotifier struct{}

func (stdoutNotifier) Notify(level session.Level, message string) {
	if level == session.LevelError {
		fmt.Println("✗ " + message)
		return
	}
	fmt.Println("✓ " + message)
}

func printTotals(m preview.Model) {
	fmt.Printf("Subtotal: %s\n", m.Subtotal)
	if m.Discount.Visible {
		fmt.Printf("%s: %s\n", m.Discount.Label, m.Discount.Amount)
	}
	if m.Tax.Visible {
		fmt.Printf("%s: %s\n", m.Tax.Label, m.Tax.Amount)
	}
	fmt.Printf("Total: %s\n", m.Total)
}

func printClients(clients []models.ClientRecord) {
	if len(clients) == 0 {
		fmt.Println("No clients found.")
		return
	}
	for _, c := range clients {
		name := c.Name
		if name == "" {
			name = "Unnamed Client"
		}
		fmt.Printf("%s  %s", c.ID, name)
		if c.Email != "" {
			fmt.Printf(" <%s>", c.Email)
		}
		fmt.Println()
	}
}

func printDates(d models.Draft) {
	fmt.Printf("Issue date: %s\n", format.DateLong(d.Invoice.IssueDate))
	fmt.Printf("Due date:   %s\n", format.DateLong(d.Invoice.DueDate))
}
