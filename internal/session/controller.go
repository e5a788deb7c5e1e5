// Package session drives one invoice editing session.
//
// A Controller owns the draft.Store, keeps the preview in step with it and
// performs the calls to the outside world: the workspace, the local store and
// the PDF exporter. Every collaborator failure is logged, reported through the
// Notifier and leaves the draft as it was. Only one collaborator call may be in
// flight at a time; a second one fails with ErrBusy.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"invoicer/internal/draft"
	"invoicer/internal/export"
	"invoicer/internal/logger"
	"invoicer/internal/preview"
	"invoicer/internal/workspace"
	"invoicer/pkg/models"
)

var (
	// ErrBusy is returned while another collaborator call is in flight.
	ErrBusy = errors.New("another operation is in progress")

	// ErrClientNameRequired is returned by SaveClient for a blank client name.
	ErrClientNameRequired = errors.New("client name is required")

	// ErrClientNotFound is returned by SelectClient for an id that is not in
	// the loaded client list.
	ErrClientNotFound = errors.New("client not found")

	// ErrNoWorkspace is returned by workspace operations when none is configured.
	ErrNoWorkspace = errors.New("no workspace configured")

	// ErrNoExporter is returned by ExportPDF when no exporter is configured.
	ErrNoExporter = errors.New("no exporter configured")
)

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier shows transient messages to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// LocalStore is the durable storage of the company and the invoice counter.
type LocalStore interface {
	draft.CompanySaver
	RestoreCompany(base models.Party) models.Party
	NextInvoiceNumber() string
	RecordInvoiceNumber(number string) error
}

// Exporter writes the preview as a PDF file.
type Exporter interface {
	WriteFile(ctx context.Context, m preview.Model, dir, name string) (string, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithWorkspace sets the remote persistence of clients and invoices.
func WithWorkspace(svc workspace.Service) Option {
	return func(c *Controller) { c.workspace = svc }
}

// WithLocalStore sets the durable local store.
func WithLocalStore(local LocalStore) Option {
	return func(c *Controller) { c.local = local }
}

// WithExporter sets the PDF exporter and the directory it writes to.
func WithExporter(exp Exporter, dir string) Option {
	return func(c *Controller) {
		c.exporter = exp
		c.exportDir = dir
	}
}

// WithNotifier sets where notifications go. The default only logs them.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithClients seeds the client list SelectClient picks from.
func WithClients(clients []models.ClientRecord) Option {
	return func(c *Controller) { c.clients = clients }
}

// Controller is the single owner of a session's draft.
type Controller struct {
	store   *draft.Store
	preview preview.Model
	clients []models.ClientRecord

	workspace workspace.Service
	local     LocalStore
	exporter  Exporter
	exportDir string
	notifier  Notifier

	busy atomic.Bool
	log  zerolog.Logger
}

// NewDraft returns the draft of a fresh session: defaults for now, the
// company restored from local and the next invoice number.
func NewDraft(now time.Time, local LocalStore) models.Draft {
	d := draft.Defaults(now)
	if local != nil {
		d.Company = local.RestoreCompany(d.Company)
		d.Invoice.Number = local.NextInvoiceNumber()
	}
	return d
}

// New returns a Controller editing d.
func New(d models.Draft, opts ...Option) *Controller {
	c := &Controller{
		log: logger.WithComponent("session"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = logNotifier{log: c.log}
	}

	var storeOpts []draft.Option
	if c.local != nil {
		storeOpts = append(storeOpts, draft.WithCompanySaver(c.local))
	}
	storeOpts = append(storeOpts, draft.WithListener(func(d models.Draft) {
		c.preview = preview.Project(d)
	}))

	c.store = draft.New(d, storeOpts...)
	c.preview = preview.Project(c.store.Draft())
	return c
}

// Apply performs one update of the draft. The preview is refreshed before
// Apply returns.
func (c *Controller) Apply(action draft.Action) error {
	return c.store.Apply(action)
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() models.Draft {
	return c.store.Draft()
}

// Preview returns the preview of the current draft.
func (c *Controller) Preview() preview.Model {
	return c.preview
}

// Clients returns the last loaded client list.
func (c *Controller) Clients() []models.ClientRecord {
	return append([]models.ClientRecord(nil), c.clients...)
}

// LoadClients fetches the client list from the workspace.
func (c *Controller) LoadClients(ctx context.Context) ([]models.ClientRecord, error) {
	const op = "LoadClients"

	release, err := c.begin(op)
	if err != nil {
		return nil, err
	}
	defer release()

	return c.loadClients(ctx)
}

func (c *Controller) loadClients(ctx context.Context) ([]models.ClientRecord, error) {
	const op = "LoadClients"

	if c.workspace == nil {
		return nil, c.failure(op, ErrNoWorkspace, "Could not load clients from the workspace")
	}

	clients, err := c.workspace.ListClients(ctx)
	if err != nil {
		return nil, c.failure(op, err, "Could not load clients from the workspace")
	}

	c.clients = clients
	if len(clients) > 0 {
		c.notifier.Notify(LevelSuccess, fmt.Sprintf("Loaded %d client(s) from the workspace", len(clients)))
	}
	return c.Clients(), nil
}

// SelectClient fills the client from the loaded record with the given id. An
// empty id only unlinks the client from its record.
func (c *Controller) SelectClient(id string) error {
	if id == "" {
		return c.Apply(draft.ClearClient{})
	}

	for _, record := range c.clients {
		if record.ID == id {
			if err := c.Apply(draft.SelectClient{Record: record}); err != nil {
				return err
			}
			c.notifier.Notify(LevelSuccess, "Loaded client: "+record.Name)
			return nil
		}
	}
	return fmt.Errorf("SelectClient: %q: %w", id, ErrClientNotFound)
}

// SaveClient creates a workspace record from the current client, links the
// draft to it and reloads the client list.
func (c *Controller) SaveClient(ctx context.Context) (models.ClientRecord, error) {
	const op = "SaveClient"

	client := c.store.Draft().Client
	if strings.TrimSpace(client.Name) == "" {
		c.notifier.Notify(LevelError, "Please enter a client name first")
		return models.ClientRecord{}, fmt.Errorf("%s: %w", op, ErrClientNameRequired)
	}

	release, err := c.begin(op)
	if err != nil {
		return models.ClientRecord{}, err
	}
	defer release()

	if c.workspace == nil {
		return models.ClientRecord{}, c.failure(op, ErrNoWorkspace, "Could not save client to the workspace")
	}

	created, err := c.workspace.CreateClient(ctx, models.ClientRecord{
		Name:    client.Name,
		Email:   client.Email,
		Address: client.Address,
		City:    client.City,
		State:   client.State,
		ZipCode: client.Zip,
		Country: client.Country,
	})
	if err != nil {
		return models.ClientRecord{}, c.failure(op, err, "Could not save client to the workspace")
	}

	if err := c.Apply(draft.LinkClient{ID: created.ID}); err != nil {
		return models.ClientRecord{}, err
	}

	if _, err := c.loadClients(ctx); err != nil {
		c.log.Warn().Err(err).Msg("Client saved but the client list could not be reloaded")
	}

	c.log.Info().Str("client_id", created.ID).Msg("Client saved")
	c.notifier.Notify(LevelSuccess, fmt.Sprintf("Client %q saved to the workspace!", client.Name))
	return created, nil
}

// SaveInvoice stores a snapshot of the current draft in the workspace.
func (c *Controller) SaveInvoice(ctx context.Context) (models.SaveResult, error) {
	const op = "SaveInvoice"

	release, err := c.begin(op)
	if err != nil {
		return models.SaveResult{}, err
	}
	defer release()

	if c.workspace == nil {
		return models.SaveResult{}, c.failure(op, ErrNoWorkspace, "Error: "+ErrNoWorkspace.Error())
	}

	d := c.store.Draft()
	result, err := c.workspace.CreateInvoice(ctx, workspace.BuildSnapshot(d))
	if err == nil && !result.Success {
		err = workspace.ErrSaveRejected
	}
	if err != nil {
		return models.SaveResult{}, c.failure(op, err, "Error: "+errorMessage(err))
	}

	c.log.Info().
		Str("invoice_id", result.ID).
		Str("invoice_number", d.Invoice.Number).
		Msg("Invoice saved")
	c.notifier.Notify(LevelSuccess, fmt.Sprintf("Invoice %s saved to the workspace!", d.Invoice.Number))
	return result, nil
}

// ExportPDF writes the preview to the export directory and records the
// invoice number as the last one used. It returns the written path.
func (c *Controller) ExportPDF(ctx context.Context) (string, error) {
	const op = "ExportPDF"

	release, err := c.begin(op)
	if err != nil {
		return "", err
	}
	defer release()

	if c.exporter == nil {
		return "", c.failure(op, ErrNoExporter, "Error generating PDF. Please try again.")
	}

	d := c.store.Draft()
	name := export.FileName(d.Invoice.Number, d.Client.Name)
	path, err := c.exporter.WriteFile(ctx, c.preview, c.exportDir, name)
	if err != nil {
		return "", c.failure(op, err, "Error generating PDF. Please try again.")
	}

	if c.local != nil {
		if err := c.local.RecordInvoiceNumber(d.Invoice.Number); err != nil {
			c.log.Warn().Err(err).Msg("Failed to record last invoice number")
		}
	}

	c.notifier.Notify(LevelSuccess, "Saved "+path)
	return path, nil
}

func (c *Controller) begin(op string) (func(), error) {
	if !c.busy.CompareAndSwap(false, true) {
		c.log.Debug().Str("op", op).Msg("Rejected overlapping operation")
		return nil, fmt.Errorf("%s: %w", op, ErrBusy)
	}
	return func() { c.busy.Store(false) }, nil
}

func (c *Controller) failure(op string, err error, message string) error {
	c.log.Error().Err(err).Str("op", op).Msg("Session operation failed")
	c.notifier.Notify(LevelError, message)
	return fmt.Errorf("%s: %w", op, err)
}

func errorMessage(err error) string {
	var reqErr *workspace.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	if errors.Is(err, workspace.ErrSaveRejected) {
		return workspace.ErrSaveRejected.Error()
	}
	return err.Error()
}

type logNotifier struct {
	log zerolog.Logger
}

func (n logNotifier) Notify(level Level, message string) {
	if level == LevelError {
		n.log.Warn().Msg(message)
		return
	}
	n.log.Info().Msg(message)
}
