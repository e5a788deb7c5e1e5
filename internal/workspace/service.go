// Package workspace persists clients and invoices to a third-party workspace
// database.
//
// Service is the single contract the rest of the program talks to. Two
// backends implement it directly:
//   - NotionService: a Notion clients database and invoices database;
//   - SheetsService: two worksheets of a Google spreadsheet.
//
// The relay client in internal/proxy implements it a third time by forwarding
// to a relay server that owns one of the two backends.
//
// Required Environment Variables (Notion):
//   - NOTION_API_KEY: integration token
//   - NOTION_CLIENTS_DB: clients database id
//   - NOTION_INVOICES_DB: invoices database id
//
// Required Environment Variables (Google Sheets):
//   - GOOGLE_SHEET_URL: spreadsheet URL
//   - GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS: service account
package workspace

import (
	"context"
	"errors"
	"fmt"

	"invoicer/pkg/models"
)

// Service is the remote persistence of clients and invoices.
type Service interface {
	// ListClients returns every saved client, sorted by name.
	ListClients(ctx context.Context) ([]models.ClientRecord, error)

	// CreateClient saves a new client. The ID of the argument is ignored; the
	// returned record carries the id assigned by the workspace.
	CreateClient(ctx context.Context, client models.ClientRecord) (models.ClientRecord, error)

	// CreateInvoice saves an invoice snapshot.
	CreateInvoice(ctx context.Context, invoice models.InvoiceSnapshot) (models.SaveResult, error)
}

var (
	// ErrMissingCredentials is returned when the backend has no credentials configured.
	ErrMissingCredentials = errors.New("missing workspace credentials")

	// ErrInvalidConfiguration is returned when a required database or sheet is not configured.
	ErrInvalidConfiguration = errors.New("invalid workspace configuration")

	// ErrRemote is returned when the workspace rejects a request.
	ErrRemote = errors.New("workspace request failed")

	// ErrSaveRejected is returned when an invoice save reports success=false.
	ErrSaveRejected = errors.New("failed to save invoice")
)

// RequestError describes a request the workspace answered with an error.
type RequestError struct {
	// Op is the operation that failed (e.g. "ListClients").
	Op string

	// StatusCode is the HTTP status, 0 when unknown.
	StatusCode int

	// Code is the workspace's machine readable error code, if any.
	Code string

	// Message is the workspace's human readable message.
	Message string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("workspace: %s failed (%d %s): %s", e.Op, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("workspace: %s failed (%d): %s", e.Op, e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match ErrRemote.
func (e *RequestError) Unwrap() error {
	return ErrRemote
}
