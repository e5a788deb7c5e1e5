package workspace

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"invoicer/internal/logger"
	"invoicer/pkg/models"
)

const (
	// DefaultClientsSheet is the worksheet holding clients.
	DefaultClientsSheet = "Clients"

	// DefaultInvoicesSheet is the worksheet holding invoices.
	DefaultInvoicesSheet = "Invoices"
)

var (
	clientHeaders = []any{
		"ID", "Name", "Email", "Address", "City", "State", "Zip Code", "Country", "Logo URL",
	}

	invoiceHeaders = []any{
		"ID", "Invoice Number", "Client ID", "Issue Date", "Due Date", "Line Items",
		"Subtotal", "Discount", "Tax Rate", "Tax Amount", "Total", "Currency",
		"Status", "Notes", "Custom Footer", "Saved At",
	}

	spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
)

// SheetsConfig holds the settings of the Google Sheets backend.
type SheetsConfig struct {
	// SheetURL is the spreadsheet URL.
	SheetURL string

	// ClientsSheet is the clients worksheet. Default: Clients.
	ClientsSheet string

	// InvoicesSheet is the invoices worksheet. Default: Invoices.
	InvoicesSheet string
}

// SheetsService stores clients and invoices in two worksheets of a Google
// spreadsheet. Worksheets and header rows are created on first use.
type SheetsService struct {
	sheetsService *sheets.Service
	spreadsheetID string
	clientsSheet  string
	invoicesSheet string
	now           func() time.Time
	newID         func() string
	log           zerolog.Logger
}

// NewSheetsService creates a Google Sheets backed Service. Without client
// options the service account is read from GOOGLE_APPLICATION_CREDENTIALS
// (a file) or GOOGLE_CREDENTIALS (inline JSON).
func NewSheetsService(ctx context.Context, cfg SheetsConfig, opts ...option.ClientOption) (*SheetsService, error) {
	const op = "NewSheetsService"

	log := logger.WithComponent("workspace-sheets")

	spreadsheetID, err := ExtractSpreadsheetID(cfg.SheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	if len(opts) == 0 {
		creds, err := loadCredentials()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		jwt, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
		}
		opts = []option.ClientOption{option.WithHTTPClient(jwt.Client(ctx))}
	}

	sheetsService, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	s := &SheetsService{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		clientsSheet:  cfg.ClientsSheet,
		invoicesSheet: cfg.InvoicesSheet,
		now:           time.Now,
		newID:         uuid.NewString,
		log:           log,
	}
	if s.clientsSheet == "" {
		s.clientsSheet = DefaultClientsSheet
	}
	if s.invoicesSheet == "" {
		s.invoicesSheet = DefaultInvoicesSheet
	}
	return s, nil
}

func loadCredentials() ([]byte, error) {
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return creds, nil
	}
	if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		return []byte(credsJSON), nil
	}
	return nil, fmt.Errorf("neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set: %w", ErrMissingCredentials)
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL.
func ExtractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format: %w", ErrInvalidConfiguration)
	}
	return matches[1], nil
}

// ListClients reads every client row, sorted by name.
func (s *SheetsService) ListClients(ctx context.Context) ([]models.ClientRecord, error) {
	const op = "ListClients"

	if err := s.ensureSheetWithHeaders(ctx, s.clientsSheet, clientHeaders); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rangeSpec := fmt.Sprintf("%s!A2:%s", s.clientsSheet, columnLetter(len(clientHeaders)))
	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, rangeSpec).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read range %s: %w", op, rangeSpec, err)
	}

	clients := make([]models.ClientRecord, 0, len(resp.Values))
	for _, row := range resp.Values {
		record := clientFromRow(row)
		if record.ID == "" && record.Name == "" {
			continue
		}
		clients = append(clients, record)
	}
	slices.SortStableFunc(clients, func(a, b models.ClientRecord) int {
		return strings.Compare(a.Name, b.Name)
	})

	s.log.Info().Int("clients", len(clients)).Msg("Loaded clients from Google Sheet")
	return clients, nil
}

// CreateClient appends a client row with a fresh id.
func (s *SheetsService) CreateClient(ctx context.Context, client models.ClientRecord) (models.ClientRecord, error) {
	const op = "CreateClient"

	client.ID = s.newID()
	if err := s.appendRow(ctx, s.clientsSheet, clientHeaders, clientToRow(client)); err != nil {
		return models.ClientRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().Str("client_id", client.ID).Str("name", client.Name).Msg("Client appended to Google Sheet")
	return client, nil
}

// CreateInvoice appends an invoice row with a fresh id.
func (s *SheetsService) CreateInvoice(ctx context.Context, inv models.InvoiceSnapshot) (models.SaveResult, error) {
	const op = "CreateInvoice"

	id := s.newID()
	row := invoiceToRow(id, inv, s.now())
	if err := s.appendRow(ctx, s.invoicesSheet, invoiceHeaders, row); err != nil {
		return models.SaveResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().
		Str("invoice_id", id).
		Str("invoice_number", inv.InvoiceNumber).
		Float64("total", inv.Total).
		Msg("Invoice appended to Google Sheet")

	return models.SaveResult{Success: true, ID: id}, nil
}

func (s *SheetsService) appendRow(ctx context.Context, sheetName string, headers, row []any) error {
	if err := s.ensureSheetWithHeaders(ctx, sheetName, headers); err != nil {
		return err
	}

	valueRange := &sheets.ValueRange{Values: [][]any{row}}
	_, err := s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		fmt.Sprintf("%s!A:%s", sheetName, columnLetter(len(headers))),
		valueRange,
	).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append values to sheet %s: %w", sheetName, err)
	}
	return nil
}

// ensureSheetWithHeaders creates the worksheet and its header row when missing.
func (s *SheetsService) ensureSheetWithHeaders(ctx context.Context, sheetName string, headers []any) error {
	const op = "ensureSheetWithHeaders"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var sheetExists bool
	var sheetID int64
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			sheetExists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !sheetExists {
		s.log.Info().Str("sheet", sheetName).Msg("Creating new sheet")

		batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheetName}}},
			},
		}
		resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}
		if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
			sheetID = resp.Replies[0].AddSheet.Properties.SheetId
		}
	}

	headerRange := fmt.Sprintf("%s!A1:%s1", sheetName, columnLetter(len(headers)))
	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	s.log.Info().Str("sheet", sheetName).Msg("Adding headers to sheet")

	_, err = s.sheetsService.Spreadsheets.Values.Update(
		s.spreadsheetID,
		headerRange,
		&sheets.ValueRange{Values: [][]any{headers}},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to add headers: %w", op, err)
	}

	if err := s.formatHeaders(ctx, sheetID, int64(len(headers))); err != nil {
		s.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
	}
	return nil
}

// formatHeaders makes the header row bold and resizes the columns.
func (s *SheetsService) formatHeaders(ctx context.Context, sheetID, columns int64) error {
	const op = "formatHeaders"

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:      &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}

	_, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}
	return nil
}

func clientFromRow(row []any) models.ClientRecord {
	cell := func(i int) string {
		if i >= len(row) || row[i] == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(row[i]))
	}
	return models.ClientRecord{
		ID:      cell(0),
		Name:    cell(1),
		Email:   cell(2),
		Address: cell(3),
		City:    cell(4),
		State:   cell(5),
		ZipCode: cell(6),
		Country: cell(7),
		LogoURL: cell(8),
	}
}

func clientToRow(c models.ClientRecord) []any {
	return []any{
		c.ID,      // A
		c.Name,    // B
		c.Email,   // C
		c.Address, // D
		c.City,    // E
		c.State,   // F
		c.ZipCode, // G
		c.Country, // H
		c.LogoURL, // I
	}
}

func invoiceToRow(id string, inv models.InvoiceSnapshot, savedAt time.Time) []any {
	saved := savedAt.UTC().Format(time.RFC3339)
	return []any{
		id,                 // A
		inv.InvoiceNumber,  // B
		inv.ClientID,       // C
		inv.IssueDate,      // D
		inv.DueDate,        // E
		inv.LineItems,      // F
		inv.Subtotal,       // G
		inv.DiscountAmount, // H
		inv.TaxRate,        // I
		inv.TaxAmount,      // J
		inv.Total,          // K
		inv.Currency,       // L
		inv.Status,         // M
		inv.Notes,          // N
		inv.CustomFooter,   // O
		saved,              // P
	}
}

// columnLetter converts a 1-based column number to its A1 letters.
func columnLetter(n int) string {
	var letters []byte
	for n > 0 {
		n--
		letters = append([]byte{byte('A' + n%26)}, letters...)
		n /= 26
	}
	return string(letters)
}
