package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
	"invoicer/internal/logger"
	"invoicer/pkg/models"
)

const (
	// DefaultNotionBaseURL is the Notion API host; the client adds the /v1 prefix.
	DefaultNotionBaseURL = "https://api.notion.com"

	// DefaultNotionVersion is the Notion-Version header sent with every request.
	DefaultNotionVersion = "2022-06-28"

	// notionTextLimit is the longest content Notion accepts in one rich text object.
	notionTextLimit = 2000
)

// NotionConfig holds the settings of the Notion backend.
type NotionConfig struct {
	// APIKey is the integration token.
	APIKey string

	// ClientsDatabaseID is the database holding one page per client.
	ClientsDatabaseID string

	// InvoicesDatabaseID is the database holding one page per invoice.
	InvoicesDatabaseID string

	// Version is the Notion-Version header. Default: 2022-06-28.
	Version string

	// BaseURL overrides the API host. Default: https://api.notion.com.
	BaseURL string

	// Timeout bounds every request. Default: 30 seconds.
	Timeout time.Duration
}

// NotionService stores clients and invoices in Notion databases.
type NotionService struct {
	cfg    NotionConfig
	client *notionapi.Client
	log    zerolog.Logger
}

// NewNotionService validates cfg and returns a Notion backed Service. A nil
// httpClient gets a client with cfg.Timeout.
func NewNotionService(cfg NotionConfig, httpClient *http.Client) (*NotionService, error) {
	const op = "NewNotionService"

	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s: NOTION_API_KEY is required: %w", op, ErrMissingCredentials)
	}
	if cfg.ClientsDatabaseID == "" || cfg.InvoicesDatabaseID == "" {
		return nil, fmt.Errorf("%s: NOTION_CLIENTS_DB and NOTION_INVOICES_DB are required: %w", op, ErrInvalidConfiguration)
	}
	if cfg.Version == "" {
		cfg.Version = DefaultNotionVersion
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNotionBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%s: invalid base URL %q: %w", op, cfg.BaseURL, ErrInvalidConfiguration)
	}

	hc := *httpClient
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc.Transport = &notionTransport{base: base, next: next}

	return &NotionService{
		cfg: cfg,
		client: notionapi.NewClient(
			notionapi.Token(cfg.APIKey),
			notionapi.WithHTTPClient(&hc),
			notionapi.WithVersion(cfg.Version),
		),
		log: logger.WithComponent("workspace-notion"),
	}, nil
}

// ListClients queries the clients database sorted by Name, following every page.
func (s *NotionService) ListClients(ctx context.Context) ([]models.ClientRecord, error) {
	const op = "ListClients"

	var clients []models.ClientRecord
	req := &notionapi.DatabaseQueryRequest{
		Sorts: []notionapi.SortObject{{Property: "Name", Direction: notionapi.SortOrderASC}},
	}
	for {
		start := time.Now()
		resp, err := s.client.Database.Query(ctx, notionapi.DatabaseID(s.cfg.ClientsDatabaseID), req)
		if err != nil {
			return nil, s.requestError(op, err)
		}
		s.log.Debug().
			Int("results", len(resp.Results)).
			Bool("has_more", resp.HasMore).
			Dur("duration", time.Since(start)).
			Msg("Queried Notion clients")

		for _, page := range resp.Results {
			clients = append(clients, clientFromPage(page))
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		req.StartCursor = resp.NextCursor
	}

	s.log.Info().Int("clients", len(clients)).Msg("Loaded clients from Notion")
	return clients, nil
}

func clientFromPage(page notionapi.Page) models.ClientRecord {
	p := page.Properties
	record := models.ClientRecord{
		ID:      page.ID.String(),
		Name:    titleText(p["Name"]),
		Address: richText(p["Address"]),
		City:    richText(p["City"]),
		State:   richText(p["State"]),
		ZipCode: richText(p["Zip Code"]),
		Country: richText(p["Country"]),
	}
	if email, ok := p["Email"].(*notionapi.EmailProperty); ok {
		record.Email = email.Email
	}
	if files, ok := p["Logo"].(*notionapi.FilesProperty); ok && len(files.Files) > 0 {
		switch f := files.Files[0]; {
		case f.File != nil && f.File.URL != "":
			record.LogoURL = f.File.URL
		case f.External != nil:
			record.LogoURL = f.External.URL
		}
	}
	return record
}

func titleText(p notionapi.Property) string {
	if t, ok := p.(*notionapi.TitleProperty); ok && len(t.Title) > 0 {
		return t.Title[0].PlainText
	}
	return ""
}

func richText(p notionapi.Property) string {
	if t, ok := p.(*notionapi.RichTextProperty); ok && len(t.RichText) > 0 {
		return t.RichText[0].PlainText
	}
	return ""
}

// CreateClient adds a page to the clients database.
func (s *NotionService) CreateClient(ctx context.Context, client models.ClientRecord) (models.ClientRecord, error) {
	const op = "CreateClient"

	props := notionapi.Properties{
		"Name":     notionapi.TitleProperty{Title: textChunks(client.Name)},
		"Address":  notionapi.RichTextProperty{RichText: textChunks(client.Address)},
		"City":     notionapi.RichTextProperty{RichText: textChunks(client.City)},
		"State":    notionapi.RichTextProperty{RichText: textChunks(client.State)},
		"Zip Code": notionapi.RichTextProperty{RichText: textChunks(client.ZipCode)},
		"Country":  notionapi.RichTextProperty{RichText: textChunks(client.Country)},
	}
	// Notion rejects an empty string in an email property.
	if client.Email != "" {
		props["Email"] = notionapi.EmailProperty{Email: client.Email}
	}

	page, err := s.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent:     notionapi.Parent{DatabaseID: notionapi.DatabaseID(s.cfg.ClientsDatabaseID)},
		Properties: props,
	})
	if err != nil {
		return models.ClientRecord{}, s.requestError(op, err)
	}

	client.ID = page.ID.String()
	s.log.Info().Str("client_id", client.ID).Str("name", client.Name).Msg("Client created in Notion")
	return client, nil
}

// CreateInvoice adds a page to the invoices database. Optional properties are
// only sent when they have a value.
func (s *NotionService) CreateInvoice(ctx context.Context, inv models.InvoiceSnapshot) (models.SaveResult, error) {
	const op = "CreateInvoice"

	props := notionapi.Properties{
		"Invoice Number": notionapi.TitleProperty{Title: textChunks(inv.InvoiceNumber)},
		"Subtotal":       notionapi.NumberProperty{Number: inv.Subtotal},
		"Tax Rate":       notionapi.NumberProperty{Number: inv.TaxRate},
		"Tax Amount":     notionapi.NumberProperty{Number: inv.TaxAmount},
		"Total":          notionapi.NumberProperty{Number: inv.Total},
	}
	if inv.IssueDate != "" {
		props["Issue Date"] = dayProperty{Date: dayObject{Start: inv.IssueDate}}
	}
	if inv.DueDate != "" {
		props["Due Date"] = dayProperty{Date: dayObject{Start: inv.DueDate}}
	}
	if inv.LineItems != "" {
		props["Line Items"] = notionapi.RichTextProperty{RichText: textChunks(inv.LineItems)}
	}
	if inv.Notes != "" {
		props["Notes"] = notionapi.RichTextProperty{RichText: textChunks(inv.Notes)}
	}
	if inv.CustomFooter != "" {
		props["Custom Footer"] = notionapi.RichTextProperty{RichText: textChunks(inv.CustomFooter)}
	}
	if inv.Currency != "" {
		props["Currency"] = notionapi.SelectProperty{Select: notionapi.Option{Name: inv.Currency}}
	}
	if inv.Status != "" {
		props["Status"] = notionapi.SelectProperty{Select: notionapi.Option{Name: inv.Status}}
	}
	if inv.ClientID != "" {
		props["Client"] = notionapi.RelationProperty{Relation: []notionapi.Relation{{ID: notionapi.PageID(inv.ClientID)}}}
	}

	page, err := s.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent:     notionapi.Parent{DatabaseID: notionapi.DatabaseID(s.cfg.InvoicesDatabaseID)},
		Properties: props,
	})
	if err != nil {
		return models.SaveResult{}, s.requestError(op, err)
	}

	s.log.Info().
		Str("invoice_id", page.ID.String()).
		Str("invoice_number", inv.InvoiceNumber).
		Float64("total", inv.Total).
		Msg("Invoice saved to Notion")

	return models.SaveResult{Success: true, ID: page.ID.String()}, nil
}

// dayProperty is a date property holding a calendar day. notionapi.Date always
// carries a time of day, which Notion would then display.
type dayProperty struct {
	Date dayObject `json:"date"`
}

type dayObject struct {
	Start string `json:"start"`
}

func (dayProperty) GetID() string {
	return ""
}

func (dayProperty) GetType() notionapi.PropertyType {
	return notionapi.PropertyTypeDate
}

// textChunks splits content into rich text objects that respect Notion's
// per-object length limit.
func textChunks(content string) []notionapi.RichText {
	runes := []rune(content)
	if len(runes) <= notionTextLimit {
		return []notionapi.RichText{{Text: &notionapi.Text{Content: content}}}
	}

	var chunks []notionapi.RichText
	for start := 0; start < len(runes); start += notionTextLimit {
		end := min(start+notionTextLimit, len(runes))
		chunks = append(chunks, notionapi.RichText{Text: &notionapi.Text{Content: string(runes[start:end])}})
	}
	return chunks
}

// requestError maps a notionapi failure onto RequestError.
func (s *NotionService) requestError(op string, err error) error {
	var apiErr *notionapi.Error
	var rateErr *notionapi.RateLimitedError
	switch {
	case errors.As(err, &apiErr):
		message := apiErr.Message
		if message == "" {
			message = "Notion returned an error"
		}
		err = &RequestError{Op: op, StatusCode: apiErr.Status, Code: string(apiErr.Code), Message: message}
	case errors.As(err, &rateErr):
		err = &RequestError{Op: op, StatusCode: http.StatusTooManyRequests, Code: "rate_limited", Message: rateErr.Message}
	default:
		err = fmt.Errorf("%s: request failed: %w", op, err)
	}

	s.log.Error().Err(err).Str("op", op).Msg("Notion request failed")
	return err
}

// notionTransport points requests at the configured host and normalises error
// replies so notionapi decodes every failure as a *notionapi.Error: an
// "object": "error" body sent with 200 becomes a failure, and a failure
// without an error body (a gateway page, an empty reply) gets one.
type notionTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t *notionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = t.base.Scheme
	req.URL.Host = t.base.Host
	req.URL.Path = strings.TrimRight(t.base.Path, "/") + req.URL.Path
	req.Host = ""

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return resp, nil
	}

	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}

	var apiErr notionapi.Error
	isError := json.Unmarshal(data, &apiErr) == nil && apiErr.Object == notionapi.ObjectTypeError

	switch {
	case isError && resp.StatusCode == http.StatusOK:
		if apiErr.Status < 400 {
			apiErr.Status = http.StatusBadRequest
		}
		resp.StatusCode = apiErr.Status
		data, _ = json.Marshal(apiErr)
	case isError && apiErr.Status == 0:
		apiErr.Status = resp.StatusCode
		data, _ = json.Marshal(apiErr)
	case !isError && resp.StatusCode != http.StatusOK:
		data, _ = json.Marshal(notionapi.Error{
			Object:  notionapi.ObjectTypeError,
			Status:  resp.StatusCode,
			Message: http.StatusText(resp.StatusCode),
		})
	}

	resp.Status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	resp.Body = io.NopCloser(bytes.NewReader(data))
	resp.ContentLength = int64(len(data))
	resp.Header.Del("Content-Length")
	return resp, nil
}
