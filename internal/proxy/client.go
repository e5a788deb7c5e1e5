package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"invoicer/internal/imagerelay"
	"invoicer/internal/logger"
	"invoicer/internal/workspace"
	"invoicer/pkg/models"
)

// Client talks to a workspace relay. It implements workspace.Service and
// relays images through the proxyImage action.
type Client struct {
	endpoint string
	http     *http.Client
	log      zerolog.Logger
}

// NewClient returns a Client for the relay endpoint at endpoint (the full URL
// of the route, without query). A nil httpClient gets a 30s timeout client.
func NewClient(endpoint string, httpClient *http.Client) (*Client, error) {
	const op = "NewClient"

	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%s: INVOICER_API_URL %q is not an http(s) URL: %w", op, endpoint, workspace.ErrInvalidConfiguration)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		endpoint: u.String(),
		http:     httpClient,
		log:      logger.WithComponent("proxy-client"),
	}, nil
}

// ListClients calls getClients.
func (c *Client) ListClients(ctx context.Context) ([]models.ClientRecord, error) {
	var resp ClientsResponse
	if err := c.call(ctx, "ListClients", http.MethodGet, url.Values{"action": {ActionGetClients}}, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Clients, nil
}

// CreateClient calls createClient.
func (c *Client) CreateClient(ctx context.Context, client models.ClientRecord) (models.ClientRecord, error) {
	var resp CreateClientResponse
	if err := c.call(ctx, "CreateClient", http.MethodPost, url.Values{"action": {ActionCreateClient}}, client, &resp); err != nil {
		return models.ClientRecord{}, err
	}
	return resp.Client, nil
}

// CreateInvoice calls saveInvoice.
func (c *Client) CreateInvoice(ctx context.Context, invoice models.InvoiceSnapshot) (models.SaveResult, error) {
	var resp models.SaveResult
	if err := c.call(ctx, "CreateInvoice", http.MethodPost, url.Values{"action": {ActionSaveInvoice}}, invoice, &resp); err != nil {
		return models.SaveResult{}, err
	}
	return resp, nil
}

// FetchImage calls proxyImage.
func (c *Client) FetchImage(ctx context.Context, imageURL string) (imagerelay.Image, error) {
	var img imagerelay.Image
	query := url.Values{"action": {ActionProxyImage}, "url": {imageURL}}
	if err := c.call(ctx, "FetchImage", http.MethodGet, query, nil, &img); err != nil {
		return imagerelay.Image{}, err
	}
	return img, nil
}

// FetchDataURI relays imageURL and returns it as a data URI.
func (c *Client) FetchDataURI(ctx context.Context, imageURL string) (string, error) {
	img, err := c.FetchImage(ctx, imageURL)
	if err != nil {
		return "", err
	}
	return img.DataURL(), nil
}

func (c *Client) call(ctx context.Context, op, method string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+"?"+query.Encode(), reader)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.Warn().Err(closeErr).Msg("Failed to close relay response body")
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	c.log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Str("request_id", resp.Header.Get(RequestIDHeader)).
		Msg("Relay request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr ErrorResponse
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &workspace.RequestError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}
