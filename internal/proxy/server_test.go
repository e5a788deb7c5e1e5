package proxy_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"invoicer/internal/imagerelay"
	"invoicer/internal/proxy"
	"invoicer/internal/workspace"
	"invoicer/pkg/models"
)

type fakeService struct {
	clients  []models.ClientRecord
	created  models.ClientRecord
	invoices []models.InvoiceSnapshot
	err      error
}

func (f *fakeService) ListClients(ctx context.Context) ([]models.ClientRecord, error) {
	return f.clients, f.err
}

func (f *fakeService) CreateClient(ctx context.Context, c models.ClientRecord) (models.ClientRecord, error) {
	if f.err != nil {
		return models.ClientRecord{}, f.err
	}
	c.ID = "new-id"
	f.created = c
	return c, nil
}

func (f *fakeService) CreateInvoice(ctx context.Context, inv models.InvoiceSnapshot) (models.SaveResult, error) {
	if f.err != nil {
		return models.SaveResult{}, f.err
	}
	f.invoices = append(f.invoices, inv)
	return models.SaveResult{Success: true, ID: "inv-1"}, nil
}

type fakeImages struct {
	urls []string
}

func (f *fakeImages) Fetch(ctx context.Context, url string) (imagerelay.Image, error) {
	f.urls = append(f.urls, url)
	return imagerelay.Image{Base64: "AAAA", ContentType: "image/png"}, nil
}

func newRelay(t *testing.T, svc *fakeService, images *fakeImages) (*httptest.Server, *proxy.Client) {
	t.Helper()
	srv := httptest.NewServer(proxy.NewServer(svc, images).Handler())
	t.Cleanup(srv.Close)

	client, err := proxy.NewClient(srv.URL+proxy.DefaultPath, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	return srv, client
}

func TestClientRoundTrip(t *testing.T) {
	svc := &fakeService{clients: []models.ClientRecord{{ID: "c1", Name: "Acme"}}}
	images := &fakeImages{}
	_, client := newRelay(t, svc, images)
	ctx := context.Background()

	clients, err := client.ListClients(ctx)
	if err != nil || len(clients) != 1 || clients[0].Name != "Acme" {
		t.Fatalf("ListClients() = %v, %v", clients, err)
	}

	created, err := client.CreateClient(ctx, models.ClientRecord{Name: "Beta", ZipCode: "12345"})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID != "new-id" || created.ZipCode != "12345" || svc.created.Name != "Beta" {
		t.Errorf("CreateClient() = %+v, service saw %+v", created, svc.created)
	}

	res, err := client.CreateInvoice(ctx, models.InvoiceSnapshot{InvoiceNumber: "0003", Total: 42})
	if err != nil || !res.Success || res.ID != "inv-1" {
		t.Fatalf("CreateInvoice() = %+v, %v", res, err)
	}
	if len(svc.invoices) != 1 || svc.invoices[0].Total != 42 {
		t.Errorf("service saw %+v", svc.invoices)
	}

	uri, err := client.FetchDataURI(ctx, "https://cdn.test/logo.png?v=1")
	if err != nil || uri != "data:image/png;base64,AAAA" {
		t.Fatalf("FetchDataURI() = %q, %v", uri, err)
	}
	if len(images.urls) != 1 || images.urls[0] != "https://cdn.test/logo.png?v=1" {
		t.Errorf("relay fetched %v", images.urls)
	}
}

func TestClientSurfacesRelayError(t *testing.T) {
	svc := &fakeService{err: &workspace.RequestError{Op: "ListClients", StatusCode: 401, Message: "API token is invalid."}}
	_, client := newRelay(t, svc, &fakeImages{})

	_, err := client.ListClients(context.Background())
	var reqErr *workspace.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want RequestError", err)
	}
	if reqErr.StatusCode != http.StatusInternalServerError || reqErr.Message != "API token is invalid." {
		t.Errorf("RequestError = %+v", reqErr)
	}
	if !errors.Is(err, workspace.ErrRemote) {
		t.Error("error does not match ErrRemote")
	}
}

func TestServerBadRequests(t *testing.T) {
	srv, _ := newRelay(t, &fakeService{}, &fakeImages{})

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"unknown action", "?action=deleteEverything", "Invalid action. Use: getClients, createClient, saveInvoice, or proxyImage"},
		{"no action", "", "Invalid action. Use: getClients, createClient, saveInvoice, or proxyImage"},
		{"image without url", "?action=proxyImage", "Missing url parameter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + proxy.DefaultPath + tt.query)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			var body proxy.ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Error != tt.want {
				t.Errorf("error = %q, want %q", body.Error, tt.want)
			}
		})
	}
}

func TestServerRejectsInvalidBody(t *testing.T) {
	srv, _ := newRelay(t, &fakeService{}, &fakeImages{})

	resp, err := http.Post(srv.URL+proxy.DefaultPath+"?action=saveInvoice", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestServerCORSAndOptions(t *testing.T) {
	srv, _ := newRelay(t, &fakeService{}, &fakeImages{})

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+proxy.DefaultPath, nil)
	req.Header.Set("Origin", "https://invoices.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req, _ = http.NewRequest(http.MethodOptions, srv.URL+proxy.DefaultPath, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("plain OPTIONS status = %d", resp.StatusCode)
	}
}

func TestServerSetsRequestID(t *testing.T) {
	srv, _ := newRelay(t, &fakeService{}, &fakeImages{})

	resp, err := http.Get(srv.URL + proxy.DefaultPath + "?action=getClients")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.Header.Get(proxy.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
	var body proxy.ClientsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Clients == nil {
		t.Error("clients should encode as an empty list, not null")
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := proxy.NewClient("not a url", nil); !errors.Is(err, workspace.ErrInvalidConfiguration) {
		t.Errorf("error = %v", err)
	}
}
