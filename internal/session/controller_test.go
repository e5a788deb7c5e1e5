package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"invoicer/internal/draft"
	"invoicer/internal/localstore"
	"invoicer/internal/preview"
	"invoicer/internal/session"
	"invoicer/internal/workspace"
	"invoicer/pkg/models"
)

type note struct {
	level   session.Level
	message string
}

type recorder struct {
	notes []note
}

func (r *recorder) Notify(level session.Level, message string) {
	r.notes = append(r.notes, note{level, message})
}

func (r *recorder) last() note {
	if len(r.notes) == 0 {
		return note{}
	}
	return r.notes[len(r.notes)-1]
}

type fakeWorkspace struct {
	clients  []models.ClientRecord
	invoices []models.InvoiceSnapshot
	result   *models.SaveResult
	err      error
	block    chan struct{}
	entered  chan struct{}
}

func (f *fakeWorkspace) ListClients(ctx context.Context) ([]models.ClientRecord, error) {
	if f.block != nil {
		close(f.entered)
		<-f.block
	}
	return f.clients, f.err
}

func (f *fakeWorkspace) CreateClient(ctx context.Context, c models.ClientRecord) (models.ClientRecord, error) {
	if f.err != nil {
		return models.ClientRecord{}, f.err
	}
	c.ID = "created-1"
	f.clients = append(f.clients, c)
	return c, nil
}

func (f *fakeWorkspace) CreateInvoice(ctx context.Context, inv models.InvoiceSnapshot) (models.SaveResult, error) {
	if f.err != nil {
		return models.SaveResult{}, f.err
	}
	f.invoices = append(f.invoices, inv)
	if f.result != nil {
		return *f.result, nil
	}
	return models.SaveResult{Success: true, ID: "inv-1"}, nil
}

type fakeExporter struct {
	name  string
	model preview.Model
	err   error
}

func (f *fakeExporter) WriteFile(ctx context.Context, m preview.Model, dir, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.name = name
	f.model = m
	return filepath.Join(dir, name), nil
}

var now = time.Date(2026, 1, 6, 9, 0, 0, 0, time.UTC)

func openLocal(t *testing.T) *localstore.Store {
	t.Helper()
	local, err := localstore.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return local
}

func TestNewDraftRestoresCompanyAndNumber(t *testing.T) {
	local := openLocal(t)
	if err := local.SaveCompany(models.Party{Name: "Studio Ltd", Email: "hi@studio.test"}); err != nil {
		t.Fatal(err)
	}
	if err := local.RecordInvoiceNumber("0041"); err != nil {
		t.Fatal(err)
	}

	d := session.NewDraft(now, local)
	if d.Company.Name != "Studio Ltd" || d.Invoice.Number != "0042" {
		t.Errorf("NewDraft() company=%+v number=%q", d.Company, d.Invoice.Number)
	}
	if d.Invoice.IssueDate != "2026-01-06" || d.Invoice.DueDate != "2026-02-05" {
		t.Errorf("dates = %s, %s", d.Invoice.IssueDate, d.Invoice.DueDate)
	}
}

func TestApplyRefreshesPreview(t *testing.T) {
	c := session.New(session.NewDraft(now, nil))

	if got := c.Preview().Total; got != "$0.00" {
		t.Fatalf("initial total = %q", got)
	}

	for _, a := range []draft.Action{
		draft.UpdateLineItem{Index: 0, Field: draft.FieldDescription, Value: "Design"},
		draft.UpdateLineItem{Index: 0, Field: draft.FieldQuantity, Value: "2"},
		draft.UpdateLineItem{Index: 0, Field: draft.FieldPrice, Value: "50"},
	} {
		if err := c.Apply(a); err != nil {
			t.Fatal(err)
		}
	}

	p := c.Preview()
	if p.Total != "$100.00" || p.LineItems[0].Description != "Design" {
		t.Errorf("preview = %+v", p)
	}
}

func TestCompanyWritesReachLocalStore(t *testing.T) {
	local := openLocal(t)
	c := session.New(session.NewDraft(now, local), session.WithLocalStore(local))

	if err := c.Apply(draft.SetField{Section: draft.SectionCompany, Field: "name", Value: "Studio"}); err != nil {
		t.Fatal(err)
	}
	if got := local.RestoreCompany(models.Party{}).Name; got != "Studio" {
		t.Errorf("stored company name = %q", got)
	}
}

func TestLoadAndSelectClient(t *testing.T) {
	ws := &fakeWorkspace{clients: []models.ClientRecord{
		{ID: "c1", Name: "Acme", ZipCode: "12345", LogoURL: "https://cdn.test/acme.png"},
	}}
	rec := &recorder{}
	c := session.New(session.NewDraft(now, nil), session.WithWorkspace(ws), session.WithNotifier(rec))

	clients, err := c.LoadClients(context.Background())
	if err != nil || len(clients) != 1 {
		t.Fatalf("LoadClients() = %v, %v", clients, err)
	}
	if rec.last().message != "Loaded 1 client(s) from the workspace" {
		t.Errorf("notification = %+v", rec.last())
	}

	if err := c.SelectClient("c1"); err != nil {
		t.Fatal(err)
	}
	d := c.Draft()
	if d.Client.ID != "c1" || d.Client.Zip != "12345" {
		t.Errorf("client = %+v", d.Client)
	}
	if !c.Preview().Client.Logo.IsImage() {
		t.Error("preview should render the client logo as an image")
	}

	if err := c.SelectClient("missing"); !errors.Is(err, session.ErrClientNotFound) {
		t.Errorf("SelectClient(missing) error = %v", err)
	}

	if err := c.SelectClient(""); err != nil {
		t.Fatal(err)
	}
	if d := c.Draft(); d.Client.ID != "" || d.Client.Name != "Acme" {
		t.Errorf("after clearing client = %+v", d.Client)
	}
}

func TestLoadClientsFailureKeepsDraft(t *testing.T) {
	ws := &fakeWorkspace{err: errors.New("network down")}
	rec := &recorder{}
	c := session.New(session.NewDraft(now, nil), session.WithWorkspace(ws), session.WithNotifier(rec))
	before := c.Draft()

	if _, err := c.LoadClients(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if rec.last().level != session.LevelError {
		t.Errorf("notification = %+v", rec.last())
	}
	if after := c.Draft(); after.Invoice != before.Invoice || after.Client != before.Client {
		t.Error("draft changed after a failed load")
	}
}

func TestSaveClient(t *testing.T) {
	ws := &fakeWorkspace{}
	rec := &recorder{}
	c := session.New(session.NewDraft(now, nil), session.WithWorkspace(ws), session.WithNotifier(rec))
	ctx := context.Background()

	if _, err := c.SaveClient(ctx); !errors.Is(err, session.ErrClientNameRequired) {
		t.Fatalf("blank name error = %v", err)
	}
	if rec.last().message != "Please enter a client name first" {
		t.Errorf("notification = %+v", rec.last())
	}

	_ = c.Apply(draft.SetField{Section: draft.SectionClient, Field: "name", Value: "Acme"})
	_ = c.Apply(draft.SetField{Section: draft.SectionClient, Field: "zip", Value: "12345"})
	_ = c.Apply(draft.SetField{Section: draft.SectionClient, Field: "taxId", Value: "DE123"})

	created, err := c.SaveClient(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if created.ID != "created-1" || created.ZipCode != "12345" {
		t.Errorf("created = %+v", created)
	}

	d := c.Draft()
	if d.Client.ID != "created-1" || d.Client.TaxID != "DE123" {
		t.Errorf("client after save = %+v", d.Client)
	}
	if len(c.Clients()) != 1 {
		t.Errorf("client list not reloaded: %v", c.Clients())
	}
	if !strings.Contains(rec.last().message, `"Acme" saved`) {
		t.Errorf("notification = %+v", rec.last())
	}
}

func TestSaveInvoice(t *testing.T) {
	ws := &fakeWorkspace{}
	rec := &recorder{}
	d := session.NewDraft(now, nil)
	d.Invoice.Number = "0007"
	d.Client.ID = "c1"
	d.LineItems = []models.LineItem{{Description: "Design", Quantity: 2, Price: 50}}
	c := session.New(d, session.WithWorkspace(ws), session.WithNotifier(rec))

	res, err := c.SaveInvoice(context.Background())
	if err != nil || res.ID != "inv-1" {
		t.Fatalf("SaveInvoice() = %+v, %v", res, err)
	}
	if len(ws.invoices) != 1 {
		t.Fatalf("invoices = %d", len(ws.invoices))
	}
	snap := ws.invoices[0]
	if snap.InvoiceNumber != "0007" || snap.ClientID != "c1" || snap.Total != 100 || snap.Status != models.InvoiceStatusDraft {
		t.Errorf("snapshot = %+v", snap)
	}
	if rec.last().message != "Invoice 0007 saved to the workspace!" {
		t.Errorf("notification = %+v", rec.last())
	}
}

func TestSaveInvoiceRejected(t *testing.T) {
	ws := &fakeWorkspace{result: &models.SaveResult{Success: false}}
	rec := &recorder{}
	c := session.New(session.NewDraft(now, nil), session.WithWorkspace(ws), session.WithNotifier(rec))

	_, err := c.SaveInvoice(context.Background())
	if !errors.Is(err, workspace.ErrSaveRejected) {
		t.Fatalf("error = %v, want ErrSaveRejected", err)
	}
	if rec.last() != (note{session.LevelError, "Error: failed to save invoice"}) {
		t.Errorf("notification = %+v", rec.last())
	}
}

func TestSaveInvoiceShowsRemoteMessage(t *testing.T) {
	ws := &fakeWorkspace{err: &workspace.RequestError{Op: "CreateInvoice", StatusCode: 400, Message: "Status is not a property"}}
	rec := &recorder{}
	c := session.New(session.NewDraft(now, nil), session.WithWorkspace(ws), session.WithNotifier(rec))

	if _, err := c.SaveInvoice(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if rec.last().message != "Error: Status is not a property" {
		t.Errorf("notification = %+v", rec.last())
	}
}

func TestWorkspaceOperationsWithoutWorkspace(t *testing.T) {
	c := session.New(session.NewDraft(now, nil), session.WithNotifier(&recorder{}))
	if _, err := c.LoadClients(context.Background()); !errors.Is(err, session.ErrNoWorkspace) {
		t.Errorf("LoadClients error = %v", err)
	}
	if _, err := c.SaveInvoice(context.Background()); !errors.Is(err, session.ErrNoWorkspace) {
		t.Errorf("SaveInvoice error = %v", err)
	}
	if _, err := c.ExportPDF(context.Background()); !errors.Is(err, session.ErrNoExporter) {
		t.Errorf("ExportPDF error = %v", err)
	}
}

func TestExportPDFRecordsInvoiceNumber(t *testing.T) {
	local := openLocal(t)
	exp := &fakeExporter{}
	d := session.NewDraft(now, local)
	d.Client.Name = "Acme  Corp"
	c := session.New(d, session.WithLocalStore(local), session.WithExporter(exp, "out"), session.WithNotifier(&recorder{}))

	path, err := c.ExportPDF(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join("out", "Invoice_0001_Acme_Corp.pdf") {
		t.Errorf("path = %q", path)
	}
	if exp.model.Number != "0001" {
		t.Errorf("exported model number = %q", exp.model.Number)
	}
	if got := local.NextInvoiceNumber(); got != "0002" {
		t.Errorf("NextInvoiceNumber() = %q, want 0002", got)
	}
}

func TestExportPDFFailureDoesNotRecordNumber(t *testing.T) {
	local := openLocal(t)
	rec := &recorder{}
	c := session.New(session.NewDraft(now, local),
		session.WithLocalStore(local),
		session.WithExporter(&fakeExporter{err: errors.New("disk full")}, "out"),
		session.WithNotifier(rec))

	if _, err := c.ExportPDF(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if rec.last() != (note{session.LevelError, "Error generating PDF. Please try again."}) {
		t.Errorf("notification = %+v", rec.last())
	}
	if got := local.NextInvoiceNumber(); got != "0001" {
		t.Errorf("NextInvoiceNumber() = %q, want 0001", got)
	}
}

func TestOverlappingOperationsAreRejected(t *testing.T) {
	ws := &fakeWorkspace{block: make(chan struct{}), entered: make(chan struct{})}
	c := session.New(session.NewDraft(now, nil), session.WithWorkspace(ws), session.WithNotifier(&recorder{}))

	done := make(chan error, 1)
	go func() {
		_, err := c.LoadClients(context.Background())
		done <- err
	}()
	<-ws.entered

	if _, err := c.SaveInvoice(context.Background()); !errors.Is(err, session.ErrBusy) {
		t.Errorf("SaveInvoice during LoadClients error = %v, want ErrBusy", err)
	}

	close(ws.block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if _, err := c.SaveInvoice(context.Background()); err != nil {
		t.Errorf("SaveInvoice after LoadClients error = %v", err)
	}
}
