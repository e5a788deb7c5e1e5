package workspace

import (
	"errors"
	"testing"
	"time"

	"invoicer/pkg/models"
)

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := ExtractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-d_9/edit#gid=0")
	if err != nil || id != "1AbC-d_9" {
		t.Errorf("ExtractSpreadsheetID() = %q, %v", id, err)
	}

	if _, err := ExtractSpreadsheetID("https://example.com/sheet"); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestColumnLetter(t *testing.T) {
	tests := map[int]string{1: "A", 9: "I", 16: "P", 26: "Z", 27: "AA", 52: "AZ", 53: "BA"}
	for n, want := range tests {
		if got := columnLetter(n); got != want {
			t.Errorf("columnLetter(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestClientRowRoundTrip(t *testing.T) {
	c := models.ClientRecord{
		ID:      "id-1",
		Name:    "Acme",
		Email:   "a@acme.test",
		Address: "1 Main St",
		City:    "Springfield",
		State:   "IL",
		ZipCode: "62701",
		Country: "USA",
		LogoURL: "https://cdn.test/a.png",
	}
	row := clientToRow(c)
	if len(row) != len(clientHeaders) {
		t.Fatalf("row has %d cells, headers have %d", len(row), len(clientHeaders))
	}
	if got := clientFromRow(row); got != c {
		t.Errorf("clientFromRow() = %+v, want %+v", got, c)
	}
}

func TestClientFromShortRow(t *testing.T) {
	got := clientFromRow([]any{"id-2", " Beta "})
	if got.ID != "id-2" || got.Name != "Beta" || got.Email != "" || got.LogoURL != "" {
		t.Errorf("clientFromRow() = %+v", got)
	}
}

func TestInvoiceToRow(t *testing.T) {
	savedAt := time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC)
	row := invoiceToRow("inv-1", models.InvoiceSnapshot{InvoiceNumber: "0001", Total: 99.5}, savedAt)

	if len(row) != len(invoiceHeaders) {
		t.Fatalf("row has %d cells, headers have %d", len(row), len(invoiceHeaders))
	}
	if row[0] != "inv-1" || row[1] != "0001" || row[10] != 99.5 {
		t.Errorf("row = %v", row)
	}
	if row[15] != "2026-01-06T12:00:00Z" {
		t.Errorf("saved at = %v", row[15])
	}
}
