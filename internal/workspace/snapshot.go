package workspace

import (
	"strings"

	"invoicer/internal/format"
	"invoicer/internal/totals"
	"invoicer/pkg/models"
)

// DefaultInvoiceNumber is sent when the draft has no invoice number.
const DefaultInvoiceNumber = "INV-0001"

// BuildSnapshot flattens a draft into the record saved by CreateInvoice.
func BuildSnapshot(d models.Draft) models.InvoiceSnapshot {
	b := totals.ForDraft(d)

	number := d.Invoice.Number
	if number == "" {
		number = DefaultInvoiceNumber
	}

	var taxRate float64
	if d.Tax.Enabled {
		taxRate = d.Tax.Rate
	}

	return models.InvoiceSnapshot{
		InvoiceNumber:  number,
		ClientID:       d.Client.ID,
		IssueDate:      d.Invoice.IssueDate,
		DueDate:        d.Invoice.DueDate,
		LineItems:      LineItemsText(d.LineItems, d.Invoice.Currency),
		Subtotal:       b.Subtotal,
		DiscountAmount: b.Discount,
		TaxRate:        taxRate,
		TaxAmount:      b.Tax,
		Total:          b.Total,
		Currency:       d.Invoice.Currency,
		Status:         models.InvoiceStatusDraft,
		Notes:          d.Invoice.Note,
		CustomFooter:   d.Invoice.CustomFooter,
	}
}

// LineItemsText renders items with a description as
// "description (qty x unit-price)", one per line.
func LineItemsText(items []models.LineItem, currency string) string {
	var lines []string
	for _, item := range items {
		if item.Description == "" {
			continue
		}
		lines = append(lines, item.Description+" ("+format.Number(item.Quantity)+" x "+format.Currency(item.Price, currency)+")")
	}
	return strings.Join(lines, "\n")
}
