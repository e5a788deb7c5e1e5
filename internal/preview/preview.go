// Package preview derives the display-ready invoice from a draft.
//
// Project is a pure, single-pass function of the draft: it is meant to be
// called again after every write to the draft and keeps no state between
// calls.
package preview

import (
	"strings"
	"unicode/utf8"

	"invoicer/internal/format"
	"invoicer/internal/totals"
	"invoicer/pkg/models"
)

// Placeholders and defaults shown when the draft leaves a value empty.
const (
	DefaultCompanyName  = "Your Company"
	DefaultCompanyEmail = "contact@example.com"
	DefaultClientName   = "Client Company"
	DefaultClientEmail  = "client@example.com"
	DefaultLogoInitial  = "C"
	DefaultNumber       = "0001"
	EmptyAddress        = "Address"
	EmptyText           = "-"
	DefaultFooter       = "Generated with invoicer"
)

// Model is the fully derived preview of a draft.
type Model struct {
	Number    string `json:"number"`
	IssueDate string `json:"issueDate"`
	DueDate   string `json:"dueDate"`
	Currency  string `json:"currency"`

	Company Party `json:"company"`
	Client  Party `json:"client"`

	LineItems []Line `json:"lineItems"`
	Note      string `json:"note"`

	Subtotal string `json:"subtotal"`
	Discount Row    `json:"discount"`
	Tax      Row    `json:"tax"`
	Total    string `json:"total"`

	Footer string `json:"footer"`

	Totals totals.Breakdown `json:"totals"`
}

// Party is the display block of the company or the client.
type Party struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Logo    Logo   `json:"logo"`
	Address string `json:"address"` // Lines joined with "\n"
}

// AddressLines splits the address block into its lines.
func (p Party) AddressLines() []string {
	return strings.Split(p.Address, "\n")
}

// Logo is either an image reference or a text initial, never both.
type Logo struct {
	ImageURL string `json:"imageUrl,omitempty"`
	Initial  string `json:"initial,omitempty"`
}

// IsImage reports whether the logo renders as an image.
func (l Logo) IsImage() bool {
	return l.ImageURL != ""
}

// Line is one rendered line item.
type Line struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Amount      string `json:"amount"`
}

// Row is an optional totals row.
type Row struct {
	Visible bool   `json:"visible"`
	Label   string `json:"label,omitempty"`
	Amount  string `json:"amount,omitempty"`
}

// Project derives the preview of d.
func Project(d models.Draft) Model {
	currency := d.Invoice.Currency
	money := func(v float64) string { return format.Currency(v, currency) }
	b := totals.ForDraft(d)

	m := Model{
		Number:    orDefault(d.Invoice.Number, DefaultNumber),
		IssueDate: format.DateShort(d.Invoice.IssueDate),
		DueDate:   format.DateShort(d.Invoice.DueDate),
		Currency:  currency,
		Company: Party{
			Name:    orDefault(d.Company.Name, DefaultCompanyName),
			Email:   orDefault(d.Company.Email, DefaultCompanyEmail),
			Logo:    Logo{Initial: initial(d.Company)},
			Address: Address(d.Company, false),
		},
		Client: Party{
			Name:    orDefault(d.Client.Name, DefaultClientName),
			Email:   orDefault(d.Client.Email, DefaultClientEmail),
			Logo:    clientLogo(d.Client),
			Address: Address(d.Client, true),
		},
		Note:     orDefault(d.Invoice.Note, EmptyText),
		Subtotal: money(b.Subtotal),
		Total:    money(b.Total),
		Footer:   orDefault(d.Invoice.CustomFooter, DefaultFooter),
		Totals:   b,
	}

	m.LineItems = make([]Line, 0, len(d.LineItems))
	for _, item := range d.LineItems {
		m.LineItems = append(m.LineItems, Line{
			Description: orDefault(item.Description, EmptyText),
			Quantity:    format.Number(item.Quantity),
			UnitPrice:   money(item.Price),
			Amount:      money(totals.LineTotal(item)),
		})
	}

	if d.Discount.Type != models.DiscountNone && d.Discount.Type != "" && d.Discount.Value > 0 {
		label := "Discount"
		if d.Discount.Type == models.DiscountPercentage {
			label = "Discount (" + format.Number(d.Discount.Value) + "%)"
		}
		m.Discount = Row{Visible: true, Label: label, Amount: "-" + money(b.Discount)}
	}

	if d.Tax.Enabled && d.Tax.Rate > 0 {
		m.Tax = Row{
			Visible: true,
			Label:   "Tax (" + format.Number(d.Tax.Rate) + "%)",
			Amount:  money(b.Tax),
		}
	}

	return m
}

// Address formats the address block of p: street, "city, state, zip" with
// empty parts dropped, country and, for the client, the tax id. Lines are
// joined with "\n"; a fully empty block yields "Address".
func Address(p models.Party, withTaxID bool) string {
	var lines []string
	if p.Address != "" {
		lines = append(lines, p.Address)
	}

	var locality []string
	for _, part := range []string{p.City, p.State, p.Zip} {
		if part != "" {
			locality = append(locality, part)
		}
	}
	if len(locality) > 0 {
		lines = append(lines, strings.Join(locality, ", "))
	}

	if p.Country != "" {
		lines = append(lines, p.Country)
	}
	if withTaxID && p.TaxID != "" {
		lines = append(lines, "Tax ID: "+p.TaxID)
	}

	if len(lines) == 0 {
		return EmptyAddress
	}
	return strings.Join(lines, "\n")
}

func clientLogo(p models.Party) Logo {
	if p.LogoURL != "" {
		return Logo{ImageURL: p.LogoURL}
	}
	return Logo{Initial: initial(p)}
}

func initial(p models.Party) string {
	if p.Logo != "" {
		return p.Logo
	}
	if r, size := utf8.DecodeRuneInString(p.Name); size > 0 && r != utf8.RuneError {
		return string(r)
	}
	return DefaultLogoInitial
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
