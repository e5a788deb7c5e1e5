package models

// DiscountType selects how Discount.Value is interpreted.
type DiscountType string

const (
	DiscountNone       DiscountType = "none"
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// DefaultCurrency is the currency a fresh draft starts with.
const DefaultCurrency = "USD"

// LineItem is one billable row of the invoice.
type LineItem struct {
	Description string  `json:"description"` // Free text
	Quantity    float64 `json:"quantity"`    // Units billed
	Price       float64 `json:"price"`       // Unit price in the invoice currency
}

// Discount applied to the subtotal before tax.
type Discount struct {
	Type  DiscountType `json:"type"`  // none, percentage or fixed
	Value float64      `json:"value"` // Percent for percentage, amount for fixed
}

// Tax applied to the discounted subtotal.
type Tax struct {
	Enabled bool    `json:"enabled"`
	Rate    float64 `json:"rate"` // Percent, 8 means 8%
}

// Party is the identity and address block of the company or the client.
// ID and LogoURL are only populated for the client.
type Party struct {
	ID      string `json:"id,omitempty"` // Workspace record id of a saved client
	Name    string `json:"name"`
	Email   string `json:"email"`
	Logo    string `json:"logo"`              // Initial letter typed by the user
	LogoURL string `json:"logoUrl,omitempty"` // Resolved image URL, wins over Logo
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	TaxID   string `json:"taxId"`
}

// InvoiceMeta holds the invoice header fields.
type InvoiceMeta struct {
	Number       string `json:"number"`
	IssueDate    string `json:"issueDate"` // YYYY-MM-DD
	DueDate      string `json:"dueDate"`   // YYYY-MM-DD
	Currency     string `json:"currency"`  // Label only, never converted
	Note         string `json:"note"`
	CustomFooter string `json:"customFooter"`
}

// Draft is the complete in-progress invoice of one session.
type Draft struct {
	Company   Party       `json:"company"`
	Client    Party       `json:"client"`
	Invoice   InvoiceMeta `json:"invoice"`
	LineItems []LineItem  `json:"lineItems"`
	Discount  Discount    `json:"discount"`
	Tax       Tax         `json:"tax"`
}

// Clone returns a copy that shares no line item storage with d.
func (d Draft) Clone() Draft {
	out := d
	out.LineItems = append([]LineItem(nil), d.LineItems...)
	return out
}
