package models

// ClientRecord is a client as stored in the workspace database.
type ClientRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// InvoiceStatusDraft is the status every saved invoice starts with.
const InvoiceStatusDraft = "Draft"

// InvoiceSnapshot is the flattened invoice sent to the workspace database.
type InvoiceSnapshot struct {
	InvoiceNumber  string  `json:"invoiceNumber"`
	ClientID       string  `json:"clientId,omitempty"`
	IssueDate      string  `json:"issueDate,omitempty"`
	DueDate        string  `json:"dueDate,omitempty"`
	LineItems      string  `json:"lineItems,omitempty"` // "description (qty x price)" per line
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discountAmount"`
	TaxRate        float64 `json:"taxRate"`
	TaxAmount      float64 `json:"taxAmount"`
	Total          float64 `json:"total"`
	Currency       string  `json:"currency,omitempty"`
	Status         string  `json:"status,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	CustomFooter   string  `json:"customFooter,omitempty"`
}

// SaveResult is returned by the workspace after creating an invoice.
type SaveResult struct {
	Success bool   `json:"success"`
	ID      string `json:"invoiceId"`
}
