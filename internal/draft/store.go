// Package draft owns the mutable invoice draft of one session.
//
// A Store is the only writer of its Draft. Every mutation goes through one of
// the named operations below (or through Apply, which dispatches an Action to
// them), and every successful write is followed by a call to each registered
// listener with a copy of the new draft. A Store is meant to be driven by a
// single goroutine and does no locking.
//
// Invariants kept by the Store:
//   - the draft always holds at least one line item;
//   - quantity and price are always numbers (unparsable input becomes 0);
//   - only writes to the company section reach the CompanySaver.
package draft

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"invoicer/internal/format"
	"invoicer/internal/logger"
	"invoicer/pkg/models"
)

// DefaultDueDays is the distance between the default issue and due dates.
const DefaultDueDays = 30

// Section names a group of free-text fields of the draft.
type Section string

const (
	SectionCompany Section = "company"
	SectionClient  Section = "client"
	SectionInvoice Section = "invoice"
)

// Line item fields accepted by UpdateLineItem.
const (
	FieldDescription = "description"
	FieldQuantity    = "quantity"
	FieldPrice       = "price"
)

// CompanySaver durably stores the company party. It is called after every
// write to the company section.
type CompanySaver interface {
	SaveCompany(company models.Party) error
}

// Listener is called with a copy of the draft after every write.
type Listener func(d models.Draft)

// Option configures a Store.
type Option func(*Store)

// WithCompanySaver sets the collaborator that persists company fields.
func WithCompanySaver(saver CompanySaver) Option {
	return func(s *Store) {
		s.saver = saver
	}
}

// WithListener registers a listener at construction time.
func WithListener(l Listener) Option {
	return func(s *Store) {
		s.listeners = append(s.listeners, l)
	}
}

// Store holds the draft of one session.
type Store struct {
	draft     models.Draft
	saver     CompanySaver
	listeners []Listener
	log       zerolog.Logger
}

// Defaults returns the draft a session starts with: blank parties, one blank
// line item, USD, today as issue date and today + 30 days as due date.
func Defaults(now time.Time) models.Draft {
	return models.Draft{
		Invoice: models.InvoiceMeta{
			IssueDate: now.Format(format.DateLayout),
			DueDate:   now.AddDate(0, 0, DefaultDueDays).Format(format.DateLayout),
			Currency:  models.DefaultCurrency,
		},
		LineItems: []models.LineItem{NewLineItem()},
		Discount:  models.Discount{Type: models.DiscountNone},
	}
}

// NewLineItem returns the blank item appended by AddLineItem.
func NewLineItem() models.LineItem {
	return models.LineItem{Description: "", Quantity: 1, Price: 0}
}

// New returns a Store holding d. A draft with no line items gets one blank
// item; missing discount type and currency get their defaults.
func New(d models.Draft, opts ...Option) *Store {
	d = d.Clone()
	if len(d.LineItems) == 0 {
		d.LineItems = []models.LineItem{NewLineItem()}
	}
	if d.Discount.Type == "" {
		d.Discount.Type = models.DiscountNone
	}
	if d.Invoice.Currency == "" {
		d.Invoice.Currency = models.DefaultCurrency
	}

	s := &Store{
		draft: d,
		log:   logger.WithComponent("draft"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Draft returns a copy of the current draft.
func (s *Store) Draft() models.Draft {
	return s.draft.Clone()
}

// Subscribe registers l to be called after every write.
func (s *Store) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// SetField assigns value to section.field. Writes to the company section are
// passed on to the CompanySaver; a saver failure is logged and does not undo
// the write.
func (s *Store) SetField(section Section, field, value string) error {
	target, err := s.fieldRef(section, field)
	if err != nil {
		return err
	}
	*target = value

	if section == SectionCompany && s.saver != nil {
		if err := s.saver.SaveCompany(s.draft.Company); err != nil {
			s.log.Warn().
				Err(err).
				Str("field", field).
				Msg("Failed to persist company fields")
		}
	}

	s.log.Debug().
		Str("section", string(section)).
		Str("field", field).
		Msg("Draft field updated")

	s.changed()
	return nil
}

func (s *Store) fieldRef(section Section, field string) (*string, error) {
	var ref *string
	switch section {
	case SectionCompany:
		ref = partyField(&s.draft.Company, field, false)
	case SectionClient:
		ref = partyField(&s.draft.Client, field, true)
	case SectionInvoice:
		ref = invoiceField(&s.draft.Invoice, field)
	default:
		return nil, &FieldError{Section: string(section), Err: ErrUnknownSection}
	}
	if ref == nil {
		return nil, &FieldError{Section: string(section), Field: field, Err: ErrUnknownField}
	}
	return ref, nil
}

func partyField(p *models.Party, field string, client bool) *string {
	switch field {
	case "name":
		return &p.Name
	case "email":
		return &p.Email
	case "logo":
		return &p.Logo
	case "address":
		return &p.Address
	case "city":
		return &p.City
	case "state":
		return &p.State
	case "zip":
		return &p.Zip
	case "country":
		return &p.Country
	case "taxId":
		return &p.TaxID
	case "logoUrl":
		if client {
			return &p.LogoURL
		}
	}
	return nil
}

func invoiceField(m *models.InvoiceMeta, field string) *string {
	switch field {
	case "number":
		return &m.Number
	case "issueDate":
		return &m.IssueDate
	case "dueDate":
		return &m.DueDate
	case "currency":
		return &m.Currency
	case "note":
		return &m.Note
	case "customFooter":
		return &m.CustomFooter
	}
	return nil
}

// AddLineItem appends a blank line item.
func (s *Store) AddLineItem() {
	s.draft.LineItems = append(s.draft.LineItems, NewLineItem())
	s.changed()
}

// RemoveLineItem removes the item at index, keeping the order of the rest.
// It does nothing when only one item is left or index is out of range.
func (s *Store) RemoveLineItem(index int) {
	if len(s.draft.LineItems) <= 1 {
		s.log.Debug().Int("index", index).Msg("Refusing to remove the last line item")
		return
	}
	if index < 0 || index >= len(s.draft.LineItems) {
		s.log.Debug().Int("index", index).Msg("Line item index out of range")
		return
	}

	items := make([]models.LineItem, 0, len(s.draft.LineItems)-1)
	items = append(items, s.draft.LineItems[:index]...)
	items = append(items, s.draft.LineItems[index+1:]...)
	s.draft.LineItems = items
	s.changed()
}

// UpdateLineItem sets one field of the item at index. Quantity and price are
// parsed with ParseNumber; the description is stored as typed.
func (s *Store) UpdateLineItem(index int, field, value string) error {
	if index < 0 || index >= len(s.draft.LineItems) {
		return &FieldError{Section: "lineItems", Field: field, Err: ErrLineItemNotFound}
	}

	item := &s.draft.LineItems[index]
	switch field {
	case FieldDescription:
		item.Description = value
	case FieldQuantity:
		item.Quantity = ParseNumber(value)
	case FieldPrice:
		item.Price = ParseNumber(value)
	default:
		return &FieldError{Section: "lineItems", Field: field, Err: ErrUnknownField}
	}

	s.changed()
	return nil
}

// SetDiscount replaces the discount. The value is kept even for type none.
func (s *Store) SetDiscount(discountType models.DiscountType, value float64) error {
	t, err := ParseDiscountType(string(discountType))
	if err != nil {
		return err
	}
	s.draft.Discount = models.Discount{Type: t, Value: value}
	s.changed()
	return nil
}

// SetTax replaces the tax settings.
func (s *Store) SetTax(enabled bool, rate float64) {
	s.draft.Tax = models.Tax{Enabled: enabled, Rate: rate}
	s.changed()
}

// SelectClientFromRecord replaces the client with a workspace record. The
// typed logo initial is the only client field that survives.
func (s *Store) SelectClientFromRecord(record models.ClientRecord) {
	s.draft.Client = models.Party{
		ID:      record.ID,
		Name:    record.Name,
		Email:   record.Email,
		Logo:    s.draft.Client.Logo,
		LogoURL: record.LogoURL,
		Address: record.Address,
		City:    record.City,
		State:   record.State,
		Zip:     record.ZipCode,
		Country: record.Country,
	}

	s.log.Debug().
		Str("client_id", record.ID).
		Msg("Client selected from workspace record")

	s.changed()
}

// LinkClient points the client at a workspace record without touching any
// other client field.
func (s *Store) LinkClient(id string) {
	s.draft.Client.ID = id
	s.changed()
}

// ClearClientSelection unlinks the client from its workspace record and keeps
// every other client field.
func (s *Store) ClearClientSelection() {
	s.LinkClient("")
}

// ParseDiscountType validates a discount type name.
func ParseDiscountType(name string) (models.DiscountType, error) {
	switch t := models.DiscountType(strings.ToLower(strings.TrimSpace(name))); t {
	case models.DiscountNone, models.DiscountPercentage, models.DiscountFixed:
		return t, nil
	}
	return "", &FieldError{Section: "discount", Field: "type", Err: ErrInvalidDiscountType}
}

func (s *Store) changed() {
	for _, l := range s.listeners {
		l(s.draft.Clone())
	}
}
