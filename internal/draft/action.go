package draft

import (
	"fmt"

	"invoicer/pkg/models"
)

// Action is one named update of the draft. The concrete types below are the
// complete set; Apply dispatches on them.
type Action interface {
	Kind() string
}

// SetField assigns a free-text field of the company, client or invoice section.
type SetField struct {
	Section Section
	Field   string
	Value   string
}

// AddLineItem appends a blank line item.
type AddLineItem struct{}

// RemoveLineItem removes the item at a zero-based index.
type RemoveLineItem struct {
	Index int
}

// UpdateLineItem sets description, quantity or price of one item.
type UpdateLineItem struct {
	Index int
	Field string
	Value string
}

// SetDiscount replaces the discount.
type SetDiscount struct {
	Type  models.DiscountType
	Value float64
}

// SetTax replaces the tax settings.
type SetTax struct {
	Enabled bool
	Rate    float64
}

// SelectClient fills the client from a workspace record.
type SelectClient struct {
	Record models.ClientRecord
}

// LinkClient sets the workspace record id of the client.
type LinkClient struct {
	ID string
}

// ClearClient unlinks the client from its workspace record.
type ClearClient struct{}

func (SetField) Kind() string       { return "set_field" }
func (AddLineItem) Kind() string    { return "add_line_item" }
func (RemoveLineItem) Kind() string { return "remove_line_item" }
func (UpdateLineItem) Kind() string { return "update_line_item" }
func (SetDiscount) Kind() string    { return "set_discount" }
func (SetTax) Kind() string         { return "set_tax" }
func (SelectClient) Kind() string   { return "select_client" }
func (LinkClient) Kind() string     { return "link_client" }
func (ClearClient) Kind() string    { return "clear_client" }

// Apply performs a single action on the draft.
func (s *Store) Apply(action Action) error {
	switch a := action.(type) {
	case SetField:
		return s.SetField(a.Section, a.Field, a.Value)
	case AddLineItem:
		s.AddLineItem()
	case RemoveLineItem:
		s.RemoveLineItem(a.Index)
	case UpdateLineItem:
		return s.UpdateLineItem(a.Index, a.Field, a.Value)
	case SetDiscount:
		return s.SetDiscount(a.Type, a.Value)
	case SetTax:
		s.SetTax(a.Enabled, a.Rate)
	case SelectClient:
		s.SelectClientFromRecord(a.Record)
	case LinkClient:
		s.LinkClient(a.ID)
	case ClearClient:
		s.ClearClientSelection()
	default:
		return fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}
	return nil
}
