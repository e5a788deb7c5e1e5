package draft

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSection is returned when a field update names a section other
	// than company, client or invoice.
	ErrUnknownSection = errors.New("unknown draft section")

	// ErrUnknownField is returned when a section has no field with the given name.
	ErrUnknownField = errors.New("unknown draft field")

	// ErrLineItemNotFound is returned when a line item index is out of range.
	ErrLineItemNotFound = errors.New("line item not found")

	// ErrInvalidDiscountType is returned for a discount type other than none,
	// percentage or fixed.
	ErrInvalidDiscountType = errors.New("invalid discount type")

	// ErrUnknownAction is returned by Apply for an action it cannot dispatch.
	ErrUnknownAction = errors.New("unknown draft action")
)

// FieldError reports a rejected field update.
type FieldError struct {
	Section string
	Field   string
	Err     error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("draft: %s: %v", e.Section, e.Err)
	}
	return fmt.Sprintf("draft: %s.%s: %v", e.Section, e.Field, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *FieldError) Unwrap() error {
	return e.Err
}
