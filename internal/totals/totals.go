// Package totals computes invoice amounts from line items, discount and tax.
//
// Every function is a pure function of its arguments. No rounding is applied:
// amounts keep full float64 precision and are only rounded when formatted for
// display.
//
// Order of operations:
//
//	subtotal      = Σ quantity × price
//	discount      = 0 | subtotal × value / 100 | value
//	afterDiscount = subtotal − discount
//	tax           = 0 | afterDiscount × rate / 100
//	total         = afterDiscount + tax
//
// A fixed discount is not clamped to the subtotal, so afterDiscount and total
// may be negative.
package totals

import "invoicer/pkg/models"

// Breakdown holds every intermediate amount of one computation.
type Breakdown struct {
	Subtotal      float64 `json:"subtotal"`
	Discount      float64 `json:"discount"`
	AfterDiscount float64 `json:"afterDiscount"`
	Tax           float64 `json:"tax"`
	Total         float64 `json:"total"`
}

// Subtotal sums quantity × price over all items. An empty list yields 0.
func Subtotal(items []models.LineItem) float64 {
	var sum float64
	for _, item := range items {
		sum += LineTotal(item)
	}
	return sum
}

// LineTotal is quantity × price of a single item.
func LineTotal(item models.LineItem) float64 {
	return item.Quantity * item.Price
}

// DiscountAmount returns the effective discount for subtotal.
func DiscountAmount(subtotal float64, discount models.Discount) float64 {
	switch discount.Type {
	case models.DiscountPercentage:
		return subtotal * (discount.Value / 100)
	case models.DiscountFixed:
		return discount.Value
	default:
		return 0
	}
}

// TaxAmount returns the effective tax on the already discounted subtotal.
func TaxAmount(afterDiscount float64, tax models.Tax) float64 {
	if !tax.Enabled {
		return 0
	}
	return afterDiscount * (tax.Rate / 100)
}

// Total returns the grand total.
func Total(items []models.LineItem, discount models.Discount, tax models.Tax) float64 {
	return Compute(items, discount, tax).Total
}

// Compute runs the whole chain once and returns every intermediate amount.
func Compute(items []models.LineItem, discount models.Discount, tax models.Tax) Breakdown {
	subtotal := Subtotal(items)
	discountAmount := DiscountAmount(subtotal, discount)
	afterDiscount := subtotal - discountAmount
	taxAmount := TaxAmount(afterDiscount, tax)

	return Breakdown{
		Subtotal:      subtotal,
		Discount:      discountAmount,
		AfterDiscount: afterDiscount,
		Tax:           taxAmount,
		Total:         afterDiscount + taxAmount,
	}
}

// ForDraft computes the breakdown of a whole draft.
func ForDraft(d models.Draft) Breakdown {
	return Compute(d.LineItems, d.Discount, d.Tax)
}
