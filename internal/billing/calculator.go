// Package billing computes bill lines and order totals.
package billing

import (
	"errors"

	"github.com/annapurna-pos/backend-billing/internal/money"
)

var (
	// ErrEmptyCart is returned when totals are requested for zero lines.
	ErrEmptyCart = errors.New("billing: cart has no lines")
	// ErrInvalidQuantity is returned for a non-positive quantity.
	ErrInvalidQuantity = errors.New("billing: quantity must be positive")
	// ErrInvalidPrice is returned for a negative unit price.
	ErrInvalidPrice = errors.New("billing: unit price must not be negative")
	// ErrEmptyItemName is returned when a line names no menu item.
	ErrEmptyItemName = errors.New("billing: item name is required")
)

// Line is one menu item at a given quantity. UnitPrice is copied from the
// catalog when the line is created, so later catalog changes never alter an
// in-progress cart.
type Line struct {
	ItemName  string      `json:"itemName"`
	Qty       int         `json:"qty"`
	UnitPrice money.Cents `json:"unitPrice"`
	LineTotal money.Cents `json:"lineTotal"`
}

// Totals aggregates computed billing components.
type Totals struct {
	Subtotal money.Cents `json:"subtotal"`
	GST      money.Cents `json:"gstAmount"`
	Discount money.Cents `json:"discountAmount"`
	Total    money.Cents `json:"total"`
}

// MakeLine builds a bill line, validating quantity and price up front.
func MakeLine(name string, qty int, unitPrice money.Cents) (Line, error) {
	if name == "" {
		return Line{}, ErrEmptyItemName
	}
	if qty <= 0 {
		return Line{}, ErrInvalidQuantity
	}
	if unitPrice < 0 {
		return Line{}, ErrInvalidPrice
	}
	return Line{
		ItemName:  name,
		Qty:       qty,
		UnitPrice: unitPrice,
		LineTotal: money.Cents(int64(qty)) * unitPrice,
	}, nil
}

// ComputeTotals calculates order totals from bill lines. GST and discount
// rates are given in basis points (500 = 5%). A zero or negative discount
// rate yields an exact zero discount. The function is pure and
// order-of-lines independent.
func ComputeTotals(lines []Line, discountBps, gstBps int64) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, ErrEmptyCart
	}
	var subtotal money.Cents
	for _, ln := range lines {
		subtotal += ln.LineTotal
	}
	gst := money.ApplyBps(subtotal, gstBps)
	var discount money.Cents
	if discountBps > 0 {
		discount = money.ApplyBps(subtotal, discountBps)
	}
	return Totals{
		Subtotal: subtotal,
		GST:      gst,
		Discount: discount,
		Total:    subtotal + gst - discount,
	}, nil
}
