// Package inventory holds the stock-ledger invariant shared by the cart and
// order lifecycles: stock never goes negative, and every check happens in the
// same transaction as the adjustment it guards.
package inventory

import "fmt"

// Movement reasons recorded with every stock adjustment.
const (
	ReasonCheckout        = "checkout"
	ReasonOrderValidation = "order_validation"
	ReasonCancellation    = "cancellation"
	ReasonManual          = "manual"
)

// InsufficientStockError reports a requested quantity exceeding available
// stock for one product.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		name, e.Requested, e.Available)
}

// Check returns nil when requested can be taken from available, or an
// *InsufficientStockError describing the shortfall.
func Check(productID, productName string, available, requested int) error {
	if available >= requested {
		return nil
	}
	return &InsufficientStockError{
		ProductID:   productID,
		ProductName: productName,
		Requested:   requested,
		Available:   available,
	}
}
