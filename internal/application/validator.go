// internal/application/validator.go
package application

import (
	"strings"

	"github.com/pizzaria/checkout-backend/internal/domain"
)

// Subtotal sums the cart line totals.
func Subtotal(cart domain.CartState) float64 {
	var sum float64
	for _, item := range cart.Items {
		sum += item.LineTotal()
	}
	return sum
}

// StructurallyValid reports whether the draft has every field its delivery
// mode requires. Counter pickup needs nothing; complement and delivery notes
// are always optional.
func StructurallyValid(draft *domain.OrderDraft) bool {
	if draft.DeliveryMode != domain.HomeDelivery {
		return true
	}
	return strings.TrimSpace(draft.CustomerName) != "" &&
		len(domain.Digits(draft.CustomerPhone)) >= 10 &&
		draft.Address != nil &&
		strings.TrimSpace(draft.HouseNumber) != ""
}

// MeetsMinimum is the economic gate: the subtotal must reach the store
// minimum. The delivery fee never takes part in this comparison.
func MeetsMinimum(cart domain.CartState, cfg domain.StoreConfig) bool {
	return Subtotal(cart) >= cfg.MinimumOrderValue
}

// AmountShort is how much the subtotal is below the minimum, zero when met.
func AmountShort(cart domain.CartState, cfg domain.StoreConfig) float64 {
	short := cfg.MinimumOrderValue - Subtotal(cart)
	if short < 0 {
		return 0
	}
	return short
}

// Total is the dispatched amount: subtotal plus the delivery fee for home
// delivery only.
func Total(cart domain.CartState, mode domain.DeliveryMode, cfg domain.StoreConfig) float64 {
	if mode == domain.HomeDelivery {
		return Subtotal(cart) + cfg.DeliveryFee
	}
	return Subtotal(cart)
}
