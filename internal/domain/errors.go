// internal/domain/errors.go
package domain

import "errors"

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrCartTotalMismatch = errors.New("cart subtotal does not match line totals")
	ErrInvalidCartItem   = errors.New("cart item has invalid quantity or price")

	ErrInvalidCEP   = errors.New("cep must have exactly 8 digits")
	ErrCEPNotFound  = errors.New("cep not found")
	ErrLookupFailed = errors.New("cep lookup failed")

	ErrSessionNotFound = errors.New("checkout session not found")
	ErrDispatchBlocked = errors.New("dispatch preconditions not met")
)
