// internal/domain/enums.go
package domain

import "fmt"

// DeliveryMode selects how the order is fulfilled. Counter pickup is the
// initial mode; switching modes never clears previously entered fields.
type DeliveryMode int

const (
	CounterPickup DeliveryMode = iota
	HomeDelivery
)

func (m DeliveryMode) String() string {
	if m == HomeDelivery {
		return "delivery"
	}
	return "balcao"
}

func ParseDeliveryMode(s string) (DeliveryMode, error) {
	switch s {
	case "balcao":
		return CounterPickup, nil
	case "delivery":
		return HomeDelivery, nil
	}
	return CounterPickup, fmt.Errorf("unknown delivery mode %q", s)
}

// PaymentMethod is the closed set of accepted payment options.
type PaymentMethod int

const (
	Pix PaymentMethod = iota
	Cash
	DebitCard
	CreditCard
)

// paymentLabels maps every method to its display label. Indexing by the
// constants keeps the mapping next to the enum it covers.
var paymentLabels = [...]string{
	Pix:        "PIX",
	Cash:       "Dinheiro",
	DebitCard:  "Cartão de Débito",
	CreditCard: "Cartão de Crédito",
}

func (p PaymentMethod) Label() string {
	if p < 0 || int(p) >= len(paymentLabels) {
		return ""
	}
	return paymentLabels[p]
}

func (p PaymentMethod) String() string {
	switch p {
	case Cash:
		return "dinheiro"
	case DebitCard:
		return "debito"
	case CreditCard:
		return "credito"
	default:
		return "pix"
	}
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch s {
	case "pix":
		return Pix, nil
	case "dinheiro":
		return Cash, nil
	case "debito":
		return DebitCard, nil
	case "credito":
		return CreditCard, nil
	}
	return Pix, fmt.Errorf("unknown payment method %q", s)
}
