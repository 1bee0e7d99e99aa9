// internal/domain/models.go
package domain

// CartItem is a single line of the storefront cart. Checkout reads the cart
// and never mutates it.
type CartItem struct {
	Name      string   `json:"nome"`
	Size      string   `json:"tamanho"`
	Flavors   []string `json:"sabores"`
	Quantity  int64    `json:"quantidade"`
	UnitPrice float64  `json:"preco"`
}

func (i CartItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// CartState is the snapshot handed over when checkout starts. Subtotal must
// equal the sum of line totals.
type CartState struct {
	Items    []CartItem `json:"items"`
	Subtotal float64    `json:"total"`
}

type StoreConfig struct {
	Name              string  `json:"nome"`
	Contact           string  `json:"whatsapp"`
	DeliveryFee       float64 `json:"taxa_entrega"`
	MinimumOrderValue float64 `json:"valor_minimo"`
}

// DefaultContact is the WhatsApp number used when the store has none configured.
const DefaultContact = "5511999999999"

// DefaultStoreConfig is the fallback applied whenever the config backend is
// unreachable.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Name:              "Pizzaria",
		Contact:           DefaultContact,
		DeliveryFee:       5.00,
		MinimumOrderValue: 20.00,
	}
}

// AddressRecord is a resolved postal address, only ever produced by a
// successful directory lookup.
type AddressRecord struct {
	Street       string `json:"logradouro"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	StateCode    string `json:"uf"`
}

// OrderDraft aggregates every checkout input for one session. Memory-resident
// only; discarded after dispatch or abandonment.
type OrderDraft struct {
	DeliveryMode  DeliveryMode   `json:"delivery_mode"`
	CustomerName  string         `json:"customer_name"`
	CustomerPhone string         `json:"customer_phone"`
	RawPostalCode string         `json:"cep"`
	Address       *AddressRecord `json:"address,omitempty"`
	HouseNumber   string         `json:"house_number"`
	Complement    string         `json:"complement"`
	DeliveryNotes string         `json:"delivery_notes"`
	OrderNotes    string         `json:"order_notes"`
	Payment       PaymentMethod  `json:"payment"`
}
