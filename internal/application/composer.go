// internal/application/composer.go
package application

import (
	"fmt"
	"strings"

	"github.com/pizzaria/checkout-backend/internal/domain"
	"github.com/pizzaria/checkout-backend/pkg/currency"
)

// Compose builds the canonical order text sent to the store. It is pure and
// deterministic: the same cart, draft and config always produce byte-identical
// output.
func Compose(cart domain.CartState, draft *domain.OrderDraft, cfg domain.StoreConfig) string {
	subtotal := Subtotal(cart)
	delivery := draft.DeliveryMode == domain.HomeDelivery
	var fee float64
	if delivery {
		fee = cfg.DeliveryFee
	}
	total := subtotal + fee

	var b strings.Builder
	fmt.Fprintf(&b, "🍕 *NOVO PEDIDO - %s*\n\n", cfg.Name)

	b.WriteString("📋 *ITENS DO PEDIDO:*\n")
	for i, item := range cart.Items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item.Name)
		fmt.Fprintf(&b, "   • Tamanho: %s\n", item.Size)
		switch {
		case len(item.Flavors) == 1:
			fmt.Fprintf(&b, "   • Sabor: %s\n", item.Flavors[0])
		case len(item.Flavors) > 1:
			fmt.Fprintf(&b, "   • Sabores: %s\n", strings.Join(item.Flavors, ", "))
		}
		fmt.Fprintf(&b, "   • Quantidade: %d\n", item.Quantity)
		fmt.Fprintf(&b, "   • Valor: %s\n\n", currency.Format(item.LineTotal()))
	}

	if delivery {
		b.WriteString("🚚 *ENTREGA:* Delivery\n\n")
	} else {
		b.WriteString("🚚 *ENTREGA:* Retirada no Balcão\n\n")
	}

	if delivery {
		b.WriteString("👤 *DADOS DO CLIENTE:*\n")
		fmt.Fprintf(&b, "Nome: %s\n", draft.CustomerName)
		fmt.Fprintf(&b, "Telefone: %s\n\n", draft.CustomerPhone)

		b.WriteString("📍 *ENDEREÇO DE ENTREGA:*\n")
		if addr := draft.Address; addr != nil {
			fmt.Fprintf(&b, "%s, %s\n", addr.Street, draft.HouseNumber)
			if draft.Complement != "" {
				fmt.Fprintf(&b, "%s\n", draft.Complement)
			}
			fmt.Fprintf(&b, "%s - %s/%s\n", addr.Neighborhood, addr.City, addr.StateCode)
			fmt.Fprintf(&b, "CEP: %s\n", draft.RawPostalCode)
			if draft.DeliveryNotes != "" {
				fmt.Fprintf(&b, "Observações: %s\n", draft.DeliveryNotes)
			}
		}
		b.WriteString("\n")
	}

	if strings.TrimSpace(draft.OrderNotes) != "" {
		fmt.Fprintf(&b, "📝 *OBSERVAÇÕES DO PEDIDO:*\n%s\n\n", draft.OrderNotes)
	}

	fmt.Fprintf(&b, "💳 *FORMA DE PAGAMENTO:* %s\n\n", draft.Payment.Label())

	b.WriteString("💰 *VALORES:*\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", currency.Format(subtotal))
	if delivery {
		fmt.Fprintf(&b, "Taxa de entrega: %s\n", currency.Format(fee))
	}
	fmt.Fprintf(&b, "*TOTAL: %s*\n\n", currency.Format(total))

	b.WriteString("✅ Aguardo confirmação!")
	return b.String()
}
