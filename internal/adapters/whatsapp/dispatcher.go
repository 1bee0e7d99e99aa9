// internal/adapters/whatsapp/dispatcher.go
package whatsapp

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pizzaria/checkout-backend/internal/domain"
	"github.com/pizzaria/checkout-backend/internal/logger"
	"github.com/pizzaria/checkout-backend/internal/ports"
)

// Dispatcher hands composed orders to the store's WhatsApp via a wa.me deep
// link. Fire-and-forget: nothing is read back.
type Dispatcher struct {
	opener ports.ChannelOpenerPort
	log    *logger.Logger
}

func NewDispatcher(opener ports.ChannelOpenerPort, log *logger.Logger) ports.DispatcherPort {
	return &Dispatcher{opener: opener, log: log}
}

// BuildLink assembles the deep link for the store contact.
func BuildLink(text string, cfg domain.StoreConfig) string {
	contact := cfg.Contact
	if contact == "" {
		contact = domain.DefaultContact
	}
	encoded := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return fmt.Sprintf("https://wa.me/%s?text=%s", contact, encoded)
}

func (d *Dispatcher) Dispatch(ctx context.Context, text string, cfg domain.StoreConfig) (string, error) {
	link := BuildLink(text, cfg)
	if err := d.opener.Open(ctx, link); err != nil {
		return "", fmt.Errorf("open fulfillment channel: %w", err)
	}
	d.log.Debugw("fulfillment channel invoked", "contact_len", len(cfg.Contact), "text_len", len(text))
	return link, nil
}
