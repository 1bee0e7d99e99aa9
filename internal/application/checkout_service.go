// internal/application/checkout_service.go
package application

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/pizzaria/checkout-backend/internal/domain"
	"github.com/pizzaria/checkout-backend/internal/logger"
	"github.com/pizzaria/checkout-backend/internal/ports"
)

const configCacheKey = "store:config"

// session is one customer's in-flight checkout. Only the lookup completion
// whose generation is still current may touch the draft.
type session struct {
	cart        domain.CartState
	draft       domain.OrderDraft
	lookupGen   uint64
	lookupErr   error
	resolving   bool
	dispatching bool
}

// CheckoutService owns the checkout drafts and orchestrates the resolver,
// validator, composer and dispatcher around them.
type CheckoutService struct {
	mu         sync.Mutex
	sessions   map[string]*session
	cfg        domain.StoreConfig
	cfgPort    ports.StoreConfigPort
	cache      ports.CachePort
	resolver   *AddressResolver
	dispatcher ports.DispatcherPort
	log        *logger.Logger
}

// NewCheckoutService loads the store configuration once and wires the ports.
// A configuration failure falls back to defaults.
func NewCheckoutService(
	ctx context.Context,
	cfgPort ports.StoreConfigPort,
	lookup ports.AddressLookupPort,
	cache ports.CachePort,
	dispatcher ports.DispatcherPort,
	log *logger.Logger,
) *CheckoutService {
	return &CheckoutService{
		sessions:   make(map[string]*session),
		cfg:        loadStoreConfig(ctx, cfgPort, cache, log),
		cfgPort:    cfgPort,
		cache:      cache,
		resolver:   NewAddressResolver(lookup, cache, log),
		dispatcher: dispatcher,
		log:        log,
	}
}

func loadStoreConfig(ctx context.Context, cfgPort ports.StoreConfigPort, cache ports.CachePort, log *logger.Logger) domain.StoreConfig {
	if cache != nil {
		if data, err := cache.Get(ctx, configCacheKey); err == nil {
			var cfg domain.StoreConfig
			if err := json.Unmarshal(data, &cfg); err == nil {
				return cfg
			}
		}
	}
	if cfgPort == nil {
		log.Warnw("store config backend not wired, using defaults")
		return domain.DefaultStoreConfig()
	}
	cfg, err := cfgPort.Load(ctx)
	if err != nil {
		log.Warnw("store config unavailable, using defaults", "error", err)
		return domain.DefaultStoreConfig()
	}
	if cache != nil {
		if err := cache.Set(ctx, configCacheKey, cfg); err != nil {
			log.Debugw("store config cache set failed", "error", err)
		}
	}
	return cfg
}

// StoreConfig returns the configuration the service currently operates on.
func (s *CheckoutService) StoreConfig() domain.StoreConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// ReloadConfig drops the cached store configuration and reloads it from the
// backend. Used by the admin surface after the store changes its settings.
func (s *CheckoutService) ReloadConfig(ctx context.Context) domain.StoreConfig {
	if s.cache != nil {
		if err := s.cache.DeleteByPrefix(ctx, "store:"); err != nil {
			s.log.Debugw("config cache invalidation failed", "error", err)
		}
	}
	cfg := loadStoreConfig(ctx, s.cfgPort, s.cache, s.log)
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.log.Infow("store config reloaded", "store", cfg.Name)
	return cfg
}

// StartCheckout opens a session for the given cart snapshot. The cart must
// be non-empty and internally consistent.
func (s *CheckoutService) StartCheckout(ctx context.Context, cart domain.CartState) (string, error) {
	if len(cart.Items) == 0 {
		return "", domain.ErrEmptyCart
	}
	for _, item := range cart.Items {
		if item.Quantity <= 0 || item.UnitPrice < 0 {
			return "", domain.ErrInvalidCartItem
		}
	}
	if math.Abs(Subtotal(cart)-cart.Subtotal) > 0.005 {
		return "", domain.ErrCartTotalMismatch
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &session{
		cart: cart,
		draft: domain.OrderDraft{
			DeliveryMode: domain.CounterPickup,
			Payment:      domain.Pix,
		},
	}
	s.mu.Unlock()
	s.log.Infow("checkout started", "session", id, "items", len(cart.Items))
	return id, nil
}

// SetDeliveryMode switches fulfillment modes. Previously entered customer and
// address fields are kept either way.
func (s *CheckoutService) SetDeliveryMode(id string, mode domain.DeliveryMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.draft.DeliveryMode = mode
	return nil
}

// UpdateCustomer sets the customer name and phone; the phone is stored
// masked.
func (s *CheckoutService) UpdateCustomer(id, name, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.draft.CustomerName = name
	sess.draft.CustomerPhone = domain.FormatPhone(phone)
	return nil
}

// UpdateAddress sets the fields that accompany a resolved address.
func (s *CheckoutService) UpdateAddress(id, houseNumber, complement, deliveryNotes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.draft.HouseNumber = houseNumber
	sess.draft.Complement = complement
	sess.draft.DeliveryNotes = deliveryNotes
	return nil
}

// SetPayment selects the payment method.
func (s *CheckoutService) SetPayment(id string, method domain.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.draft.Payment = method
	return nil
}

// SetNotes sets the free-text order notes.
func (s *CheckoutService) SetNotes(id, orderNotes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.draft.OrderNotes = orderNotes
	return nil
}

// SetPostalCode records a new postal code and, when it strips to exactly 8
// digits, starts an asynchronous directory lookup. Each edit bumps the
// session's lookup generation and clears the resolved address; a completion
// with a stale generation is discarded, so the last input wins regardless of
// completion order.
func (s *CheckoutService) SetPostalCode(id, raw string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return domain.ErrSessionNotFound
	}
	masked := domain.FormatCEP(raw)
	sess.draft.RawPostalCode = masked
	sess.draft.Address = nil
	sess.lookupErr = nil
	sess.resolving = false
	sess.lookupGen++
	gen := sess.lookupGen

	digits := domain.Digits(masked)
	if len(digits) != 8 {
		if digits != "" {
			sess.lookupErr = domain.ErrInvalidCEP
		}
		s.mu.Unlock()
		return nil
	}
	sess.resolving = true
	s.mu.Unlock()

	go s.resolveCEP(id, gen, digits)
	return nil
}

// resolveCEP runs one lookup and applies its outcome only if the session
// still exists and the generation is still current.
func (s *CheckoutService) resolveCEP(id string, gen uint64, cep string) {
	rec, err := s.resolver.Resolve(context.Background(), cep)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.lookupGen != gen {
		return
	}
	sess.resolving = false
	if err != nil {
		sess.draft.Address = nil
		sess.lookupErr = err
		s.log.Debugw("cep lookup failed", "session", id, "cep", cep, "error", err)
		return
	}
	sess.draft.Address = &rec
	sess.lookupErr = nil
}

// CheckoutStatus is the gate and totals snapshot the transport surfaces after
// every mutation.
type CheckoutStatus struct {
	SessionID         string            `json:"session_id"`
	Draft             domain.OrderDraft `json:"draft"`
	StructurallyValid bool              `json:"structurally_valid"`
	MeetsMinimum      bool              `json:"meets_minimum"`
	CanDispatch       bool              `json:"can_dispatch"`
	Resolving         bool              `json:"resolving_cep"`
	LookupError       string            `json:"cep_error,omitempty"`
	Subtotal          float64           `json:"subtotal"`
	DeliveryFee       float64           `json:"delivery_fee"`
	Total             float64           `json:"total"`
	MinimumOrderValue float64           `json:"minimum_order_value"`
	AmountShort       float64           `json:"amount_short"`
}

// Status reports the current gates and totals for a session.
func (s *CheckoutService) Status(id string) (CheckoutStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return CheckoutStatus{}, domain.ErrSessionNotFound
	}

	structural := StructurallyValid(&sess.draft)
	economic := MeetsMinimum(sess.cart, s.cfg)
	var fee float64
	if sess.draft.DeliveryMode == domain.HomeDelivery {
		fee = s.cfg.DeliveryFee
	}
	return CheckoutStatus{
		SessionID:         id,
		Draft:             sess.draft,
		StructurallyValid: structural,
		MeetsMinimum:      economic,
		CanDispatch:       structural && economic,
		Resolving:         sess.resolving,
		LookupError:       lookupErrorMessage(sess.lookupErr),
		Subtotal:          Subtotal(sess.cart),
		DeliveryFee:       fee,
		Total:             Total(sess.cart, sess.draft.DeliveryMode, s.cfg),
		MinimumOrderValue: s.cfg.MinimumOrderValue,
		AmountShort:       AmountShort(sess.cart, s.cfg),
	}, nil
}

// Preview returns the composed order text for the current draft without
// dispatching anything.
func (s *CheckoutService) Preview(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	return Compose(sess.cart, &sess.draft, s.cfg), nil
}

// Dispatch composes the order and hands it to the fulfillment channel. Both
// gates must pass; otherwise nothing happens and ErrDispatchBlocked is
// returned. The session is marked in-flight before the channel is invoked so
// a concurrent Dispatch cannot fire it twice; on success it is discarded.
func (s *CheckoutService) Dispatch(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return "", domain.ErrSessionNotFound
	}
	if sess.dispatching || !StructurallyValid(&sess.draft) || !MeetsMinimum(sess.cart, s.cfg) {
		s.mu.Unlock()
		return "", domain.ErrDispatchBlocked
	}
	sess.dispatching = true
	cfg := s.cfg
	text := Compose(sess.cart, &sess.draft, cfg)
	s.mu.Unlock()

	link, err := s.dispatcher.Dispatch(ctx, text, cfg)

	s.mu.Lock()
	if err != nil {
		if sess, ok := s.sessions[id]; ok {
			sess.dispatching = false
		}
		s.mu.Unlock()
		return "", err
	}
	delete(s.sessions, id)
	s.mu.Unlock()
	s.log.Infow("order dispatched", "session", id)
	return link, nil
}

// Abandon drops a session and its draft.
func (s *CheckoutService) Abandon(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func lookupErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrInvalidCEP):
		return "CEP deve ter 8 dígitos"
	case errors.Is(err, domain.ErrCEPNotFound):
		return "CEP não encontrado"
	default:
		return "Erro ao buscar CEP"
	}
}
