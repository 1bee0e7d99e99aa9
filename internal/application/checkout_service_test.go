// internal/application/checkout_service_test.go
package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pizzaria/checkout-backend/internal/domain"
	"github.com/pizzaria/checkout-backend/internal/logger"
)

type mockConfig struct {
	load func(ctx context.Context) (domain.StoreConfig, error)
}

func (m *mockConfig) Load(ctx context.Context) (domain.StoreConfig, error) {
	return m.load(ctx)
}

type mockDispatcher struct {
	mu       sync.Mutex
	dispatch func(ctx context.Context, text string, cfg domain.StoreConfig) (string, error)
	texts    []string
}

func (m *mockDispatcher) Dispatch(ctx context.Context, text string, cfg domain.StoreConfig) (string, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()
	if m.dispatch != nil {
		return m.dispatch(ctx, text, cfg)
	}
	return "https://wa.me/" + cfg.Contact + "?text=x", nil
}

func (m *mockDispatcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

func newTestService(t *testing.T, lookup *mockLookup, dispatcher *mockDispatcher) *CheckoutService {
	t.Helper()
	if lookup == nil {
		lookup = &mockLookup{lookup: func(ctx context.Context, cep string) (domain.AddressRecord, error) {
			return paulista, nil
		}}
	}
	if dispatcher == nil {
		dispatcher = &mockDispatcher{}
	}
	cfgPort := &mockConfig{load: func(ctx context.Context) (domain.StoreConfig, error) {
		return testConfig(), nil
	}}
	return NewCheckoutService(context.Background(), cfgPort, lookup, nil, dispatcher, logger.NewNop())
}

func scenarioCart() domain.CartState {
	return domain.CartState{
		Items:    []domain.CartItem{{Name: "Margherita", Size: "Large", Quantity: 1, UnitPrice: 40.00}},
		Subtotal: 40.00,
	}
}

func TestStartCheckoutPreconditions(t *testing.T) {
	svc := newTestService(t, nil, nil)

	tests := []struct {
		name    string
		cart    domain.CartState
		wantErr error
	}{
		{"empty cart", domain.CartState{}, domain.ErrEmptyCart},
		{
			"subtotal mismatch",
			domain.CartState{
				Items:    []domain.CartItem{{Name: "Margherita", Quantity: 1, UnitPrice: 40.00}},
				Subtotal: 35.00,
			},
			domain.ErrCartTotalMismatch,
		},
		{
			"zero quantity",
			domain.CartState{Items: []domain.CartItem{{Name: "Margherita", Quantity: 0, UnitPrice: 40.00}}},
			domain.ErrInvalidCartItem,
		},
		{
			"negative price",
			domain.CartState{Items: []domain.CartItem{{Name: "Margherita", Quantity: 1, UnitPrice: -1}}},
			domain.ErrInvalidCartItem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.StartCheckout(context.Background(), tt.cart)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStartCheckoutInitialDraft(t *testing.T) {
	svc := newTestService(t, nil, nil)

	id, err := svc.StartCheckout(context.Background(), scenarioCart())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	status, err := svc.Status(id)
	require.NoError(t, err)
	assert.Equal(t, domain.CounterPickup, status.Draft.DeliveryMode)
	assert.Equal(t, domain.Pix, status.Draft.Payment)
	assert.Equal(t, 40.00, status.Subtotal)
	assert.Equal(t, 20.00, status.MinimumOrderValue)
}

// Scenario: counter pickup order above the minimum dispatches with the plain
// subtotal as total.
func TestDispatchCounterPickup(t *testing.T) {
	dispatcher := &mockDispatcher{}
	svc := newTestService(t, nil, dispatcher)

	id, err := svc.StartCheckout(context.Background(), scenarioCart())
	require.NoError(t, err)

	status, err := svc.Status(id)
	require.NoError(t, err)
	assert.True(t, status.CanDispatch)
	assert.Equal(t, 40.00, status.Total)
	assert.Equal(t, 0.00, status.DeliveryFee)

	link, err := svc.Dispatch(context.Background(), id)
	require.NoError(t, err)
	assert.Contains(t, link, "wa.me")

	require.Equal(t, 1, dispatcher.callCount())
	assert.Contains(t, dispatcher.texts[0], "*TOTAL: R$ 40.00*")
	assert.NotContains(t, dispatcher.texts[0], "Taxa de entrega")

	// Draft is discarded after dispatch.
	_, err = svc.Status(id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

// Scenario: home delivery with a blank name stays blocked even though the
// subtotal clears the minimum.
func TestDispatchBlockedOnStructuralGate(t *testing.T) {
	dispatcher := &mockDispatcher{}
	svc := newTestService(t, nil, dispatcher)

	id, err := svc.StartCheckout(context.Background(), scenarioCart())
	require.NoError(t, err)
	require.NoError(t, svc.SetDeliveryMode(id, domain.HomeDelivery))

	status, err := svc.Status(id)
	require.NoError(t, err)
	assert.True(t, status.MeetsMinimum)
	assert.False(t, status.StructurallyValid)
	assert.False(t, status.CanDispatch)

	_, err = svc.Dispatch(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrDispatchBlocked)
	assert.Equal(t, 0, dispatcher.callCount(), "nothing may reach the channel when gated")

	// The draft is untouched and the session still alive.
	_, err = svc.Status(id)
	assert.NoError(t, err)
}

func TestDispatchBlockedOnEconomicGate(t *testing.T) {
	svc := newTestService(t, nil, nil)

	cart := domain.CartState{
		Items:    []domain.CartItem{{Name: "Brotinho", Size: "Pequena", Quantity: 1, UnitPrice: 19.99}},
		Subtotal: 19.99,
	}
	id, err := svc.StartCheckout(context.Background(), cart)
	require.NoError(t, err)

	status, err := svc.Status(id)
	require.NoError(t, err)
	assert.False(t, status.MeetsMinimum)
	assert.InDelta(t, 0.01, status.AmountShort, 1e-9)

	_, err = svc.Dispatch(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrDispatchBlocked)
}

func TestModeSwitchKeepsFields(t *testing.T) {
	svc := newTestService(t, nil, nil)

	id, err := svc.StartCheckout(context.Background(), scenarioCart())
	require.NoError(t, err)
	require.NoError(t, svc.SetDeliveryMode(id, domain.HomeDelivery))
	require.NoError(t, svc.UpdateCustomer(id, "João Silva", "11999999999"))
	require.NoError(t, svc.UpdateAddress(id, "100", "Apto 42", ""))

	// Flip to pickup and back: the fields are inert, not deleted.
	require.NoError(t, svc.SetDeliveryMode(id, domain.CounterPickup))
	status, err := svc.Status(id)
	require.NoError(t, err)
	assert.True(t, status.StructurallyValid, "counter pickup is always structurally valid")
	assert.Equal(t, "João Silva", status.Draft.CustomerName)

	require.NoError(t, svc.SetDeliveryMode(id, domain.HomeDelivery))
	status, err = svc.Status(id)
	require.NoError(t, err)
	assert.Equal(t, "João Silva", status.Draft.CustomerName)
	assert.Equal(t, "(11) 99999-9999", status.Draft.CustomerPhone)
	assert.Equal(t, "100", status.Draft.HouseNumber)
	assert.Equal(t, "Apto 42", status.Draft.Complement)
}

func TestSetPostalCodeInvalidFormat(t *testing.T) {
	lookup := &mockLookup{lookup: func(ctx context.Context, cep string) (domain.AddressRecord, error) {
		return paulista, nil
	}}
	svc := newTestService(t, lookup, nil)

	id, err := svc.StartCheckout(context.Background(), scenarioCart())
	require.NoError(t, err)

	require.NoError(t, svc.SetPostalCode(id, "0131"))
	status, err := svc.Status(id)
	require.NoError(t, err)
	assert.Nil(t, status.Draft.Address)
	assert.Equal(t, "CEP deve ter 8 dígitos", status.LookupError)
	assert.Equal(t, 0, lookup.calls, "short input must not reach the directory")
}

func waitForAddress(t *testing.T, svc *CheckoutService, id string) domain.OrderDraft {
	t.Helper()
	var draft domain.OrderDraft
	require.Eventually(t, func() bool {
		status, err := svc.Status(id)
		if err != nil {
			return false
		}
		draft = status.Draft
		return status.Draft.Address != nil
	}, time.Second, 5*time.Millisecond)
	return draft
}

func TestSetPostalCodeResolvesAddress(t *testing.T) {
	svc := newTestService(t, nil, nil)

	id, err := svc.StartCheckout(context.Background(), scenarioCart())
	require.NoError(t, err)
	require.NoError(t, svc.SetPostalCode(id, "01310100"))

	draft := waitForAddress(t, svc, id)
	assert.Equal(t, "01310-100", draft.RawPostalCode, "cep is stored masked")
	assert.Equal(t, paulista, *draft.Address)
}

// Scenario: the full home delivery flow composes the address block from the
// resolved record plus the typed house number and cep.
func TestHomeDeliveryComposedAddress(t *testing.T) {
	dispatcher := &mockDispatcher{}
	svc := newTestService(t, nil, dispatcher)

	id, err := svc.StartCheckout(context.Background(), scenarioCart())
	require.NoError(t, err)
	require.NoError(t, svc.SetDeliveryMode(id, domain.HomeDelivery))
	require.NoError(t, svc.UpdateCustomer(id, "João Silva", "11999999999"))
	require.NoError(t, svc.SetPostalCode(id, "01310-100"))
	waitForAddress(t, svc, id)
	require.NoError(t, svc.UpdateAddress(id, "100", "", ""))

	link, err := svc.Dispatch(context.Background(), id)
	require.NoError(t, err)
	require.NotEmpty(t, link)

	require.Equal(t, 1, dispatcher.callCount())
	assert.Contains(t, dispatcher.texts[0], "Avenida Paulista, 100\nBela Vista - São Paulo/SP\nCEP: 01310-100")
	assert.Contains(t, dispatcher.texts[0], "Taxa de entrega: R$ 5.00")
	assert.Contains(t, dispatcher.texts[0], "*TOTAL: R$ 45.00*")
}

// gateLookup blocks each lookup until its gate is released, so tests control
// completion order precisely.
type gateLookup struct {
	gates map[string]chan struct{}
	recs  map[string]domain.AddressRecord
}

func (g *gateLookup) Lookup(ctx context.Context, cep string) (domain.AddressRecord, error) {
	<-g.gates[cep]
	return g.recs[cep], nil
}

// Scenario: a stale lookup that completes after a newer edit must never
// populate the draft. The last dispatched input wins, not the last completed.
func TestPostalCodeSupersession(t *testing.T) {
	old := domain.AddressRecord{Street: "Rua Antiga", Neighborhood: "Centro", City: "Santos", StateCode: "SP"}
	gates := map[string]chan struct{}{
		"11111111": make(chan struct{}),
		"01310100": make(chan struct{}),
	}
	lookup := &gateLookup{
		gates: gates,
		recs:  map[string]domain.AddressRecord{"11111111": old, "01310100": paulista},
	}
	cfgPort := &mockConfig{load: func(ctx context.Context) (domain.StoreConfig, error) {
		return testConfig(), nil
	}}
	svc := NewCheckoutService(context.Background(), cfgPort, lookup, nil, &mockDispatcher{}, logger.NewNop())

	id, err := svc.StartCheckout(context.Background(), scenarioCart())
	require.NoError(t, err)

	require.NoError(t, svc.SetPostalCode(id, "11111111"))
	require.NoError(t, svc.SetPostalCode(id, "01310-100"))

	// Let the stale lookup finish first.
	close(gates["11111111"])
	time.Sleep(50 * time.Millisecond)
	status, err := svc.Status(id)
	require.NoError(t, err)
	assert.Nil(t, status.Draft.Address, "stale completion must be discarded")

	close(gates["01310100"])
	draft := waitForAddress(t, svc, id)
	assert.Equal(t, paulista, *draft.Address)
	assert.Equal(t, "01310-100", draft.RawPostalCode)
}

func TestLookupFailureClearsAddress(t *testing.T) {
	var fail bool
	lookup := &mockLookup{lookup: func(ctx context.Context, cep string) (domain.AddressRecord, error) {
		if fail {
			return domain.AddressRecord{}, domain.ErrCEPNotFound
		}
		return paulista, nil
	}}
	svc := newTestService(t, lookup, nil)

	id, err := svc.StartCheckout(context.Background(), scenarioCart())
	require.NoError(t, err)
	require.NoError(t, svc.SetPostalCode(id, "01310100"))
	waitForAddress(t, svc, id)

	fail = true
	require.NoError(t, svc.SetPostalCode(id, "99999999"))
	require.Eventually(t, func() bool {
		status, err := svc.Status(id)
		return err == nil && status.LookupError != ""
	}, time.Second, 5*time.Millisecond)

	status, err := svc.Status(id)
	require.NoError(t, err)
	assert.Nil(t, status.Draft.Address, "failed lookup must not leave a stale address")
	assert.Equal(t, "CEP não encontrado", status.LookupError)
}

func TestConfigFallbackOnLoadFailure(t *testing.T) {
	cfgPort := &mockConfig{load: func(ctx context.Context) (domain.StoreConfig, error) {
		return domain.StoreConfig{}, errors.New("backend down")
	}}
	svc := NewCheckoutService(context.Background(), cfgPort, &mockLookup{}, nil, &mockDispatcher{}, logger.NewNop())

	assert.Equal(t, domain.DefaultStoreConfig(), svc.StoreConfig())

	// Checkout stays enterable on defaults.
	id, err := svc.StartCheckout(context.Background(), scenarioCart())
	require.NoError(t, err)
	status, err := svc.Status(id)
	require.NoError(t, err)
	assert.Equal(t, 20.00, status.MinimumOrderValue)
}

func TestConfigFallbackWithoutBackend(t *testing.T) {
	svc := NewCheckoutService(context.Background(), nil, &mockLookup{}, nil, &mockDispatcher{}, logger.NewNop())
	assert.Equal(t, domain.DefaultStoreConfig(), svc.StoreConfig())
}

func TestConfigServedFromCache(t *testing.T) {
	cached := testConfig()
	cache := &mockCache{
		get: func(ctx context.Context, key string) ([]byte, error) {
			if key != "store:config" {
				return nil, errors.New("cache miss")
			}
			data, err := json.Marshal(cached)
			return data, err
		},
	}
	cfgPort := &mockConfig{load: func(ctx context.Context) (domain.StoreConfig, error) {
		return domain.StoreConfig{}, errors.New("should not be needed")
	}}
	svc := NewCheckoutService(context.Background(), cfgPort, &mockLookup{}, cache, &mockDispatcher{}, logger.NewNop())
	assert.Equal(t, cached, svc.StoreConfig())
}

func TestDispatcherErrorKeepsSession(t *testing.T) {
	dispatcher := &mockDispatcher{dispatch: func(ctx context.Context, text string, cfg domain.StoreConfig) (string, error) {
		return "", errors.New("channel unavailable")
	}}
	svc := newTestService(t, nil, dispatcher)

	id, err := svc.StartCheckout(context.Background(), scenarioCart())
	require.NoError(t, err)

	_, err = svc.Dispatch(context.Background(), id)
	require.Error(t, err)

	_, err = svc.Status(id)
	assert.NoError(t, err, "a failed hand-off must not discard the draft")

	// The in-flight mark is cleared on failure, so a retry goes through.
	dispatcher.dispatch = nil
	_, err = svc.Dispatch(context.Background(), id)
	require.NoError(t, err)
}

func TestDispatchSingleFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	dispatcher := &mockDispatcher{dispatch: func(ctx context.Context, text string, cfg domain.StoreConfig) (string, error) {
		entered <- struct{}{}
		<-release
		return "https://wa.me/1?text=x", nil
	}}
	svc := newTestService(t, nil, dispatcher)

	id, err := svc.StartCheckout(context.Background(), scenarioCart())
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Dispatch(context.Background(), id)
		errCh <- err
	}()
	<-entered

	// A second dispatch while the first is in flight must not reach the
	// channel.
	_, err = svc.Dispatch(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrDispatchBlocked)

	close(release)
	require.NoError(t, <-errCh)
	require.Equal(t, 1, dispatcher.callCount())

	_, err = svc.Status(id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestReloadConfigInvalidatesCache(t *testing.T) {
	loads := 0
	cfgPort := &mockConfig{load: func(ctx context.Context) (domain.StoreConfig, error) {
		loads++
		cfg := testConfig()
		if loads > 1 {
			cfg.DeliveryFee = 8.00
		}
		return cfg, nil
	}}
	var deleted []string
	var setKeys []string
	cache := &mockCache{
		get: func(ctx context.Context, key string) ([]byte, error) { return nil, errors.New("cache miss") },
		set: func(ctx context.Context, key string, value interface{}) error {
			setKeys = append(setKeys, key)
			return nil
		},
		delete: func(ctx context.Context, prefix string) error { deleted = append(deleted, prefix); return nil },
	}
	svc := NewCheckoutService(context.Background(), cfgPort, &mockLookup{}, cache, &mockDispatcher{}, logger.NewNop())
	require.Equal(t, 5.00, svc.StoreConfig().DeliveryFee)

	cfg := svc.ReloadConfig(context.Background())
	assert.Equal(t, 8.00, cfg.DeliveryFee)
	assert.Equal(t, 8.00, svc.StoreConfig().DeliveryFee)
	assert.Equal(t, []string{"store:"}, deleted)
	assert.Contains(t, setKeys, "store:config")
}

func TestPreviewMatchesDispatchPayload(t *testing.T) {
	dispatcher := &mockDispatcher{}
	svc := newTestService(t, nil, dispatcher)

	id, err := svc.StartCheckout(context.Background(), scenarioCart())
	require.NoError(t, err)

	preview, err := svc.Preview(id)
	require.NoError(t, err)

	_, err = svc.Dispatch(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, 1, dispatcher.callCount())
	assert.Equal(t, preview, dispatcher.texts[0])
}

func TestAbandonDropsSession(t *testing.T) {
	svc := newTestService(t, nil, nil)

	id, err := svc.StartCheckout(context.Background(), scenarioCart())
	require.NoError(t, err)

	svc.Abandon(id)
	_, err = svc.Status(id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Abandoning twice is a no-op.
	svc.Abandon(id)
}

func TestOperationsOnUnknownSession(t *testing.T) {
	svc := newTestService(t, nil, nil)

	assert.ErrorIs(t, svc.SetDeliveryMode("nope", domain.HomeDelivery), domain.ErrSessionNotFound)
	assert.ErrorIs(t, svc.UpdateCustomer("nope", "a", "b"), domain.ErrSessionNotFound)
	assert.ErrorIs(t, svc.SetPostalCode("nope", "01310100"), domain.ErrSessionNotFound)
	_, err := svc.Dispatch(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
