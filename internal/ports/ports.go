// internal/ports/ports.go
package ports

import (
	"context"

	"github.com/pizzaria/checkout-backend/internal/domain"
)

// AddressLookupPort resolves an 8-digit postal code against the external
// directory.
type AddressLookupPort interface {
	Lookup(ctx context.Context, cep string) (domain.AddressRecord, error)
}

// StoreConfigPort reads the single store configuration record.
type StoreConfigPort interface {
	Load(ctx context.Context) (domain.StoreConfig, error)
}

type CachePort interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
}

// DispatcherPort hands a composed order to the fulfillment channel and
// returns the deep link it invoked.
type DispatcherPort interface {
	Dispatch(ctx context.Context, text string, cfg domain.StoreConfig) (string, error)
}

// ChannelOpenerPort opens a deep link in a new execution context.
type ChannelOpenerPort interface {
	Open(ctx context.Context, link string) error
}
