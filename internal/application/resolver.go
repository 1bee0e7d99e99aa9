// internal/application/resolver.go
package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pizzaria/checkout-backend/internal/domain"
	"github.com/pizzaria/checkout-backend/internal/logger"
	"github.com/pizzaria/checkout-backend/internal/ports"
)

// AddressResolver turns a raw postal code into a structured address through
// the directory port, with a cache-aside layer in front.
type AddressResolver struct {
	lookup ports.AddressLookupPort
	cache  ports.CachePort
	log    *logger.Logger
}

func NewAddressResolver(lookup ports.AddressLookupPort, cache ports.CachePort, log *logger.Logger) *AddressResolver {
	return &AddressResolver{lookup: lookup, cache: cache, log: log}
}

func cepCacheKey(cep string) string {
	return "cep:" + cep
}

// Resolve strips non-digits from raw and resolves the remaining code. Inputs
// that do not strip to exactly 8 digits fail before any external call.
func (r *AddressResolver) Resolve(ctx context.Context, raw string) (domain.AddressRecord, error) {
	cep := domain.Digits(raw)
	if len(cep) != 8 {
		return domain.AddressRecord{}, domain.ErrInvalidCEP
	}

	if r.cache != nil {
		if data, err := r.cache.Get(ctx, cepCacheKey(cep)); err == nil {
			var rec domain.AddressRecord
			if err := json.Unmarshal(data, &rec); err == nil {
				return rec, nil
			}
		}
	}

	rec, err := r.lookup.Lookup(ctx, cep)
	if err != nil {
		if errors.Is(err, domain.ErrCEPNotFound) || errors.Is(err, domain.ErrLookupFailed) {
			return domain.AddressRecord{}, err
		}
		return domain.AddressRecord{}, fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, cepCacheKey(cep), rec); err != nil {
			r.log.Debugw("cep cache set failed", "cep", cep, "error", err)
		}
	}
	return rec, nil
}
