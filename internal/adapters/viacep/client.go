// internal/adapters/viacep/client.go
package viacep

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pizzaria/checkout-backend/internal/domain"
	"github.com/pizzaria/checkout-backend/internal/ports"
)

const defaultBaseURL = "https://viacep.com.br"

// Client looks up postal codes against a ViaCEP-compatible directory.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) ports.AddressLookupPort {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// lookupResponse covers both the address payload and the directory's
// not-found marker. The erro field has shipped as a bool and as a string, so
// it is kept raw and tested for presence.
type lookupResponse struct {
	Street       string          `json:"logradouro"`
	Neighborhood string          `json:"bairro"`
	City         string          `json:"localidade"`
	StateCode    string          `json:"uf"`
	Erro         json.RawMessage `json:"erro"`
}

func (c *Client) Lookup(ctx context.Context, cep string) (domain.AddressRecord, error) {
	url := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, cep)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.AddressRecord{}, fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.AddressRecord{}, fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.AddressRecord{}, fmt.Errorf("%w: status %d", domain.ErrLookupFailed, resp.StatusCode)
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.AddressRecord{}, fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
	}
	if len(payload.Erro) > 0 && string(payload.Erro) != "false" && string(payload.Erro) != `"false"` {
		return domain.AddressRecord{}, domain.ErrCEPNotFound
	}

	return domain.AddressRecord{
		Street:       payload.Street,
		Neighborhood: payload.Neighborhood,
		City:         payload.City,
		StateCode:    payload.StateCode,
	}, nil
}
