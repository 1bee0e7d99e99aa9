// internal/adapters/repository/postgres.go
package repository

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/pizzaria/checkout-backend/internal/domain"
	"github.com/pizzaria/checkout-backend/internal/ports"
)

// PostgresRepository reads the single store configuration record. Write
// access lives with the store admin tooling, not here.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) ports.StoreConfigPort {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Load(ctx context.Context) (domain.StoreConfig, error) {
	var cfg domain.StoreConfig
	var contact sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT nome, whatsapp, taxa_entrega, valor_minimo FROM pizzaria_config LIMIT 1",
	).Scan(&cfg.Name, &contact, &cfg.DeliveryFee, &cfg.MinimumOrderValue)
	if err != nil {
		return domain.StoreConfig{}, err
	}
	cfg.Contact = contact.String
	return cfg, nil
}
