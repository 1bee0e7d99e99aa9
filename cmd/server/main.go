// cmd/server/main.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	httpadapter "github.com/pizzaria/checkout-backend/internal/adapters/http"
	"github.com/pizzaria/checkout-backend/internal/adapters/redis"
	"github.com/pizzaria/checkout-backend/internal/adapters/repository"
	"github.com/pizzaria/checkout-backend/internal/adapters/viacep"
	"github.com/pizzaria/checkout-backend/internal/adapters/whatsapp"
	"github.com/pizzaria/checkout-backend/internal/application"
	"github.com/pizzaria/checkout-backend/internal/logger"
	"github.com/pizzaria/checkout-backend/internal/ports"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := godotenv.Load(); err != nil {
		log.Debugw("no .env file loaded", "error", err)
	}

	ctx := context.Background()

	// Store config backend. A missing or broken database is not fatal:
	// checkout falls back to the default configuration.
	var cfgPort ports.StoreConfigPort
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))
	db, err := sql.Open("postgres", dsn)
	if err == nil {
		err = db.Ping()
	}
	if err != nil {
		log.Warnw("store config database unavailable, defaults will apply", "error", err)
	} else {
		defer db.Close()
		initDB(db, log)
		cfgPort = repository.NewPostgresRepository(db)
	}

	// Redis is optional too; without it lookups just skip the cache.
	var cache ports.CachePort
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr != "" {
		r := redis.NewCache(redisAddr, os.Getenv("REDIS_USERNAME"), os.Getenv("REDIS_PASSWORD"), 0, 5*time.Minute)
		if err := r.Ping(ctx); err != nil {
			log.Warnw("redis unavailable, running without cache", "error", err)
		} else {
			cache = r
		}
	}

	dispatcher := whatsapp.NewDispatcher(whatsapp.NewBrowserOpener(), log)
	svc := application.NewCheckoutService(ctx, cfgPort, viacep.NewClient(os.Getenv("VIACEP_BASE_URL")), cache, dispatcher, log)

	handler := httpadapter.NewCheckoutHandler(svc, log)
	router := httpadapter.NewRouter(handler)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Infow("checkout server listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}

func initDB(db *sql.DB, log *logger.Logger) {
	query := `CREATE TABLE IF NOT EXISTS pizzaria_config (
		id SERIAL PRIMARY KEY,
		nome VARCHAR(255) NOT NULL,
		whatsapp VARCHAR(20),
		taxa_entrega FLOAT NOT NULL,
		valor_minimo FLOAT NOT NULL
	)`
	if _, err := db.Exec(query); err != nil {
		log.Warnw("failed to init config table", "error", err)
	}
}
