package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(ctx context.Context, connString string) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}
	if err := client.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return client, nil
}

var postgresSchema = []struct {
	name string
	sql  string
}{
	{"clients", `
		CREATE TABLE IF NOT EXISTS clients (
			client_id BIGSERIAL PRIMARY KEY,
			client_name VARCHAR(255) UNIQUE NOT NULL,
			access_token VARCHAR(255) UNIQUE NOT NULL,
			api_base_url TEXT,
			api_token TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"conversations", `
		CREATE TABLE IF NOT EXISTS conversations (
			conversation_id BIGSERIAL PRIMARY KEY,
			client_id BIGINT NOT NULL REFERENCES clients(client_id) ON DELETE CASCADE,
			start_time TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"messages", `
		CREATE TABLE IF NOT EXISTS messages (
			message_id BIGSERIAL PRIMARY KEY,
			conversation_id BIGINT NOT NULL REFERENCES conversations(conversation_id) ON DELETE CASCADE,
			sender VARCHAR(10) NOT NULL CHECK (sender IN ('user', 'bot')),
			content TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"intents", `
		CREATE TABLE IF NOT EXISTS intents (
			intent_id BIGSERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			kind VARCHAR(32) NOT NULL DEFAULT 'generic',
			response TEXT NOT NULL DEFAULT '',
			template JSONB
		)`},
	{"intent_variations", `
		CREATE TABLE IF NOT EXISTS intent_variations (
			variation_id BIGSERIAL PRIMARY KEY,
			intent_id BIGINT NOT NULL REFERENCES intents(intent_id) ON DELETE CASCADE,
			variation TEXT NOT NULL
		)`},
	{"admin_users", `
		CREATE TABLE IF NOT EXISTS admin_users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'admin',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	// Databases created before intent kinds and per-client ERP settings existed.
	{"intents.kind", "ALTER TABLE intents ADD COLUMN IF NOT EXISTS kind VARCHAR(32) NOT NULL DEFAULT 'generic'"},
	{"intents.template", "ALTER TABLE intents ADD COLUMN IF NOT EXISTS template JSONB"},
	{"clients.api_base_url", "ALTER TABLE clients ADD COLUMN IF NOT EXISTS api_base_url TEXT"},
	{"clients.api_token", "ALTER TABLE clients ADD COLUMN IF NOT EXISTS api_token TEXT"},
	{"idx_conversations_client", "CREATE INDEX IF NOT EXISTS idx_conversations_client ON conversations (client_id, start_time DESC)"},
	{"idx_messages_conversation", "CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, timestamp)"},
	{"idx_variations_lower", "CREATE INDEX IF NOT EXISTS idx_variations_lower ON intent_variations (LOWER(TRIM(variation)))"},
}

func (p *PostgresClient) Migrate(ctx context.Context) error {
	for _, step := range postgresSchema {
		if _, err := p.Pool.Exec(ctx, step.sql); err != nil {
			return fmt.Errorf("migrate %s: %w", step.name, err)
		}
	}
	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
