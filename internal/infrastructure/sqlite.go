package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// SQLiteClient is the single-node alternative to PostgresClient.
type SQLiteClient struct {
	DB *sql.DB
}

func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = "file:" + path
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// Every connection would get its own empty in-memory database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	client := &SQLiteClient{DB: db}
	if err := client.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return client, nil
}

// Timestamps are stored as Unix nanoseconds so range comparisons stay numeric.
var sqliteSchema = []struct {
	name string
	sql  string
}{
	{"clients", `
		CREATE TABLE IF NOT EXISTS clients (
			client_id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_name TEXT UNIQUE NOT NULL,
			access_token TEXT UNIQUE NOT NULL,
			api_base_url TEXT,
			api_token TEXT,
			created_at INTEGER NOT NULL DEFAULT 0
		)`},
	{"conversations", `
		CREATE TABLE IF NOT EXISTS conversations (
			conversation_id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_id INTEGER NOT NULL REFERENCES clients(client_id) ON DELETE CASCADE,
			start_time INTEGER NOT NULL
		)`},
	{"messages", `
		CREATE TABLE IF NOT EXISTS messages (
			message_id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER NOT NULL REFERENCES conversations(conversation_id) ON DELETE CASCADE,
			sender TEXT NOT NULL CHECK (sender IN ('user', 'bot')),
			content TEXT NOT NULL,
			timestamp INTEGER NOT NULL
		)`},
	{"intents", `
		CREATE TABLE IF NOT EXISTS intents (
			intent_id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT 'generic',
			response TEXT NOT NULL DEFAULT '',
			template TEXT
		)`},
	{"intent_variations", `
		CREATE TABLE IF NOT EXISTS intent_variations (
			variation_id INTEGER PRIMARY KEY AUTOINCREMENT,
			intent_id INTEGER NOT NULL REFERENCES intents(intent_id) ON DELETE CASCADE,
			variation TEXT NOT NULL
		)`},
	{"admin_users", `
		CREATE TABLE IF NOT EXISTS admin_users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'admin'
		)`},
	{"idx_conversations_client", "CREATE INDEX IF NOT EXISTS idx_conversations_client ON conversations (client_id, start_time)"},
	{"idx_messages_conversation", "CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, timestamp)"},
	{"idx_variations_text", "CREATE INDEX IF NOT EXISTS idx_variations_text ON intent_variations (variation)"},
}

func (c *SQLiteClient) Migrate(ctx context.Context) error {
	for _, step := range sqliteSchema {
		if _, err := c.DB.ExecContext(ctx, step.sql); err != nil {
			return fmt.Errorf("migrate %s: %w", step.name, err)
		}
	}
	return nil
}

func (c *SQLiteClient) Close() error {
	return c.DB.Close()
}
