package repository

import (
	"chatbot_erp/internal/entities"
	"chatbot_erp/internal/interfaces"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ interfaces.Store = (*PostgresStore)(nil)
	_ interfaces.Store = (*SQLiteStore)(nil)
)

// PostgresStore implements interfaces.Store on a pgx pool. A store returned
// inside WithTx has no pool and runs everything on the transaction.
type PostgresStore struct {
	pool *pgxpool.Pool
	db   querier
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, db: pool}
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx interfaces.Store) error) error {
	return s.inTx(ctx, func(tx *PostgresStore) error { return fn(tx) })
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *PostgresStore) error) error {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&PostgresStore{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

func encodeTemplate(tmpl *entities.ResponseTemplate) ([]byte, error) {
	if tmpl == nil {
		return nil, nil
	}
	return json.Marshal(tmpl)
}

func decodeTemplate(doc []byte) (*entities.ResponseTemplate, error) {
	if len(doc) == 0 || string(doc) == "null" {
		return nil, nil
	}
	var tmpl entities.ResponseTemplate
	if err := json.Unmarshal(doc, &tmpl); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	return &tmpl, nil
}
