package repository

import (
	"chatbot_erp/internal/entities"
	"chatbot_erp/internal/interfaces"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements interfaces.Store on database/sql with the modernc
// driver. Timestamps are stored as Unix nanoseconds.
type SQLiteStore struct {
	conn *sql.DB
	db   sqlQuerier
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{conn: db, db: db}
}

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx interfaces.Store) error) error {
	return s.inTx(ctx, func(tx *SQLiteStore) error { return fn(tx) })
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *SQLiteStore) error) error {
	if s.conn == nil {
		return fn(s)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLiteStore{db: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	return s.conn.PingContext(ctx)
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func (s *SQLiteStore) GetTenantByToken(ctx context.Context, token string) (*entities.Tenant, error) {
	var (
		t       entities.Tenant
		created int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT client_id, client_name, access_token,
		       COALESCE(api_base_url, ''), COALESCE(api_token, ''), created_at
		FROM clients WHERE access_token = ?`, token).
		Scan(&t.ID, &t.Name, &t.AccessToken, &t.ERP.BaseURL, &t.ERP.Token, &created)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.CreatedAt = fromNanos(created)
	return &t, nil
}

func (s *SQLiteStore) LatestConversation(ctx context.Context, tenantID int64) (*entities.Conversation, error) {
	var (
		c       entities.Conversation
		started int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT conversation_id, client_id, start_time
		FROM conversations
		WHERE client_id = ?
		ORDER BY start_time DESC, conversation_id DESC
		LIMIT 1`, tenantID).Scan(&c.ID, &c.TenantID, &started)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.StartedAt = fromNanos(started)
	return &c, nil
}

func (s *SQLiteStore) HasMessageSince(ctx context.Context, conversationID int64, since time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM messages WHERE conversation_id = ? AND timestamp > ?
		)`, conversationID, since.UnixNano()).Scan(&exists)
	return exists, err
}

func (s *SQLiteStore) CreateConversation(ctx context.Context, tenantID int64, startedAt time.Time) (*entities.Conversation, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO conversations (client_id, start_time) VALUES (?, ?)", tenantID, startedAt.UnixNano())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &entities.Conversation{ID: id, TenantID: tenantID, StartedAt: startedAt}, nil
}

func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *entities.Message) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (conversation_id, sender, content, timestamp) VALUES (?, ?, ?, ?)",
		msg.ConversationID, string(msg.Sender), msg.Content, msg.Timestamp.UnixNano())
	if err != nil {
		return err
	}
	msg.ID, err = res.LastInsertId()
	return err
}

func scanSQLiteIntent(scan func(dest ...any) error) (*entities.Intent, error) {
	var (
		it   entities.Intent
		kind string
		doc  sql.NullString
	)
	if err := scan(&it.ID, &it.Title, &kind, &it.Response, &doc); err != nil {
		return nil, err
	}
	it.Kind = entities.IntentKind(kind)

	tmpl, err := decodeTemplate([]byte(doc.String))
	if err != nil {
		return nil, fmt.Errorf("intent %d: %w", it.ID, err)
	}
	it.Template = tmpl
	return &it, nil
}

func (s *SQLiteStore) ListIntents(ctx context.Context) ([]entities.Intent, error) {
	rows, err := s.db.QueryContext(ctx, selectIntents+" ORDER BY intent_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intents []entities.Intent
	for rows.Next() {
		it, err := scanSQLiteIntent(rows.Scan)
		if err != nil {
			return nil, err
		}
		intents = append(intents, *it)
	}
	return intents, rows.Err()
}

func (s *SQLiteStore) GetIntent(ctx context.Context, id int64) (*entities.Intent, error) {
	it, err := scanSQLiteIntent(s.db.QueryRowContext(ctx, selectIntents+" WHERE intent_id = ?", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT variation_id, intent_id, variation FROM intent_variations WHERE intent_id = ? ORDER BY variation_id", id)
	if err != nil {
		return nil, err
	}
	it.Variations, err = collectSQLiteVariations(rows)
	return it, err
}

func (s *SQLiteStore) ListVariations(ctx context.Context) ([]entities.Variation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT variation_id, intent_id, variation FROM intent_variations ORDER BY variation_id")
	if err != nil {
		return nil, err
	}
	return collectSQLiteVariations(rows)
}

func collectSQLiteVariations(rows *sql.Rows) ([]entities.Variation, error) {
	defer rows.Close()
	var out []entities.Variation
	for rows.Next() {
		var v entities.Variation
		if err := rows.Scan(&v.ID, &v.IntentID, &v.Text); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// FindIntentIDByVariation compares with Go-lowercased text; SQLite's LOWER only
// folds ASCII, so stored variations are expected to be lowercase already.
func (s *SQLiteStore) FindIntentIDByVariation(ctx context.Context, text string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT intent_id FROM intent_variations
		WHERE LOWER(TRIM(variation)) = ?
		ORDER BY variation_id LIMIT 1`, text).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *SQLiteStore) CreateIntent(ctx context.Context, intent *entities.Intent, variations []string) error {
	doc, err := encodeTemplate(intent.Template)
	if err != nil {
		return err
	}
	var template sql.NullString
	if doc != nil {
		template = sql.NullString{String: string(doc), Valid: true}
	}

	return s.inTx(ctx, func(tx *SQLiteStore) error {
		res, err := tx.db.ExecContext(ctx,
			"INSERT INTO intents (title, kind, response, template) VALUES (?, ?, ?, ?)",
			intent.Title, string(intent.Kind), intent.Response, template)
		if err != nil {
			return fmt.Errorf("insert intent: %w", err)
		}
		if intent.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		intent.Variations = intent.Variations[:0]
		for _, text := range variations {
			res, err := tx.db.ExecContext(ctx,
				"INSERT INTO intent_variations (intent_id, variation) VALUES (?, ?)", intent.ID, text)
			if err != nil {
				return fmt.Errorf("insert variation %q: %w", text, err)
			}
			v := entities.Variation{IntentID: intent.ID, Text: text}
			if v.ID, err = res.LastInsertId(); err != nil {
				return err
			}
			intent.Variations = append(intent.Variations, v)
		}
		return nil
	})
}

func (s *SQLiteStore) DeleteIntent(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM intents WHERE intent_id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLiteStore) UnansweredQuestions(ctx context.Context, fallback string, limit int) ([]entities.UnansweredQuestion, error) {
	rows, err := s.db.QueryContext(ctx, sqliteUnansweredQuery, fallback, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entities.UnansweredQuestion
	for rows.Next() {
		var (
			q     entities.UnansweredQuestion
			asked int64
		)
		if err := rows.Scan(&asked, &q.TenantName, &q.Question); err != nil {
			return nil, err
		}
		q.AskedAt = fromNanos(asked)
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Engagement(ctx context.Context, fallback string) ([]entities.ClientEngagement, error) {
	rows, err := s.db.QueryContext(ctx, sqliteEngagementQuery, fallback)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entities.ClientEngagement
	for rows.Next() {
		var e entities.ClientEngagement
		if err := rows.Scan(&e.TenantName, &e.Conversations, &e.Messages, &e.BotReplies, &e.Fallbacks); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateAdminUser(ctx context.Context, user *entities.AdminUser) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO admin_users (username, password_hash, role) VALUES (?, ?, ?)",
		user.Username, user.PasswordHash, user.Role)
	if err != nil {
		return err
	}
	user.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) GetAdminUserByUsername(ctx context.Context, username string) (*entities.AdminUser, error) {
	var user entities.AdminUser
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, role FROM admin_users WHERE username = ?",
		username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
