package repository

import (
	"chatbot_erp/internal/entities"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const selectIntents = `SELECT intent_id, title, kind, response, template FROM intents`

func scanIntent(row pgx.Row) (*entities.Intent, error) {
	var (
		it   entities.Intent
		kind string
		doc  []byte
	)
	if err := row.Scan(&it.ID, &it.Title, &kind, &it.Response, &doc); err != nil {
		return nil, err
	}
	it.Kind = entities.IntentKind(kind)

	tmpl, err := decodeTemplate(doc)
	if err != nil {
		return nil, fmt.Errorf("intent %d: %w", it.ID, err)
	}
	it.Template = tmpl
	return &it, nil
}

func (s *PostgresStore) ListIntents(ctx context.Context) ([]entities.Intent, error) {
	rows, err := s.db.Query(ctx, selectIntents+" ORDER BY intent_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intents []entities.Intent
	for rows.Next() {
		it, err := scanIntent(rows)
		if err != nil {
			return nil, err
		}
		intents = append(intents, *it)
	}
	return intents, rows.Err()
}

func (s *PostgresStore) GetIntent(ctx context.Context, id int64) (*entities.Intent, error) {
	it, err := scanIntent(s.db.QueryRow(ctx, selectIntents+" WHERE intent_id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		"SELECT variation_id, intent_id, variation FROM intent_variations WHERE intent_id = $1 ORDER BY variation_id", id)
	if err != nil {
		return nil, err
	}
	it.Variations, err = collectVariations(rows)
	return it, err
}

func (s *PostgresStore) ListVariations(ctx context.Context) ([]entities.Variation, error) {
	rows, err := s.db.Query(ctx,
		"SELECT variation_id, intent_id, variation FROM intent_variations ORDER BY variation_id")
	if err != nil {
		return nil, err
	}
	return collectVariations(rows)
}

func collectVariations(rows pgx.Rows) ([]entities.Variation, error) {
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

func (s *PostgresStore) FindIntentIDByVariation(ctx context.Context, text string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		SELECT intent_id FROM intent_variations
		WHERE LOWER(TRIM(variation)) = $1
		ORDER BY variation_id LIMIT 1`, text).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *PostgresStore) CreateIntent(ctx context.Context, intent *entities.Intent, variations []string) error {
	doc, err := encodeTemplate(intent.Template)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *PostgresStore) error {
		err := tx.db.QueryRow(ctx,
			"INSERT INTO intents (title, kind, response, template) VALUES ($1, $2, $3, $4) RETURNING intent_id",
			intent.Title, string(intent.Kind), intent.Response, doc).Scan(&intent.ID)
		if err != nil {
			return fmt.Errorf("insert intent: %w", err)
		}

		intent.Variations = intent.Variations[:0]
		for _, text := range variations {
			v := entities.Variation{IntentID: intent.ID, Text: text}
			err := tx.db.QueryRow(ctx,
				"INSERT INTO intent_variations (intent_id, variation) VALUES ($1, $2) RETURNING variation_id",
				intent.ID, text).Scan(&v.ID)
			if err != nil {
				return fmt.Errorf("insert variation %q: %w", text, err)
			}
			intent.Variations = append(intent.Variations, v)
		}
		return nil
	})
}

// DeleteIntent removes the intent; its variations go with it through the foreign key.
func (s *PostgresStore) DeleteIntent(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Exec(ctx, "DELETE FROM intents WHERE intent_id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
