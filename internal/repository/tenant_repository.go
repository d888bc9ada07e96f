package repository

import (
	"chatbot_erp/internal/entities"
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (s *PostgresStore) GetTenantByToken(ctx context.Context, token string) (*entities.Tenant, error) {
	var t entities.Tenant
	err := s.db.QueryRow(ctx, `
		SELECT client_id, client_name, access_token,
		       COALESCE(api_base_url, ''), COALESCE(api_token, ''), created_at
		FROM clients WHERE access_token = $1`, token).
		Scan(&t.ID, &t.Name, &t.AccessToken, &t.ERP.BaseURL, &t.ERP.Token, &t.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
