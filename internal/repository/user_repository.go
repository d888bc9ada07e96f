package repository

import (
	"chatbot_erp/internal/entities"
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (s *PostgresStore) CreateAdminUser(ctx context.Context, user *entities.AdminUser) error {
	return s.db.QueryRow(ctx,
		"INSERT INTO admin_users (username, password_hash, role) VALUES ($1, $2, $3) RETURNING id",
		user.Username, user.PasswordHash, user.Role).Scan(&user.ID)
}

func (s *PostgresStore) GetAdminUserByUsername(ctx context.Context, username string) (*entities.AdminUser, error) {
	var user entities.AdminUser
	err := s.db.QueryRow(ctx,
		"SELECT id, username, password_hash, role FROM admin_users WHERE username = $1",
		username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
