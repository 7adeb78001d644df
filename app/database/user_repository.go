package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

var _ UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// UpsertUser creates the user if missing and returns the user ID either way.
func (r *UserRepo) UpsertUser(ctx context.Context, name string) (string, error) {
	existing, err := r.GetUserByName(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, name) VALUES (?, ?)
	`, id, name)
	if err != nil {
		return "", fmt.Errorf("failed to insert user: %w", err)
	}

	return id, nil
}

func (r *UserRepo) GetUserByName(ctx context.Context, name string) (*User, error) {
	var user User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at FROM users WHERE name = ?
	`, name).Scan(&user.ID, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *UserRepo) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at FROM users ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Name, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}
