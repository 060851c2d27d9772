package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cardvault/internal/models"
)

// PostgresUserRepository implements user record operations against a
// PostgreSQL database. User rows follow the same soft-delete lifecycle
// as card metadata: they are deactivated, never removed.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository using the
// provided *sql.DB.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// CreateUser inserts a new active user record and returns it with the
// store-assigned id and timestamps populated.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, name, email string) (models.User, error) {
	user := models.User{Name: name, Email: email, State: models.StateActive}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (user_name, email_address, state) VALUES ($1, $2, $3)
		RETURNING id, created_at, modified_at
	`, name, email, models.StateActive).Scan(&user.ID, &user.CreatedAt, &user.ModifiedAt)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w: %v", ErrMetadataWrite, err)
	}
	return user, nil
}

// UserByID returns the active user with the given id, or nil when no such
// user exists.
func (r *PostgresUserRepository) UserByID(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_name, email_address, state, created_at, modified_at
		FROM users WHERE id = $1 AND state = $2
	`, userID, models.StateActive).Scan(
		&user.ID, &user.Name, &user.Email, &user.State, &user.CreatedAt, &user.ModifiedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w: %v", ErrMetadataRead, err)
	}
	return &user, nil
}

// UpdateUser changes the name and email of the user with the given id.
// Returns false when no active user matched.
func (r *PostgresUserRepository) UpdateUser(ctx context.Context, userID int64, name, email string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET user_name = $1, email_address = $2, modified_at = now()
		WHERE id = $3 AND state = $4
	`, name, email, userID, models.StateActive)
	if err != nil {
		return false, fmt.Errorf("update user: %w: %v", ErrMetadataWrite, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update user rows: %w: %v", ErrMetadataWrite, err)
	}
	return rows == 1, nil
}

// DeactivateUser transitions the user record to inactive.
// Returns false when no active user matched.
func (r *PostgresUserRepository) DeactivateUser(ctx context.Context, userID int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET state = $1, modified_at = now() WHERE id = $2 AND state = $3
	`, models.StateInactive, userID, models.StateActive)
	if err != nil {
		return false, fmt.Errorf("deactivate user: %w: %v", ErrMetadataWrite, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deactivate user rows: %w: %v", ErrMetadataWrite, err)
	}
	return rows == 1, nil
}
