// Package repository provides persistence implementations for card and user
// metadata using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cardvault/internal/models"
)

var (
	// ErrMetadataRead is returned when a relational read fails.
	ErrMetadataRead = errors.New("metadata read failed")
	// ErrMetadataWrite is returned when a relational write fails.
	ErrMetadataWrite = errors.New("metadata write failed")
)

// PostgresCardRepository implements card metadata operations against a
// PostgreSQL database. It manipulates only relational rows and has no
// vault awareness; each method runs its own local statements with no
// transaction spanning the vault.
type PostgresCardRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresCardRepository creates a new PostgresCardRepository using the
// provided *sql.DB. db must be a valid connection to a PostgreSQL instance.
func NewPostgresCardRepository(db *sql.DB) *PostgresCardRepository {
	return &PostgresCardRepository{DB: db}
}

// SecretNamesByUser returns the secret names of all card links belonging to
// the given user whose secret entry is in the given state, in insertion
// order. Ordering is not guaranteed stable across concurrent inserts.
//
//	ctx:    context for cancellation and deadlines
//	userID: identifier of the owning user
//	state:  lifecycle state to filter on
func (r *PostgresCardRepository) SecretNamesByUser(ctx context.Context, userID int64, state models.RecordState) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT se.secret_name FROM card_links cl
		JOIN secret_entries se ON cl.secret_entry_id = se.id
		WHERE cl.user_id = $1 AND se.state = $2
		ORDER BY cl.id
	`, userID, state)
	if err != nil {
		return nil, fmt.Errorf("select secret names: %w: %v", ErrMetadataRead, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan secret name: %w: %v", ErrMetadataRead, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate secret names: %w: %v", ErrMetadataRead, err)
	}
	return names, nil
}

// CreateCardLink inserts a new active secret entry with the given name and
// a new active card link referencing it, as two statements. If the entry
// insert succeeds and the link insert fails, the entry row stays orphaned;
// the orphan report surfaces it, it is not masked here.
func (r *PostgresCardRepository) CreateCardLink(ctx context.Context, userID int64, secretName string) error {
	var entryID int64
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO secret_entries (secret_name, state) VALUES ($1, $2) RETURNING id
	`, secretName, models.StateActive).Scan(&entryID)
	if err != nil {
		return fmt.Errorf("insert secret entry: %w: %v", ErrMetadataWrite, err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO card_links (user_id, secret_entry_id, state) VALUES ($1, $2, $3)
	`, userID, entryID, models.StateActive)
	if err != nil {
		return fmt.Errorf("insert card link: %w: %v", ErrMetadataWrite, err)
	}
	return nil
}

// DeactivateCardLink transitions the secret entry identified by secretName
// to inactive, then transitions the card links referencing it to inactive.
// The same partial-failure exposure as CreateCardLink applies between the
// two updates.
func (r *PostgresCardRepository) DeactivateCardLink(ctx context.Context, userID int64, secretName string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE secret_entries SET state = $1, modified_at = now() WHERE secret_name = $2
	`, models.StateInactive, secretName)
	if err != nil {
		return fmt.Errorf("deactivate secret entry: %w: %v", ErrMetadataWrite, err)
	}

	var entryID int64
	err = r.DB.QueryRowContext(ctx, `
		SELECT id FROM secret_entries WHERE secret_name = $1
	`, secretName).Scan(&entryID)
	if err != nil {
		return fmt.Errorf("select secret entry id: %w: %v", ErrMetadataRead, err)
	}

	_, err = r.DB.ExecContext(ctx, `
		UPDATE card_links SET state = $1, modified_at = now() WHERE secret_entry_id = $2 AND user_id = $3
	`, models.StateInactive, entryID, userID)
	if err != nil {
		return fmt.Errorf("deactivate card link: %w: %v", ErrMetadataWrite, err)
	}
	return nil
}
