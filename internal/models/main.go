// Package models defines the core data structures for users, card metadata,
// and vault-held card payloads.
package models

import "time"

// RecordState is the lifecycle state of a relational record.
// Records are never physically deleted; they transition from
// StateActive to StateInactive exactly once.
type RecordState string

const (
	// StateActive marks a live record.
	StateActive RecordState = "active"
	// StateInactive marks a soft-deleted record. Terminal.
	StateInactive RecordState = "inactive"
)

// User represents an application user that may own cards.
type User struct {
	// ID is the store-assigned unique identifier for the user.
	ID int64 `json:"userId"`
	// Name is the display name of the user.
	Name string `json:"userName"`
	// Email is the contact address of the user.
	Email string `json:"emailAddress"`
	// State is the lifecycle state of the user record.
	State RecordState `json:"state"`
	// CreatedAt is when the record was inserted.
	CreatedAt time.Time `json:"createdAt"`
	// ModifiedAt is when the record was last changed.
	ModifiedAt time.Time `json:"modifiedAt"`
}

// SecretEntry tracks the lifecycle of one vault-held payload.
// One row exists for every vault entry ever created, preserving an
// audit trail independent of the vault deletion outcome.
type SecretEntry struct {
	// ID is the store-assigned identifier.
	ID int64
	// Name is the opaque vault-facing key. Immutable and globally unique.
	Name string
	// State is the lifecycle state of the entry.
	State RecordState
	// CreatedAt is when the record was inserted.
	CreatedAt time.Time
	// ModifiedAt is when the record was last changed.
	ModifiedAt time.Time
}

// CardLink ties a user to the SecretEntry under which that user's
// card payload lives.
type CardLink struct {
	// ID is the store-assigned identifier.
	ID int64
	// UserID references the owning user.
	UserID int64
	// SecretEntryID references the SecretEntry holding the payload name.
	SecretEntryID int64
	// State is the lifecycle state of the link.
	State RecordState
	// CreatedAt is when the record was inserted.
	CreatedAt time.Time
	// ModifiedAt is when the record was last changed.
	ModifiedAt time.Time
}

// CardPayload is the sensitive card data held in the vault.
// It is never written to the relational store in any form.
type CardPayload struct {
	// CardNumber is the primary account number.
	CardNumber string `json:"cardNumber"`
	// ExpiryDate is the expiry in MM/YY format.
	ExpiryDate string `json:"expiryDate"`
}
