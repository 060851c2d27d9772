// Package service implements the card business logic: multi-step protocols
// that keep relational card metadata and vault-held payloads mutually
// consistent without a transaction spanning the two stores.
package service

import (
	"context"
	"fmt"

	"cardvault/internal/models"
)

// CardMetadataStore defines the relational operations needed by the CardService.
type CardMetadataStore interface {
	// SecretNamesByUser returns the secret names of the user's card links
	// filtered by secret entry state, in insertion order.
	SecretNamesByUser(ctx context.Context, userID int64, state models.RecordState) ([]string, error)
	// CreateCardLink inserts a new active secret entry with the given name
	// and an active card link referencing it.
	CreateCardLink(ctx context.Context, userID int64, secretName string) error
	// DeactivateCardLink transitions the named secret entry and its card
	// links to inactive.
	DeactivateCardLink(ctx context.Context, userID int64, secretName string) error
}

// SecretVault defines the vault operations needed by the CardService.
type SecretVault interface {
	// Store writes the payload under name, creating or overwriting.
	Store(ctx context.Context, name string, payload models.CardPayload) error
	// Fetch reads and decodes the payload stored under name.
	Fetch(ctx context.Context, name string) (models.CardPayload, error)
	// Remove requests deletion of the entry under name. Removing an entry
	// that is already gone must count as success.
	Remove(ctx context.Context, name string) error
}

// NameAllocator generates vault-entry names for new cards.
type NameAllocator interface {
	// Allocate returns a new unique, non-guessable secret name.
	Allocate() string
}

// CardService coordinates card operations across the metadata store and the
// vault. The vault cannot be searched by content, so update and delete
// resolve the target entry by fetching and decoding each of the user's
// active entries in turn until the card number matches; the cost is one
// vault round trip per active card. No per-user lock is held across the
// steps of a protocol, and no card data is cached between requests.
type CardService struct {
	meta  CardMetadataStore
	vault SecretVault
	names NameAllocator
}

// NewCardService constructs a CardService from its collaborators.
func NewCardService(meta CardMetadataStore, vault SecretVault, names NameAllocator) *CardService {
	return &CardService{meta: meta, vault: vault, names: names}
}

// Store records a new card for the user and returns the vault entry name it
// was stored under. Metadata is written before the vault payload: if the
// vault write then fails, the system keeps a discoverable if payload-less
// row rather than a vault secret nobody can find. That failure is returned
// as ErrCardStore and is not retried; the caller must resubmit.
func (s *CardService) Store(ctx context.Context, userID int64, cardNumber, expiryDate string) (string, error) {
	if err := requireCard(userID, cardNumber); err != nil {
		return "", err
	}
	if expiryDate == "" {
		return "", fmt.Errorf("%w: expiry date is required", ErrValidation)
	}

	name := s.names.Allocate()

	if err := s.meta.CreateCardLink(ctx, userID, name); err != nil {
		return "", fmt.Errorf("store card: %w", err)
	}

	payload := models.CardPayload{CardNumber: cardNumber, ExpiryDate: expiryDate}
	if err := s.vault.Store(ctx, name, payload); err != nil {
		// The link row stays active with no payload behind it; the orphan
		// report is what surfaces it later.
		return "", fmt.Errorf("%w: writing payload for %q: %v", ErrCardStore, name, err)
	}
	return name, nil
}

// Update overwrites the vault payload of the user's card with the given
// number. It never changes lifecycle state. Returns false with a nil error
// when the user has no active card with that number.
func (s *CardService) Update(ctx context.Context, userID int64, cardNumber, expiryDate string) (bool, error) {
	if err := requireCard(userID, cardNumber); err != nil {
		return false, err
	}
	if expiryDate == "" {
		return false, fmt.Errorf("%w: expiry date is required", ErrValidation)
	}

	names, err := s.meta.SecretNamesByUser(ctx, userID, models.StateActive)
	if err != nil {
		return false, fmt.Errorf("update card: %w", err)
	}
	name, err := s.findByNumber(ctx, names, cardNumber)
	if err != nil {
		return false, fmt.Errorf("update card: %w", err)
	}
	if name == "" {
		return false, nil
	}

	payload := models.CardPayload{CardNumber: cardNumber, ExpiryDate: expiryDate}
	if err := s.vault.Store(ctx, name, payload); err != nil {
		return false, fmt.Errorf("update card: %w", err)
	}
	return true, nil
}

// Delete deactivates the user's card with the given number. Vault removal is
// requested before the metadata is deactivated: if deactivation then fails,
// a retried Delete finds the same still-active link, re-issues the
// idempotent removal, and retries deactivation. The reverse order would
// leave an inactive link whose payload nothing ever targets again.
// Returns false with a nil error when the user has no active card with
// that number.
func (s *CardService) Delete(ctx context.Context, userID int64, cardNumber string) (bool, error) {
	if err := requireCard(userID, cardNumber); err != nil {
		return false, err
	}

	names, err := s.meta.SecretNamesByUser(ctx, userID, models.StateActive)
	if err != nil {
		return false, fmt.Errorf("delete card: %w", err)
	}
	name, err := s.findByNumber(ctx, names, cardNumber)
	if err != nil {
		return false, fmt.Errorf("delete card: %w", err)
	}
	if name == "" {
		return false, nil
	}

	if err := s.vault.Remove(ctx, name); err != nil {
		return false, fmt.Errorf("delete card: %w", err)
	}
	if err := s.meta.DeactivateCardLink(ctx, userID, name); err != nil {
		return false, fmt.Errorf("delete card: %w", err)
	}
	return true, nil
}

// FetchAll returns the payloads of all the user's active cards in insertion
// order. A fetch failure on any single entry fails the whole call with
// ErrCardFetch: a partial list could not be told apart from a complete one.
func (s *CardService) FetchAll(ctx context.Context, userID int64) ([]models.CardPayload, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	names, err := s.meta.SecretNamesByUser(ctx, userID, models.StateActive)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCardFetch, err)
	}

	cards := make([]models.CardPayload, 0, len(names))
	for _, name := range names {
		payload, err := s.vault.Fetch(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %q: %v", ErrCardFetch, name, err)
		}
		cards = append(cards, payload)
	}
	return cards, nil
}

// findByNumber scans names in order, fetching and decoding each payload, and
// returns the first name whose card number matches. Returns "" when none do.
func (s *CardService) findByNumber(ctx context.Context, names []string, cardNumber string) (string, error) {
	for _, name := range names {
		payload, err := s.vault.Fetch(ctx, name)
		if err != nil {
			return "", err
		}
		if payload.CardNumber == cardNumber {
			return name, nil
		}
	}
	return "", nil
}

// requireCard checks the inputs every card protocol needs before any store
// or vault call is made.
func requireCard(userID int64, cardNumber string) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if cardNumber == "" {
		return fmt.Errorf("%w: card number is required", ErrValidation)
	}
	return nil
}
