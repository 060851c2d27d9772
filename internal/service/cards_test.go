package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cardvault/internal/models"
	"cardvault/internal/service"
)

// memStores is an in-memory stand-in for the metadata store and the vault,
// so protocol outcomes can be checked against both sides at once.
type memStores struct {
	// links maps userID to secret names in insertion order.
	links map[int64][]memLink
	// payloads is the vault namespace.
	payloads map[string]models.CardPayload

	metaCalls   int
	vaultStores int
	vaultFetch  int
	removed     []string

	failVaultStore     bool
	failVaultFetchName string
	failDeactivate     bool
}

type memLink struct {
	name  string
	state models.RecordState
}

func newMemStores() *memStores {
	return &memStores{
		links:    make(map[int64][]memLink),
		payloads: make(map[string]models.CardPayload),
	}
}

func (m *memStores) SecretNamesByUser(_ context.Context, userID int64, state models.RecordState) ([]string, error) {
	m.metaCalls++
	var names []string
	for _, l := range m.links[userID] {
		if l.state == state {
			names = append(names, l.name)
		}
	}
	return names, nil
}

func (m *memStores) CreateCardLink(_ context.Context, userID int64, secretName string) error {
	m.metaCalls++
	m.links[userID] = append(m.links[userID], memLink{name: secretName, state: models.StateActive})
	return nil
}

func (m *memStores) DeactivateCardLink(_ context.Context, userID int64, secretName string) error {
	m.metaCalls++
	if m.failDeactivate {
		return errors.New("deactivate fail")
	}
	for i, l := range m.links[userID] {
		if l.name == secretName {
			m.links[userID][i].state = models.StateInactive
		}
	}
	return nil
}

func (m *memStores) Store(_ context.Context, name string, payload models.CardPayload) error {
	m.vaultStores++
	if m.failVaultStore {
		return errors.New("vault down")
	}
	m.payloads[name] = payload
	return nil
}

func (m *memStores) Fetch(_ context.Context, name string) (models.CardPayload, error) {
	m.vaultFetch++
	if m.failVaultFetchName == name {
		return models.CardPayload{}, errors.New("vault down")
	}
	payload, ok := m.payloads[name]
	if !ok {
		return models.CardPayload{}, fmt.Errorf("secret %q not found", name)
	}
	return payload, nil
}

func (m *memStores) Remove(_ context.Context, name string) error {
	m.removed = append(m.removed, name)
	delete(m.payloads, name)
	return nil
}

func (m *memStores) activeLinks(userID int64) int {
	n := 0
	for _, l := range m.links[userID] {
		if l.state == models.StateActive {
			n++
		}
	}
	return n
}

// seqAllocator hands out predictable names for assertions.
type seqAllocator struct {
	n int
}

func (a *seqAllocator) Allocate() string {
	a.n++
	return fmt.Sprintf("creditcard-%04d", a.n)
}

func newCardService(m *memStores) *service.CardService {
	return service.NewCardService(m, m, &seqAllocator{})
}

func TestStore_RoundTrip(t *testing.T) {
	m := newMemStores()
	svc := newCardService(m)

	name, err := svc.Store(context.Background(), 1, "4111111111111112", "12/30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name == "" {
		t.Fatal("expected a secret name")
	}

	cards, err := svc.FetchAll(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}
	want := models.CardPayload{CardNumber: "4111111111111112", ExpiryDate: "12/30"}
	if cards[0] != want {
		t.Errorf("card = %+v; want %+v", cards[0], want)
	}
}

func TestStore_ZeroUserIDFailsBeforeAnyCall(t *testing.T) {
	m := newMemStores()
	svc := newCardService(m)

	_, err := svc.Store(context.Background(), 0, "4111111111111112", "12/30")
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if m.metaCalls != 0 || m.vaultStores != 0 || m.vaultFetch != 0 {
		t.Errorf("expected no store/vault calls, got meta=%d store=%d fetch=%d",
			m.metaCalls, m.vaultStores, m.vaultFetch)
	}
}

func TestStore_EmptyFields(t *testing.T) {
	svc := newCardService(newMemStores())

	if _, err := svc.Store(context.Background(), 1, "", "12/30"); !errors.Is(err, service.ErrValidation) {
		t.Errorf("empty card number: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Store(context.Background(), 1, "4111111111111112", ""); !errors.Is(err, service.ErrValidation) {
		t.Errorf("empty expiry: expected ErrValidation, got %v", err)
	}
}

// A vault write failure after the metadata insert leaves an active link with
// no payload behind it. The call fails with ErrCardStore, and a later
// FetchAll must fail loudly rather than return a silently incomplete list.
func TestStore_VaultFailureLeavesOrphanedLink(t *testing.T) {
	m := newMemStores()
	m.failVaultStore = true
	svc := newCardService(m)

	_, err := svc.Store(context.Background(), 1, "4111111111111112", "12/30")
	if !errors.Is(err, service.ErrCardStore) {
		t.Fatalf("expected ErrCardStore, got %v", err)
	}
	if m.activeLinks(1) != 1 {
		t.Fatalf("expected the orphaned link to stay active, got %d active links", m.activeLinks(1))
	}

	m.failVaultStore = false
	if _, err := svc.FetchAll(context.Background(), 1); !errors.Is(err, service.ErrCardFetch) {
		t.Errorf("expected ErrCardFetch for the orphaned link, got %v", err)
	}
}

func TestUpdate_MatchesSecondCardAndStops(t *testing.T) {
	m := newMemStores()
	svc := newCardService(m)

	numbers := []string{"4111111111111112", "5555555555554444", "4012888888881881"}
	for _, n := range numbers {
		if _, err := svc.Store(context.Background(), 1, n, "01/29"); err != nil {
			t.Fatalf("store %s: %v", n, err)
		}
	}

	m.vaultFetch = 0
	updated, err := svc.Update(context.Background(), 1, "5555555555554444", "11/31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated {
		t.Fatal("expected a match")
	}
	// The scan stops at the first match.
	if m.vaultFetch != 2 {
		t.Errorf("expected 2 fetches during scan, got %d", m.vaultFetch)
	}

	cards, err := svc.FetchAll(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(cards))
	}
	if cards[1].ExpiryDate != "11/31" {
		t.Errorf("second card expiry = %s; want 11/31", cards[1].ExpiryDate)
	}
	if cards[0].ExpiryDate != "01/29" || cards[2].ExpiryDate != "01/29" {
		t.Errorf("other cards must be untouched: %+v", cards)
	}
}

// Applying the same update twice leaves one link with the latest payload,
// never two.
func TestUpdate_IdempotentInEffect(t *testing.T) {
	m := newMemStores()
	svc := newCardService(m)

	if _, err := svc.Store(context.Background(), 1, "4111111111111112", "12/30"); err != nil {
		t.Fatalf("store: %v", err)
	}
	for i := 0; i < 2; i++ {
		updated, err := svc.Update(context.Background(), 1, "4111111111111112", "06/32")
		if err != nil || !updated {
			t.Fatalf("update %d: updated=%v err=%v", i, updated, err)
		}
	}

	cards, err := svc.FetchAll(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}
	if cards[0].ExpiryDate != "06/32" {
		t.Errorf("expiry = %s; want 06/32", cards[0].ExpiryDate)
	}
}

func TestUpdate_NoMatchIsNotAnError(t *testing.T) {
	m := newMemStores()
	svc := newCardService(m)

	if _, err := svc.Store(context.Background(), 1, "4111111111111112", "12/30"); err != nil {
		t.Fatalf("store: %v", err)
	}

	updated, err := svc.Update(context.Background(), 1, "4012888888881881", "06/32")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated {
		t.Error("expected no match")
	}
}

func TestDelete_MiddleOfThree(t *testing.T) {
	m := newMemStores()
	svc := newCardService(m)

	numbers := []string{"4111111111111112", "5555555555554444", "4012888888881881"}
	for _, n := range numbers {
		if _, err := svc.Store(context.Background(), 1, n, "01/29"); err != nil {
			t.Fatalf("store %s: %v", n, err)
		}
	}

	deleted, err := svc.Delete(context.Background(), 1, "5555555555554444")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatal("expected a match")
	}

	if m.activeLinks(1) != 2 {
		t.Errorf("expected 2 active links, got %d", m.activeLinks(1))
	}
	if len(m.removed) != 1 || m.removed[0] != "creditcard-0002" {
		t.Errorf("expected removal of creditcard-0002, got %v", m.removed)
	}
	if _, ok := m.payloads["creditcard-0002"]; ok {
		t.Error("expected the vault entry to be gone")
	}

	cards, err := svc.FetchAll(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if cards[0].CardNumber != "4111111111111112" || cards[1].CardNumber != "4012888888881881" {
		t.Errorf("unexpected remaining cards: %+v", cards)
	}
}

// The second delete of the same card finds no active link and reports
// "no card", never an error.
func TestDelete_SecondCallFindsNoCard(t *testing.T) {
	m := newMemStores()
	svc := newCardService(m)

	if _, err := svc.Store(context.Background(), 1, "4111111111111112", "12/30"); err != nil {
		t.Fatalf("store: %v", err)
	}

	deleted, err := svc.Delete(context.Background(), 1, "4111111111111112")
	if err != nil || !deleted {
		t.Fatalf("first delete: deleted=%v err=%v", deleted, err)
	}

	deleted, err = svc.Delete(context.Background(), 1, "4111111111111112")
	if err != nil {
		t.Fatalf("second delete: unexpected error: %v", err)
	}
	if deleted {
		t.Error("second delete: expected no card found")
	}
}

// Vault removal precedes metadata deactivation, so a deactivation failure
// leaves the link active and the protocol retryable.
func TestDelete_DeactivationFailureLeavesLinkActive(t *testing.T) {
	m := newMemStores()
	svc := newCardService(m)

	if _, err := svc.Store(context.Background(), 1, "4111111111111112", "12/30"); err != nil {
		t.Fatalf("store: %v", err)
	}

	m.failDeactivate = true
	_, err := svc.Delete(context.Background(), 1, "4111111111111112")
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(m.removed) != 1 {
		t.Errorf("expected the vault removal to have been requested, got %v", m.removed)
	}
	if m.activeLinks(1) != 1 {
		t.Errorf("expected the link to stay active for retry, got %d", m.activeLinks(1))
	}
}

func TestFetchAll_NeverCrossesUsers(t *testing.T) {
	m := newMemStores()
	svc := newCardService(m)

	if _, err := svc.Store(context.Background(), 1, "4111111111111112", "12/30"); err != nil {
		t.Fatalf("store user 1: %v", err)
	}
	if _, err := svc.Store(context.Background(), 2, "5555555555554444", "03/31"); err != nil {
		t.Fatalf("store user 2: %v", err)
	}

	cards, err := svc.FetchAll(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 1 || cards[0].CardNumber != "4111111111111112" {
		t.Errorf("user 1 cards = %+v; must not include user 2's", cards)
	}
}

// A single failing fetch fails the whole call; partial lists are never
// returned.
func TestFetchAll_SingleFetchFailureFailsWhole(t *testing.T) {
	m := newMemStores()
	svc := newCardService(m)

	if _, err := svc.Store(context.Background(), 1, "4111111111111112", "12/30"); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := svc.Store(context.Background(), 1, "5555555555554444", "03/31"); err != nil {
		t.Fatalf("store: %v", err)
	}

	m.failVaultFetchName = "creditcard-0002"
	cards, err := svc.FetchAll(context.Background(), 1)
	if !errors.Is(err, service.ErrCardFetch) {
		t.Fatalf("expected ErrCardFetch, got %v", err)
	}
	if cards != nil {
		t.Errorf("expected no partial result, got %+v", cards)
	}
}

// mockMeta exercises the metadata error paths without the in-memory fake.
type mockMeta struct {
	SecretNamesByUserFunc  func(ctx context.Context, userID int64, state models.RecordState) ([]string, error)
	CreateCardLinkFunc     func(ctx context.Context, userID int64, secretName string) error
	DeactivateCardLinkFunc func(ctx context.Context, userID int64, secretName string) error
}

func (m *mockMeta) SecretNamesByUser(ctx context.Context, userID int64, state models.RecordState) ([]string, error) {
	return m.SecretNamesByUserFunc(ctx, userID, state)
}
func (m *mockMeta) CreateCardLink(ctx context.Context, userID int64, secretName string) error {
	return m.CreateCardLinkFunc(ctx, userID, secretName)
}
func (m *mockMeta) DeactivateCardLink(ctx context.Context, userID int64, secretName string) error {
	return m.DeactivateCardLinkFunc(ctx, userID, secretName)
}

func TestStore_MetadataWriteError(t *testing.T) {
	wantErr := errors.New("insert fail")
	meta := &mockMeta{
		CreateCardLinkFunc: func(context.Context, int64, string) error {
			return wantErr
		},
	}
	svc := service.NewCardService(meta, newMemStores(), &seqAllocator{})

	_, err := svc.Store(context.Background(), 1, "4111111111111112", "12/30")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped %v, got %v", wantErr, err)
	}
}

func TestFetchAll_MetadataReadError(t *testing.T) {
	meta := &mockMeta{
		SecretNamesByUserFunc: func(context.Context, int64, models.RecordState) ([]string, error) {
			return nil, errors.New("select fail")
		},
	}
	svc := service.NewCardService(meta, newMemStores(), &seqAllocator{})

	_, err := svc.FetchAll(context.Background(), 1)
	if !errors.Is(err, service.ErrCardFetch) {
		t.Fatalf("expected ErrCardFetch, got %v", err)
	}
}
