// Package vault provides access to the external secret vault that holds
// card payloads, keyed by opaque secret names.
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"cardvault/internal/models"
)

var (
	// ErrSecretNotFound is returned by Fetch when no entry exists under the name.
	ErrSecretNotFound = errors.New("secret not found")
	// ErrVaultUnavailable is returned on transport or auth failures.
	ErrVaultUnavailable = errors.New("vault unavailable")
)

// KeyVaultClient stores, fetches, and removes card payloads in
// Azure Key Vault secrets. It owns payload serialization; callers
// only ever see decoded models.CardPayload values.
//
// Removal requests a deletion (Key Vault begin-delete semantics);
// callers must not assume the entry is gone immediately after Remove.
// No retries happen at this layer.
type KeyVaultClient struct {
	client *azsecrets.Client
}

// NewKeyVaultClient builds a KeyVaultClient for the vault at vaultURL
// using the default Azure credential chain.
func NewKeyVaultClient(vaultURL string) (*KeyVaultClient, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("acquire azure credential: %w", err)
	}
	client, err := azsecrets.NewClient(vaultURL, cred, &azsecrets.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create key vault client: %w", err)
	}
	return &KeyVaultClient{client: client}, nil
}

// Store writes the payload under name, creating the entry if absent and
// overwriting it if present.
func (v *KeyVaultClient) Store(ctx context.Context, name string, payload models.CardPayload) error {
	value, err := encodePayload(payload)
	if err != nil {
		return err
	}
	_, err = v.client.SetSecret(ctx, name, azsecrets.SetSecretParameters{Value: &value}, nil)
	if err != nil {
		return fmt.Errorf("set secret %q: %w: %v", name, ErrVaultUnavailable, err)
	}
	return nil
}

// Fetch reads and decodes the payload stored under name.
// Returns ErrSecretNotFound if no entry exists under the name.
func (v *KeyVaultClient) Fetch(ctx context.Context, name string) (models.CardPayload, error) {
	resp, err := v.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return models.CardPayload{}, fmt.Errorf("get secret %q: %w", name, ErrSecretNotFound)
		}
		return models.CardPayload{}, fmt.Errorf("get secret %q: %w: %v", name, ErrVaultUnavailable, err)
	}
	if resp.Value == nil {
		return models.CardPayload{}, fmt.Errorf("get secret %q: %w", name, ErrSecretNotFound)
	}
	return decodePayload(*resp.Value)
}

// Remove requests deletion of the entry under name. Deleting an entry that
// is already gone or already being deleted counts as success, so a retried
// delete protocol can safely re-issue the request.
func (v *KeyVaultClient) Remove(ctx context.Context, name string) error {
	_, err := v.client.DeleteSecret(ctx, name, nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) || isStatus(err, http.StatusConflict) {
			return nil
		}
		return fmt.Errorf("delete secret %q: %w: %v", name, ErrVaultUnavailable, err)
	}
	return nil
}

// isStatus reports whether err is an Azure response error with the given
// HTTP status code.
func isStatus(err error, code int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == code
}

// encodePayload serializes a card payload to the vault secret value.
func encodePayload(payload models.CardPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode card payload: %w", err)
	}
	return string(raw), nil
}

// decodePayload parses a vault secret value back into a card payload.
func decodePayload(value string) (models.CardPayload, error) {
	var payload models.CardPayload
	if err := json.Unmarshal([]byte(value), &payload); err != nil {
		return models.CardPayload{}, fmt.Errorf("decode card payload: %w", err)
	}
	return payload, nil
}
