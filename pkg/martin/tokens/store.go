// Package tokens stores per-user, per-provider OAuth credential bundles with
// expiry. It answers "is this user connected" and hands out credentials for
// provider API calls. Records are keyed tokens:<userId>:<provider> and expire
// lazily: an expired record is deleted the first time a read touches it.
package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/martinhq/martin/pkg/martin/kv"
)

// Provider identifies an OAuth provider.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderYandex Provider = "yandex"
)

// Providers lists every provider the store recognizes.
var Providers = []Provider{ProviderGoogle, ProviderYandex}

// ErrStoreUnavailable is returned when the backing store cannot be reached.
// This is deliberately distinct from a nil credential: "not connected" means
// the user has no valid record, unavailability means we don't know.
var ErrStoreUnavailable = errors.New("tokens: storage unavailable")

// Credential is one stored OAuth token bundle.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid reports whether the credential is usable at time now.
func (c *Credential) Valid(now time.Time) bool {
	return c.AccessToken != "" && now.Before(c.ExpiresAt)
}

// Store persists Credentials on a kv.Store.
type Store struct {
	kv     kv.Store
	clock  func() time.Time
	logger *slog.Logger
}

// New creates a token store on top of the given kv backend.
func New(backend kv.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:     backend,
		clock:  time.Now,
		logger: logger.With("component", "token-store"),
	}
}

// SetClock overrides the time source. Test hook.
func (s *Store) SetClock(clock func() time.Time) {
	s.clock = clock
}

func key(userID string, provider Provider) string {
	return fmt.Sprintf("tokens:%s:%s", userID, provider)
}

// Save stores a credential for (userID, provider), overwriting any prior
// record. ExpiresAt is computed from ExpiresIn relative to now; the kv TTL
// mirrors it so Redis drops the key on its own.
func (s *Store) Save(ctx context.Context, userID string, provider Provider, cred Credential) error {
	cred.ExpiresAt = s.clock().Add(time.Duration(cred.ExpiresIn) * time.Second)

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshaling credential: %w", err)
	}

	ttl := time.Duration(cred.ExpiresIn) * time.Second
	if err := s.kv.Set(ctx, key(userID, provider), string(data), ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.logger.Info("tokens saved", "user_id", userID, "provider", provider,
		"expires_at", cred.ExpiresAt)
	return nil
}

// Get returns the credential for (userID, provider), or nil when absent or
// expired. An expired record is deleted on detection. A non-nil error means
// the store itself could not answer.
func (s *Store) Get(ctx context.Context, userID string, provider Provider) (*Credential, error) {
	data, err := s.kv.Get(ctx, key(userID, provider))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return nil, fmt.Errorf("parsing stored credential: %w", err)
	}

	if !s.clock().Before(cred.ExpiresAt) {
		s.logger.Info("tokens expired", "user_id", userID, "provider", provider)
		if err := s.kv.Delete(ctx, key(userID, provider)); err != nil {
			s.logger.Warn("failed to delete expired tokens", "error", err)
		}
		return nil, nil
	}

	return &cred, nil
}

// IsConnected reports whether a valid credential exists for (userID, provider).
func (s *Store) IsConnected(ctx context.Context, userID string, provider Provider) (bool, error) {
	cred, err := s.Get(ctx, userID, provider)
	if err != nil {
		return false, err
	}
	return cred != nil, nil
}

// Disconnect deletes the record for (userID, provider). Idempotent.
func (s *Store) Disconnect(ctx context.Context, userID string, provider Provider) error {
	if err := s.kv.Delete(ctx, key(userID, provider)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.logger.Info("tokens deleted", "user_id", userID, "provider", provider)
	return nil
}
