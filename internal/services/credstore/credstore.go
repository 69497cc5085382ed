// Package credstore persists the small amount of state this service owns:
// the account OAuth token (encrypted), parked PKCE verifiers, per-bike
// activity bookmarks and the cached bike pass.
package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DIMO-Network/shared"
	credis "github.com/DIMO-Network/shared/redis"
	"github.com/go-redis/redis/v8"
	"golang.org/x/oauth2"
)

const (
	tokenKey       = "flow_oauth_token"
	verifierPrefix = "pkce_verifier_"
	bookmarkPrefix = "activity_bookmark_"
	bikePassPrefix = "bike_pass_"

	verifierTTL = 10 * time.Minute
)

var ErrNotFound = errors.New("no value found for key")

type Store struct {
	Redis  credis.CacheService
	Cipher shared.Cipher
}

// StoreToken encrypts and persists the OAuth token pair. No TTL, the refresh
// token has to outlive the access token and redis is our only copy.
func (s *Store) StoreToken(ctx context.Context, token *oauth2.Token) error {
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	enc, err := s.Cipher.Encrypt(string(tokenJSON))
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	if status := s.Redis.Set(ctx, tokenKey, enc, 0); status.Err() != nil {
		return fmt.Errorf("failed to set cache value: %w", status.Err())
	}
	return nil
}

func (s *Store) RetrieveToken(ctx context.Context) (*oauth2.Token, error) {
	enc, err := s.Redis.Get(ctx, tokenKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve token: %w", err)
	}

	tokenJSON, err := s.Cipher.Decrypt(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenJSON), &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	if token.RefreshToken == "" {
		return nil, errors.New("stored token was missing a refresh token")
	}
	return &token, nil
}

// StoreVerifier parks a PKCE code verifier under the auth state until the
// user comes back with the authorization code.
func (s *Store) StoreVerifier(ctx context.Context, state, verifier string) error {
	if status := s.Redis.Set(ctx, verifierPrefix+state, verifier, verifierTTL); status.Err() != nil {
		return fmt.Errorf("failed to set cache value: %w", status.Err())
	}
	return nil
}

// RetrieveVerifier is use-it-or-lose-it: the verifier is deleted on read so a
// second exchange attempt with the same state fails.
func (s *Store) RetrieveVerifier(ctx context.Context, state string) (string, error) {
	key := verifierPrefix + state
	verifier, err := s.Redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to retrieve verifier: %w", err)
	}

	if _, err := s.Redis.Del(ctx, key).Result(); err != nil {
		return "", err
	}
	return verifier, nil
}

// StoreBookmark records the id of the newest activity already folded into the
// usage statistics for a bike.
func (s *Store) StoreBookmark(ctx context.Context, bikeID, activityID string) error {
	if status := s.Redis.Set(ctx, bookmarkPrefix+bikeID, activityID, 0); status.Err() != nil {
		return fmt.Errorf("failed to set cache value: %w", status.Err())
	}
	return nil
}

func (s *Store) RetrieveBookmark(ctx context.Context, bikeID string) (string, error) {
	activityID, err := s.Redis.Get(ctx, bookmarkPrefix+bikeID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to retrieve bookmark: %w", err)
	}
	return activityID, nil
}

// StoreBikePass caches the bike pass document. It never changes once issued,
// so we only fetch it from the vendor once.
func (s *Store) StoreBikePass(ctx context.Context, bikeID string, pass any) error {
	passJSON, err := json.Marshal(pass)
	if err != nil {
		return fmt.Errorf("failed to marshal bike pass: %w", err)
	}
	if status := s.Redis.Set(ctx, bikePassPrefix+bikeID, string(passJSON), 0); status.Err() != nil {
		return fmt.Errorf("failed to set cache value: %w", status.Err())
	}
	return nil
}

func (s *Store) RetrieveBikePass(ctx context.Context, bikeID string, pass any) error {
	passJSON, err := s.Redis.Get(ctx, bikePassPrefix+bikeID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to retrieve bike pass: %w", err)
	}
	if err := json.Unmarshal([]byte(passJSON), pass); err != nil {
		return fmt.Errorf("failed to unmarshal bike pass: %w", err)
	}
	return nil
}
