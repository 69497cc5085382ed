package credstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DIMO-Network/shared"
	"github.com/DIMO-Network/shared/redis/mocks"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/oauth2"
)

func setupStore(t *testing.T) (*Store, *mocks.MockCacheService) {
	mockCtrl := gomock.NewController(t)
	cache := mocks.NewMockCacheService(mockCtrl)
	return &Store{Redis: cache, Cipher: new(shared.ROT13Cipher)}, cache
}

func encryptedToken(t *testing.T, token *oauth2.Token) string {
	t.Helper()
	tokenJSON, err := json.Marshal(token)
	require.NoError(t, err)
	enc, err := new(shared.ROT13Cipher).Encrypt(string(tokenJSON))
	require.NoError(t, err)
	return enc
}

func TestTokenRoundTrip(t *testing.T) {
	store, cache := setupStore(t)
	ctx := context.Background()

	token := &oauth2.Token{
		AccessToken:  "at",
		RefreshToken: "rt",
		Expiry:       time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC),
	}
	enc := encryptedToken(t, token)

	cache.EXPECT().Set(gomock.Any(), "flow_oauth_token", enc, time.Duration(0)).Return(&redis.StatusCmd{})
	require.NoError(t, store.StoreToken(ctx, token))

	cache.EXPECT().Get(gomock.Any(), "flow_oauth_token").Return(redis.NewStringResult(enc, nil))
	got, err := store.RetrieveToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "at", got.AccessToken)
	assert.Equal(t, "rt", got.RefreshToken)
}

func TestRetrieveToken_MissingIsErrNotFound(t *testing.T) {
	store, cache := setupStore(t)

	cache.EXPECT().Get(gomock.Any(), "flow_oauth_token").Return(redis.NewStringResult("", redis.Nil))

	_, err := store.RetrieveToken(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRetrieveToken_RejectsPairWithoutRefreshToken(t *testing.T) {
	store, cache := setupStore(t)

	enc := encryptedToken(t, &oauth2.Token{AccessToken: "at"})
	cache.EXPECT().Get(gomock.Any(), "flow_oauth_token").Return(redis.NewStringResult(enc, nil))

	_, err := store.RetrieveToken(context.Background())
	assert.Error(t, err)
}

func TestVerifierIsDeletedOnRead(t *testing.T) {
	store, cache := setupStore(t)
	ctx := context.Background()

	cache.EXPECT().Set(gomock.Any(), "pkce_verifier_state1", "verifier1", 10*time.Minute).Return(&redis.StatusCmd{})
	require.NoError(t, store.StoreVerifier(ctx, "state1", "verifier1"))

	cache.EXPECT().Get(gomock.Any(), "pkce_verifier_state1").Return(redis.NewStringResult("verifier1", nil))
	cache.EXPECT().Del(gomock.Any(), "pkce_verifier_state1").Return(redis.NewIntResult(1, nil))

	verifier, err := store.RetrieveVerifier(ctx, "state1")
	require.NoError(t, err)
	assert.Equal(t, "verifier1", verifier)

	cache.EXPECT().Get(gomock.Any(), "pkce_verifier_state1").Return(redis.NewStringResult("", redis.Nil))
	_, err = store.RetrieveVerifier(ctx, "state1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookmarkRoundTrip(t *testing.T) {
	store, cache := setupStore(t)
	ctx := context.Background()

	cache.EXPECT().Set(gomock.Any(), "activity_bookmark_bike-1", "act-9", time.Duration(0)).Return(&redis.StatusCmd{})
	require.NoError(t, store.StoreBookmark(ctx, "bike-1", "act-9"))

	cache.EXPECT().Get(gomock.Any(), "activity_bookmark_bike-1").Return(redis.NewStringResult("act-9", nil))
	bm, err := store.RetrieveBookmark(ctx, "bike-1")
	require.NoError(t, err)
	assert.Equal(t, "act-9", bm)
}

func TestBikePassRoundTrip(t *testing.T) {
	store, cache := setupStore(t)
	ctx := context.Background()

	type pass struct {
		BikeID string `json:"bikeId"`
	}
	passJSON, _ := json.Marshal(pass{BikeID: "bike-1"})

	cache.EXPECT().Set(gomock.Any(), "bike_pass_bike-1", string(passJSON), time.Duration(0)).Return(&redis.StatusCmd{})
	require.NoError(t, store.StoreBikePass(ctx, "bike-1", pass{BikeID: "bike-1"}))

	cache.EXPECT().Get(gomock.Any(), "bike_pass_bike-1").Return(redis.NewStringResult(string(passJSON), nil))
	got := new(pass)
	require.NoError(t, store.RetrieveBikePass(ctx, "bike-1", got))
	assert.Equal(t, "bike-1", got.BikeID)
}
