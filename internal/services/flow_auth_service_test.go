package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/DIMO-Network/shared"
	"github.com/DIMO-Network/shared/redis/mocks"
	"github.com/go-redis/redis/v8"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/oauth2"

	"github.com/marq24/ebike-flow-api/internal/config"
	"github.com/marq24/ebike-flow-api/internal/constants"
	"github.com/marq24/ebike-flow-api/internal/services/credstore"
	"github.com/marq24/ebike-flow-api/internal/test"
)

type FlowAuthServiceTestSuite struct {
	suite.Suite
	cache *mocks.MockCacheService
	svc   *FlowAuthService
}

func TestFlowAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FlowAuthServiceTestSuite))
}

func (s *FlowAuthServiceTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())
	s.cache = mocks.NewMockCacheService(mockCtrl)
	store := &credstore.Store{Redis: s.cache, Cipher: new(shared.ROT13Cipher)}
	s.svc = NewFlowAuthService(&config.Settings{}, store, test.Logger())

	httpmock.Activate()
}

func (s *FlowAuthServiceTestSuite) TearDownTest() {
	httpmock.DeactivateAndReset()
}

func (s *FlowAuthServiceTestSuite) encrypt(token *oauth2.Token) string {
	tokenJSON, err := json.Marshal(token)
	s.Require().NoError(err)
	enc, err := new(shared.ROT13Cipher).Encrypt(string(tokenJSON))
	s.Require().NoError(err)
	return enc
}

func (s *FlowAuthServiceTestSuite) TestBeginAuth_BuildsVendorURL() {
	s.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), 10*time.Minute).Return(&redis.StatusCmd{})

	authURL, state, err := s.svc.BeginAuth(context.Background())
	s.Require().NoError(err)
	s.Require().NotEmpty(state)

	parsed, err := url.Parse(authURL)
	s.Require().NoError(err)
	q := parsed.Query()
	s.Assert().Equal(constants.OAuthClientID, q.Get("client_id"))
	s.Assert().Equal(constants.OAuthRedirectURI, q.Get("redirect_uri"))
	s.Assert().Equal("skid", q.Get("kc_idp_hint"))
	s.Assert().Equal("login", q.Get("prompt"))
	s.Assert().Equal("S256", q.Get("code_challenge_method"))
	s.Assert().Equal(state, q.Get("state"))
	s.Assert().NotEmpty(q.Get("code_challenge"))
	s.Assert().NotEmpty(q.Get("nonce"))
}

func (s *FlowAuthServiceTestSuite) TestCompleteAuth_ExchangesPastedRedirectURL() {
	s.cache.EXPECT().Get(gomock.Any(), "pkce_verifier_state1").Return(redis.NewStringResult("verifier1", nil))
	s.cache.EXPECT().Del(gomock.Any(), "pkce_verifier_state1").Return(redis.NewIntResult(1, nil))
	s.cache.EXPECT().Set(gomock.Any(), "flow_oauth_token", gomock.Any(), time.Duration(0)).Return(&redis.StatusCmd{})

	httpmock.RegisterResponder(http.MethodPost, constants.BoschTokenURL,
		httpmock.NewStringResponder(200, `{"access_token": "new-at", "refresh_token": "new-rt", "token_type": "Bearer", "expires_in": 7200}`))

	token, err := s.svc.CompleteAuth(context.Background(),
		"state1", constants.OAuthRedirectURI+"?state=state1&code=the-code")
	s.Require().NoError(err)
	s.Assert().Equal("new-at", token.AccessToken)
	s.Assert().Equal("new-rt", token.RefreshToken)
	s.Assert().False(token.Expiry.IsZero())
}

func (s *FlowAuthServiceTestSuite) TestCompleteAuth_UnknownStateFails() {
	s.cache.EXPECT().Get(gomock.Any(), "pkce_verifier_nope").Return(redis.NewStringResult("", redis.Nil))

	_, err := s.svc.CompleteAuth(context.Background(), "nope", "the-code")
	s.Assert().ErrorContains(err, "expired")
}

func (s *FlowAuthServiceTestSuite) TestAccessToken_ValidTokenIsNotRefreshed() {
	enc := s.encrypt(&oauth2.Token{
		AccessToken:  "at",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(time.Hour),
	})
	s.cache.EXPECT().Get(gomock.Any(), "flow_oauth_token").Return(redis.NewStringResult(enc, nil))

	accessToken, err := s.svc.AccessToken(context.Background())
	s.Require().NoError(err)
	s.Assert().Equal("at", accessToken)
	s.Assert().Zero(httpmock.GetTotalCallCount())
}

func (s *FlowAuthServiceTestSuite) TestAccessToken_ExpiredTokenIsRefreshedAndStored() {
	enc := s.encrypt(&oauth2.Token{
		AccessToken:  "stale-at",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(-time.Hour),
	})
	s.cache.EXPECT().Get(gomock.Any(), "flow_oauth_token").Return(redis.NewStringResult(enc, nil))
	s.cache.EXPECT().Set(gomock.Any(), "flow_oauth_token", gomock.Any(), time.Duration(0)).Return(&redis.StatusCmd{})

	httpmock.RegisterResponder(http.MethodPost, constants.BoschTokenURL,
		httpmock.NewStringResponder(200, `{"access_token": "fresh-at", "refresh_token": "rt2", "token_type": "Bearer", "expires_in": 7200}`))

	accessToken, err := s.svc.AccessToken(context.Background())
	s.Require().NoError(err)
	s.Assert().Equal("fresh-at", accessToken)
}

func (s *FlowAuthServiceTestSuite) TestAccessToken_NoStoredCredentials() {
	s.cache.EXPECT().Get(gomock.Any(), "flow_oauth_token").Return(redis.NewStringResult("", redis.Nil))

	_, err := s.svc.AccessToken(context.Background())
	s.Assert().ErrorIs(err, ErrNoCredentials)
}

func TestExtractAuthCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare code", input: "abc123", want: "abc123"},
		{name: "redirect url", input: "onebikeapp-ios://login-callback?state=s&code=abc123", want: "abc123"},
		{name: "surrounding whitespace", input: "  abc123\n", want: "abc123"},
		{name: "url without code", input: "onebikeapp-ios://login-callback?state=s&code=", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractAuthCode(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
