package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/marq24/ebike-flow-api/internal/appmetrics"
	"github.com/marq24/ebike-flow-api/internal/config"
	"github.com/marq24/ebike-flow-api/internal/constants"
	"github.com/marq24/ebike-flow-api/internal/services/credstore"
)

// defaultTokenLifetime is assumed when the token endpoint omits expires_in.
// Bosch tokens run for two hours.
const defaultTokenLifetime = 7200 * time.Second

var ErrNoCredentials = errors.New("no stored credentials, complete the auth flow first")

// FlowAuthService owns the PKCE dance against the Bosch Keycloak realm and
// the stored token pair. There is exactly one account per deployment.
type FlowAuthService struct {
	conf  *oauth2.Config
	store *credstore.Store
	log   *zerolog.Logger
}

func NewFlowAuthService(settings *config.Settings, store *credstore.Store, logger *zerolog.Logger) *FlowAuthService {
	authURL := settings.BoschAuthURL
	if authURL == "" {
		authURL = constants.BoschAuthURL
	}
	tokenURL := settings.BoschTokenURL
	if tokenURL == "" {
		tokenURL = constants.BoschTokenURL
	}

	return &FlowAuthService{
		conf: &oauth2.Config{
			ClientID:    constants.OAuthClientID,
			RedirectURL: constants.OAuthRedirectURI,
			Scopes:      strings.Split(constants.OAuthScope, " "),
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		store: store,
		log:   logger,
	}
}

// BeginAuth generates a PKCE pair, parks the verifier under a fresh state and
// returns the authorization URL the user has to open in a browser.
func (a *FlowAuthService) BeginAuth(ctx context.Context) (authURL, state string, err error) {
	verifier := oauth2.GenerateVerifier()
	state = randomURLSafe(32)

	if err := a.store.StoreVerifier(ctx, state, verifier); err != nil {
		return "", "", err
	}

	authURL = a.conf.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("kc_idp_hint", "skid"),
		oauth2.SetAuthURLParam("prompt", "login"),
		oauth2.SetAuthURLParam("nonce", randomURLSafe(32)),
	)
	return authURL, state, nil
}

// CompleteAuth exchanges the authorization code for a token pair and persists
// it. The code may be a bare code or the full redirect URL the user pasted.
func (a *FlowAuthService) CompleteAuth(ctx context.Context, state, code string) (*oauth2.Token, error) {
	code, err := ExtractAuthCode(code)
	if err != nil {
		return nil, err
	}

	verifier, err := a.store.RetrieveVerifier(ctx, state)
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return nil, errors.New("unknown or expired auth state, restart the auth flow")
		}
		return nil, err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	token, err := a.conf.Exchange(ctxTimeout, code, oauth2.VerifierOption(verifier))
	if err != nil {
		var rErr *oauth2.RetrieveError
		errString := err.Error()
		if errors.As(err, &rErr) {
			errString = rErr.ErrorDescription
		}
		return nil, fmt.Errorf("token exchange failed: %s", errString)
	}

	if token.Expiry.IsZero() {
		token.Expiry = time.Now().Add(defaultTokenLifetime)
	}

	if err := a.store.StoreToken(ctx, token); err != nil {
		return nil, err
	}

	a.log.Debug().Str("subject", a.Subject(token)).Msg("Exchanged authorization code for tokens.")
	return token, nil
}

// AccessToken returns a valid access token, refreshing and re-persisting the
// pair when the stored one has expired.
func (a *FlowAuthService) AccessToken(ctx context.Context) (string, error) {
	stored, err := a.store.RetrieveToken(ctx)
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return "", ErrNoCredentials
		}
		return "", err
	}

	fresh, err := a.conf.TokenSource(ctx, stored).Token()
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}

	if fresh.AccessToken != stored.AccessToken {
		appmetrics.TokenRefreshTotalOps.Inc()
		if err := a.store.StoreToken(ctx, fresh); err != nil {
			return "", err
		}
	}
	return fresh.AccessToken, nil
}

// InvalidateAccessToken expires the stored access token so the next
// AccessToken call is forced through a refresh. Called once after a 401.
func (a *FlowAuthService) InvalidateAccessToken(ctx context.Context) error {
	stored, err := a.store.RetrieveToken(ctx)
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return ErrNoCredentials
		}
		return err
	}
	stored.Expiry = time.Now().Add(-time.Minute)
	return a.store.StoreToken(ctx, stored)
}

// Subject pulls the sub claim out of the access token without verifying the
// signature. Display only, never trust.
func (a *FlowAuthService) Subject(token *oauth2.Token) string {
	parsed, _, err := jwt.NewParser().ParseUnverified(token.AccessToken, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	sub, _ := parsed.Claims.GetSubject()
	return sub
}

// ExtractAuthCode accepts a bare authorization code or a pasted redirect URL
// and returns the code.
func ExtractAuthCode(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("authorization code is empty")
	}
	if !strings.Contains(input, "code=") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("could not parse pasted redirect URL: %w", err)
	}
	code := u.Query().Get("code")
	if code == "" {
		return "", errors.New("pasted redirect URL carries no code parameter")
	}
	return code, nil
}

func randomURLSafe(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
