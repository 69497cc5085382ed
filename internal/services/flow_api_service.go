package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/marq24/ebike-flow-api/internal/appmetrics"
	"github.com/marq24/ebike-flow-api/internal/config"
	"github.com/marq24/ebike-flow-api/internal/constants"
)

//go:generate mockgen -source flow_api_service.go -destination mocks/flow_api_service_mock.go
type FlowAPIService interface {
	GetBikes(ctx context.Context) ([]BikeSummary, error)
	GetBikeProfile(ctx context.Context, bikeID string) (*BikeProfile, error)
	GetStateOfCharge(ctx context.Context, bikeID string) (*StateOfCharge, error)
	GetRecentActivities(ctx context.Context, bikeID string) ([]Activity, error)
	GetAllActivities(ctx context.Context, bikeID string) ([]Activity, error)
	GetBikePass(ctx context.Context, bikeID string) (*BikePass, error)
	GetSubscriptionStatus(ctx context.Context) bool
}

// FlowAPIError carries the vendor HTTP status so callers can tell an offline
// ConnectModule (404) from a real failure.
type FlowAPIError struct {
	StatusCode int
	Message    string
}

func (e *FlowAPIError) Error() string {
	return fmt.Sprintf("flow api request failed (%d): %s", e.StatusCode, e.Message)
}

// ErrRateLimited is returned on 429. The poll loop just waits for its next
// tick; there is no point hammering the vendor sooner.
var ErrRateLimited = errors.New("flow api rate limit exceeded")

func IsNotFound(err error) bool {
	var apiErr *FlowAPIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// AccessTokenProvider hands out a valid bearer token and lets the client
// force a refresh after a 401.
type AccessTokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
	InvalidateAccessToken(ctx context.Context) error
}

type flowAPIService struct {
	profileBaseURL  string
	activityBaseURL string
	bikePassBaseURL string
	purchaseBaseURL string
	HTTPClient      *http.Client
	auth            AccessTokenProvider
	log             *zerolog.Logger
}

func NewFlowAPIService(settings *config.Settings, auth AccessTokenProvider, logger *zerolog.Logger) FlowAPIService {
	return &flowAPIService{
		profileBaseURL:  firstNonEmpty(settings.ProfileAPIBaseURL, constants.ProfileAPIBaseURL),
		activityBaseURL: firstNonEmpty(settings.ActivityAPIBaseURL, constants.ActivityAPIBaseURL),
		bikePassBaseURL: firstNonEmpty(settings.BikePassAPIBaseURL, constants.BikePassAPIBaseURL),
		purchaseBaseURL: firstNonEmpty(settings.PurchaseAPIBaseURL, constants.PurchaseAPIBaseURL),
		HTTPClient:      &http.Client{},
		auth:            auth,
		log:             logger,
	}
}

// GetBikes lists the bikes registered to the account, from the v1 profile API.
func (s *flowAPIService) GetBikes(ctx context.Context) ([]BikeSummary, error) {
	resp, err := s.performGetRequest(ctx, s.profileBaseURL+constants.BikeProfileEndpoint)
	if err != nil {
		return nil, fmt.Errorf("could not fetch bike list: %w", err)
	}
	defer resp.Body.Close()

	bikes := new(BikesResponse)
	if err := decodeBody(resp, bikes); err != nil {
		return nil, fmt.Errorf("invalid response encountered while fetching bike list: %w", err)
	}
	return bikes.Data, nil
}

// GetBikeProfile fetches the v2 profile document: static bike info plus the
// battery state the bike last synced through the app.
func (s *flowAPIService) GetBikeProfile(ctx context.Context, bikeID string) (*BikeProfile, error) {
	url := fmt.Sprintf("%s%s/%s", s.profileBaseURL, constants.BikeProfileV2Endpoint, bikeID)

	resp, err := s.performGetRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("could not fetch bike profile: %w", err)
	}
	defer resp.Body.Close()

	profile := new(BikeProfileResponse)
	if err := decodeBody(resp, profile); err != nil {
		return nil, fmt.Errorf("invalid response encountered while fetching bike profile: %w", err)
	}
	return &profile.Data.Attributes, nil
}

// GetStateOfCharge fetches the live document from the ConnectModule. A 404
// means the bike is offline, which is normal, and yields (nil, nil).
func (s *flowAPIService) GetStateOfCharge(ctx context.Context, bikeID string) (*StateOfCharge, error) {
	url := fmt.Sprintf("%s%s/%s", s.profileBaseURL, constants.StateOfChargeEndpoint, bikeID)

	resp, err := s.performGetRequest(ctx, url)
	if err != nil {
		if IsNotFound(err) {
			appmetrics.SoCOfflineTotal.Inc()
			s.log.Debug().Str("bikeId", bikeID).Msg("Live state-of-charge not available, bike offline.")
			return nil, nil
		}
		return nil, fmt.Errorf("could not fetch state of charge: %w", err)
	}
	defer resp.Body.Close()

	soc := new(StateOfCharge)
	if err := decodeBody(resp, soc); err != nil {
		return nil, fmt.Errorf("invalid response encountered while fetching state of charge: %w", err)
	}
	return soc, nil
}

// GetRecentActivities fetches the newest activity page for a bike, newest
// first, deduplicated by activity id.
func (s *flowAPIService) GetRecentActivities(ctx context.Context, bikeID string) ([]Activity, error) {
	page, err := s.getActivityPage(ctx, 0)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			s.log.Warn().Str("bikeId", bikeID).Msg("Rate limited fetching recent activities, returning empty page.")
			return nil, nil
		}
		return nil, err
	}
	return s.collectActivities(nil, page.Data, bikeID), nil
}

// GetAllActivities walks every activity page. The loop terminates when the
// page counter reaches meta.pages or a page comes back empty. A rate limit
// mid-walk fails the whole call: a truncated history must never be mistaken
// for a complete one.
func (s *flowAPIService) GetAllActivities(ctx context.Context, bikeID string) ([]Activity, error) {
	var activities []Activity

	currentPage := 0
	totalPages := 1 // start with 1 to enter the loop
	for currentPage < totalPages {
		page, err := s.getActivityPage(ctx, currentPage)
		if err != nil {
			if errors.Is(err, ErrRateLimited) {
				s.log.Warn().Int("page", currentPage).Msg("Rate limited during activity import, aborting the walk.")
			}
			return nil, err
		}
		if len(page.Data) == 0 {
			break
		}

		activities = s.collectActivities(activities, page.Data, bikeID)

		totalPages = page.Meta.Pages
		currentPage++
		s.log.Debug().Msgf("Activity import progress: %d/%d pages collected.", currentPage, totalPages)
	}

	return activities, nil
}

func (s *flowAPIService) getActivityPage(ctx context.Context, page int) (*ActivityPage, error) {
	url := fmt.Sprintf("%s%s?page=%d&size=%d&sort=-startTime&include-polyline=false",
		s.activityBaseURL, constants.ActivitiesEndpoint, page, constants.ActivityPageSize)

	resp, err := s.performGetRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("could not fetch activity page %d: %w", page, err)
	}
	defer resp.Body.Close()
	appmetrics.ActivityPagesFetchedTotal.Inc()

	p := new(ActivityPage)
	if err := decodeBody(resp, p); err != nil {
		return nil, fmt.Errorf("invalid response encountered while fetching activity page %d: %w", page, err)
	}
	return p, nil
}

// collectActivities appends the page items belonging to bikeID, skipping ids
// already collected. The vendor pages by -startTime without a cursor, so a
// ride finishing mid-import can shift items across page boundaries.
func (s *flowAPIService) collectActivities(acc []Activity, items []Activity, bikeID string) []Activity {
	seen := make(map[string]struct{}, len(acc))
	for _, a := range acc {
		seen[a.ID] = struct{}{}
	}
	for _, item := range items {
		if item.ID == "" || item.Attributes.BikeID != bikeID {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			s.log.Warn().Str("activityId", item.ID).Msg("Duplicate activity id found, skipping it.")
			continue
		}
		seen[item.ID] = struct{}{}
		acc = append(acc, item)
	}
	return acc
}

// GetBikePass returns the bike pass for the given bike, or nil when the
// account holds none for it.
func (s *flowAPIService) GetBikePass(ctx context.Context, bikeID string) (*BikePass, error) {
	resp, err := s.performGetRequest(ctx, s.bikePassBaseURL+constants.BikePassesEndpoint)
	if err != nil {
		return nil, fmt.Errorf("could not fetch bike passes: %w", err)
	}
	defer resp.Body.Close()

	passes := new(BikePassesResponse)
	if err := decodeBody(resp, passes); err != nil {
		return nil, fmt.Errorf("invalid response encountered while fetching bike passes: %w", err)
	}

	for _, pass := range passes.BikePasses {
		if pass.BikeID == bikeID {
			p := pass
			return &p, nil
		}
	}
	return nil, nil
}

// GetSubscriptionStatus reports whether the account holds an active Flow
// subscription. Any failure is treated as "no subscription".
func (s *flowAPIService) GetSubscriptionStatus(ctx context.Context) bool {
	resp, err := s.performGetRequest(ctx, s.purchaseBaseURL+constants.SubscriptionEndpoint)
	if err != nil {
		s.log.Warn().Err(err).Msg("Fetching subscription status failed, assuming no subscription.")
		return false
	}
	defer resp.Body.Close()

	state := new(SubscriptionState)
	if err := decodeBody(resp, state); err != nil {
		s.log.Warn().Err(err).Msg("Could not decode subscription status, assuming no subscription.")
		return false
	}
	return state.Status
}

// performGetRequest adds a timeout and the bearer token. On a 401 the access
// token is invalidated and the request retried exactly once with a freshly
// refreshed token.
func (s *flowAPIService) performGetRequest(ctx context.Context, url string) (*http.Response, error) {
	resp, err := s.doGet(ctx, url)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		s.log.Debug().Str("url", url).Msg("Got 401, refreshing token and retrying once.")
		if err := s.auth.InvalidateAccessToken(ctx); err != nil {
			return nil, err
		}
		if resp, err = s.doGet(ctx, url); err != nil {
			return nil, err
		}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		resp.Body.Close()
		return nil, ErrRateLimited
	default:
		defer resp.Body.Close()
		apiErr := &FlowAPIError{StatusCode: resp.StatusCode}
		errBody := struct {
			Message string `json:"message"`
		}{}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			apiErr.Message = errBody.Message
		}
		return nil, apiErr
	}
}

func (s *flowAPIService) doGet(ctx context.Context, url string) (*http.Response, error) {
	token, err := s.auth.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	req, err := http.NewRequestWithContext(ctxTimeout, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error occurred calling flow api: %w", err)
	}
	return resp, nil
}

// decodeBody decodes a JSON response body into v. An empty body is a valid
// empty document, the vendor answers 200 with no content on some endpoints.
func decodeBody(resp *http.Response, v any) error {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
