package services

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/suite"

	"github.com/marq24/ebike-flow-api/internal/config"
	"github.com/marq24/ebike-flow-api/internal/constants"
	"github.com/marq24/ebike-flow-api/internal/test"
)

type stubTokenProvider struct {
	token         string
	invalidations int
}

func (s *stubTokenProvider) AccessToken(_ context.Context) (string, error) {
	return s.token, nil
}

func (s *stubTokenProvider) InvalidateAccessToken(_ context.Context) error {
	s.invalidations++
	s.token = "refreshed-token"
	return nil
}

type FlowAPIServiceTestSuite struct {
	suite.Suite
	auth *stubTokenProvider
	svc  FlowAPIService
}

func TestFlowAPIServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FlowAPIServiceTestSuite))
}

func (s *FlowAPIServiceTestSuite) SetupTest() {
	logger := test.Logger()
	s.auth = &stubTokenProvider{token: "stale-token"}
	s.svc = NewFlowAPIService(&config.Settings{}, s.auth, logger)

	httpmock.ActivateNonDefault(s.svc.(*flowAPIService).HTTPClient)
}

func (s *FlowAPIServiceTestSuite) TearDownTest() {
	httpmock.DeactivateAndReset()
}

func activityPageURL(page int) string {
	return fmt.Sprintf("%s%s?page=%d&size=%d&sort=-startTime&include-polyline=false",
		constants.ActivityAPIBaseURL, constants.ActivitiesEndpoint, page, constants.ActivityPageSize)
}

func (s *FlowAPIServiceTestSuite) TestGetAllActivities_WalksEveryPage() {
	httpmock.RegisterResponder(http.MethodGet, activityPageURL(0), httpmock.NewStringResponder(200, `{
		"data": [
			{"id": "act-3", "attributes": {"bikeId": "bike-1", "startTime": "2024-05-03T10:00:00Z", "distance": 12000}},
			{"id": "act-2", "attributes": {"bikeId": "bike-1", "startTime": "2024-05-02T10:00:00Z", "distance": 8000}}
		],
		"meta": {"pages": 2, "elements": 3}
	}`))
	httpmock.RegisterResponder(http.MethodGet, activityPageURL(1), httpmock.NewStringResponder(200, `{
		"data": [
			{"id": "act-1", "attributes": {"bikeId": "bike-1", "startTime": "2024-05-01T10:00:00Z", "distance": 5000}}
		],
		"meta": {"pages": 2, "elements": 3}
	}`))

	activities, err := s.svc.GetAllActivities(context.Background(), "bike-1")
	s.Require().NoError(err)
	s.Require().Len(activities, 3)
	s.Assert().Equal("act-3", activities[0].ID)
	s.Assert().Equal("act-1", activities[2].ID)
	s.Assert().Equal(2, httpmock.GetTotalCallCount())
}

func (s *FlowAPIServiceTestSuite) TestGetAllActivities_StopsOnEmptyPage() {
	httpmock.RegisterResponder(http.MethodGet, activityPageURL(0), httpmock.NewStringResponder(200, `{
		"data": [{"id": "act-1", "attributes": {"bikeId": "bike-1", "startTime": "2024-05-01T10:00:00Z"}}],
		"meta": {"pages": 3, "elements": 1}
	}`))
	httpmock.RegisterResponder(http.MethodGet, activityPageURL(1), httpmock.NewStringResponder(200, `{
		"data": [], "meta": {"pages": 3, "elements": 1}
	}`))

	activities, err := s.svc.GetAllActivities(context.Background(), "bike-1")
	s.Require().NoError(err)
	s.Assert().Len(activities, 1)
	s.Assert().Equal(2, httpmock.GetTotalCallCount())
}

func (s *FlowAPIServiceTestSuite) TestGetAllActivities_SkipsDuplicatesAndOtherBikes() {
	httpmock.RegisterResponder(http.MethodGet, activityPageURL(0), httpmock.NewStringResponder(200, `{
		"data": [
			{"id": "act-2", "attributes": {"bikeId": "bike-1", "startTime": "2024-05-02T10:00:00Z"}},
			{"id": "act-other", "attributes": {"bikeId": "bike-2", "startTime": "2024-05-02T09:00:00Z"}}
		],
		"meta": {"pages": 2, "elements": 4}
	}`))
	// act-2 drifted onto page 1 because a new ride finished mid-import
	httpmock.RegisterResponder(http.MethodGet, activityPageURL(1), httpmock.NewStringResponder(200, `{
		"data": [
			{"id": "act-2", "attributes": {"bikeId": "bike-1", "startTime": "2024-05-02T10:00:00Z"}},
			{"id": "act-1", "attributes": {"bikeId": "bike-1", "startTime": "2024-05-01T10:00:00Z"}}
		],
		"meta": {"pages": 2, "elements": 4}
	}`))

	activities, err := s.svc.GetAllActivities(context.Background(), "bike-1")
	s.Require().NoError(err)
	s.Require().Len(activities, 2)
	s.Assert().Equal("act-2", activities[0].ID)
	s.Assert().Equal("act-1", activities[1].ID)
}

func (s *FlowAPIServiceTestSuite) TestGetAllActivities_RateLimitMidWalkFailsTheCall() {
	httpmock.RegisterResponder(http.MethodGet, activityPageURL(0), httpmock.NewStringResponder(200, `{
		"data": [{"id": "act-2", "attributes": {"bikeId": "bike-1", "startTime": "2024-05-02T10:00:00Z"}}],
		"meta": {"pages": 2, "elements": 2}
	}`))
	httpmock.RegisterResponder(http.MethodGet, activityPageURL(1), httpmock.NewStringResponder(429, ""))

	activities, err := s.svc.GetAllActivities(context.Background(), "bike-1")
	s.Require().ErrorIs(err, ErrRateLimited)
	s.Assert().Nil(activities)
}

func (s *FlowAPIServiceTestSuite) TestGetBikes_EmptyBodyMeansNoBikes() {
	url := constants.ProfileAPIBaseURL + constants.BikeProfileEndpoint
	httpmock.RegisterResponder(http.MethodGet, url, httpmock.NewStringResponder(200, ""))

	bikes, err := s.svc.GetBikes(context.Background())
	s.Require().NoError(err)
	s.Assert().Empty(bikes)
}

func (s *FlowAPIServiceTestSuite) TestGetStateOfCharge_OfflineBikeYieldsNil() {
	url := fmt.Sprintf("%s%s/bike-1", constants.ProfileAPIBaseURL, constants.StateOfChargeEndpoint)
	httpmock.RegisterResponder(http.MethodGet, url, httpmock.NewStringResponder(404, `{"message": "not found"}`))

	soc, err := s.svc.GetStateOfCharge(context.Background(), "bike-1")
	s.Require().NoError(err)
	s.Assert().Nil(soc)
}

func (s *FlowAPIServiceTestSuite) TestGetStateOfCharge_DecodesLiveDocument() {
	url := fmt.Sprintf("%s%s/bike-1", constants.ProfileAPIBaseURL, constants.StateOfChargeEndpoint)
	httpmock.RegisterResponder(http.MethodGet, url, httpmock.NewStringResponder(200, `{
		"stateOfCharge": 77,
		"chargingActive": true,
		"chargerConnected": true,
		"odometer": 1523000,
		"reachableRange": [95, 80, 62, 41],
		"remainingEnergyForRider": 430,
		"stateOfChargeLatestUpdate": "2024-05-03T11:22:33Z"
	}`))

	soc, err := s.svc.GetStateOfCharge(context.Background(), "bike-1")
	s.Require().NoError(err)
	s.Require().NotNil(soc)
	s.Assert().Equal(77.0, soc.StateOfCharge.Float64)
	s.Assert().True(soc.ChargingActive.Bool)
	s.Assert().Equal([]float64{95, 80, 62, 41}, soc.ReachableRange)
}

func (s *FlowAPIServiceTestSuite) TestPerformGetRequest_RetriesOnceAfter401() {
	url := constants.ProfileAPIBaseURL + constants.BikeProfileEndpoint
	httpmock.RegisterResponder(http.MethodGet, url, func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") == "Bearer stale-token" {
			return httpmock.NewStringResponse(401, `{"message": "expired"}`), nil
		}
		return httpmock.NewStringResponse(200, `{"data": [{"id": "bike-1", "attributes": {"brandName": "Cube"}}]}`), nil
	})

	bikes, err := s.svc.GetBikes(context.Background())
	s.Require().NoError(err)
	s.Require().Len(bikes, 1)
	s.Assert().Equal("bike-1", bikes[0].ID)
	s.Assert().Equal(1, s.auth.invalidations)
}

func (s *FlowAPIServiceTestSuite) TestGetSubscriptionStatus_FailureMeansNoSubscription() {
	url := constants.PurchaseAPIBaseURL + constants.SubscriptionEndpoint
	httpmock.RegisterResponder(http.MethodGet, url, httpmock.NewStringResponder(500, `{"message": "boom"}`))

	s.Assert().False(s.svc.GetSubscriptionStatus(context.Background()))
}

func (s *FlowAPIServiceTestSuite) TestGetBikePass_MatchesBikeID() {
	url := constants.BikePassAPIBaseURL + constants.BikePassesEndpoint
	httpmock.RegisterResponder(http.MethodGet, url, httpmock.NewStringResponder(200, `{
		"bikePasses": [
			{"bikeId": "bike-2", "frameNumber": "WOW222"},
			{"bikeId": "bike-1", "frameNumber": "WOW111"}
		]
	}`))

	pass, err := s.svc.GetBikePass(context.Background(), "bike-1")
	s.Require().NoError(err)
	s.Require().NotNil(pass)
	s.Assert().Equal("WOW111", pass.FrameNumber)

	pass, err = s.svc.GetBikePass(context.Background(), "bike-3")
	s.Require().NoError(err)
	s.Assert().Nil(pass)
}
