package constants

const (
	// BoschAuthURL is the Keycloak authorization endpoint of the Bosch eBike realm.
	BoschAuthURL  = "https://p9.authz.bosch.com/auth/realms/obc/protocol/openid-connect/auth"
	BoschTokenURL = "https://p9.authz.bosch.com/auth/realms/obc/protocol/openid-connect/token"

	ProfileAPIBaseURL  = "https://obc-rider-profile.prod.connected-biking.cloud"
	ActivityAPIBaseURL = "https://obc-rider-activity.prod.connected-biking.cloud"
	BikePassAPIBaseURL = "https://bike-pass.prod.connected-biking.cloud"
	PurchaseAPIBaseURL = "https://obc-in-app-purchase.prod.connected-biking.cloud"
)

const (
	// OAuthClientID is the public client the Flow mobile app uses. There is no
	// client secret; the token exchange is protected by PKCE.
	OAuthClientID    = "one-bike-app"
	OAuthRedirectURI = "onebikeapp-ios://com.bosch.ebike.onebikeapp/oauth2redirect"
	OAuthScope       = "openid offline_access"
)

const (
	BikeProfileEndpoint   = "/v1/bike-profile"
	BikeProfileV2Endpoint = "/v2/bike-profile"
	StateOfChargeEndpoint = "/v1/state-of-charge"
	ActivitiesEndpoint    = "/v1/activity"
	BikePassesEndpoint    = "/v1/passes"
	SubscriptionEndpoint  = "/v1/in-app-purchase/state"
)

// ActivityPageSize is the page size the Flow mobile app itself requests.
const ActivityPageSize = 30

const (
	BikeManufacturer = "Bosch"
	DefaultBikeModel = "eBike with ConnectModule"
)

const (
	TelemetrySnapshotEventType = "com.boschebike.flow.telemetry.snapshot"
	ActivityProcessedEventType = "com.boschebike.flow.activity.processed"
)
