package config

import "strings"

// Settings contains the application config
type Settings struct {
	Environment          string `yaml:"ENVIRONMENT"`
	Port                 string `yaml:"PORT"`
	MonitoringServerPort string `yaml:"MONITORING_SERVER_PORT"`
	LogLevel             string `yaml:"LOG_LEVEL"`
	ServiceName          string `yaml:"SERVICE_NAME"`

	AWSRegion string `yaml:"AWS_REGION"`
	KMSKeyID  string `yaml:"KMS_KEY_ID"`

	RedisURL      string `yaml:"REDIS_URL"`
	RedisPassword string `yaml:"REDIS_PASSWORD"`
	RedisTLS      bool   `yaml:"REDIS_TLS"`

	KafkaBrokers   string `yaml:"KAFKA_BROKERS"`
	TelemetryTopic string `yaml:"TELEMETRY_TOPIC"`
	EventsTopic    string `yaml:"EVENTS_TOPIC"`
	DisableKafka   bool   `yaml:"DISABLE_KAFKA"`

	// PollIntervalSeconds defaults to 300; the ConnectModule itself only
	// reports every five minutes, so polling faster just burns rate limit.
	PollIntervalSeconds int `yaml:"POLL_INTERVAL_SECONDS"`

	// BikeIDs is a comma-separated list of bike ids to poll. When empty, every
	// bike on the authenticated account gets a poller.
	BikeIDs string `yaml:"BIKE_IDS"`

	// Overridable vendor endpoints, mostly useful against mock servers.
	BoschAuthURL       string `yaml:"BOSCH_AUTH_URL"`
	BoschTokenURL      string `yaml:"BOSCH_TOKEN_URL"`
	ProfileAPIBaseURL  string `yaml:"PROFILE_API_BASE_URL"`
	ActivityAPIBaseURL string `yaml:"ACTIVITY_API_BASE_URL"`
	BikePassAPIBaseURL string `yaml:"BIKE_PASS_API_BASE_URL"`
	PurchaseAPIBaseURL string `yaml:"PURCHASE_API_BASE_URL"`
}

func (s *Settings) IsProduction() bool {
	return s.Environment == "prod" // this string is set in the helm chart values-prod.yaml
}

// BikeIDList splits the configured BIKE_IDS value, dropping empty entries.
func (s *Settings) BikeIDList() []string {
	var ids []string
	for _, id := range strings.Split(s.BikeIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
