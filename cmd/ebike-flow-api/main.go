package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/DIMO-Network/shared"
	"github.com/DIMO-Network/shared/redis"
	"github.com/Shopify/sarama"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/burdiyan/kafkautil"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	_ "go.uber.org/automaxprocs"

	"github.com/marq24/ebike-flow-api/internal/config"
	"github.com/marq24/ebike-flow-api/internal/services"
	"github.com/marq24/ebike-flow-api/internal/services/credstore"
)

// @title    eBike Flow API
// @version  1.0
// @BasePath /v1
func main() {
	gitSha1 := os.Getenv("GIT_SHA1")
	ctx := context.Background()
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("app", "ebike-flow-api").
		Str("git-sha1", gitSha1).
		Logger()

	settings, err := shared.LoadConfig[config.Settings]("settings.yaml")
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load settings")
	}
	level, err := zerolog.ParseLevel(settings.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msgf("could not parse LOG_LEVEL: %s", settings.LogLevel)
	}
	zerolog.SetGlobalLevel(level)

	deps := newDependencyContainer(&settings, logger)

	store := &credstore.Store{
		Redis:  redis.NewRedisCacheService(settings.IsProduction(), redis.Settings{URL: settings.RedisURL, Password: settings.RedisPassword, TLS: settings.RedisTLS, KeyPrefix: "ebike-flow"}),
		Cipher: createCipher(&settings, &logger),
	}
	authSvc := services.NewFlowAuthService(&settings, store, &logger)
	apiSvc := services.NewFlowAPIService(&settings, authSvc, &logger)

	// todo: use flag or other package to handle args
	arg := ""
	if len(os.Args) > 1 {
		arg = os.Args[1]
	}

	switch arg {
	case "auth-url":
		if err := runInteractiveAuth(ctx, authSvc); err != nil {
			logger.Fatal().Err(err).Msg("Authorization failed.")
		}
		logger.Info().Msg("Authorization complete, token stored.")
	case "import-activities":
		eventService := services.NewEventService(&logger, &settings, deps.getKafkaProducer())
		if err := importActivities(ctx, &logger, &settings, apiSvc, eventService, store); err != nil {
			logger.Fatal().Err(err).Msg("Activity import failed.")
		}
	default:
		startMonitoringServer(logger, &settings)
		var producer sarama.SyncProducer
		if !settings.DisableKafka {
			producer = deps.getKafkaProducer()
		}
		eventService := services.NewEventService(&logger, &settings, producer)
		poller := services.NewTelemetryPollService(&settings, apiSvc, eventService, store, &logger)
		if err := poller.Start(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Could not start telemetry polling.")
		}
		startWebAPI(logger, &settings, authSvc, poller)
	}
}

// runInteractiveAuth walks the operator through the PKCE login on the
// terminal. The vendor redirects into their native app, so the operator
// pastes the redirect url back here.
func runInteractiveAuth(ctx context.Context, authSvc *services.FlowAuthService) error {
	authURL, state, err := authSvc.BeginAuth(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Open this url in a browser and log in:")
	fmt.Println()
	fmt.Println(authURL)
	fmt.Println()
	fmt.Print("Paste the redirect url (or the bare code) here: ")

	var input string
	if _, err := fmt.Scanln(&input); err != nil {
		return err
	}

	_, err = authSvc.CompleteAuth(ctx, state, input)
	return err
}

func createKafkaProducer(settings *config.Settings) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_1_0
	config.Producer.Return.Successes = true
	config.Producer.Partitioner = kafkautil.NewJVMCompatiblePartitioner
	p, err := sarama.NewSyncProducer(strings.Split(settings.KafkaBrokers, ","), config)
	if err != nil {
		return nil, fmt.Errorf("failed to construct producer with broker list %s: %w", settings.KafkaBrokers, err)
	}
	return p, nil
}

func createCipher(settings *config.Settings, logger *zerolog.Logger) shared.Cipher {
	if settings.Environment == "dev" || settings.Environment == "prod" {
		return createKMS(settings, logger)
	}
	logger.Warn().Msg("Using ROT13 encrypter. Only use this for testing!")
	return new(shared.ROT13Cipher)
}

func createKMS(settings *config.Settings, logger *zerolog.Logger) shared.Cipher {
	// Need AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY to be set.
	awscfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(settings.AWSRegion))
	if err != nil {
		logger.Fatal().Err(err).Msg("Couldn't create AWS config.")
	}

	return &shared.KMSCipher{
		KeyID:  settings.KMSKeyID,
		Client: kms.NewFromConfig(awscfg),
	}
}

func changeLogLevel(c *fiber.Ctx) error {
	payload := struct {
		LogLevel string `json:"logLevel"`
	}{}
	if err := c.BodyParser(&payload); err != nil {
		return err
	}
	level, err := zerolog.ParseLevel(payload.LogLevel)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	return c.Status(fiber.StatusOK).SendString("log level set to: " + level.String())
}

func startMonitoringServer(logger zerolog.Logger, config *config.Settings) {
	monApp := fiber.New(fiber.Config{DisableStartupMessage: true})

	monApp.Use(pprof.New())

	monApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	monApp.Put("/loglevel", changeLogLevel)

	go func() {
		if err := monApp.Listen(":" + config.MonitoringServerPort); err != nil {
			logger.Fatal().Err(err).Str("port", config.MonitoringServerPort).Msg("Failed to start monitoring web server.")
		}
	}()

	logger.Info().Str("port", config.MonitoringServerPort).Msg("Started monitoring web server.")
}

// dependencyContainer way to hold different dependencies we need for our app. We could put all our deps and follow this pattern for everything.
type dependencyContainer struct {
	kafkaProducer sarama.SyncProducer
	settings      *config.Settings
	logger        *zerolog.Logger
}

func newDependencyContainer(settings *config.Settings, logger zerolog.Logger) dependencyContainer {
	return dependencyContainer{
		settings: settings,
		logger:   &logger,
	}
}

// getKafkaProducer instantiates a new kafka producer if not already set in our container and returns
func (dc *dependencyContainer) getKafkaProducer() sarama.SyncProducer {
	if dc.kafkaProducer == nil {
		p, err := createKafkaProducer(dc.settings)
		if err != nil {
			dc.logger.Fatal().Err(err).Msg("Could not initialize Kafka producer, terminating")
		}
		dc.kafkaProducer = p
	}
	return dc.kafkaProducer
}
