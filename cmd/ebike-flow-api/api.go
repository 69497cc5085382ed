package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/marq24/ebike-flow-api/internal/config"
	"github.com/marq24/ebike-flow-api/internal/controllers"
	"github.com/marq24/ebike-flow-api/internal/controllers/helpers"
	"github.com/marq24/ebike-flow-api/internal/services"
)

func startWebAPI(logger zerolog.Logger, settings *config.Settings, authSvc *services.FlowAuthService, poller *services.TelemetryPollService) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return helpers.ErrorHandler(c, err, &logger, settings.IsProduction())
		},
		DisableStartupMessage: true,
		ReadBufferSize:        16000,
	})

	app.Use(fiberrecover.New(fiberrecover.Config{
		Next:              nil,
		EnableStackTrace:  true,
		StackTraceHandler: nil,
	}))

	// controllers
	authController := controllers.NewAuthController(settings, &logger, authSvc)
	bikesController := controllers.NewBikesController(settings, &logger, poller)

	// application routes
	app.Get("/", healthCheck)

	v1 := app.Group("/v1")

	v1.Get("/auth", authController.StartAuth)
	v1.Post("/auth", authController.CompleteAuth)
	v1.Get("/auth/status", authController.GetAuthStatus)

	v1.Get("/bikes", bikesController.GetBikes)
	v1.Get("/bikes/:bikeID", bikesController.GetBike)
	v1.Get("/bikes/:bikeID/entities", bikesController.GetBikeEntities)
	v1.Get("/bikes/:bikeID/statistics", bikesController.GetBikeStatistics)
	v1.Get("/bikes/:bikeID/pass", bikesController.GetBikePass)
	v1.Post("/bikes/:bikeID/refresh", bikesController.RefreshBike)

	logger.Info().Msg("Server started on port " + settings.Port)
	// Start Server from a different go routine
	go func() {
		if err := app.Listen(":" + settings.Port); err != nil {
			logger.Fatal().Err(err)
		}
	}()

	c := make(chan os.Signal, 1)                    // Create channel to signify a signal being sent with length of 1
	signal.Notify(c, os.Interrupt, syscall.SIGTERM) // When an interrupt or termination signal is sent, notify the channel
	<-c                                             // This blocks the main thread until an interrupt is received
	logger.Info().Msg("Gracefully shutting down and running cleanup tasks...")
	_ = app.Shutdown()
}

func healthCheck(c *fiber.Ctx) error {
	res := map[string]interface{}{
		"data": "Server is up and running",
	}

	err := c.JSON(res)

	if err != nil {
		return err
	}

	return nil
}
