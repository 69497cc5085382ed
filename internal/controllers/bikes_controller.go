package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/marq24/ebike-flow-api/internal/config"
	"github.com/marq24/ebike-flow-api/internal/entities"
	"github.com/marq24/ebike-flow-api/internal/services"
)

// BikesController exposes the polled bike state: snapshots, the rendered
// entity surface and the accumulated ride statistics.
type BikesController struct {
	Settings *config.Settings
	log      *zerolog.Logger
	poller   *services.TelemetryPollService
}

func NewBikesController(settings *config.Settings, logger *zerolog.Logger, poller *services.TelemetryPollService) BikesController {
	return BikesController{
		Settings: settings,
		log:      logger,
		poller:   poller,
	}
}

type bikeSummaryRes struct {
	BikeID            string `json:"bikeId"`
	Name              string `json:"name"`
	LiveDataAvailable bool   `json:"liveDataAvailable"`
	Stale             bool   `json:"stale"`
}

// GetBikes godoc
// @Description gets all bikes currently being polled for the account
// @Produce json
// @Success 200 {object} map[string][]controllers.bikeSummaryRes
// @Router /v1/bikes [get]
func (bc *BikesController) GetBikes(c *fiber.Ctx) error {
	summaries := make([]bikeSummaryRes, 0)
	for _, bikeID := range bc.poller.BikeIDs() {
		summary := bikeSummaryRes{BikeID: bikeID}
		if snap, err := bc.poller.Snapshot(bikeID); err == nil {
			summary.Name = snap.Name
			summary.LiveDataAvailable = snap.LiveDataAvailable
			summary.Stale = snap.Stale
		} else {
			summary.Stale = true
		}
		summaries = append(summaries, summary)
	}
	return c.JSON(fiber.Map{"bikes": summaries})
}

// GetBike godoc
// @Description gets the latest merged snapshot for one bike
// @Produce json
// @Param bikeID path string true "bike id"
// @Success 200 {object} services.BikeSnapshot
// @Router /v1/bikes/{bikeID} [get]
func (bc *BikesController) GetBike(c *fiber.Ctx) error {
	snap, err := bc.snapshotOr404(c)
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

// GetBikeEntities godoc
// @Description gets the rendered sensor and binary sensor states for one bike
// @Produce json
// @Param bikeID path string true "bike id"
// @Success 200 {object} map[string][]entities.Entity
// @Router /v1/bikes/{bikeID}/entities [get]
func (bc *BikesController) GetBikeEntities(c *fiber.Ctx) error {
	snap, err := bc.snapshotOr404(c)
	if err != nil {
		return err
	}
	stats, err := bc.poller.Stats(snap.BikeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"entities": entities.Build(snap, stats)})
}

type bikeStatisticsRes struct {
	services.UsageStats
	Bookmark string `json:"bookmark,omitempty"`
}

// GetBikeStatistics godoc
// @Description gets the lifetime ride statistics for one bike
// @Produce json
// @Param bikeID path string true "bike id"
// @Success 200 {object} controllers.bikeStatisticsRes
// @Router /v1/bikes/{bikeID}/statistics [get]
func (bc *BikesController) GetBikeStatistics(c *fiber.Ctx) error {
	bikeID := c.Params("bikeID")
	stats, err := bc.poller.Stats(bikeID)
	if err != nil {
		if errors.Is(err, services.ErrBikeNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}
	bookmark, _ := bc.poller.Bookmark(bikeID)
	return c.JSON(bikeStatisticsRes{UsageStats: stats, Bookmark: bookmark})
}

// GetBikePass godoc
// @Description gets the bike pass document, when the account holds one
// @Produce json
// @Param bikeID path string true "bike id"
// @Success 200 {object} services.BikePass
// @Router /v1/bikes/{bikeID}/pass [get]
func (bc *BikesController) GetBikePass(c *fiber.Ctx) error {
	pass, err := bc.poller.BikePass(c.Params("bikeID"))
	if err != nil {
		if errors.Is(err, services.ErrBikeNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}
	if pass == nil {
		return fiber.NewError(fiber.StatusNotFound, "no bike pass on file for this bike")
	}
	return c.JSON(pass)
}

// RefreshBike godoc
// @Description asks the poll loop to refresh this bike ahead of its schedule
// @Param bikeID path string true "bike id"
// @Success 202
// @Router /v1/bikes/{bikeID}/refresh [post]
func (bc *BikesController) RefreshBike(c *fiber.Ctx) error {
	if err := bc.poller.RequestRefresh(c.Params("bikeID")); err != nil {
		if errors.Is(err, services.ErrBikeNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}
	return c.SendStatus(fiber.StatusAccepted)
}

func (bc *BikesController) snapshotOr404(c *fiber.Ctx) (*services.BikeSnapshot, error) {
	snap, err := bc.poller.Snapshot(c.Params("bikeID"))
	if err != nil {
		if errors.Is(err, services.ErrBikeNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return snap, nil
}
