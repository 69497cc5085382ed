package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/marq24/ebike-flow-api/internal/config"
	"github.com/marq24/ebike-flow-api/internal/constants"
	"github.com/marq24/ebike-flow-api/internal/services"
	"github.com/marq24/ebike-flow-api/internal/services/credstore"
)

// importActivities walks the complete ride history for every configured bike,
// publishes one event per ride and leaves the bookmark at the newest ride, so
// the next service start picks up from there instead of reimporting.
func importActivities(ctx context.Context, logger *zerolog.Logger, settings *config.Settings, apiSvc services.FlowAPIService, eventSvc services.EventService, store *credstore.Store) error {
	bikeIDs := settings.BikeIDList()
	if len(bikeIDs) == 0 {
		bikes, err := apiSvc.GetBikes(ctx)
		if err != nil {
			return err
		}
		for _, b := range bikes {
			bikeIDs = append(bikeIDs, b.ID)
		}
	}

	for _, bikeID := range bikeIDs {
		activities, err := apiSvc.GetAllActivities(ctx, bikeID)
		if err != nil {
			return err
		}
		if len(activities) == 0 {
			logger.Info().Str("bikeId", bikeID).Msg("No activities found.")
			continue
		}

		stats := services.UsageStats{}
		for i := len(activities) - 1; i >= 0; i-- {
			a := activities[i]
			stats.Rides++
			stats.Distance += a.Attributes.Distance.Float64
			stats.Duration += a.Attributes.RidingTime.Float64
			stats.Calories += a.Attributes.Calories.Float64

			if err := eventSvc.Emit(&services.CloudEventAlias{
				Type:    constants.ActivityProcessedEventType,
				Subject: bikeID,
				Source:  settings.ServiceName,
				Data: services.ActivityProcessedEvent{
					Timestamp:  time.Now().UTC(),
					BikeID:     bikeID,
					ActivityID: a.ID,
					StartTime:  a.Attributes.StartTime,
					Distance:   a.Attributes.Distance.Float64,
					RidingTime: a.Attributes.RidingTime.Float64,
					Calories:   a.Attributes.Calories.Float64,
					Stats:      stats,
				},
			}); err != nil {
				return err
			}
		}

		if err := store.StoreBookmark(ctx, bikeID, activities[0].ID); err != nil {
			return err
		}
		logger.Info().Str("bikeId", bikeID).Int64("rides", stats.Rides).Float64("distanceMeters", stats.Distance).Msg("Activity import finished.")
	}
	return nil
}
