package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/marq24/ebike-flow-api/internal/services"
)

func testTime() time.Time {
	return time.Date(2024, 5, 3, 11, 22, 33, 0, time.UTC)
}

func entityByID(t *testing.T, list []Entity, id string) Entity {
	t.Helper()
	for _, e := range list {
		if e.UniqueID == id {
			return e
		}
	}
	t.Fatalf("entity %s not found", id)
	return Entity{}
}

func TestBuild_RendersSnapshotValues(t *testing.T) {
	snap := &services.BikeSnapshot{
		BikeID:                  "bike-1",
		BatteryLevel:            null.Float64From(64),
		Odometer:                null.Float64From(1523456),
		BatteryCharging:         null.BoolFrom(true),
		LiveDataAvailable:       true,
		RemainingEnergyForRider: null.Float64From(430),
	}
	stats := services.UsageStats{Rides: 12, Distance: 250000, Duration: 90000, Calories: 8000}

	list := Build(snap, stats)
	require.Len(t, list, len(SensorDescriptors)+len(BinarySensorDescriptors))

	battery := entityByID(t, list, "bike-1_battery_level")
	assert.True(t, battery.Available)
	assert.Equal(t, 64.0, battery.State)

	odo := entityByID(t, list, "bike-1_odometer")
	assert.Equal(t, 1523.4, odo.State)

	rides := entityByID(t, list, "bike-1_total_rides")
	assert.Equal(t, int64(12), rides.State)

	distance := entityByID(t, list, "bike-1_total_distance")
	assert.Equal(t, 250.0, distance.State)

	charging := entityByID(t, list, "bike-1_charging")
	assert.Equal(t, KindBinarySensor, charging.Kind)
	assert.Equal(t, true, charging.State)

	online := entityByID(t, list, "bike-1_online")
	assert.Equal(t, true, online.State)
}

func TestBuild_DiagnosticSoftwareSensorsAndDefaults(t *testing.T) {
	snap := &services.BikeSnapshot{
		BikeID:                  "bike-1",
		BatteryLevel:            null.Float64From(64),
		BatterySoftware:         null.StringFrom("3.1.0"),
		RemoteControlSoftware:   null.StringFrom("2.0.1"),
		DeliveredWhOverLifetime: null.Float64From(123456),
	}

	list := Build(snap, services.UsageStats{})

	batSW := entityByID(t, list, "bike-1_battery_software")
	assert.Equal(t, "3.1.0", batSW.State)
	assert.True(t, batSW.Diagnostic)
	assert.False(t, batSW.EnabledByDefault)

	rcSW := entityByID(t, list, "bike-1_remote_control_software")
	assert.Equal(t, "2.0.1", rcSW.State)
	assert.False(t, rcSW.EnabledByDefault)

	lifetime := entityByID(t, list, "bike-1_lifetime_energy_delivered")
	assert.Equal(t, "kWh", lifetime.Unit)
	assert.Equal(t, 123.45, lifetime.State)

	battery := entityByID(t, list, "bike-1_battery_level")
	assert.True(t, battery.EnabledByDefault)

	charger := entityByID(t, list, "bike-1_charger_connected")
	assert.False(t, charger.EnabledByDefault)
}

func TestBuild_MissingReadingsAreUnavailable(t *testing.T) {
	snap := &services.BikeSnapshot{BikeID: "bike-1"}

	list := Build(snap, services.UsageStats{})

	battery := entityByID(t, list, "bike-1_battery_level")
	assert.False(t, battery.Available)
	assert.Nil(t, battery.State)

	locked := entityByID(t, list, "bike-1_locked")
	assert.False(t, locked.Available)
}

func TestBuild_LiveOnlyEntitiesDropWhenOffline(t *testing.T) {
	snap := &services.BikeSnapshot{
		BikeID:                  "bike-1",
		RemainingEnergyForRider: null.Float64From(430),
		LastUpdate:              null.TimeFrom(testTime()),
		LiveDataAvailable:       false,
	}

	list := Build(snap, services.UsageStats{})

	rider := entityByID(t, list, "bike-1_remaining_energy_rider")
	assert.False(t, rider.Available)
	assert.Nil(t, rider.State)

	lastUpdate := entityByID(t, list, "bike-1_last_update")
	assert.False(t, lastUpdate.Available)
}

func TestBuild_StaleSnapshotMarksEverythingUnavailable(t *testing.T) {
	snap := &services.BikeSnapshot{
		BikeID:       "bike-1",
		BatteryLevel: null.Float64From(64),
		Stale:        true,
	}

	list := Build(snap, services.UsageStats{})

	battery := entityByID(t, list, "bike-1_battery_level")
	assert.False(t, battery.Available)
}
