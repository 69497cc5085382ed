package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/marq24/ebike-flow-api/internal/constants"
)

// BikeSnapshot is the merged view of one bike: the app-synced profile
// document overlaid with the live ConnectModule document when the bike is
// online.
type BikeSnapshot struct {
	BikeID       string      `json:"bikeId"`
	Name         string      `json:"name"`
	Manufacturer string      `json:"manufacturer"`
	Model        string      `json:"model"`
	Brand        null.String `json:"brand,omitempty"`
	FrameNumber  null.String `json:"frameNumber,omitempty"`

	DriveUnitProduct  null.String `json:"driveUnitProduct,omitempty"`
	DriveUnitSerial   null.String `json:"driveUnitSerial,omitempty"`
	DriveUnitSoftware null.String `json:"driveUnitSoftware,omitempty"`

	ConnectModuleProduct  null.String `json:"connectModuleProduct,omitempty"`
	ConnectModuleSerial   null.String `json:"connectModuleSerial,omitempty"`
	ConnectModuleSoftware null.String `json:"connectModuleSoftware,omitempty"`

	RemoteControlProduct  null.String `json:"remoteControlProduct,omitempty"`
	RemoteControlSoftware null.String `json:"remoteControlSoftware,omitempty"`

	BatteryProduct  null.String `json:"batteryProduct,omitempty"`
	BatterySerial   null.String `json:"batterySerial,omitempty"`
	BatterySoftware null.String `json:"batterySoftware,omitempty"`

	BatteryLevel            null.Float64 `json:"batteryLevel,omitempty"`            // percent
	BatteryCharging         null.Bool    `json:"batteryCharging,omitempty"`
	ChargerConnected        null.Bool    `json:"chargerConnected,omitempty"`
	RemainingEnergy         null.Float64 `json:"remainingEnergy,omitempty"`         // Wh
	TotalEnergy             null.Float64 `json:"totalEnergy,omitempty"`             // Wh
	RemainingEnergyForRider null.Float64 `json:"remainingEnergyForRider,omitempty"` // Wh
	ChargeCycles            null.Float64 `json:"chargeCycles,omitempty"`
	DeliveredWhOverLifetime null.Float64 `json:"deliveredWhOverLifetime,omitempty"`

	Odometer          null.Float64 `json:"odometer,omitempty"`          // meters
	ReachableRangeMax null.Float64 `json:"reachableRangeMax,omitempty"` // km
	ReachableRangeMin null.Float64 `json:"reachableRangeMin,omitempty"` // km

	LockEnabled  null.Bool `json:"lockEnabled,omitempty"`
	Locked       null.Bool `json:"locked,omitempty"`
	AlarmEnabled null.Bool `json:"alarmEnabled,omitempty"`

	LastUpdate        null.Time `json:"lastUpdate,omitempty"`
	LiveDataAvailable bool      `json:"liveDataAvailable"`
	Stale             bool      `json:"stale"`
	CollectedAt       time.Time `json:"collectedAt"`
}

// CombineBikeData merges the profile document with the live state-of-charge
// document. The profile seeds every field; live values fill battery gaps,
// replace the profile-derived ranges, and override the odometer.
func CombineBikeData(bikeID string, profile *BikeProfile, soc *StateOfCharge) *BikeSnapshot {
	snap := &BikeSnapshot{
		BikeID:       bikeID,
		Manufacturer: constants.BikeManufacturer,
		Model:        constants.DefaultBikeModel,
		CollectedAt:  time.Now().UTC(),
	}
	if profile == nil {
		return snap
	}

	snap.Name = BuildBikeName(profile)
	if profile.DriveUnit != nil && profile.DriveUnit.ProductName.Valid {
		snap.Model = profile.DriveUnit.ProductName.String
	}
	snap.Brand = profile.BrandName
	snap.FrameNumber = profile.FrameNumber

	if du := profile.DriveUnit; du != nil {
		snap.DriveUnitProduct = du.ProductName
		snap.DriveUnitSerial = du.SerialNumber
		snap.DriveUnitSoftware = du.SoftwareVersion
		snap.Odometer = du.TotalDistanceTraveled
		snap.ReachableRangeMax, snap.ReachableRangeMin = assistModeRangeBounds(du.DriveUnitAssistModes)
		if du.Lock != nil {
			snap.LockEnabled = du.Lock.IsEnabled
			snap.Locked = du.Lock.IsLocked
		}
	}
	if cm := profile.ConnectedModule; cm != nil {
		snap.ConnectModuleProduct = cm.ProductName
		snap.ConnectModuleSerial = cm.SerialNumber
		snap.ConnectModuleSoftware = cm.SoftwareVersion
		snap.AlarmEnabled = cm.IsAlarmFeatureEnabled
	}
	if rc := profile.RemoteControl; rc != nil {
		snap.RemoteControlProduct = rc.ProductName
		snap.RemoteControlSoftware = rc.SoftwareVersion
	}
	if len(profile.Batteries) > 0 {
		bat := profile.Batteries[0]
		snap.BatteryProduct = bat.ProductName
		snap.BatterySerial = bat.SerialNumber
		snap.BatterySoftware = bat.SoftwareVersion
		snap.BatteryLevel = bat.BatteryLevel
		snap.BatteryCharging = bat.IsCharging
		snap.ChargerConnected = bat.IsChargerConnected
		snap.RemainingEnergy = bat.RemainingEnergy
		snap.TotalEnergy = bat.TotalEnergy
		snap.DeliveredWhOverLifetime = bat.DeliveredWhOverLifetime
		if bat.NumberOfFullChargeCycles != nil {
			snap.ChargeCycles = bat.NumberOfFullChargeCycles.Total
		}
	}

	if soc == nil {
		return snap
	}
	snap.LiveDataAvailable = true

	// live values only fill battery fields the profile left empty
	if !snap.BatteryLevel.Valid {
		snap.BatteryLevel = soc.StateOfCharge
	}
	if !snap.BatteryCharging.Valid {
		snap.BatteryCharging = soc.ChargingActive
	}
	if !snap.ChargerConnected.Valid {
		snap.ChargerConnected = soc.ChargerConnected
	}

	snap.RemainingEnergyForRider = soc.RemainingEnergyForRider
	if soc.Odometer.Valid {
		snap.Odometer = soc.Odometer
	}
	if len(soc.ReachableRange) > 0 {
		snap.ReachableRangeMax, snap.ReachableRangeMin = liveRangeBounds(soc.ReachableRange)
	}
	snap.LastUpdate = soc.StateOfChargeLatestUpdate

	return snap
}

// BuildBikeName derives a display name. The drive unit product is the most
// recognizable label, then the frame number tail, then the bare brand.
func BuildBikeName(profile *BikeProfile) string {
	brand := profile.BrandName.String
	if brand == "" {
		brand = "eBike"
	}

	if profile.DriveUnit != nil && profile.DriveUnit.ProductName.String != "" {
		return fmt.Sprintf("%s (%s)", brand, profile.DriveUnit.ProductName.String)
	}
	if frame := profile.FrameNumber.String; len(frame) >= 4 {
		return fmt.Sprintf("%s (...%s)", brand, frame[len(frame)-4:])
	}
	return brand
}

// assistModeRangeBounds takes the per-assist-mode range estimates from the
// profile. Sorted descending, the strongest bound is the first entry and the
// weakest the last non-zero one, or 0 when every mode reports zero.
func assistModeRangeBounds(modes []AssistModeInfo) (null.Float64, null.Float64) {
	ranges := make([]float64, 0, len(modes))
	for _, m := range modes {
		if m.ReachableRange.Valid {
			ranges = append(ranges, m.ReachableRange.Float64)
		}
	}
	return rangeBounds(ranges)
}

func liveRangeBounds(ranges []float64) (null.Float64, null.Float64) {
	return rangeBounds(append([]float64(nil), ranges...))
}

func rangeBounds(ranges []float64) (maxRange, minRange null.Float64) {
	if len(ranges) == 0 {
		return
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ranges)))

	maxRange = null.Float64From(ranges[0])
	minRange = null.Float64From(0)
	for i := len(ranges) - 1; i >= 0; i-- {
		if ranges[i] > 0 {
			minRange = null.Float64From(ranges[i])
			break
		}
	}
	return
}
