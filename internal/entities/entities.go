// Package entities maps merged bike snapshots onto the flat entity surface a
// smart-home platform consumes: one sensor or binary sensor per descriptor,
// addressed by a stable unique id.
package entities

import (
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/marq24/ebike-flow-api/internal/services"
)

const (
	KindSensor       = "sensor"
	KindBinarySensor = "binary_sensor"
)

// Entity is one rendered state, ready for serialization.
type Entity struct {
	UniqueID         string `json:"uniqueId"`
	Name             string `json:"name"`
	Kind             string `json:"kind"`
	DeviceClass      string `json:"deviceClass,omitempty"`
	Unit             string `json:"unit,omitempty"`
	Diagnostic       bool   `json:"diagnostic,omitempty"`
	EnabledByDefault bool   `json:"enabledByDefault"`
	Available        bool   `json:"available"`
	State            any    `json:"state"`
}

// SensorDescriptor declares one sensor. Value returns nil when the snapshot
// does not carry the reading, which renders the entity unavailable. Disabled
// descriptors still render but the platform leaves them off until the user
// opts in.
type SensorDescriptor struct {
	Key         string
	Name        string
	Unit        string
	DeviceClass string
	Diagnostic  bool
	Disabled    bool
	LiveOnly    bool
	Value       func(snap *services.BikeSnapshot, stats services.UsageStats) any
}

// BinarySensorDescriptor declares one on/off state.
type BinarySensorDescriptor struct {
	Key         string
	Name        string
	DeviceClass string
	Diagnostic  bool
	Disabled    bool
	LiveOnly    bool
	Value       func(snap *services.BikeSnapshot) null.Bool
}

func floatState(v null.Float64) any {
	if !v.Valid {
		return nil
	}
	return v.Float64
}

func stringState(v null.String) any {
	if !v.Valid {
		return nil
	}
	return v.String
}

// metersToKm keeps one decimal, the platform renders distances in km.
func metersToKm(v null.Float64) any {
	if !v.Valid {
		return nil
	}
	return float64(int(v.Float64/100)) / 10
}

// whToKWh keeps two decimals, lifetime energy in Wh reads like a phone number.
func whToKWh(v null.Float64) any {
	if !v.Valid {
		return nil
	}
	return float64(int(v.Float64/10)) / 100
}

var SensorDescriptors = []SensorDescriptor{
	{
		Key: "battery_level", Name: "Battery", Unit: "%", DeviceClass: "battery",
		Value: func(s *services.BikeSnapshot, _ services.UsageStats) any { return floatState(s.BatteryLevel) },
	},
	{
		Key: "odometer", Name: "Odometer", Unit: "km", DeviceClass: "distance",
		Value: func(s *services.BikeSnapshot, _ services.UsageStats) any { return metersToKm(s.Odometer) },
	},
	{
		Key: "reachable_range_max", Name: "Reachable Range (max)", Unit: "km", DeviceClass: "distance",
		Value: func(s *services.BikeSnapshot, _ services.UsageStats) any { return floatState(s.ReachableRangeMax) },
	},
	{
		Key: "reachable_range_min", Name: "Reachable Range (min)", Unit: "km", DeviceClass: "distance",
		Value: func(s *services.BikeSnapshot, _ services.UsageStats) any { return floatState(s.ReachableRangeMin) },
	},
	{
		Key: "remaining_energy", Name: "Remaining Energy", Unit: "Wh", DeviceClass: "energy_storage",
		Value: func(s *services.BikeSnapshot, _ services.UsageStats) any { return floatState(s.RemainingEnergy) },
	},
	{
		Key: "remaining_energy_rider", Name: "Remaining Energy for Rider", Unit: "Wh", DeviceClass: "energy_storage", LiveOnly: true,
		Value: func(s *services.BikeSnapshot, _ services.UsageStats) any { return floatState(s.RemainingEnergyForRider) },
	},
	{
		Key: "total_energy", Name: "Battery Capacity", Unit: "Wh", DeviceClass: "energy_storage", Diagnostic: true,
		Value: func(s *services.BikeSnapshot, _ services.UsageStats) any { return floatState(s.TotalEnergy) },
	},
	{
		Key: "charge_cycles", Name: "Full Charge Cycles", Diagnostic: true,
		Value: func(s *services.BikeSnapshot, _ services.UsageStats) any { return floatState(s.ChargeCycles) },
	},
	{
		Key: "lifetime_energy_delivered", Name: "Delivered Energy (lifetime)", Unit: "kWh", DeviceClass: "energy", Diagnostic: true,
		Value: func(s *services.BikeSnapshot, _ services.UsageStats) any { return whToKWh(s.DeliveredWhOverLifetime) },
	},
	{
		Key: "last_update", Name: "Last Update", DeviceClass: "timestamp", LiveOnly: true,
		Value: func(s *services.BikeSnapshot, _ services.UsageStats) any {
			if !s.LastUpdate.Valid {
				return nil
			}
			return s.LastUpdate.Time
		},
	},
	{
		Key: "drive_unit_software", Name: "Drive Unit Software", Diagnostic: true, Disabled: true,
		Value: func(s *services.BikeSnapshot, _ services.UsageStats) any { return stringState(s.DriveUnitSoftware) },
	},
	{
		Key: "connect_module_software", Name: "ConnectModule Software", Diagnostic: true, Disabled: true,
		Value: func(s *services.BikeSnapshot, _ services.UsageStats) any { return stringState(s.ConnectModuleSoftware) },
	},
	{
		Key: "battery_software", Name: "Battery Software", Diagnostic: true, Disabled: true,
		Value: func(s *services.BikeSnapshot, _ services.UsageStats) any { return stringState(s.BatterySoftware) },
	},
	{
		Key: "remote_control_software", Name: "Remote Control Software", Diagnostic: true, Disabled: true,
		Value: func(s *services.BikeSnapshot, _ services.UsageStats) any { return stringState(s.RemoteControlSoftware) },
	},
	{
		Key: "total_rides", Name: "Total Rides",
		Value: func(_ *services.BikeSnapshot, st services.UsageStats) any { return st.Rides },
	},
	{
		Key: "total_distance", Name: "Total Ride Distance", Unit: "km", DeviceClass: "distance",
		Value: func(_ *services.BikeSnapshot, st services.UsageStats) any {
			return metersToKm(null.Float64From(st.Distance))
		},
	},
	{
		Key: "total_duration", Name: "Total Ride Duration", Unit: "s", DeviceClass: "duration",
		Value: func(_ *services.BikeSnapshot, st services.UsageStats) any { return st.Duration },
	},
	{
		Key: "total_calories", Name: "Total Calories", Unit: "kcal",
		Value: func(_ *services.BikeSnapshot, st services.UsageStats) any { return st.Calories },
	},
}

var BinarySensorDescriptors = []BinarySensorDescriptor{
	{
		Key: "charging", Name: "Charging", DeviceClass: "battery_charging",
		Value: func(s *services.BikeSnapshot) null.Bool { return s.BatteryCharging },
	},
	{
		// the charger flag flaps while the bike sleeps, off until opted in
		Key: "charger_connected", Name: "Charger Connected", DeviceClass: "plug", Disabled: true,
		Value: func(s *services.BikeSnapshot) null.Bool { return s.ChargerConnected },
	},
	{
		Key: "lock_enabled", Name: "eBike Lock Enabled", Diagnostic: true, Disabled: true,
		Value: func(s *services.BikeSnapshot) null.Bool { return s.LockEnabled },
	},
	{
		Key: "locked", Name: "Locked", DeviceClass: "lock",
		Value: func(s *services.BikeSnapshot) null.Bool { return s.Locked },
	},
	{
		Key: "alarm_enabled", Name: "Alarm Enabled", Diagnostic: true, Disabled: true,
		Value: func(s *services.BikeSnapshot) null.Bool { return s.AlarmEnabled },
	},
	{
		Key: "online", Name: "Online", DeviceClass: "connectivity",
		Value: func(s *services.BikeSnapshot) null.Bool { return null.BoolFrom(s.LiveDataAvailable) },
	},
}

// UniqueID builds the platform-stable id for one entity of one bike.
func UniqueID(bikeID, key string) string {
	return fmt.Sprintf("%s_%s", bikeID, key)
}

// Build renders every descriptor against the snapshot. Entities whose source
// reading is missing, or whose live source is gone while the bike is offline,
// come back unavailable with a nil state.
func Build(snap *services.BikeSnapshot, stats services.UsageStats) []Entity {
	out := make([]Entity, 0, len(SensorDescriptors)+len(BinarySensorDescriptors))

	for _, d := range SensorDescriptors {
		state := d.Value(snap, stats)
		available := state != nil && !snap.Stale
		if d.LiveOnly && !snap.LiveDataAvailable {
			available = false
			state = nil
		}
		out = append(out, Entity{
			UniqueID:         UniqueID(snap.BikeID, d.Key),
			Name:             d.Name,
			Kind:             KindSensor,
			DeviceClass:      d.DeviceClass,
			Unit:             d.Unit,
			Diagnostic:       d.Diagnostic,
			EnabledByDefault: !d.Disabled,
			Available:        available,
			State:            state,
		})
	}

	for _, d := range BinarySensorDescriptors {
		v := d.Value(snap)
		var state any
		if v.Valid {
			state = v.Bool
		}
		available := v.Valid && !snap.Stale
		if d.LiveOnly && !snap.LiveDataAvailable {
			available = false
			state = nil
		}
		out = append(out, Entity{
			UniqueID:         UniqueID(snap.BikeID, d.Key),
			Name:             d.Name,
			Kind:             KindBinarySensor,
			DeviceClass:      d.DeviceClass,
			Diagnostic:       d.Diagnostic,
			EnabledByDefault: !d.Disabled,
			Available:        available,
			State:            state,
		})
	}

	return out
}
