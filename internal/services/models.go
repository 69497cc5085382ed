package services

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Vendor documents from the connected-biking cloud. Nearly every numeric field
// can come back null, the profile endpoint reports whatever the bike last
// synced through the app while the state-of-charge endpoint only answers while
// the ConnectModule is online.

type BikesResponse struct {
	Data []BikeSummary `json:"data"`
}

type BikeSummary struct {
	ID         string      `json:"id"`
	Attributes BikeProfile `json:"attributes"`
}

type BikeProfileResponse struct {
	Data BikeSummary `json:"data"`
}

type BikeProfile struct {
	BrandName       null.String      `json:"brandName"`
	FrameNumber     null.String      `json:"frameNumber"`
	Batteries       []Battery        `json:"batteries"`
	DriveUnit       *DriveUnit       `json:"driveUnit"`
	ConnectedModule *ConnectedModule `json:"connectedModule"`
	RemoteControl   *Component       `json:"remoteControl"`
}

// Component is the common shape of the hardware sub-documents.
type Component struct {
	ProductName     null.String `json:"productName"`
	SoftwareVersion null.String `json:"softwareVersion"`
	SerialNumber    null.String `json:"serialNumber"`
}

type Battery struct {
	Component
	BatteryLevel             null.Float64  `json:"batteryLevel"`
	RemainingEnergy          null.Float64  `json:"remainingEnergy"`
	TotalEnergy              null.Float64  `json:"totalEnergy"`
	IsCharging               null.Bool     `json:"isCharging"`
	IsChargerConnected       null.Bool     `json:"isChargerConnected"`
	NumberOfFullChargeCycles *ChargeCycles `json:"numberOfFullChargeCycles"`
	DeliveredWhOverLifetime  null.Float64  `json:"deliveredWhOverLifetime"`
}

type ChargeCycles struct {
	Total null.Float64 `json:"total"`
}

type DriveUnit struct {
	Component
	TotalDistanceTraveled null.Float64     `json:"totalDistanceTraveled"` // meters
	Lock                  *Lock            `json:"lock"`
	DriveUnitAssistModes  []AssistModeInfo `json:"driveUnitAssistModes"`
}

type Lock struct {
	IsLocked  null.Bool `json:"isLocked"`
	IsEnabled null.Bool `json:"isEnabled"`
}

type AssistModeInfo struct {
	Name           string       `json:"name"`
	ReachableRange null.Float64 `json:"reachableRange"` // km
}

type ConnectedModule struct {
	Component
	IsAlarmFeatureEnabled null.Bool `json:"isAlarmFeatureEnabled"`
}

// StateOfCharge is the live document from the ConnectModule. Only available
// while the bike is online, typically while charging.
type StateOfCharge struct {
	StateOfCharge             null.Float64 `json:"stateOfCharge"` // percent
	ChargingActive            null.Bool    `json:"chargingActive"`
	ChargerConnected          null.Bool    `json:"chargerConnected"`
	RemainingEnergyForRider   null.Float64 `json:"remainingEnergyForRider"` // Wh
	ReachableRange            []float64    `json:"reachableRange"`          // km per assist mode, most economical first
	Odometer                  null.Float64 `json:"odometer"`                // meters
	StateOfChargeLatestUpdate null.Time    `json:"stateOfChargeLatestUpdate"`
}

type ActivityPage struct {
	Data []Activity   `json:"data"`
	Meta ActivityMeta `json:"meta"`
}

type ActivityMeta struct {
	Pages    int `json:"pages"`
	Elements int `json:"elements"`
}

type Activity struct {
	ID         string             `json:"id"`
	Attributes ActivityAttributes `json:"attributes"`
}

type ActivityAttributes struct {
	BikeID       string       `json:"bikeId"`
	Title        null.String  `json:"title"`
	StartTime    time.Time    `json:"startTime"`
	Distance     null.Float64 `json:"distance"`   // meters
	RidingTime   null.Float64 `json:"ridingTime"` // seconds
	Calories     null.Float64 `json:"calories"`
	AverageSpeed null.Float64 `json:"averageSpeed"` // km/h
}

type BikePassesResponse struct {
	BikePasses []BikePass `json:"bikePasses"`
}

type BikePass struct {
	BikeID      string         `json:"bikeId"`
	FrameNumber string         `json:"frameNumber"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Files       []BikePassFile `json:"files"`
}

type BikePassFile struct {
	BikeID    string    `json:"bikeId"`
	FileID    string    `json:"fileId"`
	FileType  string    `json:"fileType"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SubscriptionState struct {
	Status bool `json:"status"`
}
