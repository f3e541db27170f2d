package models

import "fmt"

// HouseSystem names one of the supported house division methods.
type HouseSystem string

const (
	Placidus HouseSystem = "placidus"
	Equal    HouseSystem = "equal"
	Koch     HouseSystem = "koch"
	Whole    HouseSystem = "whole"
)

var houseSystemCodes = map[HouseSystem]string{
	Placidus: "P",
	Equal:    "E",
	Koch:     "K",
	Whole:    "W",
}

// ParseHouseSystem resolves a configured or requested house system name.
func ParseHouseSystem(name string) (HouseSystem, error) {
	hs := HouseSystem(name)
	if _, ok := houseSystemCodes[hs]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownHouseSystem, name)
	}
	return hs, nil
}

// Code is the single-letter selector ephemeris engines use.
func (h HouseSystem) Code() string {
	return houseSystemCodes[h]
}

// HouseCusps holds the 12 cusp longitudes; cusp[i] starts house i+1.
type HouseCusps [12]float64

// EphemerisSettings travel with every provider call so no process-wide
// ephemeris state exists.
type EphemerisSettings struct {
	Path        string  `json:"ephe_path,omitempty"`
	Topocentric bool    `json:"topocentric"`
	Altitude    float64 `json:"altitude,omitempty"`
}

// EphemerisQuery asks the provider for body positions and, when HouseSystem
// is set, house cusps.
type EphemerisQuery struct {
	JulianDayUT float64           `json:"jd_ut"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	HouseSystem HouseSystem       `json:"house_system,omitempty"`
	Bodies      []Body            `json:"bodies"`
	Settings    EphemerisSettings `json:"settings"`
}

type HouseData struct {
	Cusps     HouseCusps `json:"cusps"`
	Ascendant float64    `json:"asc"`
	Midheaven float64    `json:"mc"`
}

type EphemerisResult struct {
	Positions []BodyPosition `json:"positions"`
	Houses    *HouseData     `json:"houses,omitempty"`
}

// Position returns the position of body b, if present.
func (r EphemerisResult) Position(b Body) (BodyPosition, bool) {
	for _, p := range r.Positions {
		if p.Name == b {
			return p, true
		}
	}
	return BodyPosition{}, false
}
