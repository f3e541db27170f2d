package models

// Request payloads for the HTTP API. Defaults are applied before validation.

type ChartRequest struct {
	Datetime            string  `json:"datetime" validate:"required"`
	Timezone            string  `json:"timezone" default:"UTC" validate:"timezone"`
	Latitude            float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude           float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Altitude            float64 `json:"altitude" validate:"gte=-500,lte=10000"`
	HouseSystem         string  `json:"house_system" default:"placidus"`
	TopocentricMoonOnly *bool   `json:"topocentric_moon_only" default:"true"`
}

type TransitRequest struct {
	Date     string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time     string `query:"time" json:"time" validate:"omitempty,datetime=15:04"`
	Timezone string `query:"timezone" json:"timezone" default:"UTC" validate:"timezone"`
}

type HoroscopeRequest struct {
	BirthData  *NatalChart `json:"birth_data" validate:"required"`
	TargetDate string      `json:"target_date" validate:"omitempty,datetime=2006-01-02"`
	Timezone   string      `json:"timezone" default:"UTC" validate:"timezone"`
}

type MonthlyRequest struct {
	Month string `query:"month" json:"month" validate:"omitempty,datetime=2006-01"`
}

type HistoryRequest struct {
	From  string `query:"from" json:"from" validate:"required,datetime=2006-01-02"`
	To    string `query:"to" json:"to" validate:"required,datetime=2006-01-02"`
	Kind  string `query:"kind" json:"kind" validate:"omitempty,oneof=aspect ingress station eclipse"`
	Limit int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=5000"`
}
