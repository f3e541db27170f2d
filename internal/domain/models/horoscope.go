package models

// AspectMatch is one detected aspect. Angle and Orb are rounded to four
// decimals; Weight ranks matches and never gates them.
type AspectMatch struct {
	BodyA    string  `json:"body_a"`
	BodyB    string  `json:"body_b"`
	Aspect   string  `json:"aspect"`
	Angle    float64 `json:"angle"`
	Orb      float64 `json:"orb"`
	Weight   int     `json:"weight"`
	Applying bool    `json:"applying"`
}

type HouseActivation struct {
	House   int      `json:"house"`
	Meaning string   `json:"meaning"`
	Bodies  []string `json:"bodies"`
	Weight  int      `json:"weight"`
}

// TransitPosition is one transiting body in a snapshot.
type TransitPosition struct {
	Name         string  `json:"name"`
	Longitude    float64 `json:"longitude"`
	Speed        float64 `json:"speed"`
	Retrograde   bool    `json:"retrograde"`
	Sign         string  `json:"sign"`
	SignIndex    int     `json:"sign_index"`
	DegreeInSign float64 `json:"degree_in_sign"`
	Formatted    string  `json:"formatted"`
}

type TransitSnapshot struct {
	Date        string            `json:"date"`
	Time        string            `json:"time"`
	Timezone    string            `json:"timezone"`
	JulianDayUT float64           `json:"jd_ut"`
	Transits    []TransitPosition `json:"transits"`
}

type Interpretation struct {
	Summary string `json:"summary"`
	Advice  string `json:"advice"`
}

type DailyHoroscope struct {
	Date            string            `json:"date"`
	Timezone        string            `json:"timezone"`
	Transits        []TransitPosition `json:"transits"`
	TopAspects      []AspectMatch     `json:"top_aspects"`
	HousesActivated []HouseActivation `json:"houses_activated"`
	NatalAscendant  string            `json:"natal_ascendant"`
	Interpretation  Interpretation    `json:"interpretation"`
}
