package ephemeris

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Astrolabe/internal/domain/models"
	xhttp "Astrolabe/pkg/http"
)

func newProvider(t *testing.T, handler http.HandlerFunc) *HTTPProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPProvider(srv.URL+"/", xhttp.NewClient(xhttp.WithTimeout(2*time.Second)), nil)
}

func TestHTTPProvider_Compute(t *testing.T) {
	var got map[string]interface{}
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/ephemeris" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{
			"positions": [
				{"name": "sun", "longitude": 54.25, "speed": 0.96},
				{"name": "moon", "longitude": 370.5, "speed": 13.1}
			],
			"houses": {"cusps": [350,20,50,80,110,140,170,200,230,260,290,320], "asc": 350, "mc": 260}
		}`))
	})

	res, err := p.Compute(context.Background(), models.EphemerisQuery{
		JulianDayUT: 2448027.1041667,
		Latitude:    40.4168,
		Longitude:   -3.7038,
		HouseSystem: models.Placidus,
		Bodies:      []models.Body{models.Sun, models.Moon},
		Settings:    models.EphemerisSettings{Path: "/ephe", Topocentric: true, Altitude: 650},
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if got["house_code"] != "P" || got["house_system"] != "placidus" {
		t.Fatalf("house system not sent: %v", got)
	}
	settings, _ := got["settings"].(map[string]interface{})
	if settings["ephe_path"] != "/ephe" || settings["topocentric"] != true {
		t.Fatalf("settings not sent: %v", got["settings"])
	}

	moon, ok := res.Position(models.Moon)
	if !ok || moon.Longitude != 10.5 {
		t.Fatalf("moon longitude not normalized: %+v", moon)
	}
	if res.Houses == nil || res.Houses.Cusps[0] != 350 || res.Houses.Midheaven != 260 {
		t.Fatalf("unexpected houses %+v", res.Houses)
	}
}

func TestHTTPProvider_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		houses models.HouseSystem
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, ""},
		{"bad json", http.StatusOK, `{"positions": [`, ""},
		{"missing body", http.StatusOK, `{"positions": [{"name":"sun","longitude":1,"speed":1}]}`, ""},
		{"missing houses", http.StatusOK, `{"positions": [{"name":"sun","longitude":1,"speed":1},{"name":"moon","longitude":2,"speed":13}]}`, models.Whole},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := p.Compute(context.Background(), models.EphemerisQuery{
				Bodies:      []models.Body{models.Sun, models.Moon},
				HouseSystem: tc.houses,
			})
			if !errors.Is(err, models.ErrEphemerisUnavailable) {
				t.Fatalf("expected ErrEphemerisUnavailable, got %v", err)
			}
		})
	}
}

func TestHTTPProvider_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewHTTPProvider(url, xhttp.NewClient(xhttp.WithTimeout(time.Second)), nil)
	_, err := p.Compute(context.Background(), models.EphemerisQuery{Bodies: []models.Body{models.Sun}})
	if !errors.Is(err, models.ErrEphemerisUnavailable) {
		t.Fatalf("expected ErrEphemerisUnavailable, got %v", err)
	}
}
