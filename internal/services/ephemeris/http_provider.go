package ephemeris

import (
	"context"
	"fmt"
	"math"
	"strings"

	"Astrolabe/internal/domain/models"
	"Astrolabe/internal/domain/service"
	"Astrolabe/internal/services/astro"
	xhttp "Astrolabe/pkg/http"
	"Astrolabe/pkg/logger"
)

const computePath = "/v1/ephemeris"

type computeRequest struct {
	models.EphemerisQuery
	HouseCode string `json:"house_code,omitempty"`
}

// HTTPProvider asks a remote ephemeris service for positions and cusps.
// Every call is a single attempt.
type HTTPProvider struct {
	baseURL string
	client  *xhttp.Client
	log     *logger.Logger
}

var _ service.Ephemeris = (*HTTPProvider)(nil)

func NewHTTPProvider(baseURL string, client *xhttp.Client, l *logger.Logger) *HTTPProvider {
	if l == nil {
		l = logger.Nop()
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     l,
	}
}

// Compute fetches the query's bodies and, when a house system is set, the
// cusps. Transport failures, non-2xx answers and results with missing or
// non-finite numbers all come back as ErrEphemerisUnavailable.
func (p *HTTPProvider) Compute(ctx context.Context, q models.EphemerisQuery) (models.EphemerisResult, error) {
	req := computeRequest{EphemerisQuery: q}
	if q.HouseSystem != "" {
		req.HouseCode = q.HouseSystem.Code()
	}

	var res models.EphemerisResult
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    p.baseURL + computePath,
		Body:   req,
	}, &res)
	if err != nil {
		p.log.Error("ephemeris request failed",
			logger.Float64("jd_ut", q.JulianDayUT),
			logger.Error(err),
		)
		return models.EphemerisResult{}, fmt.Errorf("%w: %v", models.ErrEphemerisUnavailable, err)
	}

	if err := checkResult(q, res); err != nil {
		p.log.Error("ephemeris returned invalid data",
			logger.Float64("jd_ut", q.JulianDayUT),
			logger.Error(err),
		)
		return models.EphemerisResult{}, fmt.Errorf("%w: %v", models.ErrEphemerisUnavailable, err)
	}

	for i := range res.Positions {
		res.Positions[i].Longitude = astro.Normalize(res.Positions[i].Longitude)
	}
	if res.Houses != nil {
		for i := range res.Houses.Cusps {
			res.Houses.Cusps[i] = astro.Normalize(res.Houses.Cusps[i])
		}
		res.Houses.Ascendant = astro.Normalize(res.Houses.Ascendant)
		res.Houses.Midheaven = astro.Normalize(res.Houses.Midheaven)
	}
	return res, nil
}

func checkResult(q models.EphemerisQuery, res models.EphemerisResult) error {
	for _, b := range q.Bodies {
		pos, ok := res.Position(b)
		if !ok {
			return fmt.Errorf("missing body %s", b)
		}
		if !finite(pos.Longitude) || !finite(pos.Speed) {
			return fmt.Errorf("non-finite position for %s", b)
		}
	}

	if q.HouseSystem == "" {
		return nil
	}
	if res.Houses == nil {
		return fmt.Errorf("missing houses for system %s", q.HouseSystem)
	}
	for i, c := range res.Houses.Cusps {
		if !finite(c) {
			return fmt.Errorf("non-finite cusp %d", i+1)
		}
	}
	if !finite(res.Houses.Ascendant) || !finite(res.Houses.Midheaven) {
		return fmt.Errorf("non-finite angles")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
