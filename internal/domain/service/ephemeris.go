package service

import (
	"context"

	"Astrolabe/internal/domain/models"
)

// Ephemeris computes raw body positions and house cusps. Failures are
// reported wrapped in models.ErrEphemerisUnavailable.
type Ephemeris interface {
	Compute(ctx context.Context, q models.EphemerisQuery) (models.EphemerisResult, error)
}
