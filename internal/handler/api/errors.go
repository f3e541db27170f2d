package api

import (
	"errors"
	"net/http"

	"Astrolabe/internal/domain/models"
	xhttp "Astrolabe/pkg/http"
)

// toAppError maps domain sentinels onto transport errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, models.ErrMalformedNatalChart):
		return xhttp.NewAppError("ERR_MALFORMED_NATAL_CHART", "birth_data", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.Is(err, models.ErrUnknownHouseSystem):
		return xhttp.NewAppError("ERR_UNKNOWN_HOUSE_SYSTEM", "house_system", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.Is(err, models.ErrInvalidRequest):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrEphemerisUnavailable):
		// provider details stay in the logs
		return xhttp.BadGatewayError("ERR_EPHEMERIS_UNAVAILABLE", "ephemeris provider unavailable").WithError(err)
	case errors.Is(err, models.ErrHistoryDisabled):
		return xhttp.ServiceUnavailableError("sky-event history is not enabled").WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
