package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/evcraddock/campbook/internal/availability"
	"github.com/evcraddock/campbook/internal/calday"
	"github.com/evcraddock/campbook/internal/guest"
	"github.com/evcraddock/campbook/internal/index"
	"github.com/evcraddock/campbook/internal/reservation"
	"github.com/evcraddock/campbook/internal/unit"
)

// writeError maps a service error to a status code and error kind.
func writeError(w http.ResponseWriter, err error) {
	var overlap *availability.OverlapConflictError

	switch {
	case errors.Is(err, calday.ErrMalformedDate):
		apiError(w, err.Error(), "malformed_date", http.StatusBadRequest)
	case errors.Is(err, reservation.ErrInvalidInterval):
		apiError(w, err.Error(), "invalid_interval", http.StatusBadRequest)

	case errors.Is(err, reservation.ErrNotFound),
		errors.Is(err, unit.ErrNotFound),
		errors.Is(err, guest.ErrNotFound):
		apiError(w, err.Error(), "not_found", http.StatusNotFound)

	case errors.Is(err, availability.ErrConcurrentOverlapConflict):
		apiError(w, err.Error(), "concurrent_overlap_conflict", http.StatusConflict)
	case errors.Is(err, reservation.ErrConcurrentUpdate):
		apiError(w, err.Error(), "concurrent_update", http.StatusConflict)
	case errors.As(err, &overlap):
		apiJSON(w, errorResponse{
			Error:     err.Error(),
			Kind:      "overlap_conflict",
			Conflicts: overlap.ConflictIDs,
		}, http.StatusConflict)

	case errors.Is(err, reservation.ErrImmutableField):
		apiError(w, err.Error(), "immutable_field", http.StatusUnprocessableEntity)
	case errors.Is(err, reservation.ErrAlreadyCheckedIn):
		apiError(w, err.Error(), "already_checked_in", http.StatusUnprocessableEntity)
	case errors.Is(err, reservation.ErrCheckInTooEarly):
		apiError(w, err.Error(), "checkin_too_early", http.StatusUnprocessableEntity)

	case errors.Is(err, index.ErrUnreliable):
		apiError(w, err.Error(), "unreliable", http.StatusServiceUnavailable)
	case errors.Is(err, index.ErrStaleIndex):
		apiError(w, err.Error(), "stale_index", http.StatusServiceUnavailable)

	default:
		slog.Error("request failed", "error", err)
		apiError(w, "internal error", "internal", http.StatusInternalServerError)
	}
}
