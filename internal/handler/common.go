package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gokartmania/turn-reservation/internal/booking"
)

// respondError translates engine errors onto the HTTP status codes the
// clients key off: 400 for caller mistakes (never retried automatically),
// 404 for unknown ids (terminal), 409 for lost races (retry after
// re-resolving availability).
func respondError(c echo.Context, err error) error {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "problems": verr.Problems})
	case errors.Is(err, booking.ErrReservationNotFound), errors.Is(err, booking.ErrTurnNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrConflict), errors.Is(err, booking.ErrTurnBlocked):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// parsePositionKey turns a "pos<N>" wire key into the kart number N.
func parsePositionKey(key string) (int, error) {
	raw := strings.TrimPrefix(key, "pos")
	if raw == key {
		return 0, fmt.Errorf("invalid position key %q", key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid position key %q", key)
	}
	return n, nil
}

// positionKey is the inverse of parsePositionKey.
func positionKey(n int) string {
	return "pos" + strconv.Itoa(n)
}
