package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gokartmania/turn-reservation/internal/booking"
	"github.com/gokartmania/turn-reservation/internal/model"
)

// AvailabilityHandler serves the read-side of the engine: calendar tiers,
// open schedules and kart layouts.  Every response is a snapshot; clients
// re-validate at commit time and handle 409 by re-fetching.
type AvailabilityHandler struct {
	Resolver *booking.Resolver
}

// NewAvailabilityHandler constructs the handler.  The resolver must be
// non-nil.
func NewAvailabilityHandler(resolver *booking.Resolver) *AvailabilityHandler {
	if resolver == nil {
		panic("nil resolver passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Resolver: resolver}
}

// GetAvailableDates handles GET /v1/available_dates/:start/:end.  It
// returns the capacity tier for every date in the range; dates already in
// the past are omitted.
func (h *AvailabilityHandler) GetAvailableDates(c echo.Context) error {
	dates, err := h.Resolver.DateAvailability(c.Request().Context(), c.Param("start"), c.Param("end"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dates)
}

// GetAvailableSchedules handles GET /v1/available_schedules/:date.  It
// returns every hour block that can still take bookings, each with its
// turns and annotated kart positions.
func (h *AvailabilityHandler) GetAvailableSchedules(c echo.Context) error {
	schedules, err := h.Resolver.OpenSchedules(c.Request().Context(), c.Param("date"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, schedules)
}

// GetTurnPositions handles GET /v1/turn/:date/:schedule/:turn.  It returns
// the fixed list of kart slots of one turn, each marked free or occupied
// with the occupant's nickname so edit flows can show who holds which kart.
func (h *AvailabilityHandler) GetTurnPositions(c echo.Context) error {
	turnNumber, err := strconv.Atoi(c.Param("turn"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid turn number"})
	}
	key := model.TurnKey{Date: c.Param("date"), Schedule: c.Param("schedule"), TurnNumber: turnNumber}
	positions, err := h.Resolver.OpenPositions(c.Request().Context(), key)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"positions": positions})
}
