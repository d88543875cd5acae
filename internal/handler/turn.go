package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gokartmania/turn-reservation/internal/booking"
	"github.com/gokartmania/turn-reservation/internal/model"
	"github.com/gokartmania/turn-reservation/internal/queue"
	queue_publisher "github.com/gokartmania/turn-reservation/internal/service"
)

// TurnHandler serves turn mutations on existing reservations: adding a
// turn, moving a turn and releasing a day's turns.  Each mutation is
// atomic per turn; a 409 means the race for a kart was lost and the caller
// should re-fetch availability and retry.
type TurnHandler struct {
	Workflow *booking.Workflow
}

// NewTurnHandler constructs the handler.  The workflow must be non-nil.
func NewTurnHandler(workflow *booking.Workflow) *TurnHandler {
	if workflow == nil {
		panic("nil workflow passed to NewTurnHandler")
	}
	return &TurnHandler{Workflow: workflow}
}

// turnBody is the wire shape of a turn request against an existing
// reservation; position values are persisted pilot ids.
type turnBody struct {
	ReservationID uint64            `json:"reservation_id"`
	TurnID        uint64            `json:"turn_id"`
	Date          string            `json:"date"`
	Schedule      string            `json:"schedule"`
	TurnNumber    int               `json:"turn_number"`
	Positions     map[string]uint64 `json:"positions"`
}

// request converts the wire body into an engine TurnRequest.
func (b turnBody) request() (booking.TurnRequest, error) {
	req := booking.TurnRequest{
		Date:       b.Date,
		Schedule:   b.Schedule,
		TurnNumber: b.TurnNumber,
		Positions:  make(map[int]uint64, len(b.Positions)),
	}
	for key, pilotID := range b.Positions {
		pos, err := parsePositionKey(key)
		if err != nil {
			return booking.TurnRequest{}, err
		}
		req.Positions[pos] = pilotID
	}
	return req, nil
}

// AddTurn handles POST /v1/turns.  It commits one more turn for the
// reservation named in the body, seating the whole party or failing.
func (h *TurnHandler) AddTurn(c echo.Context) error {
	var body turnBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ReservationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_id is required"})
	}
	req, err := body.request()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	res, err := h.Workflow.AddTurn(c.Request().Context(), body.ReservationID, req)
	if err != nil {
		return respondError(c, err)
	}
	publishTurn(res, req.Key())
	return c.JSON(http.StatusOK, res)
}

// EditTurn handles PUT /v1/turn/:reservation_id.  The body names the turn
// being moved (turn_id) and the replacement date/schedule/turn/karts.  The
// reservation's own positions count as free during the conflict check, so
// re-seating inside the same turn never conflicts with itself.
func (h *TurnHandler) EditTurn(c echo.Context) error {
	reservationID, err := strconv.ParseUint(c.Param("reservation_id"), 10, 64)
	if err != nil || reservationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body turnBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TurnID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "turn_id is required"})
	}
	req, err := body.request()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	res, err := h.Workflow.EditTurn(c.Request().Context(), reservationID, body.TurnID, req)
	if err != nil {
		return respondError(c, err)
	}
	publishTurn(res, req.Key())
	return c.JSON(http.StatusOK, res)
}

// DeleteTurns handles DELETE /v1/turn/:reservation_id/:date.  Every kart
// the reservation holds on the date goes back to free; the reservation row
// itself survives (flipping to CANCELLED when nothing remains).
func (h *TurnHandler) DeleteTurns(c echo.Context) error {
	reservationID, err := strconv.ParseUint(c.Param("reservation_id"), 10, 64)
	if err != nil || reservationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	released, err := h.Workflow.CancelTurns(c.Request().Context(), reservationID, c.Param("date"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"released": released})
}

// publishTurn fires a confirmation event for the turn at key, best-effort
// and off the request path.
func publishTurn(res *model.Reservation, key model.TurnKey) {
	nicknames := make(map[uint64]string, len(res.Pilots))
	for _, p := range res.Pilots {
		nicknames[p.ID] = p.Nickname
	}
	for _, turn := range res.Turns {
		if turn.Date != key.Date || turn.Schedule != key.Schedule || turn.TurnNumber != key.TurnNumber {
			continue
		}
		positions := make(map[string]string, len(turn.Positions))
		for pos, pilotID := range turn.Positions {
			positions[positionKey(pos)] = nicknames[pilotID]
		}
		event := queue.TurnConfirmedEvent{
			ReservationID: res.ID,
			Date:          turn.Date,
			Schedule:      turn.Schedule,
			TurnNumber:    turn.TurnNumber,
			Group:         string(res.Group),
			Positions:     positions,
			ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
		}
		go func(ev queue.TurnConfirmedEvent) {
			_ = queue_publisher.PublishTurnConfirmed(context.Background(), ev)
		}(event)
		return
	}
}
