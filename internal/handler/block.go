package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gokartmania/turn-reservation/internal/booking"
	"github.com/gokartmania/turn-reservation/internal/queue"
	queue_publisher "github.com/gokartmania/turn-reservation/internal/service"
)

// BlockHandler serves the staff blocking endpoints.  A block stops new
// bookings on a turn without evicting the parties already seated; an
// unblock simply removes the flag, occupancy was never touched.
type BlockHandler struct {
	Blocking *booking.Blocking
}

// NewBlockHandler constructs the handler.  The blocking manager must be
// non-nil.
func NewBlockHandler(blocking *booking.Blocking) *BlockHandler {
	if blocking == nil {
		panic("nil blocking manager passed to NewBlockHandler")
	}
	return &BlockHandler{Blocking: blocking}
}

// SetBlocked handles POST /v1/admin/block_turns/:blocked where :blocked is
// "true" or "false".  The body carries days, schedules and turn numbers;
// the block applies to their full cross-product.  Empty schedules or turns
// expand to the whole day.
func (h *BlockHandler) SetBlocked(c echo.Context) error {
	var blocked bool
	switch c.Param("blocked") {
	case "true", "True":
		blocked = true
	case "false", "False":
		blocked = false
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "blocked must be true or false"})
	}
	var body struct {
		Days      []string `json:"days"`
		Schedules []string `json:"schedules"`
		Turns     []int    `json:"turns"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	count, err := h.Blocking.SetBlocked(c.Request().Context(), body.Days, body.Schedules, body.Turns, blocked)
	if err != nil {
		return respondError(c, err)
	}
	event := queue.TurnsBlockedEvent{
		Days:      body.Days,
		Schedules: body.Schedules,
		Turns:     body.Turns,
		Blocked:   blocked,
		Count:     count,
		ChangedAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func(ev queue.TurnsBlockedEvent) {
		_ = queue_publisher.PublishTurnsBlocked(context.Background(), ev)
	}(event)
	return c.JSON(http.StatusOK, echo.Map{"blocked": blocked, "turns": count})
}

// BlockedTurns handles GET /v1/admin/blocked_turns/:date, listing the
// blocked turn keys of the date so the admin calendar can paint them.
func (h *BlockHandler) BlockedTurns(c echo.Context) error {
	keys, err := h.Blocking.BlockedTurns(c.Request().Context(), c.Param("date"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": keys})
}
