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

// ReservationHandler serves reservation creation and lookup.  Creation is
// all-or-nothing: the party is validated, persisted and every requested
// turn committed, or nothing survives.
type ReservationHandler struct {
	Workflow *booking.Workflow
}

// NewReservationHandler constructs the handler.  The workflow must be
// non-nil.
func NewReservationHandler(workflow *booking.Workflow) *ReservationHandler {
	if workflow == nil {
		panic("nil workflow passed to NewReservationHandler")
	}
	return &ReservationHandler{Workflow: workflow}
}

// pilotBody is the wire shape of one submitted pilot.
type pilotBody struct {
	Name       string `json:"name"`
	LastName   string `json:"last_name"`
	Nickname   string `json:"nickname"`
	BirthDate  string `json:"birth_date"`
	Licensed   bool   `json:"licensed"`
	BuyLicense bool   `json:"buy_license"`
}

// createTurnBody is the wire shape of one requested turn at create time;
// position values index into the submitted pilots array.
type createTurnBody struct {
	Date       string         `json:"date"`
	Schedule   string         `json:"schedule"`
	TurnNumber int            `json:"turn_number"`
	Positions  map[string]int `json:"positions"`
}

// CreateReservation handles POST /v1/reservations.  The body carries the
// group, the party and one or more turns with explicit kart assignments.
// Responses: 201 with the committed reservation, 400 on malformed input or
// age-rule violations, 409 when another party took a requested kart first.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	var body struct {
		Group  string           `json:"group"`
		Pilots []pilotBody      `json:"pilots"`
		Turns  []createTurnBody `json:"turns"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	pilots := make([]model.Pilot, 0, len(body.Pilots))
	for _, p := range body.Pilots {
		pilot := model.Pilot{
			Name:       p.Name,
			LastName:   p.LastName,
			Nickname:   p.Nickname,
			Licensed:   p.Licensed,
			BuyLicense: p.BuyLicense,
		}
		if p.BirthDate != "" {
			birth, err := time.Parse(model.DateFormat, p.BirthDate)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid birth_date: " + p.BirthDate})
			}
			pilot.BirthDate = birth
		}
		pilots = append(pilots, pilot)
	}

	reqs := make([]booking.CreateTurnRequest, 0, len(body.Turns))
	for _, t := range body.Turns {
		req := booking.CreateTurnRequest{
			Date:       t.Date,
			Schedule:   t.Schedule,
			TurnNumber: t.TurnNumber,
			Positions:  make(map[int]int, len(t.Positions)),
		}
		for key, idx := range t.Positions {
			pos, err := parsePositionKey(key)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
			}
			req.Positions[pos] = idx
		}
		reqs = append(reqs, req)
	}

	res, err := h.Workflow.Create(c.Request().Context(), model.Group(body.Group), pilots, reqs)
	if err != nil {
		return respondError(c, err)
	}
	publishReservationTurns(res)
	return c.JSON(http.StatusCreated, res)
}

// GetReservation handles GET /v1/reservations/:id.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Workflow.Reservation(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// publishReservationTurns fires a confirmation event per committed turn.
// Publishing is best-effort and off the request path.
func publishReservationTurns(res *model.Reservation) {
	nicknames := make(map[uint64]string, len(res.Pilots))
	for _, p := range res.Pilots {
		nicknames[p.ID] = p.Nickname
	}
	for _, turn := range res.Turns {
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
	}
}
