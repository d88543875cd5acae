package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework used for routing

	"github.com/gokartmania/turn-reservation/internal/handler"    // handlers implementing the engine endpoints
	"github.com/gokartmania/turn-reservation/internal/middleware" // JWT verification and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterBooking registers the public booking surface: availability reads,
// reservation creation and turn mutations.  Sessions for these flows are
// owned by the external session collaborator; the engine treats the calls
// as plain request/response.
func RegisterBooking(e *echo.Echo, a *handler.AvailabilityHandler, r *handler.ReservationHandler, t *handler.TurnHandler) {
	g := e.Group("/v1")
	// Availability snapshots.  Results are valid for the instant they ran;
	// clients re-validate at commit time.
	g.GET("/available_dates/:start/:end", a.GetAvailableDates)
	g.GET("/available_schedules/:date", a.GetAvailableSchedules)
	g.GET("/turn/:date/:schedule/:turn", a.GetTurnPositions)
	// Reservation lifecycle.
	g.POST("/reservations", r.CreateReservation)
	g.GET("/reservations/:id", r.GetReservation)
	// Turn mutations on existing reservations.
	g.POST("/turns", t.AddTurn)
	g.PUT("/turn/:reservation_id", t.EditTurn)
	g.DELETE("/turn/:reservation_id/:date", t.DeleteTurns)
}

// RegisterAdmin registers the staff blocking endpoints behind JWT
// verification.  Tokens are minted by the session service; this service
// only validates them and requires the ADMIN role claim.
func RegisterAdmin(e *echo.Echo, b *handler.BlockHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))
	g.POST("/block_turns/:blocked", b.SetBlocked)
	g.GET("/blocked_turns/:date", b.BlockedTurns)
}
