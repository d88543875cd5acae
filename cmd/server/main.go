package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/gokartmania/turn-reservation/internal/booking"
	"github.com/gokartmania/turn-reservation/internal/config"
	"github.com/gokartmania/turn-reservation/internal/database"
	"github.com/gokartmania/turn-reservation/internal/handler"
	"github.com/gokartmania/turn-reservation/internal/middleware"
	"github.com/gokartmania/turn-reservation/internal/queue"
	"github.com/gokartmania/turn-reservation/internal/repository"
	"github.com/gokartmania/turn-reservation/internal/router"
)

func main() {
	// Load .env if present; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	turnRepo := repository.NewTurnRepo(db)
	reservationRepo := repository.NewReservationRepo(db)

	resolver := booking.NewResolver(turnRepo, nil)
	workflow := booking.NewWorkflow(turnRepo, reservationRepo, nil)
	blocking := booking.NewBlocking(turnRepo)

	e := echo.New()
	// Redis-backed rate limiting; degrades to a pass-through when Redis is
	// unreachable.
	rdb := config.NewRedisClient()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterBooking(e,
		handler.NewAvailabilityHandler(resolver),
		handler.NewReservationHandler(workflow),
		handler.NewTurnHandler(workflow),
	)
	router.RegisterAdmin(e, handler.NewBlockHandler(blocking), cfg.JWTSecret)

	// Consume turn confirmations into logs/booking.log in the background.
	go func() {
		if err := queue.StartTurnConsumer(); err != nil {
			log.Printf("turn-consumer: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
