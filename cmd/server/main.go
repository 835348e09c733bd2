package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-window-booking/internal/catalog"
	"github.com/iliyamo/event-window-booking/internal/config"
	"github.com/iliyamo/event-window-booking/internal/database"
	"github.com/iliyamo/event-window-booking/internal/handler"
	"github.com/iliyamo/event-window-booking/internal/inventory"
	"github.com/iliyamo/event-window-booking/internal/ledger"
	"github.com/iliyamo/event-window-booking/internal/middleware"
	"github.com/iliyamo/event-window-booking/internal/queue"
	"github.com/iliyamo/event-window-booking/internal/repository"
	"github.com/iliyamo/event-window-booking/internal/router"
	queue_publisher "github.com/iliyamo/event-window-booking/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// repositories
	events := repository.NewEventRepo(db)
	windows := repository.NewWindowRepo(db)
	bookings := repository.NewBookingRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	// services
	inv := inventory.New(windows)
	cat := catalog.New(events, windows)
	led := ledger.New(inv, windows, bookings)

	// handlers
	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	eventHandler := handler.NewEventHandler(cat, bookings)
	bookingHandler := handler.NewBookingHandler(led, bookings, queue_publisher.PublishBookingEvent)

	e := echo.New()

	// redis-backed middleware degrades to pass-through when redis is down
	if rdb := config.NewRedisClient(); rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	} else {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterAPI(e, eventHandler, bookingHandler, cfg.JWTSecret)

	// audit consumer runs for the life of the process
	go func() {
		if err := queue.StartBookingConsumer(cfg.QueueURL); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
