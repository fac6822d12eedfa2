package main // Entry point package

import (
	"context" // context bounds the startup migration
	"log"     // Logging library
	"time"

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/planetarium-booking/internal/booking"
	"github.com/iliyamo/planetarium-booking/internal/config"
	"github.com/iliyamo/planetarium-booking/internal/database"
	"github.com/iliyamo/planetarium-booking/internal/handler"
	"github.com/iliyamo/planetarium-booking/internal/middleware"
	"github.com/iliyamo/planetarium-booking/internal/queue"
	"github.com/iliyamo/planetarium-booking/internal/repository"
	"github.com/iliyamo/planetarium-booking/internal/router"
	queue_publisher "github.com/iliyamo/planetarium-booking/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config (reads .env when present)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("db migrate: %v", err)
	}
	cancel()

	// Redis backs rate limiting and the catalog response cache.  A nil
	// client disables both; the API keeps working without Redis.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	themes := repository.NewThemeRepo(db)
	shows := repository.NewShowRepo(db)
	domes := repository.NewDomeRepo(db)
	sessions := repository.NewSessionRepo(db)
	reservations := repository.NewReservationRepo(db)

	// The ledger owns all seat booking decisions; the reservation
	// repository is its MySQL-backed store.
	ledger := booking.NewLedger(reservations)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	catalogH := handler.NewCatalogHandler(themes, shows, domes)
	sessionH := handler.NewSessionHandler(sessions, shows, domes)
	reservationH := handler.NewReservationHandler(ledger, reservations, sessions, queue_publisher.PublishReservationCreated)

	e := echo.New()

	if rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	}
	var cacheMW echo.MiddlewareFunc
	if rdb != nil {
		cacheMW = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}

	router.RegisterRoutes(e) // health check
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterCatalog(e, catalogH, sessionH, cfg.JWTSecret, cacheMW)
	router.RegisterReservations(e, reservationH, cfg.JWTSecret)

	// Background consumer that appends created reservations to a log file.
	// It reconnects on broker failure and never takes the API down.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
