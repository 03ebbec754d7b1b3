package main // Entry point package

import (
    "log" // Logging library

    "github.com/joho/godotenv"    // Loads .env files in development
    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/ride-share-booking/internal/booking"
    "github.com/iliyamo/ride-share-booking/internal/config"
    "github.com/iliyamo/ride-share-booking/internal/database"
    "github.com/iliyamo/ride-share-booking/internal/handler"
    "github.com/iliyamo/ride-share-booking/internal/queue"
    "github.com/iliyamo/ride-share-booking/internal/repository"
    "github.com/iliyamo/ride-share-booking/internal/router"
)

func main() {
    // Load .env if present; real deployments set env vars directly.
    _ = godotenv.Load()

    cfg := config.Load() // Load environment config

    // Pick the store: MySQL when DB_HOST is configured, otherwise the
    // in-memory store for local development.
    var store repository.RideStore
    if cfg.DBHost != "" {
        db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
        if err != nil {
            log.Fatalf("database connect failed: %v", err)
        }
        store = repository.NewRideRepo(db)
    } else {
        log.Println("DB_HOST not set; using in-memory store")
        store = repository.NewMemoryRideStore()
    }

    // Redis is optional; the cache and rate-limit middleware degrade to
    // pass-through when the client is nil.
    rdb := config.NewRedisClient()

    svc := booking.NewService(store)
    rides := handler.NewRideHandler(store)
    bookings := handler.NewBookingHandler(svc, store)

    e := echo.New()
    router.RegisterRoutes(e)
    router.RegisterRides(e, rides, bookings, cfg.JWTSecret, rdb)

    // Background consumer that appends decided bookings to logs/booking.log.
    // It runs its own reconnect loop and never takes the server down.
    go func() {
        if err := queue.StartBookingConsumer(); err != nil {
            log.Printf("booking consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port                                // Address string with port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

    if err := e.Start(addr); err != nil { // Start HTTP server
        log.Fatal(err) // Log and exit if server fails
    }
}
