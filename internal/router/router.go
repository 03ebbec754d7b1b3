package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/ride-share-booking/internal/config"
    "github.com/iliyamo/ride-share-booking/internal/handler"
    "github.com/iliyamo/ride-share-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Used by load balancers and monitoring to verify the service is up.
    e.GET("/healthz", handler.Health)
}

// RegisterRides wires the ride and booking endpoints.  Search and ride
// detail are public browse routes; everything that mutates state or
// exposes per-user data sits behind JWT authentication.  The response
// cache applies to the public search only, so rider listings never
// serve a cached copy of someone else's data, and the token-bucket
// rate limiter covers every route registered here.
func RegisterRides(e *echo.Echo, rides *handler.RideHandler, bookings *handler.BookingHandler, jwtSecret string, rdb *redis.Client) {
    rate := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    // Public browse endpoints.
    pub := e.Group("/v1", rate)
    pub.GET("/rides", rides.Search, cache)
    pub.GET("/rides/:id", rides.Get)

    // Protected endpoints.  The JWT middleware stores the caller's id
    // under "user_id" for the handlers and the rate-limit key builder.
    auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), rate)
    auth.POST("/rides", rides.Create)
    auth.PUT("/rides/:id", rides.Update)
    auth.DELETE("/rides/:id", rides.Delete)

    auth.POST("/rides/:rideId/bookings", bookings.Create)
    auth.GET("/rides/:rideId/bookings", bookings.ListForRide)
    auth.PATCH("/rides/:rideId/bookings/:requestId", bookings.Decide)

    auth.GET("/bookings/my-bookings", bookings.MyBookings)
}
