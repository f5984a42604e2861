package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"vermietung-backend/cache"
	"vermietung-backend/database"
	"vermietung-backend/events"
	"vermietung-backend/middlewares"
	"vermietung-backend/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/sirupsen/logrus"
)

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	// ---- Database
	database.Connect()
	if err := database.Migrate(); err != nil {
		logrus.WithError(err).Fatal("migrations failed")
	}

	// ---- Optional side-effect infrastructure (both degrade to no-ops)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		events.Setup(strings.Split(brokers, ","), os.Getenv("KAFKA_TOPIC"))
		defer events.Close()
	}
	cache.Setup(os.Getenv("REDIS_ADDR"))

	// ---- Limits (configurable via env)
	bodyLimitBytes := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimitBytes <= 0 {
		bodyLimitBytes = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    bodyLimitBytes,
	})

	// ---- CORS
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))

	// ---- Global rate limiter (applies to all routes; tune via env)
	rlMax := envInt("RATE_LIMIT_MAX", 60)
	rlWindow := time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
	app.Use(limiter.New(limiter.Config{
		Max:        rlMax,
		Expiration: rlWindow,
	}))

	// ---- Routes
	routes.Register(app)

	// ---- Start
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logrus.WithField("port", port).Info("starting API server")
	if err := app.Listen(":" + port); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
