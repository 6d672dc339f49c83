package middleware

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORSConfig allows the desktop frontend to call the API. Origins come from
// ALLOWED_ORIGINS; the default covers the local development shell.
func CORSConfig() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,X-Request-ID",
		AllowCredentials: false,
		ExposeHeaders:    "Content-Length,X-Request-ID",
		MaxAge:           3600,
	})
}

func allowedOrigins() string {
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		return v
	}
	return "http://localhost:3434,http://127.0.0.1:3434"
}
