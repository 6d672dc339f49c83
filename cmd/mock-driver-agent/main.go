package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// mockOpenRequest mirrors what the agent driver posts to /conversation.
type mockOpenRequest struct {
	Number string `json:"number"`
}

type mockOpenResponse struct {
	Status string `json:"status"`
}

type mockTextRequest struct {
	Text string `json:"text"`
}

type mockFilesRequest struct {
	Paths []string `json:"paths"`
}

type mockSentResponse struct {
	Sent bool `json:"sent"`
}

// The mock agent stands in for the real UI-automation agent during local
// development. Numbers shorter than ten digits are reported invalid so the
// skip path can be exercised end to end.
func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	addr := getenv("HTTP_ADDR", ":9090")
	latency := 300 * time.Millisecond // pretend the UI takes a moment

	fiberApp := fiber.New(fiber.Config{AppName: "mock-driver-agent"})

	var session string

	fiberApp.Post("/conversation", func(c *fiber.Ctx) error {
		var req mockOpenRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}

		time.Sleep(latency)

		digits := strings.TrimPrefix(req.Number, "+")
		if len(digits) < 10 {
			log.Info("mock agent rejected number", "number", req.Number)
			return c.JSON(mockOpenResponse{Status: "invalid_number"})
		}

		session = uuid.NewString()
		log.Info("mock agent opened conversation", "number", req.Number, "session", session)
		return c.JSON(mockOpenResponse{Status: "ready"})
	})

	fiberApp.Post("/text", func(c *fiber.Ctx) error {
		var req mockTextRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}

		time.Sleep(latency)
		log.Info("mock agent sent text", "session", session, "chars", len(req.Text))
		return c.JSON(mockSentResponse{Sent: true})
	})

	fiberApp.Post("/files", func(c *fiber.Ctx) error {
		var req mockFilesRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}

		time.Sleep(latency)
		log.Info("mock agent sent files", "session", session, "count", len(req.Paths))
		return c.JSON(mockSentResponse{Sent: true})
	})

	fiberApp.Post("/reset", func(c *fiber.Ctx) error {
		log.Info("mock agent reset", "session", session)
		session = ""
		return c.SendStatus(fiber.StatusNoContent)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("mock-driver-agent listening", "addr", addr)
		if err := fiberApp.Listen(addr); err != nil {
			log.Error("fiber listen", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down mock-driver-agent")
	_ = fiberApp.Shutdown()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
