package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	cfg "chatblast/config"
	"chatblast/internal/adapters/contacts/postgres"
	"chatblast/internal/adapters/content/local"
	"chatblast/internal/adapters/driver/agent"
	"chatblast/internal/adapters/driver/memory"
	"chatblast/internal/adapters/stream/rabbitmq"
	"chatblast/internal/app"
	"chatblast/internal/middleware"
	"chatblast/internal/ports"
	"chatblast/internal/transport"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	if err := run(log); err != nil {
		log.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	conf := cfg.FromEnv()

	// ── Adapters ─────────────────────────────────────────────────────────────
	contacts, err := postgres.New(conf.DatabaseURL)
	if err != nil {
		return errors.New("failed to connect to postgres: " + err.Error())
	}
	defer contacts.Close()

	resolver, err := local.New(conf.UploadDir)
	if err != nil {
		return errors.New("failed to init content resolver: " + err.Error())
	}

	var driver ports.ChannelDriver
	switch conf.Driver {
	case "memory":
		// Dry-run mode: every send succeeds without a real channel.
		driver = memory.New()
		log.Warn("using in-memory channel driver, no messages leave this process")
	default:
		driver = agent.New(conf.AgentURL, log)
	}

	var fanout []ports.EventSink
	if conf.EventStream == "amqp" {
		publisher, err := rabbitmq.NewPublisher(conf.AMQPURL)
		if err != nil {
			return errors.New("failed to connect to rabbitmq: " + err.Error())
		}
		defer publisher.Close()
		fanout = append(fanout, publisher)
	}

	// ── Application service ──────────────────────────────────────────────────
	svc := app.NewSendService(driver, resolver, log)

	fiberApp := fiber.New(fiber.Config{
		AppName:               "sender-api",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// No WriteTimeout: run responses stream for as long as a run lasts.
		IdleTimeout:  120 * time.Second,
		ServerHeader: "",
		BodyLimit:    4 * 1024 * 1024, // 4MB; recipient lists can be large
	})

	fiberApp.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	fiberApp.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${method} ${path} ${latency}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	fiberApp.Use(middleware.RequestID())
	fiberApp.Use(middleware.SecurityHeaders())
	fiberApp.Use(middleware.CORSConfig())

	rateLimiter := middleware.NewRateLimiter(100, 1*time.Minute)
	fiberApp.Use(rateLimiter.Middleware())

	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "run_active": svc.Running()})
	})

	handler := transport.NewHandler(svc, contacts, log, fanout...)
	api := fiberApp.Group("/api")
	handler.Register(api)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		log.Info("sender-api started", "addr", conf.HTTPAddr, "driver", conf.Driver)
		if err := fiberApp.Listen(conf.HTTPAddr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errChan:
		return err
	}

	// A streaming run can hold a connection open; ask it to stop first.
	svc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		return errors.New("failed to shutdown gracefully: " + err.Error())
	}

	log.Info("sender-api stopped gracefully")
	return nil
}
