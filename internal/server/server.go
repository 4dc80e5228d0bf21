// Package server exposes the dashboard HTTP API.
package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"

	"visiongraph/internal/cache"
	"visiongraph/internal/graph"
	"visiongraph/internal/input/visionone"
	"visiongraph/internal/llm"
	"visiongraph/internal/rules"
)

// Options wires the server's collaborators. Client, Cache, Engine and
// Runner may be nil; the matching endpoints then degrade (raw-detection
// bodies still work without a client, analysis returns 503 without a
// runner).
type Options struct {
	Client      *visionone.Client
	Cache       *cache.Cache
	Engine      rules.Engine
	Runner      *llm.Runner
	Process     *graph.ProcessBuilder
	Network     *graph.NetworkBuilder
	Direction   string
	Region      string
	Filter      string
	Top         int
	DedupField  string
	SampleLimit int
	CORSOrigins string
	ReadTimeout time.Duration
}

// Server holds handler state.
type Server struct {
	opts Options
}

// NewApp creates and configures the Fiber app with all dashboard routes.
func NewApp(opts Options) *fiber.App {
	if opts.Process == nil {
		opts.Process = graph.NewProcessBuilder()
	}
	if opts.Network == nil {
		opts.Network = graph.NewNetworkBuilder()
	}
	if opts.Direction == "" {
		opts.Direction = "LR"
	}
	if opts.Top <= 0 {
		opts.Top = 200
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 60 * time.Second
	}
	s := &Server{opts: opts}

	app := fiber.New(fiber.Config{
		AppName:     "visiongraph API",
		BodyLimit:   20 * 1024 * 1024,
		ReadTimeout: opts.ReadTimeout,
	})

	app.Use(fiberrecover.New())
	if opts.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: opts.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET, POST, OPTIONS",
		}))
	}
	app.Use(fiberlogger.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	api := app.Group("/api")
	api.Post("/search", s.handleSearch)
	api.Post("/graph/process", s.handleProcessGraph)
	api.Post("/graph/network", s.handleNetworkGraph)
	api.Post("/analyze", s.handleAnalyze)

	return app
}
