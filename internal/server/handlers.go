package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"visiongraph/internal/cache"
	"visiongraph/internal/graph"
	"visiongraph/internal/input/visionone"
	"visiongraph/internal/llm"
	"visiongraph/internal/logger"
	"visiongraph/internal/metrics"
	"visiongraph/internal/temporal"
	"visiongraph/pkg/models"
)

// searchRequest selects a detection batch: either inline raw records or a
// vendor query.
type searchRequest struct {
	Detections []map[string]interface{} `json:"detections"`
	Filter     string                   `json:"filter"`
	Top        int                      `json:"top"`
	Days       int                      `json:"days"`
}

type graphRequest struct {
	searchRequest
	Active bool `json:"active"`
}

type analyzeRequest struct {
	searchRequest
	Limit int `json:"limit"`
}

func (s *Server) handleSearch(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	dets, err := s.resolveDetections(c.Context(), req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	buckets, invalid := temporal.DailyBuckets(dets, time.Local)
	items := make([]map[string]interface{}, 0, len(dets))
	for _, d := range dets {
		items = append(items, d.Fields)
	}

	return c.JSON(fiber.Map{
		"count":         len(items),
		"items":         items,
		"histogram":     buckets,
		"invalid_times": invalid,
	})
}

func (s *Server) handleProcessGraph(c *fiber.Ctx) error {
	return s.handleGraph(c, "process")
}

func (s *Server) handleNetworkGraph(c *fiber.Ctx) error {
	return s.handleGraph(c, "network")
}

func (s *Server) handleGraph(c *fiber.Ctx, kind string) error {
	var req graphRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	dets, err := s.resolveDetections(c.Context(), req.searchRequest)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	var g *models.CompiledGraph
	switch kind {
	case "process":
		g = s.opts.Process.Compile(dets, req.Active)
	default:
		g = s.opts.Network.Compile(dets, req.Active)
	}

	if g == nil {
		metrics.Compilations.WithLabelValues(kind, "empty").Inc()
		return c.JSON(fiber.Map{"graph": nil})
	}
	metrics.Compilations.WithLabelValues(kind, "ok").Inc()
	metrics.GraphEdges.WithLabelValues(kind).Observe(float64(len(g.Edges)))

	text, err := graph.Mermaid(g, s.opts.Direction)
	if err != nil {
		// The compiled graph is still valid; only the textual form failed.
		// Report a marked placeholder so operators can tell a broken render
		// from an empty result.
		logger.Errorf("Graph serialization failed: %v", err)
		return c.JSON(fiber.Map{
			"graph":        g,
			"render_error": true,
			"message":      "graph description could not be rendered",
		})
	}

	return c.JSON(fiber.Map{"graph": g, "mermaid": text})
}

func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	if s.opts.Runner == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "analysis is not configured")
	}

	var req analyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	dets, err := s.resolveDetections(c.Context(), req.searchRequest)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.opts.SampleLimit
	}
	prompt, err := llm.BuildPrompt(dets, s.opts.DedupField, limit)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	requestID := uuid.NewString()
	logger.Infof("Analysis request %s: %d detections", requestID, len(dets))

	res, err := s.opts.Runner.Run(c.Context(), prompt)
	if err != nil {
		metrics.LLMRuns.WithLabelValues("failed").Inc()
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	outcome := "ok"
	if !res.Success {
		outcome = "failed"
	}
	metrics.LLMRuns.WithLabelValues(outcome).Inc()

	return c.JSON(fiber.Map{"id": requestID, "result": res})
}

// resolveDetections returns the inline batch when one was supplied,
// otherwise fetches from the vendor (cache first) and applies rule tagging.
func (s *Server) resolveDetections(ctx context.Context, req searchRequest) ([]*models.Detection, error) {
	if len(req.Detections) > 0 {
		dets := models.FromMaps(req.Detections)
		s.tag(dets)
		return dets, nil
	}
	if s.opts.Client == nil {
		return nil, fmt.Errorf("no detections supplied and no search client configured")
	}

	filter := req.Filter
	if filter == "" {
		filter = s.opts.Filter
	}
	top := req.Top
	if top <= 0 {
		top = s.opts.Top
	}

	key := cache.Key(s.opts.Region, filter, top)
	if s.opts.Cache != nil {
		dets, ok, err := s.opts.Cache.Get(ctx, key)
		if err != nil {
			metrics.CacheRequests.WithLabelValues("error").Inc()
			logger.Warnf("Cache lookup failed: %v", err)
		} else if ok {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			return dets, nil
		} else {
			metrics.CacheRequests.WithLabelValues("miss").Inc()
		}
	}

	q := visionone.Query{Filter: filter, Top: top}
	if req.Days > 0 {
		q.End = time.Now()
		q.Start = q.End.AddDate(0, 0, -req.Days)
	}

	start := time.Now()
	dets, err := s.opts.Client.SearchDetections(ctx, q)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("detection search failed: %w", err)
	}
	s.tag(dets)

	if s.opts.Cache != nil {
		if err := s.opts.Cache.Set(ctx, key, dets); err != nil {
			logger.Warnf("Cache store failed: %v", err)
		}
	}
	return dets, nil
}

func (s *Server) tag(dets []*models.Detection) {
	if s.opts.Engine == nil {
		return
	}
	for _, d := range dets {
		d.RuleTags = s.opts.Engine.Apply(d)
	}
}
