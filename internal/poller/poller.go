// Package poller keeps the detection cache warm so dashboard loads avoid a
// cold vendor fetch.
package poller

import (
	"context"
	"time"

	"visiongraph/internal/cache"
	"visiongraph/internal/input/visionone"
	"visiongraph/internal/logger"
	"visiongraph/internal/metrics"
	"visiongraph/internal/rules"
)

// Poller periodically refreshes the default query's detection batch.
type Poller struct {
	client   *visionone.Client
	cache    *cache.Cache
	engine   rules.Engine
	region   string
	filter   string
	top      int
	interval time.Duration
}

// Config configures the refresh loop.
type Config struct {
	Region   string
	Filter   string
	Top      int
	Interval time.Duration
}

// New creates a poller.
func New(client *visionone.Client, c *cache.Cache, engine rules.Engine, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Minute
	}
	if cfg.Top <= 0 {
		cfg.Top = 200
	}
	return &Poller{
		client:   client,
		cache:    c,
		engine:   engine,
		region:   cfg.Region,
		filter:   cfg.Filter,
		top:      cfg.Top,
		interval: cfg.Interval,
	}
}

// Run refreshes immediately, then on every tick until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	logger.Infof("Detection poller started (interval=%s top=%d)", p.interval, p.top)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Infof("Detection poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	start := time.Now()
	dets, err := p.client.SearchDetections(ctx, visionone.Query{Filter: p.filter, Top: p.top})
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Errorf("Poller fetch failed: %v", err)
		return
	}

	if p.engine != nil {
		for _, d := range dets {
			d.RuleTags = p.engine.Apply(d)
		}
	}

	key := cache.Key(p.region, p.filter, p.top)
	if err := p.cache.Set(ctx, key, dets); err != nil {
		logger.Errorf("Poller cache store failed: %v", err)
		return
	}
	logger.Debugf("Poller refreshed %d detections", len(dets))
}
