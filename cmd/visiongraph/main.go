package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"visiongraph/config"
	"visiongraph/internal/cache"
	"visiongraph/internal/graph"
	"visiongraph/internal/input/visionone"
	"visiongraph/internal/llm"
	"visiongraph/internal/logger"
	"visiongraph/internal/metrics"
	"visiongraph/internal/output/graphjson"
	"visiongraph/internal/poller"
	"visiongraph/internal/rules"
	"visiongraph/internal/server"
	"visiongraph/pkg/models"
)

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat("visiongraph.yml"); err == nil {
		return "visiongraph.yml"
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, "visiongraph.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "visiongraph.yml"
}

func applyDefaults(cfg *config.Config) {
	if cfg.VisionGraph.Server.Addr == "" {
		cfg.VisionGraph.Server.Addr = "127.0.0.1:8080"
	}
	if cfg.VisionGraph.Server.ReadTimeout <= 0 {
		cfg.VisionGraph.Server.ReadTimeout = 60 * time.Second
	}

	if cfg.VisionGraph.VisionOne.Region == "" {
		cfg.VisionGraph.VisionOne.Region = "us"
	}
	if cfg.VisionGraph.VisionOne.TokenEnv == "" {
		cfg.VisionGraph.VisionOne.TokenEnv = "TMV1_TOKEN"
	}
	if cfg.VisionGraph.VisionOne.Top <= 0 {
		cfg.VisionGraph.VisionOne.Top = 200
	}
	if cfg.VisionGraph.VisionOne.Timeout <= 0 {
		cfg.VisionGraph.VisionOne.Timeout = 30 * time.Second
	}

	if cfg.VisionGraph.Cache.Addr == "" {
		cfg.VisionGraph.Cache.Addr = "127.0.0.1:6379"
	}
	if cfg.VisionGraph.Cache.TTL <= 0 {
		cfg.VisionGraph.Cache.TTL = 5 * time.Minute
	}

	if cfg.VisionGraph.Graph.Process.Sample <= 0 {
		cfg.VisionGraph.Graph.Process.Sample = graph.DefaultProcessSample
	}
	if cfg.VisionGraph.Graph.Process.MaxEdges <= 0 {
		cfg.VisionGraph.Graph.Process.MaxEdges = graph.DefaultProcessMaxEdges
	}
	if cfg.VisionGraph.Graph.Network.Sample <= 0 {
		cfg.VisionGraph.Graph.Network.Sample = graph.DefaultNetworkSample
	}
	if cfg.VisionGraph.Graph.Network.MaxEdges <= 0 {
		cfg.VisionGraph.Graph.Network.MaxEdges = graph.DefaultNetworkMaxEdges
	}
	if cfg.VisionGraph.Graph.Direction == "" {
		cfg.VisionGraph.Graph.Direction = "LR"
	}

	if cfg.VisionGraph.LLM.Command == "" {
		cfg.VisionGraph.LLM.Command = "ollama"
	}
	if cfg.VisionGraph.LLM.Model == "" {
		cfg.VisionGraph.LLM.Model = "codellama:7b-instruct"
	}
	if cfg.VisionGraph.LLM.Timeout <= 0 {
		cfg.VisionGraph.LLM.Timeout = 120 * time.Second
	}
	if cfg.VisionGraph.LLM.SampleLimit <= 0 {
		cfg.VisionGraph.LLM.SampleLimit = llm.DefaultSampleLimit
	}

	if cfg.VisionGraph.Poller.Interval <= 0 {
		cfg.VisionGraph.Poller.Interval = 2 * time.Minute
	}

	if cfg.VisionGraph.Logging.Level == "" {
		cfg.VisionGraph.Logging.Level = "info"
	}
}

func runServe(args []string) {
	configArg := ""
	if len(args) > 0 {
		configArg = args[0]
	}

	configPath := findConfigFile(configArg)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyDefaults(cfg)
	vg := cfg.VisionGraph

	if err := logger.Init(vg.Logging.Enabled, vg.Logging.Level, vg.Logging.File, vg.Logging.Console); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Infof("VisionGraph starting")
	logger.Infof("Config loaded from: %s", configPath)

	token := vg.VisionOne.Token
	if token == "" {
		token = os.Getenv(vg.VisionOne.TokenEnv)
	}

	var client *visionone.Client
	if token != "" {
		client, err = visionone.NewClient(visionone.Config{
			Region:   vg.VisionOne.Region,
			Endpoint: vg.VisionOne.Endpoint,
			Token:    token,
			Timeout:  vg.VisionOne.Timeout,
		})
		if err != nil {
			logger.Errorf("Failed to create Vision One client: %v", err)
			log.Fatalf("Failed to create Vision One client: %v", err)
		}
		logger.Infof("Vision One client ready (region=%s)", vg.VisionOne.Region)
	} else {
		logger.Warnf("No API token configured; only inline detection bodies will work")
	}

	var detCache *cache.Cache
	if vg.Cache.Enabled {
		detCache, err = cache.New(cache.Config{
			Addr:      vg.Cache.Addr,
			Password:  vg.Cache.Password,
			DB:        vg.Cache.DB,
			KeyPrefix: vg.Cache.KeyPrefix,
			TTL:       vg.Cache.TTL,
		})
		if err != nil {
			logger.Errorf("Failed to create detection cache: %v", err)
			log.Fatalf("Failed to create detection cache: %v", err)
		}
		logger.Infof("Detection cache ready (%s)", vg.Cache.Addr)
	}

	var engine rules.Engine = &rules.NoopEngine{}
	if vg.Rules.Enabled {
		if strings.TrimSpace(vg.Rules.Path) == "" {
			logger.Warnf("Rules enabled but rules.path is empty; tagging disabled")
		} else {
			sigmaEngine, stats, err := rules.NewSigmaEngine(vg.Rules.Path)
			if err != nil {
				logger.Errorf("Failed to load Sigma rules from %s: %v", vg.Rules.Path, err)
				log.Fatalf("Failed to load Sigma rules: %v", err)
			}
			engine = sigmaEngine
			logger.Infof("Sigma rules loaded: loaded=%d skipped_complex=%d skipped_invalid=%d files=%d",
				stats.Loaded, stats.SkippedComplex, stats.SkippedInvalid, stats.TotalFiles)
			if stats.Loaded == 0 {
				logger.Warnf("No compatible Sigma rules loaded; tagging is effectively disabled")
			}
		}
	}

	runner := llm.NewRunner(llm.Config{
		Command: vg.LLM.Command,
		Model:   vg.LLM.Model,
		Timeout: vg.LLM.Timeout,
	})

	app := server.NewApp(server.Options{
		Client: client,
		Cache:  detCache,
		Engine: engine,
		Runner: runner,
		Process: &graph.ProcessBuilder{
			Sample:   vg.Graph.Process.Sample,
			MaxEdges: vg.Graph.Process.MaxEdges,
		},
		Network: &graph.NetworkBuilder{
			Sample:   vg.Graph.Network.Sample,
			MaxEdges: vg.Graph.Network.MaxEdges,
		},
		Direction:   vg.Graph.Direction,
		Region:      vg.VisionOne.Region,
		Filter:      vg.VisionOne.Query,
		Top:         vg.VisionOne.Top,
		DedupField:  vg.LLM.DedupField,
		SampleLimit: vg.LLM.SampleLimit,
		CORSOrigins: vg.Server.CORSOrigins,
		ReadTimeout: vg.Server.ReadTimeout,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if vg.Server.MetricsAddr != "" {
		go func() {
			logger.Infof("Metrics listening on %s", vg.Server.MetricsAddr)
			if err := metrics.Serve(vg.Server.MetricsAddr); err != nil {
				logger.Errorf("Metrics listener error: %v", err)
			}
		}()
	}

	if vg.Poller.Enabled {
		if client == nil || detCache == nil {
			logger.Warnf("Poller enabled but client or cache is missing; poller disabled")
		} else {
			p := poller.New(client, detCache, engine, poller.Config{
				Region:   vg.VisionOne.Region,
				Filter:   vg.VisionOne.Query,
				Top:      vg.Poller.Top,
				Interval: vg.Poller.Interval,
			})
			go func() {
				if err := p.Run(ctx); err != nil && err != context.Canceled {
					logger.Errorf("Poller error: %v", err)
				}
			}()
		}
	}

	go func() {
		logger.Infof("API listening on %s", vg.Server.Addr)
		if err := app.Listen(vg.Server.Addr); err != nil {
			logger.Errorf("Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Infof("Shutting down")
	cancel()
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		logger.Errorf("Error shutting down server: %v", err)
	}
	if detCache != nil {
		if err := detCache.Close(); err != nil {
			logger.Errorf("Error closing cache: %v", err)
		}
	}

	logger.Infof("VisionGraph stopped")
}

func runCompile(args []string) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	input := fs.String("input", "", "Detections JSONL input path")
	kind := fs.String("kind", "process", "Graph kind: process or network")
	output := fs.String("output", "", "Output path (default stdout for mermaid)")
	format := fs.String("format", "mermaid", "Output format: mermaid or json")
	direction := fs.String("direction", "LR", "Flowchart direction")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *input == "" {
		fmt.Fprintln(os.Stderr, "compile: -input is required")
		return 2
	}

	dets, err := loadDetectionsJSONL(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load detections: %v\n", err)
		return 1
	}

	var g *models.CompiledGraph
	switch *kind {
	case "process":
		g = graph.NewProcessBuilder().Compile(dets, true)
	case "network":
		g = graph.NewNetworkBuilder().Compile(dets, true)
	default:
		fmt.Fprintf(os.Stderr, "unknown graph kind: %s\n", *kind)
		return 2
	}
	if g == nil {
		fmt.Fprintln(os.Stderr, "no graph produced")
		return 1
	}

	switch *format {
	case "mermaid":
		text, err := graph.Mermaid(g, *direction)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to render graph: %v\n", err)
			return 1
		}
		if *output == "" {
			fmt.Print(text)
			break
		}
		if err := os.WriteFile(*output, []byte(text), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write output: %v\n", err)
			return 1
		}
	case "json":
		if *output == "" {
			fmt.Fprintln(os.Stderr, "compile: -output is required for json format")
			return 2
		}
		w, err := graphjson.NewWriter(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create writer: %v\n", err)
			return 1
		}
		defer w.Close()
		if err := w.WriteGraph(g); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write graph: %v\n", err)
			return 1
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown output format: %s\n", *format)
		return 2
	}

	fmt.Fprintf(os.Stderr, "compiled kind=%s detections=%d nodes=%d edges=%d\n",
		*kind, len(dets), len(g.Nodes), len(g.Edges))
	return 0
}

func loadDetectionsJSONL(path string) ([]*models.Detection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	var dets []*models.Detection
	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	s.Buffer(buf, 8*1024*1024)

	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			continue
		}
		dets = append(dets, models.FromMap(raw))
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return dets, nil
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			runServe(os.Args[2:])
			return
		case "compile":
			os.Exit(runCompile(os.Args[2:]))
		default:
			// Backward-compatible mode: first arg is config path.
			runServe(os.Args[1:])
			return
		}
	}

	runServe(nil)
}
