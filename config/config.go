package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	VisionGraph VisionGraphConfig `yaml:"visiongraph"`
}

// VisionGraphConfig is the project configuration.
type VisionGraphConfig struct {
	Server    ServerConfig    `yaml:"server"`
	VisionOne VisionOneConfig `yaml:"visionone"`
	Cache     CacheConfig     `yaml:"cache"`
	Rules     RulesConfig     `yaml:"rules"`
	Graph     GraphConfig     `yaml:"graph"`
	LLM       LLMConfig       `yaml:"llm"`
	Poller    PollerConfig    `yaml:"poller"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls the dashboard API listener.
type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	MetricsAddr string        `yaml:"metrics_addr"`
	CORSOrigins string        `yaml:"cors_origins"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// VisionOneConfig controls the vendor search client.
type VisionOneConfig struct {
	Region   string        `yaml:"region"`
	Endpoint string        `yaml:"endpoint"` // overrides the region map when set
	Token    string        `yaml:"token"`
	TokenEnv string        `yaml:"token_env"`
	Query    string        `yaml:"query"`
	Top      int           `yaml:"top"`
	Timeout  time.Duration `yaml:"timeout"`
}

// CacheConfig controls the Redis detection cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// RulesConfig controls detection tagging rules.
type RulesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// GraphConfig bounds the two chain compilers.
type GraphConfig struct {
	Process   ChainConfig `yaml:"process"`
	Network   ChainConfig `yaml:"network"`
	Direction string      `yaml:"direction"`
}

// ChainConfig bounds one chain compiler.
type ChainConfig struct {
	Sample   int `yaml:"sample"`
	MaxEdges int `yaml:"max_edges"`
}

// LLMConfig controls the analysis subprocess.
type LLMConfig struct {
	Command     string        `yaml:"command"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	SampleLimit int           `yaml:"sample_limit"`
	DedupField  string        `yaml:"dedup_field"`
}

// PollerConfig controls background cache refresh.
type PollerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Top      int           `yaml:"top"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
