// Package config loads application configuration and sets up logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/moverscan/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	SerpAPI   SerpAPIConfig   `yaml:"serpapi" mapstructure:"serpapi"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Schedule  ScheduleConfig  `yaml:"schedule" mapstructure:"schedule"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Sources   []SourceConfig  `yaml:"sources" mapstructure:"sources"`
	Regions   []string        `yaml:"regions" mapstructure:"regions"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // "json" or "sqlite"
	Path   string `yaml:"path" mapstructure:"path"`     // json document path
	DSN    string `yaml:"dsn" mapstructure:"dsn"`       // sqlite database path
}

// SerpAPIConfig holds SerpAPI settings.
type SerpAPIConfig struct {
	Key      string `yaml:"key" mapstructure:"key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	Location string `yaml:"location" mapstructure:"location"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// FetchConfig configures the page fetcher.
type FetchConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PipelineConfig configures the orchestrator.
type PipelineConfig struct {
	MaxConcurrent       int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	PerHostIntervalSecs int `yaml:"per_host_interval_secs" mapstructure:"per_host_interval_secs"`
	MaxPromptChars      int `yaml:"max_prompt_chars" mapstructure:"max_prompt_chars"`
}

// ScheduleConfig configures the recurring-run trigger.
type ScheduleConfig struct {
	Every string `yaml:"every" mapstructure:"every"` // e.g. "30m", "24h", "2d"
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// SourceConfig is one configured source. A query containing the {region}
// placeholder together with a non-empty Regions list (falling back to the
// top-level regions) fans out into one descriptor per region.
type SourceConfig struct {
	Name       string   `yaml:"name" mapstructure:"name"`
	URL        string   `yaml:"url" mapstructure:"url"`
	Query      string   `yaml:"query" mapstructure:"query"`
	MaxResults int      `yaml:"max_results" mapstructure:"max_results"`
	Strategy   string   `yaml:"strategy" mapstructure:"strategy"`
	Regions    []string `yaml:"regions" mapstructure:"regions"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MOVERSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "json")
	v.SetDefault("store.path", "data/moving_companies.json")
	v.SetDefault("store.dsn", "data/moverscan.db")
	v.SetDefault("serpapi.base_url", "https://serpapi.com")
	v.SetDefault("serpapi.location", "United States")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("fetch.timeout_secs", 10)
	v.SetDefault("pipeline.max_concurrent", 4)
	v.SetDefault("pipeline.per_host_interval_secs", 2)
	v.SetDefault("pipeline.max_prompt_chars", 6000)
	v.SetDefault("schedule.every", "24h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// ExpandSources turns the configured source list into concrete per-run
// descriptors, fanning out regional query templates.
func (c *Config) ExpandSources() []model.SourceDescriptor {
	var out []model.SourceDescriptor
	for _, s := range c.Sources {
		strategy := model.Strategy(s.Strategy)
		if strategy == "" {
			strategy = model.StrategyModel
		}

		regions := s.Regions
		if len(regions) == 0 {
			regions = c.Regions
		}

		if s.Query != "" && strings.Contains(s.Query, "{region}") && len(regions) > 0 {
			for _, region := range regions {
				out = append(out, model.SourceDescriptor{
					Name:       s.Name + ":" + strings.ToLower(strings.ReplaceAll(region, " ", "_")),
					Query:      strings.ReplaceAll(s.Query, "{region}", region),
					MaxResults: s.MaxResults,
					Strategy:   strategy,
				})
			}
			continue
		}

		out = append(out, model.SourceDescriptor{
			Name:       s.Name,
			URL:        s.URL,
			Query:      s.Query,
			MaxResults: s.MaxResults,
			Strategy:   strategy,
		})
	}
	return out
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
