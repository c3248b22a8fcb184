package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Scrape  ScrapeConfig  `yaml:"scrape" mapstructure:"scrape"`
	Browser BrowserConfig `yaml:"browser" mapstructure:"browser"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ScrapeConfig configures the collection run.
type ScrapeConfig struct {
	// SourcesFile is the path to the sources.yaml definition.
	SourcesFile string `yaml:"sources_file" mapstructure:"sources_file"`
	// Parallel is the number of sources worked concurrently; each worker
	// owns one browser session.
	Parallel int `yaml:"parallel" mapstructure:"parallel"`
	// RoutesPerSecond paces route visits within one source worker.
	RoutesPerSecond float64 `yaml:"routes_per_second" mapstructure:"routes_per_second"`
	// DeadlineSecs bounds the whole run, 0 for none. The route in flight
	// when the deadline hits is drained, not abandoned.
	DeadlineSecs int `yaml:"deadline_secs" mapstructure:"deadline_secs"`
	// Retry policy for page navigation.
	MaxAttempts   int `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryBaseSecs int `yaml:"retry_base_secs" mapstructure:"retry_base_secs"`
	// ScrollRounds bounds the lazy-load scroll loop per page.
	ScrollRounds int `yaml:"scroll_rounds" mapstructure:"scroll_rounds"`
	// CaptureDir receives page captures for failed extractions.
	CaptureDir string `yaml:"capture_dir" mapstructure:"capture_dir"`
}

// BrowserConfig configures browser sessions.
type BrowserConfig struct {
	Headless        bool   `yaml:"headless" mapstructure:"headless"`
	NavigateTimeout int    `yaml:"navigate_timeout_secs" mapstructure:"navigate_timeout_secs"`
	ScrollPauseMs   int    `yaml:"scroll_pause_ms" mapstructure:"scroll_pause_ms"`
	UserAgent       string `yaml:"user_agent" mapstructure:"user_agent"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Deadline returns the run deadline as a duration, zero when unbounded.
func (c ScrapeConfig) Deadline() time.Duration {
	return time.Duration(c.DeadlineSecs) * time.Second
}

// RetryBase returns the linear backoff unit.
func (c ScrapeConfig) RetryBase() time.Duration {
	return time.Duration(c.RetryBaseSecs) * time.Second
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COLLECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "collector.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("scrape.sources_file", "sources.yaml")
	v.SetDefault("scrape.parallel", 2)
	v.SetDefault("scrape.routes_per_second", 0.2)
	v.SetDefault("scrape.deadline_secs", 0)
	v.SetDefault("scrape.max_attempts", 3)
	v.SetDefault("scrape.retry_base_secs", 2)
	v.SetDefault("scrape.scroll_rounds", 5)
	v.SetDefault("scrape.capture_dir", "captures")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.navigate_timeout_secs", 45)
	v.SetDefault("browser.scroll_pause_ms", 1500)
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
