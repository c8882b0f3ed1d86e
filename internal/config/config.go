package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultInstructions is the system prompt sent with every extraction call.
const DefaultInstructions = `You extract sales leads from raw search-result text.
Return only CSV rows with the columns: name,emailid,social link, profession
One lead per line. Leave a column empty when the text does not contain it.
Do not add commentary, numbering, or code fences.`

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Browser   BrowserConfig   `yaml:"browser" mapstructure:"browser"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Shell     ShellConfig     `yaml:"shell" mapstructure:"shell"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds generative model settings. Key is only ever read
// from the environment or a config file; nothing writes it back.
type AnthropicConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Model             string  `yaml:"model" mapstructure:"model"`
	MaxTokens         int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	TopP              float64 `yaml:"top_p" mapstructure:"top_p"`
	RequestsPerMinute int     `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// BrowserConfig configures the headless search scraper.
type BrowserConfig struct {
	SearchURL      string `yaml:"search_url" mapstructure:"search_url"`
	Headless       bool   `yaml:"headless" mapstructure:"headless"`
	ExecPath       string `yaml:"exec_path" mapstructure:"exec_path"`
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxScrolls     int    `yaml:"max_scrolls" mapstructure:"max_scrolls"`
	ScrollDelayMs  int    `yaml:"scroll_delay_ms" mapstructure:"scroll_delay_ms"`
	NavTimeoutSecs int    `yaml:"nav_timeout_secs" mapstructure:"nav_timeout_secs"`
	SettleMs       int    `yaml:"settle_ms" mapstructure:"settle_ms"`
}

// ScrollDelay returns the pause after each scroll.
func (b BrowserConfig) ScrollDelay() time.Duration {
	return time.Duration(b.ScrollDelayMs) * time.Millisecond
}

// NavTimeout returns the navigation timeout.
func (b BrowserConfig) NavTimeout() time.Duration {
	return time.Duration(b.NavTimeoutSecs) * time.Second
}

// Settle returns how long to wait after the page reports ready.
func (b BrowserConfig) Settle() time.Duration {
	return time.Duration(b.SettleMs) * time.Millisecond
}

// ExtractConfig configures the generation retry policy and prompt.
type ExtractConfig struct {
	MaxAttempts  int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryDelayMs int    `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms"`
	Instructions string `yaml:"instructions" mapstructure:"instructions"`
}

// RetryDelay returns the fixed pause between generation attempts.
func (e ExtractConfig) RetryDelay() time.Duration {
	return time.Duration(e.RetryDelayMs) * time.Millisecond
}

// OutputConfig configures where files are written.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// PipelineConfig configures the orchestrator.
type PipelineConfig struct {
	HoldTickMs int `yaml:"hold_tick_ms" mapstructure:"hold_tick_ms"`
}

// HoldTick returns the poll interval of the post-completion wait.
func (p PipelineConfig) HoldTick() time.Duration {
	return time.Duration(p.HoldTickMs) * time.Millisecond
}

// ServerConfig configures the local HTTP shell.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// ShellConfig configures user-facing shell behavior.
type ShellConfig struct {
	HelpURL string `yaml:"help_url" mapstructure:"help_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ./config.yaml (if present) and environment.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file. An empty path falls back to
// ./config.yaml, which may be absent; an explicit path must exist.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetConfigType("yaml")

	// Environment
	v.SetEnvPrefix("LEADSCRAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadscrape.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.temperature", 1.0)
	v.SetDefault("anthropic.top_p", 0.7)
	v.SetDefault("anthropic.requests_per_minute", 30)
	v.SetDefault("anthropic.timeout_secs", 0)
	v.SetDefault("browser.search_url", "https://www.google.com/")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) "+
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("browser.max_scrolls", 5)
	v.SetDefault("browser.scroll_delay_ms", 1000)
	v.SetDefault("browser.nav_timeout_secs", 60)
	v.SetDefault("browser.settle_ms", 3000)
	v.SetDefault("extract.max_attempts", 3)
	v.SetDefault("extract.retry_delay_ms", 2000)
	v.SetDefault("extract.instructions", DefaultInstructions)
	v.SetDefault("output.dir", ".")
	v.SetDefault("pipeline.hold_tick_ms", 1000)
	v.SetDefault("server.port", 38471)
	v.SetDefault("server.allowed_origins", []string{"tauri://localhost", "http://localhost:*"})
	v.SetDefault("shell.help_url", "https://store.codestam.com/LGAMA-G")

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

// Redacted returns a copy safe to print: the API key is masked.
func (c Config) Redacted() Config {
	if c.Anthropic.Key != "" {
		c.Anthropic.Key = "********"
	}
	return c
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
