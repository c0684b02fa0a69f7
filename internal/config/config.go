package config

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	DBPath         string        `yaml:"db_path" mapstructure:"db_path"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	Server         ServerConfig  `yaml:"server" mapstructure:"server"`
	Log            LogConfig     `yaml:"log" mapstructure:"log"`
	Fetch          FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Browser        BrowserConfig `yaml:"browser" mapstructure:"browser"`
	Model          ModelConfig   `yaml:"model" mapstructure:"model"`
}

type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// FetchConfig configures the plain HTTP fetch of fallback pages.
type FetchConfig struct {
	UserAgent string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// BrowserConfig configures the headless browser used by the render path.
type BrowserConfig struct {
	NavTimeout  time.Duration `yaml:"nav_timeout" mapstructure:"nav_timeout"`
	SettleDelay time.Duration `yaml:"settle_delay" mapstructure:"settle_delay"`
	NoSandbox   bool          `yaml:"no_sandbox" mapstructure:"no_sandbox"`
	RemoteURL   string        `yaml:"remote_url" mapstructure:"remote_url"`
}

// ModelConfig selects and configures the fallback model provider.
type ModelConfig struct {
	Provider       string        `yaml:"provider" mapstructure:"provider"`
	GeminiKey      string        `yaml:"gemini_key" mapstructure:"gemini_key"`
	GeminiModel    string        `yaml:"gemini_model" mapstructure:"gemini_model"`
	AnthropicKey   string        `yaml:"anthropic_key" mapstructure:"anthropic_key"`
	AnthropicModel string        `yaml:"anthropic_model" mapstructure:"anthropic_model"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxImages      int           `yaml:"max_images" mapstructure:"max_images"`
}

// Redacted returns a copy with API keys masked.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Model.GeminiKey = mask(c.Model.GeminiKey)
	c.Model.AnthropicKey = mask(c.Model.AnthropicKey)
	return c
}

// Load reads configuration from file and environment. An explicit path must
// exist; otherwise CONFIG_PATH, then ./config.yaml, are tried and a missing
// file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("BEANSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range map[string]string{
		"db_path":             "DB_PATH",
		"model.gemini_key":    "GEMINI_API_KEY",
		"model.anthropic_key": "ANTHROPIC_API_KEY",
	} {
		if err := v.BindEnv(key, "BEANSCOUT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), legacy); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", key)
		}
	}

	// Defaults
	v.SetDefault("db_path", "./local-data/coffee.db")
	v.SetDefault("request_timeout", 60*time.Second)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("browser.nav_timeout", 30*time.Second)
	v.SetDefault("browser.settle_delay", 1200*time.Millisecond)
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("model.provider", "gemini")
	v.SetDefault("model.gemini_model", "gemini-2.0-flash")
	v.SetDefault("model.anthropic_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("model.timeout", 45*time.Second)
	v.SetDefault("model.max_images", 5)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); explicit || !ok {
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
