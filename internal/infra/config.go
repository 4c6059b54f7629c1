package infra

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config represents application configuration loaded from environment
// variables. Credentials are optional at load time: the service starts
// without them and reports their absence on first use.
type Config struct {
	AppEnv          string        `env:"APP_ENV" envDefault:"development"`
	Port            string        `env:"PORT" envDefault:"8080"`
	HTTPReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	// Must exceed VIDEO_MAX_WAIT or blocking waits get cut off mid-poll.
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"7m"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RateLimitPerMin  int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	CORSOrigins      []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	DefaultLocale    string        `env:"DEFAULT_LOCALE" envDefault:"en"`
	GeoIPDBPath      string        `env:"GEOIP_DB_PATH"`
	CacheEnable      bool          `env:"CACHE_ENABLE"`

	Video    VideoConfig
	Enhancer EnhancerConfig
	Redis    RedisConfig
}

// VideoConfig configures the long-running video generation client.
type VideoConfig struct {
	APIKey         string        `env:"VIDEO_API_KEY"`
	BaseURL        string        `env:"VIDEO_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	Model          string        `env:"VIDEO_MODEL" envDefault:"veo-2.0-generate-001"`
	PollInterval   time.Duration `env:"VIDEO_POLL_INTERVAL" envDefault:"20s"`
	MaxWait        time.Duration `env:"VIDEO_MAX_WAIT" envDefault:"6m"`
	RequestTimeout time.Duration `env:"VIDEO_REQUEST_TIMEOUT" envDefault:"45s"`
}

// EnhancerConfig selects and configures the prompt enhancement provider.
type EnhancerConfig struct {
	Provider        string `env:"ENHANCER_PROVIDER" envDefault:"static"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-haiku-20241022"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIModel     string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
}

// RedisConfig configures the optional result cache.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL      time.Duration `env:"REDIS_TTL" envDefault:"10m"`
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// HasVideoCredentials reports whether the generation backend can be called.
func (c *Config) HasVideoCredentials() bool {
	return c.Video.APIKey != ""
}
