package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const DefaultAPIBaseURL = "https://api-GiantyLive.sgcharo.com"

type Config struct {
	ServerPort              string        `env:"SERVER_PORT" envDefault:"3000"`
	ServerReadHeaderTimeout time.Duration `env:"SERVER_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ServerWriteTimeout      time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ServerIdleTimeout       time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	RequestTimeout          time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	StreamMaxDuration       time.Duration `env:"STREAM_MAX_DURATION" envDefault:"30m"`

	APIBaseURL string        `env:"API_BASE_URL" envDefault:"https://api-GiantyLive.sgcharo.com"`
	APITimeout time.Duration `env:"API_TIMEOUT" envDefault:"10s"`

	DefaultLocale string `env:"DEFAULT_LOCALE" envDefault:"ja"`

	CookieTTL    time.Duration `env:"COOKIE_TTL" envDefault:"168h"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`
	CookieDomain string        `env:"COOKIE_DOMAIN"`

	CORSOrigins      []string `env:"CORS_ORIGINS" envSeparator:","`
	RateLimitRPM     int      `env:"RATE_LIMIT_RPM" envDefault:"300"`
	AuthRateLimitRPM int      `env:"AUTH_RATE_LIMIT_RPM" envDefault:"20"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"5"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"1"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"pretty"`

	StaticDir string `env:"STATIC_DIR"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	parsed, err := url.Parse(c.APIBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL)
	}

	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.CookieTTL <= 0 {
		return fmt.Errorf("COOKIE_TTL must be positive")
	}

	switch c.DefaultLocale {
	case "vi", "en", "ja":
	default:
		return fmt.Errorf("DEFAULT_LOCALE must be one of vi, en, ja, got %q", c.DefaultLocale)
	}

	switch c.LogFormat {
	case "pretty", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be pretty or json, got %q", c.LogFormat)
	}

	if c.DatabaseURL != "" && c.DBMaxConns < c.DBMinConns {
		return fmt.Errorf("DB_MAX_CONNS must be >= DB_MIN_CONNS")
	}

	return nil
}

func (c *Config) normalize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	c.DefaultLocale = strings.ToLower(strings.TrimSpace(c.DefaultLocale))
	if c.DefaultLocale == "" {
		c.DefaultLocale = "ja"
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)

	origins := make([]string, 0, len(c.CORSOrigins))
	for _, origin := range c.CORSOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.CORSOrigins = origins
}
