package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/voyagen/drtvfeed/internal/models"
)

var (
	// ErrNoChannelIDs is returned when no target channel ids are configured.
	ErrNoChannelIDs = errors.New("at least one channel id is required")
	// ErrInvalidBaseURL is returned when the provider base URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid provider base URL")
	// ErrInvalidScheduleURL is returned when the schedule endpoint is not an absolute http(s) URL.
	ErrInvalidScheduleURL = errors.New("invalid schedule URL")
	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("timeout must be positive")
	// ErrInvalidLogLevel is returned when log level is unknown.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Provider defaults mirror what the DR TV web client sends.
const (
	DefaultBaseURL        = "https://www.dr.dk/drtv"
	DefaultScheduleURL    = "https://prod95-cdn.dr-massive.com/api/schedules"
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	DefaultAcceptLanguage = "da,en-US;q=0.7,en;q=0.3"
	DefaultTimeout        = 10 * time.Second
	DefaultRateLimit      = 5.0
	DefaultTimezone       = "Europe/Copenhagen"
	DefaultCron           = "0 * * * *"
	DefaultServerPort     = "8080"
)

// DefaultChannelIDs are DR1, DR2, DR Ramasjang and TV A Live.
var DefaultChannelIDs = []string{"20875", "20876", "192099", "20892"}

// Config holds application configuration. It is built once at startup and
// passed by pointer; nothing mutates it afterwards.
type Config struct {
	Provider Provider
	Schedule ScheduleFlags
	Publish  Publish

	Cron        string `yaml:"cron" env:"DRTV_CRON"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	RedisURL    string `yaml:"redis_url" env:"REDIS_URL"`
	ServerPort  string `yaml:"server_port" env:"SERVER_PORT"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat   string `yaml:"log_format" env:"LOG_FORMAT"`
}

// Provider describes where and how the provider is fetched.
type Provider struct {
	BaseURL        string
	ScheduleURL    string
	ChannelIDs     []string
	UserAgent      string
	Accept         string
	AcceptLanguage string
	Timeout        time.Duration
	RateLimit      float64 // requests per second; <= 0 disables limiting
	Location       *time.Location
}

// ScheduleFlags are the fixed provider flags sent with every schedule query.
type ScheduleFlags struct {
	Duration  string `yaml:"duration"`
	Intersect string `yaml:"intersect"`
	Device    string `yaml:"device"`
	Lang      string `yaml:"lang"`
	FF        string `yaml:"ff"`
	Segments  string `yaml:"segments"`
	Sub       string `yaml:"sub"`
}

// Publish names the published state entity.
type Publish struct {
	EntityID     string `yaml:"entity_id"`
	FriendlyName string `yaml:"friendly_name"`
	Icon         string `yaml:"icon"`
}

// Default returns a Config populated with provider defaults.
func Default() *Config {
	return &Config{
		Provider: Provider{
			BaseURL:        DefaultBaseURL,
			ScheduleURL:    DefaultScheduleURL,
			ChannelIDs:     append([]string(nil), DefaultChannelIDs...),
			UserAgent:      DefaultUserAgent,
			Accept:         DefaultAccept,
			AcceptLanguage: DefaultAcceptLanguage,
			Timeout:        DefaultTimeout,
			RateLimit:      DefaultRateLimit,
			Location:       loadLocation(DefaultTimezone),
		},
		Schedule: DefaultScheduleFlags(),
		Publish: Publish{
			EntityID:     models.DefaultEntityID,
			FriendlyName: models.DefaultFriendlyName,
			Icon:         models.DefaultIcon,
		},
		Cron:       DefaultCron,
		ServerPort: DefaultServerPort,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// DefaultScheduleFlags returns the flags the DR TV web client uses.
func DefaultScheduleFlags() ScheduleFlags {
	return ScheduleFlags{
		Duration:  "24",
		Intersect: "true",
		Device:    "web_browser",
		Lang:      "da",
		FF:        "idp,ldp,rpt",
		Segments:  "drtv,optedin",
		Sub:       "Anonymous",
	}
}

// Load builds config from environment variables on top of Default.
// .env.local and .env in the working directory (or next to the executable) are
// loaded first; variables already present in the environment win.
func Load() (*Config, error) {
	loadEnvFiles()
	c := Default()
	applyEnv(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func applyEnv(c *Config) {
	setString(&c.Provider.BaseURL, "DRTV_BASE_URL")
	setString(&c.Provider.ScheduleURL, "DRTV_SCHEDULE_URL")
	setString(&c.Provider.UserAgent, "DRTV_USER_AGENT")
	setString(&c.Provider.Accept, "DRTV_ACCEPT")
	setString(&c.Provider.AcceptLanguage, "DRTV_ACCEPT_LANGUAGE")
	if s := os.Getenv("DRTV_CHANNEL_IDS"); s != "" {
		c.Provider.ChannelIDs = SplitIDs(s)
	}
	if s := os.Getenv("DRTV_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.Provider.Timeout = d
		}
	}
	if s := os.Getenv("DRTV_RATE_LIMIT"); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			c.Provider.RateLimit = f
		}
	}
	if s := os.Getenv("DRTV_TIMEZONE"); s != "" {
		c.Provider.Location = loadLocation(s)
	}
	setString(&c.Cron, "DRTV_CRON")
	setString(&c.Publish.EntityID, "DRTV_ENTITY_ID")
	setString(&c.Publish.FriendlyName, "DRTV_FRIENDLY_NAME")
	setString(&c.Publish.Icon, "DRTV_ICON")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.ServerPort, "SERVER_PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
}

func setString(dst *string, key string) {
	if s := os.Getenv(key); s != "" {
		*dst = s
	}
}

// SplitIDs splits a comma separated id list, dropping blanks.
func SplitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// loadLocation falls back to time.Local when the zone database lacks name.
func loadLocation(name string) *time.Location {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if len(c.Provider.ChannelIDs) == 0 {
		return ErrNoChannelIDs
	}
	if !isHTTPURL(c.Provider.BaseURL) {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.Provider.BaseURL)
	}
	if !isHTTPURL(c.Provider.ScheduleURL) {
		return fmt.Errorf("%w: %q", ErrInvalidScheduleURL, c.Provider.ScheduleURL)
	}
	if c.Provider.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %s (must be debug, info, warn, or error)", ErrInvalidLogLevel, c.LogLevel)
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
