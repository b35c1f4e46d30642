package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Resort identifies one tracked resort and the terms used to find mentions of it.
type Resort struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	SearchTerms []string `yaml:"search_terms"`
	Subreddits  []string `yaml:"subreddits"`
}

// Theme is one entry of the ordered theme taxonomy. Order matters: the fallback
// classifier assigns the first theme whose keywords match, and the aggregator
// breaks ranking ties by taxonomy order.
type Theme struct {
	Name       string   `yaml:"name"`
	Keywords   []string `yaml:"keywords"`
	Government bool     `yaml:"government,omitempty"`
}

// Config holds all application configuration. It is constructed once at startup
// and passed into each component; nothing reads ambient state after load.
type Config struct {
	AnthropicAPIKey    string `yaml:"anthropic_api_key"`
	AnthropicModel     string `yaml:"anthropic_model"`
	YouTubeAPIKey      string `yaml:"youtube_api_key"`
	RedditClientID     string `yaml:"reddit_client_id"`
	RedditClientSecret string `yaml:"reddit_client_secret"`
	RedditUserAgent    string `yaml:"reddit_user_agent"`

	EmailEnabled bool   `yaml:"email_enabled"`
	SMTPServer   string `yaml:"smtp_server"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	EmailTo      string `yaml:"email_to"`

	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`

	DataDir         string   `yaml:"data_dir"`
	DBPath          string   `yaml:"db_path"`
	RSSFeeds        []string `yaml:"rss_feeds"`
	LookbackHours   int      `yaml:"lookback_hours"`
	FetchTimeoutSec int      `yaml:"fetch_timeout_secs"`
	BatchSize       int      `yaml:"batch_size"`
	BatchDelaySec   int      `yaml:"batch_delay_secs"`
	RetentionDays   int      `yaml:"retention_days"`
	TrendWindow     int      `yaml:"trend_window"`
	ThemeTrendCount int      `yaml:"theme_trend_count"`
	FeedLimit       int      `yaml:"feed_limit"`

	Schedule    string `yaml:"schedule"`
	Timezone    string `yaml:"timezone"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`

	Resorts []Resort `yaml:"resorts"`
	Themes  []Theme  `yaml:"themes"`
}

// Defaults returns a Config with all default values set: the three tracked
// resorts, the ordered theme taxonomy, and the pipeline tuning knobs.
func Defaults() Config {
	return Config{
		AnthropicModel:  "claude-sonnet-4-20250514",
		RedditUserAgent: "AlpinePulse/1.0",
		EmailEnabled:    true,
		SMTPServer:      "smtp.gmail.com",
		SMTPPort:        587,
		DataDir:         "./data",
		DBPath:          "./data/mentions.db",
		RSSFeeds: []string{
			"https://news.google.com/rss/search?q=%22Fortress+Mountain%22+Alberta&hl=en-CA&gl=CA",
			"https://news.google.com/rss/search?q=%22Castle+Mountain+Resort%22+Alberta&hl=en-CA&gl=CA",
			"https://news.google.com/rss/search?q=%22Nakiska%22+ski+Alberta&hl=en-CA&gl=CA",
			"https://news.google.com/rss/search?q=%22All+Season+Resorts%22+Alberta&hl=en-CA&gl=CA",
		},
		LookbackHours:   26,
		FetchTimeoutSec: 15,
		BatchSize:       15,
		BatchDelaySec:   1,
		RetentionDays:   30,
		TrendWindow:     7,
		ThemeTrendCount: 4,
		FeedLimit:       30,
		Schedule:        "0 6 * * 1-5",
		Timezone:        "America/Edmonton",
		MetricsAddr:     ":9464",
		LogLevel:        "info",
		Resorts:         DefaultResorts(),
		Themes:          DefaultThemes(),
	}
}

// DefaultResorts returns the tracked resorts with their search terms.
func DefaultResorts() []Resort {
	return []Resort{
		{
			Key:         "fortress",
			Name:        "Fortress Mountain",
			SearchTerms: []string{"Fortress Mountain", "Fortress ski", "Fortress resort", "Fortress Mountain Alberta"},
			Subreddits:  []string{"skiing", "Calgary", "alberta", "snowboarding", "backcountry"},
		},
		{
			Key:         "castle",
			Name:        "Castle Mountain",
			SearchTerms: []string{"Castle Mountain Resort", "Castle Mountain ski", "Castle ski area", "Pincher Creek ski"},
			Subreddits:  []string{"skiing", "Calgary", "alberta", "snowboarding", "Lethbridge"},
		},
		{
			Key:         "nakiska",
			Name:        "Nakiska",
			SearchTerms: []string{"Nakiska", "Nakiska ski", "Nakiska resort", "Nakiska Kananaskis"},
			Subreddits:  []string{"skiing", "Calgary", "alberta", "snowboarding", "Kananaskis"},
		},
	}
}

// DefaultThemes returns the ordered theme taxonomy. "Snow Conditions" is last
// and doubles as the default theme when nothing matches. Some keywords overlap
// across themes ("trail" in two of them); the list order is the tie-break.
func DefaultThemes() []Theme {
	return []Theme{
		{Name: "Pricing & Value", Keywords: []string{"price", "cost", "expensive", "cheap", "value", "pass", "ticket"}},
		{Name: "Summer Activities", Keywords: []string{"summer", "hiking", "biking", "mountain bike", "trail"}},
		{Name: "Staff & Service", Keywords: []string{"staff", "instructor", "service", "friendly", "rude", "helpful"}},
		{Name: "Lift Wait Times", Keywords: []string{"wait", "line", "queue", "lift", "crowded", "busy"}},
		{Name: "Facilities & Lodging", Keywords: []string{"lodge", "food", "restaurant", "hotel", "parking", "washroom"}},
		{Name: "Trail Maintenance", Keywords: []string{"grooming", "groomed", "trail", "run condition", "maintained"}},
		{Name: "Environmental Impact", Keywords: []string{"environment", "wildlife", "ecosystem", "sustainable"}},
		{Name: "Safety & Incidents", Keywords: []string{"accident", "injury", "rescue", "closed", "avalanche", "danger"}},
		{Name: "Events & Promotions", Keywords: []string{"event", "festival", "promotion", "discount", "deal", "sale"}},
		{Name: "Access & Transportation", Keywords: []string{"road", "drive", "access", "highway", "shuttle", "pothole"}},
		{Name: "Family & Beginner Experience", Keywords: []string{"family", "kids", "beginner", "lesson", "learn", "children"}},
		{Name: "Government & Policy", Keywords: []string{"government", "provincial", "minister", "policy", "kananaskis pass", "alberta parks", "funding"}, Government: true},
		{Name: "Snow Conditions", Keywords: []string{"snow", "powder", "conditions", "fresh", "base", "coverage"}},
	}
}

// Load reads an optional YAML config file, applies environment overrides for
// secrets, and returns a validated Config. A missing file is not an error:
// defaults plus environment variables are a complete configuration.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides secret and path settings from environment variables, so
// API keys never have to live in the config file.
func (c *Config) applyEnv() {
	setFromEnv(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setFromEnv(&c.YouTubeAPIKey, "YOUTUBE_API_KEY")
	setFromEnv(&c.RedditClientID, "REDDIT_CLIENT_ID")
	setFromEnv(&c.RedditClientSecret, "REDDIT_CLIENT_SECRET")
	setFromEnv(&c.RedditUserAgent, "REDDIT_USER_AGENT")
	setFromEnv(&c.SMTPUser, "SMTP_USER")
	setFromEnv(&c.SMTPPassword, "SMTP_PASSWORD")
	setFromEnv(&c.EmailTo, "EMAIL_TO")
	setFromEnv(&c.TelegramToken, "TELEGRAM_TOKEN")
	setFromEnv(&c.DataDir, "DATA_DIR")

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.TelegramChatID = id
		}
	}
	if v := os.Getenv("EMAIL_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.EmailEnabled = b
		}
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that values the pipeline depends on are sane.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.LookbackHours <= 0 {
		return fmt.Errorf("lookback_hours must be positive, got %d", c.LookbackHours)
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be positive, got %d", c.RetentionDays)
	}
	if c.TrendWindow <= 0 || c.TrendWindow > c.RetentionDays {
		return fmt.Errorf("trend_window must be in 1..retention_days, got %d", c.TrendWindow)
	}
	if len(c.Resorts) == 0 {
		return fmt.Errorf("at least one resort must be configured")
	}
	if len(c.Themes) == 0 {
		return fmt.Errorf("at least one theme must be configured")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// FetchTimeout returns the collector HTTP timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

// BatchDelay returns the courtesy delay between annotation batches.
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelaySec) * time.Second
}

// ThemeNames returns the taxonomy names in order.
func (c *Config) ThemeNames() []string {
	names := make([]string, len(c.Themes))
	for i, t := range c.Themes {
		names[i] = t.Name
	}
	return names
}
