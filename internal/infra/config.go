package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"fantasy_go/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string; the manager API
	// rejects obviously non-browser clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds the whole application configuration. Sensitive values can be
// overridden through environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		BaseURL         string `yaml:"base_url"`
		Token           string `yaml:"token"`
		LeagueID        int64  `yaml:"league_id"`
		UserID          int64  `yaml:"user_id"` // 0 = resolve via current-user lookup
		PollIntervalSec int    `yaml:"poll_interval_sec"`
		TimeoutSec      int    `yaml:"timeout_sec"`
	} `yaml:"api"`

	Session struct {
		GraceWindowMin    int             `yaml:"grace_window_min"`
		BonusRatio        decimal.Decimal `yaml:"bonus_ratio"`
		CashCeiling       int64           `yaml:"cash_ceiling"`
		AssetValueCeiling int64           `yaml:"asset_value_ceiling"`
	} `yaml:"session"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Security: never require the token to live on disk.
	overrideWithEnv(&cfg)

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills tunables that were left unset.
func (c *Config) applyDefaults() {
	if c.API.PollIntervalSec == 0 {
		c.API.PollIntervalSec = 60
	}
	if c.API.TimeoutSec == 0 {
		c.API.TimeoutSec = 10
	}
	if c.Session.GraceWindowMin == 0 {
		c.Session.GraceWindowMin = 5
	}
	if c.Session.BonusRatio.IsZero() {
		c.Session.BonusRatio = decimal.NewFromFloat(0.20)
	}
	if c.Session.CashCeiling == 0 {
		c.Session.CashCeiling = 1_000_000_000
	}
	if c.Session.AssetValueCeiling == 0 {
		c.Session.AssetValueCeiling = 10_000_000_000
	}
}

// GraceWindow returns the grace window as a duration.
func (c *Config) GraceWindow() time.Duration {
	return time.Duration(c.Session.GraceWindowMin) * time.Minute
}

// PollInterval returns the market poll cadence as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.API.PollIntervalSec) * time.Second
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if !hasPrefix(c.API.BaseURL, "http://") && !hasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("invalid API base URL: %s", c.API.BaseURL)
	}
	if c.API.LeagueID <= 0 {
		return fmt.Errorf("league id is required")
	}
	if c.API.PollIntervalSec <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	// The grace window only works if it outlasts the poll latency; a window
	// shorter than the cadence would let cancelled bids resurrect.
	if c.GraceWindow() <= c.PollInterval() {
		return fmt.Errorf("grace window (%s) must exceed poll interval (%s)",
			c.GraceWindow(), c.PollInterval())
	}

	if c.Session.BonusRatio.IsNegative() || c.Session.BonusRatio.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("bonus ratio must be in [0, 1): %s", c.Session.BonusRatio)
	}
	if c.Session.CashCeiling <= 0 || c.Session.AssetValueCeiling <= 0 {
		return fmt.Errorf("sanity ceilings must be positive")
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv applies environment overrides when present.
func overrideWithEnv(cfg *Config) {
	if token := os.Getenv("FANTASY_API_TOKEN"); token != "" {
		cfg.API.Token = token
	}
	if base := os.Getenv("FANTASY_API_BASE_URL"); base != "" {
		cfg.API.BaseURL = base
	}
	if league := os.Getenv("FANTASY_LEAGUE_ID"); league != "" {
		if id, err := strconv.ParseInt(league, 10, 64); err == nil {
			cfg.API.LeagueID = id
		}
	}
}
