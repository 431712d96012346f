package infra

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fantasy_go/internal/domain"

	"github.com/shopspring/decimal"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `
app:
  name: "Fantasy Go"
api:
  base_url: "https://api.example.com"
  league_id: 42
logging:
  level: "debug"
`

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.API.PollIntervalSec != 60 {
		t.Errorf("Expected default poll interval 60, got %d", cfg.API.PollIntervalSec)
	}
	if cfg.GraceWindow() != 5*time.Minute {
		t.Errorf("Expected default grace window 5m, got %s", cfg.GraceWindow())
	}
	if !cfg.Session.BonusRatio.Equal(decimal.NewFromFloat(0.20)) {
		t.Errorf("Expected default bonus ratio 0.20, got %s", cfg.Session.BonusRatio)
	}
	if cfg.Session.CashCeiling != 1_000_000_000 {
		t.Errorf("Expected default cash ceiling 1e9, got %d", cfg.Session.CashCeiling)
	}
	if cfg.Session.AssetValueCeiling != 10_000_000_000 {
		t.Errorf("Expected default asset ceiling 1e10, got %d", cfg.Session.AssetValueCeiling)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("FANTASY_API_TOKEN", "secret-token")
	t.Setenv("FANTASY_LEAGUE_ID", "777")

	cfg, err := LoadConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.API.Token != "secret-token" {
		t.Errorf("Token override missing, got %q", cfg.API.Token)
	}
	if cfg.API.LeagueID != 777 {
		t.Errorf("League override missing, got %d", cfg.API.LeagueID)
	}
}

func TestLoadConfig_RejectsBadBaseURL(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
api:
  base_url: "ftp://nope"
  league_id: 1
`))
	if err == nil {
		t.Fatal("Expected validation error for base URL")
	}
}

func TestLoadConfig_RejectsMissingLeague(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
api:
  base_url: "https://api.example.com"
`))
	if err == nil {
		t.Fatal("Expected validation error for missing league id")
	}
}

func TestLoadConfig_GraceWindowMustExceedPollInterval(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
api:
  base_url: "https://api.example.com"
  league_id: 1
  poll_interval_sec: 600
session:
  grace_window_min: 5
`))
	if err == nil {
		t.Fatal("Expected validation error: grace window <= poll interval")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !errors.Is(err, domain.ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}
