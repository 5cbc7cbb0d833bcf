package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "server:\n  port: \"9090\"\ncatalog:\n  path: quizzes.yaml\npoints:\n  correct_reward: 20\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Catalog.Path != "quizzes.yaml" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Points.CorrectReward != 20 {
		t.Fatalf("expected reward 20, got %d", cfg.Points.CorrectReward)
	}
	if cfg.Points.StartingGrant != DefaultStartingGrant || cfg.Persistence.SaveAttempts != DefaultSaveAttempts {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.Redis.Prefix != "quizprog:" || cfg.Log.Mode != "dev" {
		t.Fatalf("expected prefix and log defaults, got %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadHonoursExplicitZeros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "points:\n  starting_grant: 0\n  correct_reward: 0\nredis:\n  catalog_ttl_seconds: 0\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Points.StartingGrant != 0 || cfg.Points.CorrectReward != 0 {
		t.Fatalf("explicit zeros overwritten: %+v", cfg.Points)
	}
	if cfg.Redis.CatalogTTL != 0 || cfg.Redis.Prefix != "quizprog:" {
		t.Fatalf("unexpected redis config %+v", cfg.Redis)
	}
	if cfg.Persistence.SaveAttempts != DefaultSaveAttempts {
		t.Fatalf("expected default save attempts, got %d", cfg.Persistence.SaveAttempts)
	}
}
