package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	content := `
[server]
name = "Rift-EU1"
id = 4

[database]
dsn = "postgres://game:game@db:5432/rift"
max_open_conns = 50

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Name != "Rift-EU1" || cfg.Server.ID != 4 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Database.DSN != "postgres://game:game@db:5432/rift" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Database.MaxOpenConns != 50 {
		t.Errorf("max open conns = %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Server.StartTime == 0 {
		t.Error("start time not stamped")
	}
}

func TestLoadKeepsDefaultsForUnsetSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte("[server]\nname = \"Rift\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scene.TickRate != 200*time.Millisecond {
		t.Errorf("tick rate = %v", cfg.Scene.TickRate)
	}
	if cfg.Scene.PersistInterval != 30*time.Second {
		t.Errorf("persist interval = %v", cfg.Scene.PersistInterval)
	}
	if cfg.Database.MaxIdleConns != 5 {
		t.Errorf("max idle conns = %d", cfg.Database.MaxIdleConns)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("format = %q", cfg.Logging.Format)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
