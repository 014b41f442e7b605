package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Relay.TickRate != 200*time.Millisecond {
		t.Errorf("TickRate = %s", cfg.Relay.TickRate)
	}
	if cfg.Queue.PortraitPerTick != 1 {
		t.Errorf("PortraitPerTick = %d", cfg.Queue.PortraitPerTick)
	}
	if cfg.Earn.Amount != 10 {
		t.Errorf("Earn.Amount = %d", cfg.Earn.Amount)
	}
	if cfg.Saves.StateFile == "" || cfg.Saves.ViewersFile == "" {
		t.Error("save paths must default")
	}
	if cfg.Server.StartTime == 0 {
		t.Error("StartTime should be stamped at load")
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.toml")
	body := `
[relay]
url = "ws://relay.example:9000/connect"
tick_rate = "50ms"

[earn]
interval = "30s"
amount = 25

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Relay.URL != "ws://relay.example:9000/connect" {
		t.Errorf("URL = %q", cfg.Relay.URL)
	}
	if cfg.Relay.TickRate != 50*time.Millisecond {
		t.Errorf("TickRate = %s", cfg.Relay.TickRate)
	}
	if cfg.Earn.Interval != 30*time.Second || cfg.Earn.Amount != 25 {
		t.Errorf("Earn = %+v", cfg.Earn)
	}
	// untouched sections keep defaults
	if cfg.Relay.MaxMessagesPerTick != 32 {
		t.Errorf("MaxMessagesPerTick = %d", cfg.Relay.MaxMessagesPerTick)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load("no/such/bridge.toml"); err == nil {
		t.Fatal("missing config must fail")
	}
}
