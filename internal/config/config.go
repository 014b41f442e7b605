package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Relay   RelayConfig   `toml:"relay"`
	Queue   QueueConfig   `toml:"queue"`
	Earn    EarnConfig    `toml:"earn"`
	Saves   SavesConfig   `toml:"saves"`
	Logging LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	Version   string `toml:"version"`
	GameKey   string `toml:"game_key"` // relay authentication key sent in the hello
	StartTime int64  // set at boot, not from config
}

type RelayConfig struct {
	URL                string        `toml:"url"`
	TickRate           time.Duration `toml:"tick_rate"`
	InQueueSize        int           `toml:"in_queue_size"`
	OutQueueSize       int           `toml:"out_queue_size"`
	MaxMessagesPerTick int           `toml:"max_messages_per_tick"`
	WriteTimeout       time.Duration `toml:"write_timeout"`
	ReconnectMin       time.Duration `toml:"reconnect_min"`
	ReconnectMax       time.Duration `toml:"reconnect_max"`
}

// QueueConfig sets per-kind soft budgets for the deferred operation queue.
// Zero means unbounded for that kind.
type QueueConfig struct {
	PortraitPerTick  int `toml:"portrait_per_tick"`
	SelectPerTick    int `toml:"select_per_tick"`
	SocialPerTick    int `toml:"social_per_tick"`
	GearPerTick      int `toml:"gear_per_tick"`
	InventoryPerTick int `toml:"inventory_per_tick"`
	RenderMapPerTick int `toml:"render_map_per_tick"`
}

type EarnConfig struct {
	Interval time.Duration `toml:"interval"`
	Amount   int           `toml:"amount"`
}

type SavesConfig struct {
	StateFile   string `toml:"state_file"`
	ViewersFile string `toml:"viewers_file"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:    "puppetbridge",
			Version: "0.3.0",
		},
		Relay: RelayConfig{
			URL:                "ws://localhost:8080/connect",
			TickRate:           200 * time.Millisecond,
			InQueueSize:        128,
			OutQueueSize:       256,
			MaxMessagesPerTick: 32,
			WriteTimeout:       10 * time.Second,
			ReconnectMin:       time.Second,
			ReconnectMax:       30 * time.Second,
		},
		Queue: QueueConfig{
			PortraitPerTick:  1,
			SelectPerTick:    1,
			SocialPerTick:    1,
			GearPerTick:      2,
			InventoryPerTick: 2,
			RenderMapPerTick: 1,
		},
		Earn: EarnConfig{
			Interval: 2 * time.Minute,
			Amount:   10,
		},
		Saves: SavesConfig{
			StateFile:   "saves/state.json",
			ViewersFile: "saves/viewers.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
