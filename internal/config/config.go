package config

import (
	"errors"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "memoria.db"
)

type Ntfy struct {
	Server string `toml:"server"`
	Topic  string `toml:"topic"`
}

type Config struct {
	Addr      string `toml:"addr"`
	DBPath    string `toml:"db_path"`
	WebDir    string `toml:"web_dir"`
	AuthToken string `toml:"auth_token"`
	ServerURL string `toml:"server_url"`
	Ntfy      Ntfy   `toml:"ntfy"`
}

// LoadOrCreate reads the config at path, writing one with defaults first if
// none exists yet.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = "http://127.0.0.1:8000"
	}
	cfg.Ntfy.Server = strings.TrimRight(cfg.Ntfy.Server, "/")
	if cfg.Ntfy.Server == "" {
		cfg.Ntfy.Server = "https://ntfy.sh"
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		Addr:      ":8000",
		DBPath:    DefaultDBName,
		ServerURL: "http://127.0.0.1:8000",
		Ntfy: Ntfy{
			Server: "https://ntfy.sh",
		},
	}
}
