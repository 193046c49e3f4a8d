package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/utils"
)

// Config holds the runtime settings that are awkward as single env vars
// (lists, nested blocks). Env vars still win for scalar overrides.
type Config struct {
	Server ServerConfig `yaml:"server"`
	CORS   CORSConfig   `yaml:"cors"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"`
}

type CORSConfig struct {
	AllowOrigins     []string `yaml:"allow_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{Port: 8080, Mode: "development"},
		CORS: CORSConfig{
			AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			AllowCredentials: true,
		},
	}
}

// Load reads CONFIG_PATH if set, then applies env overrides on top.
func Load(log *logger.Logger) (Config, error) {
	cfg := defaults()

	path := utils.GetEnv("CONFIG_PATH", "", log)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}

	cfg.Server.Port = utils.GetEnvAsInt("SERVER_PORT", cfg.Server.Port, log)
	cfg.Server.Mode = utils.GetEnv("LOG_MODE", cfg.Server.Mode, log)
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return cfg, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	return cfg, nil
}
