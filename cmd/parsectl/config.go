package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/edgeparse/internal/logging"
	"github.com/danmuck/edgeparse/internal/server"
)

type serviceConfig struct {
	Server        server.Config
	LimitsPath    string
	LogLevel      string
	StatsInterval time.Duration
}

func defaultServiceConfig() serviceConfig {
	return serviceConfig{
		Server:        server.DefaultConfig(),
		LogLevel:      "info",
		StatsInterval: time.Minute,
	}
}

type fileConfig struct {
	Name          string   `toml:"name"`
	Addr          string   `toml:"addr"`
	CorsOrigins   []string `toml:"cors_origins"`
	LimitsPath    string   `toml:"limits_path"`
	LogLevel      string   `toml:"log_level"`
	MaxBodyBytes  int64    `toml:"max_body_bytes"`
	StatsInterval string   `toml:"stats_interval"`
	AuthToken     string   `toml:"auth_token"`
	TLSCertFile   string   `toml:"tls_cert_file"`
	TLSKeyFile    string   `toml:"tls_key_file"`
}

func loadServiceConfig(path string) (serviceConfig, error) {
	cfg := defaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return serviceConfig{}, fmt.Errorf("load parsectl config: %w", err)
	}

	if meta.IsDefined("name") {
		if name := strings.TrimSpace(raw.Name); name != "" {
			cfg.Server.Name = name
		}
	}

	if meta.IsDefined("addr") {
		if addr := strings.TrimSpace(raw.Addr); addr != "" {
			cfg.Server.Addr = addr
		}
	}

	if meta.IsDefined("cors_origins") {
		cfg.Server.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}

	if meta.IsDefined("limits_path") {
		cfg.LimitsPath = strings.TrimSpace(raw.LimitsPath)
	}

	if meta.IsDefined("log_level") {
		level := strings.TrimSpace(raw.LogLevel)
		if _, ok := logging.ParseLevel(level); !ok {
			return serviceConfig{}, fmt.Errorf("parse log_level: unknown level %q", raw.LogLevel)
		}
		cfg.LogLevel = level
	}

	if meta.IsDefined("max_body_bytes") {
		if raw.MaxBodyBytes <= 0 {
			return serviceConfig{}, fmt.Errorf("max_body_bytes must be positive, got %d", raw.MaxBodyBytes)
		}
		cfg.Server.MaxBodyBytes = raw.MaxBodyBytes
	}

	if meta.IsDefined("auth_token") {
		cfg.Server.AuthToken = strings.TrimSpace(raw.AuthToken)
	}

	if meta.IsDefined("tls_cert_file") {
		cfg.Server.TLS.CertFile = strings.TrimSpace(raw.TLSCertFile)
	}

	if meta.IsDefined("tls_key_file") {
		cfg.Server.TLS.KeyFile = strings.TrimSpace(raw.TLSKeyFile)
	}

	if meta.IsDefined("stats_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.StatsInterval))
		if err != nil {
			return serviceConfig{}, fmt.Errorf("parse stats_interval: %w", err)
		}
		cfg.StatsInterval = d
	}

	if err := cfg.Server.Validate(); err != nil {
		return serviceConfig{}, err
	}
	return cfg, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
