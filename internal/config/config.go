package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// MaxRegistryCapacity bounds the slot table allocated up front by the handle registry.
const MaxRegistryCapacity = 1 << 20

type Limits struct {
	JSON      JSONLimits      `toml:"json"`
	Multipart MultipartLimits `toml:"multipart"`
	Headers   HeaderLimits    `toml:"headers"`
	Registry  RegistryLimits  `toml:"registry"`
}

type JSONLimits struct {
	MaxDepth     int `toml:"max_depth"`
	MaxNumberLen int `toml:"max_number_len"`
}

type MultipartLimits struct {
	MaxParts          int `toml:"max_parts"`
	MaxBoundaryLen    int `toml:"max_boundary_len"`
	BoundaryLookahead int `toml:"boundary_lookahead"`
	MaxParamLen       int `toml:"max_param_len"`
	MaxContentTypeLen int `toml:"max_content_type_len"`
}

type HeaderLimits struct {
	MaxNameLen int `toml:"max_name_len"`
}

type RegistryLimits struct {
	Capacity int `toml:"capacity"`
}

func DefaultLimits() Limits {
	return fromPackages()
}

// LoadLimits reads a limits file over DefaultLimits. Keys missing from the file keep their
// defaults.
func LoadLimits(path string) (Limits, error) {
	cfg := DefaultLimits()
	if err := loadToml(path, &cfg); err != nil {
		return Limits{}, err
	}
	if err := ValidateLimits(cfg); err != nil {
		return Limits{}, err
	}
	return cfg, nil
}

// ParseLimits is LoadLimits for in-memory TOML.
func ParseLimits(data []byte) (Limits, error) {
	cfg := DefaultLimits()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Limits{}, fmt.Errorf("config parse failed: %w", err)
	}
	if err := ValidateLimits(cfg); err != nil {
		return Limits{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateLimits(cfg Limits) error {
	checks := []struct {
		key string
		v   int
	}{
		{"json.max_depth", cfg.JSON.MaxDepth},
		{"json.max_number_len", cfg.JSON.MaxNumberLen},
		{"multipart.max_parts", cfg.Multipart.MaxParts},
		{"multipart.max_boundary_len", cfg.Multipart.MaxBoundaryLen},
		{"multipart.boundary_lookahead", cfg.Multipart.BoundaryLookahead},
		{"multipart.max_param_len", cfg.Multipart.MaxParamLen},
		{"multipart.max_content_type_len", cfg.Multipart.MaxContentTypeLen},
		{"headers.max_name_len", cfg.Headers.MaxNameLen},
		{"registry.capacity", cfg.Registry.Capacity},
	}
	for _, c := range checks {
		if c.v <= 0 {
			return fmt.Errorf("limits: %s must be positive, got %d", c.key, c.v)
		}
	}
	if cfg.Registry.Capacity > MaxRegistryCapacity {
		return fmt.Errorf("limits: registry.capacity %d exceeds %d", cfg.Registry.Capacity, MaxRegistryCapacity)
	}
	return nil
}
