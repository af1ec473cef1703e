package config

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "config.yaml"

// Load reads, resolves and validates the configuration file at configPath.
// Normalization warnings are logged; any error is fatal and no SiteConfig is returned.
func Load(configPath string) (*SiteConfig, error) {
	loadEnvFiles(filepath.Dir(configPath))

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", configPath).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read configuration file").
			Fatal().WithContext("path", configPath).Build()
	}

	cfg, res, err := Parse(data)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		slog.Warn("Configuration normalized", slog.String("detail", w))
	}

	dir, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "resolve configuration directory").Fatal().Build()
	}
	cfg.Dir = dir
	return cfg, nil
}

// Parse decodes raw configuration bytes and runs the full resolution pipeline:
// environment expansion, strict decoding, preset/plugin resolution, normalization,
// defaults and validation.
func Parse(data []byte) (*SiteConfig, *NormalizationResult, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg SiteConfig
	if err := decodeStrict([]byte(expanded), &cfg); err != nil {
		return nil, nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse configuration").Fatal().Build()
	}

	if err := resolveExtensions(&cfg); err != nil {
		return nil, nil, err
	}
	res, err := NormalizeConfig(&cfg)
	if err != nil {
		return nil, nil, err
	}
	applyDefaults(&cfg)
	if err := ValidateConfig(&cfg); err != nil {
		return nil, nil, err
	}
	return &cfg, res, nil
}

// decodeStrict decodes YAML rejecting keys that do not map onto out.
func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// decodeNode strictly decodes a captured options node. An absent node leaves out untouched.
func decodeNode(node *yaml.Node, out any) error {
	if node == nil || node.Kind == 0 {
		return nil
	}
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	return decodeStrict(raw, out)
}

// loadEnvFiles loads .env and .env.local next to the configuration file.
// Existing process environment variables are not overwritten.
func loadEnvFiles(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load environment file", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("Loaded environment variables", slog.String("path", p))
	}
}
