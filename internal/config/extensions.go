package config

import (
	"gopkg.in/yaml.v3"

	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
)

type extensionResolver func(cfg *SiteConfig, options *yaml.Node) error

var presetResolvers = map[string]extensionResolver{
	"classic":                    resolveClassic,
	"@docusaurus/preset-classic": resolveClassic,
}

var pluginResolvers = map[string]extensionResolver{
	"pwa":                    resolvePWA,
	"@docusaurus/plugin-pwa": resolvePWA,
}

// resolveExtensions decodes every preset and plugin descriptor into its typed options.
// Unknown names, duplicates and option shape mismatches are fatal.
func resolveExtensions(cfg *SiteConfig) error {
	for i := range cfg.Presets {
		p := &cfg.Presets[i]
		resolve, ok := presetResolvers[p.Name]
		if !ok {
			return ferrors.ConfigError("unknown preset").WithContext("preset", p.Name).Build()
		}
		if err := resolve(cfg, &p.Options); err != nil {
			return wrapOptionsError(err, "preset", p.Name)
		}
	}
	for i := range cfg.Plugins {
		p := &cfg.Plugins[i]
		resolve, ok := pluginResolvers[p.Name]
		if !ok {
			return ferrors.ConfigError("unknown plugin").WithContext("plugin", p.Name).Build()
		}
		if err := resolve(cfg, &p.Options); err != nil {
			return wrapOptionsError(err, "plugin", p.Name)
		}
	}
	return nil
}

func wrapOptionsError(err error, kind, name string) error {
	if ferrors.IsClassified(err) {
		return err
	}
	return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid "+kind+" options").
		Fatal().WithContext(kind, name).Build()
}

func resolveClassic(cfg *SiteConfig, options *yaml.Node) error {
	if cfg.Classic != nil {
		return ferrors.ConfigError("classic preset declared more than once").Build()
	}
	opts := &ClassicOptions{}
	if err := decodeNode(options, opts); err != nil {
		return err
	}
	cfg.Classic = opts
	return nil
}

func resolvePWA(cfg *SiteConfig, options *yaml.Node) error {
	if cfg.PWA != nil {
		return ferrors.ConfigError("pwa plugin declared more than once").Build()
	}
	opts := &PWAOptions{}
	if err := decodeNode(options, opts); err != nil {
		return err
	}
	cfg.PWA = opts
	return nil
}
