package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dedene/narrowlink-cli/internal/cache"
	"github.com/dedene/narrowlink-cli/internal/config"
	"github.com/dedene/narrowlink-cli/internal/outfmt"
	"github.com/dedene/narrowlink-cli/internal/ui"
)

// ConfigCmd groups configuration subcommands.
type ConfigCmd struct {
	Path       ConfigPathCmd       `cmd:"" help:"Show config and cache file paths"`
	List       ConfigListCmd       `cmd:"" help:"List all config values"`
	Get        ConfigGetCmd        `cmd:"" help:"Get a config value"`
	Set        ConfigSetCmd        `cmd:"" help:"Set a config value"`
	Unset      ConfigUnsetCmd      `cmd:"" help:"Unset a config value"`
	ClearCache ConfigClearCacheCmd `cmd:"" name:"clear-cache" help:"Delete the cached channel list"`
}

// ConfigPathCmd prints the config file path.
type ConfigPathCmd struct{}

// Run prints the config and cache paths.
func (c *ConfigPathCmd) Run(ctx context.Context) error {
	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	cachePath, err := config.CachePath()
	if err != nil {
		return err
	}

	paths := map[string]string{"config": cfgPath, "cache": cachePath}

	return outfmt.Emit(ctx, os.Stdout, paths, func(w io.Writer) error {
		return outfmt.Lines(w, cfgPath, cachePath)
	})
}

// ConfigListCmd lists all config values.
type ConfigListCmd struct{}

// Run lists all config keys with their values.
func (c *ConfigListCmd) Run(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		cfg = &config.Config{}
	}

	return outfmt.Emit(ctx, os.Stdout, cfg, func(w io.Writer) error {
		for _, key := range config.KnownKeys() {
			val, ok := cfg.Get(key)
			if !ok {
				val = "(unset)"
			}

			if _, err := fmt.Fprintf(w, "%s = %s\n", key, val); err != nil {
				return err
			}
		}

		return nil
	})
}

// ConfigGetCmd gets a single config value.
type ConfigGetCmd struct {
	Key string `arg:"" help:"Config key to get"`
}

// Run prints the value for the given key.
func (c *ConfigGetCmd) Run(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		cfg = &config.Config{}
	}

	val, ok := cfg.Get(c.Key)
	if !ok {
		val = "(unset)"
	}

	fmt.Fprintln(os.Stdout, val)

	return nil
}

// ConfigSetCmd sets a config value.
type ConfigSetCmd struct {
	Key   string `arg:"" help:"Config key"`
	Value string `arg:"" help:"Config value"`
}

// Run sets a config key to a value, persisting to disk.
func (c *ConfigSetCmd) Run(ctx context.Context) error {
	return updateConfig(func(cfg *config.Config) error {
		if err := cfg.Set(c.Key, c.Value); err != nil {
			return err
		}

		stored, _ := cfg.Get(c.Key)
		status(ctx, ui.RoleSuccess, "Set %s = %s", c.Key, stored)

		return nil
	})
}

// ConfigUnsetCmd removes a config value.
type ConfigUnsetCmd struct {
	Key string `arg:"" help:"Config key to unset"`
}

// Run unsets a config key, persisting to disk.
func (c *ConfigUnsetCmd) Run(ctx context.Context) error {
	return updateConfig(func(cfg *config.Config) error {
		if err := cfg.Unset(c.Key); err != nil {
			return err
		}

		status(ctx, ui.RoleSuccess, "Unset %s", c.Key)

		return nil
	})
}

// updateConfig loads the config file, applies fn and saves the result.
func updateConfig(fn func(*config.Config) error) error {
	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if err := fn(cfg); err != nil {
		return err
	}

	return config.Save(cfgPath, cfg)
}

// ConfigClearCacheCmd deletes the channel cache.
type ConfigClearCacheCmd struct{}

// Run removes the cache file.
func (c *ConfigClearCacheCmd) Run(ctx context.Context) error {
	path, err := config.CachePath()
	if err != nil {
		return err
	}

	if err := cache.Clear(path); err != nil {
		return err
	}

	status(ctx, ui.RoleSuccess, "Removed %s", path)

	return nil
}
