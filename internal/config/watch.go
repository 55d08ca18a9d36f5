package config

import (
	"context"

	"codeberg.org/mutker/lhmosc/internal/errors"
	"codeberg.org/mutker/lhmosc/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// Watch calls callback with the reloaded configuration each time the
// config file changes. Invalid edits are logged and skipped. Callbacks
// stop once ctx is done.
func (c *Config) Watch(ctx context.Context, callback func(*Config)) error {
	errFactory := errors.New()

	if c.Path() == "" {
		return errFactory.WithMessage(errors.ErrReadConfig, "no config file to watch")
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		if ctx.Err() != nil {
			return
		}

		cfg, err := decode(c.v)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			logger.Warn().Err(err).Str("file", e.Name).Msg("Ignoring invalid configuration change")
			return
		}

		logger.Info().Str("file", e.Name).Msg("Configuration reloaded")
		callback(cfg)
	})
	c.v.WatchConfig()

	return nil
}
