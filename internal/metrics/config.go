package metrics

import (
	"os"
	"path/filepath"
	"time"

	"codeberg.org/mutker/lhmosc/internal/errors"
)

const (
	defaultDirPerm      = 0o755
	defaultDBName       = "history.db"
	defaultBatchSize    = 30
	defaultBatchTimeout = 30 * time.Second
)

type Config struct {
	Enabled      bool          `mapstructure:"enabled"`
	DBPath       string        `mapstructure:"db_path"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		DBPath:       DefaultDBPath(),
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
	}
}

// DefaultDBPath places the database under the user's data directory,
// falling back to the working directory.
func DefaultDBPath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return defaultDBName
		}
		dir = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dir, "lhmosc", defaultDBName)
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.Enabled && c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize < 0 || c.BatchTimeout < 0 {
		return errFactory.WithData(ErrInvalidConfig, "batch settings must not be negative")
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
