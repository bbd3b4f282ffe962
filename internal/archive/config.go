package archive

import (
	"time"

	"github.com/markpostal/kiln-watch/internal/errors"
)

const (
	// File system permissions and paths
	defaultDirPerm      = 0o755
	defaultDBPath       = "/var/lib/kilnwatch/archive.db"
	defaultBatchSize    = 50
	defaultBatchTimeout = 30 * time.Second
)

type Config struct {
	DBPath       string
	BatchSize    int
	BatchTimeout time.Duration
	Enabled      bool
}

func DefaultConfig() Config {
	return Config{
		DBPath:       defaultDBPath,
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
		Enabled:      false, // Disabled by default
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate storage settings if the archive is enabled
	if !c.Enabled {
		return nil
	}
	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize < 1 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			BatchSize int
		}{BatchSize: c.BatchSize})
	}
	return nil
}
