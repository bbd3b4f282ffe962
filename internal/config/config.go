package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/markpostal/kiln-watch/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPrefix           = "KILNWATCH"
	DefaultConfigName          = "kilnwatch"
	DefaultHTTPPort            = 4000
	DefaultBroadcastPort       = 23464
	DefaultDevices             = 3
	DefaultSimulateInterval    = 10 * time.Second
	DefaultHours               = 12
	DefaultRampInterval        = time.Hour
	DefaultQueueTimeout        = 5 * time.Second
	DefaultLogLevel            = "info"
	DefaultArchiveDB           = "/var/lib/kilnwatch/archive.db"
	DefaultArchiveBatchSize    = 50
	DefaultArchiveBatchTimeout = 30 * time.Second
	DefaultPublishInterval     = 10 * time.Second
)

// Config is the fully resolved process configuration.
type Config struct {
	HTTPPort            int           `mapstructure:"http_port"`
	BroadcastPort       int           `mapstructure:"broadcast_port"`
	Simulate            bool          `mapstructure:"simulate"`
	Devices             int           `mapstructure:"devices"`
	SimulateInterval    time.Duration `mapstructure:"simulate_interval"`
	Hours               int           `mapstructure:"hours"`
	RampInterval        time.Duration `mapstructure:"ramp_interval"`
	QueueTimeout        time.Duration `mapstructure:"queue_timeout"`
	PacingDelay         time.Duration `mapstructure:"pacing_delay"`
	LogLevel            string        `mapstructure:"log_level"`
	Archive             bool          `mapstructure:"archive"`
	ArchiveDB           string        `mapstructure:"archive_db"`
	ArchiveBatchSize    int           `mapstructure:"archive_batch_size"`
	ArchiveBatchTimeout time.Duration `mapstructure:"archive_batch_timeout"`
	RedisAddr           string        `mapstructure:"redis_addr"`
	PublishInterval     time.Duration `mapstructure:"publish_interval"`
}

var defaults = map[string]any{
	"http_port":             DefaultHTTPPort,
	"broadcast_port":        DefaultBroadcastPort,
	"simulate":              false,
	"devices":               DefaultDevices,
	"simulate_interval":     DefaultSimulateInterval,
	"hours":                 DefaultHours,
	"ramp_interval":         DefaultRampInterval,
	"queue_timeout":         DefaultQueueTimeout,
	"pacing_delay":          time.Duration(0),
	"log_level":             DefaultLogLevel,
	"archive":               false,
	"archive_db":            DefaultArchiveDB,
	"archive_batch_size":    DefaultArchiveBatchSize,
	"archive_batch_timeout": DefaultArchiveBatchTimeout,
	"redis_addr":            "",
	"publish_interval":      DefaultPublishInterval,
}

// Load resolves the configuration from flags, environment, config file and
// defaults, in that order of precedence.
func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}
	if !o.argsSet {
		o.args = os.Args[1:]
	}
	if o.configPath == "" {
		o.configPath = os.Getenv(o.envPrefix + "_CONFIG")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	fs := newFlagSet()
	if err := fs.Parse(o.args); err != nil {
		return nil, errFactory.Wrap(errors.ErrParseFlags, err)
	}
	if err := bindFlags(v, fs); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, o.configPath); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	// --debug wins over any configured level
	if debug, _ := fs.GetBool("debug"); debug {
		cfg.LogLevel = LogLevelDebug.String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(DefaultConfigName, pflag.ContinueOnError)

	fs.IntP("http-port", "p", DefaultHTTPPort, "Port of the HTTP server")
	fs.IntP("broadcast-port", "b", DefaultBroadcastPort, "UDP port sensor reports are broadcast on")
	fs.BoolP("simulate", "s", false, "Generate synthetic reports instead of listening")
	fs.Int("devices", DefaultDevices, "Number of simulated sensors")
	fs.Duration("simulate-interval", DefaultSimulateInterval, "Interval between simulated reports")
	fs.Int("hours", DefaultHours, "Hours of history kept per sensor")
	fs.Duration("ramp-interval", DefaultRampInterval, "Window used to compute ramp rates")
	fs.Duration("queue-timeout", DefaultQueueTimeout, "How long the organizer waits on an empty queue")
	fs.Duration("pacing-delay", 0, "Delay after each applied report (0 disables)")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.BoolP("debug", "d", false, "Enable debug logging")
	fs.Bool("archive", false, "Append applied reports to the SQLite archive")
	fs.String("archive-db", DefaultArchiveDB, "Path of the SQLite archive")
	fs.String("redis-addr", "", "Redis address for snapshot publishing (empty disables)")

	return fs
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	errFactory := errors.New()

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Name == "debug" {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = errFactory.Wrap(errors.ErrBindFlags, err)
		}
	})

	return bindErr
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
		return nil
	}

	v.SetConfigName(DefaultConfigName)
	v.SetConfigType("toml")
	v.AddConfigPath("/etc/kilnwatch")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	return nil
}

// Validate checks ranges and enumerations of a loaded configuration.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(strings.ToLower(c.LogLevel)).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	for name, port := range map[string]int{
		"http_port":      c.HTTPPort,
		"broadcast_port": c.BroadcastPort,
	} {
		if port < 1 || port > 65535 {
			return errFactory.WithData(errors.ErrInvalidPort, fmt.Sprintf("%s=%d", name, port))
		}
	}

	if c.Devices < 1 {
		return errFactory.WithData(errors.ErrInvalidConfig, fmt.Sprintf("devices=%d", c.Devices))
	}
	if c.Hours < 1 {
		return errFactory.WithData(errors.ErrInvalidConfig, fmt.Sprintf("hours=%d", c.Hours))
	}
	if c.ArchiveBatchSize < 1 {
		return errFactory.WithData(errors.ErrInvalidConfig, fmt.Sprintf("archive_batch_size=%d", c.ArchiveBatchSize))
	}

	for name, d := range map[string]time.Duration{
		"simulate_interval": c.SimulateInterval,
		"ramp_interval":     c.RampInterval,
		"queue_timeout":     c.QueueTimeout,
		"publish_interval":  c.PublishInterval,
	} {
		if d <= 0 {
			return errFactory.WithData(errors.ErrInvalidInterval, fmt.Sprintf("%s=%s", name, d))
		}
	}
	if c.PacingDelay < 0 || c.ArchiveBatchTimeout < 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, "negative delay")
	}

	return nil
}
