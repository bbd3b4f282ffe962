package observations

import (
	"time"

	"github.com/markpostal/kiln-watch/internal/record"
)

const (
	DefaultBroadcastPort    = 23464
	DefaultQueueTimeout     = 5 * time.Second
	DefaultSimulateInterval = 10 * time.Second
	DefaultPollInterval     = time.Second

	// maxDatagramSize is the receive buffer for one report datagram
	maxDatagramSize = 1024
)

type Config struct {
	// BroadcastPort is the UDP port the collector binds on all interfaces
	BroadcastPort int
	// QueueTimeout bounds each organizer wait on the ingestion queue
	QueueTimeout time.Duration
	// PacingDelay is an optional pause between organizer iterations
	PacingDelay time.Duration
	// SimulateInterval is the simulator tick
	SimulateInterval time.Duration
	// PollInterval bounds each collector receive so it can observe Stop
	PollInterval time.Duration
	Record       record.Config
}

func DefaultConfig() Config {
	return Config{
		BroadcastPort:    DefaultBroadcastPort,
		QueueTimeout:     DefaultQueueTimeout,
		SimulateInterval: DefaultSimulateInterval,
		PollInterval:     DefaultPollInterval,
		Record:           record.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BroadcastPort == 0 {
		c.BroadcastPort = def.BroadcastPort
	}
	if c.QueueTimeout <= 0 {
		c.QueueTimeout = def.QueueTimeout
	}
	if c.SimulateInterval <= 0 {
		c.SimulateInterval = def.SimulateInterval
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	return c
}
