package cache

import (
	"context"
	"time"

	"github.com/markpostal/kiln-watch/internal/errors"
	"github.com/markpostal/kiln-watch/internal/logger"
	"github.com/markpostal/kiln-watch/internal/record"
)

const (
	keyPrefix = "kilnwatch:"
	keySuffix = ":records"
	// ttlFactor publish intervals without a write and the key expires
	ttlFactor = 5
)

// Sink persists a snapshot somewhere other processes can read it.
type Sink interface {
	SaveRecords(ctx context.Context, key string, series []record.Series, ttl time.Duration) error
}

// Source produces the current snapshot, normally Store.SnapshotAll.
type Source func() []record.Series

// Key names the snapshot of one store instance.
func Key(storeID string) string {
	return keyPrefix + storeID + keySuffix
}

// Publisher periodically copies the snapshot of a store into a Sink.
type Publisher struct {
	sink     Sink
	source   Source
	key      string
	interval time.Duration
	log      logger.Logger
}

func NewPublisher(sink Sink, source Source, storeID string, interval time.Duration, log logger.Logger) (*Publisher, error) {
	errFactory := errors.New()

	if sink == nil || source == nil {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "Publisher needs a sink and a source")
	}
	if interval <= 0 {
		return nil, errFactory.WithData(errors.ErrInvalidInterval, interval)
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Publisher{
		sink:     sink,
		source:   source,
		key:      Key(storeID),
		interval: interval,
		log:      log,
	}, nil
}

// Key returns the key the publisher writes to.
func (p *Publisher) Key() string {
	return p.key
}

// Publish writes one snapshot.
func (p *Publisher) Publish(ctx context.Context) error {
	errFactory := errors.New()

	series := p.source()
	if err := p.sink.SaveRecords(ctx, p.key, series, ttlFactor*p.interval); err != nil {
		return errFactory.Wrap(errors.ErrPublish, err)
	}

	p.log.Debug().Str("key", p.key).Int("records", len(series)).Msg("Published snapshot")
	return nil
}

// Run publishes immediately and then every interval until ctx is done.
// Failed writes are logged and retried on the next tick.
func (p *Publisher) Run(ctx context.Context) error {
	p.log.Info().Str("key", p.key).Dur("interval", p.interval).Msg("Snapshot publisher started")
	defer p.log.Info().Msg("Snapshot publisher stopped")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.Publish(ctx); err != nil && ctx.Err() == nil {
			p.log.Warn().Err(err).Msg("Failed to publish snapshot")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
