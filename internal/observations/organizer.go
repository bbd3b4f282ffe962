package observations

import (
	"context"
	"time"

	"github.com/markpostal/kiln-watch/internal/archive"
	"github.com/markpostal/kiln-watch/internal/report"
)

// organize drains the ingestion queue into the records until the store
// stops. It is the only writer of records and of new map keys.
func (s *Store) organize(ctx context.Context) error {
	for ctx.Err() == nil {
		r, ok := s.queue.Dequeue(ctx, s.cfg.QueueTimeout)
		s.telemetry.QueueDepth(s.queue.Len())
		if ok {
			s.apply(ctx, r)
		}

		if s.cfg.PacingDelay > 0 {
			pause := time.NewTimer(s.cfg.PacingDelay)
			select {
			case <-ctx.Done():
			case <-pause.C:
			}
			pause.Stop()
		}
	}

	return nil
}

func (s *Store) apply(ctx context.Context, r report.Report) {
	s.recordFor(r).Update(r.Temperature)
	s.telemetry.ReportApplied()

	// the last report before Stop is still archived
	err := s.archive.Record(context.WithoutCancel(ctx), &archive.Entry{
		ReceivedAt:  time.Now(),
		StoreID:     s.ID(),
		SensorIndex: r.SensorIndex,
		SensorName:  r.SensorName,
		Temperature: r.Temperature,
	})
	if err != nil {
		s.log.Warn().Err(err).Int("sensor_index", r.SensorIndex).Msg("Failed to archive report")
	}
}
