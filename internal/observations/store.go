// Package observations owns the per-sensor records and the background tasks
// that feed them: the collector (or simulator) pushes reports onto an
// ingestion queue and a single organizer drains it into the records.
package observations

import (
	"context"
	"math/rand"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/markpostal/kiln-watch/internal/archive"
	"github.com/markpostal/kiln-watch/internal/errors"
	"github.com/markpostal/kiln-watch/internal/logger"
	"github.com/markpostal/kiln-watch/internal/queue"
	"github.com/markpostal/kiln-watch/internal/record"
	"github.com/markpostal/kiln-watch/internal/report"
	"github.com/markpostal/kiln-watch/internal/telemetry"
)

// ListenFunc opens the datagram transport the collector reads from.
type ListenFunc func(ctx context.Context, port int) (net.PacketConn, error)

// Store is the observation registry: one Record per sensor index, the
// ingestion queue, and the lifecycle of the tasks that use them. Construct
// one per process and pass it to whoever needs it.
type Store struct {
	id  uuid.UUID
	cfg Config

	log       logger.Logger
	telemetry telemetry.Recorder
	archive   archive.Archiver
	listen    ListenFunc
	randSrc   rand.Source

	queue *queue.Queue[report.Report]

	mu      sync.RWMutex
	records map[int]*record.Record

	ctx        context.Context
	cancel     context.CancelFunc
	organizing atomic.Bool
}

type Option func(*Store)

func WithLogger(log logger.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

func WithTelemetry(rec telemetry.Recorder) Option {
	return func(s *Store) {
		s.telemetry = rec
	}
}

func WithArchive(a archive.Archiver) Option {
	return func(s *Store) {
		s.archive = a
	}
}

// WithListener replaces the UDP transport, mainly for tests.
func WithListener(listen ListenFunc) Option {
	return func(s *Store) {
		s.listen = listen
	}
}

// WithRandSource seeds the simulator.
func WithRandSource(src rand.Source) Option {
	return func(s *Store) {
		s.randSrc = src
	}
}

// NewStore creates a running, empty Store.
func NewStore(cfg Config, opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		id:        uuid.New(),
		cfg:       cfg.withDefaults(),
		log:       logger.With("observations"),
		telemetry: telemetry.Nop(),
		archive:   archive.Nop(),
		listen:    listenUDP,
		queue:     queue.New[report.Report](),
		records:   make(map[int]*record.Record),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.randSrc == nil {
		s.randSrc = rand.NewSource(time.Now().UnixNano())
	}

	return s
}

// ID identifies this store instance in logs, the archive, and the cache.
func (s *Store) ID() string {
	return s.id.String()
}

// Running reports whether Stop has not been called yet.
func (s *Store) Running() bool {
	return s.ctx.Err() == nil
}

// Stop signals every background task to exit at its next loop check.
// Callers join the returned Handles to wait for them.
func (s *Store) Stop() {
	s.cancel()
}

// StartCollecting spawns the collector on the configured broadcast port.
func (s *Store) StartCollecting() *Handle {
	return s.spawn("collect", s.collect)
}

// StartSimulating spawns a simulator for deviceCount synthetic sensors in
// place of the collector.
func (s *Store) StartSimulating(deviceCount int) *Handle {
	if deviceCount < 1 {
		return finishedHandle("simulate", errors.New().WithData(errors.ErrInvalidArgument, struct {
			DeviceCount int
		}{DeviceCount: deviceCount}))
	}
	return s.spawn("simulate", func(ctx context.Context) error {
		return s.simulate(ctx, deviceCount)
	})
}

// StartOrganizing spawns the organizer. Only one may run per Store.
func (s *Store) StartOrganizing() *Handle {
	if !s.organizing.CompareAndSwap(false, true) {
		return finishedHandle("organize", errors.New().New(errors.ErrTaskAlreadyStart))
	}
	return s.spawn("organize", s.organize)
}

func (s *Store) spawn(name string, task func(ctx context.Context) error) *Handle {
	if !s.Running() {
		return finishedHandle(name, errors.New().New(errors.ErrStoreStopped))
	}

	h := newHandle(name)
	go func() {
		defer close(h.done)
		s.log.Info().Str("task", name).Str("store_id", s.ID()).Msg("Starting task")
		h.err = task(s.ctx)
		s.log.Info().Str("task", name).Msg("Exiting task")
	}()
	return h
}

// SnapshotAll returns every record's series ordered by sensor index.
func (s *Store) SnapshotAll() []record.Series {
	s.mu.RLock()
	indices := make([]int, 0, len(s.records))
	for index := range s.records {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	records := make([]*record.Record, len(indices))
	for i, index := range indices {
		records[i] = s.records[index]
	}
	s.mu.RUnlock()

	out := make([]record.Series, len(records))
	for i, r := range records {
		out[i] = r.Snapshot()
	}
	return out
}

// Record returns the record for a sensor index, if one exists.
func (s *Store) Record(index int) (*record.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[index]
	return r, ok
}

// QueueLen returns the number of reports waiting for the organizer.
func (s *Store) QueueLen() int {
	return s.queue.Len()
}

func (s *Store) enqueue(r report.Report, source string) {
	s.queue.Enqueue(r)
	s.telemetry.ReportReceived(source)
}

// recordFor returns the record for r's sensor, creating it on first sight.
func (s *Store) recordFor(r report.Report) *record.Record {
	s.mu.RLock()
	rec, exists := s.records[r.SensorIndex]
	s.mu.RUnlock()
	if exists {
		return rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, exists = s.records[r.SensorIndex]; exists {
		return rec
	}
	rec = record.New(r.SensorIndex, r.SensorName, s.cfg.Record)
	s.records[r.SensorIndex] = rec
	s.telemetry.Records(len(s.records))

	s.log.Info().
		Int("sensor_index", r.SensorIndex).
		Str("sensor_name", r.SensorName).
		Msg("New sensor record")

	return rec
}
