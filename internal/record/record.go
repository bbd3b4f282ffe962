// Package record keeps the per-sensor, minute-resolution temperature history
// and derives the display series (Fahrenheit samples and ramp rates) from it.
package record

import (
	"math"
	"sync"
	"time"
)

const (
	DefaultHours        = 12
	DefaultRampInterval = time.Hour

	minutesPerHour = 60
	secondsPerMin  = 60
)

// Clock returns the current wall-clock time.
type Clock func() time.Time

// Config controls the window length and ramp computation of a Record.
type Config struct {
	// Hours of history kept per sensor; the window holds Hours*60 buckets.
	Hours int
	// RampInterval is how far back the ramp rate looks from each sample.
	RampInterval time.Duration
	Clock        Clock
}

// DefaultConfig returns a 12 hour window with a one hour ramp interval.
func DefaultConfig() Config {
	return Config{
		Hours:        DefaultHours,
		RampInterval: DefaultRampInterval,
		Clock:        time.Now,
	}
}

// Bucket is the sum and count of all reports for one sensor in one minute.
// A zero SampleCount marks a minute without reports.
type Bucket struct {
	CumulativeTemperature int
	SampleCount           int
}

// Record is the bounded, gap-filled series of minute buckets for one sensor.
// It is safe for one writer and any number of concurrent readers.
type Record struct {
	index int
	name  string

	maxLen    int
	rampHours float64
	now       Clock

	mu         sync.Mutex
	buckets    []Bucket
	lastMinute int64
	hasLast    bool
}

// New creates an empty Record. Zero fields in cfg fall back to the defaults.
func New(index int, name string, cfg Config) *Record {
	def := DefaultConfig()
	if cfg.Hours <= 0 {
		cfg.Hours = def.Hours
	}
	if cfg.RampInterval <= 0 {
		cfg.RampInterval = def.RampInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}

	return &Record{
		index:     index,
		name:      name,
		maxLen:    cfg.Hours * minutesPerHour,
		rampHours: cfg.RampInterval.Hours(),
		now:       cfg.Clock,
		buckets:   []Bucket{{}},
	}
}

// Index returns the sensor index.
func (r *Record) Index() int {
	return r.index
}

// Name returns the sensor name given by the first report.
func (r *Record) Name() string {
	return r.name
}

// Update folds one temperature report (Celsius) into the current minute.
// A report for a minute at or before the last recorded one accumulates into
// the latest bucket.
func (r *Record) Update(temperature int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := minuteOf(r.now())
	first := !r.hasLast

	r.settle(current)

	latest := &r.buckets[len(r.buckets)-1]
	if first {
		*latest = Bucket{CumulativeTemperature: temperature, SampleCount: 1}
		r.lastMinute = current
		r.hasLast = true
		return
	}

	latest.CumulativeTemperature += temperature
	latest.SampleCount++
}

// Buckets returns a copy of the padded, truncated bucket window, oldest first.
func (r *Record) Buckets() []Bucket {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.settle(minuteOf(r.now()))

	out := make([]Bucket, len(r.buckets))
	copy(out, r.buckets)
	return out
}

// SampleCount returns the number of reports held in the current window.
func (r *Record) SampleCount() int {
	total := 0
	for _, b := range r.Buckets() {
		total += b.SampleCount
	}
	return total
}

// Snapshot returns the display series for this sensor. The result shares
// no memory with the Record.
func (r *Record) Snapshot() Series {
	return buildSeries(r.index, r.name, r.Buckets(), r.rampHours)
}

// settle pads the window with empty buckets up to the current minute and
// drops the oldest buckets beyond the window length. The padded window
// becomes the canonical state, so repeated calls within a minute are no-ops.
// lastMinute only moves forward; a clock that steps back keeps the newest bucket.
func (r *Record) settle(current int64) {
	if r.hasLast {
		missing := current - r.lastMinute
		if missing > 0 {
			if missing > int64(r.maxLen) {
				missing = int64(r.maxLen)
			}
			r.buckets = append(r.buckets, make([]Bucket, missing)...)
			r.lastMinute = current
		}
	}

	if excess := len(r.buckets) - r.maxLen; excess > 0 {
		copy(r.buckets, r.buckets[excess:])
		clear(r.buckets[r.maxLen:])
		r.buckets = r.buckets[:r.maxLen]
	}
}

// minuteOf returns the wall-clock minute index of t.
func minuteOf(t time.Time) int64 {
	sec := t.Unix()
	minute := sec / secondsPerMin
	if sec%secondsPerMin < 0 {
		minute--
	}
	return minute
}

// roundTo rounds x to the given number of decimal places.
func roundTo(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}
