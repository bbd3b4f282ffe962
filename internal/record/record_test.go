package record_test

import (
	"sync"
	"testing"
	"time"

	"github.com/markpostal/kiln-watch/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	// minute aligned
	return &fakeClock{t: time.Unix(1_700_000_040, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newRecord(clock *fakeClock) *record.Record {
	return record.New(0, "kiln_watch_0", record.Config{
		Hours:        record.DefaultHours,
		RampInterval: record.DefaultRampInterval,
		Clock:        clock.Now,
	})
}

func TestNewDefaults(t *testing.T) {
	r := record.New(4, "kiln_watch_4", record.Config{})

	assert.Equal(t, 4, r.Index())
	assert.Equal(t, "kiln_watch_4", r.Name())
	assert.Equal(t, 0, r.SampleCount())
}

func TestSnapshotBeforeFirstReport(t *testing.T) {
	r := newRecord(newFakeClock())

	s := r.Snapshot()
	assert.Equal(t, 0, s.Index)
	assert.Equal(t, "kiln_watch_0", s.Name)
	assert.NotNil(t, s.Reports)
	assert.NotNil(t, s.Ramps)
	assert.Empty(t, s.Reports)
	assert.Empty(t, s.Ramps)
}

func TestAveragingWithinMinute(t *testing.T) {
	clock := newFakeClock()
	r := newRecord(clock)

	r.Update(20)
	clock.Advance(30 * time.Second)
	r.Update(30)

	s := r.Snapshot()
	require.Len(t, s.Reports, 1)
	assert.Equal(t, record.Sample{TimeLate: 0, Temp: 77}, s.Reports[0])
	assert.Empty(t, s.Ramps)

	buckets := r.Buckets()
	require.Len(t, buckets, 1)
	assert.Equal(t, record.Bucket{CumulativeTemperature: 50, SampleCount: 2}, buckets[0])
}

func TestFahrenheitRounding(t *testing.T) {
	clock := newFakeClock()
	r := newRecord(clock)

	// 21C -> 69.8F
	r.Update(21)

	s := r.Snapshot()
	require.Len(t, s.Reports, 1)
	assert.Equal(t, 70, s.Reports[0].Temp)
}

func TestGapFilling(t *testing.T) {
	clock := newFakeClock()
	r := newRecord(clock)

	r.Update(100)
	before := len(r.Buckets())

	const silentMinutes = 4
	clock.Advance((silentMinutes + 1) * time.Minute)
	r.Update(200)

	buckets := r.Buckets()
	require.Len(t, buckets, before+silentMinutes+1)
	assert.Equal(t, record.Bucket{CumulativeTemperature: 100, SampleCount: 1}, buckets[0])
	for i := 1; i <= silentMinutes; i++ {
		assert.Equal(t, record.Bucket{}, buckets[i], "bucket %d", i)
	}
	assert.Equal(t, record.Bucket{CumulativeTemperature: 200, SampleCount: 1}, buckets[len(buckets)-1])

	s := r.Snapshot()
	require.Len(t, s.Reports, 2)
	assert.Equal(t, -0.0833, s.Reports[0].TimeLate)
	assert.Equal(t, 0.0, s.Reports[1].TimeLate)
}

func TestPaddingAtReadTime(t *testing.T) {
	clock := newFakeClock()
	r := newRecord(clock)

	r.Update(100)
	clock.Advance(3 * time.Minute)

	s := r.Snapshot()
	require.Len(t, s.Reports, 1)
	assert.Equal(t, -0.05, s.Reports[0].TimeLate)
	assert.Len(t, r.Buckets(), 4)
}

func TestSnapshotThenUpdateDoesNotDoublePad(t *testing.T) {
	clock := newFakeClock()
	r := newRecord(clock)

	r.Update(100)
	clock.Advance(3 * time.Minute)
	r.Snapshot()
	r.Update(110)

	buckets := r.Buckets()
	require.Len(t, buckets, 4)
	assert.Equal(t, record.Bucket{CumulativeTemperature: 110, SampleCount: 1}, buckets[3])
}

func TestIdempotentSnapshot(t *testing.T) {
	clock := newFakeClock()
	r := newRecord(clock)

	for i := 0; i < 5; i++ {
		r.Update(100 + i*10)
		clock.Advance(time.Minute)
	}
	clock.Advance(10 * time.Second)

	first := r.Snapshot()
	second := r.Snapshot()
	assert.Equal(t, first, second)
}

func TestWindowBound(t *testing.T) {
	clock := newFakeClock()
	r := newRecord(clock)

	const extra = 15
	window := record.DefaultHours * 60
	for i := 0; i < window+extra; i++ {
		r.Update(i)
		clock.Advance(time.Minute)
	}
	// stay in the minute of the last report
	clock.Advance(-time.Minute)

	buckets := r.Buckets()
	require.Len(t, buckets, window)
	assert.Equal(t, extra, buckets[0].CumulativeTemperature)

	s := r.Snapshot()
	require.Len(t, s.Reports, window)
	assert.Len(t, s.Ramps, window-1)
	// oldest kept sample is minute `extra`, 15C -> 59F
	assert.Equal(t, 59, s.Reports[0].Temp)
	assert.Equal(t, -11.9833, s.Reports[0].TimeLate)
	assert.Equal(t, window, r.SampleCount())
}

func TestWindowAfterLongSilence(t *testing.T) {
	clock := newFakeClock()
	r := newRecord(clock)

	r.Update(500)
	clock.Advance(48 * time.Hour)
	r.Update(20)

	buckets := r.Buckets()
	require.Len(t, buckets, record.DefaultHours*60)
	assert.Equal(t, 1, r.SampleCount())

	s := r.Snapshot()
	require.Len(t, s.Reports, 1)
	assert.Equal(t, 68, s.Reports[0].Temp)
}

func TestRampComputation(t *testing.T) {
	clock := newFakeClock()
	r := newRecord(clock)

	for _, c := range []int{0, 10, 20} {
		r.Update(c)
		clock.Advance(time.Minute)
	}
	clock.Advance(-time.Minute)

	s := r.Snapshot()
	require.Equal(t, []record.Sample{
		{TimeLate: -0.0333, Temp: 32},
		{TimeLate: -0.0167, Temp: 50},
		{TimeLate: 0, Temp: 68},
	}, s.Reports)

	require.Len(t, s.Ramps, 2)
	// 18F over 0.0166h
	assert.Equal(t, record.Ramp{TimeLate: -0.0167, Rate: 1084}, s.Ramps[0])
	// 36F over 0.0333h
	assert.Equal(t, record.Ramp{TimeLate: 0, Rate: 1081}, s.Ramps[1])
}

func TestRampIgnoresSamplesOutsideInterval(t *testing.T) {
	clock := newFakeClock()
	r := newRecord(clock)

	r.Update(100)
	clock.Advance(2 * time.Hour)
	r.Update(200)

	s := r.Snapshot()
	require.Len(t, s.Ramps, 1)
	assert.Equal(t, 0, s.Ramps[0].Rate)
}

func TestRampShortInterval(t *testing.T) {
	clock := newFakeClock()
	r := record.New(1, "kiln_watch_1", record.Config{
		RampInterval: 90 * time.Second,
		Clock:        clock.Now,
	})

	for _, c := range []int{0, 100, 110} {
		r.Update(c)
		clock.Advance(time.Minute)
	}
	clock.Advance(-time.Minute)

	s := r.Snapshot()
	require.Len(t, s.Ramps, 2)
	// only the previous minute falls inside 0.025h: (230-212)/0.0167
	assert.Equal(t, 1077, s.Ramps[1].Rate)
}

func TestCoolingRampIsNegative(t *testing.T) {
	clock := newFakeClock()
	r := newRecord(clock)

	r.Update(1000)
	clock.Advance(time.Minute)
	r.Update(990)

	s := r.Snapshot()
	require.Len(t, s.Ramps, 1)
	assert.Less(t, s.Ramps[0].Rate, 0)
}

func TestLateReportAccumulatesIntoLatest(t *testing.T) {
	clock := newFakeClock()
	r := newRecord(clock)

	r.Update(100)
	clock.Advance(2 * time.Minute)
	r.Update(200)

	clock.Advance(-time.Minute)
	r.Update(300)
	clock.Advance(time.Minute)

	buckets := r.Buckets()
	require.Len(t, buckets, 3)
	assert.Equal(t, record.Bucket{CumulativeTemperature: 500, SampleCount: 2}, buckets[2])
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	clock := newFakeClock()
	r := newRecord(clock)

	r.Update(100)
	s := r.Snapshot()
	s.Reports[0].Temp = -1

	assert.Equal(t, 212, r.Snapshot().Reports[0].Temp)

	b := r.Buckets()
	b[0].SampleCount = 99
	assert.Equal(t, 1, r.SampleCount())
}

func TestConcurrentUpdateAndSnapshot(t *testing.T) {
	clock := newFakeClock()
	r := newRecord(clock)

	const updates = 1000
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < updates; i++ {
			r.Update(i % 50)
			if i%100 == 0 {
				clock.Advance(time.Minute)
			}
		}
	}()

	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s := r.Snapshot()
				assert.LessOrEqual(t, len(s.Reports), record.DefaultHours*60)
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, updates, r.SampleCount())
}
