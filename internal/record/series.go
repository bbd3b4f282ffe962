package record

import "math"

const timeLatePlaces = 4

// Series is the display view of one sensor. TimeLate values are in hours
// before now (<= 0) and temperatures are in Fahrenheit.
type Series struct {
	Index   int      `json:"index"`
	Name    string   `json:"name"`
	Reports []Sample `json:"reports"`
	Ramps   []Ramp   `json:"ramps"`
}

// Sample is the average temperature of one non-empty minute.
type Sample struct {
	TimeLate float64 `json:"time_late"`
	Temp     int     `json:"temp"`
}

// Ramp is the rate of temperature change, in degrees Fahrenheit per hour,
// ending at TimeLate.
type Ramp struct {
	TimeLate float64 `json:"time_late"`
	Rate     int     `json:"rate"`
}

func buildSeries(index int, name string, buckets []Bucket, rampHours float64) Series {
	s := Series{
		Index:   index,
		Name:    name,
		Reports: make([]Sample, 0, len(buckets)),
		Ramps:   make([]Ramp, 0, len(buckets)),
	}

	last := len(buckets) - 1
	for i, b := range buckets {
		if b.SampleCount == 0 {
			continue
		}

		sample := Sample{
			TimeLate: timeLate(last - i),
			Temp:     fahrenheit(b),
		}
		s.Reports = append(s.Reports, sample)

		if len(s.Reports) > 1 {
			s.Ramps = append(s.Ramps, Ramp{
				TimeLate: sample.TimeLate,
				Rate:     rampRate(s.Reports, rampHours),
			})
		}
	}

	return s
}

// fahrenheit converts a bucket's Celsius average to rounded Fahrenheit.
func fahrenheit(b Bucket) int {
	avg := float64(b.CumulativeTemperature) / float64(b.SampleCount)
	return int(math.Round(avg*9.0/5.0 + 32.0))
}

// timeLate converts a count of minutes before now into negative hours.
func timeLate(minutesAgo int) float64 {
	t := roundTo(-float64(minutesAgo)/minutesPerHour, timeLatePlaces)
	if t == 0 {
		return 0
	}
	return t
}

// rampRate is the slope between the oldest and newest samples whose
// TimeLate lies within (newest - rampHours, newest]. The newest sample is
// the last element of samples. Fewer than two samples in range give 0.
func rampRate(samples []Sample, rampHours float64) int {
	newest := samples[len(samples)-1]
	start := newest.TimeLate - rampHours

	oldest := newest
	inRange := 0
	for i := len(samples) - 1; i >= 0; i-- {
		if samples[i].TimeLate <= start {
			break
		}
		oldest = samples[i]
		inRange++
	}
	if inRange < 2 {
		return 0
	}

	span := math.Abs(newest.TimeLate - oldest.TimeLate)
	if span == 0 {
		return 0
	}
	return int(float64(newest.Temp-oldest.Temp) / span)
}
