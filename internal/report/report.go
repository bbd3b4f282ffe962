// Package report defines the measurement record broadcast by kiln sensors
// and its comma-delimited wire form.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/markpostal/kiln-watch/internal/errors"
)

// Tag is the literal first field of every sensor datagram.
const Tag = "KW"

// Prefix is what a datagram must start with to be considered a report.
const Prefix = Tag + ","

const fieldCount = 4

// Report is one parsed temperature measurement.
type Report struct {
	SensorName  string
	SensorIndex int
	// Temperature in degrees Celsius.
	Temperature int
}

// HasTag reports whether line carries the sensor report tag.
func HasTag(line string) bool {
	return strings.HasPrefix(line, Prefix)
}

// Parse decodes "KW,<name>,<index>,<temperature>".
func Parse(line string) (Report, error) {
	errFactory := errors.New()

	fields := strings.Split(strings.TrimRight(line, "\r\n\x00"), ",")
	if len(fields) != fieldCount {
		return Report{}, errFactory.WithData(errors.ErrMalformedReport, struct {
			Fields int
		}{Fields: len(fields)})
	}
	if fields[0] != Tag {
		return Report{}, errFactory.WithData(errors.ErrMalformedReport, struct {
			Tag string
		}{Tag: fields[0]})
	}

	index, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return Report{}, errFactory.Wrap(errors.ErrMalformedReport, err)
	}
	if index < 0 {
		return Report{}, errFactory.WithData(errors.ErrMalformedReport, struct {
			Index int
		}{Index: index})
	}

	temperature, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if err != nil {
		return Report{}, errFactory.Wrap(errors.ErrMalformedReport, err)
	}

	return Report{
		SensorName:  fields[1],
		SensorIndex: index,
		Temperature: temperature,
	}, nil
}

// String returns the wire form of the report.
func (r Report) String() string {
	return fmt.Sprintf("%s,%s,%d,%d", Tag, r.SensorName, r.SensorIndex, r.Temperature)
}
