package report_test

import (
	"testing"

	"github.com/markpostal/kiln-watch/internal/errors"
	"github.com/markpostal/kiln-watch/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	r, err := report.Parse("KW,kiln_watch_0,0,712")
	require.NoError(t, err)

	assert.Equal(t, report.Report{SensorName: "kiln_watch_0", SensorIndex: 0, Temperature: 712}, r)
}

func TestParseTrailingNewline(t *testing.T) {
	r, err := report.Parse("KW,kiln_watch_3,3,-4\n")
	require.NoError(t, err)

	assert.Equal(t, 3, r.SensorIndex)
	assert.Equal(t, -4, r.Temperature)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"wrong tag":          "XX,kiln_watch_0,0,712",
		"too few fields":     "KW,kiln_watch_0,0",
		"too many fields":    "KW,kiln_watch_0,0,712,9",
		"non numeric index":  "KW,kiln_watch_0,zero,712",
		"negative index":     "KW,kiln_watch_0,-1,712",
		"non numeric temp":   "KW,kiln_watch_0,0,hot",
		"fractional temp":    "KW,kiln_watch_0,0,71.5",
		"empty":              "",
		"tag without commas": "KW",
	}

	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := report.Parse(line)
			require.Error(t, err)
			assert.Equal(t, errors.ErrMalformedReport, errors.CodeOf(err))
		})
	}
}

func TestHasTag(t *testing.T) {
	assert.True(t, report.HasTag("KW,a,1,2"))
	assert.False(t, report.HasTag("KWX,a,1,2"))
	assert.False(t, report.HasTag("kw,a,1,2"))
}

func TestString(t *testing.T) {
	r := report.Report{SensorName: "kiln_watch_1", SensorIndex: 1, Temperature: 1093}
	assert.Equal(t, "KW,kiln_watch_1,1,1093", r.String())
}
