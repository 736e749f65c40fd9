package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromTime_DifferentZonesSameCalendarDay(t *testing.T) {
	wib := time.FixedZone("WIB", 7*3600)
	cases := []time.Time{
		time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.July, 1, 23, 59, 59, 0, time.UTC),
		time.Date(2026, time.July, 1, 8, 30, 0, 0, wib),
		time.Date(2026, time.July, 1, 0, 0, 1, 0, time.FixedZone("NY", -5*3600)),
	}
	want := NewDate(2026, time.July, 1)
	for _, tm := range cases {
		assert.Equal(t, want, FromTime(tm), "input %s", tm)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-07-01")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2026, time.July, 1), d)

	// timestamp terlanjur dikirim client: komponen jam dibuang
	d, err = ParseDate("2026-07-01T15:04:05+07:00")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2026, time.July, 1), d)

	for _, bad := range []string{"", "01/07/2026", "2026-7-1", "yesterday"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := NewDate(2026, time.December, 31)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-12-31"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)
}

func TestDate_StringAndTime(t *testing.T) {
	d := NewDate(2026, time.March, 5)
	assert.Equal(t, "2026-03-05", d.String())
	assert.Equal(t, time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC), d.Time())
	assert.Equal(t, d, FromTime(d.Time()))
}

func TestDate_Before(t *testing.T) {
	assert.True(t, NewDate(2026, time.January, 31).Before(NewDate(2026, time.February, 1)))
	assert.True(t, NewDate(2025, time.December, 31).Before(NewDate(2026, time.January, 1)))
	assert.False(t, NewDate(2026, time.May, 2).Before(NewDate(2026, time.May, 2)))
}
