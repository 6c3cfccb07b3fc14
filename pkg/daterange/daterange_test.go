package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JavaZeroo/dev-scripts/pkg/errors"
)

var today = time.Date(2025, 12, 15, 13, 37, 0, 0, time.UTC)

func TestResolve_Shortcuts(t *testing.T) {
	tests := []struct {
		name      string
		last      string
		wantLen   int
		wantFirst string
		wantLast  string
	}{
		{name: "one day", last: "1day", wantLen: 1, wantFirst: "20251215", wantLast: "20251215"},
		{name: "seven days", last: "7days", wantLen: 7, wantFirst: "20251209", wantLast: "20251215"},
		{name: "two weeks", last: "2weeks", wantLen: 14, wantFirst: "20251202", wantLast: "20251215"},
		{name: "one month", last: "1month", wantLen: 30, wantFirst: "20251116", wantLast: "20251215"},
		{name: "space before unit", last: "3 days", wantLen: 3, wantFirst: "20251213", wantLast: "20251215"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, err := Resolve(Spec{Last: tt.last}, today)
			require.NoError(t, err)

			dates := rng.Strings()
			assert.Len(t, dates, tt.wantLen)
			assert.Equal(t, tt.wantFirst, dates[0])
			assert.Equal(t, tt.wantLast, dates[len(dates)-1])
		})
	}
}

func TestResolve_ShortcutDatesAreConsecutiveAndUnique(t *testing.T) {
	rng, err := Resolve(Spec{Last: "4weeks"}, today)
	require.NoError(t, err)

	dates := rng.Dates()
	require.Len(t, dates, 28)
	for i := 1; i < len(dates); i++ {
		assert.Equal(t, dates[i-1].AddDate(0, 0, 1), dates[i])
	}
}

func TestResolve_Explicit(t *testing.T) {
	rng, err := Resolve(Spec{Start: "20251201", End: "20251203"}, today)
	require.NoError(t, err)
	assert.Equal(t, []string{"20251201", "20251202", "20251203"}, rng.Strings())
}

func TestResolve_ExplicitSingleDay(t *testing.T) {
	rng, err := Resolve(Spec{Start: "20251201", End: "20251201"}, today)
	require.NoError(t, err)
	assert.Equal(t, []string{"20251201"}, rng.Strings())
	assert.Equal(t, 1, rng.Len())
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{name: "empty spec", spec: Spec{}},
		{name: "start after end", spec: Spec{Start: "20251210", End: "20251201"}},
		{name: "bad start format", spec: Spec{Start: "2025-12-01", End: "20251210"}},
		{name: "bad end format", spec: Spec{Start: "20251201", End: "yesterday"}},
		{name: "start without end", spec: Spec{Start: "20251201"}},
		{name: "unknown unit", spec: Spec{Last: "5fortnights"}},
		{name: "zero count", spec: Spec{Last: "0days"}},
		{name: "garbage shortcut", spec: Spec{Last: "lastweek"}},
		{name: "shortcut and explicit mixed", spec: Spec{Last: "7days", Start: "20251201", End: "20251210"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.spec, today)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidRange)
		})
	}
}

func TestRange_DatesReturnsCopy(t *testing.T) {
	rng, err := Resolve(Spec{Last: "3days"}, today)
	require.NoError(t, err)

	dates := rng.Dates()
	dates[0] = time.Time{}
	assert.Equal(t, "20251213", rng.Strings()[0])
}
