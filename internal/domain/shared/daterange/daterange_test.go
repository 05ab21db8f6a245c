package daterange_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motelbook/internal/domain/shared/calday"
	"motelbook/internal/domain/shared/daterange"
)

func mustRange(t *testing.T, in, out string) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(calday.MustParse(in), calday.MustParse(out))
	require.NoError(t, err)
	return dr
}

func TestNewValidates(t *testing.T) {
	_, err := daterange.New(calday.MustParse("2024-06-10"), calday.MustParse("2024-06-10"))
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)

	_, err = daterange.New(calday.MustParse("2024-06-10"), calday.Day{})
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)

	dr, err := daterange.WithDefaultCheckOut(calday.MustParse("2024-06-10"), calday.Day{})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-11", dr.CheckOut.String())
	assert.Equal(t, 1, dr.Nights())
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	base := mustRange(t, "2024-06-10", "2024-06-12")

	assert.True(t, base.Overlaps(mustRange(t, "2024-06-11", "2024-06-13")))
	assert.False(t, base.Overlaps(mustRange(t, "2024-06-12", "2024-06-13")))
	assert.False(t, base.Overlaps(mustRange(t, "2024-06-08", "2024-06-10")))
	assert.True(t, base.Overlaps(mustRange(t, "2024-06-01", "2024-06-30")))
}

func TestPadAndDays(t *testing.T) {
	dr := mustRange(t, "2024-06-10", "2024-06-12")

	padded := dr.Pad(1, 1)
	assert.Equal(t, "2024-06-09..2024-06-13", padded.String())

	days := dr.Days()
	require.Len(t, days, 2)
	assert.Equal(t, "2024-06-10", days[0].String())
	assert.Equal(t, "2024-06-11", days[1].String())

	assert.True(t, dr.ContainsDay(calday.MustParse("2024-06-11")))
	assert.False(t, dr.ContainsDay(calday.MustParse("2024-06-12")))
}
