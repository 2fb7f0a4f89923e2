package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFakeClock(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("AEST", 10*60*60)
	start := time.Date(2026, 1, 2, 9, 0, 0, 0, loc)

	c := NewFake(start)
	require.Equal(t, time.UTC, c.Now().Location())
	require.True(t, c.Now().Equal(start))

	c.Advance(time.Hour)
	require.True(t, c.Now().Equal(start.Add(time.Hour)))

	c.Set(start)
	require.True(t, c.Now().Equal(start))
}

func TestFuncClockNormalisesToUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("X", -5*60*60)
	fixed := time.Date(2026, 5, 5, 5, 5, 5, 0, loc)

	c := Func(func() time.Time { return fixed })
	require.Equal(t, time.UTC, c.Now().Location())
	require.True(t, c.Now().Equal(fixed))
	require.Equal(t, time.UTC, System.Now().Location())
}
