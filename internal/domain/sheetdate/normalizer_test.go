package sheetdate

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := New("")
	require.NoError(t, err)
	return n
}

func TestNew(t *testing.T) {
	t.Run("defaults to business location", func(t *testing.T) {
		n, err := New("")
		require.NoError(t, err)
		assert.Equal(t, DefaultLocation, n.Location().String())
	})

	t.Run("rejects unknown location", func(t *testing.T) {
		_, err := New("Mars/Olympus")
		assert.Error(t, err)
	})

	t.Run("nil normalizer falls back to UTC", func(t *testing.T) {
		var n *Normalizer
		assert.Equal(t, time.UTC, n.Location())
	})
}

func TestNormalize_NoValue(t *testing.T) {
	n := newTestNormalizer(t)
	var nilTime *time.Time
	var nilString *string

	for name, v := range map[string]any{
		"nil":         nil,
		"empty":       "",
		"whitespace":  "   \t ",
		"nil time":    nilTime,
		"nil string":  nilString,
		"nil pointer": (*int)(nil),
	} {
		t.Run(name, func(t *testing.T) {
			res := n.Normalize(v)
			assert.Equal(t, NoValue, res.Status)
			assert.False(t, res.IsValid())
			assert.Nil(t, res.Ptr())
		})
	}
}

func TestNormalize_NativeTime(t *testing.T) {
	n := newTestNormalizer(t)

	t.Run("passes through unchanged", func(t *testing.T) {
		in := time.Date(2023, 5, 4, 10, 30, 0, 0, time.UTC)
		res := n.Normalize(in)
		require.Equal(t, Valid, res.Status)
		assert.True(t, in.Equal(res.Time))
	})

	t.Run("pointer passes through", func(t *testing.T) {
		in := time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)
		res := n.Normalize(&in)
		require.Equal(t, Valid, res.Status)
		assert.True(t, in.Equal(res.Time))
	})

	t.Run("zero time is invalid", func(t *testing.T) {
		res := n.Normalize(time.Time{})
		assert.Equal(t, Invalid, res.Status)
	})
}

func TestNormalize_Serial(t *testing.T) {
	n := newTestNormalizer(t)
	loc := n.Location()

	t.Run("serial 2 is the first day after 1899-12-31", func(t *testing.T) {
		res := n.Normalize(2)
		require.Equal(t, Valid, res.Status)
		assert.Equal(t, "01/01/1900", n.Format(res.Time))
		assert.Equal(t, "31/12/1899", n.Format(FromSerial(1, loc)))
		assert.True(t, IsSuspect(res.Time))
	})

	t.Run("serial 45000 lands in the 2020s", func(t *testing.T) {
		res := n.Normalize(45000.0)
		require.Equal(t, Valid, res.Status)
		assert.Equal(t, time.Date(2023, 3, 15, 0, 0, 0, 0, loc), res.Time)
		assert.Equal(t, "15/03/2023", n.Format(res.Time))
		assert.False(t, IsSuspect(res.Time))
	})

	t.Run("serial and typed text name the same day", func(t *testing.T) {
		serial := n.Normalize(45000.0)
		text := n.Normalize("15/03/2023")
		require.Equal(t, Valid, serial.Status)
		require.Equal(t, Valid, text.Status)
		assert.True(t, serial.Time.Equal(text.Time), "serial %s, text %s", serial.Time, text.Time)
	})

	t.Run("fractional serial keeps wall-clock time of day", func(t *testing.T) {
		res := n.Normalize(45000.5)
		require.Equal(t, Valid, res.Status)
		assert.Equal(t, time.Date(2023, 3, 15, 12, 0, 0, 0, loc), res.Time)

		res = n.Normalize(45000.75)
		assert.Equal(t, time.Date(2023, 3, 15, 18, 0, 0, 0, loc), res.Time)
	})

	t.Run("zero normalizer decodes in UTC", func(t *testing.T) {
		var zero Normalizer
		res := zero.Normalize(45000)
		assert.Equal(t, time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), res.Time)
		assert.Equal(t, FromSerial(45000, nil), res.Time)
	})

	t.Run("accepts every numeric kind", func(t *testing.T) {
		want := FromSerial(44000, loc)
		for _, v := range []any{int(44000), int32(44000), int64(44000), uint16(44000), float32(44000), float64(44000), decimal.NewFromInt(44000), json.Number("44000")} {
			res := n.Normalize(v)
			require.Equal(t, Valid, res.Status, "%T", v)
			assert.Equal(t, want, res.Time, "%T", v)
		}
	})

	t.Run("range bounds are exclusive", func(t *testing.T) {
		assert.Equal(t, time.UnixMilli(1).UTC(), n.Normalize(1).Time)
		assert.Equal(t, time.UnixMilli(100000).UTC(), n.Normalize(100000).Time)
	})
}

func TestNormalize_Milliseconds(t *testing.T) {
	n := newTestNormalizer(t)

	t.Run("large numbers are unix milliseconds", func(t *testing.T) {
		ms := time.Date(2022, 7, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
		res := n.Normalize(ms)
		require.Equal(t, Valid, res.Status)
		assert.Equal(t, ms, res.Time.UnixMilli())
	})

	t.Run("NaN and infinities are invalid", func(t *testing.T) {
		assert.Equal(t, Invalid, n.Normalize(math.NaN()).Status)
		assert.Equal(t, Invalid, n.Normalize(math.Inf(1)).Status)
		assert.Equal(t, Invalid, n.Normalize(math.Inf(-1)).Status)
	})

	t.Run("out of int64 range is invalid", func(t *testing.T) {
		assert.Equal(t, Invalid, n.Normalize(1e300).Status)
	})
}

func TestNormalize_Text(t *testing.T) {
	n := newTestNormalizer(t)

	t.Run("day month year is midnight in the business location", func(t *testing.T) {
		res := n.Normalize("15/03/2023")
		require.Equal(t, Valid, res.Status)
		local := res.Time.In(n.Location())
		assert.Equal(t, 2023, local.Year())
		assert.Equal(t, time.March, local.Month())
		assert.Equal(t, 15, local.Day())
		assert.Equal(t, 0, local.Hour())
	})

	t.Run("surrounding whitespace is ignored", func(t *testing.T) {
		assert.Equal(t, Valid, n.Normalize("  1/2/2020 ").Status)
	})

	t.Run("impossible calendar dates are invalid", func(t *testing.T) {
		for _, s := range []string{"31/02/2023", "00/01/2023", "10/13/2023", "10/00/2023"} {
			assert.Equal(t, Invalid, n.Normalize(s).Status, s)
		}
	})

	t.Run("structural misfits fall back to ISO", func(t *testing.T) {
		res := n.Normalize("2023-03-15")
		require.Equal(t, Valid, res.Status)
		assert.Equal(t, time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), res.Time)

		res = n.Normalize("2023-03-15T10:20:30Z")
		require.Equal(t, Valid, res.Status)
		assert.Equal(t, time.Date(2023, 3, 15, 10, 20, 30, 0, time.UTC), res.Time)

		res = n.Normalize("2023-03-15T10:20:30")
		require.Equal(t, Valid, res.Status)
		assert.Equal(t, n.Location(), res.Time.Location())
	})

	t.Run("two digit years are not DD/MM/YYYY", func(t *testing.T) {
		assert.Equal(t, Invalid, n.Normalize("15/03/23").Status)
	})

	t.Run("garbage is invalid", func(t *testing.T) {
		for _, s := range []string{"mañana", "15-03-2023", "a/b/c", "45000"} {
			assert.Equal(t, Invalid, n.Normalize(s).Status, s)
		}
	})
}

func TestNormalize_UnsupportedTypes(t *testing.T) {
	n := newTestNormalizer(t)
	assert.Equal(t, Invalid, n.Normalize(true).Status)
	assert.Equal(t, Invalid, n.Normalize(struct{}{}).Status)
	assert.Equal(t, Invalid, n.Normalize([]int{1}).Status)
}

func TestRoundTrip_DayMonthYear(t *testing.T) {
	n := newTestNormalizer(t)

	start := time.Date(1990, 1, 1, 0, 0, 0, 0, n.Location())
	for d := start; d.Year() < 2031; d = d.AddDate(0, 0, 7) {
		in := d.Format("02/01/2006")
		first := n.Normalize(in)
		require.Equal(t, Valid, first.Status, in)

		formatted := n.Format(first.Time)
		assert.Equal(t, in, formatted)

		second := n.Normalize(formatted)
		require.Equal(t, Valid, second.Status, formatted)
		y1, m1, d1 := first.Time.In(n.Location()).Date()
		y2, m2, d2 := second.Time.In(n.Location()).Date()
		assert.Equal(t, []int{y1, int(m1), d1}, []int{y2, int(m2), d2}, in)
	}
}

func TestFromSerial_CalendarDays(t *testing.T) {
	n := newTestNormalizer(t)
	epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

	// three-day steps cross every DST switch of the business location
	for s := 32874; s < 47500; s += 3 {
		want := epoch.AddDate(0, 0, s).Format("02/01/2006")
		assert.Equal(t, want, n.Format(FromSerial(float64(s), n.Location())), "serial %d", s)
	}
}

func TestIsSuspect(t *testing.T) {
	assert.True(t, IsSuspect(time.UnixMilli(0)))
	assert.True(t, IsSuspect(time.UnixMilli(45000)))
	assert.True(t, IsSuspect(time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsSuspect(time.UnixMilli(1_000_000)))
	assert.False(t, IsSuspect(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(1_000_000), SuspectBefore().UnixMilli())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "no_value", NoValue.String())
	assert.Equal(t, "invalid", Invalid.String())
	assert.Equal(t, "valid", Valid.String())
	assert.Equal(t, "unknown", Status(42).String())
}
