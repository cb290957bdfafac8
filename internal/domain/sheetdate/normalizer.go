// Package sheetdate decodes the date representations found in legacy
// spreadsheets (native dates, serial day counts, millisecond timestamps and
// free text) into instants.
package sheetdate

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // business location must resolve on hosts without zoneinfo

	"github.com/shopspring/decimal"
)

// Status is the outcome class of a decode.
type Status int

const (
	// NoValue means the input was absent or blank. It is not an error.
	NoValue Status = iota
	// Invalid means the input was present but could not be decoded.
	Invalid
	// Valid means Time holds a decoded instant.
	Valid
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case NoValue:
		return "no_value"
	case Invalid:
		return "invalid"
	case Valid:
		return "valid"
	default:
		return "unknown"
	}
}

// Result is the decoded value. Time is only meaningful when Status is Valid.
type Result struct {
	Status Status
	Time   time.Time
}

// IsValid reports whether the result carries an instant
func (r Result) IsValid() bool {
	return r.Status == Valid
}

// Ptr returns a pointer to the instant, or nil when the result is not Valid
func (r Result) Ptr() *time.Time {
	if r.Status != Valid {
		return nil
	}
	t := r.Time
	return &t
}

const (
	// DefaultLocation is the business timezone of the source workbooks.
	DefaultLocation = "America/Asuncion"

	serialLow  = 1.0
	serialHigh = 100000.0

	// suspectMillis is the threshold under which a persisted instant is
	// treated as a mis-decoded serial clamped near the Unix epoch.
	suspectMillis = 1_000_000

	dayLayout = "02/01/2006"
)

// Day zero of the spreadsheet serial calendar is 1899-12-30. Anchoring there
// absorbs the phantom 1900-02-29 for every serial after it.
const (
	serialEpochYear  = 1899
	serialEpochMonth = time.December
	serialEpochDay   = 30

	dayMillis = int64(24 * time.Hour / time.Millisecond)
)

var isoLayouts = []struct {
	layout   string
	dateOnly bool
	hasZone  bool
}{
	{time.RFC3339Nano, false, true},
	{time.RFC3339, false, true},
	{"2006-01-02T15:04:05.999999999", false, false},
	{"2006-01-02T15:04:05", false, false},
	{"2006-01-02 15:04:05", false, false},
	{"2006-01-02T15:04", false, false},
	{"2006-01-02", true, false},
}

// Normalizer decodes heterogeneous date values. The zero value decodes text
// dates in UTC; use New to bind the business location.
type Normalizer struct {
	loc *time.Location
}

// New creates a Normalizer for the named IANA location. An empty name selects
// DefaultLocation.
func New(location string) (*Normalizer, error) {
	if location == "" {
		location = DefaultLocation
	}
	loc, err := time.LoadLocation(location)
	if err != nil {
		return nil, fmt.Errorf("failed to load location %q: %w", location, err)
	}
	return &Normalizer{loc: loc}, nil
}

// MustNew is like New but panics on an unknown location
func MustNew(location string) *Normalizer {
	n, err := New(location)
	if err != nil {
		panic(err)
	}
	return n
}

// Location returns the location used for calendar dates
func (n *Normalizer) Location() *time.Location {
	if n == nil || n.loc == nil {
		return time.UTC
	}
	return n.loc
}

// Normalize decodes v. It never panics.
func (n *Normalizer) Normalize(v any) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Status: Invalid}
		}
	}()

	switch x := v.(type) {
	case nil:
		return Result{Status: NoValue}
	case time.Time:
		return fromTime(x)
	case *time.Time:
		if x == nil {
			return Result{Status: NoValue}
		}
		return fromTime(*x)
	case string:
		return n.fromText(x)
	case *string:
		if x == nil {
			return Result{Status: NoValue}
		}
		return n.fromText(*x)
	case decimal.Decimal:
		f, _ := x.Float64()
		return n.fromNumber(f)
	case fmt.Stringer:
		if t, ok := v.(interface{ Float64() (float64, error) }); ok {
			f, err := t.Float64()
			if err != nil {
				return Result{Status: Invalid}
			}
			return n.fromNumber(f)
		}
		return n.fromText(x.String())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return n.fromNumber(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return n.fromNumber(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return n.fromNumber(rv.Float())
	case reflect.String:
		return n.fromText(rv.String())
	case reflect.Pointer:
		if rv.IsNil() {
			return Result{Status: NoValue}
		}
		return n.Normalize(rv.Elem().Interface())
	}
	return Result{Status: Invalid}
}

func fromTime(t time.Time) Result {
	if t.IsZero() {
		return Result{Status: Invalid}
	}
	return Result{Status: Valid, Time: t}
}

func (n *Normalizer) fromNumber(f float64) Result {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Result{Status: Invalid}
	}
	if f > serialLow && f < serialHigh {
		return Result{Status: Valid, Time: FromSerial(f, n.Location())}
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return Result{Status: Invalid}
	}
	return Result{Status: Valid, Time: time.UnixMilli(int64(f)).UTC()}
}

// FromSerial converts a spreadsheet serial day count to the calendar date it
// names in loc, so a serial and the same date typed as DD/MM/YYYY agree.
// Fractional days become the wall-clock time of day, rounded to the
// millisecond. A nil loc means UTC.
func FromSerial(serial float64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	ms := int64(math.Round(serial * float64(dayMillis)))
	days, rem := ms/dayMillis, ms%dayMillis
	if rem < 0 {
		days, rem = days-1, rem+dayMillis
	}
	year, month, day := serialEpochYear, serialEpochMonth, serialEpochDay+int(days)
	if rem == 0 {
		return midnight(year, month, day, loc)
	}
	return time.Date(year, month, day, 0, 0, 0, int(rem)*int(time.Millisecond), loc)
}

// midnight returns the first instant of the calendar day in loc. Midnight may
// not exist on a DST switch day.
func midnight(year int, month time.Month, day int, loc *time.Location) time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	want := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3 && t.In(loc).Day() != want.Day(); i++ {
		t = t.Add(time.Hour)
	}
	return t
}

func (n *Normalizer) fromText(s string) Result {
	s = strings.TrimSpace(s)
	if s == "" {
		return Result{Status: NoValue}
	}
	if res, structural := n.parseDayMonthYear(s); structural {
		return res
	}
	return n.parseISO(s)
}

// parseDayMonthYear handles DD/MM/YYYY. The second return value is false
// when the text does not have that shape at all, so the caller can fall back.
func (n *Normalizer) parseDayMonthYear(s string) (Result, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Result{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.Atoi(p)
		if err != nil {
			return Result{}, false
		}
		nums[i] = v
	}
	if len(strings.TrimSpace(parts[2])) != 4 {
		return Result{}, false
	}
	day, month, year := nums[0], nums[1], nums[2]
	if month < 1 || month > 12 || day < 1 {
		return Result{Status: Invalid}, true
	}
	// reject rollover such as 31/02
	if c := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC); c.Day() != day || c.Month() != time.Month(month) {
		return Result{Status: Invalid}, true
	}
	return Result{Status: Valid, Time: midnight(year, time.Month(month), day, n.Location())}, true
}

func (n *Normalizer) parseISO(s string) Result {
	for _, l := range isoLayouts {
		var (
			t   time.Time
			err error
		)
		switch {
		case l.hasZone:
			t, err = time.Parse(l.layout, s)
		case l.dateOnly:
			t, err = time.ParseInLocation(l.layout, s, time.UTC)
		default:
			t, err = time.ParseInLocation(l.layout, s, n.Location())
		}
		if err == nil {
			return Result{Status: Valid, Time: t}
		}
	}
	return Result{Status: Invalid}
}

// Format renders t as DD/MM/YYYY in the normalizer location
func (n *Normalizer) Format(t time.Time) string {
	return t.In(n.Location()).Format(dayLayout)
}

// IsSuspect reports whether a persisted instant looks like a serial that was
// decoded as milliseconds: anything below one million Unix milliseconds,
// which includes every pre-epoch value.
func IsSuspect(t time.Time) bool {
	return t.UnixMilli() < suspectMillis
}

// SuspectBefore returns the instant below which IsSuspect holds
func SuspectBefore() time.Time {
	return time.UnixMilli(suspectMillis).UTC()
}
