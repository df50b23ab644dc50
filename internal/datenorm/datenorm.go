// Package datenorm turns the date representations accepted in widget
// configuration and provider records into JavaScript Date constructor calls.
//
// Accepted values:
//   - a string with a calendar date/time (RFC 3339, RFC 2822, MySQL
//     DATE/DATETIME, or anything go-dateparser understands in English)
//   - a time.Time
//   - a sequence [year, month, day?, hour?, minute?, second?, millisecond?],
//     month zero-based so January == 0
//   - an integer number of seconds since the Unix epoch
//
// The result is always "new Date(<args>)". No time zone conversion is done
// here; the timeline receives its offset separately.
package datenorm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"

	"simtl/internal/jsexpr"
)

var (
	ErrUnsupportedDate = errors.New("datenorm: unsupported date value")
	ErrUnparsableDate  = errors.New("datenorm: unparsable date string")
)

// layouts tried before handing a string to go-dateparser.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Normalizer converts date values. The zero value interprets zone-less
// strings in UTC.
type Normalizer struct {
	loc *time.Location
	dp  *dps.Configuration
}

// New returns a Normalizer reading zone-less strings in loc (UTC if nil).
func New(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{
		loc: loc,
		dp: &dps.Configuration{
			Languages:       []string{"en"},
			DefaultTimezone: loc,
		},
	}
}

func (n *Normalizer) location() *time.Location {
	if n == nil || n.loc == nil {
		return time.UTC
	}
	return n.loc
}

// Expr returns the Date constructor expression for v. An Expr is returned
// unchanged.
func (n *Normalizer) Expr(v any) (jsexpr.Expr, error) {
	if e, ok := v.(jsexpr.Expr); ok {
		return e, nil
	}
	args, err := n.Args(v)
	if err != nil {
		return "", err
	}
	return jsexpr.Expr("new Date(" + args + ")"), nil
}

// Args returns the constructor argument list for v: epoch milliseconds, or
// the comma separated components of a sequence.
func (n *Normalizer) Args(v any) (string, error) {
	switch val := v.(type) {
	case string:
		t, err := n.ParseString(val)
		if err != nil {
			return "", err
		}
		return secondsArg(t.Unix()), nil
	case time.Time:
		return secondsArg(val.Unix()), nil
	case *time.Time:
		if val == nil {
			return "", fmt.Errorf("%w: nil *time.Time", ErrUnsupportedDate)
		}
		return secondsArg(val.Unix()), nil
	case []int:
		return joinInts(len(val), func(i int) string { return strconv.Itoa(val[i]) })
	case []int64:
		return joinInts(len(val), func(i int) string { return strconv.FormatInt(val[i], 10) })
	case []float64:
		return joinInts(len(val), func(i int) string { return formatFloat(val[i]) })
	case []any:
		parts := make([]string, 0, len(val))
		for _, c := range val {
			s, ok := component(c)
			if !ok {
				return "", fmt.Errorf("%w: sequence component %T", ErrUnsupportedDate, c)
			}
			parts = append(parts, s)
		}
		return joinInts(len(parts), func(i int) string { return parts[i] })
	}

	if s, ok := integerText(v); ok {
		return millis(s), nil
	}
	switch val := v.(type) {
	case float64:
		return floatSecondsArg(val), nil
	case float32:
		return floatSecondsArg(float64(val)), nil
	case json.Number:
		if _, err := val.Int64(); err == nil {
			return millis(val.String()), nil
		}
		f, err := val.Float64()
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedDate, val.String())
		}
		return floatSecondsArg(f), nil
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedDate, v)
}

// ParseString parses a calendar date/time string. Strings without zone
// information are read in the Normalizer's location.
func (n *Normalizer) ParseString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrUnparsableDate)
	}
	loc := n.location()
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	cfg := n.dpConfig()
	dt, err := dps.Parse(cfg, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrUnparsableDate, s, err)
	}
	if dt.Time.IsZero() {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableDate, s)
	}
	return dt.Time, nil
}

func (n *Normalizer) dpConfig() *dps.Configuration {
	if n == nil || n.dp == nil {
		return &dps.Configuration{Languages: []string{"en"}, DefaultTimezone: time.UTC}
	}
	return n.dp
}

// millis appends three zero digits, shifting integer seconds to milliseconds
// as text. Zero stays "0": "0000" is an octal literal to JavaScript.
func millis(sec string) string {
	if sec == "0" {
		return sec
	}
	return sec + "000"
}

func secondsArg(sec int64) string {
	return millis(strconv.FormatInt(sec, 10))
}

// floatSecondsArg handles fractional seconds, where appending digits would
// be wrong, by rounding to the nearest millisecond.
func floatSecondsArg(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return secondsArg(int64(f))
	}
	return strconv.FormatInt(int64(math.Round(f*1000)), 10)
}

func joinInts(n int, at func(int) string) (string, error) {
	if n == 0 {
		return "", fmt.Errorf("%w: empty sequence", ErrUnsupportedDate)
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = at(i)
	}
	return strings.Join(parts, ","), nil
}

func component(v any) (string, bool) {
	if s, ok := integerText(v); ok {
		return s, true
	}
	switch c := v.(type) {
	case float64:
		return formatFloat(c), true
	case float32:
		return formatFloat(float64(c)), true
	case json.Number:
		if _, err := c.Float64(); err != nil {
			return "", false
		}
		return c.String(), true
	case string:
		if _, err := strconv.ParseFloat(c, 64); err != nil {
			return "", false
		}
		return c, true
	}
	return "", false
}

func integerText(v any) (string, bool) {
	switch i := v.(type) {
	case int:
		return strconv.Itoa(i), true
	case int8:
		return strconv.FormatInt(int64(i), 10), true
	case int16:
		return strconv.FormatInt(int64(i), 10), true
	case int32:
		return strconv.FormatInt(int64(i), 10), true
	case int64:
		return strconv.FormatInt(i, 10), true
	case uint:
		return strconv.FormatUint(uint64(i), 10), true
	case uint8:
		return strconv.FormatUint(uint64(i), 10), true
	case uint16:
		return strconv.FormatUint(uint64(i), 10), true
	case uint32:
		return strconv.FormatUint(uint64(i), 10), true
	case uint64:
		return strconv.FormatUint(i, 10), true
	}
	return "", false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
