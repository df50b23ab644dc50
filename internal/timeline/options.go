package timeline

import (
	"context"
	"errors"
	"time"

	"simtl/internal/model"
)

// ErrInvalidConfig is returned by New when a required collaborator is missing.
var ErrInvalidConfig = errors.New("timeline: invalid configuration")

// SyncNone as BandOptions.SyncWith keeps a band from following another one.
const SyncNone = -1

// DataProvider supplies the current page of records. The widget only reads
// from it, once per render pass.
type DataProvider interface {
	Models(ctx context.Context) ([]model.Record, error)
}

// DataProviderFunc adapts a function to DataProvider.
type DataProviderFunc func(ctx context.Context) ([]model.Record, error)

func (f DataProviderFunc) Models(ctx context.Context) ([]model.Record, error) { return f(ctx) }

// Options configures a Widget.
type Options struct {
	// Provider supplies the event records. Required.
	Provider DataProvider

	// Attributes maps timeline attribute names (title, start, end,
	// description, icon, color, ...) to record attribute names. Required.
	Attributes map[string]string

	// ID is the container id. HTMLOptions["id"] takes precedence; when both
	// are empty an id is generated.
	ID string

	// HTMLOptions are extra attributes of the container element.
	HTMLOptions map[string]string

	Height Height

	// TimeZone is the UTC offset in hours handed to every band lacking its
	// own. nil means 0 (UTC).
	TimeZone *float64

	// Start and End bound the visible range; Center anchors bands without a
	// date of their own. Any value accepted by datenorm.
	Start  any
	End    any
	Center any

	// Sanitize strips HTML from titles and reduces descriptions to safe HTML.
	Sanitize bool

	// Location interprets date strings without zone information. nil is UTC.
	Location *time.Location
}

// BandOptions describes one timeline band.
type BandOptions struct {
	// Width is a CSS percentage such as "70%".
	Width string
	// Layout is "overview", "detailed" or empty for compact.
	Layout         string
	IntervalUnit   Unit
	IntervalPixels int

	// SyncWith is the index of the band this one follows; nil means the
	// previous band and SyncNone disables syncing.
	SyncWith *int
	// Highlight marks the synced range; nil means true.
	Highlight *bool

	// TimeZone overrides the widget offset for this band. When nil, a
	// "timeZone" in Extra wins over the widget offset.
	TimeZone *float64

	// Date anchors this band; nil falls back to the widget's Center.
	Date any

	// Zones makes this a hot-zone band when non-nil.
	Zones []Zone

	// Extra carries any other Simile band option verbatim. Values may be
	// jsexpr.Expr. "eventSource" and "theme" override the shared objects.
	Extra map[string]any
}

// Zone is a magnified date range on a hot-zone band.
type Zone struct {
	Start    any
	End      any
	Magnify  float64
	Unit     Unit
	Multiple int
	Extra    map[string]any
}

// Int returns a pointer to v, for BandOptions.SyncWith.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for BandOptions.Highlight.
func Bool(v bool) *bool { return &v }

// Hours returns a pointer to v, for time zone offsets.
func Hours(v float64) *float64 { return &v }
