package timeline

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"time"

	"simtl/internal/jsexpr"
	appLog "simtl/internal/log"
	"simtl/internal/model"
	"simtl/internal/sanitize"
)

// EventDateAttributes are the event attributes holding dates.
var EventDateAttributes = []string{"start", "end", "latestStart", "earliestEnd"}

// ZoneDateAttributes are the hot zone attributes holding dates.
var ZoneDateAttributes = []string{"start", "end"}

// Event is the attribute map of one Simile event.
type Event map[string]any

// Band is the option map of one Simile band.
type Band struct {
	HotZone bool
	Options map[string]any
}

// Sync links a band to the one it follows. The first band's descriptor is
// empty.
type Sync struct {
	SyncWith  *int  `json:"syncWith,omitempty"`
	Highlight *bool `json:"highlight,omitempty"`
}

// Config is everything the generated script needs, ready for serialization.
type Config struct {
	Events []Event
	Bands  []Band
	Syncs  []Sync

	// Start and End are empty when the widget has no bounds.
	Start jsexpr.Expr
	End   jsexpr.Expr

	// Skipped counts records dropped because a date could not be normalized.
	Skipped int
}

// Build reads the provider's current records and resolves the bands.
func (w *Widget) Build(ctx context.Context) (Config, error) {
	var cfg Config

	bands, syncs, err := w.buildBands()
	if err != nil {
		return cfg, err
	}
	cfg.Bands, cfg.Syncs = bands, syncs

	if w.opts.Start != nil {
		if cfg.Start, err = w.dates.Expr(w.opts.Start); err != nil {
			return cfg, fmt.Errorf("timeline: start: %w", err)
		}
	}
	if w.opts.End != nil {
		if cfg.End, err = w.dates.Expr(w.opts.End); err != nil {
			return cfg, fmt.Errorf("timeline: end: %w", err)
		}
	}

	records, err := w.opts.Provider.Models(ctx)
	if err != nil {
		return cfg, fmt.Errorf("timeline: load models: %w", err)
	}

	cfg.Events = make([]Event, 0, len(records))
	for i, rec := range records {
		ev, err := w.mapEvent(rec)
		if err != nil {
			cfg.Skipped++
			appLog.Error("timeline: skipping record", err, "id", w.id, "index", i)
			continue
		}
		cfg.Events = append(cfg.Events, ev)
	}
	return cfg, nil
}

// mapEvent copies the translated, non-empty attributes of rec and normalizes
// the date attributes. A false date (an unset nullable column) is omitted.
func (w *Widget) mapEvent(rec model.Record) (Event, error) {
	ev := make(Event, len(w.opts.Attributes)+1)
	for target, source := range w.opts.Attributes {
		v, ok := rec[source]
		if !ok || isEmpty(v) {
			continue
		}
		if v == false && slices.Contains(EventDateAttributes, target) {
			continue
		}
		ev[target] = v
	}

	if err := w.normalizeDates(ev, EventDateAttributes); err != nil {
		return nil, err
	}
	if w.opts.Sanitize {
		sanitizeEvent(ev)
	}
	if _, ok := ev["end"]; ok {
		ev["durationEvent"] = true
	}
	return ev, nil
}

func (w *Widget) normalizeDates(m map[string]any, names []string) error {
	for _, name := range names {
		v, ok := m[name]
		if !ok {
			continue
		}
		e, err := w.dates.Expr(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		m[name] = e
	}
	return nil
}

func sanitizeEvent(ev Event) {
	for _, name := range []string{"title", "caption"} {
		if s, ok := ev[name].(string); ok {
			ev[name] = sanitize.Text(s)
		}
	}
	if s, ok := ev["description"].(string); ok {
		ev["description"] = sanitize.HTML(s)
	}
}

// isEmpty reports values that never make it into an event: nil, "", zero
// times and empty collections. Zero numbers and false are kept.
func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case time.Time:
		return val.IsZero()
	case jsexpr.Expr:
		return val == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// buildBands folds the registered bands in order.
func (w *Widget) buildBands() ([]Band, []Sync, error) {
	defs := w.bands
	if len(defs) == 0 {
		defs = []BandOptions{{Width: "100%", IntervalUnit: Day, IntervalPixels: 100}}
	}

	bands := make([]Band, 0, len(defs))
	syncs := make([]Sync, 0, len(defs))
	for i, bo := range defs {
		syncs = append(syncs, syncFor(i, bo))

		b, err := w.bandFor(bo)
		if err != nil {
			return nil, nil, fmt.Errorf("timeline: band %d: %w", i, err)
		}
		bands = append(bands, b)
	}
	return bands, syncs, nil
}

func syncFor(i int, bo BandOptions) Sync {
	if i == 0 {
		return Sync{}
	}
	var s Sync
	switch {
	case bo.SyncWith == nil:
		s.SyncWith = Int(i - 1)
	case *bo.SyncWith != SyncNone:
		s.SyncWith = Int(*bo.SyncWith)
	}
	if bo.Highlight != nil {
		s.Highlight = Bool(*bo.Highlight)
	} else {
		s.Highlight = Bool(true)
	}
	return s
}

func (w *Widget) bandFor(bo BandOptions) (Band, error) {
	opts := make(map[string]any, len(bo.Extra)+8)
	for k, v := range bo.Extra {
		opts[k] = v
	}
	if bo.Width != "" {
		opts["width"] = bo.Width
	}
	if bo.Layout != "" {
		opts["layout"] = bo.Layout
	}
	opts["intervalUnit"] = int(bo.IntervalUnit)
	if bo.IntervalPixels > 0 {
		opts["intervalPixels"] = bo.IntervalPixels
	}
	if _, ok := opts["eventSource"]; !ok {
		opts["eventSource"] = jsexpr.Expr(w.prefix + "s")
	}
	if _, ok := opts["theme"]; !ok {
		opts["theme"] = jsexpr.Expr(w.prefix + "m")
	}

	date := bo.Date
	if date == nil {
		date = w.opts.Center
	}
	if date != nil {
		e, err := w.dates.Expr(date)
		if err != nil {
			return Band{}, fmt.Errorf("date: %w", err)
		}
		opts["date"] = e
	}

	switch _, inExtra := bo.Extra["timeZone"]; {
	case bo.TimeZone != nil:
		opts["timeZone"] = *bo.TimeZone
	case !inExtra:
		opts["timeZone"] = w.tz
	}

	band := Band{Options: opts}
	if bo.Zones != nil {
		band.HotZone = true
		zones := make([]map[string]any, 0, len(bo.Zones))
		for j, z := range bo.Zones {
			zm, err := w.zoneFor(z)
			if err != nil {
				return Band{}, fmt.Errorf("zone %d: %w", j, err)
			}
			zones = append(zones, zm)
		}
		opts["zones"] = zones
	}
	return band, nil
}

func (w *Widget) zoneFor(z Zone) (map[string]any, error) {
	m := make(map[string]any, len(z.Extra)+5)
	for k, v := range z.Extra {
		m[k] = v
	}
	if z.Start != nil {
		m["start"] = z.Start
	}
	if z.End != nil {
		m["end"] = z.End
	}
	if z.Magnify != 0 {
		m["magnify"] = z.Magnify
	}
	m["unit"] = int(z.Unit)
	if z.Multiple > 0 {
		m["multiple"] = z.Multiple
	}
	if err := w.normalizeDates(m, ZoneDateAttributes); err != nil {
		return nil, err
	}
	return m, nil
}
