// Package timeline renders a Simile Timeline from the records of a data
// provider.
//
// A Widget is configured once (New, then any number of chained Band calls)
// and rendered per request. Rendering maps every record to a Simile event,
// folds the band options into band and sync descriptors and emits an
// HTML container with the script that builds the timeline client-side.
//
//	w, err := timeline.New(timeline.Options{
//		Provider:   provider.NewSlice(records),
//		Attributes: map[string]string{"title": "name", "start": "born", "end": "died"},
//	})
//	w.Band(timeline.BandOptions{Width: "80%", IntervalUnit: timeline.Year, IntervalPixels: 100}).
//		Band(timeline.BandOptions{Width: "20%", IntervalUnit: timeline.Century, IntervalPixels: 120, Layout: "overview"})
//	out, err := w.Render(ctx)
package timeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"simtl/internal/datenorm"
)

// Widget is not safe for concurrent Band calls. Build and Render only read
// the configuration and may run concurrently once it is complete.
type Widget struct {
	opts   Options
	id     string
	prefix string
	html   map[string]string
	tz     float64
	dates  *datenorm.Normalizer
	bands  []BandOptions
}

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9_$]`)

// New validates opts and prepares the container attributes. A missing
// Provider or Attributes is reported before anything else is looked at.
func New(opts Options) (*Widget, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("%w: the data provider must be set", ErrInvalidConfig)
	}
	if len(opts.Attributes) == 0 {
		return nil, fmt.Errorf("%w: the attributes must be set", ErrInvalidConfig)
	}

	w := &Widget{
		opts:  opts,
		html:  make(map[string]string, len(opts.HTMLOptions)+2),
		dates: datenorm.New(opts.Location),
	}
	for k, v := range opts.HTMLOptions {
		w.html[k] = v
	}

	switch {
	case w.html["id"] != "":
		w.id = w.html["id"]
	case opts.ID != "":
		w.id = opts.ID
	default:
		w.id = "tl" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	w.html["id"] = w.id
	w.prefix = varPrefix(w.id)

	if style := opts.Height.Style(); style != "" {
		w.html["style"] = w.html["style"] + style
	}

	if opts.TimeZone != nil {
		w.tz = *opts.TimeZone
	}
	return w, nil
}

// varPrefix turns the container id into a JavaScript identifier prefix.
func varPrefix(id string) string {
	p := nonIdent.ReplaceAllString(id, "_")
	if p == "" || (p[0] >= '0' && p[0] <= '9') {
		p = "_" + p
	}
	return p
}

// ID is the container element id.
func (w *Widget) ID() string { return w.id }

// VarPrefix prefixes the script variables: <prefix>m is the theme,
// <prefix>s the event source, <prefix>t the timeline.
func (w *Widget) VarPrefix() string { return w.prefix }

// TimeZone is the widget-level UTC offset in hours.
func (w *Widget) TimeZone() float64 { return w.tz }

// Band appends a band. Bands are synchronized in call order, so band i
// follows band i-1 unless opts says otherwise. Dates are normalized when the
// widget is built.
func (w *Widget) Band(opts BandOptions) *Widget {
	w.bands = append(w.bands, opts)
	return w
}

// Bands returns the number of registered bands.
func (w *Widget) Bands() int { return len(w.bands) }
