package timeline

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"simtl/internal/jsexpr"
	appLog "simtl/internal/log"
)

// Output is one rendered widget. ScriptFiles must be loaded in the document
// head before Script runs; Script expects jQuery.
type Output struct {
	ID          string
	HTML        string
	Script      string
	ScriptFiles []string
	Events      int
	Skipped     int
}

// ResizeDebounce is how long the script waits after the last window resize
// before laying the timeline out again.
const ResizeDebounce = 500 * time.Millisecond

// Render builds the configuration from the provider's current records and
// serializes it into the container markup and timeline script.
func (w *Widget) Render(ctx context.Context) (Output, error) {
	cfg, err := w.Build(ctx)
	if err != nil {
		return Output{}, err
	}
	script, err := w.Script(cfg)
	if err != nil {
		return Output{}, err
	}

	appLog.Debug("timeline rendered",
		"id", w.id,
		"events", len(cfg.Events),
		"skipped", cfg.Skipped,
		"bands", len(cfg.Bands),
	)

	return Output{
		ID:          w.id,
		HTML:        w.ContainerHTML(),
		Script:      script,
		ScriptFiles: []string{APIScriptURL},
		Events:      len(cfg.Events),
		Skipped:     cfg.Skipped,
	}, nil
}

// Script serializes cfg into the statements that create the theme, the event
// source and the timeline, plus the debounced resize handler.
func (w *Widget) Script(cfg Config) (string, error) {
	events := make([]jsexpr.Expr, 0, len(cfg.Events))
	for i, ev := range cfg.Events {
		data, err := jsexpr.Marshal(ev)
		if err != nil {
			return "", fmt.Errorf("timeline: encode event %d: %w", i, err)
		}
		events = append(events, jsexpr.Expr("new Timeline.DefaultEventSource.Event("+string(data)+")"))
	}
	jData, err := jsexpr.Marshal(events)
	if err != nil {
		return "", fmt.Errorf("timeline: encode events: %w", err)
	}

	bands := make([]jsexpr.Expr, 0, len(cfg.Bands))
	for i, b := range cfg.Bands {
		data, err := jsexpr.Marshal(b.Options)
		if err != nil {
			return "", fmt.Errorf("timeline: encode band %d: %w", i, err)
		}
		create := "Timeline.createBandInfo("
		if b.HotZone {
			create = "Timeline.createHotZoneBandInfo("
		}
		bands = append(bands, jsexpr.Expr(create+string(data)+")"))
	}
	jBands, err := jsexpr.Marshal(bands)
	if err != nil {
		return "", fmt.Errorf("timeline: encode bands: %w", err)
	}
	jSyncs, err := jsexpr.Marshal(cfg.Syncs)
	if err != nil {
		return "", fmt.Errorf("timeline: encode syncs: %w", err)
	}

	p := w.prefix
	var b strings.Builder
	fmt.Fprintf(&b, "var %[1]sm=Timeline.ClassicTheme.create(),%[1]ss=new Timeline.DefaultEventSource();%[1]ss.addMany(%[2]s);", p, jData)
	if cfg.Start != "" {
		fmt.Fprintf(&b, "%sm.timeline_start=%s;", p, cfg.Start)
	}
	if cfg.End != "" {
		fmt.Fprintf(&b, "%sm.timeline_stop=%s;", p, cfg.End)
	}
	fmt.Fprintf(&b, "var %[1]sr=null,%[1]st=Timeline.create(document.getElementById('%[2]s'),jQuery.extend(true,%[3]s,%[4]s));%[1]st.finishedEventLoading();\n",
		p, jsString(w.id), jBands, jSyncs)
	fmt.Fprintf(&b, "jQuery(window).resize(function(){if(!%[1]sr){ %[1]sr=setTimeout(function(){ %[1]sr=null;%[1]st.layout();},%[2]d);}});",
		p, ResizeDebounce.Milliseconds())
	return b.String(), nil
}

var jsStringEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`, "<", `\x3c`, ">", `\x3e`)

// jsString escapes s for a single-quoted JavaScript string literal.
func jsString(s string) string {
	return jsStringEscaper.Replace(s)
}

// ContainerHTML is the empty element the timeline is drawn into. The id comes
// first; other attributes follow in name order.
func (w *Widget) ContainerHTML() string {
	names := make([]string, 0, len(w.html))
	for k := range w.html {
		if k != "id" {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(`<div id="`)
	b.WriteString(html.EscapeString(w.id))
	b.WriteByte('"')
	for _, k := range names {
		b.WriteByte(' ')
		b.WriteString(html.EscapeString(k))
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(w.html[k]))
		b.WriteByte('"')
	}
	b.WriteString(`></div>`)
	return b.String()
}
