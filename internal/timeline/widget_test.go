package timeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simtl/internal/jsexpr"
	"simtl/internal/model"
)

func staticProvider(records ...model.Record) DataProvider {
	return DataProviderFunc(func(context.Context) ([]model.Record, error) {
		return records, nil
	})
}

var basicAttributes = map[string]string{
	"title":       "name",
	"start":       "from",
	"end":         "until",
	"description": "notes",
	"color":       "colour",
}

func newWidget(t *testing.T, opts Options) *Widget {
	t.Helper()
	if opts.Provider == nil {
		opts.Provider = staticProvider()
	}
	if opts.Attributes == nil {
		opts.Attributes = basicAttributes
	}
	if opts.ID == "" {
		opts.ID = "tl"
	}
	w, err := New(opts)
	require.NoError(t, err)
	return w
}

func TestNewRequiresProviderAndAttributes(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{name: "both missing", opts: Options{}, wantErr: "data provider"},
		{name: "attributes missing", opts: Options{Provider: staticProvider()}, wantErr: "attributes"},
		{name: "provider missing", opts: Options{Attributes: basicAttributes}, wantErr: "data provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := New(tt.opts)
			require.Error(t, err)
			assert.Nil(t, w)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewAssignsID(t *testing.T) {
	w := newWidget(t, Options{HTMLOptions: map[string]string{"id": "my-line"}, ID: "ignored"})
	assert.Equal(t, "my-line", w.ID())
	assert.Equal(t, "my_line", w.VarPrefix())

	w = newWidget(t, Options{ID: "history"})
	assert.Equal(t, "history", w.ID())

	gen, err := New(Options{Provider: staticProvider(), Attributes: basicAttributes})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(gen.ID(), "tl"))
	assert.Len(t, gen.ID(), 34)
	assert.Equal(t, gen.ID(), gen.VarPrefix())

	other, err := New(Options{Provider: staticProvider(), Attributes: basicAttributes})
	require.NoError(t, err)
	assert.NotEqual(t, gen.ID(), other.ID())
}

func TestVarPrefixLeadingDigit(t *testing.T) {
	assert.Equal(t, "_1a", varPrefix("1a"))
	assert.Equal(t, "a_b_c", varPrefix("a.b-c"))
}

func TestContainerHTMLHeight(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{name: "default", opts: Options{}, want: `<div id="tl" style="height:200px;"></div>`},
		{name: "pixels", opts: Options{Height: Pixels(350)}, want: `<div id="tl" style="height:350px;"></div>`},
		{name: "css", opts: Options{Height: CSS("20em")}, want: `<div id="tl" style="height:20em;"></div>`},
		{name: "disabled", opts: Options{Height: NoHeight}, want: `<div id="tl"></div>`},
		{
			name: "appends to caller style",
			opts: Options{HTMLOptions: map[string]string{"style": "border:1px solid;", "class": "timeline"}},
			want: `<div id="tl" class="timeline" style="border:1px solid;height:200px;"></div>`,
		},
		{
			name: "escapes attributes",
			opts: Options{Height: NoHeight, HTMLOptions: map[string]string{"title": `"><script>`}},
			want: `<div id="tl" title="&#34;&gt;&lt;script&gt;"></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newWidget(t, tt.opts).ContainerHTML())
		})
	}
}

func TestBuildEventMapping(t *testing.T) {
	start := time.Date(2020, 9, 13, 12, 26, 40, 0, time.UTC)
	w := newWidget(t, Options{Provider: staticProvider(
		model.Record{"name": "Span", "from": start, "until": 1600003600, "notes": "", "colour": "red", "ignored": "x"},
		model.Record{"name": "Instant", "from": "2020-09-13T12:26:40Z", "notes": nil},
		model.Record{"name": "Array", "from": []int{2020, 0, 15}, "colour": 0},
	)})

	cfg, err := w.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, cfg.Events, 3)

	span := cfg.Events[0]
	assert.Equal(t, Event{
		"title":         "Span",
		"start":         jsexpr.Expr("new Date(1600000000000)"),
		"end":           jsexpr.Expr("new Date(1600003600000)"),
		"color":         "red",
		"durationEvent": true,
	}, span)

	instant := cfg.Events[1]
	assert.Equal(t, Event{
		"title": "Instant",
		"start": jsexpr.Expr("new Date(1600000000000)"),
	}, instant)
	assert.NotContains(t, instant, "durationEvent")
	assert.NotContains(t, instant, "description")

	arr := cfg.Events[2]
	assert.Equal(t, jsexpr.Expr("new Date(2020,0,15)"), arr["start"])
	assert.Equal(t, 0, arr["color"])
}

func TestBuildEventExtraDateAttributes(t *testing.T) {
	w := newWidget(t, Options{
		Attributes: map[string]string{"start": "s", "latestStart": "ls", "earliestEnd": "ee", "end": "e"},
		Provider:   staticProvider(model.Record{"s": 10, "ls": 20, "ee": 30, "e": 40}),
	})

	cfg, err := w.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, cfg.Events, 1)
	assert.Equal(t, Event{
		"start":         jsexpr.Expr("new Date(10000)"),
		"latestStart":   jsexpr.Expr("new Date(20000)"),
		"earliestEnd":   jsexpr.Expr("new Date(30000)"),
		"end":           jsexpr.Expr("new Date(40000)"),
		"durationEvent": true,
	}, cfg.Events[0])
}

func TestBuildSkipsRecordsWithBadDates(t *testing.T) {
	w := newWidget(t, Options{Provider: staticProvider(
		model.Record{"name": "bad", "from": true},
		model.Record{"name": "good", "from": 1},
	)})

	cfg, err := w.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Skipped)
	require.Len(t, cfg.Events, 1)
	assert.Equal(t, "good", cfg.Events[0]["title"])
}

func TestBuildOmitsFalseDates(t *testing.T) {
	w := newWidget(t, Options{Provider: staticProvider(
		model.Record{"name": "open ended", "from": 1, "until": false},
		model.Record{"name": "no start", "from": false},
	)})

	cfg, err := w.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Skipped)
	require.Len(t, cfg.Events, 2)
	assert.Equal(t, Event{"title": "open ended", "start": jsexpr.Expr("new Date(1000)")}, cfg.Events[0])
	assert.Equal(t, Event{"title": "no start"}, cfg.Events[1])
}

func TestBuildProviderError(t *testing.T) {
	boom := errors.New("db down")
	w := newWidget(t, Options{Provider: DataProviderFunc(func(context.Context) ([]model.Record, error) {
		return nil, boom
	})})

	_, err := w.Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestBuildSanitize(t *testing.T) {
	w := newWidget(t, Options{
		Sanitize: true,
		Provider: staticProvider(model.Record{
			"name":  "<b>Release</b>",
			"from":  1,
			"notes": `<p>Ship it</p><script>alert(1)</script>`,
		}),
	})

	cfg, err := w.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, cfg.Events, 1)
	assert.Equal(t, "Release", cfg.Events[0]["title"])
	assert.Equal(t, "<p>Ship it</p>", cfg.Events[0]["description"])
}

func TestIsEmpty(t *testing.T) {
	var nilPtr *time.Time
	assert.True(t, isEmpty(nil))
	assert.True(t, isEmpty(""))
	assert.True(t, isEmpty(time.Time{}))
	assert.True(t, isEmpty([]int{}))
	assert.True(t, isEmpty(map[string]any{}))
	assert.True(t, isEmpty(nilPtr))
	assert.False(t, isEmpty(0))
	assert.False(t, isEmpty(false))
	assert.False(t, isEmpty(" "))
	assert.False(t, isEmpty([]int{2020}))
}

func TestRenderKeepsRecordTextQuoted(t *testing.T) {
	for _, sanitize := range []bool{false, true} {
		w := newWidget(t, Options{Sanitize: sanitize, Provider: staticProvider(model.Record{
			"name":  "\u0001alert(document.cookie)\u0001",
			"from":  1600000000,
			"notes": "\u0001fetch('//evil')\u0001",
		})})

		out, err := w.Render(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, out.Events)
		assert.Contains(t, out.Script, `"start":new Date(1600000000000)`)
		assert.Contains(t, out.Script, `"title":"\u0001alert(document.cookie)\u0001"`)
		assert.NotContains(t, out.Script, `"title":alert(`)
		assert.NotContains(t, out.Script, `"description":fetch(`)
	}
}
