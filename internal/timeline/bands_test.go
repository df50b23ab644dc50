package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simtl/internal/datenorm"
	"simtl/internal/jsexpr"
)

func TestSyncDescriptorsFollowPreviousBand(t *testing.T) {
	w := newWidget(t, Options{})
	w.Band(BandOptions{IntervalUnit: Day}).
		Band(BandOptions{IntervalUnit: Week}).
		Band(BandOptions{IntervalUnit: Month, SyncWith: Int(0)})

	cfg, err := w.Build(context.Background())
	require.NoError(t, err)

	out, err := jsexpr.Marshal(cfg.Syncs)
	require.NoError(t, err)
	assert.Equal(t, `[{},{"syncWith":0,"highlight":true},{"syncWith":0,"highlight":true}]`, string(out))
}

func TestSyncDescriptorsChainOfN(t *testing.T) {
	w := newWidget(t, Options{})
	for i := 0; i < 5; i++ {
		w.Band(BandOptions{IntervalUnit: Unit(i)})
	}

	cfg, err := w.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, cfg.Syncs, 5)
	assert.Equal(t, Sync{}, cfg.Syncs[0])
	for k := 1; k < 5; k++ {
		require.NotNil(t, cfg.Syncs[k].SyncWith)
		assert.Equal(t, k-1, *cfg.Syncs[k].SyncWith)
		require.NotNil(t, cfg.Syncs[k].Highlight)
		assert.True(t, *cfg.Syncs[k].Highlight)
	}
}

func TestSyncDescriptorOverrides(t *testing.T) {
	w := newWidget(t, Options{})
	w.Band(BandOptions{SyncWith: Int(3), Highlight: Bool(false)}).
		Band(BandOptions{SyncWith: Int(SyncNone)}).
		Band(BandOptions{Highlight: Bool(false)})

	cfg, err := w.Build(context.Background())
	require.NoError(t, err)

	out, err := jsexpr.Marshal(cfg.Syncs)
	require.NoError(t, err)
	assert.Equal(t, `[{},{"highlight":true},{"syncWith":1,"highlight":false}]`, string(out))
}

func TestBandDefaults(t *testing.T) {
	w := newWidget(t, Options{ID: "hist", TimeZone: Hours(2)})
	w.Band(BandOptions{Width: "70%", IntervalUnit: Month, IntervalPixels: 100}).
		Band(BandOptions{Width: "30%", IntervalUnit: Year, IntervalPixels: 200, Layout: "overview", TimeZone: Hours(-5)})

	cfg, err := w.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, cfg.Bands, 2)

	assert.False(t, cfg.Bands[0].HotZone)
	assert.Equal(t, map[string]any{
		"width":          "70%",
		"intervalUnit":   6,
		"intervalPixels": 100,
		"eventSource":    jsexpr.Expr("hists"),
		"theme":          jsexpr.Expr("histm"),
		"timeZone":       2.0,
	}, cfg.Bands[0].Options)

	assert.Equal(t, "overview", cfg.Bands[1].Options["layout"])
	assert.Equal(t, -5.0, cfg.Bands[1].Options["timeZone"])
}

func TestBandTimeZoneDefaultsToUTC(t *testing.T) {
	w := newWidget(t, Options{})
	w.Band(BandOptions{IntervalUnit: Day})

	cfg, err := w.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Bands[0].Options["timeZone"])
}

func TestBandExtraTimeZone(t *testing.T) {
	w := newWidget(t, Options{TimeZone: Hours(2)})
	w.Band(BandOptions{IntervalUnit: Day, Extra: map[string]any{"timeZone": -3.5}}).
		Band(BandOptions{IntervalUnit: Week, TimeZone: Hours(1), Extra: map[string]any{"timeZone": -3.5}}).
		Band(BandOptions{IntervalUnit: Month})

	cfg, err := w.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, cfg.Bands, 3)
	assert.Equal(t, -3.5, cfg.Bands[0].Options["timeZone"])
	assert.Equal(t, 1.0, cfg.Bands[1].Options["timeZone"])
	assert.Equal(t, 2.0, cfg.Bands[2].Options["timeZone"])
}

func TestBandExtraOverridesSharedObjects(t *testing.T) {
	w := newWidget(t, Options{})
	w.Band(BandOptions{Extra: map[string]any{
		"eventSource": jsexpr.Expr("otherSource"),
		"theme":       nil,
		"trackHeight": 1.3,
	}})

	cfg, err := w.Build(context.Background())
	require.NoError(t, err)
	opts := cfg.Bands[0].Options
	assert.Equal(t, jsexpr.Expr("otherSource"), opts["eventSource"])
	assert.Nil(t, opts["theme"])
	assert.Equal(t, 1.3, opts["trackHeight"])
}

func TestBandCenterDate(t *testing.T) {
	w := newWidget(t, Options{Center: 1600000000})
	w.Band(BandOptions{}).
		Band(BandOptions{Date: []int{1900, 0, 1}})

	cfg, err := w.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, jsexpr.Expr("new Date(1600000000000)"), cfg.Bands[0].Options["date"])
	assert.Equal(t, jsexpr.Expr("new Date(1900,0,1)"), cfg.Bands[1].Options["date"])

	plain := newWidget(t, Options{})
	plain.Band(BandOptions{})
	cfg, err = plain.Build(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, cfg.Bands[0].Options, "date")
}

func TestHotZoneBand(t *testing.T) {
	w := newWidget(t, Options{})
	w.Band(BandOptions{IntervalUnit: Year, Zones: []Zone{
		{Start: "1939-09-01", End: time.Date(1945, 5, 8, 0, 0, 0, 0, time.UTC), Magnify: 5, Unit: Month},
		{Start: []int{1914, 6, 28}, End: []int{1918, 10, 11}, Magnify: 3, Unit: Month, Multiple: 2},
	}}).Band(BandOptions{IntervalUnit: Century, Zones: []Zone{}})

	cfg, err := w.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, cfg.Bands, 2)
	assert.True(t, cfg.Bands[0].HotZone)
	assert.True(t, cfg.Bands[1].HotZone)

	n := datenorm.New(time.UTC)
	wantStart, err := n.Expr("1939-09-01")
	require.NoError(t, err)

	zones := cfg.Bands[0].Options["zones"].([]map[string]any)
	require.Len(t, zones, 2)
	assert.Equal(t, map[string]any{
		"start":   wantStart,
		"end":     jsexpr.Expr("new Date(-777945600000)"),
		"magnify": 5.0,
		"unit":    int(Month),
	}, zones[0])
	assert.Equal(t, jsexpr.Expr("new Date(1914,6,28)"), zones[1]["start"])
	assert.Equal(t, 2, zones[1]["multiple"])
}

func TestBandZoneDateError(t *testing.T) {
	w := newWidget(t, Options{})
	w.Band(BandOptions{Zones: []Zone{{Start: true}}})

	_, err := w.Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, datenorm.ErrUnsupportedDate)
	assert.Contains(t, err.Error(), "band 0: zone 0: start")
}

func TestDefaultBandWhenNoneRegistered(t *testing.T) {
	w := newWidget(t, Options{})
	cfg, err := w.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, cfg.Bands, 1)
	assert.Equal(t, "100%", cfg.Bands[0].Options["width"])
	assert.Equal(t, int(Day), cfg.Bands[0].Options["intervalUnit"])
	assert.Equal(t, []Sync{{}}, cfg.Syncs)
	assert.Equal(t, 0, w.Bands())
}
