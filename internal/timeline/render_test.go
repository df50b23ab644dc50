package timeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simtl/internal/model"
)

func TestRenderScript(t *testing.T) {
	w := newWidget(t, Options{
		ID:       "tl",
		Provider: staticProvider(model.Record{"name": "Moon landing", "from": -14182940}),
		Start:    []int{1960, 0, 1},
		End:      []int{1980, 0, 1},
	})
	w.Band(BandOptions{Width: "80%", IntervalUnit: Year, IntervalPixels: 100}).
		Band(BandOptions{Width: "20%", IntervalUnit: Decade, IntervalPixels: 200, Layout: "overview"})

	out, err := w.Render(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "tl", out.ID)
	assert.Equal(t, 1, out.Events)
	assert.Equal(t, []string{APIScriptURL}, out.ScriptFiles)
	assert.Equal(t, `<div id="tl" style="height:200px;"></div>`, out.HTML)

	want := `var tlm=Timeline.ClassicTheme.create(),tls=new Timeline.DefaultEventSource();` +
		`tls.addMany([new Timeline.DefaultEventSource.Event({"start":new Date(-14182940000),"title":"Moon landing"})]);` +
		`tlm.timeline_start=new Date(1960,0,1);` +
		`tlm.timeline_stop=new Date(1980,0,1);` +
		`var tlr=null,tlt=Timeline.create(document.getElementById('tl'),jQuery.extend(true,[` +
		`Timeline.createBandInfo({"eventSource":tls,"intervalPixels":100,"intervalUnit":7,"theme":tlm,"timeZone":0,"width":"80%"}),` +
		`Timeline.createBandInfo({"eventSource":tls,"intervalPixels":200,"intervalUnit":8,"layout":"overview","theme":tlm,"timeZone":0,"width":"20%"})` +
		`],[{},{"syncWith":0,"highlight":true}]));tlt.finishedEventLoading();` + "\n" +
		`jQuery(window).resize(function(){if(!tlr){ tlr=setTimeout(function(){ tlr=null;tlt.layout();},500);}});`
	assert.Equal(t, want, out.Script)
}

func TestRenderWithoutBounds(t *testing.T) {
	w := newWidget(t, Options{ID: "x"})
	out, err := w.Render(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, out.Script, "timeline_start")
	assert.NotContains(t, out.Script, "timeline_stop")
	assert.Contains(t, out.Script, "xs.addMany([]);")
}

func TestRenderHotZoneConstructor(t *testing.T) {
	w := newWidget(t, Options{ID: "hz"})
	w.Band(BandOptions{IntervalUnit: Month, Zones: []Zone{{Start: 0, End: 86400, Magnify: 10, Unit: Day}}})

	out, err := w.Render(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.Script, `Timeline.createHotZoneBandInfo({`)
	assert.Contains(t, out.Script, `"zones":[{"end":new Date(86400000),"magnify":10,"start":new Date(0),"unit":4}]`)
	assert.NotContains(t, out.Script, "Timeline.createBandInfo(")
}

func TestRenderEscapesEventText(t *testing.T) {
	w := newWidget(t, Options{ID: "esc", Provider: staticProvider(model.Record{
		"name": `</script><script>alert("x")</script>`,
		"from": 1,
	})})

	out, err := w.Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, strings.Count(out.Script, "</script>"))
	assert.Contains(t, out.Script, `\u003c/script\u003e`)
}

func TestRenderQuotesContainerID(t *testing.T) {
	w := newWidget(t, Options{HTMLOptions: map[string]string{"id": "it's"}})
	out, err := w.Render(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.Script, `document.getElementById('it\'s')`)
	assert.Contains(t, out.Script, "var it_sm=Timeline.ClassicTheme.create()")
}
