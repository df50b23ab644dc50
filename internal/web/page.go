package web

import (
	"html/template"
	"io"
	"time"

	"github.com/Masterminds/sprig/v3"

	"simtl/internal/timeline"
)

// JQueryURL is loaded ahead of the timeline API; the generated script
// relies on jQuery for the deep band merge and the resize handler.
const JQueryURL = "https://code.jquery.com/jquery-1.12.4.min.js"

// Page carries the optional parts of the standalone page.
type Page struct {
	Title string
	// Generated defaults to the current time.
	Generated time.Time
}

// The timeline API must load in <head>; loaded later it fails to
// initialise.
var pageTemplate = template.Must(template.New("page").Funcs(sprig.FuncMap()).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="generated" content="{{ .Generated | date "2006-01-02T15:04:05Z07:00" }}">
<title>{{ .Title | trim | default "Timeline" }}</title>
<script src="{{ .JQuery }}"></script>
{{- range .ScriptFiles }}
<script src="{{ . }}"></script>
{{- end }}
</head>
<body>
{{ .Container }}
<script>
jQuery(function(){
{{ .Script }}
});
</script>
</body>
</html>
`))

type pageData struct {
	Page
	JQuery      string
	ScriptFiles []string
	Container   template.HTML
	Script      template.JS
}

// WritePage writes a complete HTML document showing out.
func WritePage(w io.Writer, out timeline.Output, p Page) error {
	if p.Generated.IsZero() {
		p.Generated = time.Now()
	}
	return pageTemplate.Execute(w, pageData{
		Page:        p,
		JQuery:      JQueryURL,
		ScriptFiles: out.ScriptFiles,
		Container:   template.HTML(out.HTML),
		Script:      template.JS(out.Script),
	})
}
