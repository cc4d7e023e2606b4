package web

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/sweeney/temperature-notifier/internal/logic"
	"github.com/sweeney/temperature-notifier/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"celsius":    logic.FormatCelsius,
	"stateClass": func(s logic.State) string { return strings.ToLower(s.String()) },
	"deref":      func(b *bool) bool { return b != nil && *b },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="60">
<title>Temperature Notifier</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.low { color: #36c; font-weight: bold; }
.nominal { color: green; font-weight: bold; }
.high { color: #c30; font-weight: bold; }
.unknown { color: orange; }
.error { color: red; }
</style>
</head>
<body>
<h1>Temperature Notifier</h1>

<h2>Reading</h2>
<table>
{{if .Ready}}<tr><th>Temperature</th><td id="temperature">{{celsius .Last.Temperature}}</td></tr>
<tr><th>State</th><td id="state" class="{{stateClass .Last.Current}}">{{.Last.Current}}</td></tr>
<tr><th>Previous</th><td>{{.Last.Previous}}</td></tr>
<tr><th>Sampled</th><td>{{.Last.Time.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{range .Last.Messages}}<tr><th>{{.Kind}}</th><td>{{.Text}}</td></tr>
{{end}}{{else}}<tr><th>State</th><td id="state" class="unknown">UNKNOWN</td></tr>
{{end}}{{if .Alert}}<tr><th>ALERT line</th><td>{{if deref .Alert}}asserted{{else}}clear{{end}}</td></tr>
{{end}}{{if .LastError}}<tr><th>Last error</th><td class="error">{{.LastError}}</td></tr>
{{end}}</table>

<h2>Transitions</h2>
<table>
<tr><th>To LOW</th><td>{{.Transitions.ToLow}}</td></tr>
<tr><th>To NOMINAL</th><td>{{.Transitions.ToNominal}}</td></tr>
<tr><th>To HIGH</th><td>{{.Transitions.ToHigh}}</td></tr>
</table>

<h2>Notifications</h2>
<table>
<tr><th>Notifier</th><td>{{.Config.Notifier}}{{if .Config.Destination}} ({{.Config.Destination}}){{end}}</td></tr>
<tr><th>Sent</th><td>{{.Sent}}</td></tr>
<tr><th>Failed</th><td>{{.Failed}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Setpoints</th><td>{{celsius .Config.Setpoints.Low}} / {{celsius .Config.Setpoints.High}} ± {{celsius .Config.Setpoints.Margin}}</td></tr>
<tr><th>Sensor</th><td>{{.Config.Sensor}}</td></tr>
<tr><th>Interval</th><td>{{.Config.Interval}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
