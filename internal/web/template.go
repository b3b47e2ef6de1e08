package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/WataNekko/home-server-utils/internal/journal"
	"github.com/WataNekko/home-server-utils/internal/status"
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
	"fanLabel": status.FanLabel,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
{{if gt .Config.IntervalSeconds 0}}<meta http-equiv="refresh" content="{{.Config.IntervalSeconds}}">
{{end}}<title>Fan Control</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.alert { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Fan Control</h1>

<h2>State</h2>
<table>
<tr><th>Fan</th><td class="{{if eq (fanLabel .FanLevel) "ON"}}on{{else}}off{{end}}">{{fanLabel .FanLevel}}</td></tr>
<tr><th>CPU Temp</th><td>{{if .HasReading}}{{printf "%.1f" .TempC}} &deg;C{{else}}no reading yet{{end}}</td></tr>
{{if .HasReading}}<tr><th>Last Reading</th><td>{{.LastReadAt.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{end}}{{if not .LastAlertAt.IsZero}}<tr><th>Last Alert</th><td class="alert">{{printf "%.1f" .LastAlertC}} &deg;C at {{.LastAlertAt.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>FAN ON</th><td>{{.Counts.FanOn}}</td></tr>
<tr><th>FAN OFF</th><td>{{.Counts.FanOff}}</td></tr>
<tr><th>OVERHEAT</th><td>{{.Counts.Overheats}}</td></tr>
<tr><th>TICK FAILURE</th><td>{{.Counts.TickFailures}}</td></tr>
</table>

{{if .Events}}<h2>Recent Events</h2>
<table>
<tr><th>Time</th><th>Event</th><th>Temp</th><th>Detail</th></tr>
{{range .Events}}<tr><td>{{.OccurredAt.UTC.Format "2006-01-02T15:04:05Z"}}</td><td{{if eq .Type "OVERHEAT"}} class="alert"{{end}}>{{.Type}}</td><td>{{if ne .Type "TICK_FAILURE"}}{{printf "%.1f" .TempC}}{{end}}</td><td>{{.Detail}}</td></tr>
{{end}}</table>
{{end}}
<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Interval</th><td>{{.Config.IntervalSeconds}}s</td></tr>
<tr><th>Thresholds</th><td>on &gt; {{printf "%.1f" .Config.OnThreshold}} &deg;C, off &lt; {{printf "%.1f" .Config.OffThreshold}} &deg;C</td></tr>
<tr><th>Max Change</th><td>{{printf "%.1f" .Config.MaxChange}} &deg;C</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatSeconds 0}}disabled{{else}}{{.Config.HeartbeatSeconds}}s{{end}}</td></tr>
<tr><th>GPIO Pin</th><td>{{.Config.GPIOPin}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, events []journal.Entry) {
	// Snapshot has an Uptime() method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Events []journal.Entry
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Events:   events,
	}
	indexTmpl.Execute(w, data)
}
