package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/ev-logger/internal/status"
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
	"sub": func(a, b uint64) uint64 {
		return a - b
	},
	"mb": func(b uint64) uint64 {
		return b / 1_000_000
	},
	"kb": func(b int64) int64 {
		return b / 1000
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>EV Logger</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.warn { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; background: orange; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
</style>
</head>
<body>
<h1>EV Logger<span id="live-dot" class="live-dot" title="connecting"></span></h1>

<h2>Logging</h2>
<table>
<tr><th>Logging</th><td id="logging" class="{{if .Reading.Running}}on{{else}}off{{end}}">{{if .Reading.Running}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>File</th><td id="file">{{.Reading.FileName}} ({{kb .Reading.FileSize}}kb){{if .Reading.FileOpen}} open{{end}}</td></tr>
<tr><th>Buffer</th><td id="buffer">{{.Reading.BufferPercent}}% of {{.Reading.BufferSize}} bytes</td></tr>
<tr><th>Overflow</th><td id="overflow" class="{{if .Reading.Overflow}}warn{{end}}">{{if .Reading.Overflow}}yes{{else}}no{{end}}</td></tr>
<tr><th>Message</th><td id="message">{{.Message}}</td></tr>
</table>

<h2>Storage</h2>
<table>
<tr><th>Used</th><td id="storage">{{mb (sub .Reading.StorageTotal .Reading.StorageFree)}}/{{mb .Reading.StorageTotal}}MB ({{.Reading.StorageUsedPercent}}%)</td></tr>
<tr><th>Sessions</th><td>{{.Reading.Sessions}}</td></tr>
<tr><th>Blocks written</th><td>{{.Reading.BlocksWritten}}</td></tr>
<tr><th>Write failures</th><td>{{.Reading.WriteFailures}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sample period</th><td>{{.Config.PeriodUs}}us</td></tr>
<tr><th>Block</th><td>{{.Config.BlockSize}} bytes</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }
  function text(id, v) {
    document.getElementById(id).textContent = v;
  }

  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  ws.onopen = function() { setDot("ok", "live"); };
  ws.onclose = function() { setDot("err", "offline"); };
  ws.onerror = function() { setDot("err", "error"); };
  ws.onmessage = function(ev) {
    try {
      var s = JSON.parse(ev.data).status;
      var el = document.getElementById("logging");
      el.textContent = s.logging;
      el.className = s.logging === "ON" ? "on" : "off";
      text("file", s.file.name + " (" + Math.floor(s.file.size_bytes / 1000) + "kb)" + (s.file_open ? " open" : ""));
      text("buffer", s.buffer.percent + "% of " + s.buffer.capacity + " bytes");
      text("overflow", s.buffer.overflow ? "yes" : "no");
      document.getElementById("overflow").className = s.buffer.overflow ? "warn" : "";
      text("message", s.message || "");
      var st = s.storage;
      text("storage", Math.floor((st.total_bytes - st.free_bytes) / 1e6) + "/" + Math.floor(st.total_bytes / 1e6) + "MB (" + st.used_percent + "%)");
    } catch (e) {}
  };
})();
</script>
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
