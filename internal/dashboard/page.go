package dashboard

import (
	"fmt"
	"html/template"

	"lsratio-go/internal/monitor"
	"lsratio-go/internal/signal"
)

type pageView struct {
	Title       string
	Caption     string
	RefreshedAt string
	Rows        []rowView
}

type rowView struct {
	Symbol string
	Long   string
	Short  string
	Class  string
	Banner string
	Err    string
}

func newPageView(title, caption string, snap monitor.Snapshot, ok bool) pageView {
	view := pageView{Title: title, Caption: caption, RefreshedAt: "waiting for first refresh"}
	if !ok {
		return view
	}
	view.RefreshedAt = snap.StartedAt.Format("15:04:05")
	view.Rows = make([]rowView, 0, len(snap.Readings))
	for _, r := range snap.Readings {
		view.Rows = append(view.Rows, newRowView(r))
	}
	return view
}

func newRowView(r signal.Reading) rowView {
	return rowView{
		Symbol: r.Symbol,
		Long:   fmt.Sprintf("%.2f", r.LongPct),
		Short:  fmt.Sprintf("%.2f", r.ShortPct),
		Class:  string(r.Class),
		Banner: r.Class.Banner(),
		Err:    r.Err,
	}
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { background: #0E1117; color: #FAFAFA; font-family: Arial, sans-serif; margin: 2rem; }
.caption { color: #9CA3AF; }
.row { display: flex; align-items: center; margin: 1rem 0; }
.label { width: 16rem; }
.label h3 { margin: 0; }
.banner { font-size: .9rem; padding: .2rem .4rem; border-radius: .25rem; display: inline-block; margin-top: .3rem; }
.banner.extreme_long { background: #7C2D12; }
.banner.extreme_short { background: #14532D; }
.banner.unavailable { background: #7F1D1D; }
.bar { flex: 1; display: flex; height: 2.5rem; border-radius: .3rem; overflow: hidden; }
.seg { display: flex; align-items: center; justify-content: center; color: #FFF; font-size: .9rem; white-space: nowrap; }
.short { background: #FF4B4B; }
.long { background: #00CC96; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Caption}}<p class="caption">{{.Caption}}</p>{{end}}
<p>Last refreshed: <span id="refreshed">{{.RefreshedAt}}</span></p>
<div id="rows">
{{range .Rows}}
<div class="row">
  <div class="label">
    <h3>{{.Symbol}}</h3>
    {{if .Banner}}<span class="banner {{.Class}}" title="{{.Err}}">{{.Banner}}</span>{{end}}
  </div>
  <div class="bar">
    <div class="seg short" style="width: {{.Short}}%">Short {{.Short}}%</div>
    <div class="seg long" style="width: {{.Long}}%">Long {{.Long}}%</div>
  </div>
</div>
{{end}}
</div>
<script>
(function () {
  var banners = {extreme_long: "Extreme long (contrarian warning)", extreme_short: "Extreme short (contrarian warning)", unavailable: "API error"};
  function esc(s) { var d = document.createElement("div"); d.textContent = s || ""; return d.innerHTML; }
  function render(snap) {
    document.getElementById("refreshed").textContent = new Date(snap.started_at).toLocaleTimeString();
    var html = "";
    (snap.readings || []).forEach(function (r) {
      var l = r.long_pct.toFixed(2), s = r.short_pct.toFixed(2), b = banners[r.classification];
      html += '<div class="row"><div class="label"><h3>' + esc(r.symbol) + '</h3>' +
        (b ? '<span class="banner ' + r.classification + '" title="' + esc(r.error) + '">' + b + '</span>' : '') +
        '</div><div class="bar"><div class="seg short" style="width:' + s + '%">Short ' + s + '%</div>' +
        '<div class="seg long" style="width:' + l + '%">Long ' + l + '%</div></div></div>';
    });
    document.getElementById("rows").innerHTML = html;
  }
  function connect() {
    var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
    ws.onmessage = function (ev) { render(JSON.parse(ev.data)); };
    ws.onclose = function () { setTimeout(connect, 3000); };
  }
  connect();
})();
</script>
</body>
</html>
`))
