package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

const dashboardStyle = `
body{font-family:system-ui,sans-serif;margin:0;background:#f5f6f8;color:#1f2933}
header{background:#1f2933;color:#fff;padding:1rem 2rem;display:flex;justify-content:space-between;align-items:center}
main{display:grid;grid-template-columns:repeat(auto-fit,minmax(420px,1fr));gap:1.5rem;padding:1.5rem 2rem}
section{background:#fff;border-radius:8px;padding:1rem 1.25rem;box-shadow:0 1px 3px rgba(0,0,0,.08)}
.kpis{display:flex;gap:2rem}
.kpi span{display:block;font-size:.75rem;text-transform:uppercase;opacity:.7}
.modern-table{width:100%;border-collapse:collapse;font-size:.9rem}
.modern-table th,.modern-table td{padding:.4rem .6rem;border-bottom:1px solid #e4e7eb;text-align:left}
button{background:#3e7bfa;color:#fff;border:0;border-radius:4px;padding:.5rem 1rem;cursor:pointer}
`

type panel struct {
	title string
	id    string
}

var panels = []panel{
	{title: "Region-wise Performance", id: RegionsID},
	{title: "Top Products", id: ProductsID},
	{title: "Top Customers", id: CustomersID},
	{title: "Daily Sales Trend", id: DailyID},
}

// Dashboard is the single page of the web UI. Every panel starts empty and
// is filled by the /sse/refresh-all stream once Datastar initializes.
func Dashboard(title string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		hw.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.raw("<title>")
		hw.text(title)
		hw.raw("</title>")
		hw.raw(`<script type="module" src="` + datastarScript + `"></script>`)
		hw.raw("<style>" + dashboardStyle + "</style></head>")

		hw.raw(`<body data-signals="{summary: {total_revenue: 0, transaction_count: 0, average_order_value: 0}, peakDay: {date: '', revenue: 0}}" data-init="@get('/sse/refresh-all')">`)
		hw.raw("<header><h1>")
		hw.text(title)
		hw.raw("</h1>")
		hw.raw(`<div class="kpis">`)
		hw.raw(`<div class="kpi"><span>Revenue</span><strong data-text="$summary.total_revenue.toLocaleString()"></strong></div>`)
		hw.raw(`<div class="kpi"><span>Transactions</span><strong data-text="$summary.transaction_count"></strong></div>`)
		hw.raw(`<div class="kpi"><span>Average Order</span><strong data-text="$summary.average_order_value.toLocaleString()"></strong></div>`)
		hw.raw(`<div class="kpi"><span>Best Day</span><strong data-text="$peakDay.date || 'None'"></strong></div>`)
		hw.raw("</div>")
		hw.raw(`<div><button data-on:click="@get('/sse/refresh-all')">Refresh</button> `)
		hw.raw(`<a href="/api/export.xlsx"><button type="button">Export xlsx</button></a></div>`)
		hw.raw("</header><main>")

		for _, p := range panels {
			hw.raw("<section><h2>")
			hw.text(p.title)
			hw.raw(`</h2><div id="` + p.id + `">Loading...</div></section>`)
		}

		hw.raw("</main></body></html>")
		return hw.err
	})
}
