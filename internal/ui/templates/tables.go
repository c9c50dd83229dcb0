package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"sales-analytics/internal/models"
)

// Element ids patched by the SSE endpoints.
const (
	RegionsID   = "regions-content"
	ProductsID  = "products-content"
	CustomersID = "customers-content"
	DailyID     = "daily-content"
)

type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) raw(s string) {
	if hw.err != nil {
		return
	}
	_, hw.err = io.WriteString(hw.w, s)
}

func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

func (hw *htmlWriter) cell(s string) {
	hw.raw("<td>")
	hw.text(s)
	hw.raw("</td>")
}

func (hw *htmlWriter) header(cols ...string) {
	hw.raw("<thead><tr>")
	for _, c := range cols {
		hw.raw("<th>")
		hw.text(c)
		hw.raw("</th>")
	}
	hw.raw("</tr></thead><tbody>")
}

func money(currency string, v float64) string {
	return currency + humanize.FormatFloat("#,###.##", v)
}

func table(id string, cols []string, body func(hw *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<div id="` + id + `"><table class="modern-table">`)
		hw.header(cols...)
		body(hw)
		hw.raw("</tbody></table></div>")
		return hw.err
	})
}

func RegionsTable(regions []models.RegionStat, currency string) templ.Component {
	return table(RegionsID, []string{"Region", "Sales", "% of Total", "Transactions"}, func(hw *htmlWriter) {
		for _, rs := range regions {
			hw.raw("<tr>")
			hw.cell(rs.Region)
			hw.cell(money(currency, rs.TotalSales))
			hw.cell(fmt.Sprintf("%.2f%%", rs.Percentage))
			hw.cell(strconv.Itoa(rs.TransactionCount))
			hw.raw("</tr>")
		}
	})
}

func ProductsTable(products []models.ProductRank, currency string) templ.Component {
	return table(ProductsID, []string{"Rank", "Product Name", "Quantity", "Revenue"}, func(hw *htmlWriter) {
		for i, pr := range products {
			hw.raw("<tr>")
			hw.cell(strconv.Itoa(i + 1))
			hw.cell(pr.Name)
			hw.cell(strconv.Itoa(pr.TotalQuantity))
			hw.cell(money(currency, pr.TotalRevenue))
			hw.raw("</tr>")
		}
	})
}

func CustomersTable(customers []models.CustomerStat, currency string) templ.Component {
	return table(CustomersID, []string{"Rank", "Customer ID", "Total Spent", "Orders", "Average Order"}, func(hw *htmlWriter) {
		for i, cs := range customers {
			hw.raw("<tr>")
			hw.cell(strconv.Itoa(i + 1))
			hw.cell(cs.CustomerID)
			hw.cell(money(currency, cs.TotalSpent))
			hw.cell(strconv.Itoa(cs.PurchaseCount))
			hw.cell(money(currency, cs.AvgOrderValue))
			hw.raw("</tr>")
		}
	})
}

func DailyTable(days []models.DailyStat, currency string) templ.Component {
	return table(DailyID, []string{"Date", "Revenue", "Transactions", "Unique Customers"}, func(hw *htmlWriter) {
		for _, ds := range days {
			hw.raw("<tr>")
			hw.cell(ds.Date)
			hw.cell(money(currency, ds.Revenue))
			hw.cell(strconv.Itoa(ds.TransactionCount))
			hw.cell(strconv.Itoa(ds.DistinctCustomers))
			hw.raw("</tr>")
		}
	})
}
