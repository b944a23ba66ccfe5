package view

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"GroceryLens/internal/model"
	"GroceryLens/internal/tracker"
)

// Telegram rejects messages longer than 4096 characters. Tables are cut to
// leave room for the text around them.
const (
	maxMessageRunes = 4000
	maxTableRunes   = 3200
	maxTableRows    = 40
	minTableRunes   = 200
)

// FormatCatalog renders the full price grid.
func FormatCatalog(listing model.CatalogListing) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🛒 <b>Price catalog</b> | %d products, %d places\n\n",
		len(listing.Products.Products), len(listing.Places)))
	if listing.Products.Len() == 0 {
		b.WriteString("No prices recorded yet. Use /add to enter one.")
		return b.String()
	}
	b.WriteString(RenderTable(CatalogTable(listing)))
	return b.String()
}

// FormatComparison renders the comparison table with colored trend markers.
func FormatComparison(results []model.ComparisonResult) string {
	var b strings.Builder
	b.WriteString("⚖️ <b>Product Comparison</b>\n\n")
	for i, r := range results {
		if utf8.RuneCountInString(b.String()) > maxMessageRunes-minTableRunes {
			b.WriteString(fmt.Sprintf("… and %d more products\n", len(results)-i))
			break
		}
		style := TrendStyleFor(r.PriceTrend)
		b.WriteString(fmt.Sprintf("%s <b>%s</b>: %s at %s (%s)\n   %s\n",
			style.Tone.Marker(),
			html.EscapeString(r.ProductName),
			FormatPrice(r.BestPricePerUnit),
			html.EscapeString(r.BestPlace),
			html.EscapeString(r.Date.String()),
			html.EscapeString(TrendCell(r))))
	}
	b.WriteString("\n")
	if budget := maxMessageRunes - utf8.RuneCountInString(b.String()); budget >= minTableRunes {
		b.WriteString(renderTable(ComparisonTable(results), min(budget, maxTableRunes)))
	}
	return b.String()
}

// FormatHistory renders the statistics card followed by the observations.
func FormatHistory(report tracker.HistoryReport) string {
	var b strings.Builder
	s := report.Stats
	b.WriteString(fmt.Sprintf("📈 <b>Price Statistics for %s</b>\n", html.EscapeString(report.Product)))
	if !report.Range.IsOpen() {
		b.WriteString(fmt.Sprintf("%s → %s\n", formatBound(report.Range.Start), formatBound(report.Range.End)))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Average Price: %s\n", FormatPrice(s.Average)))
	b.WriteString(fmt.Sprintf("Lowest Price: %s\n", FormatPrice(s.Min)))
	b.WriteString(fmt.Sprintf("Highest Price: %s\n", FormatPrice(s.Max)))
	b.WriteString(fmt.Sprintf("Price Trend: %s\n", s.Trend))
	b.WriteString(fmt.Sprintf("Observations: %d across %d places\n\n", s.Count, len(report.Groups)))
	b.WriteString(RenderTable(HistoryTable(report.Records)))
	return b.String()
}

// FormatSuggestions lists known product names for autocomplete.
func FormatSuggestions(prefix string, names []string) string {
	if len(names) == 0 {
		if prefix != "" {
			return fmt.Sprintf("No products start with %q.", html.EscapeString(prefix))
		}
		return "No products known yet."
	}
	var b strings.Builder
	b.WriteString("🔎 <b>Known products</b>\n")
	for _, n := range names {
		b.WriteString("• " + html.EscapeString(n) + "\n")
	}
	return b.String()
}

// FormatQuickAdd introduces the quick-add buttons.
func FormatQuickAdd(products []model.FrequentProduct) string {
	if len(products) == 0 {
		return "No frequent products yet."
	}
	var b strings.Builder
	b.WriteString("⚡ <b>Quick add</b> - tap a product to prefill the form, then send /add\n\n")
	for _, p := range products {
		b.WriteString(fmt.Sprintf("• %s @ %s: %s for %s units\n",
			html.EscapeString(p.Name), html.EscapeString(p.Place),
			FormatPrice(p.TotalPrice), p.Units.String()))
	}
	return b.String()
}

// FormatForm shows the pending add-product form.
func FormatForm(f tracker.Form) string {
	var b strings.Builder
	b.WriteString("📝 <b>Add product</b>\n")
	b.WriteString(fmt.Sprintf("name: %s\n", formField(f.Name)))
	b.WriteString(fmt.Sprintf("total_price: %s\n", formField(f.TotalPrice)))
	b.WriteString(fmt.Sprintf("units: %s\n", formField(f.Units)))
	b.WriteString(fmt.Sprintf("place: %s\n", formField(f.Place)))
	b.WriteString("\nEdit with /set &lt;field&gt; &lt;value&gt;, submit with /add.")
	return b.String()
}

// FormatHelp lists the available commands.
func FormatHelp() string {
	return strings.Join([]string{
		"🛒 <b>GroceryLens</b>",
		"",
		"/catalog - full price grid",
		"/products [prefix] - known product names",
		"/quick - frequent products to prefill the form",
		"/form - show the add-product form",
		"/set &lt;field&gt; &lt;value&gt; - edit a form field (name, total_price, units, place)",
		"/add [name; total price; units; place] - submit a price",
		"/reset - clear the form",
		"/compare a, b, … - best prices and trends",
		"/history &lt;name&gt; [start] [end] - statistics and chart (dates as YYYY-MM-DD)",
		"/stats - command outcomes from the local journal",
		"/scan - scan a barcode",
	}, "\n")
}

// RenderTable draws t as an aligned monospaced block, cut to fit a chat message.
func RenderTable(t Table) string {
	return renderTable(t, maxTableRunes)
}

// renderTable keeps as many leading rows as fit in budget runes and notes
// how many were left out.
func renderTable(t Table, budget int) string {
	widths := make([]int, len(t.Header))
	for i, h := range t.Header {
		widths[i] = utf8.RuneCountInString(h)
	}
	rows := t.Rows
	if len(rows) > maxTableRows {
		rows = rows[:maxTableRows]
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}

	var b strings.Builder
	b.WriteString("<pre>")
	header := formatRow(t.Header, widths)
	b.WriteString(header)
	used := utf8.RuneCountInString(header) + len("<pre></pre>") + len("\n… and 0000 more rows")
	shown := 0
	for _, row := range rows {
		line := formatRow(row, widths)
		n := utf8.RuneCountInString(line)
		if used+n > budget {
			break
		}
		b.WriteString(line)
		used += n
		shown++
	}
	b.WriteString("</pre>")
	if hidden := len(t.Rows) - shown; hidden > 0 {
		b.WriteString(fmt.Sprintf("\n… and %d more rows", hidden))
	}
	return b.String()
}

func formatRow(cells []string, widths []int) string {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(html.EscapeString(cell))
		if i < len(cells)-1 && i < len(widths) {
			b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)))
		}
	}
	b.WriteString("\n")
	return b.String()
}

func formField(v string) string {
	if strings.TrimSpace(v) == "" {
		return "<i>empty</i>"
	}
	return html.EscapeString(v)
}

func formatBound(d time.Time) string {
	if d.IsZero() {
		return "…"
	}
	return d.Format("2006-01-02")
}
