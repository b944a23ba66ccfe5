package bot

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"GroceryLens/internal/model"
	"GroceryLens/internal/notifier"
	"GroceryLens/internal/recorder"
	"GroceryLens/internal/tracker"
	"GroceryLens/internal/view"
)

const dateLayout = "2006-01-02"

// journaledActions are the commands /stats reports on, in display order.
var journaledActions = []string{"catalog", "products", "quick", "quick-add", "set", "add", "compare", "history", "scan"}

func (h *Handler) catalog(ctx context.Context) (notifier.Reply, error) {
	listing, err := h.tracker.LoadCatalog(ctx)
	if err != nil {
		return notifier.Reply{}, err
	}
	return notifier.Reply{Text: view.FormatCatalog(listing)}, nil
}

func (h *Handler) products(ctx context.Context, prefix string) (notifier.Reply, error) {
	names, err := h.tracker.Suggestions(ctx, prefix)
	if err != nil {
		return notifier.Reply{}, err
	}
	return notifier.Reply{Text: view.FormatSuggestions(prefix, names)}, nil
}

func (h *Handler) quick(ctx context.Context) (notifier.Reply, error) {
	products, err := h.tracker.FrequentProducts(ctx)
	if err != nil {
		return notifier.Reply{}, err
	}
	reply := notifier.Reply{Text: view.FormatQuickAdd(products)}
	for _, p := range products {
		data := quickPrefix + p.Name
		if len(data) > maxCallbackData {
			h.log.Debug("quick-add name too long for a button")
			continue
		}
		reply.Buttons = append(reply.Buttons, notifier.Button{
			Text: fmt.Sprintf("%s @ %s", p.Name, p.Place),
			Data: data,
		})
	}
	return reply, nil
}

func (h *Handler) set(chatID int64, args string) (notifier.Reply, error) {
	field, value, _ := strings.Cut(args, " ")
	if field == "" {
		return notifier.Reply{}, &tracker.ValidationError{Field: "set", Message: "use /set <field> <value>"}
	}
	form := h.form(chatID)
	if err := form.Set(field, strings.TrimSpace(value)); err != nil {
		return notifier.Reply{}, err
	}
	return notifier.Reply{Text: view.FormatForm(*form)}, nil
}

// add submits the chat's form. Inline arguments "name; total price; units; place"
// replace the form's contents first.
func (h *Handler) add(ctx context.Context, chatID int64, args string) (notifier.Reply, error) {
	form := h.form(chatID)
	if args != "" {
		parts := strings.Split(args, ";")
		if len(parts) != 4 {
			return notifier.Reply{}, &tracker.ValidationError{Field: "add", Message: "use /add name; total price; units; place"}
		}
		*form = tracker.Form{Name: parts[0], TotalPrice: parts[1], Units: parts[2], Place: parts[3]}
	}

	res, err := h.tracker.AddProduct(ctx, form)
	if err != nil {
		return notifier.Reply{}, err
	}

	msg := res.Message
	if msg == "" {
		msg = "Product added"
	}
	var b strings.Builder
	b.WriteString("✅ " + html.EscapeString(msg) + "\n")
	b.WriteString(fmt.Sprintf("%s @ %s: %s for %s units\n",
		html.EscapeString(res.Product.Name), html.EscapeString(res.Product.Place),
		view.FormatPrice(res.Product.TotalPrice), res.Product.Units.String()))
	if res.RefreshErr != nil {
		b.WriteString("⚠️ Product lists could not be refreshed; they will reload on next use.")
	}
	return notifier.Reply{Text: strings.TrimRight(b.String(), "\n")}, nil
}

func (h *Handler) compare(ctx context.Context, args string) (notifier.Reply, error) {
	results, err := h.tracker.Compare(ctx, strings.Split(args, ","))
	if err != nil {
		return notifier.Reply{}, err
	}
	return notifier.Reply{
		Text:           view.FormatComparison(results),
		Document:       h.renderChart(view.ComparisonChart(results)),
		RemoveDocument: true,
	}, nil
}

func (h *Handler) history(ctx context.Context, args string) (notifier.Reply, error) {
	name, r, err := parseHistoryArgs(args)
	if err != nil {
		return notifier.Reply{}, err
	}
	report, err := h.tracker.History(ctx, name, r)
	if err != nil {
		return notifier.Reply{}, err
	}
	return notifier.Reply{
		Text:           view.FormatHistory(report),
		Document:       h.renderChart(view.HistoryChart(report.Product, report.Groups)),
		RemoveDocument: true,
	}, nil
}

// parseHistoryArgs reads "<name> [start] [end]". Up to two trailing
// YYYY-MM-DD tokens are dates; everything before them is the product name.
func parseHistoryArgs(args string) (string, model.DateRange, error) {
	fields := strings.Fields(args)
	var dates []time.Time
	for len(fields) > 1 && len(dates) < 2 {
		d, err := time.Parse(dateLayout, fields[len(fields)-1])
		if err != nil {
			break
		}
		dates = append([]time.Time{d}, dates...)
		fields = fields[:len(fields)-1]
	}

	var r model.DateRange
	switch len(dates) {
	case 2:
		r.Start, r.End = dates[0], dates[1]
	case 1:
		r.Start = dates[0]
	}
	name := strings.Join(fields, " ")
	if name == "" {
		return "", r, &tracker.ValidationError{Field: "product", Message: "use /history <name> [start YYYY-MM-DD] [end YYYY-MM-DD]"}
	}
	return name, r, nil
}

// stats summarizes the action journal per command and outcome.
func (h *Handler) stats() (notifier.Reply, error) {
	var b strings.Builder
	b.WriteString("📊 <b>Activity</b>\n\n")
	lines := 0
	for _, action := range journaledActions {
		counts, err := h.rec.CountByOutcome(action)
		if err != nil {
			return notifier.Reply{}, fmt.Errorf("journal stats: %w", err)
		}
		var parts []string
		for _, o := range recorder.Outcomes {
			if n := counts[o]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s %d", o, n))
			}
		}
		if len(parts) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", action, strings.Join(parts, ", ")))
		lines++
	}
	if lines == 0 {
		b.WriteString("Nothing journaled yet. Set journal.sqlite_path to keep a journal.")
	}
	return notifier.Reply{Text: strings.TrimRight(b.String(), "\n")}, nil
}
