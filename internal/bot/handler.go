package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"
	"unicode"

	"GroceryLens/internal/calculator"
	"GroceryLens/internal/chart"
	"GroceryLens/internal/dataservice"
	"GroceryLens/internal/notifier"
	"GroceryLens/internal/recorder"
	"GroceryLens/internal/tracker"
	"GroceryLens/internal/view"

	"go.uber.org/zap"
)

// quickPrefix marks callback data produced by the quick-add keyboard.
const quickPrefix = "quick:"

// Telegram rejects callback data longer than this.
const maxCallbackData = 64

// Handler maps chat commands onto tracker operations. Each chat has its own
// add-product form.
type Handler struct {
	tracker *tracker.Tracker
	charts  chart.Renderer
	rec     recorder.Recorder
	log     *zap.Logger

	mu    sync.Mutex
	forms map[int64]*tracker.Form
}

var _ notifier.Handler = (*Handler)(nil)

// NewHandler creates a Handler. charts may be nil to skip chart files.
func NewHandler(t *tracker.Tracker, charts chart.Renderer, rec recorder.Recorder, log *zap.Logger) *Handler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		tracker: t,
		charts:  charts,
		rec:     rec,
		log:     log,
		forms:   make(map[int64]*tracker.Form),
	}
}

// HandleCommand runs one slash command and returns the reply to send.
func (h *Handler) HandleCommand(ctx context.Context, chatID int64, text string) notifier.Reply {
	cmd, args := splitCommand(text)
	switch cmd {
	case "/start", "/help":
		return notifier.Reply{Text: view.FormatHelp()}
	case "/catalog":
		return h.run(ctx, chatID, "catalog", "", func() (notifier.Reply, error) {
			return h.catalog(ctx)
		})
	case "/products":
		return h.run(ctx, chatID, "products", args, func() (notifier.Reply, error) {
			return h.products(ctx, args)
		})
	case "/quick":
		return h.run(ctx, chatID, "quick", "", func() (notifier.Reply, error) {
			return h.quick(ctx)
		})
	case "/form":
		return notifier.Reply{Text: view.FormatForm(*h.form(chatID))}
	case "/set":
		return h.run(ctx, chatID, "set", args, func() (notifier.Reply, error) {
			return h.set(chatID, args)
		})
	case "/add":
		return h.run(ctx, chatID, "add", args, func() (notifier.Reply, error) {
			return h.add(ctx, chatID, args)
		})
	case "/reset":
		h.form(chatID).Reset()
		return notifier.Reply{Text: "Form cleared.\n\n" + view.FormatForm(*h.form(chatID))}
	case "/compare":
		return h.run(ctx, chatID, "compare", args, func() (notifier.Reply, error) {
			return h.compare(ctx, args)
		})
	case "/history":
		return h.run(ctx, chatID, "history", args, func() (notifier.Reply, error) {
			return h.history(ctx, args)
		})
	case "/stats":
		return h.run(ctx, chatID, "stats", "", h.stats)
	case "/scan":
		return h.run(ctx, chatID, "scan", "", func() (notifier.Reply, error) {
			return notifier.Reply{}, h.tracker.ScanBarcode()
		})
	default:
		return notifier.Reply{Text: "Unknown command. Send /help for the list of commands."}
	}
}

// HandleCallback handles inline button presses.
func (h *Handler) HandleCallback(ctx context.Context, chatID int64, data string) notifier.Reply {
	name, ok := strings.CutPrefix(data, quickPrefix)
	if !ok {
		h.log.Warn("unknown callback", zap.String("data", data))
		return notifier.Reply{Text: "This button is no longer supported."}
	}
	return h.run(ctx, chatID, "quick-add", name, func() (notifier.Reply, error) {
		form := h.form(chatID)
		p, err := h.tracker.QuickAdd(ctx, form, name)
		if err != nil {
			return notifier.Reply{}, err
		}
		return notifier.Reply{Text: fmt.Sprintf("Prefilled from %s.\n\n%s",
			html.EscapeString(p.Name), view.FormatForm(*form))}, nil
	})
}

// Form returns a copy of chatID's pending form.
func (h *Handler) Form(chatID int64) tracker.Form {
	return *h.form(chatID)
}

func (h *Handler) form(chatID int64) *tracker.Form {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.forms[chatID]
	if !ok {
		f = &tracker.Form{}
		h.forms[chatID] = f
	}
	return f
}

// run executes fn, turns a failure into a notification and journals the action.
func (h *Handler) run(ctx context.Context, chatID int64, action, subject string, fn func() (notifier.Reply, error)) (reply notifier.Reply) {
	start := time.Now()
	outcome := recorder.OutcomeOK
	detail := ""

	defer func() {
		if r := recover(); r != nil {
			h.log.Error("command panicked", zap.String("action", action), zap.Any("panic", r))
			outcome, detail = recorder.OutcomeInternal, fmt.Sprint(r)
			reply = notifier.Reply{Text: "❌ Something went wrong. Please try again."}
		}
		evt := &recorder.ActionEvent{
			At:       start,
			ChatID:   chatID,
			Action:   action,
			Subject:  subject,
			Outcome:  outcome,
			Detail:   detail,
			Duration: time.Since(start),
		}
		if err := h.rec.RecordAction(evt); err != nil {
			h.log.Warn("journal action", zap.Error(err))
		}
	}()

	reply, err := fn()
	if err == nil {
		return reply
	}
	text, class := describeError(err)
	outcome, detail = class, err.Error()
	h.logFailure(action, subject, class, err)
	return notifier.Reply{Text: text}
}

func (h *Handler) logFailure(action, subject string, class recorder.Outcome, err error) {
	fields := []zap.Field{zap.String("action", action), zap.String("subject", subject), zap.String("class", string(class)), zap.Error(err)}
	switch class {
	case recorder.OutcomeTransport, recorder.OutcomeInternal:
		h.log.Error("command failed", fields...)
	case recorder.OutcomeService:
		h.log.Warn("command rejected by data service", fields...)
	default:
		h.log.Info("command not completed", fields...)
	}
}

// describeError maps an error onto the user-facing notification and its class.
func describeError(err error) (string, recorder.Outcome) {
	var (
		verr *tracker.ValidationError
		serr *dataservice.ServiceError
		terr *dataservice.TransportError
	)
	switch {
	case errors.As(err, &verr):
		return fmt.Sprintf("⚠️ %s: %s", html.EscapeString(verr.Field), html.EscapeString(verr.Message)), recorder.OutcomeValidation
	case errors.As(err, &serr):
		return "❌ " + html.EscapeString(serr.Message), recorder.OutcomeService
	case errors.As(err, &terr):
		return "❌ Could not reach the price service. Please try again later.", recorder.OutcomeTransport
	case errors.Is(err, calculator.ErrEmptyHistory):
		return "No price history found for the selected product and dates.", recorder.OutcomeEmpty
	case errors.Is(err, tracker.ErrNotImplemented):
		return "🚧 Barcode scanning feature not implemented yet.", recorder.OutcomeStub
	default:
		return "❌ Something went wrong. Please try again.", recorder.OutcomeInternal
	}
}

// renderChart draws c and returns the file path, or "" when charts are off or
// drawing failed. A chart is never worth failing the reply for.
func (h *Handler) renderChart(c chart.Chart) string {
	if h.charts == nil {
		return ""
	}
	path, err := h.charts.Render(c)
	if err != nil {
		h.log.Warn("render chart", zap.String("target", c.Target), zap.Error(err))
		return ""
	}
	return path
}

// splitCommand separates "/cmd@bot rest" into "/cmd" and "rest".
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	head, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		head, rest = text[:i], text[i:]
	}
	if i := strings.IndexByte(head, '@'); i > 0 {
		head = head[:i]
	}
	return strings.ToLower(head), strings.TrimSpace(rest)
}
