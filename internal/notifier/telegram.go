package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Telegram allows roughly 30 messages per second per bot.
const (
	sendRate  = 25
	sendBurst = 5
)

// Button is an inline keyboard button. Data is handed back on press.
type Button struct {
	Text string
	Data string
}

// Reply is a chat response: HTML text, optional buttons (one per row) and an
// optional file attached after the text.
type Reply struct {
	Text     string
	Buttons  []Button
	Document string
	// RemoveDocument deletes Document once SendWithRetry is done with it,
	// whether or not it was delivered.
	RemoveDocument bool
}

// IsEmpty reports whether there is nothing to send.
func (r Reply) IsEmpty() bool {
	return r.Text == "" && r.Document == ""
}

// botAPI is the part of *tgbotapi.BotAPI the notifier uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// TelegramNotifier delivers replies through the Telegram Bot API.
type TelegramNotifier struct {
	api        botAPI
	chatID     int64
	limiter    *rate.Limiter
	newBackOff func() backoff.BackOff
	log        *zap.Logger
}

// NewTelegramNotifier connects to the Bot API, optionally through an HTTP proxy.
// chatID is the default destination used by Notify.
func NewTelegramNotifier(botToken string, chatID int64, proxyURL string, log *zap.Logger) (*TelegramNotifier, error) {
	transport := &http.Transport{}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	client := &http.Client{Timeout: 60 * time.Second, Transport: transport}

	api, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("telegram bot authorized", zap.String("username", api.Self.UserName))
	return newTelegramNotifier(api, chatID, log), nil
}

func newTelegramNotifier(api botAPI, chatID int64, log *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		api:     api,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(sendRate), sendBurst),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = 30 * time.Second
			return b
		},
		log: log,
	}
}

// Send delivers r to chatID once.
func (t *TelegramNotifier) Send(ctx context.Context, chatID int64, r Reply) error {
	if r.Text != "" {
		if err := t.sendText(ctx, chatID, r); err != nil {
			return err
		}
	}
	if r.Document != "" {
		return t.sendDocument(ctx, chatID, r)
	}
	return nil
}

// SendWithRetry sends r with exponential backoff. The text and the document
// are retried separately so a delivered part is never sent twice. Requests the
// Bot API rejects as malformed are not retried.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, chatID int64, r Reply, maxRetries int) error {
	if r.Document != "" && r.RemoveDocument {
		defer t.removeDocument(r.Document)
	}
	if r.Text != "" {
		if err := t.retry(ctx, "message", maxRetries, func() error { return t.sendText(ctx, chatID, r) }); err != nil {
			return err
		}
	}
	if r.Document != "" {
		if err := t.retry(ctx, "document", maxRetries, func() error { return t.sendDocument(ctx, chatID, r) }); err != nil {
			return err
		}
	}
	return nil
}

func (t *TelegramNotifier) retry(ctx context.Context, part string, maxRetries int, send func() error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := send()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || isPermanent(err) {
			return backoff.Permanent(err)
		}
		t.log.Warn("telegram send failed",
			zap.String("part", part),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxRetries+1),
			zap.Error(err))
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(t.newBackOff(), uint64(maxRetries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return fmt.Errorf("telegram %s after %d attempts: %w", part, attempt, err)
	}
	return nil
}

func (t *TelegramNotifier) removeDocument(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		t.log.Warn("remove sent document", zap.String("path", path), zap.Error(err))
	}
}

func (t *TelegramNotifier) sendText(ctx context.Context, chatID int64, r Reply) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, r.Text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if len(r.Buttons) > 0 {
		msg.ReplyMarkup = keyboard(r.Buttons)
	}
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (t *TelegramNotifier) sendDocument(ctx context.Context, chatID int64, r Reply) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(r.Document))
	if _, err := t.api.Send(doc); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}

// Notify sends r to the default chat.
func (t *TelegramNotifier) Notify(ctx context.Context, r Reply) error {
	return t.SendWithRetry(ctx, t.chatID, r, 3)
}

func keyboard(buttons []Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, len(buttons))
	for i, b := range buttons {
		rows[i] = tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// isPermanent reports Bot API errors that will fail the same way again.
func isPermanent(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests
}
