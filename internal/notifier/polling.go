package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// undeliveredNotice replaces a reply the Bot API would not accept.
const undeliveredNotice = "❌ The reply could not be delivered. Please try a narrower request."

// Handler turns incoming chat input into replies.
type Handler interface {
	HandleCommand(ctx context.Context, chatID int64, text string) Reply
	HandleCallback(ctx context.Context, chatID int64, data string) Reply
}

// StartPolling long-polls for updates and dispatches them to h one at a time.
// Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, h Handler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			t.log.Info("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.dispatch(ctx, h, update)
		}
	}
}

func (t *TelegramNotifier) dispatch(ctx context.Context, h Handler, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("update handler panicked", zap.Int("update_id", update.UpdateID), zap.Any("panic", r))
		}
	}()

	var (
		chatID int64
		reply  Reply
	)
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if _, err := t.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			t.log.Warn("answer callback", zap.Error(err))
		}
		if cb.Message == nil {
			return
		}
		chatID = cb.Message.Chat.ID
		t.log.Info("received callback", zap.Int64("chat_id", chatID), zap.String("data", cb.Data))
		reply = h.HandleCallback(ctx, chatID, cb.Data)
	case update.Message != nil && strings.TrimSpace(update.Message.Text) != "":
		chatID = update.Message.Chat.ID
		text := strings.TrimSpace(update.Message.Text)
		t.log.Info("received command", zap.Int64("chat_id", chatID), zap.String("text", text))
		reply = h.HandleCommand(ctx, chatID, text)
	default:
		return
	}

	if reply.IsEmpty() {
		return
	}
	if err := t.SendWithRetry(ctx, chatID, reply, 2); err != nil {
		t.log.Error("send reply", zap.Int64("chat_id", chatID), zap.Error(err))
		if ctx.Err() != nil {
			return
		}
		if err := t.Send(ctx, chatID, Reply{Text: undeliveredNotice}); err != nil {
			t.log.Error("send delivery notice", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}
