package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/cardbot/core/logger"
	"github.com/m3rciful/cardbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Context keys holding per-update reply counters.
const (
	MessagesKey = "messages"
	KeyboardKey = "kb"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func countReply(c tele.Context, hasKB bool) {
	n, _ := c.Get(MessagesKey).(int)
	c.Set(MessagesKey, n+1)
	if hasKB {
		c.Set(KeyboardKey, true)
	}
}

// sendAsync hands run to the dispatcher keyed by chat so replies keep their order.
// Without a dispatcher, or once it is closed and drained, run executes inline.
// A job the queue still refuses after waiting is dropped: sending it inline
// would overtake the chat's queued replies.
func sendAsync(c tele.Context, action, endpoint string, hasKB bool, run func() error) error {
	countReply(c, hasKB)
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	chatID, _ := IDs(c)
	err := disp.Enqueue(ctx, chatID, action, endpoint, run)
	switch {
	case errors.Is(err, sender.ErrQueueClosed):
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	case errors.Is(err, sender.ErrQueueFull):
		logger.Error(ctx, "tg.sender", "queue.drop",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
	}
	return err
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	hasKB := sendOpts != nil && sendOpts.ReplyMarkup != nil
	return sendAsync(c, "send.text", "sendMessage", hasKB, func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendHTML sends a message with HTML parse mode and optional reply markup.
func SendHTML(c tele.Context, text string, disablePreview bool, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	return SendText(c, text, &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		ReplyMarkup:           rm,
		DisableWebPagePreview: disablePreview,
	})
}
