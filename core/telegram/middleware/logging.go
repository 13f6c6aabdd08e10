package middleware

import (
	"log/slog"
	"time"

	"github.com/m3rciful/cardbot/core/logger"
	tghelpers "github.com/m3rciful/cardbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const (
	ridKey   = "rid"
	startKey = "update_start"
)

// LoggerMiddleware attaches the request id and a logging context to the
// update, then logs its receipt. Applying it twice to the same update is a
// no-op. Message text is never logged; it may carry a card number.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if _, seen := c.Get(ridKey).(string); seen {
			return next(c)
		}

		chatID, userID := tghelpers.IDs(c)
		c.Set(ridKey, logger.BuildRID(c.Update().ID, chatID, userID))
		c.Set(startKey, time.Now())
		ctx := tghelpers.BuildContext(c)

		if logger.ShouldSampleDebug() {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", updateAttrs(c)...)
		}
		return next(c)
	}
}

// Received reports when LoggerMiddleware first saw the update.
func Received(c tele.Context) (time.Time, bool) {
	ts, ok := c.Get(startKey).(time.Time)
	return ts, ok
}

func updateAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.Int("update_id", c.Update().ID)}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if u := c.Sender(); u != nil && u.Username != "" {
		attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
	}
	if msg := c.Message(); msg != nil {
		attrs = append(attrs, slog.Int("text_len", len([]rune(msg.Text))))
		if m := msg.Media(); m != nil {
			attrs = append(attrs, slog.String("media", m.MediaType()))
		}
	}
	return attrs
}
