package middleware

import (
	tghelpers "github.com/m3rciful/cardbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// MessageMetricsMiddleware resets the per-update reply counters maintained by the send helpers.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(tghelpers.MessagesKey, 0)
		c.Set(tghelpers.KeyboardKey, false)
		return next(c)
	}
}

// GetCounters reads message count and keyboard presence flags from context.
func GetCounters(c tele.Context) (int, bool) {
	msgs, _ := c.Get(tghelpers.MessagesKey).(int)
	kb, _ := c.Get(tghelpers.KeyboardKey).(bool)
	return msgs, kb
}
