package router

import (
	"time"

	tg "github.com/m3rciful/cardbot/core/telegram"
	"github.com/m3rciful/cardbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MessageRoutes sends every text and media message that is not a registered
// command to the registry's text fallback.
func MessageRoutes(reg *tg.Registry) []tg.Route {
	h := middleware.LoggerMiddleware(middleware.RecoverMiddleware(func(c tele.Context) error {
		var fallback tele.HandlerFunc
		if reg != nil {
			fallback = reg.TextFallback()
		}
		if fallback == nil {
			logSummary(c, "message", time.Now(), "skip", nil)
			return nil
		}
		return summarized(c, "message", func() error { return fallback(c) })
	}))

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: h},
		{Endpoint: tele.OnMedia, Handler: h},
	}
}
