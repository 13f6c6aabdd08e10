package router

import (
	"log/slog"

	"github.com/m3rciful/cardbot/core/logger"
	tg "github.com/m3rciful/cardbot/core/telegram"
	"github.com/m3rciful/cardbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes turns every registered command, and each of its aliases,
// into a route wrapped with logging and panic recovery.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}

	var routes []tg.Route
	for endpoint, def := range reg.Commands() {
		name, run := handlerName(endpoint), def.Handler
		h := middleware.LoggerMiddleware(middleware.RecoverMiddleware(func(c tele.Context) error {
			return summarized(c, name, func() error { return run(c) })
		}))

		routes = append(routes, tg.Route{Endpoint: endpoint, Handler: h})
		for _, alias := range def.Aliases {
			routes = append(routes, tg.Route{Endpoint: "/" + handlerName(alias), Handler: h})
		}
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "commands.routed"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("routes", len(routes)),
	)
	return routes
}
