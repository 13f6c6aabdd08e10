package router

import (
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/cardbot/core/logger"
	tghelpers "github.com/m3rciful/cardbot/core/telegram/helpers"
	"github.com/m3rciful/cardbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

const outcomeKey = "handler_outcome"

// SetHandlerOutcome records the domain outcome reported in the handler summary.
func SetHandlerOutcome(c tele.Context, outcome string) {
	c.Set(outcomeKey, outcome)
}

// HandlerOutcome returns the value stored by SetHandlerOutcome.
func HandlerOutcome(c tele.Context) string {
	s, _ := c.Get(outcomeKey).(string)
	return s
}

// summarized runs fn as the named handler and logs one handler.handled line.
func summarized(c tele.Context, name string, fn func() error) error {
	tghelpers.WithHandler(c, name)
	start, ok := middleware.Received(c)
	if !ok {
		start = time.Now()
	}
	err := fn()
	logSummary(c, name, start, logger.Status(err), err)
	return err
}

func logSummary(c tele.Context, name string, start time.Time, status string, err error) {
	ctx := tghelpers.WithHandler(c, name)
	msgs, kb := middleware.GetCounters(c)

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", name),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", logger.Took(start)),
	}
	if outcome := HandlerOutcome(c); outcome != "" {
		attrs = append(attrs, slog.String("card_outcome", outcome))
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "handler.handled", attrs...)
}

// handlerName turns "/Start" or " Card In" into "start" and "card_in".
func handlerName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}

// errorCode prefers an explicit Code() and falls back to the error type name.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if c, ok := err.(interface{ Code() string }); ok {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.Join(strings.Fields(code), "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
