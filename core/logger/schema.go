package logger

import (
	"log/slog"
	"slices"
	"strings"
)

// levelByName accepts the spellings allowed in logging.level.
var levelByName = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

func parseLevel(s string) (slog.Level, bool) {
	l, ok := levelByName[strings.ToLower(strings.TrimSpace(s))]
	return l, ok
}

// levelName renders the four standard levels as DEBUG, INFO, WARN and ERROR;
// anything in between keeps slog's offset notation.
func levelName(l slog.Level) string {
	switch l {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	}
	return l.String()
}

// outcomes is the closed set of values kept under the "outcome" key.
var outcomes = []string{"ok", "fail", "skip", "cancelled"}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

func normalizeOutcome(outcome string) (string, bool) {
	o := strings.ToLower(strings.TrimSpace(outcome))
	return o, slices.Contains(outcomes, o)
}

// Key groups in output order. Keys outside the order follow alphabetically.
var (
	headerKeys  = []string{"ts", "level", "component", "event", "status"}
	updateKeys  = []string{"rid", "rid_full", "ts_unix_nano", "update_id", "user_id", "chat_id", "chat_type"}
	handlerKeys = []string{"handler", "outcome", "card_outcome", "duration_ms", "messages", "kb"}
	cardKeys    = []string{"card", "bank", "lookup_status"}
	httpKeys    = []string{"request_id", "http_code", "method", "path", "bytes"}
	wiringKeys  = []string{"username", "mode", "listen", "public_url", "schedule", "driver", "db", "host", "port", "count"}
	errorKeys   = []string{"err", "err_code", "error_kind", "cause", "attempts"}
)

var defaultKeyOrder = slices.Concat(headerKeys, updateKeys, handlerKeys, cardKeys, httpKeys, wiringKeys, errorKeys)
