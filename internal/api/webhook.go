package api

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/m3rciful/cardbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler accepts Telegram updates and hands them to process.
// When secret is set, requests must carry it in the Telegram secret header.
func WebhookHandler(secret string, process func(tele.Update)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(secretHeader)), []byte(secret)) != 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var upd tele.Update
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&upd); err != nil {
			logger.Warn(r.Context(), "http", "webhook.decode_failed",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		process(upd)
		w.WriteHeader(http.StatusOK)
	})
}
