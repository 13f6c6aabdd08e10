package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestWebhookHandler(t *testing.T) {
	var got []tele.Update
	h := WebhookHandler("hook-secret", func(u tele.Update) { got = append(got, u) })

	post := func(secret, body string) int {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
		if secret != "" {
			req.Header.Set(secretHeader, secret)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := post("", `{"update_id":1}`); code != http.StatusUnauthorized {
		t.Fatalf("missing secret: %d", code)
	}
	if code := post("hook-secret", `{`); code != http.StatusBadRequest {
		t.Fatalf("bad body: %d", code)
	}
	if code := post("hook-secret", `{"update_id":42,"message":{"message_id":1,"text":"9860120163319797","chat":{"id":100,"type":"private"}}}`); code != http.StatusOK {
		t.Fatalf("valid update: %d", code)
	}
	if len(got) != 1 || got[0].ID != 42 || got[0].Message == nil || got[0].Message.Text != "9860120163319797" {
		t.Fatalf("processed = %+v", got)
	}
}
