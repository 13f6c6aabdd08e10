package router

import (
	"strings"
	"testing"

	tg "github.com/m3rciful/cardbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

func TestMessageRoutesRecoverFromFallbackPanic(t *testing.T) {
	var errs []error
	b, err := tele.NewBot(tele.Settings{
		Token:       "123:abc",
		Offline:     true,
		Synchronous: true,
		OnError:     func(err error, _ tele.Context) { errs = append(errs, err) },
	})
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}

	var handled []string
	reg := tg.NewRegistry()
	reg.SetTextFallback(func(c tele.Context) error {
		if c.Text() == "panic" {
			panic("boom")
		}
		handled = append(handled, c.Text())
		return nil
	})
	for _, r := range MessageRoutes(reg) {
		b.Handle(r.Endpoint, r.Handler)
	}

	for i, text := range []string{"panic", "9860120112345678"} {
		b.ProcessUpdate(tele.Update{ID: i + 1, Message: &tele.Message{
			ID:     i + 1,
			Text:   text,
			Chat:   &tele.Chat{ID: 100, Type: tele.ChatPrivate},
			Sender: &tele.User{ID: 7},
		}})
	}

	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "boom") {
		t.Fatalf("errors = %v", errs)
	}
	if len(handled) != 1 || handled[0] != "9860120112345678" {
		t.Fatalf("handled = %v", handled)
	}
}
