package middleware

import (
	"errors"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func newOfflineBot(t *testing.T, onError func(error, tele.Context)) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{
		Token:       "123:abc",
		Offline:     true,
		Synchronous: true,
		OnError:     onError,
	})
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	return b
}

func textUpdate(id int, text string) tele.Update {
	return tele.Update{ID: id, Message: &tele.Message{
		ID:     id,
		Text:   text,
		Chat:   &tele.Chat{ID: 100, Type: tele.ChatPrivate},
		Sender: &tele.User{ID: 7},
	}}
}

func TestRecoverMiddlewareReturnsError(t *testing.T) {
	b := newOfflineBot(t, nil)
	c := b.NewContext(textUpdate(1, "9860120112345678"))

	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(c)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected panic turned into error, got %v", err)
	}

	want := errors.New("plain")
	if got := RecoverMiddleware(func(tele.Context) error { return want })(c); !errors.Is(got, want) {
		t.Fatalf("handler error should pass through, got %v", got)
	}
}

func TestPanickingUpdateDoesNotStopNextOne(t *testing.T) {
	var errs []error
	b := newOfflineBot(t, func(err error, _ tele.Context) { errs = append(errs, err) })

	var handled []string
	b.Handle(tele.OnText, LoggerMiddleware(RecoverMiddleware(func(c tele.Context) error {
		if c.Text() == "panic" {
			panic("nil lookup result")
		}
		handled = append(handled, c.Text())
		return nil
	})))

	b.ProcessUpdate(textUpdate(1, "panic"))
	b.ProcessUpdate(textUpdate(2, "9860120112345678"))

	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "handler panic") {
		t.Fatalf("errors = %v", errs)
	}
	if len(handled) != 1 || handled[0] != "9860120112345678" {
		t.Fatalf("handled = %v", handled)
	}
}
