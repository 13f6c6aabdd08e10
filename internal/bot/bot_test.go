package bot

import (
	"context"
	"testing"

	tg "github.com/m3rciful/cardbot/core/telegram"
	"github.com/m3rciful/cardbot/core/telegram/router"
	"github.com/m3rciful/cardbot/internal/gateway"

	tele "gopkg.in/telebot.v4"
)

type fakePipeline struct {
	started, handled []gateway.Message
}

func (f *fakePipeline) HandleStart(_ context.Context, msg gateway.Message, _ gateway.Replier) gateway.Outcome {
	f.started = append(f.started, msg)
	return gateway.OutcomeStarted
}

func (f *fakePipeline) HandleMessage(_ context.Context, msg gateway.Message, _ gateway.Replier) gateway.Outcome {
	f.handled = append(f.handled, msg)
	return gateway.OutcomeIgnored
}

func newContext(t *testing.T, upd tele.Update) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true, Synchronous: true})
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	return b.NewContext(upd)
}

func TestMessageHandlerBuildsMessage(t *testing.T) {
	p := &fakePipeline{}
	h := NewHandlers(p)
	c := newContext(t, tele.Update{ID: 55, Message: &tele.Message{
		Text:   "9860 1201 6331 9797",
		Chat:   &tele.Chat{ID: 100, Type: tele.ChatPrivate},
		Sender: &tele.User{ID: 7, Username: "vali", FirstName: "Vali"},
	}})

	if err := h.Message(c); err != nil {
		t.Fatalf("Message: %v", err)
	}
	if len(p.handled) != 1 {
		t.Fatalf("pipeline calls = %d", len(p.handled))
	}
	want := gateway.Message{UpdateID: 55, ChatID: 100, UserID: 7, Username: "vali", FirstName: "Vali", Text: "9860 1201 6331 9797"}
	if p.handled[0] != want {
		t.Fatalf("message = %+v", p.handled[0])
	}
	if got := router.HandlerOutcome(c); got != "ignored" {
		t.Fatalf("outcome = %q", got)
	}
}

func TestCaptionIsNotText(t *testing.T) {
	p := &fakePipeline{}
	c := newContext(t, tele.Update{ID: 1, Message: &tele.Message{
		Caption: "9860120163319797",
		Photo:   &tele.Photo{File: tele.File{FileID: "x"}},
		Chat:    &tele.Chat{ID: 1},
		Sender:  &tele.User{ID: 1},
	}})
	_ = NewHandlers(p).Message(c)
	if p.handled[0].Text != "" {
		t.Fatalf("caption leaked into text: %q", p.handled[0].Text)
	}
}

func TestRegisterWiresStartAndFallback(t *testing.T) {
	reg := tg.NewRegistry()
	if err := NewHandlers(&fakePipeline{}).Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, ok := reg.LookupCommand("/start"); !ok {
		t.Fatal("/start not registered")
	}
	if reg.TextFallback() == nil {
		t.Fatal("text fallback not set")
	}
	routes := Routes(reg)
	endpoints := map[any]bool{}
	for _, r := range routes {
		endpoints[r.Endpoint] = true
	}
	for _, ep := range []any{"/start", tele.OnText, tele.OnMedia} {
		if !endpoints[ep] {
			t.Fatalf("missing route %v", ep)
		}
	}
}

func TestMarkupFor(t *testing.T) {
	if markupFor(gateway.Reply{Text: "x"}) != nil {
		t.Fatal("plain reply should have no markup")
	}
	m := markupFor(gateway.Reply{JoinURL: "https://t.me/kimyonazarovuz", JoinTitle: "Obuna"})
	if m == nil || len(m.InlineKeyboard) != 1 || m.InlineKeyboard[0][0].URL != "https://t.me/kimyonazarovuz" {
		t.Fatalf("unexpected markup: %+v", m)
	}
}
