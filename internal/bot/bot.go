// Package bot adapts telebot updates to the gateway pipeline.
package bot

import (
	"context"

	tg "github.com/m3rciful/cardbot/core/telegram"
	"github.com/m3rciful/cardbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/cardbot/core/telegram/helpers"
	"github.com/m3rciful/cardbot/core/telegram/keyboard"
	"github.com/m3rciful/cardbot/core/telegram/router"
	"github.com/m3rciful/cardbot/internal/gateway"

	tele "gopkg.in/telebot.v4"
)

// Pipeline is the part of the gateway the handlers drive.
type Pipeline interface {
	HandleStart(ctx context.Context, msg gateway.Message, out gateway.Replier) gateway.Outcome
	HandleMessage(ctx context.Context, msg gateway.Message, out gateway.Replier) gateway.Outcome
}

// Handlers exposes the telebot handlers of the card bot.
type Handlers struct {
	pipeline Pipeline
}

// NewHandlers wraps p.
func NewHandlers(p Pipeline) *Handlers {
	return &Handlers{pipeline: p}
}

// Register adds /start and the catch-all message handler to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	if err := reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Botni ishga tushirish",
	}); err != nil {
		return err
	}
	reg.SetTextFallback(h.Message)
	return nil
}

// Routes returns the telebot routes for everything registered in reg.
func Routes(reg *tg.Registry) []tg.Route {
	return append(router.CommandRoutes(reg), router.MessageRoutes(reg)...)
}

// Start handles /start.
func (h *Handlers) Start(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	outcome := h.pipeline.HandleStart(ctx, messageFrom(c), replier{c: c})
	router.SetHandlerOutcome(c, string(outcome))
	return nil
}

// Message handles every other text or media message.
func (h *Handlers) Message(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	outcome := h.pipeline.HandleMessage(ctx, messageFrom(c), replier{c: c})
	router.SetHandlerOutcome(c, string(outcome))
	return nil
}

// messageFrom copies the fields the pipeline needs. Captions are not text:
// a photo captioned with a card number is ignored.
func messageFrom(c tele.Context) gateway.Message {
	chatID, userID := tghelpers.IDs(c)
	msg := gateway.Message{
		UpdateID: c.Update().ID,
		ChatID:   chatID,
		UserID:   userID,
	}
	if u := c.Sender(); u != nil {
		msg.Username = u.Username
		msg.FirstName = u.FirstName
	}
	if m := c.Message(); m != nil {
		msg.Text = m.Text
	}
	return msg
}

type replier struct {
	c tele.Context
}

func (r replier) Reply(_ context.Context, rep gateway.Reply) error {
	markup := markupFor(rep)
	if rep.HTML {
		return tghelpers.SendHTML(r.c, rep.Text, rep.DisablePreview, markup)
	}
	return tghelpers.SendText(r.c, rep.Text, &tele.SendOptions{
		ReplyMarkup:           markup,
		DisableWebPagePreview: rep.DisablePreview,
	})
}

func markupFor(rep gateway.Reply) *tele.ReplyMarkup {
	if rep.JoinURL == "" {
		return nil
	}
	title := rep.JoinTitle
	if title == "" {
		title = rep.JoinURL
	}
	return keyboard.URLButton(title, rep.JoinURL)
}
