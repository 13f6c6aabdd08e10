// Package gateway runs the card lookup conversation independently of the Telegram transport.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/cardbot/core/logger"
	"github.com/m3rciful/cardbot/internal/card"
	"github.com/m3rciful/cardbot/internal/lookup"
	"github.com/m3rciful/cardbot/internal/store"
)

const component = "gateway"

// DefaultStartPromptDelay separates the welcome from the prompt.
const DefaultStartPromptDelay = 100 * time.Millisecond

// Message is an inbound user message stripped of transport details.
type Message struct {
	UpdateID  int
	ChatID    int64
	UserID    int64
	Username  string
	FirstName string
	Text      string
}

// Reply is one outbound message.
type Reply struct {
	Text           string
	HTML           bool
	DisablePreview bool
	// JoinURL adds a link button when set.
	JoinURL   string
	JoinTitle string
}

// Replier delivers replies to the chat a Message came from.
type Replier interface {
	Reply(ctx context.Context, r Reply) error
}

// MembershipChecker decides whether a user may use the bot.
type MembershipChecker interface {
	Check(ctx context.Context, userID int64) (bool, error)
}

// CardResolver looks a card number up.
type CardResolver interface {
	Resolve(ctx context.Context, number string) (lookup.Result, error)
}

// RecordStore saves resolved cards.
type RecordStore interface {
	Upsert(ctx context.Context, rec store.Record) error
}

// SessionTracker records the conversation step of a chat.
type SessionTracker interface {
	Reset(chatID int64)
}

// Outcome names how a message was handled.
type Outcome string

const (
	OutcomeUnauthorized Outcome = "unauthorized"
	OutcomeIgnored      Outcome = "ignored"
	OutcomeStarted      Outcome = "started"
	OutcomeResolved     Outcome = "resolved"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeLookupFailed Outcome = "lookup_failed"
)

// Options configures a Dispatcher.
type Options struct {
	Membership MembershipChecker
	Resolver   CardResolver
	Store      RecordStore
	Sessions   SessionTracker

	JoinURL   string
	JoinTitle string

	StartPromptDelay time.Duration
}

// Dispatcher owns the reply policy: every component error ends here as a reply, a log line or both.
type Dispatcher struct {
	gate     MembershipChecker
	resolver CardResolver
	store    RecordStore
	sessions SessionTracker

	joinURL   string
	joinTitle string
	delay     time.Duration
}

// NewDispatcher validates opts and builds a Dispatcher.
func NewDispatcher(opts Options) (*Dispatcher, error) {
	switch {
	case opts.Membership == nil:
		return nil, errors.New("gateway: membership checker is required")
	case opts.Resolver == nil:
		return nil, errors.New("gateway: card resolver is required")
	case opts.Store == nil:
		return nil, errors.New("gateway: record store is required")
	case opts.Sessions == nil:
		return nil, errors.New("gateway: session tracker is required")
	case strings.TrimSpace(opts.JoinURL) == "":
		return nil, errors.New("gateway: join url is required")
	}
	delay := opts.StartPromptDelay
	if delay <= 0 {
		delay = DefaultStartPromptDelay
	}
	title := strings.TrimSpace(opts.JoinTitle)
	if title == "" {
		title = opts.JoinURL
	}
	return &Dispatcher{
		gate:      opts.Membership,
		resolver:  opts.Resolver,
		store:     opts.Store,
		sessions:  opts.Sessions,
		joinURL:   opts.JoinURL,
		joinTitle: title,
		delay:     delay,
	}, nil
}

// HandleStart greets an authorized user and asks for a card number.
func (d *Dispatcher) HandleStart(ctx context.Context, msg Message, out Replier) Outcome {
	if !d.authorized(ctx, msg, out) {
		return OutcomeUnauthorized
	}

	d.sessions.Reset(msg.ChatID)
	d.reply(ctx, out, Reply{Text: welcomeText(msg.FirstName), HTML: true})

	timer := time.NewTimer(d.delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		logger.Debug(ctx, component, "start.prompt.cancelled", slog.String("status", "cancelled"))
		return OutcomeStarted
	case <-timer.C:
	}
	d.reply(ctx, out, Reply{Text: textPrompt})
	return OutcomeStarted
}

// HandleMessage processes any non-command message: text that is a card number is looked up,
// everything else is ignored silently.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg Message, out Replier) Outcome {
	if !d.authorized(ctx, msg, out) {
		return OutcomeUnauthorized
	}

	number, kind := card.Classify(msg.Text)
	if kind != card.KindCandidate {
		logger.Debug(ctx, component, "message.ignored",
			slog.String("status", "skip"),
			slog.Int("text_len", len(msg.Text)),
		)
		return OutcomeIgnored
	}

	d.reply(ctx, out, Reply{Text: textChecking})

	res, err := d.resolver.Resolve(ctx, number)
	switch {
	case err == nil:
	case errors.Is(err, lookup.ErrNotFound):
		d.reply(ctx, out, Reply{Text: textNotFound})
		return d.done(ctx, number, OutcomeNotFound)
	default:
		d.reply(ctx, out, Reply{Text: textLookupError})
		return d.done(ctx, number, OutcomeLookupFailed, slog.String("err", err.Error()))
	}

	rec := store.Record{
		UserID:     msg.UserID,
		CardNumber: number,
		OwnerName:  res.Owner,
		BankName:   res.Bank,
	}
	if u := strings.TrimSpace(msg.Username); u != "" {
		rec.Username = &u
	}
	if err := d.store.Upsert(ctx, rec); err != nil {
		logger.Error(ctx, component, "record.save_failed",
			slog.String("status", "fail"),
			slog.String("card", logger.MaskCard(number)),
			slog.String("err", err.Error()),
		)
	}

	d.reply(ctx, out, Reply{
		Text: summaryText(res.Owner, res.MaskedNumber, res.Bank, res.CardType),
		HTML: true,
	})
	return d.done(ctx, number, OutcomeResolved)
}

func (d *Dispatcher) authorized(ctx context.Context, msg Message, out Replier) bool {
	ok, err := d.gate.Check(ctx, msg.UserID)
	if ok {
		return true
	}
	attrs := []slog.Attr{slog.String("status", "skip")}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	logger.Warn(ctx, component, "membership.denied", attrs...)

	d.reply(ctx, out, Reply{
		Text:           instructionText(d.joinURL, d.joinTitle),
		HTML:           true,
		DisablePreview: true,
		JoinURL:        d.joinURL,
		JoinTitle:      joinButton,
	})
	return false
}

func (d *Dispatcher) reply(ctx context.Context, out Replier, r Reply) {
	if err := out.Reply(ctx, r); err != nil {
		logger.Warn(ctx, component, "reply.failed",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

func (d *Dispatcher) done(ctx context.Context, number string, outcome Outcome, extra ...slog.Attr) Outcome {
	attrs := append([]slog.Attr{
		slog.String("card_outcome", string(outcome)),
		slog.String("card", logger.MaskCard(number)),
	}, extra...)
	switch outcome {
	case OutcomeResolved:
		attrs = append(attrs, slog.String("status", "ok"))
		logger.Info(ctx, component, "card.resolved", attrs...)
	case OutcomeNotFound:
		attrs = append(attrs, slog.String("status", "ok"))
		logger.Info(ctx, component, "card.not_found", attrs...)
	default:
		attrs = append(attrs, slog.String("status", "fail"))
		logger.Warn(ctx, component, "card.lookup_failed", attrs...)
	}
	return outcome
}
