// Package app wires configuration, storage, Telegram and the HTTP server into a runnable bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/cardbot/core/bootstrap"
	"github.com/m3rciful/cardbot/core/buildinfo"
	corecmd "github.com/m3rciful/cardbot/core/cmd"
	"github.com/m3rciful/cardbot/core/logger"
	coretelegram "github.com/m3rciful/cardbot/core/telegram"
	"github.com/m3rciful/cardbot/core/telegram/state"
	"github.com/m3rciful/cardbot/internal/api"
	tgbot "github.com/m3rciful/cardbot/internal/bot"
	"github.com/m3rciful/cardbot/internal/config"
	"github.com/m3rciful/cardbot/internal/gateway"
	"github.com/m3rciful/cardbot/internal/keepalive"
	"github.com/m3rciful/cardbot/internal/lookup"
	"github.com/m3rciful/cardbot/internal/membership"
	"github.com/m3rciful/cardbot/internal/store"

	tele "gopkg.in/telebot.v4"
)

// App holds the long-lived components of a running bot.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	bot      *tele.Bot
	sessions state.Tracker
	pipeline *gateway.Dispatcher
	router   *chi.Mux
	server   *api.Server
	pinger   *keepalive.Pinger
}

var _ corecmd.TelegramApp = (*App)(nil)

// Bootstrap initializes logging and storage, then builds the bot.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}
	bot, err := coretelegram.NewBot(cfg.CoreConfig())
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	a, err := build(cfg, res.DB, bot)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	return a, nil
}

func build(cfg *config.Config, db *sqlx.DB, bot *tele.Bot) (*App, error) {
	channel, err := membership.ParseChannel(cfg.Channel.ID)
	if err != nil {
		return nil, err
	}
	sessions, err := state.NewMemoryTracker(cfg.Sessions)
	if err != nil {
		return nil, err
	}
	records := store.New(db)

	pipeline, err := gateway.NewDispatcher(gateway.Options{
		Membership:       membership.NewGate(bot, channel, cfg.Membership.Timeout),
		Resolver:         lookup.NewClient(lookup.Options{BaseURL: cfg.Lookup.BaseURL, Timeout: cfg.Lookup.Timeout}),
		Store:            records,
		Sessions:         sessions,
		JoinURL:          cfg.Channel.JoinURL,
		JoinTitle:        cfg.Channel.Title,
		StartPromptDelay: cfg.Dialog.StartPromptDelay,
	})
	if err != nil {
		sessions.Close()
		return nil, err
	}

	router := api.NewRouter(api.Options{
		Records:        records,
		AdminToken:     cfg.Admin.Token,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Version:        buildinfo.Version,
	})
	if cfg.SharedWebhook() {
		// the poller only registers the webhook; updates arrive through the router
		router.Method(http.MethodPost, cfg.WebhookPath(), api.WebhookHandler(cfg.Webhook.SecretToken, bot.ProcessUpdate))
	}

	a := &App{
		cfg:      cfg,
		db:       db,
		bot:      bot,
		sessions: sessions,
		pipeline: pipeline,
		router:   router,
		server:   api.NewServer(cfg.HTTPAddr(), router),
	}
	if cfg.KeepAlive.Enabled {
		if a.pinger, err = keepalive.New(keepalive.Options{
			PublicURL: cfg.PublicURL,
			Schedule:  cfg.KeepAlive.Schedule,
		}); err != nil {
			sessions.Close()
			return nil, err
		}
	}
	return a, nil
}

// TelegramRunOptions registers the handlers and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	if err := tgbot.NewHandlers(a.pipeline).Register(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}

	return coretelegram.RunOptions{
		Config:            a.cfg.CoreConfig(),
		Registry:          reg,
		Bot:               a.bot,
		DispatcherOptions: a.cfg.Sender.Options(),
		Middlewares:       coretelegram.DefaultMiddlewares(),
		Routes:            tgbot.Routes(reg),
		OnStart:           a.start,
		OnStop:            a.stop,
	}, nil
}

func (a *App) start(ctx context.Context, _ coretelegram.Runtime) error {
	if err := a.server.Start(); err != nil {
		return err
	}
	if a.pinger != nil {
		a.pinger.Start()
	}
	logger.Info(ctx, "app", "app.components",
		slog.String("status", "ok"),
		slog.String("listen", a.cfg.HTTPAddr()),
		slog.Bool("shared_webhook", a.cfg.SharedWebhook()),
		slog.Bool("keepalive", a.pinger != nil),
		slog.Bool("admin_api", a.cfg.Admin.Token != ""),
	)
	return nil
}

func (a *App) stop(ctx context.Context, _ coretelegram.Runtime) error {
	var errs []error
	if a.pinger != nil {
		if err := a.pinger.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("keepalive stop: %w", err))
		}
	}
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	a.sessions.Close()
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("db close: %w", err))
	}
	return errors.Join(errs...)
}
