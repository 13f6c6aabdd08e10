package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/cardbot/core/config"
	coretelegram "github.com/m3rciful/cardbot/core/telegram"
)

type fakeConfig struct{ core *coreconfig.Config }

func (f fakeConfig) CoreConfig() *coreconfig.Config { return f.core }

type fakeApp struct{ starts, stops int }

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error { a.starts++; return nil },
		OnStop:  func(context.Context, coretelegram.Runtime) error { a.stops++; return nil },
	}, nil
}

func TestRunUsesExplicitConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "from-env.yaml")
	app := &fakeApp{}
	var loaded string

	err := Run(Options{
		ConfigPath:        "explicit.yaml",
		DefaultConfigPath: "default.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loaded = path
			return fakeConfig{core: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if loaded != "explicit.yaml" {
		t.Fatalf("loaded %q", loaded)
	}
	if app.starts != 1 || app.stops != 1 {
		t.Fatalf("hooks ran start=%d stop=%d", app.starts, app.stops)
	}
}

func TestRunFailsWithoutCoreConfig(t *testing.T) {
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        func(string) (ConfigCarrier, error) { return fakeConfig{}, nil },
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) {
			return nil, errors.New("must not be called")
		},
	})
	if err == nil {
		t.Fatal("expected error for missing core config")
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("CARDBOT_CONFIG", "/etc/cardbot.yaml")
	if got := ResolveConfigPath("local.yaml", "CARDBOT_CONFIG", "config.yaml"); got != "local.yaml" {
		t.Fatalf("explicit path should win, got %s", got)
	}
	if got := ResolveConfigPath("", "CARDBOT_CONFIG", "config.yaml"); got != "/etc/cardbot.yaml" {
		t.Fatalf("env fallback, got %s", got)
	}
	t.Setenv("CARDBOT_CONFIG", "")
	if got := ResolveConfigPath("", "CARDBOT_CONFIG", "config.yaml"); got != "config.yaml" {
		t.Fatalf("default, got %s", got)
	}
	t.Setenv(DefaultConfigEnvVar, "")
	if got := ResolveConfigPath("", "", ""); got != "" {
		t.Fatalf("nothing set, got %s", got)
	}
}
