package telegram

import (
	"errors"
	"testing"

	"github.com/m3rciful/cardbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func TestRegistryCommands(t *testing.T) {
	noop := func(tele.Context) error { return nil }
	reg := NewRegistry()
	if err := reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Boshlash", Aliases: []string{"boshla"}}); err != nil {
		t.Fatalf("register /start: %v", err)
	}
	if err := reg.RegisterCommand("/debug", commands.Command{Handler: noop, Description: "Debug", Hidden: true}); err != nil {
		t.Fatalf("register /debug: %v", err)
	}

	if err := reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "dup"}); !errors.Is(err, ErrDuplicateCommand) {
		t.Fatalf("duplicate: got %v", err)
	}
	for name, cmd := range map[string]commands.Command{
		"help":   {Handler: noop, Description: "no slash"},
		"/":      {Handler: noop, Description: "empty"},
		"/quiet": {Handler: noop},
		"/nil":   {Description: "no handler"},
	} {
		if err := reg.RegisterCommand(name, cmd); !errors.Is(err, ErrInvalidCommand) {
			t.Fatalf("%q: got %v, want ErrInvalidCommand", name, err)
		}
	}

	if got := len(reg.Commands()); got != 2 {
		t.Fatalf("registered %d commands, want 2", got)
	}
	if cmd := reg.Commands()["/start"]; cmd.Description != "Boshlash" {
		t.Fatalf("duplicate registration replaced the command: %q", cmd.Description)
	}

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "start" {
		t.Fatalf("visible commands = %+v", visible)
	}
	if all := reg.ListCommands(false); len(all) != 2 || all[0].Text != "debug" {
		t.Fatalf("all commands = %+v", all)
	}

	if key, _, ok := reg.LookupCommand("/boshla"); !ok || key != "/start" {
		t.Fatalf("alias lookup = %q, %v", key, ok)
	}
	if _, _, ok := reg.LookupCommand("start"); ok {
		t.Fatal("plain text must not resolve to a command")
	}
}
