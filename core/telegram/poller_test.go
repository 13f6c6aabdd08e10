package telegram

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerWebhook(t *testing.T) {
	p := BuildPoller(PollerOptions{
		RunMode: " Webhook ",
		Webhook: WebhookOptions{Port: 8443, URL: "https://bot.example.uz/webhook"},
	})
	wh, ok := p.(*tele.Webhook)
	if !ok {
		t.Fatalf("expected webhook poller, got %T", p)
	}
	if wh.Listen != ":8443" || wh.Endpoint.PublicURL != "https://bot.example.uz/webhook" {
		t.Fatalf("unexpected webhook: listen=%s url=%s", wh.Listen, wh.Endpoint.PublicURL)
	}
}

func TestBuildPollerSharedWebhook(t *testing.T) {
	p := BuildPoller(PollerOptions{
		RunMode: "webhook",
		Webhook: WebhookOptions{URL: "https://bot.example.uz/webhook", SecretToken: "s"},
	})
	wh := p.(*tele.Webhook)
	if wh.Listen != "" || wh.SecretToken != "s" {
		t.Fatalf("shared webhook should not listen: %+v", wh)
	}
}

func TestBuildPollerLongpollDefault(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "longpoll"})
	lp, ok := p.(*tele.LongPoller)
	if !ok {
		t.Fatalf("expected long poller, got %T", p)
	}
	if lp.Timeout != 10*time.Second {
		t.Fatalf("timeout = %s", lp.Timeout)
	}
}
