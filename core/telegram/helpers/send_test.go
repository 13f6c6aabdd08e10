package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/cardbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

type fakeAPI struct {
	mu    sync.Mutex
	sends []map[string]any
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var params map[string]any
	_ = json.NewDecoder(r.Body).Decode(&params)
	if strings.HasSuffix(r.URL.Path, "/sendMessage") {
		f.mu.Lock()
		f.sends = append(f.sends, params)
		f.mu.Unlock()
	}
	_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":100,"type":"private"}}}`))
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sends))
	for _, p := range f.sends {
		s, _ := p["text"].(string)
		out = append(out, s)
	}
	return out
}

func newTestContext(t *testing.T, api *fakeAPI) tele.Context {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	b, err := tele.NewBot(tele.Settings{URL: srv.URL, Token: "123:abc", Offline: true})
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	return b.NewContext(tele.Update{ID: 1, Message: &tele.Message{
		Chat:   &tele.Chat{ID: 100, Type: tele.ChatPrivate},
		Sender: &tele.User{ID: 7},
	}})
}

func TestSendHTMLInlineCountsReplies(t *testing.T) {
	SetDispatcher(nil)
	api := &fakeAPI{}
	c := newTestContext(t, api)

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.URL("Kanal", "https://t.me/kimyonazarovuz")))
	if err := SendHTML(c, "<b>salom</b>", true, markup); err != nil {
		t.Fatalf("SendHTML: %v", err)
	}

	if got := api.texts(); len(got) != 1 || got[0] != "<b>salom</b>" {
		t.Fatalf("sent = %v", got)
	}
	if mode, _ := api.sends[0]["parse_mode"].(string); mode != tele.ModeHTML {
		t.Fatalf("parse_mode = %q", mode)
	}
	if n, _ := c.Get(MessagesKey).(int); n != 1 {
		t.Fatalf("messages counter = %d", n)
	}
	if kb, _ := c.Get(KeyboardKey).(bool); !kb {
		t.Fatal("keyboard flag not set")
	}
}

func TestSendTextThroughDispatcherKeepsOrder(t *testing.T) {
	api := &fakeAPI{}
	c := newTestContext(t, api)
	d := sender.NewDispatcher(sender.Options{Workers: 2})
	SetDispatcher(d)
	t.Cleanup(func() { SetDispatcher(nil) })

	want := []string{"birinchi", "ikkinchi", "uchinchi"}
	for _, text := range want {
		if err := SendText(c, text); err != nil {
			t.Fatalf("SendText: %v", err)
		}
	}
	d.Close()

	got := api.texts()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("order = %v", got)
	}
	if d.ErrorCount() != 0 {
		t.Fatalf("dispatcher errors = %d", d.ErrorCount())
	}
}

func TestSendAfterDispatcherClosedRunsInline(t *testing.T) {
	api := &fakeAPI{}
	c := newTestContext(t, api)
	d := sender.NewDispatcher(sender.Options{})
	d.Close()
	SetDispatcher(d)
	t.Cleanup(func() { SetDispatcher(nil) })

	if err := SendText(c, "salom"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if got := api.texts(); len(got) != 1 {
		t.Fatalf("sent = %v", got)
	}
}

// blockWorker occupies the only worker of d until the returned func is called.
func blockWorker(t *testing.T, d *sender.Dispatcher) func() {
	t.Helper()
	release := make(chan struct{})
	started := make(chan struct{})
	err := d.Enqueue(context.Background(), 200, "block", "", func() error {
		close(started)
		<-release
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue blocker: %v", err)
	}
	<-started
	var once sync.Once
	return func() { once.Do(func() { close(release) }) }
}

func TestSendTextSaturatedQueueKeepsOrder(t *testing.T) {
	api := &fakeAPI{}
	c := newTestContext(t, api)
	d := sender.NewDispatcher(sender.Options{Workers: 1, QueueSize: 1, MaxDuration: 5 * time.Second})
	SetDispatcher(d)
	t.Cleanup(func() { SetDispatcher(nil) })

	release := blockWorker(t, d)
	defer release()

	if err := SendText(c, "welcome"); err != nil {
		t.Fatalf("SendText welcome: %v", err)
	}
	time.AfterFunc(30*time.Millisecond, release)
	if err := SendText(c, "prompt"); err != nil {
		t.Fatalf("SendText prompt: %v", err)
	}
	d.Close()

	if got := api.texts(); strings.Join(got, ",") != "welcome,prompt" {
		t.Fatalf("order = %v", got)
	}
}

func TestSendTextDropsWhenQueueStaysFull(t *testing.T) {
	api := &fakeAPI{}
	c := newTestContext(t, api)
	d := sender.NewDispatcher(sender.Options{Workers: 1, QueueSize: 1, MaxDuration: 20 * time.Millisecond})
	SetDispatcher(d)
	t.Cleanup(func() { SetDispatcher(nil) })

	release := blockWorker(t, d)
	if err := SendText(c, "welcome"); err != nil {
		t.Fatalf("SendText welcome: %v", err)
	}
	err := SendText(c, "prompt")
	if !errors.Is(err, sender.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if got := api.texts(); len(got) != 0 {
		t.Fatalf("nothing may be sent while the worker is busy, got %v", got)
	}
	release()
	d.Close()

	if got := api.texts(); strings.Join(got, ",") != "welcome" {
		t.Fatalf("sent = %v", got)
	}
}
