// Package keepalive pings the bot's own public health endpoint so free hosting does not idle it.
package keepalive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/m3rciful/cardbot/core/logger"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule pings once a minute.
const DefaultSchedule = "@every 60s"

// Options configures a Pinger.
type Options struct {
	PublicURL  string
	Schedule   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Pinger issues GET {PublicURL}/healthz on a cron schedule.
type Pinger struct {
	target   string
	schedule string
	timeout  time.Duration
	client   *http.Client
	cron     *cron.Cron
}

// New builds a Pinger. It fails when the public URL is missing or the schedule does not parse.
func New(opts Options) (*Pinger, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.PublicURL), "/")
	if base == "" {
		return nil, errors.New("keepalive: public url is required")
	}
	schedule := strings.TrimSpace(opts.Schedule)
	if schedule == "" {
		schedule = DefaultSchedule
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.KeepAlive.Handler(), slog.LevelWarn))
	p := &Pinger{
		target:   base + "/healthz",
		schedule: schedule,
		timeout:  timeout,
		client:   client,
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
	}
	if _, err := p.cron.AddFunc(schedule, p.run); err != nil {
		return nil, fmt.Errorf("keepalive: schedule %q: %w", schedule, err)
	}
	return p, nil
}

// Start begins the schedule in the background.
func (p *Pinger) Start() {
	logger.KeepAlive.Info("keepalive started",
		slog.String("event", "keepalive.start"),
		slog.String("public_url", p.target),
		slog.String("schedule", p.schedule),
	)
	p.cron.Start()
}

// Stop halts the schedule and waits for a running ping until ctx is done.
func (p *Pinger) Stop(ctx context.Context) error {
	done := p.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pinger) run() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	_ = p.Ping(ctx)
}

// Ping performs one health request. Failures are logged and returned.
func (p *Pinger) Ping(ctx context.Context) error {
	start := time.Now()
	err := p.ping(ctx)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Warn(ctx, "keepalive", "keepalive.ping", attrs...)
		return err
	}
	logger.Debug(ctx, "keepalive", "keepalive.ping", attrs...)
	return nil
}

func (p *Pinger) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.target, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("keepalive: status %d", resp.StatusCode)
	}
	return nil
}
