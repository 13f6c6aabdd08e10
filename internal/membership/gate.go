// Package membership checks that a user belongs to the required Telegram channel.
package membership

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

// DefaultTimeout bounds a single membership query.
const DefaultTimeout = 5 * time.Second

// ChatMemberGetter is the part of *tele.Bot the gate needs.
type ChatMemberGetter interface {
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
}

// Channel is a channel reference, either "@username" or a numeric chat id.
type Channel string

// Recipient implements tele.Recipient.
func (c Channel) Recipient() string { return string(c) }

// ParseChannel normalizes a configured channel reference.
func ParseChannel(raw string) (Channel, error) {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return "", fmt.Errorf("membership: channel is empty")
	case strings.HasPrefix(s, "@"):
		if len(s) == 1 {
			return "", fmt.Errorf("membership: channel %q has no name", raw)
		}
		return Channel(s), nil
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Channel(s), nil
	}
	for _, prefix := range []string{"https://", "http://", "t.me/"} {
		s = strings.TrimPrefix(s, prefix)
	}
	name := strings.Trim(s, "/")
	if name == "" || strings.ContainsAny(name, "/ ") {
		return "", fmt.Errorf("membership: channel %q has no name", raw)
	}
	return Channel("@" + name), nil
}

// Gate answers whether a user may use the bot.
type Gate struct {
	api     ChatMemberGetter
	channel Channel
	timeout time.Duration
}

// NewGate builds a Gate. A non-positive timeout falls back to DefaultTimeout.
func NewGate(api ChatMemberGetter, channel Channel, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gate{api: api, channel: channel, timeout: timeout}
}

// IsMember reports whether role grants access.
func IsMember(role tele.MemberStatus) bool {
	switch role {
	case tele.Member, tele.Creator, tele.Administrator:
		return true
	}
	return false
}

type memberResult struct {
	member *tele.ChatMember
	err    error
}

// Check queries the channel membership of userID. The result is false whenever
// err is non-nil, so callers can deny on any failure and still log the cause.
func (g *Gate) Check(ctx context.Context, userID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan memberResult, 1)
	go func() {
		m, err := g.api.ChatMemberOf(g.channel, &tele.User{ID: userID})
		done <- memberResult{member: m, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, fmt.Errorf("membership: %s: %w", g.channel, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return false, fmt.Errorf("membership: %s: %w", g.channel, res.err)
		}
		if res.member == nil {
			return false, fmt.Errorf("membership: %s: empty member", g.channel)
		}
		return IsMember(res.member.Role), nil
	}
}
