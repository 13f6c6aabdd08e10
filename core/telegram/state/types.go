package state

import "time"

// State identifies a conversation step.
type State string

const (
	// StateIdle indicates there is no active conversation with the chat.
	StateIdle State = "idle"
	// StateAwaitingCard is entered on /start, when a card number is expected next.
	StateAwaitingCard State = "awaiting_card"
)

// Session stores the conversation step of one chat.
type Session struct {
	State     State
	UpdatedAt time.Time
}

// Tracker owns chat sessions.
type Tracker interface {
	Reset(chatID int64)
	Step(chatID int64) State
	Clear(chatID int64)
	Len() int
	Close()
}

// Options bounds the tracker memory.
type Options struct {
	Capacity int           `yaml:"capacity" envconfig:"SESSION_CAPACITY"`
	TTL      time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
}

func (o Options) withDefaults() Options {
	if o.Capacity <= 0 {
		o.Capacity = 10000
	}
	if o.TTL <= 0 {
		o.TTL = 24 * time.Hour
	}
	return o
}
