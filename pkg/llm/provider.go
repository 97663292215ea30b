package llm

import (
	"context"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyAnswer is returned when the model replies with no text at all.
var ErrEmptyAnswer = errors.New("model returned an empty answer")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Stop        []string
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithStop ends generation at any of the given sequences.
func WithStop(stop ...string) Option {
	return func(o *Options) {
		o.Stop = append(o.Stop, stop...)
	}
}

// Apply folds opts over defaults.
func Apply(defaults Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// LLMProvider answers a chat transcript whose last message is the user's turn.
type LLMProvider interface {
	Name() string
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)
}
