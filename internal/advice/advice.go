// Package advice answers free-text insurance questions through a generative
// model provider. The gateway never fails: provider errors, timeouts and empty
// replies all turn into a fixed apology pointing the client to support.
package advice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leadforte/leadforte_portal/internal/metrics"
)

// FallbackReply is returned whenever the provider cannot produce an answer.
const FallbackReply = "I'm sorry, I'm having a bit of trouble connecting to my knowledge base. Please try again or contact our support team on WhatsApp."

const (
	DefaultHistoryLimit = 20
	DefaultTimeout      = 20 * time.Second
)

// ErrUnavailable is returned by providers that are not configured.
var ErrUnavailable = errors.New("advice provider unavailable")

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prior turn of the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Provider produces a reply for the conversation so far plus a new user message.
type Provider interface {
	Generate(ctx context.Context, history []Message, message string) (string, error)
}

// Options bounds what the gateway forwards and how long it waits.
type Options struct {
	HistoryLimit int
	Timeout      time.Duration
}

// Gateway wraps a Provider with history truncation, a deadline and fallback.
type Gateway struct {
	provider Provider
	opts     Options
	logger   *slog.Logger
}

// NewGateway builds a gateway. Zero options take the package defaults.
func NewGateway(provider Provider, opts Options, logger *slog.Logger) *Gateway {
	if provider == nil {
		provider = Unavailable{}
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gateway{provider: provider, opts: opts, logger: logger}
}

type result struct {
	reply string
	err   error
}

// GetAdvice returns the provider's reply or FallbackReply.
func (g *Gateway) GetAdvice(ctx context.Context, history []Message, message string) string {
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	forwarded := truncate(history, g.opts.HistoryLimit)
	start := time.Now()

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("advice provider panic: %v", r)}
			}
		}()
		reply, err := g.provider.Generate(ctx, forwarded, message)
		done <- result{reply: reply, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = result{err: ctx.Err()}
	}
	metrics.AdviceDuration.Observe(time.Since(start).Seconds())

	reply := strings.TrimSpace(res.reply)
	switch {
	case res.err != nil:
		outcome := "error"
		if errors.Is(res.err, context.DeadlineExceeded) {
			outcome = "timeout"
		} else if errors.Is(res.err, ErrUnavailable) {
			outcome = "unavailable"
		}
		metrics.AdviceRequests.WithLabelValues(outcome).Inc()
		g.logger.Warn("advice provider failed",
			slog.String("outcome", outcome),
			slog.Int("history", len(forwarded)),
			slog.Any("error", res.err),
		)
		return FallbackReply
	case reply == "":
		metrics.AdviceRequests.WithLabelValues("empty").Inc()
		g.logger.Warn("advice provider returned an empty reply")
		return FallbackReply
	}

	metrics.AdviceRequests.WithLabelValues("reply").Inc()
	return reply
}

// truncate keeps the newest limit messages.
func truncate(history []Message, limit int) []Message {
	if len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}

// Unavailable is the provider used when no model credentials are configured.
type Unavailable struct{}

// Generate always reports ErrUnavailable.
func (Unavailable) Generate(context.Context, []Message, string) (string, error) {
	return "", ErrUnavailable
}
