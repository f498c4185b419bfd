package notification

import (
	"context"
	"log/slog"
	"time"
)

const (
	// KindPolicySubmitted is emitted when a client requests a new policy.
	KindPolicySubmitted = "policy_submitted"
	// KindPolicyTransitioned is emitted when an admin approves or rejects a policy.
	KindPolicyTransitioned = "policy_transitioned"
	// KindClaimFiled is emitted when a client files a claim.
	KindClaimFiled = "claim_filed"
	// KindClaimTransitioned is emitted when an admin settles or denies a claim.
	KindClaimTransitioned = "claim_transitioned"
)

// Message describes a notification payload.
type Message struct {
	Kind        string    `json:"kind"`
	Destination string    `json:"destination"`
	Subject     string    `json:"subject"`
	Status      string    `json:"status,omitempty"`
	Body        string    `json:"body"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		slog.String("kind", message.Kind),
		slog.String("destination", message.Destination),
		slog.String("subject", message.Subject),
		slog.String("status", message.Status),
		slog.String("body", message.Body),
	)
	return nil
}
