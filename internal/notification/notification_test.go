package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestKafkaNotifierPublishesKeyedJSON(t *testing.T) {
	w := &captureWriter{}
	n := NewKafkaNotifier(w)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	err := n.Send(context.Background(), Message{
		Kind:        KindClaimFiled,
		Destination: "user-1",
		Subject:     "claim-9",
		Status:      "under-review",
		Body:        "Claim filed",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "claim-9" {
		t.Fatalf("expected key claim-9, got %s", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != KindClaimFiled {
		t.Fatalf("expected kind header, got %+v", msg.Headers)
	}

	var decoded Message
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !decoded.OccurredAt.Equal(fixed) || decoded.Destination != "user-1" {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestKafkaNotifierWrapsWriterErrors(t *testing.T) {
	boom := errors.New("broker down")
	n := NewKafkaNotifier(&captureWriter{err: boom})
	if err := n.Send(context.Background(), Message{Kind: KindPolicySubmitted}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}

func TestLoggerNotifierNilSafe(t *testing.T) {
	var n *LoggerNotifier
	if err := n.Send(context.Background(), Message{Kind: KindPolicySubmitted}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
