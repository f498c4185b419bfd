package advice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/genai"
)

type recordingProvider struct {
	reply   string
	err     error
	history []Message
	message string
}

func (p *recordingProvider) Generate(_ context.Context, history []Message, message string) (string, error) {
	p.history = history
	p.message = message
	return p.reply, p.err
}

type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ []Message, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type panickingProvider struct{}

func (panickingProvider) Generate(context.Context, []Message, string) (string, error) {
	panic("malformed provider response")
}

func TestGetAdviceReturnsProviderReply(t *testing.T) {
	provider := &recordingProvider{reply: "  Comprehensive cover protects your car and third parties.  "}
	gw := NewGateway(provider, Options{}, nil)

	reply := gw.GetAdvice(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, "What is comprehensive?")

	assert.Equal(t, "Comprehensive cover protects your car and third parties.", reply)
	assert.Equal(t, "What is comprehensive?", provider.message)
	require.Len(t, provider.history, 1)
}

func TestGetAdviceFallsBack(t *testing.T) {
	cases := map[string]Provider{
		"provider error": &recordingProvider{err: errors.New("401 unauthorized")},
		"empty reply":    &recordingProvider{reply: "   "},
		"unavailable":    Unavailable{},
		"nil provider":   nil,
		"provider panic": panickingProvider{},
	}
	for name, provider := range cases {
		t.Run(name, func(t *testing.T) {
			gw := NewGateway(provider, Options{}, nil)
			assert.Equal(t, FallbackReply, gw.GetAdvice(context.Background(), nil, "hello"))
		})
	}
}

func TestGetAdviceTimesOutWithoutLeaking(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := NewGateway(blockingProvider{}, Options{Timeout: 20 * time.Millisecond}, nil)

	start := time.Now()
	reply := gw.GetAdvice(context.Background(), nil, "are you there?")

	assert.Equal(t, FallbackReply, reply)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGetAdviceTruncatesHistory(t *testing.T) {
	history := make([]Message, 30)
	for i := range history {
		history[i] = Message{Role: RoleUser, Content: fmt.Sprintf("m%d", i)}
	}
	provider := &recordingProvider{reply: "ok"}
	gw := NewGateway(provider, Options{HistoryLimit: 20}, nil)

	gw.GetAdvice(context.Background(), history, "latest")

	require.Len(t, provider.history, 20)
	assert.Equal(t, "m10", provider.history[0].Content)
	assert.Equal(t, "m29", provider.history[19].Content)
}

func TestBuildContentsMapsRoles(t *testing.T) {
	contents := buildContents([]Message{
		{Role: RoleUser, Content: "Do you cover travel?"},
		{Role: RoleAssistant, Content: "Yes."},
	}, "How much?")

	require.Len(t, contents, 3)
	assert.Equal(t, string(genai.RoleUser), string(contents[0].Role))
	assert.Equal(t, string(genai.RoleModel), string(contents[1].Role))
	assert.Equal(t, string(genai.RoleUser), string(contents[2].Role))
	assert.Equal(t, "How much?", contents[2].Parts[0].Text)
}

func TestNewGenAIProviderRequiresKey(t *testing.T) {
	_, err := NewGenAIProvider(context.Background(), "", "")
	assert.Error(t, err)
}
