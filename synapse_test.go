package sequent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/capitan"
	capitantesting "github.com/zoobzio/capitan/testing"
	"github.com/zoobzio/zyn"
)

// mockSynapseProvider answers every call with a transform response.
// Calls listed in fail return an error instead.
type mockSynapseProvider struct {
	mu       sync.Mutex
	calls    int
	output   string
	fail     map[int]bool
	lastSeen []zyn.Message
}

func (m *mockSynapseProvider) Call(_ context.Context, messages []zyn.Message, _ float32) (*zyn.ProviderResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastSeen = messages
	if m.fail[m.calls] {
		return nil, errors.New("provider unavailable")
	}

	output := m.output
	if output == "" {
		output = fmt.Sprintf("response %d", m.calls)
	}
	return &zyn.ProviderResponse{
		Content: fmt.Sprintf(`{"output": %q, "confidence": 0.9, "changes": ["synthesized"], "reasoning": ["considered the thought"]}`, output),
		Usage:   zyn.TokenUsage{Prompt: 40, Completion: 20, Total: 60},
	}, nil
}

func (m *mockSynapseProvider) Name() string {
	return "mock-synapse"
}

func (m *mockSynapseProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestSynapseCoordinatorRespond(t *testing.T) {
	provider := &mockSynapseProvider{output: "RECOMMENDATION: Revise thought #1"}
	c := NewSynapseCoordinator(provider)

	resp, err := c.Respond(context.Background(), "Process Thought #2:\n\nThought Content: \"x\"")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "RECOMMENDATION: Revise thought #1" {
		t.Errorf("unexpected response %q", resp)
	}
	if c.Messages() != 2 {
		t.Errorf("expected 2 conversation messages, got %d", c.Messages())
	}
	if c.Name() != "synapse:mock-synapse" {
		t.Errorf("unexpected name %q", c.Name())
	}
	if coordinatorName(c) != "synapse:mock-synapse" {
		t.Errorf("unexpected coordinator label %q", coordinatorName(c))
	}
}

func TestSynapseCoordinatorProviderResolution(t *testing.T) {
	c := NewSynapseCoordinator(nil)

	_, err := c.Respond(context.Background(), "input")
	if !errors.Is(err, ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}

	ctx := WithProvider(context.Background(), &mockSynapseProvider{})
	if _, err := c.Respond(ctx, "input"); err != nil {
		t.Fatalf("unexpected error with context provider: %v", err)
	}
	if c.Name() != "synapse" {
		t.Errorf("unexpected name %q", c.Name())
	}
}

func TestSynapseCoordinatorKeepsConversation(t *testing.T) {
	provider := &mockSynapseProvider{}
	c := NewSynapseCoordinator(provider).WithWindow(0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Respond(ctx, fmt.Sprintf("thought %d", i)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if c.Messages() != 6 {
		t.Errorf("expected 6 messages without a window, got %d", c.Messages())
	}

	found := false
	for _, msg := range provider.lastSeen {
		if strings.Contains(msg.Content, "thought 0") {
			found = true
		}
	}
	if !found {
		t.Error("expected the latest call to carry earlier exchanges")
	}
}

// TestSynapseCoordinatorTruncates verifies the sliding window.
func TestSynapseCoordinatorTruncates(t *testing.T) {
	capture := capitantesting.NewEventCapture()
	listener := capitan.Hook(SessionCompacted, capture.Handler())
	defer listener.Close()

	c := NewSynapseCoordinator(&mockSynapseProvider{}).WithWindow(4)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Respond(ctx, fmt.Sprintf("thought %d", i)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if c.Messages() != 4 {
		t.Errorf("expected 4 messages, got %d", c.Messages())
	}

	if !capture.WaitForCount(1, time.Second) {
		t.Fatal("expected SessionCompacted event")
	}
	mode := getStringField(capture.Events()[0], FieldCoordinator.Name())
	if mode != "truncate" {
		t.Errorf("expected mode truncate, got %q", mode)
	}
}

// TestSynapseCoordinatorTruncatesInSession verifies window events are
// delivered when the coordinator runs under the session timeout.
func TestSynapseCoordinatorTruncatesInSession(t *testing.T) {
	capture := capitantesting.NewEventCapture()
	listener := capitan.Hook(SessionCompacted, capture.Handler())
	defer listener.Close()

	c := NewSynapseCoordinator(&mockSynapseProvider{}).WithWindow(4)
	ctx := context.Background()
	s := NewSession(ctx, "s", c).WithDelegateTimeout(time.Minute)
	defer s.Close(ctx)

	for i := 1; i <= 3; i++ {
		if _, err := s.Accept(ctx, plain(i, 5)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if !capture.WaitForCount(1, time.Second) {
		t.Fatal("expected SessionCompacted event")
	}
	found := false
	for _, e := range capture.Events() {
		if getStringField(e, FieldSessionID.Name()) == c.session.ID() {
			found = true
		}
	}
	if !found {
		t.Error("expected a SessionCompacted event for this coordinator")
	}
}

func TestSynapseCoordinatorCompacts(t *testing.T) {
	provider := &mockSynapseProvider{}
	c := NewSynapseCoordinator(provider).WithWindow(4).WithCompaction(true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Respond(ctx, fmt.Sprintf("thought %d", i)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if c.Messages() != 1 {
		t.Fatalf("expected 1 summary message, got %d", c.Messages())
	}
	msg, err := c.session.At(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Role != zyn.RoleSystem {
		t.Errorf("expected system message, got %q", msg.Role)
	}
	if !strings.HasPrefix(msg.Content, "Previous conversation summary:\n") {
		t.Errorf("unexpected summary message %q", msg.Content)
	}
	if provider.callCount() != 4 {
		t.Errorf("expected 3 responses and 1 summary call, got %d calls", provider.callCount())
	}
}

// TestSynapseCoordinatorCompactionFallback verifies a failed summary
// falls back to truncation.
func TestSynapseCoordinatorCompactionFallback(t *testing.T) {
	provider := &mockSynapseProvider{fail: map[int]bool{4: true}}
	c := NewSynapseCoordinator(provider).WithWindow(4).WithCompaction(true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Respond(ctx, fmt.Sprintf("thought %d", i)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if c.Messages() != 4 {
		t.Errorf("expected truncation to 4 messages, got %d", c.Messages())
	}
}

func TestSynapseCoordinatorProviderError(t *testing.T) {
	c := NewSynapseCoordinator(zyn.NewMockProviderWithError("rate limited"))

	_, err := c.Respond(context.Background(), "input")
	if err == nil {
		t.Fatal("expected error")
	}
	if c.Messages() != 0 {
		t.Errorf("expected no messages after a failed call, got %d", c.Messages())
	}
}

func TestEchoCoordinator(t *testing.T) {
	resp, err := EchoCoordinator{}.Respond(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Team " + DefaultTeamName + " has processed the input: hello"
	if resp != want {
		t.Errorf("expected %q, got %q", want, resp)
	}
	if coordinatorName(EchoCoordinator{}) != "echo" {
		t.Error("expected echo label")
	}
}
