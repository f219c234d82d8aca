package sequent

import (
	"context"
	"errors"
	"testing"

	"github.com/zoobzio/zyn"
)

// mockProvider implements Provider for testing
type mockProvider struct {
	name string
}

func (m *mockProvider) Call(ctx context.Context, messages []zyn.Message, temperature float32) (*zyn.ProviderResponse, error) {
	return &zyn.ProviderResponse{
		Content: "mock response",
		Usage: zyn.TokenUsage{
			Prompt:     10,
			Completion: 5,
			Total:      15,
		},
	}, nil
}

func (m *mockProvider) Name() string {
	return m.name
}

func TestWithProvider(t *testing.T) {
	mock := &mockProvider{name: "context"}
	ctx := WithProvider(context.Background(), mock)

	p, ok := ProviderFromContext(ctx)
	if !ok {
		t.Fatal("expected provider in context")
	}
	if p.Name() != "context" {
		t.Errorf("expected name %q, got %q", "context", p.Name())
	}
}

func TestProviderFromContextEmpty(t *testing.T) {
	if _, ok := ProviderFromContext(context.Background()); ok {
		t.Error("expected no provider in empty context")
	}
	if _, ok := ProviderFromContext(WithProvider(context.Background(), nil)); ok {
		t.Error("expected a nil provider to count as absent")
	}
}

func TestResolveProvider(t *testing.T) {
	explicit := &mockProvider{name: "explicit"}
	fromCtx := &mockProvider{name: "context"}
	ctx := WithProvider(context.Background(), fromCtx)

	t.Run("explicit wins", func(t *testing.T) {
		p, err := ResolveProvider(ctx, explicit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Name() != "explicit" {
			t.Errorf("expected explicit provider, got %q", p.Name())
		}
	})

	t.Run("context fallback", func(t *testing.T) {
		p, err := ResolveProvider(ctx, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Name() != "context" {
			t.Errorf("expected context provider, got %q", p.Name())
		}
	})

	t.Run("none", func(t *testing.T) {
		_, err := ResolveProvider(context.Background(), nil)
		if !errors.Is(err, ErrNoProvider) {
			t.Errorf("expected ErrNoProvider, got %v", err)
		}
	})
}
