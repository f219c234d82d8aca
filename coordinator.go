package sequent

import (
	"context"
	"fmt"
)

// Coordinator produces a response for the composed input of an accepted
// step. Sessions call it after the step is recorded; how the text is
// produced is up to the implementation.
type Coordinator interface {
	Respond(ctx context.Context, input string) (string, error)
}

// CoordinatorFunc adapts a function to the Coordinator interface.
type CoordinatorFunc func(ctx context.Context, input string) (string, error)

// Respond calls f.
func (f CoordinatorFunc) Respond(ctx context.Context, input string) (string, error) {
	return f(ctx, input)
}

// EchoCoordinator acknowledges every input without calling a model.
// It is the stand-in used when no provider is configured.
type EchoCoordinator struct {
	Name string
}

// Respond returns an acknowledgement that embeds the input.
func (e EchoCoordinator) Respond(_ context.Context, input string) (string, error) {
	name := e.Name
	if name == "" {
		name = DefaultTeamName
	}
	return fmt.Sprintf("Team %s has processed the input: %s", name, input), nil
}

// coordinatorName labels a coordinator in events.
func coordinatorName(c Coordinator) string {
	switch v := c.(type) {
	case EchoCoordinator:
		return "echo"
	case *EchoCoordinator:
		return "echo"
	case interface{ Name() string }:
		return v.Name()
	default:
		return fmt.Sprintf("%T", c)
	}
}
