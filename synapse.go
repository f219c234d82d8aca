package sequent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/zyn"
)

const coordinatorInstruction = "Act as the Coordinator of a sequential thinking team made of a Planner, " +
	"a Researcher, an Analyzer, a Critic and a Synthesizer. Delegate the thought to the relevant " +
	"specialists, then synthesize their contributions into one response that moves the analysis forward"

const coordinatorStyle = "Be specific to the current stage of the analysis. When an earlier thought is flawed, " +
	"say 'RECOMMENDATION: Revise thought #X' with the reason. When an alternative path deserves exploring, " +
	"say 'SUGGESTION: Consider branching from thought #Y'. End with what the next thought should address."

// SynapseCoordinator answers each step through a zyn Transform synapse.
// It keeps one conversation per coordinator so successive steps see the
// earlier exchange, trimmed to a message window.
//
// A SynapseCoordinator belongs to a single session. Calls are serialized so
// the conversation stays in order.
type SynapseCoordinator struct {
	instruction string
	style       string
	provider    Provider
	temperature float32
	window      int
	compact     bool
	options     []zyn.Option

	session *zyn.Session
	mu      sync.Mutex
}

// NewSynapseCoordinator creates a coordinator with the default team
// instruction. The provider may be nil, in which case it is resolved from
// the context on every call.
//
// Example:
//
//	coordinator := sequent.NewSynapseCoordinator(provider).
//	    WithWindow(20).
//	    WithCompaction(true)
func NewSynapseCoordinator(provider Provider) *SynapseCoordinator {
	return &SynapseCoordinator{
		instruction: coordinatorInstruction,
		style:       coordinatorStyle,
		provider:    provider,
		temperature: DefaultCoordinatorTemperature,
		window:      DefaultSessionWindow,
		session:     zyn.NewSession(),
	}
}

// Respond implements Coordinator.
func (c *SynapseCoordinator) Respond(ctx context.Context, input string) (string, error) {
	provider, err := ResolveProvider(ctx, c.provider)
	if err != nil {
		return "", fmt.Errorf("synapse coordinator: %w", err)
	}

	synapse, err := zyn.Transform(c.instruction, provider, c.options...)
	if err != nil {
		return "", fmt.Errorf("synapse coordinator: failed to create transform synapse: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	response, err := synapse.FireWithInput(ctx, c.session, zyn.TransformInput{
		Text:        input,
		Style:       c.style,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("synapse coordinator: %w", err)
	}

	c.fit(ctx, provider)
	return response, nil
}

// Messages returns the number of messages in the coordinator conversation.
func (c *SynapseCoordinator) Messages() int {
	return c.session.Len()
}

// Name returns the provider-qualified coordinator name.
func (c *SynapseCoordinator) Name() string {
	if c.provider == nil {
		return "synapse"
	}
	return "synapse:" + c.provider.Name()
}

// Builder methods

// WithInstruction replaces the coordinator instruction.
func (c *SynapseCoordinator) WithInstruction(instruction string) *SynapseCoordinator {
	c.instruction = instruction
	return c
}

// WithStyle replaces the response style guidance.
func (c *SynapseCoordinator) WithStyle(style string) *SynapseCoordinator {
	c.style = style
	return c
}

// WithTemperature sets the temperature for coordinator synthesis.
func (c *SynapseCoordinator) WithTemperature(temp float32) *SynapseCoordinator {
	c.temperature = temp
	return c
}

// WithWindow sets the maximum number of conversation messages kept between
// calls. Zero disables trimming.
func (c *SynapseCoordinator) WithWindow(n int) *SynapseCoordinator {
	c.window = n
	return c
}

// WithCompaction summarizes the conversation through the provider instead
// of dropping old messages when the window is exceeded.
func (c *SynapseCoordinator) WithCompaction(enabled bool) *SynapseCoordinator {
	c.compact = enabled
	return c
}

// WithRetry retries failed synapse calls inside zyn.
func (c *SynapseCoordinator) WithRetry(attempts int) *SynapseCoordinator {
	c.options = append(c.options, zyn.WithRetry(attempts))
	return c
}

// WithTimeout bounds each synapse call inside zyn.
func (c *SynapseCoordinator) WithTimeout(d time.Duration) *SynapseCoordinator {
	c.options = append(c.options, zyn.WithTimeout(d))
	return c
}

// emitCompacted records a window adjustment. Respond usually runs under a
// session timeout whose context is cancelled once it returns, so the event
// is emitted on a context detached from cancellation.
func (c *SynapseCoordinator) emitCompacted(ctx context.Context, mode string, before int, err error) {
	ctx = context.WithoutCancel(ctx)
	fields := []capitan.Field{
		FieldSessionID.Field(c.session.ID()),
		FieldCoordinator.Field(mode),
		FieldMessageCount.Field(c.session.Len()),
		FieldHistoryLength.Field(before),
	}
	if err != nil {
		fields = append(fields, FieldError.Field(err))
		capitan.Warn(ctx, SessionCompacted, fields...)
		return
	}
	capitan.Emit(ctx, SessionCompacted, fields...)
}
