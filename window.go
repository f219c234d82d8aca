package sequent

import (
	"context"
	"fmt"
	"strings"

	"github.com/zoobzio/zyn"
)

const compactionInstruction = "Summarize this conversation history into a concise context that preserves " +
	"key information, decisions made, and important details for continuing the conversation"

const compactionStyle = "Be concise but comprehensive. Preserve thought numbers, recommended revisions, " +
	"suggested branches and open questions needed to continue the analysis coherently."

// fit keeps the coordinator conversation within its window. With
// compaction enabled the conversation is replaced by a provider-written
// summary; otherwise, or when summarizing fails, the oldest messages are
// dropped. Callers must hold c.mu.
func (c *SynapseCoordinator) fit(ctx context.Context, provider Provider) {
	before := c.session.Len()
	if c.window <= 0 || before <= c.window {
		return
	}

	if c.compact {
		err := c.summarize(ctx, provider)
		if err == nil {
			c.emitCompacted(ctx, "summary", before, nil)
			return
		}
		c.truncate()
		c.emitCompacted(ctx, "truncate", before, err)
		return
	}

	c.truncate()
	c.emitCompacted(ctx, "truncate", before, nil)
}

// truncate keeps the most recent messages. The kept count is rounded down
// to an even number so the conversation never starts with a reply.
func (c *SynapseCoordinator) truncate() {
	keep := c.window - c.window%2
	if keep <= 0 {
		c.session.Clear()
		return
	}
	// Truncate only fails on negative arguments.
	_ = c.session.Truncate(0, keep)
}

// summarize replaces the conversation with a single system message holding
// a summary of it.
func (c *SynapseCoordinator) summarize(ctx context.Context, provider Provider) error {
	synapse, err := zyn.Transform(compactionInstruction, provider)
	if err != nil {
		return fmt.Errorf("compaction: failed to create transform synapse: %w", err)
	}

	summary, err := synapse.FireWithInput(ctx, zyn.NewSession(), zyn.TransformInput{
		Text:        renderConversation(c.session.Messages()),
		Style:       compactionStyle,
		Temperature: DefaultCompactionTemperature,
	})
	if err != nil {
		return fmt.Errorf("compaction: summarization failed: %w", err)
	}

	c.session.Clear()
	c.session.Append(zyn.RoleSystem, fmt.Sprintf("Previous conversation summary:\n%s", summary))
	return nil
}

// renderConversation formats messages for summarization.
func renderConversation(messages []zyn.Message) string {
	var builder strings.Builder
	for _, msg := range messages {
		builder.WriteString(msg.Role)
		builder.WriteString(": ")
		builder.WriteString(msg.Content)
		builder.WriteString("\n\n")
	}
	return builder.String()
}
