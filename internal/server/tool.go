package server

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/zoobzio/sequent"
	"github.com/zoobzio/sequent/internal/registry"
)

// ToolName is the name clients call.
const ToolName = "sequentialthinking"

// Error prefixes shown to the caller.
const (
	validationPrefix = "Input validation failed: "
	internalPrefix   = "An unexpected error occurred: "
)

const toolDescription = `A detailed tool for dynamic and reflective problem-solving through thoughts.

This tool helps analyze problems through a flexible thinking process that can adapt and evolve.
Each thought can build on, question, or revise previous insights as understanding deepens.
Every thought is passed to a Coordinator that delegates sub-tasks to specialists
(Planner, Researcher, Analyzer, Critic, Synthesizer) and synthesizes their outputs.

When to use this tool:
- Breaking down complex problems into manageable steps.
- Planning and design processes requiring iterative refinement and revision.
- Complex analysis where the approach might need course correction based on findings.
- Problems where the full scope or optimal path is not clear initially.
- Situations requiring a multi-step solution with context maintained across steps.
- Developing and verifying solution hypotheses through a chain of reasoning.

Key features & usage guidelines:
- The process is driven by the caller making sequential calls to this tool.
- Start with an initial estimate for totalThoughts (at least 5) and adjust it in later calls if needed.
- Use isRevision=true and revisesThought to revisit and correct previous steps.
- Use branchFromThought and branchId to explore alternative paths or perspectives.
- If the estimate is reached but more steps are needed, set needsMoreThoughts=true on the last thought within the estimate.
- Set nextThoughtNeeded=false only when the process is complete and a final answer is ready.

Returns the Coordinator's synthesized response for the current thought, followed by guidance
for the next step (for example, suggestions to revise or branch).`

// ThinkInput is the tool input as sent by the client.
type ThinkInput struct {
	Thought           string  `json:"thought" jsonschema:"the content of the current thinking step"`
	ThoughtNumber     int     `json:"thoughtNumber" jsonschema:"sequence number of this thought (>=1); may exceed totalThoughts when extended"`
	TotalThoughts     int     `json:"totalThoughts" jsonschema:"current estimate of the thoughts required (minimum 5)"`
	NextThoughtNeeded bool    `json:"nextThoughtNeeded" jsonschema:"whether another thought will follow this one"`
	IsRevision        bool    `json:"isRevision,omitempty" jsonschema:"true if this thought revises a previous one"`
	RevisesThought    *int    `json:"revisesThought,omitempty" jsonschema:"thoughtNumber being revised; requires isRevision"`
	BranchFromThought *int    `json:"branchFromThought,omitempty" jsonschema:"thoughtNumber this thought branches from"`
	BranchID          *string `json:"branchId,omitempty" jsonschema:"identifier of the branch; required with branchFromThought"`
	NeedsMoreThoughts bool    `json:"needsMoreThoughts,omitempty" jsonschema:"true if more thoughts than estimated will be needed"`
}

// Submission converts the input to the ledger's raw submission.
func (in ThinkInput) Submission() sequent.Submission {
	return sequent.Submission{
		Content:                    in.Thought,
		SequenceNumber:             in.ThoughtNumber,
		EstimatedTotal:             in.TotalThoughts,
		ContinuationExpected:       in.NextThoughtNeeded,
		IsRevision:                 in.IsRevision,
		RevisesSequenceNumber:      in.RevisesThought,
		BranchOriginSequenceNumber: in.BranchFromThought,
		BranchID:                   in.BranchID,
		ExtendRequested:            in.NeedsMoreThoughts,
	}
}

// ThinkingTool describes the sequential thinking tool.
func ThinkingTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolName,
		Description: toolDescription,
	}
}

type handler struct {
	registry *registry.Registry
	logger   *zap.Logger
}

// think records one thought in the caller's session ledger and returns the
// coordinator response. Failures are reported as tool errors.
func (h *handler) think(ctx context.Context, req *mcp.CallToolRequest, in ThinkInput) (*mcp.CallToolResult, sequent.Reply, error) {
	id := sessionID(req)
	session, created, err := h.registry.Session(ctx, id)
	if err != nil {
		h.logger.Warn("session unavailable",
			zap.String("session_id", registry.Key(id)),
			zap.Error(err),
		)
		return nil, sequent.Reply{}, errors.New(internalPrefix + err.Error())
	}
	if created {
		h.logger.Info("session opened",
			zap.String("session_id", session.ID()),
			zap.String("ledger_id", session.Ledger().ID()),
		)
		h.releaseOnDisconnect(req, id)
	}

	reply, err := session.Accept(ctx, in.Submission())
	if err != nil {
		var ve *sequent.ValidationError
		if errors.As(err, &ve) {
			h.logger.Warn("thought rejected",
				zap.String("session_id", session.ID()),
				zap.Int("thought_number", in.ThoughtNumber),
				zap.String("reason", ve.Reason),
			)
			return nil, sequent.Reply{}, errors.New(validationPrefix + ve.Error())
		}
		h.logger.Error("thought failed",
			zap.String("session_id", session.ID()),
			zap.Int("thought_number", in.ThoughtNumber),
			zap.Error(err),
		)
		return nil, sequent.Reply{}, errors.New(internalPrefix + err.Error())
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: reply.CoordinatorResponse}},
	}, *reply, nil
}

// releaseOnDisconnect closes the session's ledger once the client session
// ends. The stdio session has no id and is never expired by the registry,
// so it lives as long as the process.
func (h *handler) releaseOnDisconnect(req *mcp.CallToolRequest, id string) {
	if id == "" || req == nil || req.Session == nil {
		return
	}
	ss := req.Session
	go func() {
		_ = ss.Wait()
		h.registry.Release(id)
	}()
}

func sessionID(req *mcp.CallToolRequest) string {
	if req == nil || req.Session == nil {
		return ""
	}
	return req.Session.ID()
}
