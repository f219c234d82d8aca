package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zoobzio/sequent"
)

// PromptName is the starter prompt clients can request.
const PromptName = "sequential-thinking"

const promptDescription = "Starter prompt for non-linear sequential thinking, providing problem and guidelines separately."

// StarterPrompt describes the starter prompt and its arguments.
func StarterPrompt() *mcp.Prompt {
	return &mcp.Prompt{
		Name:        PromptName,
		Description: promptDescription,
		Arguments: []*mcp.PromptArgument{
			{Name: "problem", Description: "The problem to think through", Required: true},
			{Name: "context", Description: "Optional background for the problem"},
		},
	}
}

func startPrompt(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var problem, background string
	if req != nil && req.Params != nil {
		problem = req.Params.Arguments["problem"]
		background = req.Params.Arguments["context"]
	}
	if problem == "" {
		return nil, fmt.Errorf("argument %q is required", "problem")
	}

	return &mcp.GetPromptResult{
		Description: promptDescription,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: userPrompt(problem, background)}},
			{Role: "assistant", Content: &mcp.TextContent{Text: guidelines(problem)}},
		},
	}, nil
}

func userPrompt(problem, background string) string {
	text := "Initiate a comprehensive sequential thinking process for the following problem:\n\n" +
		"Problem: " + problem
	if background != "" {
		text += "\nContext: " + background
	}
	return text
}

func guidelines(problem string) string {
	n := sequent.MinHorizon
	return fmt.Sprintf(`Okay, let's start the sequential thinking process. Here are the guidelines and the process we'll follow:

**Sequential Thinking Goals & Guidelines**:

1.  **Estimate Steps:** Analyze the problem complexity. Your initial `+"`totalThoughts`"+` estimate should be at least %[1]d.
2.  **First Thought:** Call the '%[2]s' tool with `+"`thoughtNumber: 1`"+`, your estimated `+"`totalThoughts`"+` (at least %[1]d), and `+"`nextThoughtNeeded: true`"+`. Structure your first thought as: "Plan a comprehensive analysis approach for: %[3]s"
3.  **Encouraged Revision:** Actively look for opportunities to revise previous thoughts if you identify flaws, oversights, or necessary refinements. Use `+"`isRevision: true`"+` and `+"`revisesThought: <thought_number>`"+` when performing a revision. Look for 'RECOMMENDATION: Revise thought #X...' in the Coordinator's response.
4.  **Encouraged Branching:** Explore alternative paths, perspectives, or solutions where appropriate. Use `+"`branchFromThought: <thought_number>`"+` and `+"`branchId: <unique_branch_name>`"+` to initiate branches. Consider suggestions for branching proposed by the Coordinator (e.g., 'SUGGESTION: Consider branching...').
5.  **Extension:** If the analysis requires more steps than initially estimated, use `+"`needsMoreThoughts: true`"+` on the thought *before* you need the extension.
6.  **Thought Content:** Each thought must:
    *   Be detailed and specific to the current stage (planning, analysis, critique, synthesis, revision, branching).
    *   Clearly explain the *reasoning* behind the thought, especially for revisions and branches.
    *   Conclude by outlining what the *next* thought needs to address.

**Process:**

*   The `+"`%[2]s`"+` tool will track your progress. The Coordinator receives your thought, delegates sub-tasks to specialists (like Analyzer, Critic), and synthesizes their outputs, potentially including recommendations for revision or branching.
*   Focus on insightful analysis, constructive critique, and creative exploration.
*   Actively reflect on the process. Linear thinking might be insufficient for complex problems.

Proceed with the first thought based on these guidelines.`, n, ToolName, problem)
}
