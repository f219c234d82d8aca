package sequent

import (
	"fmt"
	"strings"
)

// Describe renders a step as a multi-line log block. The header names the
// step kind and its position against the horizon; branch steps add a line
// naming the branch.
//
//	Revision 4/6 (revising thought 2)
//	  Thought: ...
//	  Next Needed: true, Needs More: false
func Describe(step Step, continuation bool) string {
	var b strings.Builder

	n, total := step.SequenceNumber(), step.EstimatedTotal()
	origin, branching := step.BranchOrigin()
	branchID, _ := step.BranchID()

	switch {
	case step.IsRevision():
		revises, _ := step.Revises()
		fmt.Fprintf(&b, "Revision %d/%d (revising thought %d)", n, total, revises)
	case branching:
		fmt.Fprintf(&b, "Branch %d/%d (from thought %d, ID: %s)", n, total, origin, branchID)
	default:
		fmt.Fprintf(&b, "Thought %d/%d", n, total)
	}

	fmt.Fprintf(&b, "\n  Thought: %s", step.Content())
	if branching {
		fmt.Fprintf(&b, "\n  Branch Details: ID='%s', originates from Thought #%d", branchID, origin)
	}
	fmt.Fprintf(&b, "\n  Next Needed: %t, Needs More: %t", continuation, step.ExtendRequested())
	return b.String()
}
