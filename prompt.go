package sequent

import (
	"fmt"
	"strings"
)

const (
	unknownRevisionTarget = "Unknown Original Thought"
	unknownBranchOrigin   = "Unknown Branch Point"
)

// Compose builds the coordinator input for a step. Revisions quote the
// step they revise and branches quote the step they diverge from, looked
// up in the ledger. Targets the ledger has never seen are named as
// unknown rather than rejected.
//
// A step that is both a revision and a branch is described as a revision.
func Compose(ledger *Ledger, step Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Process Thought #%d:\n", step.SequenceNumber())

	if revises, ok := step.Revises(); step.IsRevision() && ok {
		original := unknownRevisionTarget
		if prior, found := ledger.FindBySequenceNumber(revises); found {
			original = prior.Content()
		}
		fmt.Fprintf(&b, "**This is a REVISION of Thought #%d** (Original: \"%s\").\n", revises, original)
	} else if origin, ok := step.BranchOrigin(); ok {
		point := unknownBranchOrigin
		if prior, found := ledger.FindBySequenceNumber(origin); found {
			point = prior.Content()
		}
		id, _ := step.BranchID()
		fmt.Fprintf(&b, "**This is a BRANCH (ID: %s) from Thought #%d** (Origin: \"%s\").\n", id, origin, point)
	}

	fmt.Fprintf(&b, "\nThought Content: \"%s\"", step.Content())
	return b.String()
}
