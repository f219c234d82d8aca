package sequent

// StatusSuccess is the status reported on every accepted step.
const StatusSuccess = "success"

// MainBranch names the trunk in replies for steps that do not branch.
const MainBranch = "main"

const finalGuidance = "\n\nThis is the final thought. Review the Coordinator's final synthesis."

const nextGuidance = "\n\nGuidance for next step:" +
	"\n- **Revision/Branching:** Look for 'RECOMMENDATION: Revise thought #X...' or " +
	"'SUGGESTION: Consider branching...' in the response." +
	" Use `isRevision=True`/`revisesThought=X` for revisions or " +
	"`branchFromThought=Y`/`branchId='...'` for branching accordingly." +
	"\n- **Next Thought:** Based on the Coordinator's response, formulate the next logical thought, " +
	"addressing any points raised."

// Reply is the result of an accepted step: the coordinator response with
// guidance appended, plus the ledger counters as of this step.
type Reply struct {
	ProcessedThoughtNumber int           `json:"processedThoughtNumber"`
	EstimatedTotalThoughts int           `json:"estimatedTotalThoughts"`
	NextThoughtNeeded      bool          `json:"nextThoughtNeeded"`
	CoordinatorResponse    string        `json:"coordinatorResponse"`
	Branches               []string      `json:"branches"`
	ThoughtHistoryLength   int           `json:"thoughtHistoryLength"`
	BranchDetails          BranchDetails `json:"branchDetails"`
	IsRevision             bool          `json:"isRevision"`
	RevisesThought         *int          `json:"revisesThought,omitempty"`
	IsBranch               bool          `json:"isBranch"`
	Status                 string        `json:"status"`
}

// BranchDetails describes where the step sits in the branch structure.
type BranchDetails struct {
	CurrentBranchID     string         `json:"currentBranchId"`
	BranchOriginThought *int           `json:"branchOriginThought"`
	AllBranches         map[string]int `json:"allBranches"`
}

// Guidance returns the text appended to a coordinator response. The final
// step of a process asks for review; any other step explains how to revise,
// branch or continue.
func Guidance(continuation bool) string {
	if !continuation {
		return finalGuidance
	}
	return nextGuidance
}

// assemble builds the reply for an accepted step. Every counter comes from
// the snapshot taken when the step was appended.
func assemble(v Validated, counters snapshot, response string) *Reply {
	step := v.Step

	reply := &Reply{
		ProcessedThoughtNumber: step.SequenceNumber(),
		EstimatedTotalThoughts: step.EstimatedTotal(),
		NextThoughtNeeded:      v.ContinuationExpected,
		CoordinatorResponse:    response + Guidance(v.ContinuationExpected),
		Branches:               counters.branchIDs,
		ThoughtHistoryLength:   counters.length,
		BranchDetails: BranchDetails{
			CurrentBranchID:     MainBranch,
			BranchOriginThought: copyInt(step.branchOrigin),
			AllBranches:         counters.branchCounts,
		},
		IsRevision: step.IsRevision(),
		IsBranch:   step.IsBranch(),
		Status:     StatusSuccess,
	}

	if step.IsBranch() {
		if id, ok := step.BranchID(); ok {
			reply.BranchDetails.CurrentBranchID = id
		}
	}
	if step.IsRevision() {
		reply.RevisesThought = copyInt(step.revises)
	}
	return reply
}
