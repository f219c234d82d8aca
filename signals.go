package sequent

import "github.com/zoobzio/capitan"

// Signal definitions for ledger and session events.
// Signals follow the pattern: sequent.<entity>.<event>.
var (
	// Ledger lifecycle signals.
	LedgerOpened = capitan.NewSignal(
		"sequent.ledger.opened",
		"New ledger created for a session",
	)
	LedgerClosed = capitan.NewSignal(
		"sequent.ledger.closed",
		"Ledger released at session teardown",
	)

	// Step signals.
	StepAccepted = capitan.NewSignal(
		"sequent.step.accepted",
		"Validated step appended to the ledger",
	)
	StepRejected = capitan.NewSignal(
		"sequent.step.rejected",
		"Submission failed validation; nothing recorded",
	)
	BranchCreated = capitan.NewSignal(
		"sequent.branch.created",
		"First step recorded under a new branch id",
	)

	// Coordinator signals.
	DelegateStarted = capitan.NewSignal(
		"sequent.delegate.started",
		"Coordinator invoked for an accepted step",
	)
	DelegateCompleted = capitan.NewSignal(
		"sequent.delegate.completed",
		"Coordinator produced a response",
	)
	DelegateFailed = capitan.NewSignal(
		"sequent.delegate.failed",
		"Coordinator failed; the step stays recorded",
	)

	// Persistence signals.
	JournalFailed = capitan.NewSignal(
		"sequent.journal.failed",
		"Journal write failed; the in-memory ledger is unaffected",
	)

	// Session signals.
	SessionCompacted = capitan.NewSignal(
		"sequent.session.compacted",
		"Coordinator conversation trimmed to its window",
	)
	SessionEvicted = capitan.NewSignal(
		"sequent.session.evicted",
		"Idle session closed by the registry",
	)
)

// Field keys for sequent event data.
var (
	// Identity.
	FieldLedgerID  = capitan.NewStringKey("ledger_id")
	FieldTraceID   = capitan.NewStringKey("trace_id")
	FieldSessionID = capitan.NewStringKey("session_id")

	// Step metadata.
	FieldSequenceNumber = capitan.NewIntKey("sequence_number")
	FieldEstimatedTotal = capitan.NewIntKey("estimated_total")
	FieldStepKind       = capitan.NewStringKey("step_kind") // thought, revision, branch
	FieldBranchID       = capitan.NewStringKey("branch_id")
	FieldContinuation   = capitan.NewBoolKey("continuation")
	FieldSummary        = capitan.NewStringKey("summary")
	FieldReason         = capitan.NewStringKey("reason")

	// Ledger metrics.
	FieldHistoryLength = capitan.NewIntKey("history_length")
	FieldBranchCount   = capitan.NewIntKey("branch_count")

	// Coordinator metadata.
	FieldCoordinator  = capitan.NewStringKey("coordinator")
	FieldInputSize    = capitan.NewIntKey("input_size") // character count
	FieldResponseSize = capitan.NewIntKey("response_size")
	FieldMessageCount = capitan.NewIntKey("message_count")

	// Timing.
	FieldDuration = capitan.NewDurationKey("duration")

	// Error information.
	FieldError = capitan.NewErrorKey("error")
)
