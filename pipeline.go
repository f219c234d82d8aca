package sequent

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// exchange carries one submission through the accept pipeline.
type exchange struct {
	submission Submission
	validated  Validated
	counters   snapshot // ledger counters as of the append
	input      string
	response   string
}

// Pipeline stage identities.
var (
	acceptID   = pipz.NewIdentity("accept", "Validate, record and delegate one step")
	validateID = pipz.NewIdentity("validate", "Check a submission against the step invariants")
	recordID   = pipz.NewIdentity("record", "Append the step to the ledger")
	journalID  = pipz.NewIdentity("journal", "Persist the step when a journal is configured")
	composeID  = pipz.NewIdentity("compose", "Build the coordinator input")
	delegateID = pipz.NewIdentity("delegate", "Ask the coordinator for a response")
	timeoutID  = pipz.NewIdentity("delegate-timeout", "Bound one coordinator attempt")
	backoffID  = pipz.NewIdentity("delegate-backoff", "Retry the coordinator with exponential backoff")
)

// buildPipeline assembles the accept pipeline for a session.
func (s *Session) buildPipeline() pipz.Chainable[*exchange] {
	var delegate pipz.Chainable[*exchange] = pipz.Apply(delegateID, s.delegate)
	if s.timeout > 0 {
		delegate = pipz.NewTimeout(timeoutID, delegate, s.timeout)
	}
	if s.attempts > 1 {
		delegate = pipz.NewBackoff(backoffID, delegate, s.attempts, s.backoff)
	}

	return pipz.NewSequence(acceptID,
		pipz.Apply(validateID, s.validate),
		pipz.Apply(recordID, s.record),
		pipz.Enrich(journalID, s.persist),
		pipz.Transform(composeID, s.compose),
		delegate,
	)
}

func (s *Session) validate(ctx context.Context, e *exchange) (*exchange, error) {
	v, err := Validate(e.submission)
	if err != nil {
		capitan.Warn(ctx, StepRejected,
			FieldLedgerID.Field(s.ledger.ID()),
			FieldTraceID.Field(s.ledger.TraceID()),
			FieldSequenceNumber.Field(e.submission.SequenceNumber),
			FieldReason.Field(err.Error()),
		)
		return e, err
	}
	e.validated = v
	return e, nil
}

func (s *Session) record(ctx context.Context, e *exchange) (*exchange, error) {
	e.counters = s.ledger.record(ctx, e.validated.Step)
	return e, nil
}

// persist writes the step to the journal. Failures are reported and
// otherwise ignored.
func (s *Session) persist(ctx context.Context, e *exchange) (*exchange, error) {
	if s.journal == nil {
		return e, nil
	}
	if err := s.journal.RecordStep(ctx, entryOf(s.ledger.ID(), e.counters.length, e.validated.Step)); err != nil {
		capitan.Error(ctx, JournalFailed,
			FieldLedgerID.Field(s.ledger.ID()),
			FieldTraceID.Field(s.ledger.TraceID()),
			FieldSequenceNumber.Field(e.validated.Step.SequenceNumber()),
			FieldError.Field(err),
		)
		return e, err
	}
	return e, nil
}

func (s *Session) compose(_ context.Context, e *exchange) *exchange {
	e.input = Compose(s.ledger, e.validated.Step)
	return e
}

// delegate calls the coordinator. It returns a copy of the exchange since
// a timeout may abandon the call while it is still running.
//
// Events are emitted on a context detached from cancellation. The timeout
// cancels ctx as soon as this stage returns, and capitan drops events
// whose context is already done by the time they are dispatched.
func (s *Session) delegate(ctx context.Context, e *exchange) (*exchange, error) {
	name := coordinatorName(s.coordinator)
	events := context.WithoutCancel(ctx)
	capitan.Emit(events, DelegateStarted,
		FieldLedgerID.Field(s.ledger.ID()),
		FieldTraceID.Field(s.ledger.TraceID()),
		FieldSequenceNumber.Field(e.validated.Step.SequenceNumber()),
		FieldCoordinator.Field(name),
		FieldInputSize.Field(len(e.input)),
	)

	start := time.Now()
	response, err := s.coordinator.Respond(ctx, e.input)
	if err != nil {
		return e, &InternalError{Op: "delegate", Err: err}
	}

	capitan.Emit(events, DelegateCompleted,
		FieldLedgerID.Field(s.ledger.ID()),
		FieldTraceID.Field(s.ledger.TraceID()),
		FieldSequenceNumber.Field(e.validated.Step.SequenceNumber()),
		FieldCoordinator.Field(name),
		FieldResponseSize.Field(len(response)),
		FieldDuration.Field(time.Since(start)),
	)

	out := *e
	out.response = response
	return &out, nil
}
