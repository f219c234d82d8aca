package sequent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// Session owns the ledger of one client session and the coordinator that
// answers its steps. Sessions are independent of each other; nothing is
// shared between them.
//
// Configure a session with the builder methods before the first Accept.
// The accept pipeline is built on first use.
type Session struct {
	id          string
	ledger      *Ledger
	coordinator Coordinator
	journal     Journal

	// Configuration
	timeout  time.Duration
	attempts int
	backoff  time.Duration

	// Built pipeline (lazy initialization)
	pipeline pipz.Chainable[*exchange]
	once     sync.Once

	mu     sync.Mutex
	closed bool
}

// NewSession creates a session with an empty ledger and emits LedgerOpened.
// A nil coordinator is replaced by an EchoCoordinator.
//
// Example:
//
//	session := sequent.NewSession(ctx, "client-1", coordinator).
//	    WithJournal(journal).
//	    WithDelegateTimeout(30 * time.Second)
//	defer session.Close(ctx)
func NewSession(ctx context.Context, id string, coordinator Coordinator) *Session {
	if coordinator == nil {
		coordinator = EchoCoordinator{}
	}
	s := &Session{
		id:          id,
		ledger:      NewLedger(id),
		coordinator: coordinator,
		timeout:     DefaultDelegateTimeout,
		attempts:    DefaultDelegateAttempts,
		backoff:     DefaultDelegateBackoff,
	}

	capitan.Info(ctx, LedgerOpened,
		FieldLedgerID.Field(s.ledger.ID()),
		FieldTraceID.Field(s.ledger.TraceID()),
		FieldSessionID.Field(id),
		FieldCoordinator.Field(coordinatorName(coordinator)),
	)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Ledger returns the session ledger for read access.
func (s *Session) Ledger() *Ledger { return s.ledger }

// Coordinator returns the coordinator answering this session.
func (s *Session) Coordinator() Coordinator { return s.coordinator }

// Accept validates a submission, records it and asks the coordinator for a
// response.
//
// A *ValidationError means nothing was recorded. An *InternalError means
// the step was recorded but no response was produced; the ledger keeps the
// step. Both are returned unwrapped.
func (s *Session) Accept(ctx context.Context, in Submission) (*Reply, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, &InternalError{Op: "accept", Err: ErrSessionClosed}
	}

	s.once.Do(func() {
		s.open(ctx)
		s.pipeline = s.buildPipeline()
	})

	result, err := s.pipeline.Process(ctx, &exchange{submission: in})
	if err != nil {
		return nil, s.classify(ctx, in, err)
	}

	return assemble(result.validated, result.counters, result.response), nil
}

// classify reduces a pipeline failure to one of the two error kinds.
func (s *Session) classify(ctx context.Context, in Submission, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}

	ie := &InternalError{}
	if !errors.As(err, &ie) {
		ie = &InternalError{Op: "delegate", Err: err}
	}

	capitan.Error(ctx, DelegateFailed,
		FieldLedgerID.Field(s.ledger.ID()),
		FieldTraceID.Field(s.ledger.TraceID()),
		FieldSequenceNumber.Field(in.SequenceNumber),
		FieldCoordinator.Field(coordinatorName(s.coordinator)),
		FieldError.Field(ie.Err),
	)
	return ie
}

// open writes the ledger header to the journal. A journal that cannot
// open the ledger is dropped for the rest of the session.
func (s *Session) open(ctx context.Context) {
	if s.journal == nil {
		return
	}
	if err := s.journal.OpenLedger(ctx, recordOf(s.ledger)); err != nil {
		capitan.Error(ctx, JournalFailed,
			FieldLedgerID.Field(s.ledger.ID()),
			FieldTraceID.Field(s.ledger.TraceID()),
			FieldError.Field(fmt.Errorf("open ledger: %w", err)),
		)
		s.journal = nil
	}
}

// Close releases the session. It emits LedgerClosed and closes the
// journal record. Calling Close more than once has no further effect.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// Waits for a pipeline build in progress and prevents a later one.
	s.once.Do(func() {})

	var err error
	if s.journal != nil && s.pipeline != nil {
		if cerr := s.journal.CloseLedger(ctx, s.ledger.ID()); cerr != nil {
			err = fmt.Errorf("failed to close ledger %s: %w", s.ledger.ID(), cerr)
		}
	}
	if s.pipeline != nil {
		if perr := s.pipeline.Close(); perr != nil && err == nil {
			err = perr
		}
	}

	capitan.Info(ctx, LedgerClosed,
		FieldLedgerID.Field(s.ledger.ID()),
		FieldTraceID.Field(s.ledger.TraceID()),
		FieldSessionID.Field(s.id),
		FieldHistoryLength.Field(s.ledger.HistoryLength()),
		FieldBranchCount.Field(len(s.ledger.BranchIDs())),
	)
	return err
}

// Builder methods

// WithJournal persists the ledger through j.
func (s *Session) WithJournal(j Journal) *Session {
	s.journal = j
	return s
}

// WithDelegateTimeout bounds each coordinator attempt. With retries
// enabled every attempt gets the full duration, so the total wait may
// reach attempts times d plus the backoff delays. Zero disables the bound.
func (s *Session) WithDelegateTimeout(d time.Duration) *Session {
	s.timeout = d
	return s
}

// WithDelegateBackoff retries a failing coordinator up to attempts times
// with exponential backoff starting at base.
func (s *Session) WithDelegateBackoff(attempts int, base time.Duration) *Session {
	s.attempts = attempts
	s.backoff = base
	return s
}
