package sequent

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
)

// Ledger is the append-only record of accepted Steps for one session.
// It keeps the ordered history plus a branch index mapping each branch id
// to its steps in acceptance order.
//
// # Concurrency
//
// Ledger is safe for concurrent use. A single lock covers the history and
// the branch index, so a reader never sees a step in one and not the other.
//
// # Graph Consistency
//
// The ledger records what it is given. It does not check that a revision
// target was ever recorded, and it does not check that steps sharing a
// branch id agree on their origin.
type Ledger struct {
	id        string
	traceID   string
	sessionID string
	createdAt time.Time

	history     []Step
	branches    map[string][]Step
	branchOrder []string    // branch ids in first-seen order
	latest      map[int]int // sequence number -> index of most recent step
	mu          sync.RWMutex
}

// NewLedger creates an empty ledger for the given session.
// The ledger id and trace id are generated.
func NewLedger(sessionID string) *Ledger {
	return newLedger(uuid.New().String(), uuid.New().String(), sessionID, time.Now())
}

func newLedger(id, traceID, sessionID string, createdAt time.Time) *Ledger {
	return &Ledger{
		id:        id,
		traceID:   traceID,
		sessionID: sessionID,
		createdAt: createdAt,
		history:   make([]Step, 0),
		branches:  make(map[string][]Step),
		latest:    make(map[int]int),
	}
}

// ID returns the ledger id.
func (l *Ledger) ID() string { return l.id }

// TraceID returns the trace id used to correlate events.
func (l *Ledger) TraceID() string { return l.traceID }

// SessionID returns the owning session id.
func (l *Ledger) SessionID() string { return l.sessionID }

// CreatedAt returns when the ledger was opened.
func (l *Ledger) CreatedAt() time.Time { return l.createdAt }

// Append records a validated step and returns the history length that
// includes it. It never fails; callers are expected to have run Validate
// first.
func (l *Ledger) Append(ctx context.Context, step Step) int {
	return l.record(ctx, step).length
}

// snapshot holds the ledger counters as of one append.
type snapshot struct {
	length       int
	branchIDs    []string
	branchCounts map[string]int
	newBranch    bool
}

// record appends the step and emits StepAccepted, plus BranchCreated when
// the step opened a branch. The returned counters are taken under the same
// lock as the append.
func (l *Ledger) record(ctx context.Context, step Step) snapshot {
	snap := l.append(step)

	fields := []capitan.Field{
		FieldLedgerID.Field(l.id),
		FieldTraceID.Field(l.traceID),
		FieldSequenceNumber.Field(step.SequenceNumber()),
		FieldEstimatedTotal.Field(step.EstimatedTotal()),
		FieldStepKind.Field(kindOf(step)),
		FieldHistoryLength.Field(snap.length),
		FieldContinuation.Field(step.Continues()),
		FieldSummary.Field(Describe(step, step.Continues())),
	}
	if id, ok := step.BranchID(); ok {
		fields = append(fields, FieldBranchID.Field(id))
	}
	capitan.Emit(ctx, StepAccepted, fields...)

	if snap.newBranch {
		id, _ := step.BranchID()
		capitan.Emit(ctx, BranchCreated,
			FieldLedgerID.Field(l.id),
			FieldTraceID.Field(l.traceID),
			FieldBranchID.Field(id),
			FieldBranchCount.Field(len(snap.branchIDs)),
		)
	}
	return snap
}

// append updates both structures under one lock and returns the counters
// as of this append.
func (l *Ledger) append(step Step) snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.history = append(l.history, step)
	l.latest[step.SequenceNumber()] = len(l.history) - 1

	var newBranch bool
	if id, ok := step.BranchID(); ok {
		bucket, exists := l.branches[id]
		if !exists {
			l.branchOrder = append(l.branchOrder, id)
		}
		l.branches[id] = append(bucket, step)
		newBranch = !exists
	}

	snap := snapshot{
		length:       len(l.history),
		branchIDs:    make([]string, len(l.branchOrder)),
		branchCounts: make(map[string]int, len(l.branches)),
		newBranch:    newBranch,
	}
	copy(snap.branchIDs, l.branchOrder)
	for id, steps := range l.branches {
		snap.branchCounts[id] = len(steps)
	}
	return snap
}

// HistoryLength returns the number of accepted steps.
func (l *Ledger) HistoryLength() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.history)
}

// History returns all accepted steps in acceptance order.
func (l *Ledger) History() []Step {
	l.mu.RLock()
	defer l.mu.RUnlock()

	steps := make([]Step, len(l.history))
	copy(steps, l.history)
	return steps
}

// BranchIDs returns every branch id seen so far, in first-seen order.
func (l *Ledger) BranchIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]string, len(l.branchOrder))
	copy(ids, l.branchOrder)
	return ids
}

// BranchStepCounts returns the number of steps recorded under each branch.
func (l *Ledger) BranchStepCounts() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make(map[string]int, len(l.branches))
	for id, steps := range l.branches {
		counts[id] = len(steps)
	}
	return counts
}

// BranchSteps returns the steps recorded under a branch id, in acceptance
// order. The result is empty for an unknown id.
func (l *Ledger) BranchSteps(id string) []Step {
	l.mu.RLock()
	defer l.mu.RUnlock()

	steps := make([]Step, len(l.branches[id]))
	copy(steps, l.branches[id])
	return steps
}

// FindBySequenceNumber returns the most recently accepted step carrying
// sequence number n. Sequence numbers are caller labels and may repeat;
// the last one written wins.
func (l *Ledger) FindBySequenceNumber(n int) (Step, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := l.latest[n]
	if !ok {
		return Step{}, false
	}
	return l.history[i], true
}

// kindOf classifies a step for events and log headers.
func kindOf(s Step) string {
	switch {
	case s.IsRevision():
		return "revision"
	case s.IsBranch():
		return "branch"
	default:
		return "thought"
	}
}
