package sequent

import (
	"context"
	"fmt"
	"time"
)

// Journal persists ledgers beyond the life of a session. It is optional:
// the in-memory Ledger is authoritative while a session is live, and a
// failed journal write never affects it.
type Journal interface {
	// OpenLedger records a new ledger.
	OpenLedger(ctx context.Context, record *LedgerRecord) error

	// CloseLedger marks a ledger as closed.
	CloseLedger(ctx context.Context, ledgerID string) error

	// RecordStep stores an accepted step at its position in the history.
	RecordStep(ctx context.Context, entry *Entry) error

	// Ledger loads a ledger record by id.
	Ledger(ctx context.Context, ledgerID string) (*LedgerRecord, error)

	// Entries loads every step of a ledger in acceptance order.
	Entries(ctx context.Context, ledgerID string) ([]*Entry, error)

	// Ledgers lists the ledgers opened for a session, oldest first.
	Ledgers(ctx context.Context, sessionID string) ([]*LedgerRecord, error)

	// DeleteLedger removes a ledger and its steps.
	DeleteLedger(ctx context.Context, ledgerID string) error
}

// LedgerRecord is the persisted header of a ledger.
type LedgerRecord struct {
	ID        string     `db:"id" type:"uuid" constraints:"primarykey"`
	TraceID   string     `db:"trace_id" type:"text" constraints:"notnull,unique"`
	SessionID string     `db:"session_id" type:"text" constraints:"notnull"`
	CreatedAt time.Time  `db:"created_at" type:"timestamp" constraints:"notnull"`
	ClosedAt  *time.Time `db:"closed_at" type:"timestamp"`
}

// Entry is one persisted step. Position is the 1-based index of the step
// in the ledger history, which keeps acceptance order even when sequence
// numbers repeat.
type Entry struct {
	ID                         string    `db:"id" type:"uuid" constraints:"primarykey" default:"gen_random_uuid()"`
	LedgerID                   string    `db:"ledger_id" type:"uuid" constraints:"notnull" references:"ledgers(id)"`
	Position                   int       `db:"position" type:"integer" constraints:"notnull"`
	Content                    string    `db:"content" type:"text" constraints:"notnull"`
	SequenceNumber             int       `db:"sequence_number" type:"integer" constraints:"notnull"`
	EstimatedTotal             int       `db:"estimated_total" type:"integer" constraints:"notnull"`
	ContinuationExpected       bool      `db:"continuation_expected" type:"boolean" constraints:"notnull"`
	IsRevision                 bool      `db:"is_revision" type:"boolean" constraints:"notnull"`
	RevisesSequenceNumber      *int      `db:"revises_sequence_number" type:"integer"`
	BranchOriginSequenceNumber *int      `db:"branch_origin_sequence_number" type:"integer"`
	BranchID                   *string   `db:"branch_id" type:"text"`
	ExtendRequested            bool      `db:"extend_requested" type:"boolean" constraints:"notnull"`
	AcceptedAt                 time.Time `db:"accepted_at" type:"timestamp" constraints:"notnull"`
}

// recordOf builds the persisted header of a ledger.
func recordOf(l *Ledger) *LedgerRecord {
	return &LedgerRecord{
		ID:        l.ID(),
		TraceID:   l.TraceID(),
		SessionID: l.SessionID(),
		CreatedAt: l.CreatedAt(),
	}
}

// entryOf builds the persisted form of a step.
func entryOf(ledgerID string, position int, step Step) *Entry {
	return &Entry{
		LedgerID:                   ledgerID,
		Position:                   position,
		Content:                    step.content,
		SequenceNumber:             step.sequenceNumber,
		EstimatedTotal:             step.estimatedTotal,
		ContinuationExpected:       step.continuationExpected,
		IsRevision:                 step.isRevision,
		RevisesSequenceNumber:      copyInt(step.revises),
		BranchOriginSequenceNumber: copyInt(step.branchOrigin),
		BranchID:                   copyString(step.branchID),
		ExtendRequested:            step.extendRequested,
		AcceptedAt:                 time.Now(),
	}
}

// Step rebuilds the step an entry was recorded from. Entries are written
// only for accepted steps, so no validation is repeated.
func (e *Entry) Step() Step {
	return Step{
		content:              e.Content,
		sequenceNumber:       e.SequenceNumber,
		estimatedTotal:       e.EstimatedTotal,
		continuationExpected: e.ContinuationExpected,
		isRevision:           e.IsRevision,
		revises:              copyInt(e.RevisesSequenceNumber),
		branchOrigin:         copyInt(e.BranchOriginSequenceNumber),
		branchID:             copyString(e.BranchID),
		extendRequested:      e.ExtendRequested,
	}
}

// Replay rebuilds a ledger from its journal. The result carries the
// original ids and is populated without emitting step signals.
func Replay(ctx context.Context, journal Journal, ledgerID string) (*Ledger, error) {
	record, err := journal.Ledger(ctx, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger %s: %w", ledgerID, err)
	}

	entries, err := journal.Entries(ctx, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries for ledger %s: %w", ledgerID, err)
	}

	ledger := newLedger(record.ID, record.TraceID, record.SessionID, record.CreatedAt)
	for _, entry := range entries {
		ledger.append(entry.Step())
	}
	return ledger, nil
}

// NopJournal discards every write and holds nothing.
type NopJournal struct{}

// OpenLedger implements Journal.
func (NopJournal) OpenLedger(context.Context, *LedgerRecord) error { return nil }

// CloseLedger implements Journal.
func (NopJournal) CloseLedger(context.Context, string) error { return nil }

// RecordStep implements Journal.
func (NopJournal) RecordStep(context.Context, *Entry) error { return nil }

// Ledger implements Journal. It always reports the ledger as missing.
func (NopJournal) Ledger(_ context.Context, ledgerID string) (*LedgerRecord, error) {
	return nil, fmt.Errorf("ledger %s not found: journal disabled", ledgerID)
}

// Entries implements Journal.
func (NopJournal) Entries(context.Context, string) ([]*Entry, error) { return nil, nil }

// Ledgers implements Journal.
func (NopJournal) Ledgers(context.Context, string) ([]*LedgerRecord, error) { return nil, nil }

// DeleteLedger implements Journal.
func (NopJournal) DeleteLedger(context.Context, string) error { return nil }
