package sequent

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/astql/postgres"
	"github.com/zoobzio/soy"
)

// SoyJournal implements Journal using soy for persistence.
type SoyJournal struct {
	ledgers *soy.Soy[LedgerRecord]
	entries *soy.Soy[Entry]
	db      *sqlx.DB
}

// NewSoyJournal creates a new soy-backed Journal implementation.
func NewSoyJournal(db *sqlx.DB) (*SoyJournal, error) {
	renderer := postgres.New()

	ledgers, err := soy.New[LedgerRecord](db, "ledgers", renderer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledgers table: %w", err)
	}

	entries, err := soy.New[Entry](db, "steps", renderer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize steps table: %w", err)
	}

	return &SoyJournal{
		ledgers: ledgers,
		entries: entries,
		db:      db,
	}, nil
}

// OpenLedger persists a new ledger record.
func (j *SoyJournal) OpenLedger(ctx context.Context, record *LedgerRecord) error {
	if _, err := j.ledgers.Insert().Exec(ctx, record); err != nil {
		return fmt.Errorf("failed to insert ledger: %w", err)
	}
	return nil
}

// CloseLedger stamps the ledger's closing time.
func (j *SoyJournal) CloseLedger(ctx context.Context, ledgerID string) error {
	_, err := j.ledgers.Modify().
		Set("closed_at", "closed_at").
		Where("id", "=", "id").
		Exec(ctx, map[string]any{
			"closed_at": time.Now(),
			"id":        ledgerID,
		})
	if err != nil {
		return fmt.Errorf("failed to close ledger: %w", err)
	}
	return nil
}

// RecordStep persists an accepted step.
func (j *SoyJournal) RecordStep(ctx context.Context, entry *Entry) error {
	if _, err := j.entries.Insert().Exec(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert step: %w", err)
	}
	return nil
}

// Ledger loads a ledger record by id.
func (j *SoyJournal) Ledger(ctx context.Context, ledgerID string) (*LedgerRecord, error) {
	record, err := j.ledgers.Select().
		Where("id", "=", "id").
		Exec(ctx, map[string]any{"id": ledgerID})
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	return record, nil
}

// Entries loads all steps for a ledger, ordered by position.
func (j *SoyJournal) Entries(ctx context.Context, ledgerID string) ([]*Entry, error) {
	entries, err := j.entries.Query().
		Where("ledger_id", "=", "ledger_id").
		OrderBy("position", "asc").
		Exec(ctx, map[string]any{"ledger_id": ledgerID})
	if err != nil {
		return nil, fmt.Errorf("failed to get steps: %w", err)
	}
	return entries, nil
}

// Ledgers loads all ledgers opened for a session, ordered by creation time.
func (j *SoyJournal) Ledgers(ctx context.Context, sessionID string) ([]*LedgerRecord, error) {
	records, err := j.ledgers.Query().
		Where("session_id", "=", "session_id").
		OrderBy("created_at", "asc").
		Exec(ctx, map[string]any{"session_id": sessionID})
	if err != nil {
		return nil, fmt.Errorf("failed to get ledgers by session ID: %w", err)
	}
	return records, nil
}

// DeleteLedger removes a ledger and all its steps.
func (j *SoyJournal) DeleteLedger(ctx context.Context, ledgerID string) error {
	// Delete steps first (foreign key constraint)
	_, err := j.entries.Remove().
		Where("ledger_id", "=", "ledger_id").
		Exec(ctx, map[string]any{"ledger_id": ledgerID})
	if err != nil {
		return fmt.Errorf("failed to delete steps: %w", err)
	}

	_, err = j.ledgers.Remove().
		Where("id", "=", "id").
		Exec(ctx, map[string]any{"id": ledgerID})
	if err != nil {
		return fmt.Errorf("failed to delete ledger: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (j *SoyJournal) Close() error {
	return j.db.Close()
}
