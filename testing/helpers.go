// Package sequenttest provides test utilities for sequent.
package sequenttest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/sequent"
)

// ErrInjected is returned by MockJournal and StubCoordinator when told to fail.
var ErrInjected = errors.New("injected failure")

// MockJournal implements sequent.Journal for testing without a database.
type MockJournal struct {
	ledgers map[string]*sequent.LedgerRecord
	entries map[string][]*sequent.Entry

	// FailOpen and FailRecord make the matching calls return ErrInjected.
	FailOpen   bool
	FailRecord bool

	mu sync.RWMutex
}

// NewMockJournal creates a new in-memory mock for sequent.Journal.
func NewMockJournal() *MockJournal {
	return &MockJournal{
		ledgers: make(map[string]*sequent.LedgerRecord),
		entries: make(map[string][]*sequent.Entry),
	}
}

// OpenLedger stores a ledger record.
func (m *MockJournal) OpenLedger(_ context.Context, record *sequent.LedgerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailOpen {
		return ErrInjected
	}
	stored := *record
	m.ledgers[record.ID] = &stored
	return nil
}

// CloseLedger stamps the closing time of a ledger.
func (m *MockJournal) CloseLedger(_ context.Context, ledgerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.ledgers[ledgerID]
	if !ok {
		return fmt.Errorf("ledger not found: %s", ledgerID)
	}
	now := time.Now()
	record.ClosedAt = &now
	return nil
}

// RecordStep stores an entry with a generated id.
func (m *MockJournal) RecordStep(_ context.Context, entry *sequent.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailRecord {
		return ErrInjected
	}
	if _, ok := m.ledgers[entry.LedgerID]; !ok {
		return fmt.Errorf("ledger not found: %s", entry.LedgerID)
	}
	stored := *entry
	stored.ID = uuid.New().String()
	m.entries[entry.LedgerID] = append(m.entries[entry.LedgerID], &stored)
	return nil
}

// Ledger loads a ledger record by id.
func (m *MockJournal) Ledger(_ context.Context, ledgerID string) (*sequent.LedgerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.ledgers[ledgerID]
	if !ok {
		return nil, fmt.Errorf("ledger not found: %s", ledgerID)
	}
	stored := *record
	return &stored, nil
}

// Entries loads all entries for a ledger, ordered by position.
func (m *MockJournal) Entries(_ context.Context, ledgerID string) ([]*sequent.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]*sequent.Entry, len(m.entries[ledgerID]))
	copy(entries, m.entries[ledgerID])
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Position < entries[j].Position
	})
	return entries, nil
}

// Ledgers lists the ledgers of a session, ordered by creation time.
func (m *MockJournal) Ledgers(_ context.Context, sessionID string) ([]*sequent.LedgerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := []*sequent.LedgerRecord{}
	for _, record := range m.ledgers {
		if record.SessionID == sessionID {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// DeleteLedger removes a ledger and its entries.
func (m *MockJournal) DeleteLedger(_ context.Context, ledgerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.ledgers, ledgerID)
	delete(m.entries, ledgerID)
	return nil
}

// Verify MockJournal implements sequent.Journal.
var _ sequent.Journal = (*MockJournal)(nil)

// StubCoordinator answers with a fixed response and records every input.
type StubCoordinator struct {
	Response string
	Err      error
	Delay    time.Duration

	mu     sync.Mutex
	inputs []string
}

// Respond implements sequent.Coordinator.
func (c *StubCoordinator) Respond(ctx context.Context, input string) (string, error) {
	c.mu.Lock()
	c.inputs = append(c.inputs, input)
	c.mu.Unlock()

	if c.Delay > 0 {
		select {
		case <-time.After(c.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if c.Err != nil {
		return "", c.Err
	}
	return c.Response, nil
}

// Inputs returns every input received so far.
func (c *StubCoordinator) Inputs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	inputs := make([]string, len(c.inputs))
	copy(inputs, c.inputs)
	return inputs
}

// NewTestSession creates a Session answered by an EchoCoordinator and
// closes it when the test ends.
func NewTestSession(t *testing.T) *sequent.Session {
	t.Helper()
	ctx := context.Background()
	session := sequent.NewSession(ctx, "test-"+uuid.New().String(), sequent.EchoCoordinator{})
	t.Cleanup(func() { _ = session.Close(ctx) })
	return session
}

// Thought builds a plain submission.
func Thought(content string, n, total int, next bool) sequent.Submission {
	return sequent.Submission{
		Content:              content,
		SequenceNumber:       n,
		EstimatedTotal:       total,
		ContinuationExpected: next,
	}
}

// Revision builds a submission revising step target.
func Revision(content string, n, total, target int) sequent.Submission {
	s := Thought(content, n, total, true)
	s.IsRevision = true
	s.RevisesSequenceNumber = &target
	return s
}

// Branch builds a submission diverging from step origin under id.
func Branch(content string, n, total, origin int, id string) sequent.Submission {
	s := Thought(content, n, total, true)
	s.BranchOriginSequenceNumber = &origin
	s.BranchID = &id
	return s
}

// RequireAccepted submits and fails the test on any error.
func RequireAccepted(t *testing.T, session *sequent.Session, in sequent.Submission) *sequent.Reply {
	t.Helper()
	reply, err := session.Accept(context.Background(), in)
	if err != nil {
		t.Fatalf("expected submission %d to be accepted, got error: %v", in.SequenceNumber, err)
	}
	return reply
}

// RequireRejected submits and fails the test unless a ValidationError is returned.
func RequireRejected(t *testing.T, session *sequent.Session, in sequent.Submission) *sequent.ValidationError {
	t.Helper()
	_, err := session.Accept(context.Background(), in)
	var ve *sequent.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error for submission %d, got %v", in.SequenceNumber, err)
	}
	return ve
}
