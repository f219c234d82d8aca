package main

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/zoobzio/sequent"
)

var errNoDatabase = errors.New("replay requires DATABASE_URL or --database-url")

func (a *app) replayCmd() *cobra.Command {
	var ledgerID, sessionID string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Print a journaled ledger, or list the ledgers of a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ledgerID == "" && sessionID == "" {
				return errors.New("one of --ledger or --session is required")
			}
			if a.cfg.DatabaseURL == "" {
				return errNoDatabase
			}

			db, err := sqlx.Connect("postgres", a.cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer func() { _ = db.Close() }()

			journal, err := sequent.NewSoyJournal(db)
			if err != nil {
				return err
			}

			if ledgerID == "" {
				return a.listLedgers(cmd, journal, sessionID)
			}
			return a.printLedger(cmd, journal, ledgerID)
		},
	}
	cmd.Flags().StringVar(&ledgerID, "ledger", "", "Ledger id to print")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id whose ledgers to list")
	return cmd
}

func (a *app) printLedger(cmd *cobra.Command, journal sequent.Journal, ledgerID string) error {
	ledger, err := sequent.Replay(cmd.Context(), journal, ledgerID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Ledger %s (session %s, trace %s)\n", ledger.ID(), ledger.SessionID(), ledger.TraceID())
	for _, step := range ledger.History() {
		fmt.Fprintln(a.out, sequent.Describe(step, step.Continues()))
	}
	if ids := ledger.BranchIDs(); len(ids) > 0 {
		counts := ledger.BranchStepCounts()
		for _, id := range ids {
			fmt.Fprintf(a.out, "Branch %s: %d steps\n", id, counts[id])
		}
	}
	return nil
}

func (a *app) listLedgers(cmd *cobra.Command, journal sequent.Journal, sessionID string) error {
	records, err := journal.Ledgers(cmd.Context(), sessionID)
	if err != nil {
		return err
	}
	for _, r := range records {
		state := "open"
		if r.ClosedAt != nil {
			state = "closed " + r.ClosedAt.Format("2006-01-02T15:04:05Z07:00")
		}
		fmt.Fprintf(a.out, "%s  %s  %s\n", r.ID, r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), state)
	}
	return nil
}
