// Package sequent records a step-by-step reasoning process and relays each
// step to a coordinator for a response.
//
// sequent implements a Step-Ledger-Session architecture for sequential
// thinking services where a caller submits numbered thoughts, revises
// earlier ones and branches into alternatives.
//
// # Core Types
//
// The package is built around three core concepts:
//
//   - [Step] - One immutable unit of reasoning, validated from a [Submission]
//   - [Ledger] - The append-only history of a session plus its branch index
//   - [Session] - A ledger bound to a [Coordinator], with the accept pipeline
//
// # Accepting Steps
//
// Create one session per client and submit steps to it:
//
//	session := sequent.NewSession(ctx, clientID, coordinator)
//	defer session.Close(ctx)
//
//	reply, err := session.Accept(ctx, sequent.Submission{
//	    Content:              "Frame the problem",
//	    SequenceNumber:       1,
//	    EstimatedTotal:       5,
//	    ContinuationExpected: true,
//	})
//
// Accept returns either a [*ValidationError], in which case nothing was
// recorded, or an [*InternalError] raised after the step was recorded.
//
// # Step Rules
//
// Estimated totals below [MinHorizon] are raised to it. A revision must
// name an earlier step; a branch must name both its id and an earlier
// origin. A step at or past its horizon does not expect continuation
// unless the caller asks to extend.
//
// # Coordinators
//
//   - [EchoCoordinator] - Acknowledges every step without a model
//   - [SynapseCoordinator] - Answers through a zyn Transform synapse and
//     keeps the conversation within a message window
//   - [CoordinatorFunc] - Adapts a plain function
//
// Provider access uses a resolution hierarchy:
//
//  1. Explicit parameter ([NewSynapseCoordinator])
//  2. Context value (sequent.WithProvider(ctx, p))
//
// # Persistence
//
// A [Journal] records ledgers as they grow. [SoyJournal] stores them in
// PostgreSQL; [Replay] rebuilds a ledger from its journal.
//
// # Observability
//
// Every lifecycle event is emitted as a capitan signal (see signals.go).
// [Describe] renders a step the way it appears in logs.
package sequent
