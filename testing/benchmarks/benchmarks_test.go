package benchmarks_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/zoobzio/sequent"
	sequenttest "github.com/zoobzio/sequent/testing"
)

func BenchmarkValidate(b *testing.B) {
	in := sequenttest.Revision("benchmark revision", 5, 10, 2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := sequent.Validate(in); err != nil {
			b.Fatalf("failed to validate: %v", err)
		}
	}
}

func BenchmarkLedgerAppend(b *testing.B) {
	ctx := context.Background()
	ledger := sequent.NewLedger("benchmark")
	v, err := sequent.Validate(sequenttest.Branch("benchmark branch", 3, 10, 1, "b1"))
	if err != nil {
		b.Fatalf("failed to validate: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ledger.Append(ctx, v.Step)
	}
}

func BenchmarkFindBySequenceNumber(b *testing.B) {
	ctx := context.Background()
	ledger := sequent.NewLedger("benchmark")
	for i := 1; i <= 100; i++ {
		v, _ := sequent.Validate(sequenttest.Thought(fmt.Sprintf("thought %d", i), i, 100, true))
		ledger.Append(ctx, v.Step)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := ledger.FindBySequenceNumber(i%100 + 1); !ok {
			b.Fatal("expected step")
		}
	}
}

func BenchmarkSessionAccept(b *testing.B) {
	ctx := context.Background()
	session := sequent.NewSession(ctx, "benchmark", sequent.EchoCoordinator{})
	defer func() { _ = session.Close(ctx) }()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		in := sequenttest.Thought("benchmark thought", i+1, b.N+1, true)
		if _, err := session.Accept(ctx, in); err != nil {
			b.Fatalf("failed to accept: %v", err)
		}
	}
}
