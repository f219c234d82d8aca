package sequent

import (
	"context"
	"strings"
	"testing"
)

func TestCompose(t *testing.T) {
	ctx := context.Background()

	t.Run("plain thought", func(t *testing.T) {
		l := NewLedger("s")
		step := mustStep(t, Submission{Content: "frame it", SequenceNumber: 1, EstimatedTotal: 5})
		l.Append(ctx, step)

		got := Compose(l, step)
		want := "Process Thought #1:\n\nThought Content: \"frame it\""
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("revision quotes the original", func(t *testing.T) {
		l := NewLedger("s")
		l.Append(ctx, mustStep(t, Submission{Content: "first idea", SequenceNumber: 1, EstimatedTotal: 5}))

		in := Submission{Content: "better idea", SequenceNumber: 2, EstimatedTotal: 5, IsRevision: true}
		in.RevisesSequenceNumber = intPtr(1)
		step := mustStep(t, in)
		l.Append(ctx, step)

		got := Compose(l, step)
		if !strings.Contains(got, "**This is a REVISION of Thought #1** (Original: \"first idea\").\n") {
			t.Errorf("missing revision line in %q", got)
		}
		if !strings.HasSuffix(got, "\nThought Content: \"better idea\"") {
			t.Errorf("missing content line in %q", got)
		}
	})

	t.Run("revision of an unknown step", func(t *testing.T) {
		l := NewLedger("s")
		in := Submission{Content: "revise", SequenceNumber: 4, EstimatedTotal: 5, IsRevision: true}
		in.RevisesSequenceNumber = intPtr(2)
		step := mustStep(t, in)

		got := Compose(l, step)
		if !strings.Contains(got, "(Original: \"Unknown Original Thought\")") {
			t.Errorf("expected unknown original in %q", got)
		}
	})

	t.Run("branch quotes the origin", func(t *testing.T) {
		l := NewLedger("s")
		l.Append(ctx, mustStep(t, Submission{Content: "fork here", SequenceNumber: 2, EstimatedTotal: 5}))

		in := Submission{Content: "alternative", SequenceNumber: 3, EstimatedTotal: 5}
		in.BranchOriginSequenceNumber = intPtr(2)
		in.BranchID = strPtr("alt")
		step := mustStep(t, in)

		got := Compose(l, step)
		if !strings.Contains(got, "**This is a BRANCH (ID: alt) from Thought #2** (Origin: \"fork here\").\n") {
			t.Errorf("missing branch line in %q", got)
		}
	})

	t.Run("branch from an unknown step", func(t *testing.T) {
		l := NewLedger("s")
		in := Submission{Content: "alternative", SequenceNumber: 3, EstimatedTotal: 5}
		in.BranchOriginSequenceNumber = intPtr(1)
		in.BranchID = strPtr("alt")

		got := Compose(l, mustStep(t, in))
		if !strings.Contains(got, "(Origin: \"Unknown Branch Point\")") {
			t.Errorf("expected unknown branch point in %q", got)
		}
	})

	t.Run("revision takes precedence over branch", func(t *testing.T) {
		l := NewLedger("s")
		in := Submission{Content: "both", SequenceNumber: 3, EstimatedTotal: 5, IsRevision: true}
		in.RevisesSequenceNumber = intPtr(1)
		in.BranchOriginSequenceNumber = intPtr(2)
		in.BranchID = strPtr("alt")

		got := Compose(l, mustStep(t, in))
		if !strings.Contains(got, "REVISION") || strings.Contains(got, "BRANCH") {
			t.Errorf("expected only a revision line in %q", got)
		}
	})
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name         string
		in           Submission
		continuation bool
		want         string
	}{
		{
			name:         "thought",
			in:           Submission{Content: "look", SequenceNumber: 2, EstimatedTotal: 6},
			continuation: true,
			want:         "Thought 2/6\n  Thought: look\n  Next Needed: true, Needs More: false",
		},
		{
			name: "revision",
			in: Submission{Content: "again", SequenceNumber: 4, EstimatedTotal: 6,
				IsRevision: true, RevisesSequenceNumber: intPtr(2)},
			want: "Revision 4/6 (revising thought 2)\n  Thought: again\n  Next Needed: false, Needs More: false",
		},
		{
			name: "branch",
			in: Submission{Content: "other", SequenceNumber: 3, EstimatedTotal: 6, ExtendRequested: true,
				BranchOriginSequenceNumber: intPtr(1), BranchID: strPtr("b1")},
			continuation: true,
			want: "Branch 3/6 (from thought 1, ID: b1)\n  Thought: other\n" +
				"  Branch Details: ID='b1', originates from Thought #1\n" +
				"  Next Needed: true, Needs More: true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe(mustStep(t, tt.in), tt.continuation)
			if got != tt.want {
				t.Errorf("expected:\n%s\ngot:\n%s", tt.want, got)
			}
		})
	}
}
