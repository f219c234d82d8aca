package sequent

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// MinHorizon is the smallest estimated total a step may carry. Smaller
// estimates are raised to this value, never rejected.
const MinHorizon = 5

// Submission holds the raw fields of a step as the caller sent them.
// Optional fields are nil when absent.
type Submission struct {
	Content                    string  `name:"content" validate:"required"`
	SequenceNumber             int     `name:"sequenceNumber" validate:"gte=1"`
	EstimatedTotal             int     `name:"estimatedTotal"`
	ContinuationExpected       bool    `name:"continuationExpected"`
	IsRevision                 bool    `name:"isRevision"`
	RevisesSequenceNumber      *int    `name:"revisesSequenceNumber" validate:"omitempty,gte=1"`
	BranchOriginSequenceNumber *int    `name:"branchOriginSequenceNumber" validate:"omitempty,gte=1"`
	BranchID                   *string `name:"branchId"`
	ExtendRequested            bool    `name:"extendRequested"`
}

// Step is one accepted unit of the reasoning process. A Step never changes
// once built; a revision is a new Step that points back at an older one.
type Step struct {
	content              string
	sequenceNumber       int
	estimatedTotal       int
	continuationExpected bool
	isRevision           bool
	revises              *int
	branchOrigin         *int
	branchID             *string
	extendRequested      bool
}

// Content returns the step text.
func (s Step) Content() string { return s.content }

// SequenceNumber returns the position the step claims in the caller's narrative.
func (s Step) SequenceNumber() int { return s.sequenceNumber }

// EstimatedTotal returns the clamped horizon.
func (s Step) EstimatedTotal() int { return s.estimatedTotal }

// ContinuationExpected returns the caller's stated intent, before the
// horizon rule is applied. See Validated.ContinuationExpected for the
// effective value.
func (s Step) ContinuationExpected() bool { return s.continuationExpected }

// IsRevision reports whether the step revises an earlier one.
func (s Step) IsRevision() bool { return s.isRevision }

// ExtendRequested reports whether the caller asked to go past the horizon.
func (s Step) ExtendRequested() bool { return s.extendRequested }

// Revises returns the sequence number being revised.
func (s Step) Revises() (int, bool) {
	if s.revises == nil {
		return 0, false
	}
	return *s.revises, true
}

// BranchOrigin returns the sequence number the step diverges from.
func (s Step) BranchOrigin() (int, bool) {
	if s.branchOrigin == nil {
		return 0, false
	}
	return *s.branchOrigin, true
}

// BranchID returns the branch the step belongs to.
func (s Step) BranchID() (string, bool) {
	if s.branchID == nil {
		return "", false
	}
	return *s.branchID, true
}

// IsBranch reports whether the step diverges from an earlier one.
func (s Step) IsBranch() bool {
	return s.branchOrigin != nil
}

// Validated pairs an accepted Step with the effective continuation flag.
type Validated struct {
	Step Step

	// ContinuationExpected is false whenever the step reaches the horizon
	// without an extension request, whatever the caller asked for.
	ContinuationExpected bool
}

var stepValidate = newStepValidator()

func newStepValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("name"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Validate checks a submission against the step invariants and returns the
// canonical Step. It has no side effects.
func Validate(in Submission) (Validated, error) {
	if err := stepValidate.Struct(in); err != nil {
		return Validated{}, translate(err)
	}

	if in.RevisesSequenceNumber != nil {
		if !in.IsRevision {
			return Validated{}, rejection("revisesSequenceNumber,isRevision",
				"revisesSequenceNumber set without isRevision")
		}
		if *in.RevisesSequenceNumber >= in.SequenceNumber {
			return Validated{}, rejection("revisesSequenceNumber",
				fmt.Sprintf("revisesSequenceNumber (%d) must be less than sequenceNumber (%d)",
					*in.RevisesSequenceNumber, in.SequenceNumber))
		}
	} else if in.IsRevision {
		return Validated{}, rejection("isRevision,revisesSequenceNumber",
			"isRevision set without revisesSequenceNumber")
	}

	switch {
	case in.BranchID != nil && *in.BranchID == "":
		return Validated{}, rejection("branchId", "branchId must not be empty")
	case in.BranchID != nil && in.BranchOriginSequenceNumber == nil:
		return Validated{}, rejection("branchId,branchOriginSequenceNumber",
			"branchId set without branchOriginSequenceNumber")
	case in.BranchOriginSequenceNumber != nil && in.BranchID == nil:
		return Validated{}, rejection("branchOriginSequenceNumber,branchId",
			"branchOriginSequenceNumber set without branchId")
	case in.BranchOriginSequenceNumber != nil && *in.BranchOriginSequenceNumber >= in.SequenceNumber:
		return Validated{}, rejection("branchOriginSequenceNumber",
			fmt.Sprintf("branchOriginSequenceNumber (%d) must be less than sequenceNumber (%d)",
				*in.BranchOriginSequenceNumber, in.SequenceNumber))
	}

	step := Step{
		content:              in.Content,
		sequenceNumber:       in.SequenceNumber,
		estimatedTotal:       max(in.EstimatedTotal, MinHorizon),
		continuationExpected: in.ContinuationExpected,
		isRevision:           in.IsRevision,
		revises:              copyInt(in.RevisesSequenceNumber),
		branchOrigin:         copyInt(in.BranchOriginSequenceNumber),
		branchID:             copyString(in.BranchID),
		extendRequested:      in.ExtendRequested,
	}

	return Validated{Step: step, ContinuationExpected: step.Continues()}, nil
}

// Continues applies the horizon rule to the caller's stated intent: a
// step at or past its estimated total ends the process unless an extension
// was requested.
func (s Step) Continues() bool {
	if s.sequenceNumber >= s.estimatedTotal && !s.extendRequested {
		return false
	}
	return s.continuationExpected
}

// translate turns the first field-level failure into a ValidationError.
func translate(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return rejection("", err.Error())
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return rejection(fe.Field(), fmt.Sprintf("%s must not be empty", fe.Field()))
	case "gte":
		return rejection(fe.Field(), fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
	default:
		return rejection(fe.Field(), fmt.Sprintf("%s failed %q check", fe.Field(), fe.Tag()))
	}
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
