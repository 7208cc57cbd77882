package types

import (
	"time"
)

// Operation identifies the kind of noodle write passing through a
// MutationPipeline.
type Operation int

const (
	OpCreate Operation = iota + 1
	OpUpdate
)

func (o Operation) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Mutation is a proposed noodle write as seen by the pipeline stages.
type Mutation struct {
	Operation Operation

	// Previous is the committed noodle, read inside the write transaction.
	// Nil on create.
	Previous *Noodle

	// ProposedReviewsCount is nil when the write does not touch
	// reviewsCount.
	ProposedReviewsCount *int64
}

// DerivedFields are the extra fields a pipeline asks the store to commit
// together with the proposed ones. Nil fields are left untouched.
type DerivedFields struct {
	LastReviewedAt *time.Time
}

func (d DerivedFields) merge(other DerivedFields) DerivedFields {
	if other.LastReviewedAt != nil {
		d.LastReviewedAt = other.LastReviewedAt
	}
	return d
}

// MutationStage is one step of the guarded update path. Validate may veto
// the mutation; Derive runs only after every stage accepted it.
type MutationStage interface {
	Name() string
	Validate(m Mutation) error
	Derive(m Mutation) DerivedFields
}

// MutationPipeline runs its stages in order: all Validate calls first,
// then all Derive calls.
type MutationPipeline struct {
	stages []MutationStage
}

// NewMutationPipeline returns a pipeline over the given stages.
func NewMutationPipeline(stages ...MutationStage) *MutationPipeline {
	return &MutationPipeline{stages: append([]MutationStage(nil), stages...)}
}

// DefaultPipeline returns the pipeline every noodle write goes through:
// the review-count guard on the wall clock.
func DefaultPipeline() *MutationPipeline {
	return NewMutationPipeline(NewReviewCountGuard(nil))
}

// Stages returns the stage names in execution order.
func (p *MutationPipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Apply validates the mutation against every stage and stops at the first
// rejection. When all stages accept, it returns the merged derived fields.
// A nil pipeline accepts everything and derives nothing.
func (p *MutationPipeline) Apply(m Mutation) (DerivedFields, error) {
	if p == nil {
		return DerivedFields{}, nil
	}
	for _, s := range p.stages {
		if err := s.Validate(m); err != nil {
			return DerivedFields{}, err
		}
	}
	var out DerivedFields
	for _, s := range p.stages {
		out = out.merge(s.Derive(m))
	}
	return out, nil
}

// ReviewCountGuard keeps reviewsCount monotonically non-decreasing and
// stamps lastReviewedAt when an update raises it.
type ReviewCountGuard struct {
	Now func() time.Time
}

// NewReviewCountGuard returns a guard reading time from now, or from
// time.Now when now is nil.
func NewReviewCountGuard(now func() time.Time) *ReviewCountGuard {
	if now == nil {
		now = time.Now
	}
	return &ReviewCountGuard{Now: now}
}

// Name implements MutationStage.
func (g *ReviewCountGuard) Name() string { return "reviewCountGuard" }

// Validate rejects updates that propose a lower reviewsCount than the
// committed one. A missing previous state counts as zero.
func (g *ReviewCountGuard) Validate(m Mutation) error {
	proposed, previous, ok := reviewCounts(m)
	if !ok {
		return nil
	}
	if proposed < previous {
		return &ValidationError{Field: "reviewsCount", Message: MsgReviewsCountDecreased}
	}
	return nil
}

// Derive sets LastReviewedAt when the update raises reviewsCount.
func (g *ReviewCountGuard) Derive(m Mutation) DerivedFields {
	proposed, previous, ok := reviewCounts(m)
	if !ok || proposed <= previous {
		return DerivedFields{}
	}
	now := g.now().UTC()
	return DerivedFields{LastReviewedAt: &now}
}

func (g *ReviewCountGuard) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

func reviewCounts(m Mutation) (proposed, previous int64, ok bool) {
	if m.Operation != OpUpdate || m.ProposedReviewsCount == nil {
		return 0, 0, false
	}
	if m.Previous != nil {
		previous = m.Previous.ReviewsCount
	}
	return *m.ProposedReviewsCount, previous, true
}
