package types

import "fmt"

// Reviewer is implemented by noodle tables that add a review in one
// guarded write, reading the current count under the same lock that
// commits the increment.
type Reviewer interface {
	AddReview(noodleID string) (*Noodle, error)
}

// LeaveReview records one more review for the noodle and returns the
// committed noodle, with lastReviewedAt stamped by the guard. The noodles
// table must implement Reviewer.
func LeaveReview(p Pantry, noodleID string) (*Noodle, error) {
	tbl, err := p.GetTable(TableNoodles)
	if err != nil {
		return nil, err
	}
	r, ok := tbl.(Reviewer)
	if !ok {
		return nil, fmt.Errorf("noodles table does not support reviews: %w", ErrInvalidData)
	}
	n, err := r.AddReview(noodleID)
	if err != nil {
		return nil, fmt.Errorf("leaving review for %s: %w", noodleID, err)
	}
	return n, nil
}

// GetNoodle reads a noodle from the noodles table and asserts its type.
func GetNoodle(tbl Table, noodleID string) (*Noodle, error) {
	v, err := tbl.Get(noodleID)
	if err != nil {
		return nil, err
	}
	n, ok := v.(*Noodle)
	if !ok {
		return nil, ErrInvalidData
	}
	return n, nil
}
