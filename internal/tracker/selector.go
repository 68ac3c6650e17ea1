package tracker

import (
	"fmt"
	"math/rand/v2"

	"github.com/Ridwan414/shobdotori/internal/conf"
)

// Selector picks which unrecorded sentence to serve next. It is given the
// number of unrecorded sentences and returns an offset into them in
// ascending id order.
type Selector interface {
	Name() string
	Offset(remaining int) int
}

// SequentialSelector always serves the lowest unrecorded id.
type SequentialSelector struct{}

// Name returns the policy name.
func (SequentialSelector) Name() string { return conf.SelectionSequential }

// Offset returns 0.
func (SequentialSelector) Offset(int) int { return 0 }

// RandomSelector serves a uniformly random unrecorded sentence.
type RandomSelector struct{}

// Name returns the policy name.
func (RandomSelector) Name() string { return conf.SelectionRandom }

// Offset returns a uniform offset in [0, remaining).
func (RandomSelector) Offset(remaining int) int {
	if remaining <= 1 {
		return 0
	}
	return rand.IntN(remaining) //nolint:gosec // sentence order is not security sensitive
}

// NewSelector returns the selector for a configured policy; empty means sequential.
func NewSelector(policy string) (Selector, error) {
	switch policy {
	case "", conf.SelectionSequential:
		return SequentialSelector{}, nil
	case conf.SelectionRandom:
		return RandomSelector{}, nil
	default:
		return nil, fmt.Errorf("unknown selection policy %q", policy)
	}
}
