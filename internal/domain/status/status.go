// Package status models the lifecycle shared by cart items and orders.
package status

import (
	"fmt"
)

// Status is the lifecycle state of a cart item or an order.
type Status string

const (
	Pending   Status = "pending"
	Validated Status = "validated"
	Shipped   Status = "shipped"
	Delivered Status = "delivered"
	Cancelled Status = "cancelled"
)

// validTransitions defines allowed state transitions.
// Delivered and Cancelled are terminal.
var validTransitions = map[Status][]Status{
	Pending:   {Validated, Cancelled},
	Validated: {Shipped, Cancelled},
	Shipped:   {Delivered},
	Delivered: {},
	Cancelled: {},
}

// All lists every known status.
var All = []Status{Pending, Validated, Shipped, Delivered, Cancelled}

// Parse converts a wire string to a Status.
func Parse(s string) (Status, error) {
	for _, known := range All {
		if string(known) == s {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// CanTransitionTo checks whether from may move to target.
func (from Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Guard predicates matching the transition table.
func (from Status) CanValidate() bool { return from == Pending }
func (from Status) CanShip() bool     { return from == Validated }
func (from Status) CanDeliver() bool  { return from == Shipped }
func (from Status) CanCancel() bool   { return from == Pending || from == Validated }

// Terminal reports whether no further transition is possible.
func (from Status) Terminal() bool {
	return len(validTransitions[from]) == 0
}

// TransitionError reports an invalid lifecycle transition. It carries both
// the current and the requested status so callers can surface them.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// Check returns nil if from may move to target, or a *TransitionError.
func Check(from, to Status) error {
	if !from.CanTransitionTo(to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
