// Package integrity defines the two failure classes of the arbiter model.
//
// A ConfigurationError is returned when a parameter combination is not
// supported; the model refuses to build. An InvariantViolation is raised with
// panic when a check that the hardware encodes as a fatal assertion fails.
// Violations are never recovered inside the model: they mean the surrounding
// protocol logic is broken.
package integrity

import (
	"fmt"

	"github.com/sarchlab/mempoolsim/timing/bitvec"
)

// ConfigurationError reports an unsupported parameter value.
type ConfigurationError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unsupported configuration: %s=%d: %s",
		e.Field, e.Value, e.Reason)
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(field string, value int, reason string) error {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}

// Check names an integrity check.
type Check string

// The checks carried over from the hardware assertions.
const (
	CheckEnqueueValidSlot  Check = "enqueue-valid-slot"
	CheckEnqueueMultiHot   Check = "enqueue-multi-hot"
	CheckEnqueueWidth      Check = "enqueue-lanes"
	CheckSelectInvalidSlot Check = "select-invalid-slot"
	CheckWinnerOneHot      Check = "winner-one-hot"
	CheckNoOldestCandidate Check = "no-oldest-candidate"
	CheckAgeOrder          Check = "age-order"
	CheckDuplicateGrant    Check = "duplicate-grant"
	CheckRequestWithdrawn  Check = "request-withdrawn"
	CheckSlotPartition     Check = "slot-partition"
	CheckInputWidth        Check = "input-width"
)

// InvariantViolation is the panic value of a failed integrity check.
type InvariantViolation struct {
	Check  Check
	Detail string
}

func (v *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation [%s]: %s", v.Check, v.Detail)
}

// Fail panics with an InvariantViolation.
func Fail(check Check, format string, args ...any) {
	panic(&InvariantViolation{
		Check:  check,
		Detail: fmt.Sprintf(format, args...),
	})
}

// MustBeOneHotOrZero fails the check if more than one bit of v is set.
func MustBeOneHotOrZero(check Check, what string, v bitvec.Vec) {
	if !v.IsOneHotOrZero() {
		Fail(check, "%s is multi-hot: %s", what, v)
	}
}

// MustBeSubset fails the check if sub has a bit that super does not.
func MustBeSubset(check Check, what string, sub, super bitvec.Vec) {
	extra := sub.AndNot(super)
	if !extra.IsZero() {
		Fail(check, "%s has unexpected bits %v", what, extra.Indices())
	}
}

// MustHaveWidth fails the check if v is not width bits wide.
func MustHaveWidth(check Check, what string, v bitvec.Vec, width int) {
	if v.Width() != width {
		Fail(check, "%s is %d bits wide, want %d", what, v.Width(), width)
	}
}
