package eval

import (
	"fmt"

	"github.com/chazu/bceval/pkg/value"
)

// Result is the outcome of one evaluation: exactly one of *Yield, *Throw or
// *Failure.
type Result interface {
	String() string
	result()
}

// Yield carries the value a method or block produced.
type Yield struct {
	Value value.Value
}

// Throw carries an exception that would have propagated. Exception control
// flow is not modelled, so evaluation never produces it.
type Throw struct {
	Exception value.Value
}

// Failure reports why evaluation could not produce a value.
type Failure struct {
	Reason string
	Cause  error
}

func (*Yield) result()   {}
func (*Throw) result()   {}
func (*Failure) result() {}

func (y *Yield) String() string { return "yield " + y.Value.String() }

func (t *Throw) String() string { return "throw " + t.Exception.String() }

func (f *Failure) String() string { return "failure: " + f.Error() }

// Error lets a Failure be returned or wrapped as an error.
func (f *Failure) Error() string {
	if f.Cause == nil {
		return f.Reason
	}
	return f.Reason + ": " + f.Cause.Error()
}

func (f *Failure) Unwrap() error { return f.Cause }

func failf(cause error, format string, args ...any) *Failure {
	return &Failure{Reason: fmt.Sprintf(format, args...), Cause: cause}
}
