// Package interp provides the frame and base interpreter consumed by the
// evaluator: fixed local slots, a bounded operand stack, generic per-opcode
// stack bookkeeping, and transfer functions with the modelled runtime's
// numeric semantics. It operates only on values, never on real objects.
package interp

import (
	"errors"
	"fmt"

	"github.com/chazu/bceval/pkg/bytecode"
	"github.com/chazu/bceval/pkg/value"
)

// Sentinel errors reported by frames and interpreters.
var (
	ErrStackOverflow  = errors.New("insufficient maximum stack size")
	ErrStackUnderflow = errors.New("cannot pop operand off an empty stack")
	ErrBadLocal       = errors.New("local variable index out of range")
	ErrTypeMismatch   = errors.New("operand type mismatch")
	ErrUnsupported    = errors.New("unsupported instruction")
	ErrUnknownValue   = errors.New("operand value is not known")

	// Conditions that would raise an exception at runtime.
	ErrDivideByZero     = errors.New("division by zero")
	ErrNullPointer      = errors.New("null reference")
	ErrIndexOutOfBounds = errors.New("array index out of bounds")
	ErrNegativeSize     = errors.New("negative array size")
)

// InsnError reports a failure executing a specific instruction.
type InsnError struct {
	Insn bytecode.Insn
	Err  error
}

func (e *InsnError) Error() string {
	return fmt.Sprintf("%s: %v", bytecode.FormatInsn(e.Insn), e.Err)
}

func (e *InsnError) Unwrap() error { return e.Err }

// wrapInsn attaches insn to err unless it already names an instruction.
func wrapInsn(insn bytecode.Insn, err error) error {
	if err == nil {
		return nil
	}
	var ie *InsnError
	if errors.As(err, &ie) {
		return err
	}
	return &InsnError{Insn: insn, Err: err}
}

// Interpreter supplies the transfer functions a Frame delegates to. A nil
// value result from an operation that produces nothing (jumps, stores,
// void calls) is expected.
type Interpreter interface {
	// NewOperation handles instructions that push without popping:
	// constants, ldc, getstatic, new, jsr.
	NewOperation(insn bytecode.Insn) (value.Value, error)

	// CopyOperation handles loads, stores and stack duplication.
	CopyOperation(insn bytecode.Insn, v value.Value) (value.Value, error)

	// UnaryOperation handles single-operand instructions: negation,
	// conversions, iinc, single-operand jumps, switches, getfield, putstatic,
	// newarray, anewarray, arraylength, athrow, checkcast, instanceof and
	// monitors.
	UnaryOperation(insn bytecode.Insn, v value.Value) (value.Value, error)

	// BinaryOperation handles array loads, arithmetic, comparisons,
	// two-operand jumps and putfield.
	BinaryOperation(insn bytecode.Insn, v1, v2 value.Value) (value.Value, error)

	// TernaryOperation handles array stores. A non-nil result replaces the
	// stored-into array wherever it is referenced in the frame.
	TernaryOperation(insn bytecode.Insn, v1, v2, v3 value.Value) (value.Value, error)

	// NaryOperation handles method invocations and multianewarray. For
	// instance calls values[0] is the receiver.
	NaryOperation(insn bytecode.Insn, values []value.Value) (value.Value, error)

	// ReturnOperation checks a returned value against the declared return type.
	ReturnOperation(insn bytecode.Insn, v value.Value, expected bytecode.Type) error
}
