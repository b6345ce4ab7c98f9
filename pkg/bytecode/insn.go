package bytecode

import "fmt"

// ConstKind identifies the payload of an ldc constant.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstLong
	ConstFloat
	ConstDouble
	ConstString
	ConstType    // Class literal; Str holds the descriptor
	ConstHandle  // Method handle; never evaluable
	ConstDynamic // Dynamically-computed constant; never evaluable
)

// String returns a human-readable name for ConstKind.
func (k ConstKind) String() string {
	switch k {
	case ConstInt:
		return "int"
	case ConstLong:
		return "long"
	case ConstFloat:
		return "float"
	case ConstDouble:
		return "double"
	case ConstString:
		return "string"
	case ConstType:
		return "type"
	case ConstHandle:
		return "handle"
	case ConstDynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("ConstKind(%d)", k)
	}
}

// Constant is the operand of an ldc instruction.
type Constant struct {
	Kind  ConstKind `cbor:"1,keyasint"`
	Int   int64     `cbor:"2,keyasint,omitempty"` // ConstInt, ConstLong
	Float float64   `cbor:"3,keyasint,omitempty"` // ConstFloat, ConstDouble
	Str   string    `cbor:"4,keyasint,omitempty"` // ConstString, ConstType, ConstHandle, ConstDynamic
}

// IntConst returns an int constant.
func IntConst(v int32) Constant { return Constant{Kind: ConstInt, Int: int64(v)} }

// LongConst returns a long constant.
func LongConst(v int64) Constant { return Constant{Kind: ConstLong, Int: v} }

// FloatConst returns a float constant.
func FloatConst(v float32) Constant { return Constant{Kind: ConstFloat, Float: float64(v)} }

// DoubleConst returns a double constant.
func DoubleConst(v float64) Constant { return Constant{Kind: ConstDouble, Float: v} }

// StringConst returns a string constant.
func StringConst(v string) Constant { return Constant{Kind: ConstString, Str: v} }

// TypeConst returns a class literal constant.
func TypeConst(desc string) Constant { return Constant{Kind: ConstType, Str: desc} }

// Insn is a single instruction node. Only the operand fields relevant to the
// opcode's InsnKind are meaningful; the rest stay zero.
type Insn struct {
	Op Opcode `cbor:"1,keyasint"`

	Var     int       `cbor:"2,keyasint,omitempty"` // KindVar, KindIinc
	Incr    int       `cbor:"3,keyasint,omitempty"` // KindIinc
	Operand int       `cbor:"4,keyasint,omitempty"` // KindIntOperand
	Const   *Constant `cbor:"5,keyasint,omitempty"` // KindLdc

	Owner     string `cbor:"6,keyasint,omitempty"` // KindField, KindMethod
	Name      string `cbor:"7,keyasint,omitempty"` // KindField, KindMethod, KindInvokeDynamic
	Desc      string `cbor:"8,keyasint,omitempty"` // descriptor, or internal name for KindType
	Interface bool   `cbor:"9,keyasint,omitempty"` // KindMethod owner is an interface

	Label   string   `cbor:"10,keyasint,omitempty"` // KindLabel name, KindJump target
	Min     int32    `cbor:"11,keyasint,omitempty"` // KindTableSwitch
	Max     int32    `cbor:"12,keyasint,omitempty"` // KindTableSwitch
	Keys    []int32  `cbor:"13,keyasint,omitempty"` // KindLookupSwitch
	Labels  []string `cbor:"14,keyasint,omitempty"` // switch targets
	Default string   `cbor:"15,keyasint,omitempty"` // switch default target
	Dims    int      `cbor:"16,keyasint,omitempty"` // KindMultiANewArray
}

// ---------------------------------------------------------------------------
// Instruction constructors
// ---------------------------------------------------------------------------

// Op returns an operand-less instruction.
func Op(op Opcode) Insn { return Insn{Op: op} }

// IntInsn returns a bipush, sipush or newarray instruction.
func IntInsn(op Opcode, operand int) Insn { return Insn{Op: op, Operand: operand} }

// VarInsn returns a local variable load/store or ret instruction.
func VarInsn(op Opcode, slot int) Insn { return Insn{Op: op, Var: slot} }

// Iinc returns an iinc instruction.
func Iinc(slot, incr int) Insn { return Insn{Op: OpIinc, Var: slot, Incr: incr} }

// Ldc returns an ldc instruction.
func Ldc(c Constant) Insn { return Insn{Op: OpLdc, Const: &c} }

// TypeInsn returns a new, anewarray, checkcast or instanceof instruction.
func TypeInsn(op Opcode, internalName string) Insn { return Insn{Op: op, Desc: internalName} }

// FieldInsn returns a field access instruction.
func FieldInsn(op Opcode, owner, name, desc string) Insn {
	return Insn{Op: op, Owner: owner, Name: name, Desc: desc}
}

// MethodInsn returns a method invocation instruction.
func MethodInsn(op Opcode, owner, name, desc string) Insn {
	return Insn{Op: op, Owner: owner, Name: name, Desc: desc, Interface: op == OpInvokeinterface}
}

// InvokeDynamic returns an invokedynamic instruction.
func InvokeDynamic(name, desc string) Insn { return Insn{Op: OpInvokedynamic, Name: name, Desc: desc} }

// Jump returns a jump instruction targeting a label.
func Jump(op Opcode, label string) Insn { return Insn{Op: op, Label: label} }

// Label returns a label pseudo-instruction.
func Label(name string) Insn { return Insn{Op: OpLabel, Label: name} }

// TableSwitch returns a tableswitch covering keys min..max.
func TableSwitch(min, max int32, dflt string, labels ...string) Insn {
	return Insn{Op: OpTableswitch, Min: min, Max: max, Default: dflt, Labels: labels}
}

// LookupSwitch returns a lookupswitch with parallel keys and labels.
func LookupSwitch(dflt string, keys []int32, labels []string) Insn {
	return Insn{Op: OpLookupswitch, Keys: keys, Labels: labels, Default: dflt}
}

// MultiANewArray returns a multianewarray instruction.
func MultiANewArray(desc string, dims int) Insn { return Insn{Op: OpMultianewarray, Desc: desc, Dims: dims} }

// IsLabel reports whether the instruction is a label pseudo-instruction.
func (i Insn) IsLabel() bool { return i.Op == OpLabel }

// String returns the instruction's textual form.
func (i Insn) String() string { return FormatInsn(i) }

// ---------------------------------------------------------------------------
// InsnList
// ---------------------------------------------------------------------------

// InsnList is a read-only ordered sequence of instructions with label lookup.
type InsnList struct {
	insns  []Insn
	labels map[string]int
}

// NewInsnList creates an instruction list, indexing its labels.
// Duplicate label names are rejected.
func NewInsnList(insns ...Insn) (*InsnList, error) {
	l := &InsnList{
		insns:  insns,
		labels: make(map[string]int),
	}
	for idx, insn := range insns {
		if insn.Op != OpLabel {
			continue
		}
		if _, dup := l.labels[insn.Label]; dup {
			return nil, fmt.Errorf("duplicate label %q at index %d", insn.Label, idx)
		}
		l.labels[insn.Label] = idx
	}
	return l, nil
}

// MustInsnList is NewInsnList for instruction sequences known to be valid.
func MustInsnList(insns ...Insn) *InsnList {
	l, err := NewInsnList(insns...)
	if err != nil {
		panic(err)
	}
	return l
}

// Len returns the number of instructions, labels included.
func (l *InsnList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.insns)
}

// At returns the instruction at index i.
func (l *InsnList) At(i int) Insn { return l.insns[i] }

// Insns returns a copy of the instructions.
func (l *InsnList) Insns() []Insn {
	out := make([]Insn, len(l.insns))
	copy(out, l.insns)
	return out
}

// First returns the index of the first instruction, or -1 for an empty list.
func (l *InsnList) First() int {
	if l.Len() == 0 {
		return -1
	}
	return 0
}

// Next returns the index following i, or -1 at the end of the list.
func (l *InsnList) Next(i int) int {
	if i+1 >= len(l.insns) {
		return -1
	}
	return i + 1
}

// LabelIndex returns the index of the named label, or -1 when the label
// lies outside this list.
func (l *InsnList) LabelIndex(name string) int {
	if idx, ok := l.labels[name]; ok {
		return idx
	}
	return -1
}

// Slice returns the contiguous block [from, to) as its own list. Jumps to
// labels outside the block resolve to -1 in the returned list.
func (l *InsnList) Slice(from, to int) *InsnList {
	block, err := NewInsnList(l.insns[from:to]...)
	if err != nil {
		// Labels are unique in l, so they are unique in any sub-range.
		panic(err)
	}
	return block
}

// CountRealInsns returns the number of non-label instructions.
func (l *InsnList) CountRealInsns() int {
	n := 0
	for _, insn := range l.insns {
		if insn.Op != OpLabel {
			n++
		}
	}
	return n
}
