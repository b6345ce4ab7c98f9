package interp

import (
	"fmt"
	"math"

	"github.com/chazu/bceval/pkg/bytecode"
	"github.com/chazu/bceval/pkg/value"
)

// Basic is the base interpreter. It folds operations whose operands are
// known, following the runtime's numeric semantics, and yields unknown
// values of the right type otherwise. Calls and static field reads consult
// the optional lookup tables.
type Basic struct {
	Static  InvokeStaticLookup
	Virtual InvokeVirtualLookup
	Fields  GetStaticLookup
}

// NewBasic returns a Basic interpreter using the built-in lookup tables.
func NewBasic() *Basic {
	return &Basic{
		Static:  BasicStaticLookup,
		Virtual: BasicVirtualLookup,
		Fields:  BasicFieldLookup,
	}
}

var _ Interpreter = (*Basic)(nil)

// ---------------------------------------------------------------------------
// Operand helpers
// ---------------------------------------------------------------------------

func mismatch(insn bytecode.Insn, want string, got value.Value) error {
	return fmt.Errorf("%w: %s expects %s, got %s", ErrTypeMismatch, insn.Op, want, got.Kind())
}

func asInt(insn bytecode.Insn, v value.Value) (*value.Int, error) {
	i, ok := v.(*value.Int)
	if !ok {
		return nil, mismatch(insn, "int", v)
	}
	return i, nil
}

func asLong(insn bytecode.Insn, v value.Value) (*value.Long, error) {
	l, ok := v.(*value.Long)
	if !ok {
		return nil, mismatch(insn, "long", v)
	}
	return l, nil
}

func asFloat(insn bytecode.Insn, v value.Value) (*value.Float, error) {
	f, ok := v.(*value.Float)
	if !ok {
		return nil, mismatch(insn, "float", v)
	}
	return f, nil
}

func asDouble(insn bytecode.Insn, v value.Value) (*value.Double, error) {
	d, ok := v.(*value.Double)
	if !ok {
		return nil, mismatch(insn, "double", v)
	}
	return d, nil
}

func asReference(insn bytecode.Insn, v value.Value) error {
	if !value.IsReference(v) {
		return mismatch(insn, "reference", v)
	}
	return nil
}

var unknownInt = value.UnknownInt(bytecode.IntType)

// ---------------------------------------------------------------------------
// NewOperation
// ---------------------------------------------------------------------------

// NewOperation implements Interpreter.
func (b *Basic) NewOperation(insn bytecode.Insn) (value.Value, error) {
	switch op := insn.Op; op {
	case bytecode.OpAconstNull:
		return value.Null, nil
	case bytecode.OpIconstM1, bytecode.OpIconst0, bytecode.OpIconst1, bytecode.OpIconst2,
		bytecode.OpIconst3, bytecode.OpIconst4, bytecode.OpIconst5:
		return value.NewInt(int32(op) - int32(bytecode.OpIconst0)), nil
	case bytecode.OpLconst0, bytecode.OpLconst1:
		return value.NewLong(int64(op - bytecode.OpLconst0)), nil
	case bytecode.OpFconst0, bytecode.OpFconst1, bytecode.OpFconst2:
		return value.NewFloat(float32(op - bytecode.OpFconst0)), nil
	case bytecode.OpDconst0, bytecode.OpDconst1:
		return value.NewDouble(float64(op - bytecode.OpDconst0)), nil
	case bytecode.OpBipush:
		return value.NewInt(int32(int8(insn.Operand))), nil
	case bytecode.OpSipush:
		return value.NewInt(int32(int16(insn.Operand))), nil
	case bytecode.OpLdc:
		if insn.Const == nil {
			return nil, fmt.Errorf("ldc without constant")
		}
		v, ok := value.FromConstant(*insn.Const)
		if !ok {
			return nil, fmt.Errorf("%w: %s constant", ErrUnsupported, insn.Const.Kind)
		}
		return v, nil
	case bytecode.OpGetstatic:
		t, err := bytecode.ParseType(insn.Desc)
		if err != nil {
			return nil, err
		}
		if b.Fields != nil {
			if v, ok := b.Fields.GetStatic(insn.Owner, insn.Name, insn.Desc); ok {
				return v, nil
			}
		}
		return value.FromType(t), nil
	case bytecode.OpNew:
		return value.NewObject(bytecode.ObjectTypeOf(insn.Desc), value.NotNull), nil
	case bytecode.OpJsr:
		return nil, fmt.Errorf("%w: subroutines", ErrUnsupported)
	}
	return nil, fmt.Errorf("%w: %s is not a new operation", ErrUnsupported, insn.Op)
}

// CopyOperation implements Interpreter. Values are immutable, so copies
// keep their identity.
func (b *Basic) CopyOperation(insn bytecode.Insn, v value.Value) (value.Value, error) {
	switch insn.Op {
	case bytecode.OpIload, bytecode.OpIstore:
		if _, err := asInt(insn, v); err != nil {
			return nil, err
		}
	case bytecode.OpLload, bytecode.OpLstore:
		if _, err := asLong(insn, v); err != nil {
			return nil, err
		}
	case bytecode.OpFload, bytecode.OpFstore:
		if _, err := asFloat(insn, v); err != nil {
			return nil, err
		}
	case bytecode.OpDload, bytecode.OpDstore:
		if _, err := asDouble(insn, v); err != nil {
			return nil, err
		}
	case bytecode.OpAload:
		if err := asReference(insn, v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// ---------------------------------------------------------------------------
// UnaryOperation
// ---------------------------------------------------------------------------

// UnaryOperation implements Interpreter.
func (b *Basic) UnaryOperation(insn bytecode.Insn, v value.Value) (value.Value, error) {
	op := insn.Op
	switch {
	case op == bytecode.OpIneg, op == bytecode.OpIinc,
		op == bytecode.OpI2l, op == bytecode.OpI2f, op == bytecode.OpI2d,
		op == bytecode.OpI2b, op == bytecode.OpI2c, op == bytecode.OpI2s:
		x, err := asInt(insn, v)
		if err != nil {
			return nil, err
		}
		return intUnary(insn, x), nil

	case op == bytecode.OpLneg, op == bytecode.OpL2i, op == bytecode.OpL2f, op == bytecode.OpL2d:
		x, err := asLong(insn, v)
		if err != nil {
			return nil, err
		}
		return longUnary(op, x), nil

	case op == bytecode.OpFneg, op == bytecode.OpF2i, op == bytecode.OpF2l, op == bytecode.OpF2d:
		x, err := asFloat(insn, v)
		if err != nil {
			return nil, err
		}
		return floatUnary(op, x), nil

	case op == bytecode.OpDneg, op == bytecode.OpD2i, op == bytecode.OpD2l, op == bytecode.OpD2f:
		x, err := asDouble(insn, v)
		if err != nil {
			return nil, err
		}
		return doubleUnary(op, x), nil

	case op >= bytecode.OpIfeq && op <= bytecode.OpIfle,
		op == bytecode.OpTableswitch, op == bytecode.OpLookupswitch:
		_, err := asInt(insn, v)
		return nil, err

	case op == bytecode.OpIfnull, op == bytecode.OpIfnonnull,
		op == bytecode.OpMonitorenter, op == bytecode.OpMonitorexit:
		return nil, asReference(insn, v)

	case op == bytecode.OpAthrow:
		if err := asReference(insn, v); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: exception control flow", ErrUnsupported)

	case op >= bytecode.OpIreturn && op <= bytecode.OpAreturn, op == bytecode.OpPutstatic:
		return nil, nil

	case op == bytecode.OpGetfield:
		if value.NullnessOf(v) == value.IsNull {
			return nil, ErrNullPointer
		}
		t, err := bytecode.ParseType(insn.Desc)
		if err != nil {
			return nil, err
		}
		return value.FromType(t), nil

	case op == bytecode.OpNewarray:
		t, ok := bytecode.PrimitiveArrayType(insn.Operand)
		if !ok {
			return nil, fmt.Errorf("invalid newarray type code %d", insn.Operand)
		}
		return newArray(insn, t, v)

	case op == bytecode.OpAnewarray:
		return newArray(insn, bytecode.ArrayTypeOf(bytecode.ObjectTypeOf(insn.Desc)), v)

	case op == bytecode.OpArraylength:
		switch x := v.(type) {
		case *value.Array:
			if n, ok := x.Length(); ok {
				return value.NewInt(int32(n)), nil
			}
			return unknownInt, nil
		case *value.Object:
			if x.Nullness() == value.IsNull {
				return nil, ErrNullPointer
			}
			if x.Type().Sort() == bytecode.SortArray {
				return unknownInt, nil
			}
		}
		return nil, mismatch(insn, "array", v)

	case op == bytecode.OpCheckcast:
		if err := asReference(insn, v); err != nil {
			return nil, err
		}
		return v, nil

	case op == bytecode.OpInstanceof:
		if err := asReference(insn, v); err != nil {
			return nil, err
		}
		return instanceOf(insn.Desc, v), nil
	}
	return nil, fmt.Errorf("%w: %s is not a unary operation", ErrUnsupported, op)
}

func intUnary(insn bytecode.Insn, x *value.Int) value.Value {
	op := insn.Op
	if !x.Known() {
		switch op {
		case bytecode.OpI2l:
			return value.UnknownLong()
		case bytecode.OpI2f:
			return value.UnknownFloat()
		case bytecode.OpI2d:
			return value.UnknownDouble()
		case bytecode.OpI2b:
			return value.UnknownInt(bytecode.ByteType)
		case bytecode.OpI2c:
			return value.UnknownInt(bytecode.CharType)
		case bytecode.OpI2s:
			return value.UnknownInt(bytecode.ShortType)
		}
		return unknownInt
	}
	v := x.Value()
	switch op {
	case bytecode.OpIneg:
		return value.NewInt(-v)
	case bytecode.OpIinc:
		return value.NewInt(v + int32(insn.Incr))
	case bytecode.OpI2l:
		return value.NewLong(int64(v))
	case bytecode.OpI2f:
		return value.NewFloat(float32(v))
	case bytecode.OpI2d:
		return value.NewDouble(float64(v))
	case bytecode.OpI2b:
		return value.NewByte(int8(v))
	case bytecode.OpI2c:
		return value.NewChar(uint16(v))
	case bytecode.OpI2s:
		return value.NewShort(int16(v))
	}
	return unknownInt
}

func longUnary(op bytecode.Opcode, x *value.Long) value.Value {
	if !x.Known() {
		switch op {
		case bytecode.OpL2i:
			return unknownInt
		case bytecode.OpL2f:
			return value.UnknownFloat()
		case bytecode.OpL2d:
			return value.UnknownDouble()
		}
		return value.UnknownLong()
	}
	v := x.Value()
	switch op {
	case bytecode.OpL2i:
		return value.NewInt(int32(v))
	case bytecode.OpL2f:
		return value.NewFloat(float32(v))
	case bytecode.OpL2d:
		return value.NewDouble(float64(v))
	}
	return value.NewLong(-v)
}

func floatUnary(op bytecode.Opcode, x *value.Float) value.Value {
	if !x.Known() {
		switch op {
		case bytecode.OpF2i:
			return unknownInt
		case bytecode.OpF2l:
			return value.UnknownLong()
		case bytecode.OpF2d:
			return value.UnknownDouble()
		}
		return value.UnknownFloat()
	}
	v := x.Value()
	switch op {
	case bytecode.OpF2i:
		return value.NewInt(F2I(float64(v)))
	case bytecode.OpF2l:
		return value.NewLong(F2L(float64(v)))
	case bytecode.OpF2d:
		return value.NewDouble(float64(v))
	}
	return value.NewFloat(-v)
}

func doubleUnary(op bytecode.Opcode, x *value.Double) value.Value {
	if !x.Known() {
		switch op {
		case bytecode.OpD2i:
			return unknownInt
		case bytecode.OpD2l:
			return value.UnknownLong()
		case bytecode.OpD2f:
			return value.UnknownFloat()
		}
		return value.UnknownDouble()
	}
	v := x.Value()
	switch op {
	case bytecode.OpD2i:
		return value.NewInt(F2I(v))
	case bytecode.OpD2l:
		return value.NewLong(F2L(v))
	case bytecode.OpD2f:
		return value.NewFloat(float32(v))
	}
	return value.NewDouble(-v)
}

func newArray(insn bytecode.Insn, t bytecode.Type, length value.Value) (value.Value, error) {
	n, err := asInt(insn, length)
	if err != nil {
		return nil, err
	}
	if !n.Known() {
		return value.UnknownArray(t), nil
	}
	if n.Value() < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeSize, n.Value())
	}
	return value.NewArrayOfLength(t, int(n.Value())), nil
}

// instanceOf answers for the cases decidable without a class hierarchy.
func instanceOf(desc string, v value.Value) value.Value {
	if value.NullnessOf(v) == value.IsNull {
		return value.NewBool(false)
	}
	if desc == "java/lang/Object" && value.NullnessOf(v) == value.NotNull {
		return value.NewBool(true)
	}
	if value.NullnessOf(v) == value.NotNull && v.Type().InternalName() == desc {
		return value.NewBool(true)
	}
	return value.UnknownInt(bytecode.BooleanType)
}

// ---------------------------------------------------------------------------
// BinaryOperation
// ---------------------------------------------------------------------------

// BinaryOperation implements Interpreter.
func (b *Basic) BinaryOperation(insn bytecode.Insn, v1, v2 value.Value) (value.Value, error) {
	op := insn.Op
	switch {
	case op >= bytecode.OpIaload && op <= bytecode.OpSaload:
		return arrayLoad(insn, v1, v2)

	case op == bytecode.OpIadd, op == bytecode.OpIsub, op == bytecode.OpImul,
		op == bytecode.OpIdiv, op == bytecode.OpIrem,
		op == bytecode.OpIshl, op == bytecode.OpIshr, op == bytecode.OpIushr,
		op == bytecode.OpIand, op == bytecode.OpIor, op == bytecode.OpIxor:
		x, err := asInt(insn, v1)
		if err != nil {
			return nil, err
		}
		y, err := asInt(insn, v2)
		if err != nil {
			return nil, err
		}
		return intBinary(op, x, y)

	case op == bytecode.OpLshl, op == bytecode.OpLshr, op == bytecode.OpLushr:
		x, err := asLong(insn, v1)
		if err != nil {
			return nil, err
		}
		y, err := asInt(insn, v2)
		if err != nil {
			return nil, err
		}
		if !x.Known() || !y.Known() {
			return value.UnknownLong(), nil
		}
		s := uint(y.Value() & 0x3f)
		switch op {
		case bytecode.OpLshl:
			return value.NewLong(x.Value() << s), nil
		case bytecode.OpLshr:
			return value.NewLong(x.Value() >> s), nil
		}
		return value.NewLong(int64(uint64(x.Value()) >> s)), nil

	case op == bytecode.OpLadd, op == bytecode.OpLsub, op == bytecode.OpLmul,
		op == bytecode.OpLdiv, op == bytecode.OpLrem,
		op == bytecode.OpLand, op == bytecode.OpLor, op == bytecode.OpLxor, op == bytecode.OpLcmp:
		x, err := asLong(insn, v1)
		if err != nil {
			return nil, err
		}
		y, err := asLong(insn, v2)
		if err != nil {
			return nil, err
		}
		return longBinary(op, x, y)

	case op == bytecode.OpFadd, op == bytecode.OpFsub, op == bytecode.OpFmul,
		op == bytecode.OpFdiv, op == bytecode.OpFrem,
		op == bytecode.OpFcmpl, op == bytecode.OpFcmpg:
		x, err := asFloat(insn, v1)
		if err != nil {
			return nil, err
		}
		y, err := asFloat(insn, v2)
		if err != nil {
			return nil, err
		}
		return floatBinary(op, x, y), nil

	case op == bytecode.OpDadd, op == bytecode.OpDsub, op == bytecode.OpDmul,
		op == bytecode.OpDdiv, op == bytecode.OpDrem,
		op == bytecode.OpDcmpl, op == bytecode.OpDcmpg:
		x, err := asDouble(insn, v1)
		if err != nil {
			return nil, err
		}
		y, err := asDouble(insn, v2)
		if err != nil {
			return nil, err
		}
		return doubleBinary(op, x, y), nil

	case op >= bytecode.OpIfIcmpeq && op <= bytecode.OpIfIcmple:
		if _, err := asInt(insn, v1); err != nil {
			return nil, err
		}
		_, err := asInt(insn, v2)
		return nil, err

	case op == bytecode.OpIfAcmpeq, op == bytecode.OpIfAcmpne:
		if err := asReference(insn, v1); err != nil {
			return nil, err
		}
		return nil, asReference(insn, v2)

	case op == bytecode.OpPutfield:
		if value.NullnessOf(v1) == value.IsNull {
			return nil, ErrNullPointer
		}
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s is not a binary operation", ErrUnsupported, op)
}

func intBinary(op bytecode.Opcode, x, y *value.Int) (value.Value, error) {
	if y.Known() && y.Value() == 0 && (op == bytecode.OpIdiv || op == bytecode.OpIrem) {
		return nil, ErrDivideByZero
	}
	if !x.Known() || !y.Known() {
		return unknownInt, nil
	}
	a, c := x.Value(), y.Value()
	var r int32
	switch op {
	case bytecode.OpIadd:
		r = a + c
	case bytecode.OpIsub:
		r = a - c
	case bytecode.OpImul:
		r = a * c
	case bytecode.OpIdiv:
		r = a / c
	case bytecode.OpIrem:
		r = a % c
	case bytecode.OpIshl:
		r = a << uint(c&0x1f)
	case bytecode.OpIshr:
		r = a >> uint(c&0x1f)
	case bytecode.OpIushr:
		r = int32(uint32(a) >> uint(c&0x1f))
	case bytecode.OpIand:
		r = a & c
	case bytecode.OpIor:
		r = a | c
	case bytecode.OpIxor:
		r = a ^ c
	}
	return value.NewInt(r), nil
}

func longBinary(op bytecode.Opcode, x, y *value.Long) (value.Value, error) {
	if y.Known() && y.Value() == 0 && (op == bytecode.OpLdiv || op == bytecode.OpLrem) {
		return nil, ErrDivideByZero
	}
	if !x.Known() || !y.Known() {
		if op == bytecode.OpLcmp {
			return unknownInt, nil
		}
		return value.UnknownLong(), nil
	}
	a, c := x.Value(), y.Value()
	var r int64
	switch op {
	case bytecode.OpLcmp:
		return value.NewInt(x.Compare(y)), nil
	case bytecode.OpLadd:
		r = a + c
	case bytecode.OpLsub:
		r = a - c
	case bytecode.OpLmul:
		r = a * c
	case bytecode.OpLdiv:
		r = a / c
	case bytecode.OpLrem:
		r = a % c
	case bytecode.OpLand:
		r = a & c
	case bytecode.OpLor:
		r = a | c
	case bytecode.OpLxor:
		r = a ^ c
	}
	return value.NewLong(r), nil
}

func floatBinary(op bytecode.Opcode, x, y *value.Float) value.Value {
	if !x.Known() || !y.Known() {
		if op == bytecode.OpFcmpl || op == bytecode.OpFcmpg {
			return unknownInt
		}
		return value.UnknownFloat()
	}
	a, c := x.Value(), y.Value()
	switch op {
	case bytecode.OpFadd:
		return value.NewFloat(a + c)
	case bytecode.OpFsub:
		return value.NewFloat(a - c)
	case bytecode.OpFmul:
		return value.NewFloat(a * c)
	case bytecode.OpFdiv:
		return value.NewFloat(a / c)
	case bytecode.OpFrem:
		return value.NewFloat(float32(math.Mod(float64(a), float64(c))))
	case bytecode.OpFcmpl:
		return value.NewInt(x.Compare(y, -1))
	}
	return value.NewInt(x.Compare(y, 1))
}

func doubleBinary(op bytecode.Opcode, x, y *value.Double) value.Value {
	if !x.Known() || !y.Known() {
		if op == bytecode.OpDcmpl || op == bytecode.OpDcmpg {
			return unknownInt
		}
		return value.UnknownDouble()
	}
	a, c := x.Value(), y.Value()
	switch op {
	case bytecode.OpDadd:
		return value.NewDouble(a + c)
	case bytecode.OpDsub:
		return value.NewDouble(a - c)
	case bytecode.OpDmul:
		return value.NewDouble(a * c)
	case bytecode.OpDdiv:
		return value.NewDouble(a / c)
	case bytecode.OpDrem:
		return value.NewDouble(math.Mod(a, c))
	case bytecode.OpDcmpl:
		return value.NewInt(x.Compare(y, -1))
	}
	return value.NewInt(x.Compare(y, 1))
}

// arrayElementType returns the element type an array load produces.
func arrayElementType(op bytecode.Opcode, arr value.Value) bytecode.Type {
	if t := arr.Type(); t.Sort() == bytecode.SortArray {
		return t.ElementType()
	}
	switch op {
	case bytecode.OpIaload:
		return bytecode.IntType
	case bytecode.OpLaload:
		return bytecode.LongType
	case bytecode.OpFaload:
		return bytecode.FloatType
	case bytecode.OpDaload:
		return bytecode.DoubleType
	case bytecode.OpBaload:
		return bytecode.ByteType
	case bytecode.OpCaload:
		return bytecode.CharType
	case bytecode.OpSaload:
		return bytecode.ShortType
	}
	return bytecode.ObjectType
}

func arrayLoad(insn bytecode.Insn, arr, index value.Value) (value.Value, error) {
	if err := asReference(insn, arr); err != nil {
		return nil, err
	}
	idx, err := asInt(insn, index)
	if err != nil {
		return nil, err
	}
	if value.NullnessOf(arr) == value.IsNull {
		return nil, ErrNullPointer
	}
	elemType := arrayElementType(insn.Op, arr)
	a, ok := arr.(*value.Array)
	if !ok || !idx.Known() {
		return value.FromType(elemType), nil
	}
	if n, known := a.Length(); known && (idx.Value() < 0 || int(idx.Value()) >= n) {
		return nil, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfBounds, idx.Value(), n)
	}
	if e, ok := a.Element(int(idx.Value())); ok {
		return e, nil
	}
	return value.FromType(elemType), nil
}

// ---------------------------------------------------------------------------
// TernaryOperation
// ---------------------------------------------------------------------------

// TernaryOperation implements Interpreter. Stores into an array with known
// contents produce the updated array.
func (b *Basic) TernaryOperation(insn bytecode.Insn, arr, index, v value.Value) (value.Value, error) {
	if err := asReference(insn, arr); err != nil {
		return nil, err
	}
	idx, err := asInt(insn, index)
	if err != nil {
		return nil, err
	}
	if value.NullnessOf(arr) == value.IsNull {
		return nil, ErrNullPointer
	}
	stored, err := storeValue(insn, arr, v)
	if err != nil {
		return nil, err
	}
	a, ok := arr.(*value.Array)
	if !ok {
		return nil, nil
	}
	if !idx.Known() {
		// Contents become unknown; the length survives.
		return a.With(-1, stored), nil
	}
	if n, known := a.Length(); known && (idx.Value() < 0 || int(idx.Value()) >= n) {
		return nil, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfBounds, idx.Value(), n)
	}
	return a.With(int(idx.Value()), stored), nil
}

// storeValue checks and narrows the value written by an array store.
func storeValue(insn bytecode.Insn, arr, v value.Value) (value.Value, error) {
	switch insn.Op {
	case bytecode.OpIastore:
		_, err := asInt(insn, v)
		return v, err
	case bytecode.OpLastore:
		_, err := asLong(insn, v)
		return v, err
	case bytecode.OpFastore:
		_, err := asFloat(insn, v)
		return v, err
	case bytecode.OpDastore:
		_, err := asDouble(insn, v)
		return v, err
	case bytecode.OpAastore:
		return v, asReference(insn, v)
	}

	x, err := asInt(insn, v)
	if err != nil {
		return nil, err
	}
	elem := arrayElementType(insn.Op, arr)
	if !x.Known() {
		return value.UnknownInt(elem), nil
	}
	switch insn.Op {
	case bytecode.OpBastore:
		if elem.Sort() == bytecode.SortBoolean {
			return value.NewTypedInt(elem, x.Value()&1), nil
		}
		return value.NewByte(int8(x.Value())), nil
	case bytecode.OpCastore:
		return value.NewChar(uint16(x.Value())), nil
	}
	return value.NewShort(int16(x.Value())), nil
}

// ---------------------------------------------------------------------------
// NaryOperation / ReturnOperation
// ---------------------------------------------------------------------------

// NaryOperation implements Interpreter.
func (b *Basic) NaryOperation(insn bytecode.Insn, values []value.Value) (value.Value, error) {
	if insn.Op == bytecode.OpMultianewarray {
		return multiANewArray(insn, values)
	}
	if insn.Op == bytecode.OpInvokedynamic {
		return nil, fmt.Errorf("%w: dynamic invocation", ErrUnsupported)
	}

	v, _, err := b.Call(insn, values)
	return v, err
}

// Call resolves an invoke instruction through the lookup tables, unmapping
// instanced values first. resolved is false when no table answers; v is
// then the unknown value of the return type, or nil for void.
func (b *Basic) Call(insn bytecode.Insn, values []value.Value) (v value.Value, resolved bool, err error) {
	ret := bytecode.ReturnType(insn.Desc)
	values = value.UnmapAll(values)

	switch insn.Op {
	case bytecode.OpInvokestatic:
		if b.Static != nil {
			if v, ok := b.Static.InvokeStatic(insn.Owner, insn.Name, insn.Desc, values); ok {
				return v, true, nil
			}
		}
	case bytecode.OpInvokevirtual, bytecode.OpInvokeinterface, bytecode.OpInvokespecial:
		if len(values) == 0 {
			return nil, false, ErrStackUnderflow
		}
		recv := values[0]
		if value.NullnessOf(recv) == value.IsNull {
			return nil, false, ErrNullPointer
		}
		if b.Virtual != nil && insn.Name != "<init>" {
			if v, ok := b.Virtual.InvokeVirtual(insn.Owner, insn.Name, insn.Desc, recv, values[1:]); ok {
				return v, true, nil
			}
		}
	default:
		return nil, false, fmt.Errorf("%w: %s is not a call", ErrUnsupported, insn.Op)
	}

	if ret.Sort() == bytecode.SortVoid {
		return nil, false, nil
	}
	return value.FromType(ret), false, nil
}

func multiANewArray(insn bytecode.Insn, dims []value.Value) (value.Value, error) {
	t, err := bytecode.ParseType(insn.Desc)
	if err != nil {
		return nil, err
	}
	counts := make([]int, len(dims))
	for i, d := range dims {
		n, err := asInt(insn, d)
		if err != nil {
			return nil, err
		}
		if !n.Known() {
			return value.UnknownArray(t), nil
		}
		if n.Value() < 0 {
			return nil, fmt.Errorf("%w: %d", ErrNegativeSize, n.Value())
		}
		counts[i] = int(n.Value())
	}
	return buildArray(t, counts), nil
}

func buildArray(t bytecode.Type, counts []int) value.Value {
	if len(counts) == 1 {
		return value.NewArrayOfLength(t, counts[0])
	}
	elems := make([]value.Value, counts[0])
	for i := range elems {
		elems[i] = buildArray(t.ElementType(), counts[1:])
	}
	return value.NewArray(t, elems)
}

// ReturnOperation implements Interpreter.
func (b *Basic) ReturnOperation(insn bytecode.Insn, v value.Value, expected bytecode.Type) error {
	var ok bool
	switch expected.Sort() {
	case bytecode.SortVoid:
		return fmt.Errorf("%w: value returned from void method", ErrTypeMismatch)
	case bytecode.SortBoolean, bytecode.SortChar, bytecode.SortByte, bytecode.SortShort, bytecode.SortInt:
		ok = insn.Op == bytecode.OpIreturn && v.Kind() == value.KindInt
	case bytecode.SortLong:
		ok = insn.Op == bytecode.OpLreturn && v.Kind() == value.KindLong
	case bytecode.SortFloat:
		ok = insn.Op == bytecode.OpFreturn && v.Kind() == value.KindFloat
	case bytecode.SortDouble:
		ok = insn.Op == bytecode.OpDreturn && v.Kind() == value.KindDouble
	default:
		ok = insn.Op == bytecode.OpAreturn && value.IsReference(v)
	}
	if !ok {
		return fmt.Errorf("%w: %s of %s from method returning %s", ErrTypeMismatch, insn.Op, v.Kind(), expected)
	}
	return nil
}
