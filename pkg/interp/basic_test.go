package interp

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/bceval/pkg/bytecode"
	"github.com/chazu/bceval/pkg/value"
)

func TestIntOverflowWraps(t *testing.T) {
	b := NewBasic()
	v, err := b.BinaryOperation(bytecode.Op(bytecode.OpIadd), value.NewInt(math.MaxInt32), value.NewInt(1))
	if err != nil {
		t.Fatalf("iadd failed: %v", err)
	}
	expectInt(t, v, math.MinInt32)

	v, err = b.BinaryOperation(bytecode.Op(bytecode.OpIdiv), value.NewInt(math.MinInt32), value.NewInt(-1))
	if err != nil {
		t.Fatalf("idiv failed: %v", err)
	}
	expectInt(t, v, math.MinInt32)
}

func TestShiftsAreMasked(t *testing.T) {
	b := NewBasic()
	v, _ := b.BinaryOperation(bytecode.Op(bytecode.OpIshl), value.NewInt(1), value.NewInt(33))
	expectInt(t, v, 2)

	v, _ = b.BinaryOperation(bytecode.Op(bytecode.OpIushr), value.NewInt(-1), value.NewInt(28))
	expectInt(t, v, 15)

	v, _ = b.BinaryOperation(bytecode.Op(bytecode.OpLshl), value.NewLong(1), value.NewInt(65))
	if l := v.(*value.Long); l.Value() != 2 {
		t.Errorf("Expected 2, got %d", l.Value())
	}
}

func TestUnknownOperandGivesUnknownResult(t *testing.T) {
	b := NewBasic()
	v, err := b.BinaryOperation(bytecode.Op(bytecode.OpIadd), value.UnknownInt(bytecode.IntType), value.NewInt(1))
	if err != nil {
		t.Fatalf("iadd failed: %v", err)
	}
	if v.Known() || v.Kind() != value.KindInt {
		t.Errorf("Expected unknown int, got %s", v)
	}

	// Division by a known zero throws regardless of the dividend.
	_, err = b.BinaryOperation(bytecode.Op(bytecode.OpLrem), value.UnknownLong(), value.NewLong(0))
	if !errors.Is(err, ErrDivideByZero) {
		t.Errorf("Expected ErrDivideByZero, got %v", err)
	}
}

func TestFloatConversionsSaturate(t *testing.T) {
	b := NewBasic()
	tests := []struct {
		in   float64
		want int32
	}{
		{math.NaN(), 0},
		{1e20, math.MaxInt32},
		{-1e20, math.MinInt32},
		{-3.7, -3},
	}
	for _, tt := range tests {
		v, err := b.UnaryOperation(bytecode.Op(bytecode.OpD2i), value.NewDouble(tt.in))
		if err != nil {
			t.Fatalf("d2i failed: %v", err)
		}
		expectInt(t, v, tt.want)
	}
}

func TestFloatCompareNaNBias(t *testing.T) {
	b := NewBasic()
	nan := value.NewFloat(float32(math.NaN()))
	one := value.NewFloat(1)

	v, _ := b.BinaryOperation(bytecode.Op(bytecode.OpFcmpl), nan, one)
	expectInt(t, v, -1)
	v, _ = b.BinaryOperation(bytecode.Op(bytecode.OpFcmpg), nan, one)
	expectInt(t, v, 1)
	v, _ = b.BinaryOperation(bytecode.Op(bytecode.OpDcmpg), value.NewDouble(2), value.NewDouble(2))
	expectInt(t, v, 0)
}

func TestNarrowingConversions(t *testing.T) {
	b := NewBasic()
	v, _ := b.UnaryOperation(bytecode.Op(bytecode.OpI2b), value.NewInt(200))
	expectInt(t, v, -56)
	if v.Type() != bytecode.ByteType {
		t.Errorf("Expected byte type, got %s", v.Type())
	}

	v, _ = b.UnaryOperation(bytecode.Op(bytecode.OpI2c), value.NewInt(-1))
	expectInt(t, v, 65535)
}

func TestBooleanArrayStoreMasks(t *testing.T) {
	b := NewBasic()
	arr := value.NewArrayOfLength(bytecode.MustParseType("[Z"), 2)
	v, err := b.TernaryOperation(bytecode.Op(bytecode.OpBastore), arr, value.NewInt(0), value.NewInt(3))
	if err != nil {
		t.Fatalf("bastore failed: %v", err)
	}
	elem, _ := v.(*value.Array).Element(0)
	expectInt(t, elem, 1)

	// The original array is untouched.
	orig, _ := arr.Element(0)
	expectInt(t, orig, 0)
}

func TestArrayBoundsAndNulls(t *testing.T) {
	b := NewBasic()
	arr := value.NewArrayOfLength(bytecode.MustParseType("[I"), 2)

	_, err := b.BinaryOperation(bytecode.Op(bytecode.OpIaload), arr, value.NewInt(2))
	if !errors.Is(err, ErrIndexOutOfBounds) {
		t.Errorf("Expected ErrIndexOutOfBounds, got %v", err)
	}
	_, err = b.BinaryOperation(bytecode.Op(bytecode.OpIaload), value.Null, value.NewInt(0))
	if !errors.Is(err, ErrNullPointer) {
		t.Errorf("Expected ErrNullPointer, got %v", err)
	}
	_, err = b.UnaryOperation(bytecode.TypeInsn(bytecode.OpAnewarray, "java/lang/String"), value.NewInt(-1))
	if !errors.Is(err, ErrNegativeSize) {
		t.Errorf("Expected ErrNegativeSize, got %v", err)
	}

	v, _ := b.UnaryOperation(bytecode.Op(bytecode.OpArraylength), arr)
	expectInt(t, v, 2)
}

func TestGetfieldOnNull(t *testing.T) {
	b := NewBasic()
	insn := bytecode.FieldInsn(bytecode.OpGetfield, "a/B", "x", "I")
	if _, err := b.UnaryOperation(insn, value.Null); !errors.Is(err, ErrNullPointer) {
		t.Errorf("Expected ErrNullPointer, got %v", err)
	}
	v, err := b.UnaryOperation(insn, value.NewObject(bytecode.ObjectTypeOf("a/B"), value.NotNull))
	if err != nil {
		t.Fatalf("getfield failed: %v", err)
	}
	if v.Known() || v.Kind() != value.KindInt {
		t.Errorf("Expected unknown int, got %s", v)
	}
}

func TestMultiANewArray(t *testing.T) {
	b := NewBasic()
	v, err := b.NaryOperation(bytecode.MultiANewArray("[[I", 2), []value.Value{value.NewInt(2), value.NewInt(3)})
	if err != nil {
		t.Fatalf("multianewarray failed: %v", err)
	}
	outer := v.(*value.Array)
	if n, _ := outer.Length(); n != 2 {
		t.Fatalf("Expected outer length 2, got %d", n)
	}
	inner, _ := outer.Element(1)
	if n, _ := inner.(*value.Array).Length(); n != 3 {
		t.Errorf("Expected inner length 3, got %d", n)
	}
}

func TestInstanceOf(t *testing.T) {
	b := NewBasic()
	insn := bytecode.TypeInsn(bytecode.OpInstanceof, "java/lang/String")

	v, _ := b.UnaryOperation(insn, value.Null)
	expectInt(t, v, 0)
	v, _ = b.UnaryOperation(insn, value.NewString("x"))
	expectInt(t, v, 1)
	v, _ = b.UnaryOperation(insn, value.UnknownObject(bytecode.ObjectType))
	if v.Known() {
		t.Errorf("Expected unknown result, got %s", v)
	}
}

func TestStaticLookup(t *testing.T) {
	b := NewBasic()
	maxInsn := bytecode.MethodInsn(bytecode.OpInvokestatic, "java/lang/Math", "max", "(II)I")
	v, err := b.NaryOperation(maxInsn, []value.Value{value.NewInt(3), value.NewInt(9)})
	if err != nil {
		t.Fatalf("invokestatic failed: %v", err)
	}
	expectInt(t, v, 9)

	parse := bytecode.MethodInsn(bytecode.OpInvokestatic, "java/lang/Integer", "parseInt", "(Ljava/lang/String;)I")
	v, _ = b.NaryOperation(parse, []value.Value{value.NewString("-17")})
	expectInt(t, v, -17)

	// Malformed input would throw, so the result stays unknown.
	v, _ = b.NaryOperation(parse, []value.Value{value.NewString("x")})
	if v.Known() {
		t.Errorf("Expected unknown result for bad input, got %s", v)
	}
}

func TestCallReportsResolution(t *testing.T) {
	b := NewBasic()
	parse := bytecode.MethodInsn(bytecode.OpInvokestatic, "java/lang/Integer", "parseInt", "(Ljava/lang/String;)I")
	v, resolved, err := b.Call(parse, []value.Value{value.NewString("12")})
	if err != nil || !resolved {
		t.Fatalf("Expected a resolved call, got %v %v", resolved, err)
	}
	expectInt(t, v, 12)

	missing := bytecode.MethodInsn(bytecode.OpInvokestatic, "a/B", "f", "()I")
	v, resolved, err = b.Call(missing, nil)
	if err != nil || resolved {
		t.Fatalf("Expected an unresolved call, got %v %v", resolved, err)
	}
	if v.Kind() != value.KindInt || v.Known() {
		t.Errorf("Expected an unknown int, got %s", v)
	}

	void := bytecode.MethodInsn(bytecode.OpInvokestatic, "a/B", "g", "()V")
	if v, _, _ := b.Call(void, nil); v != nil {
		t.Errorf("Expected no value for a void call, got %s", v)
	}

	if _, _, err := b.Call(bytecode.Op(bytecode.OpNop), nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported for a non-call, got %v", err)
	}
}

func TestCallUnmapsInstancedArguments(t *testing.T) {
	b := NewBasic()
	str := value.NewBacked(bytecode.StringType, stringSnapshot("31"))
	parse := bytecode.MethodInsn(bytecode.OpInvokestatic, "java/lang/Integer", "parseInt", "(Ljava/lang/String;)I")
	v, resolved, err := b.Call(parse, []value.Value{str})
	if err != nil || !resolved {
		t.Fatalf("Expected a resolved call, got %v %v", resolved, err)
	}
	expectInt(t, v, 31)
}

type stringSnapshot string

func (s stringSnapshot) Snapshot() (value.Value, bool) { return value.NewString(string(s)), true }

func TestVirtualLookupOnStrings(t *testing.T) {
	b := NewBasic()
	tests := []struct {
		name, desc string
		args       []value.Value
	}{
		{"length", "()I", nil},
		{"charAt", "(I)C", []value.Value{value.NewInt(1)}},
		{"hashCode", "()I", nil},
		{"toUpperCase", "()Ljava/lang/String;", nil},
		{"indexOf", "(Ljava/lang/String;)I", []value.Value{value.NewString("ll")}},
	}
	for _, tt := range tests {
		insn := bytecode.MethodInsn(bytecode.OpInvokevirtual, "java/lang/String", tt.name, tt.desc)
		v, err := b.NaryOperation(insn, append([]value.Value{value.NewString("hello")}, tt.args...))
		if err != nil {
			t.Fatalf("%s failed: %v", tt.name, err)
		}
		if !v.Known() {
			t.Errorf("%s: expected known result, got %s", tt.name, v)
		}
	}
}

func TestVirtualCallOnNull(t *testing.T) {
	b := NewBasic()
	insn := bytecode.MethodInsn(bytecode.OpInvokevirtual, "java/lang/String", "length", "()I")
	if _, err := b.NaryOperation(insn, []value.Value{value.Null}); !errors.Is(err, ErrNullPointer) {
		t.Errorf("Expected ErrNullPointer, got %v", err)
	}
}

func TestGetstaticLookup(t *testing.T) {
	b := NewBasic()
	v, err := b.NewOperation(bytecode.FieldInsn(bytecode.OpGetstatic, "java/lang/Integer", "MAX_VALUE", "I"))
	if err != nil {
		t.Fatalf("getstatic failed: %v", err)
	}
	expectInt(t, v, math.MaxInt32)

	v, _ = b.NewOperation(bytecode.FieldInsn(bytecode.OpGetstatic, "a/B", "count", "I"))
	if v.Known() {
		t.Errorf("Expected unknown value for an unmodelled field, got %s", v)
	}
}

func TestUnsupportedInstructions(t *testing.T) {
	b := NewBasic()
	if _, err := b.NewOperation(bytecode.Jump(bytecode.OpJsr, "L1")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported for jsr, got %v", err)
	}
	if _, err := b.UnaryOperation(bytecode.Op(bytecode.OpAthrow), value.Null); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported for athrow, got %v", err)
	}
	indy := bytecode.InvokeDynamic("run", "()Ljava/lang/Runnable;")
	if _, err := b.NaryOperation(indy, nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported for invokedynamic, got %v", err)
	}
}

func TestNumericHelpers(t *testing.T) {
	if RoundD(-2.5) != -2 {
		t.Errorf("Expected round(-2.5) = -2, got %d", RoundD(-2.5))
	}
	if FloorDiv(-7, 2) != -4 {
		t.Errorf("Expected floorDiv(-7, 2) = -4, got %d", FloorDiv(-7, 2))
	}
	if FloorMod(-7, 2) != 1 {
		t.Errorf("Expected floorMod(-7, 2) = 1, got %d", FloorMod(-7, 2))
	}
	if F2L(math.Inf(1)) != math.MaxInt64 {
		t.Errorf("Expected saturation to MaxInt64, got %d", F2L(math.Inf(1)))
	}
}
