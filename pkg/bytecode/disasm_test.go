package bytecode

import (
	"math"
	"strings"
	"testing"
)

func TestFormatInsn(t *testing.T) {
	tests := []struct {
		insn Insn
		want string
	}{
		{Op(OpIadd), "iadd"},
		{IntInsn(OpBipush, -5), "bipush -5"},
		{IntInsn(OpNewarray, TInt), "newarray int"},
		{VarInsn(OpAload, 3), "aload 3"},
		{Iinc(2, -1), "iinc 2 -1"},
		{TypeInsn(OpNew, "java/lang/StringBuilder"), "new java/lang/StringBuilder"},
		{FieldInsn(OpGetstatic, "a/B", "count", "I"), "getstatic a/B.count I"},
		{MethodInsn(OpInvokestatic, "java/lang/Math", "max", "(II)I"), "invokestatic java/lang/Math.max (II)I"},
		{InvokeDynamic("run", "()Ljava/lang/Runnable;"), "invokedynamic run ()Ljava/lang/Runnable;"},
		{Jump(OpIfeq, "L1"), "ifeq L1"},
		{Label("L1"), "L1:"},
		{Ldc(IntConst(42)), "ldc 42"},
		{Ldc(LongConst(7)), "ldc 7L"},
		{Ldc(FloatConst(1.5)), "ldc 1.5f"},
		{Ldc(DoubleConst(2)), "ldc 2.0"},
		{Ldc(StringConst("a\"b")), `ldc "a\"b"`},
		{Ldc(TypeConst("Ljava/lang/String;")), "ldc Ljava/lang/String;"},
		{TableSwitch(0, 1, "L9", "L1", "L2"), "tableswitch 0 1 L1 L2 default L9"},
		{LookupSwitch("L9", []int32{3, 8}, []string{"L1", "L2"}), "lookupswitch 3:L1 8:L2 default:L9"},
		{MultiANewArray("[[I", 2), "multianewarray [[I 2"},
	}

	for _, tt := range tests {
		if got := FormatInsn(tt.insn); got != tt.want {
			t.Errorf("FormatInsn(%s) = %q, want %q", tt.insn.Op, got, tt.want)
		}
	}
}

func TestFormatSpecialFloats(t *testing.T) {
	tests := []struct {
		c    Constant
		want string
	}{
		{DoubleConst(math.NaN()), "NaN"},
		{DoubleConst(math.Inf(1)), "Infinity"},
		{DoubleConst(math.Inf(-1)), "-Infinity"},
		{FloatConst(float32(math.Inf(1))), "Infinityf"},
		{DoubleConst(1e300), "1e+300"},
	}

	for _, tt := range tests {
		if got := FormatConstant(tt.c); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	insns := []Insn{
		Op(OpIconst5),
		IntInsn(OpSipush, 1000),
		IntInsn(OpNewarray, TBoolean),
		VarInsn(OpLstore, 4),
		Iinc(1, 100),
		TypeInsn(OpAnewarray, "java/lang/Object"),
		FieldInsn(OpPutfield, "a/B", "name", "Ljava/lang/String;"),
		MethodInsn(OpInvokeinterface, "java/util/List", "size", "()I"),
		Jump(OpGoto, "top"),
		Ldc(FloatConst(-0.25)),
		Ldc(DoubleConst(1e-9)),
		Ldc(StringConst("tab\there")),
		Ldc(Constant{Kind: ConstHandle, Str: "a/B.m()V"}),
		TableSwitch(-1, 1, "d", "a", "b", "c"),
		LookupSwitch("d", []int32{-4}, []string{"a"}),
		MultiANewArray("[[[J", 3),
	}

	for _, insn := range insns {
		text := FormatInsn(insn)
		parsed, err := ParseInsn(text)
		if err != nil {
			t.Errorf("ParseInsn(%q) failed: %v", text, err)
			continue
		}
		if got := FormatInsn(parsed); got != text {
			t.Errorf("Round trip of %q produced %q", text, got)
		}
	}
}

func TestDisassemble(t *testing.T) {
	l := MustInsnList(
		Op(OpIconst1),
		Jump(OpIfeq, "L1"),
		Op(OpIconst2),
		Op(OpIreturn),
		Label("L1"),
		Op(OpIconst3),
		Op(OpIreturn),
	)

	output := Disassemble(l)

	for _, want := range []string{"0000  iconst_1", "0001  ifeq L1", "\nL1:\n", "0005  iconst_3"} {
		if !strings.Contains(output, want) {
			t.Errorf("Disassembly missing %q:\n%s", want, output)
		}
	}
}

func TestDisassembleMethod(t *testing.T) {
	m := &Method{
		Name:         "answer",
		Desc:         "()I",
		Access:       AccPublic | AccStatic,
		MaxLocals:    0,
		MaxStack:     1,
		Instructions: MustInsnList(IntInsn(OpBipush, 42), Op(OpIreturn)),
	}

	output := DisassembleMethod("demo/Main", m)

	if !strings.Contains(output, "; === demo/Main.answer()I ===") {
		t.Error("Disassembly missing header")
	}
	if !strings.Contains(output, "; Access: public static") {
		t.Error("Disassembly missing access flags")
	}
	if !strings.Contains(output, "bipush 42") {
		t.Error("Disassembly missing bipush")
	}
}
