package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Values match the class-file encoding so that instruction lists produced by
// external readers can be consumed without translation.
type Opcode byte

const (
	// ========================================================================
	// Constants (0x00-0x14)
	// ========================================================================

	OpNop        Opcode = 0x00
	OpAconstNull Opcode = 0x01
	OpIconstM1   Opcode = 0x02
	OpIconst0    Opcode = 0x03
	OpIconst1    Opcode = 0x04
	OpIconst2    Opcode = 0x05
	OpIconst3    Opcode = 0x06
	OpIconst4    Opcode = 0x07
	OpIconst5    Opcode = 0x08
	OpLconst0    Opcode = 0x09
	OpLconst1    Opcode = 0x0A
	OpFconst0    Opcode = 0x0B
	OpFconst1    Opcode = 0x0C
	OpFconst2    Opcode = 0x0D
	OpDconst0    Opcode = 0x0E
	OpDconst1    Opcode = 0x0F
	OpBipush     Opcode = 0x10 // Push sign-extended byte: Operand
	OpSipush     Opcode = 0x11 // Push sign-extended short: Operand
	OpLdc        Opcode = 0x12 // Push constant: Const

	// ========================================================================
	// Loads (0x15-0x35)
	// ========================================================================

	OpIload  Opcode = 0x15 // Var
	OpLload  Opcode = 0x16
	OpFload  Opcode = 0x17
	OpDload  Opcode = 0x18
	OpAload  Opcode = 0x19
	OpIaload Opcode = 0x2E
	OpLaload Opcode = 0x2F
	OpFaload Opcode = 0x30
	OpDaload Opcode = 0x31
	OpAaload Opcode = 0x32
	OpBaload Opcode = 0x33
	OpCaload Opcode = 0x34
	OpSaload Opcode = 0x35

	// ========================================================================
	// Stores (0x36-0x56)
	// ========================================================================

	OpIstore  Opcode = 0x36 // Var
	OpLstore  Opcode = 0x37
	OpFstore  Opcode = 0x38
	OpDstore  Opcode = 0x39
	OpAstore  Opcode = 0x3A
	OpIastore Opcode = 0x4F
	OpLastore Opcode = 0x50
	OpFastore Opcode = 0x51
	OpDastore Opcode = 0x52
	OpAastore Opcode = 0x53
	OpBastore Opcode = 0x54
	OpCastore Opcode = 0x55
	OpSastore Opcode = 0x56

	// ========================================================================
	// Stack manipulation (0x57-0x5F)
	// ========================================================================

	OpPop    Opcode = 0x57
	OpPop2   Opcode = 0x58
	OpDup    Opcode = 0x59
	OpDupX1  Opcode = 0x5A
	OpDupX2  Opcode = 0x5B
	OpDup2   Opcode = 0x5C
	OpDup2X1 Opcode = 0x5D
	OpDup2X2 Opcode = 0x5E
	OpSwap   Opcode = 0x5F

	// ========================================================================
	// Arithmetic and bitwise (0x60-0x84)
	// ========================================================================

	OpIadd  Opcode = 0x60
	OpLadd  Opcode = 0x61
	OpFadd  Opcode = 0x62
	OpDadd  Opcode = 0x63
	OpIsub  Opcode = 0x64
	OpLsub  Opcode = 0x65
	OpFsub  Opcode = 0x66
	OpDsub  Opcode = 0x67
	OpImul  Opcode = 0x68
	OpLmul  Opcode = 0x69
	OpFmul  Opcode = 0x6A
	OpDmul  Opcode = 0x6B
	OpIdiv  Opcode = 0x6C
	OpLdiv  Opcode = 0x6D
	OpFdiv  Opcode = 0x6E
	OpDdiv  Opcode = 0x6F
	OpIrem  Opcode = 0x70
	OpLrem  Opcode = 0x71
	OpFrem  Opcode = 0x72
	OpDrem  Opcode = 0x73
	OpIneg  Opcode = 0x74
	OpLneg  Opcode = 0x75
	OpFneg  Opcode = 0x76
	OpDneg  Opcode = 0x77
	OpIshl  Opcode = 0x78
	OpLshl  Opcode = 0x79
	OpIshr  Opcode = 0x7A
	OpLshr  Opcode = 0x7B
	OpIushr Opcode = 0x7C
	OpLushr Opcode = 0x7D
	OpIand  Opcode = 0x7E
	OpLand  Opcode = 0x7F
	OpIor   Opcode = 0x80
	OpLor   Opcode = 0x81
	OpIxor  Opcode = 0x82
	OpLxor  Opcode = 0x83
	OpIinc  Opcode = 0x84 // Var, Incr

	// ========================================================================
	// Conversions (0x85-0x93)
	// ========================================================================

	OpI2l Opcode = 0x85
	OpI2f Opcode = 0x86
	OpI2d Opcode = 0x87
	OpL2i Opcode = 0x88
	OpL2f Opcode = 0x89
	OpL2d Opcode = 0x8A
	OpF2i Opcode = 0x8B
	OpF2l Opcode = 0x8C
	OpF2d Opcode = 0x8D
	OpD2i Opcode = 0x8E
	OpD2l Opcode = 0x8F
	OpD2f Opcode = 0x90
	OpI2b Opcode = 0x91
	OpI2c Opcode = 0x92
	OpI2s Opcode = 0x93

	// ========================================================================
	// Comparison (0x94-0x98)
	// ========================================================================

	OpLcmp  Opcode = 0x94
	OpFcmpl Opcode = 0x95
	OpFcmpg Opcode = 0x96
	OpDcmpl Opcode = 0x97
	OpDcmpg Opcode = 0x98

	// ========================================================================
	// Control flow (0x99-0xB1)
	// ========================================================================

	OpIfeq         Opcode = 0x99 // Label
	OpIfne         Opcode = 0x9A
	OpIflt         Opcode = 0x9B
	OpIfge         Opcode = 0x9C
	OpIfgt         Opcode = 0x9D
	OpIfle         Opcode = 0x9E
	OpIfIcmpeq     Opcode = 0x9F
	OpIfIcmpne     Opcode = 0xA0
	OpIfIcmplt     Opcode = 0xA1
	OpIfIcmpge     Opcode = 0xA2
	OpIfIcmpgt     Opcode = 0xA3
	OpIfIcmple     Opcode = 0xA4
	OpIfAcmpeq     Opcode = 0xA5
	OpIfAcmpne     Opcode = 0xA6
	OpGoto         Opcode = 0xA7
	OpJsr          Opcode = 0xA8 // Legacy subroutine call
	OpRet          Opcode = 0xA9 // Legacy subroutine return: Var
	OpTableswitch  Opcode = 0xAA // Min, Max, Labels, Default
	OpLookupswitch Opcode = 0xAB // Keys, Labels, Default
	OpIreturn      Opcode = 0xAC
	OpLreturn      Opcode = 0xAD
	OpFreturn      Opcode = 0xAE
	OpDreturn      Opcode = 0xAF
	OpAreturn      Opcode = 0xB0
	OpReturn       Opcode = 0xB1

	// ========================================================================
	// Fields and methods (0xB2-0xBA)
	// ========================================================================

	OpGetstatic       Opcode = 0xB2 // Owner, Name, Desc
	OpPutstatic       Opcode = 0xB3
	OpGetfield        Opcode = 0xB4
	OpPutfield        Opcode = 0xB5
	OpInvokevirtual   Opcode = 0xB6 // Owner, Name, Desc
	OpInvokespecial   Opcode = 0xB7
	OpInvokestatic    Opcode = 0xB8
	OpInvokeinterface Opcode = 0xB9
	OpInvokedynamic   Opcode = 0xBA // Name, Desc

	// ========================================================================
	// Objects and arrays (0xBB-0xC5)
	// ========================================================================

	OpNew            Opcode = 0xBB // Desc = internal name
	OpNewarray       Opcode = 0xBC // Operand = primitive array type code
	OpAnewarray      Opcode = 0xBD // Desc = element internal name
	OpArraylength    Opcode = 0xBE
	OpAthrow         Opcode = 0xBF
	OpCheckcast      Opcode = 0xC0 // Desc
	OpInstanceof     Opcode = 0xC1 // Desc
	OpMonitorenter   Opcode = 0xC2
	OpMonitorexit    Opcode = 0xC3
	OpMultianewarray Opcode = 0xC5 // Desc = array descriptor, Dims
	OpIfnull         Opcode = 0xC6 // Label
	OpIfnonnull      Opcode = 0xC7 // Label

	// ========================================================================
	// Pseudo instructions (0xFE)
	// ========================================================================

	OpLabel Opcode = 0xFE // Jump target marker, never executed
)

// Primitive array type codes used by OpNewarray.
const (
	TBoolean = 4
	TChar    = 5
	TFloat   = 6
	TDouble  = 7
	TByte    = 8
	TShort   = 9
	TInt     = 10
	TLong    = 11
)

// InsnKind groups opcodes by the shape of their operands.
type InsnKind uint8

const (
	KindSimple InsnKind = iota
	KindIntOperand
	KindVar
	KindType
	KindField
	KindMethod
	KindInvokeDynamic
	KindJump
	KindLabel
	KindLdc
	KindIinc
	KindTableSwitch
	KindLookupSwitch
	KindMultiANewArray
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name string   // Mnemonic as written by the assembler
	Kind InsnKind // Operand shape
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Constants
	OpNop:        {"nop", KindSimple},
	OpAconstNull: {"aconst_null", KindSimple},
	OpIconstM1:   {"iconst_m1", KindSimple},
	OpIconst0:    {"iconst_0", KindSimple},
	OpIconst1:    {"iconst_1", KindSimple},
	OpIconst2:    {"iconst_2", KindSimple},
	OpIconst3:    {"iconst_3", KindSimple},
	OpIconst4:    {"iconst_4", KindSimple},
	OpIconst5:    {"iconst_5", KindSimple},
	OpLconst0:    {"lconst_0", KindSimple},
	OpLconst1:    {"lconst_1", KindSimple},
	OpFconst0:    {"fconst_0", KindSimple},
	OpFconst1:    {"fconst_1", KindSimple},
	OpFconst2:    {"fconst_2", KindSimple},
	OpDconst0:    {"dconst_0", KindSimple},
	OpDconst1:    {"dconst_1", KindSimple},
	OpBipush:     {"bipush", KindIntOperand},
	OpSipush:     {"sipush", KindIntOperand},
	OpLdc:        {"ldc", KindLdc},

	// Loads
	OpIload:  {"iload", KindVar},
	OpLload:  {"lload", KindVar},
	OpFload:  {"fload", KindVar},
	OpDload:  {"dload", KindVar},
	OpAload:  {"aload", KindVar},
	OpIaload: {"iaload", KindSimple},
	OpLaload: {"laload", KindSimple},
	OpFaload: {"faload", KindSimple},
	OpDaload: {"daload", KindSimple},
	OpAaload: {"aaload", KindSimple},
	OpBaload: {"baload", KindSimple},
	OpCaload: {"caload", KindSimple},
	OpSaload: {"saload", KindSimple},

	// Stores
	OpIstore:  {"istore", KindVar},
	OpLstore:  {"lstore", KindVar},
	OpFstore:  {"fstore", KindVar},
	OpDstore:  {"dstore", KindVar},
	OpAstore:  {"astore", KindVar},
	OpIastore: {"iastore", KindSimple},
	OpLastore: {"lastore", KindSimple},
	OpFastore: {"fastore", KindSimple},
	OpDastore: {"dastore", KindSimple},
	OpAastore: {"aastore", KindSimple},
	OpBastore: {"bastore", KindSimple},
	OpCastore: {"castore", KindSimple},
	OpSastore: {"sastore", KindSimple},

	// Stack
	OpPop:    {"pop", KindSimple},
	OpPop2:   {"pop2", KindSimple},
	OpDup:    {"dup", KindSimple},
	OpDupX1:  {"dup_x1", KindSimple},
	OpDupX2:  {"dup_x2", KindSimple},
	OpDup2:   {"dup2", KindSimple},
	OpDup2X1: {"dup2_x1", KindSimple},
	OpDup2X2: {"dup2_x2", KindSimple},
	OpSwap:   {"swap", KindSimple},

	// Arithmetic
	OpIadd:  {"iadd", KindSimple},
	OpLadd:  {"ladd", KindSimple},
	OpFadd:  {"fadd", KindSimple},
	OpDadd:  {"dadd", KindSimple},
	OpIsub:  {"isub", KindSimple},
	OpLsub:  {"lsub", KindSimple},
	OpFsub:  {"fsub", KindSimple},
	OpDsub:  {"dsub", KindSimple},
	OpImul:  {"imul", KindSimple},
	OpLmul:  {"lmul", KindSimple},
	OpFmul:  {"fmul", KindSimple},
	OpDmul:  {"dmul", KindSimple},
	OpIdiv:  {"idiv", KindSimple},
	OpLdiv:  {"ldiv", KindSimple},
	OpFdiv:  {"fdiv", KindSimple},
	OpDdiv:  {"ddiv", KindSimple},
	OpIrem:  {"irem", KindSimple},
	OpLrem:  {"lrem", KindSimple},
	OpFrem:  {"frem", KindSimple},
	OpDrem:  {"drem", KindSimple},
	OpIneg:  {"ineg", KindSimple},
	OpLneg:  {"lneg", KindSimple},
	OpFneg:  {"fneg", KindSimple},
	OpDneg:  {"dneg", KindSimple},
	OpIshl:  {"ishl", KindSimple},
	OpLshl:  {"lshl", KindSimple},
	OpIshr:  {"ishr", KindSimple},
	OpLshr:  {"lshr", KindSimple},
	OpIushr: {"iushr", KindSimple},
	OpLushr: {"lushr", KindSimple},
	OpIand:  {"iand", KindSimple},
	OpLand:  {"land", KindSimple},
	OpIor:   {"ior", KindSimple},
	OpLor:   {"lor", KindSimple},
	OpIxor:  {"ixor", KindSimple},
	OpLxor:  {"lxor", KindSimple},
	OpIinc:  {"iinc", KindIinc},

	// Conversions
	OpI2l: {"i2l", KindSimple},
	OpI2f: {"i2f", KindSimple},
	OpI2d: {"i2d", KindSimple},
	OpL2i: {"l2i", KindSimple},
	OpL2f: {"l2f", KindSimple},
	OpL2d: {"l2d", KindSimple},
	OpF2i: {"f2i", KindSimple},
	OpF2l: {"f2l", KindSimple},
	OpF2d: {"f2d", KindSimple},
	OpD2i: {"d2i", KindSimple},
	OpD2l: {"d2l", KindSimple},
	OpD2f: {"d2f", KindSimple},
	OpI2b: {"i2b", KindSimple},
	OpI2c: {"i2c", KindSimple},
	OpI2s: {"i2s", KindSimple},

	// Comparison
	OpLcmp:  {"lcmp", KindSimple},
	OpFcmpl: {"fcmpl", KindSimple},
	OpFcmpg: {"fcmpg", KindSimple},
	OpDcmpl: {"dcmpl", KindSimple},
	OpDcmpg: {"dcmpg", KindSimple},

	// Control flow
	OpIfeq:         {"ifeq", KindJump},
	OpIfne:         {"ifne", KindJump},
	OpIflt:         {"iflt", KindJump},
	OpIfge:         {"ifge", KindJump},
	OpIfgt:         {"ifgt", KindJump},
	OpIfle:         {"ifle", KindJump},
	OpIfIcmpeq:     {"if_icmpeq", KindJump},
	OpIfIcmpne:     {"if_icmpne", KindJump},
	OpIfIcmplt:     {"if_icmplt", KindJump},
	OpIfIcmpge:     {"if_icmpge", KindJump},
	OpIfIcmpgt:     {"if_icmpgt", KindJump},
	OpIfIcmple:     {"if_icmple", KindJump},
	OpIfAcmpeq:     {"if_acmpeq", KindJump},
	OpIfAcmpne:     {"if_acmpne", KindJump},
	OpGoto:         {"goto", KindJump},
	OpJsr:          {"jsr", KindJump},
	OpRet:          {"ret", KindVar},
	OpTableswitch:  {"tableswitch", KindTableSwitch},
	OpLookupswitch: {"lookupswitch", KindLookupSwitch},
	OpIreturn:      {"ireturn", KindSimple},
	OpLreturn:      {"lreturn", KindSimple},
	OpFreturn:      {"freturn", KindSimple},
	OpDreturn:      {"dreturn", KindSimple},
	OpAreturn:      {"areturn", KindSimple},
	OpReturn:       {"return", KindSimple},

	// Fields and methods
	OpGetstatic:       {"getstatic", KindField},
	OpPutstatic:       {"putstatic", KindField},
	OpGetfield:        {"getfield", KindField},
	OpPutfield:        {"putfield", KindField},
	OpInvokevirtual:   {"invokevirtual", KindMethod},
	OpInvokespecial:   {"invokespecial", KindMethod},
	OpInvokestatic:    {"invokestatic", KindMethod},
	OpInvokeinterface: {"invokeinterface", KindMethod},
	OpInvokedynamic:   {"invokedynamic", KindInvokeDynamic},

	// Objects and arrays
	OpNew:            {"new", KindType},
	OpNewarray:       {"newarray", KindIntOperand},
	OpAnewarray:      {"anewarray", KindType},
	OpArraylength:    {"arraylength", KindSimple},
	OpAthrow:         {"athrow", KindSimple},
	OpCheckcast:      {"checkcast", KindType},
	OpInstanceof:     {"instanceof", KindType},
	OpMonitorenter:   {"monitorenter", KindSimple},
	OpMonitorexit:    {"monitorexit", KindSimple},
	OpMultianewarray: {"multianewarray", KindMultiANewArray},
	OpIfnull:         {"ifnull", KindJump},
	OpIfnonnull:      {"ifnonnull", KindJump},

	// Pseudo
	OpLabel: {"label", KindLabel},
}

// opcodeByName is the reverse of opcodeInfoTable, used by the assembler.
var opcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeInfoTable))
	for op, info := range opcodeInfoTable {
		m[info.Name] = op
	}
	return m
}()

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "unknown" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("unknown(0x%02X)", byte(op)), Kind: KindSimple}
}

// LookupOpcode returns the opcode for a mnemonic.
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := opcodeByName[name]
	return op, ok
}

// String returns the mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Kind returns the operand shape of this opcode.
func (op Opcode) Kind() InsnKind {
	return GetOpcodeInfo(op).Kind
}

// IsJump returns true if this opcode transfers control to a label.
func (op Opcode) IsJump() bool {
	return op.Kind() == KindJump
}

// IsConditional returns true for jumps that may fall through.
func (op Opcode) IsConditional() bool {
	return op.IsJump() && op != OpGoto && op != OpJsr
}

// IsReturn returns true if this opcode terminates execution.
func (op Opcode) IsReturn() bool {
	return op >= OpIreturn && op <= OpReturn
}

// IsSwitch returns true for table and lookup switches.
func (op Opcode) IsSwitch() bool {
	return op == OpTableswitch || op == OpLookupswitch
}

// IsInvoke returns true if this opcode calls a method.
func (op Opcode) IsInvoke() bool {
	return op >= OpInvokevirtual && op <= OpInvokedynamic
}

// IsArrayStore returns true for the typed array store opcodes.
func (op Opcode) IsArrayStore() bool {
	return op >= OpIastore && op <= OpSastore
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
