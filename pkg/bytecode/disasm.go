package bytecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatInsn returns the textual form of a single instruction. The output is
// accepted by the assembler, so a disassembled line can be fed back in.
func FormatInsn(i Insn) string {
	info := GetOpcodeInfo(i.Op)

	switch info.Kind {
	case KindLabel:
		return i.Label + ":"

	case KindIntOperand:
		if i.Op == OpNewarray {
			if name, ok := primitiveArrayNames[i.Operand]; ok {
				return "newarray " + name
			}
		}
		return fmt.Sprintf("%s %d", info.Name, i.Operand)

	case KindVar:
		return fmt.Sprintf("%s %d", info.Name, i.Var)

	case KindIinc:
		return fmt.Sprintf("iinc %d %d", i.Var, i.Incr)

	case KindType:
		return fmt.Sprintf("%s %s", info.Name, i.Desc)

	case KindField:
		return fmt.Sprintf("%s %s.%s %s", info.Name, i.Owner, i.Name, i.Desc)

	case KindMethod:
		s := fmt.Sprintf("%s %s.%s %s", info.Name, i.Owner, i.Name, i.Desc)
		if i.Interface && i.Op != OpInvokeinterface {
			s += " itf"
		}
		return s

	case KindInvokeDynamic:
		return fmt.Sprintf("invokedynamic %s %s", i.Name, i.Desc)

	case KindJump:
		return fmt.Sprintf("%s %s", info.Name, i.Label)

	case KindLdc:
		if i.Const == nil {
			return "ldc <nil>"
		}
		return "ldc " + FormatConstant(*i.Const)

	case KindTableSwitch:
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("tableswitch %d %d", i.Min, i.Max))
		for _, l := range i.Labels {
			sb.WriteString(" ")
			sb.WriteString(l)
		}
		sb.WriteString(" default ")
		sb.WriteString(i.Default)
		return sb.String()

	case KindLookupSwitch:
		var sb strings.Builder
		sb.WriteString("lookupswitch")
		for idx, k := range i.Keys {
			label := ""
			if idx < len(i.Labels) {
				label = i.Labels[idx]
			}
			sb.WriteString(fmt.Sprintf(" %d:%s", k, label))
		}
		sb.WriteString(" default:")
		sb.WriteString(i.Default)
		return sb.String()

	case KindMultiANewArray:
		return fmt.Sprintf("multianewarray %s %d", i.Desc, i.Dims)

	default:
		return info.Name
	}
}

// FormatConstant returns the assembler literal for an ldc constant.
func FormatConstant(c Constant) string {
	switch c.Kind {
	case ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case ConstLong:
		return strconv.FormatInt(c.Int, 10) + "L"
	case ConstFloat:
		return formatFloating(c.Float, 32) + "f"
	case ConstDouble:
		return formatFloating(c.Float, 64)
	case ConstString:
		return strconv.Quote(c.Str)
	case ConstType:
		return c.Str
	case ConstHandle:
		return "handle:" + c.Str
	case ConstDynamic:
		return "condy:" + c.Str
	default:
		return fmt.Sprintf("<%s>", c.Kind)
	}
}

// formatFloating renders a float so that it is never mistaken for an int.
func formatFloating(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Disassemble returns a listing of the instruction list, one instruction
// per line with its index. Labels are printed unindented.
func Disassemble(l *InsnList) string {
	var sb strings.Builder
	for idx := 0; idx < l.Len(); idx++ {
		insn := l.At(idx)
		if insn.Op == OpLabel {
			sb.WriteString(fmt.Sprintf("%s\n", FormatInsn(insn)))
			continue
		}
		sb.WriteString(fmt.Sprintf("%04d  %s\n", idx, FormatInsn(insn)))
	}
	return sb.String()
}

// DisassembleMethod returns a listing of a method with a header.
func DisassembleMethod(owner string, m *Method) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("; === %s.%s%s ===\n", owner, m.Name, m.Desc))
	if m.Access != 0 {
		sb.WriteString(fmt.Sprintf("; Access: %s\n", m.Access))
	}
	sb.WriteString(fmt.Sprintf("; Locals: %d, Stack: %d\n", m.MaxLocals, m.MaxStack))
	sb.WriteString("; Code:\n")
	sb.WriteString(Disassemble(m.Instructions))
	return sb.String()
}
