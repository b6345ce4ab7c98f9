package bytecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ============================================================================
// Text assembler
// ============================================================================
//
// The assembler reads the textual instruction form produced by FormatInsn,
// one instruction per line:
//
//	    iconst_2
//	    iload 1
//	    if_icmpge L1
//	    ldc "hello"
//	    invokevirtual java/lang/String.length ()I
//	L1:
//	    ireturn
//
// Comments start with ';' or '//' and run to the end of the line. A label
// may share a line with the instruction that follows it.

// AsmError reports a problem on a specific source line.
type AsmError struct {
	Line int
	Text string
	Err  error
}

func (e *AsmError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *AsmError) Unwrap() error { return e.Err }

// Assemble parses instruction text into an instruction list.
func Assemble(src string) (*InsnList, error) {
	var insns []Insn
	for n, raw := range strings.Split(src, "\n") {
		toks, err := tokenize(raw)
		if err != nil {
			return nil, &AsmError{Line: n + 1, Text: strings.TrimSpace(raw), Err: err}
		}
		for len(toks) > 0 && isLabelToken(toks[0]) {
			insns = append(insns, Label(strings.TrimSuffix(toks[0], ":")))
			toks = toks[1:]
		}
		if len(toks) == 0 {
			continue
		}
		insn, err := parseInsn(toks)
		if err != nil {
			return nil, &AsmError{Line: n + 1, Text: strings.TrimSpace(raw), Err: err}
		}
		insns = append(insns, insn)
	}
	return NewInsnList(insns...)
}

// MustAssemble is Assemble for source known to be valid.
func MustAssemble(src string) *InsnList {
	l, err := Assemble(src)
	if err != nil {
		panic(err)
	}
	return l
}

// ParseInsn parses a single instruction line.
func ParseInsn(line string) (Insn, error) {
	toks, err := tokenize(line)
	if err != nil {
		return Insn{}, err
	}
	if len(toks) == 1 && isLabelToken(toks[0]) {
		return Label(strings.TrimSuffix(toks[0], ":")), nil
	}
	if len(toks) == 0 {
		return Insn{}, fmt.Errorf("empty instruction")
	}
	return parseInsn(toks)
}

func isLabelToken(tok string) bool {
	return len(tok) > 1 && strings.HasSuffix(tok, ":") && !strings.HasPrefix(tok, "\"") &&
		!strings.Contains(tok[:len(tok)-1], ":")
}

// tokenize splits a line on whitespace, keeping quoted strings intact and
// dropping comments.
func tokenize(line string) ([]string, error) {
	var toks []string
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == ';' || strings.HasPrefix(line[i:], "//"):
			return toks, nil
		case c == '"':
			j := i + 1
			for j < len(line) && line[j] != '"' {
				if line[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(line) {
				return nil, fmt.Errorf("unterminated string")
			}
			toks = append(toks, line[i:j+1])
			i = j + 1
		default:
			j := i
			for j < len(line) && line[j] != ' ' && line[j] != '\t' && line[j] != '\r' {
				j++
			}
			toks = append(toks, line[i:j])
			i = j
		}
	}
	return toks, nil
}

func parseInsn(toks []string) (Insn, error) {
	op, ok := LookupOpcode(toks[0])
	if !ok || op == OpLabel {
		return Insn{}, fmt.Errorf("unknown mnemonic %q", toks[0])
	}
	args := toks[1:]

	want := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s expects %d operand(s), got %d", toks[0], n, len(args))
		}
		return nil
	}

	switch op.Kind() {
	case KindSimple:
		if err := want(0); err != nil {
			return Insn{}, err
		}
		return Op(op), nil

	case KindIntOperand:
		if err := want(1); err != nil {
			return Insn{}, err
		}
		if op == OpNewarray {
			for code, name := range primitiveArrayNames {
				if name == args[0] {
					return IntInsn(op, code), nil
				}
			}
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return Insn{}, fmt.Errorf("invalid operand %q", args[0])
		}
		return IntInsn(op, v), nil

	case KindVar:
		if err := want(1); err != nil {
			return Insn{}, err
		}
		slot, err := parseSlot(args[0])
		if err != nil {
			return Insn{}, err
		}
		return VarInsn(op, slot), nil

	case KindIinc:
		if err := want(2); err != nil {
			return Insn{}, err
		}
		slot, err := parseSlot(args[0])
		if err != nil {
			return Insn{}, err
		}
		incr, err := strconv.Atoi(args[1])
		if err != nil {
			return Insn{}, fmt.Errorf("invalid increment %q", args[1])
		}
		return Iinc(slot, incr), nil

	case KindType:
		if err := want(1); err != nil {
			return Insn{}, err
		}
		return TypeInsn(op, args[0]), nil

	case KindField:
		if err := want(2); err != nil {
			return Insn{}, err
		}
		owner, name, err := splitMember(args[0])
		if err != nil {
			return Insn{}, err
		}
		if _, err := ParseType(args[1]); err != nil {
			return Insn{}, err
		}
		return FieldInsn(op, owner, name, args[1]), nil

	case KindMethod:
		return parseMethodInsn(op, args)

	case KindInvokeDynamic:
		if err := want(2); err != nil {
			return Insn{}, err
		}
		return InvokeDynamic(args[0], args[1]), nil

	case KindJump:
		if err := want(1); err != nil {
			return Insn{}, err
		}
		return Jump(op, args[0]), nil

	case KindLdc:
		if err := want(1); err != nil {
			return Insn{}, err
		}
		c, err := ParseConstant(args[0])
		if err != nil {
			return Insn{}, err
		}
		return Ldc(c), nil

	case KindTableSwitch:
		return parseTableSwitch(args)

	case KindLookupSwitch:
		return parseLookupSwitch(args)

	case KindMultiANewArray:
		if err := want(2); err != nil {
			return Insn{}, err
		}
		dims, err := strconv.Atoi(args[1])
		if err != nil || dims < 1 {
			return Insn{}, fmt.Errorf("invalid dimensions %q", args[1])
		}
		return MultiANewArray(args[0], dims), nil
	}
	return Insn{}, fmt.Errorf("unsupported mnemonic %q", toks[0])
}

func parseSlot(s string) (int, error) {
	slot, err := strconv.Atoi(s)
	if err != nil || slot < 0 {
		return 0, fmt.Errorf("invalid local slot %q", s)
	}
	return slot, nil
}

// splitMember splits "owner.name" at the last dot.
func splitMember(s string) (string, string, error) {
	dot := strings.LastIndexByte(s, '.')
	if dot <= 0 || dot == len(s)-1 {
		return "", "", fmt.Errorf("expected owner.name, got %q", s)
	}
	return s[:dot], s[dot+1:], nil
}

func parseMethodInsn(op Opcode, args []string) (Insn, error) {
	if len(args) == 0 {
		return Insn{}, fmt.Errorf("%s expects owner.name and descriptor", op)
	}
	member := args[0]
	rest := args[1:]
	var desc string
	if paren := strings.IndexByte(member, '('); paren >= 0 {
		desc = member[paren:]
		member = member[:paren]
	} else {
		if len(rest) == 0 {
			return Insn{}, fmt.Errorf("%s is missing a method descriptor", op)
		}
		desc = rest[0]
		rest = rest[1:]
	}
	owner, name, err := splitMember(member)
	if err != nil {
		return Insn{}, err
	}
	if _, err := ParseMethodType(desc); err != nil {
		return Insn{}, err
	}
	insn := MethodInsn(op, owner, name, desc)
	switch {
	case len(rest) == 0:
	case len(rest) == 1 && rest[0] == "itf":
		insn.Interface = true
	default:
		return Insn{}, fmt.Errorf("unexpected operands %v", rest)
	}
	return insn, nil
}

func parseTableSwitch(args []string) (Insn, error) {
	if len(args) < 4 {
		return Insn{}, fmt.Errorf("tableswitch expects min max labels... default label")
	}
	min, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return Insn{}, fmt.Errorf("invalid min %q", args[0])
	}
	max, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		return Insn{}, fmt.Errorf("invalid max %q", args[1])
	}
	if args[len(args)-2] != "default" {
		return Insn{}, fmt.Errorf("tableswitch is missing its default label")
	}
	labels := args[2 : len(args)-2]
	if int64(len(labels)) != max-min+1 {
		return Insn{}, fmt.Errorf("tableswitch %d..%d needs %d labels, got %d", min, max, max-min+1, len(labels))
	}
	return TableSwitch(int32(min), int32(max), args[len(args)-1], labels...), nil
}

func parseLookupSwitch(args []string) (Insn, error) {
	var keys []int32
	var labels []string
	dflt := ""
	for _, a := range args {
		k, label, ok := strings.Cut(a, ":")
		if !ok || label == "" {
			return Insn{}, fmt.Errorf("expected key:label, got %q", a)
		}
		if k == "default" {
			dflt = label
			continue
		}
		v, err := strconv.ParseInt(k, 10, 32)
		if err != nil {
			return Insn{}, fmt.Errorf("invalid key %q", k)
		}
		keys = append(keys, int32(v))
		labels = append(labels, label)
	}
	if dflt == "" {
		return Insn{}, fmt.Errorf("lookupswitch is missing its default label")
	}
	return LookupSwitch(dflt, keys, labels), nil
}

// ParseConstant parses an ldc literal: 42, 42L, 1.5f, 1.5, "text", a type
// descriptor, or handle:/condy: references.
func ParseConstant(s string) (Constant, error) {
	switch {
	case strings.HasPrefix(s, "\""):
		str, err := strconv.Unquote(s)
		if err != nil {
			return Constant{}, fmt.Errorf("invalid string literal %s", s)
		}
		return StringConst(str), nil
	case strings.HasPrefix(s, "handle:"):
		return Constant{Kind: ConstHandle, Str: strings.TrimPrefix(s, "handle:")}, nil
	case strings.HasPrefix(s, "condy:"):
		return Constant{Kind: ConstDynamic, Str: strings.TrimPrefix(s, "condy:")}, nil
	case strings.HasPrefix(s, "["), strings.HasPrefix(s, "L") && strings.HasSuffix(s, ";"):
		if _, err := ParseType(s); err != nil {
			return Constant{}, err
		}
		return TypeConst(s), nil
	case strings.HasSuffix(s, "L"), strings.HasSuffix(s, "l"):
		v, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
		if err != nil {
			return Constant{}, fmt.Errorf("invalid long literal %q", s)
		}
		return LongConst(v), nil
	case strings.HasSuffix(s, "f"), strings.HasSuffix(s, "F"):
		v, err := parseFloating(s[:len(s)-1], 32)
		if err != nil {
			return Constant{}, fmt.Errorf("invalid float literal %q", s)
		}
		return FloatConst(float32(v)), nil
	case strings.ContainsAny(s, ".eE") || s == "NaN" || strings.HasSuffix(s, "Infinity"):
		v, err := parseFloating(s, 64)
		if err != nil {
			return Constant{}, fmt.Errorf("invalid double literal %q", s)
		}
		return DoubleConst(v), nil
	default:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return Constant{}, fmt.Errorf("invalid int literal %q", s)
		}
		return IntConst(int32(v)), nil
	}
}

func parseFloating(s string, bits int) (float64, error) {
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "Infinity", "+Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, bits)
}
