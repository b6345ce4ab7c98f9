package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/bceval/pkg/bytecode"
	"github.com/chazu/bceval/pkg/value"
)

// parseTarget splits "owner.name" at its last dot. Owners use internal
// names, so their packages are separated by slashes.
func parseTarget(s string) (owner, name string, err error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return "", "", fmt.Errorf("expected owner.method, got %q", s)
	}
	return s[:i], s[i+1:], nil
}

// parseArguments converts command-line literals to values of the argument
// types of desc.
func parseArguments(desc string, literals []string) ([]value.Value, error) {
	mt, err := bytecode.ParseMethodType(desc)
	if err != nil {
		return nil, err
	}
	if len(literals) != len(mt.Args) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", desc, len(mt.Args), len(literals))
	}
	args := make([]value.Value, len(literals))
	for i, lit := range literals {
		v, err := parseArgument(mt.Args[i], lit)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = v
	}
	return args, nil
}

func parseArgument(t bytecode.Type, s string) (value.Value, error) {
	switch t.Sort() {
	case bytecode.SortBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q", s)
		}
		return value.NewBool(b), nil
	case bytecode.SortChar:
		if r := []rune(s); len(r) == 1 && r[0] <= 0xFFFF {
			return value.NewChar(uint16(r[0])), nil
		}
		n, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid char %q", s)
		}
		return value.NewChar(uint16(n)), nil
	case bytecode.SortByte:
		n, err := strconv.ParseInt(s, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid byte %q", s)
		}
		return value.NewByte(int8(n)), nil
	case bytecode.SortShort:
		n, err := strconv.ParseInt(s, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid short %q", s)
		}
		return value.NewShort(int16(n)), nil
	case bytecode.SortInt:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid int %q", s)
		}
		return value.NewInt(int32(n)), nil
	case bytecode.SortLong:
		n, err := strconv.ParseInt(strings.TrimRight(s, "Ll"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid long %q", s)
		}
		return value.NewLong(n), nil
	case bytecode.SortFloat:
		c, err := bytecode.ParseConstant(strings.TrimRight(s, "Ff") + "f")
		if err != nil {
			return nil, err
		}
		return value.NewFloat(float32(c.Float)), nil
	case bytecode.SortDouble:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid double %q", s)
		}
		return value.NewDouble(f), nil
	}

	if s == "null" {
		return value.Null, nil
	}
	if t.Descriptor() == bytecode.StringType.Descriptor() {
		if strings.HasPrefix(s, "\"") {
			unq, err := strconv.Unquote(s)
			if err != nil {
				return nil, fmt.Errorf("invalid string literal %s", s)
			}
			return value.NewString(unq), nil
		}
		return value.NewString(s), nil
	}
	return nil, fmt.Errorf("cannot pass a literal as %s; only null is accepted", t)
}
