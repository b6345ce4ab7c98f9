package bytecode

import (
	"fmt"
	"strings"
)

// Sort classifies a type descriptor.
type Sort uint8

const (
	SortVoid Sort = iota
	SortBoolean
	SortChar
	SortByte
	SortShort
	SortInt
	SortFloat
	SortLong
	SortDouble
	SortArray
	SortObject
	SortMethod
)

// String returns a human-readable name for Sort.
func (s Sort) String() string {
	switch s {
	case SortVoid:
		return "void"
	case SortBoolean:
		return "boolean"
	case SortChar:
		return "char"
	case SortByte:
		return "byte"
	case SortShort:
		return "short"
	case SortInt:
		return "int"
	case SortFloat:
		return "float"
	case SortLong:
		return "long"
	case SortDouble:
		return "double"
	case SortArray:
		return "array"
	case SortObject:
		return "object"
	case SortMethod:
		return "method"
	default:
		return fmt.Sprintf("Sort(%d)", s)
	}
}

// Type is a parsed field or method descriptor. The zero Type is void.
type Type struct {
	sort Sort
	desc string
}

// Primitive types.
var (
	VoidType    = Type{SortVoid, "V"}
	BooleanType = Type{SortBoolean, "Z"}
	CharType    = Type{SortChar, "C"}
	ByteType    = Type{SortByte, "B"}
	ShortType   = Type{SortShort, "S"}
	IntType     = Type{SortInt, "I"}
	FloatType   = Type{SortFloat, "F"}
	LongType    = Type{SortLong, "J"}
	DoubleType  = Type{SortDouble, "D"}
)

// Frequently used object types.
var (
	ObjectType        = ObjectTypeOf("java/lang/Object")
	StringType        = ObjectTypeOf("java/lang/String")
	StringBuilderType = ObjectTypeOf("java/lang/StringBuilder")
	ClassType         = ObjectTypeOf("java/lang/Class")
	NullType          = ObjectTypeOf("null")
)

// ObjectTypeOf returns the type for an internal name such as "java/lang/String".
// Array descriptors are accepted as-is, matching how type instructions name arrays.
func ObjectTypeOf(internalName string) Type {
	if strings.HasPrefix(internalName, "[") {
		return Type{SortArray, internalName}
	}
	return Type{SortObject, "L" + internalName + ";"}
}

// ArrayTypeOf returns the one-dimensional array type with the given element.
func ArrayTypeOf(elem Type) Type {
	return Type{SortArray, "[" + elem.desc}
}

// ParseType parses a field descriptor.
func ParseType(desc string) (Type, error) {
	t, n, err := parseType(desc, 0)
	if err != nil {
		return Type{}, err
	}
	if n != len(desc) {
		return Type{}, fmt.Errorf("trailing characters in descriptor %q", desc)
	}
	return t, nil
}

// MustParseType is ParseType for descriptors known to be valid.
func MustParseType(desc string) Type {
	t, err := ParseType(desc)
	if err != nil {
		panic(err)
	}
	return t
}

func parseType(desc string, i int) (Type, int, error) {
	if i >= len(desc) {
		return Type{}, i, fmt.Errorf("truncated descriptor %q", desc)
	}
	switch desc[i] {
	case 'V':
		return VoidType, i + 1, nil
	case 'Z':
		return BooleanType, i + 1, nil
	case 'C':
		return CharType, i + 1, nil
	case 'B':
		return ByteType, i + 1, nil
	case 'S':
		return ShortType, i + 1, nil
	case 'I':
		return IntType, i + 1, nil
	case 'F':
		return FloatType, i + 1, nil
	case 'J':
		return LongType, i + 1, nil
	case 'D':
		return DoubleType, i + 1, nil
	case 'L':
		end := strings.IndexByte(desc[i:], ';')
		if end < 0 {
			return Type{}, i, fmt.Errorf("unterminated object type in %q", desc)
		}
		return Type{SortObject, desc[i : i+end+1]}, i + end + 1, nil
	case '[':
		j := i
		for j < len(desc) && desc[j] == '[' {
			j++
		}
		elem, n, err := parseType(desc, j)
		if err != nil {
			return Type{}, n, err
		}
		if elem.sort == SortVoid {
			return Type{}, n, fmt.Errorf("void array element in %q", desc)
		}
		return Type{SortArray, desc[i:n]}, n, nil
	default:
		return Type{}, i, fmt.Errorf("invalid descriptor character %q in %q", desc[i], desc)
	}
}

// Sort returns the sort of this type.
func (t Type) Sort() Sort { return t.sort }

// Descriptor returns the descriptor string.
func (t Type) Descriptor() string {
	if t.desc == "" {
		return "V"
	}
	return t.desc
}

// InternalName returns the internal name for object types and the
// descriptor for array types.
func (t Type) InternalName() string {
	switch t.sort {
	case SortObject:
		return t.desc[1 : len(t.desc)-1]
	default:
		return t.desc
	}
}

// String returns the descriptor.
func (t Type) String() string { return t.Descriptor() }

// Size returns the number of local/stack slots the type occupies.
func (t Type) Size() int {
	switch t.sort {
	case SortVoid:
		return 0
	case SortLong, SortDouble:
		return 2
	default:
		return 1
	}
}

// IsPrimitive reports whether the type is a primitive (not void).
func (t Type) IsPrimitive() bool {
	return t.sort >= SortBoolean && t.sort <= SortDouble
}

// IsIntFamily reports whether values of this type live on the stack as int.
func (t Type) IsIntFamily() bool {
	return t.sort >= SortBoolean && t.sort <= SortInt
}

// IsReference reports whether the type is an object or array.
func (t Type) IsReference() bool {
	return t.sort == SortObject || t.sort == SortArray
}

// Dimensions returns the array dimension count, zero for non-arrays.
func (t Type) Dimensions() int {
	if t.sort != SortArray {
		return 0
	}
	n := 0
	for n < len(t.desc) && t.desc[n] == '[' {
		n++
	}
	return n
}

// ElementType returns the component type of an array type.
func (t Type) ElementType() Type {
	if t.sort != SortArray {
		return t
	}
	elem, _, err := parseType(t.desc, 1)
	if err != nil {
		return ObjectType
	}
	return elem
}

// MethodType is a parsed method descriptor.
type MethodType struct {
	Args   []Type
	Return Type
	desc   string
}

// ParseMethodType parses a method descriptor such as "(ILjava/lang/String;)V".
func ParseMethodType(desc string) (MethodType, error) {
	if !strings.HasPrefix(desc, "(") {
		return MethodType{}, fmt.Errorf("method descriptor %q must start with '('", desc)
	}
	var args []Type
	i := 1
	for i < len(desc) && desc[i] != ')' {
		t, n, err := parseType(desc, i)
		if err != nil {
			return MethodType{}, err
		}
		if t.sort == SortVoid {
			return MethodType{}, fmt.Errorf("void argument in %q", desc)
		}
		args = append(args, t)
		i = n
	}
	if i >= len(desc) {
		return MethodType{}, fmt.Errorf("unterminated argument list in %q", desc)
	}
	ret, n, err := parseType(desc, i+1)
	if err != nil {
		return MethodType{}, err
	}
	if n != len(desc) {
		return MethodType{}, fmt.Errorf("trailing characters in descriptor %q", desc)
	}
	return MethodType{Args: args, Return: ret, desc: desc}, nil
}

// Descriptor returns the method descriptor string.
func (m MethodType) Descriptor() string { return m.desc }

// ArgumentSlots returns the local slots used by the arguments, excluding any receiver.
func (m MethodType) ArgumentSlots() int {
	n := 0
	for _, a := range m.Args {
		n += a.Size()
	}
	return n
}

// ArgumentCount returns the number of arguments of a method descriptor,
// or -1 if the descriptor is malformed.
func ArgumentCount(desc string) int {
	mt, err := ParseMethodType(desc)
	if err != nil {
		return -1
	}
	return len(mt.Args)
}

// ReturnType returns the return type of a method descriptor, void if malformed.
func ReturnType(desc string) Type {
	mt, err := ParseMethodType(desc)
	if err != nil {
		return VoidType
	}
	return mt.Return
}

// PrimitiveArrayType returns the array type created by OpNewarray for a type code.
func PrimitiveArrayType(code int) (Type, bool) {
	switch code {
	case TBoolean:
		return ArrayTypeOf(BooleanType), true
	case TChar:
		return ArrayTypeOf(CharType), true
	case TFloat:
		return ArrayTypeOf(FloatType), true
	case TDouble:
		return ArrayTypeOf(DoubleType), true
	case TByte:
		return ArrayTypeOf(ByteType), true
	case TShort:
		return ArrayTypeOf(ShortType), true
	case TInt:
		return ArrayTypeOf(IntType), true
	case TLong:
		return ArrayTypeOf(LongType), true
	}
	return Type{}, false
}

// primitiveArrayNames maps OpNewarray type codes to assembler keywords.
var primitiveArrayNames = map[int]string{
	TBoolean: "boolean",
	TChar:    "char",
	TFloat:   "float",
	TDouble:  "double",
	TByte:    "byte",
	TShort:   "short",
	TInt:     "int",
	TLong:    "long",
}
