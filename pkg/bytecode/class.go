package bytecode

import (
	"fmt"
	"strings"
)

// AccessFlags holds class and member access modifiers as encoded in class files.
type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSynchronized AccessFlags = 0x0020
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
)

var accessNames = []struct {
	flag AccessFlags
	name string
}{
	{AccPublic, "public"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccFinal, "final"},
	{AccSynchronized, "synchronized"},
	{AccNative, "native"},
	{AccInterface, "interface"},
	{AccAbstract, "abstract"},
}

// IsStatic reports whether the static modifier is set.
func (a AccessFlags) IsStatic() bool { return a&AccStatic != 0 }

// IsAbstract reports whether the member has no code.
func (a AccessFlags) IsAbstract() bool { return a&(AccAbstract|AccNative) != 0 }

// String returns the modifiers as space-separated keywords.
func (a AccessFlags) String() string {
	var parts []string
	for _, n := range accessNames {
		if a&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " ")
}

// ParseAccess parses space-separated modifier keywords.
func ParseAccess(s string) (AccessFlags, error) {
	var a AccessFlags
	for _, word := range strings.Fields(s) {
		found := false
		for _, n := range accessNames {
			if n.name == word {
				a |= n.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown access modifier %q", word)
		}
	}
	return a, nil
}

// Method is a declared method with its code.
type Method struct {
	Name         string
	Desc         string
	Access       AccessFlags
	MaxLocals    int
	MaxStack     int
	Instructions *InsnList
}

// Key returns name+descriptor, the identity of a method within its class.
func (m *Method) Key() string { return m.Name + m.Desc }

// IsStatic reports whether the method has no receiver.
func (m *Method) IsStatic() bool { return m.Access.IsStatic() }

// Type returns the parsed descriptor.
func (m *Method) Type() (MethodType, error) { return ParseMethodType(m.Desc) }

// ArgumentLocals returns the number of local slots the receiver and
// arguments occupy on entry.
func (m *Method) ArgumentLocals() int {
	mt, err := ParseMethodType(m.Desc)
	if err != nil {
		return 0
	}
	n := mt.ArgumentSlots()
	if !m.IsStatic() {
		n++
	}
	return n
}

// Field is a declared field. Value, when set, is the constant initial value
// of a static final field.
type Field struct {
	Name   string
	Desc   string
	Access AccessFlags
	Value  *Constant
}

// Class is a declared class with its members.
type Class struct {
	Name       string
	Super      string
	Interfaces []string
	Access     AccessFlags
	Fields     []*Field
	Methods    []*Method
}

// FindMethod returns the method declared with the given name and descriptor.
func (c *Class) FindMethod(name, desc string) (*Method, bool) {
	for _, m := range c.Methods {
		if m.Name == name && m.Desc == desc {
			return m, true
		}
	}
	return nil, false
}

// FindField returns the field declared with the given name and descriptor.
func (c *Class) FindField(name, desc string) (*Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name && f.Desc == desc {
			return f, true
		}
	}
	return nil, false
}
