package workspace

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chazu/bceval/pkg/bytecode"
)

// DefaultMaxStack is used for methods that do not declare a stack size.
const DefaultMaxStack = 64

// File is the YAML class definition format:
//
//	classes:
//	  - name: demo/Calc
//	    access: public
//	    fields:
//	      - name: ANSWER
//	        desc: I
//	        access: public static final
//	        value: "42"
//	    methods:
//	      - name: calc
//	        desc: ()I
//	        access: public static
//	        code: |
//	          iconst_2
//	          iconst_3
//	          iadd
//	          ireturn
//
// Field values use the ldc literal syntax. Methods without code are
// abstract. Omitted stack and local sizes are computed.
type File struct {
	Classes []ClassDef `yaml:"classes"`
}

// ClassDef defines one class.
type ClassDef struct {
	Name       string      `yaml:"name"`
	Super      string      `yaml:"super,omitempty"`
	Interfaces []string    `yaml:"interfaces,omitempty"`
	Access     string      `yaml:"access,omitempty"`
	Internal   bool        `yaml:"internal,omitempty"`
	Fields     []FieldDef  `yaml:"fields,omitempty"`
	Methods    []MethodDef `yaml:"methods,omitempty"`
}

// FieldDef defines one field.
type FieldDef struct {
	Name   string `yaml:"name"`
	Desc   string `yaml:"desc"`
	Access string `yaml:"access,omitempty"`
	Value  string `yaml:"value,omitempty"`
}

// MethodDef defines one method.
type MethodDef struct {
	Name      string `yaml:"name"`
	Desc      string `yaml:"desc"`
	Access    string `yaml:"access,omitempty"`
	MaxLocals int    `yaml:"max_locals,omitempty"`
	MaxStack  int    `yaml:"max_stack,omitempty"`
	Code      string `yaml:"code,omitempty"`
}

// LoadFile reads a YAML class definition file.
func LoadFile(path string) (user, internal []*bytecode.Class, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading classes %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses YAML class definitions, splitting user from internal
// classes. The path argument is used only for error messages.
func Parse(data []byte, path string) (user, internal []*bytecode.Class, err error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for i, def := range f.Classes {
		c, err := def.build()
		if err != nil {
			return nil, nil, fmt.Errorf("%s: classes[%d]: %w", path, i, err)
		}
		if def.Internal {
			internal = append(internal, c)
		} else {
			user = append(user, c)
		}
	}
	return user, internal, nil
}

// LoadInto loads a YAML file into w.
func LoadInto(w *Workspace, path string) error {
	user, internal, err := LoadFile(path)
	if err != nil {
		return err
	}
	if err := w.Add(user...); err != nil {
		return err
	}
	return w.AddInternal(internal...)
}

func (def ClassDef) build() (*bytecode.Class, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	access, err := bytecode.ParseAccess(def.Access)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", def.Name, err)
	}
	c := &bytecode.Class{
		Name:       def.Name,
		Super:      def.Super,
		Interfaces: def.Interfaces,
		Access:     access,
	}
	if c.Super == "" && c.Name != "java/lang/Object" {
		c.Super = "java/lang/Object"
	}

	for i, fd := range def.Fields {
		f, err := fd.build()
		if err != nil {
			return nil, fmt.Errorf("%s: fields[%d]: %w", def.Name, i, err)
		}
		c.Fields = append(c.Fields, f)
	}
	for i, md := range def.Methods {
		m, err := md.build()
		if err != nil {
			return nil, fmt.Errorf("%s: methods[%d] %s%s: %w", def.Name, i, md.Name, md.Desc, err)
		}
		if _, dup := c.FindMethod(m.Name, m.Desc); dup {
			return nil, fmt.Errorf("%s: duplicate method %s%s", def.Name, m.Name, m.Desc)
		}
		c.Methods = append(c.Methods, m)
	}
	return c, nil
}

func (fd FieldDef) build() (*bytecode.Field, error) {
	if fd.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if _, err := bytecode.ParseType(fd.Desc); err != nil {
		return nil, err
	}
	access, err := bytecode.ParseAccess(fd.Access)
	if err != nil {
		return nil, err
	}
	f := &bytecode.Field{Name: fd.Name, Desc: fd.Desc, Access: access}
	if fd.Value != "" {
		c, err := bytecode.ParseConstant(fd.Value)
		if err != nil {
			return nil, fmt.Errorf("value: %w", err)
		}
		f.Value = &c
	}
	return f, nil
}

func (md MethodDef) build() (*bytecode.Method, error) {
	if md.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if _, err := bytecode.ParseMethodType(md.Desc); err != nil {
		return nil, err
	}
	access, err := bytecode.ParseAccess(md.Access)
	if err != nil {
		return nil, err
	}
	m := &bytecode.Method{
		Name:      md.Name,
		Desc:      md.Desc,
		Access:    access,
		MaxLocals: md.MaxLocals,
		MaxStack:  md.MaxStack,
	}
	if strings.TrimSpace(md.Code) == "" {
		m.Access |= bytecode.AccAbstract
		return m, nil
	}

	insns, err := bytecode.Assemble(md.Code)
	if err != nil {
		return nil, err
	}
	m.Instructions = insns
	if m.MaxStack == 0 {
		m.MaxStack = DefaultMaxStack
	}
	if m.MaxLocals == 0 {
		m.MaxLocals = computeMaxLocals(m)
	}
	return m, nil
}

// computeMaxLocals returns the local slots m needs: its arguments plus
// every slot its code touches.
func computeMaxLocals(m *bytecode.Method) int {
	n := m.ArgumentLocals()
	for _, insn := range m.Instructions.Insns() {
		var width int
		switch insn.Op {
		case bytecode.OpLload, bytecode.OpDload, bytecode.OpLstore, bytecode.OpDstore:
			width = 2
		case bytecode.OpIload, bytecode.OpFload, bytecode.OpAload,
			bytecode.OpIstore, bytecode.OpFstore, bytecode.OpAstore, bytecode.OpIinc:
			width = 1
		default:
			continue
		}
		n = max(n, insn.Var+width)
	}
	return n
}
