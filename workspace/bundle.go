package workspace

import (
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/bceval/pkg/bytecode"
)

// BundleVersion is the current bundle format version.
const BundleVersion = 1

// encMode encodes canonically, so bundles and content hashes are
// deterministic.
var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("workspace: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

// Bundle is a serialized set of classes.
type Bundle struct {
	Version uint8      `cbor:"1,keyasint"`
	Classes []classDTO `cbor:"2,keyasint"`
}

type classDTO struct {
	Name       string      `cbor:"1,keyasint"`
	Super      string      `cbor:"2,keyasint,omitempty"`
	Interfaces []string    `cbor:"3,keyasint,omitempty"`
	Access     uint16      `cbor:"4,keyasint"`
	Fields     []fieldDTO  `cbor:"5,keyasint,omitempty"`
	Methods    []methodDTO `cbor:"6,keyasint,omitempty"`
}

type fieldDTO struct {
	Name   string             `cbor:"1,keyasint"`
	Desc   string             `cbor:"2,keyasint"`
	Access uint16             `cbor:"3,keyasint"`
	Value  *bytecode.Constant `cbor:"4,keyasint,omitempty"`
}

type methodDTO struct {
	Name      string          `cbor:"1,keyasint"`
	Desc      string          `cbor:"2,keyasint"`
	Access    uint16          `cbor:"3,keyasint"`
	MaxLocals int             `cbor:"4,keyasint"`
	MaxStack  int             `cbor:"5,keyasint"`
	Code      []bytecode.Insn `cbor:"6,keyasint,omitempty"`
	Abstract  bool            `cbor:"7,keyasint,omitempty"` // no code, as opposed to empty code
}

func toClassDTO(c *bytecode.Class) classDTO {
	d := classDTO{
		Name:       c.Name,
		Super:      c.Super,
		Interfaces: c.Interfaces,
		Access:     uint16(c.Access),
	}
	for _, f := range c.Fields {
		d.Fields = append(d.Fields, fieldDTO{Name: f.Name, Desc: f.Desc, Access: uint16(f.Access), Value: f.Value})
	}
	for _, m := range c.Methods {
		md := methodDTO{
			Name:      m.Name,
			Desc:      m.Desc,
			Access:    uint16(m.Access),
			MaxLocals: m.MaxLocals,
			MaxStack:  m.MaxStack,
		}
		if m.Instructions == nil {
			md.Abstract = true
		} else {
			md.Code = m.Instructions.Insns()
		}
		d.Methods = append(d.Methods, md)
	}
	return d
}

func (d classDTO) toClass() (*bytecode.Class, error) {
	c := &bytecode.Class{
		Name:       d.Name,
		Super:      d.Super,
		Interfaces: d.Interfaces,
		Access:     bytecode.AccessFlags(d.Access),
	}
	for _, f := range d.Fields {
		c.Fields = append(c.Fields, &bytecode.Field{Name: f.Name, Desc: f.Desc, Access: bytecode.AccessFlags(f.Access), Value: f.Value})
	}
	for _, md := range d.Methods {
		m := &bytecode.Method{
			Name:      md.Name,
			Desc:      md.Desc,
			Access:    bytecode.AccessFlags(md.Access),
			MaxLocals: md.MaxLocals,
			MaxStack:  md.MaxStack,
		}
		if !md.Abstract {
			insns, err := bytecode.NewInsnList(md.Code...)
			if err != nil {
				return nil, fmt.Errorf("%s.%s%s: %w", d.Name, md.Name, md.Desc, err)
			}
			m.Instructions = insns
		}
		c.Methods = append(c.Methods, m)
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// MarshalBundle serializes classes to CBOR bytes.
func MarshalBundle(classes []*bytecode.Class) ([]byte, error) {
	b := Bundle{Version: BundleVersion}
	for _, c := range classes {
		b.Classes = append(b.Classes, toClassDTO(c))
	}
	return encMode.Marshal(&b)
}

// UnmarshalBundle deserializes classes from CBOR bytes.
func UnmarshalBundle(data []byte) ([]*bytecode.Class, error) {
	var b Bundle
	if err := cbor.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("workspace: unmarshal bundle: %w", err)
	}
	if b.Version != BundleVersion {
		return nil, fmt.Errorf("workspace: unsupported bundle version %d", b.Version)
	}
	classes := make([]*bytecode.Class, 0, len(b.Classes))
	for _, d := range b.Classes {
		c, err := d.toClass()
		if err != nil {
			return nil, fmt.Errorf("workspace: bundle: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, nil
}

// WriteBundle writes classes to w as a CBOR bundle.
func WriteBundle(w io.Writer, classes []*bytecode.Class) error {
	data, err := MarshalBundle(classes)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteBundleFile writes classes to a bundle file at path.
func WriteBundleFile(path string, classes []*bytecode.Class) error {
	data, err := MarshalBundle(classes)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadBundleFile reads classes from a bundle file.
func LoadBundleFile(path string) ([]*bytecode.Class, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bundle %s: %w", path, err)
	}
	return UnmarshalBundle(data)
}
