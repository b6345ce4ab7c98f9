package interp

import "github.com/chazu/bceval/pkg/value"

// Lookup tables model well-known library calls on plain values. A function
// returns false when it cannot produce a known result, for example because
// an argument is unknown or the call would throw; the interpreter then
// falls back to the unknown value of the declared return type.

// StaticFunc computes a static call from its arguments.
type StaticFunc func(args []value.Value) (value.Value, bool)

// VirtualFunc computes an instance call from its receiver and arguments.
type VirtualFunc func(recv value.Value, args []value.Value) (value.Value, bool)

// InvokeStaticLookup resolves static calls by exact owner, name and descriptor.
type InvokeStaticLookup interface {
	HasStatic(owner, name, desc string) bool
	InvokeStatic(owner, name, desc string, args []value.Value) (value.Value, bool)
}

// InvokeVirtualLookup resolves instance calls by exact owner, name and descriptor.
type InvokeVirtualLookup interface {
	HasVirtual(owner, name, desc string) bool
	InvokeVirtual(owner, name, desc string, recv value.Value, args []value.Value) (value.Value, bool)
}

// GetStaticLookup resolves reads of well-known constant fields.
type GetStaticLookup interface {
	GetStatic(owner, name, desc string) (value.Value, bool)
}

// Key joins a member reference into a lookup key: owner.name+desc.
func Key(owner, name, desc string) string { return owner + "." + name + desc }

// StaticTable is a declarative InvokeStaticLookup.
type StaticTable map[string]StaticFunc

// HasStatic implements InvokeStaticLookup.
func (t StaticTable) HasStatic(owner, name, desc string) bool {
	_, ok := t[Key(owner, name, desc)]
	return ok
}

// InvokeStatic implements InvokeStaticLookup.
func (t StaticTable) InvokeStatic(owner, name, desc string, args []value.Value) (value.Value, bool) {
	fn, ok := t[Key(owner, name, desc)]
	if !ok {
		return nil, false
	}
	return fn(args)
}

// VirtualTable is a declarative InvokeVirtualLookup.
type VirtualTable map[string]VirtualFunc

// HasVirtual implements InvokeVirtualLookup.
func (t VirtualTable) HasVirtual(owner, name, desc string) bool {
	_, ok := t[Key(owner, name, desc)]
	return ok
}

// InvokeVirtual implements InvokeVirtualLookup.
func (t VirtualTable) InvokeVirtual(owner, name, desc string, recv value.Value, args []value.Value) (value.Value, bool) {
	fn, ok := t[Key(owner, name, desc)]
	if !ok {
		return nil, false
	}
	return fn(recv, args)
}

// FieldTable is a declarative GetStaticLookup.
type FieldTable map[string]value.Value

// GetStatic implements GetStaticLookup.
func (t FieldTable) GetStatic(owner, name, desc string) (value.Value, bool) {
	v, ok := t[Key(owner, name, desc)]
	return v, ok
}
