// Package instance models a small allow-list of library types with real
// backing objects so that code building strings, boxing numbers, filling
// lists or drawing from a seeded generator can be evaluated exactly.
//
// A Factory holds three registries built once from declarative tables:
// mappers that produce a backing object for a constructor or static
// factory, handlers that run an instance method against a backing object,
// and the set of types that can be allocated. Faults raised while mapping
// or invoking are reported as errors so the caller can fall back.
package instance

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chazu/bceval/pkg/interp"
	"github.com/chazu/bceval/pkg/value"
)

var (
	ErrNoMapper        = errors.New("no mapper registered")
	ErrNoHandler       = errors.New("no handler registered")
	ErrUnknownArg      = errors.New("argument is not known")
	ErrBadReceiver     = errors.New("receiver has no compatible backing")
	ErrHostFault       = errors.New("host fault")
	ErrIllegalArgument = errors.New("illegal argument")
)

// Mapper builds the backing object for a constructor or static factory call.
type Mapper func(a *Args) value.Backing

// Handler runs an instance method. host is the receiver, whose backing the
// handler may mutate. A nil result is expected for void methods.
type Handler func(host *value.Instanced, a *Args) value.Value

// Factory resolves mappers and handlers by exact owner, name and descriptor.
// It is immutable after construction and safe for concurrent use.
type Factory struct {
	mappers   map[string]Mapper
	handlers  map[string]Handler
	supported map[string]bool
}

// New builds a factory from the built-in tables.
func New() *Factory {
	f := &Factory{
		mappers:   make(map[string]Mapper),
		handlers:  make(map[string]Handler),
		supported: make(map[string]bool),
	}
	for key, m := range constructors {
		owner, _, _ := strings.Cut(key, ".")
		f.supported[owner] = true
		f.mappers[key] = m
	}
	for key, m := range staticFactories {
		f.mappers[key] = m
	}
	for key, h := range builderHandlers {
		f.handlers[interp.Key(builderType.InternalName(), key.name, key.desc)] = h
	}
	for key, h := range randomHandlers {
		f.handlers[interp.Key(randomType.InternalName(), key.name, key.desc)] = h
	}
	// List calls reach the factory through either the interface or the
	// concrete owner.
	for _, owner := range []string{"java/util/List", "java/util/ArrayList"} {
		for key, h := range listHandlers {
			f.handlers[interp.Key(owner, key.name, key.desc)] = h
		}
	}
	for _, box := range boxes {
		for key, h := range boxHandlers(box) {
			f.handlers[interp.Key(box.owner, key.name, key.desc)] = h
		}
	}
	return f
}

var (
	defaultOnce    sync.Once
	defaultFactory *Factory
)

// Default returns the shared factory.
func Default() *Factory {
	defaultOnce.Do(func() { defaultFactory = New() })
	return defaultFactory
}

// Mapper returns the mapper for a constructor (name "<init>") or static
// factory.
func (f *Factory) Mapper(owner, name, desc string) (Mapper, bool) {
	m, ok := f.mappers[interp.Key(owner, name, desc)]
	return m, ok
}

// Handler returns the handler for an instance method.
func (f *Factory) Handler(owner, name, desc string) (Handler, bool) {
	h, ok := f.handlers[interp.Key(owner, name, desc)]
	return h, ok
}

// IsSupportedType reports whether instances of the named type can be
// allocated and constructed.
func (f *Factory) IsSupportedType(name string) bool { return f.supported[name] }

// Map runs the mapper for owner.name+desc on args.
func (f *Factory) Map(owner, name, desc string, args []value.Value) (b value.Backing, err error) {
	m, ok := f.Mapper(owner, name, desc)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoMapper, interp.Key(owner, name, desc))
	}
	defer recoverFault(&err)

	a := &Args{vals: value.UnmapAll(args)}
	b = m(a)
	if a.err != nil {
		return nil, a.err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %s produced no instance", ErrHostFault, interp.Key(owner, name, desc))
	}
	return b, nil
}

// Invoke runs the handler for owner.name+desc against a backed receiver.
func (f *Factory) Invoke(owner, name, desc string, host *value.Instanced, args []value.Value) (v value.Value, err error) {
	h, ok := f.Handler(owner, name, desc)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, interp.Key(owner, name, desc))
	}
	if _, backed := host.Backing(); !backed {
		return nil, fmt.Errorf("%w: %s is not constructed", ErrBadReceiver, host.Type())
	}
	defer recoverFault(&err)

	a := &Args{vals: value.UnmapAll(args)}
	v = h(host, a)
	if a.err != nil {
		return nil, a.err
	}
	return v, nil
}

func recoverFault(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrHostFault, r)
	}
}

// method adapts a handler over a specific backing type.
func method[T value.Backing](fn func(host *value.Instanced, recv T, a *Args) value.Value) Handler {
	return func(host *value.Instanced, a *Args) value.Value {
		b, _ := host.Backing()
		recv, ok := b.(T)
		if !ok {
			a.Fail(fmt.Errorf("%w: %s", ErrBadReceiver, host.Type()))
			return nil
		}
		return fn(host, recv, a)
	}
}

// sig names a method within a single owner.
type sig struct{ name, desc string }
