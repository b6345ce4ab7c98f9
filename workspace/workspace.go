// Package workspace is the class lookup service the evaluator resolves
// calls against. Classes come from YAML definition files, where method
// bodies are written in the assembler's text form, or from CBOR bundles.
// Each class is fingerprinted by the SHA-256 of its canonical encoding so
// feasibility verdicts can be persisted per class content.
package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/chazu/bceval/pkg/bytecode"
)

var log = commonlog.GetLogger("bceval.workspace")

type entry struct {
	class    *bytecode.Class
	hash     string
	internal bool
}

// Workspace is an in-memory set of classes. It is safe for concurrent use.
// Every change bumps the revision, which versions cached verdicts.
type Workspace struct {
	mu       sync.RWMutex
	classes  map[string]*entry
	revision uint64
}

// New returns an empty workspace.
func New() *Workspace {
	return &Workspace{classes: make(map[string]*entry)}
}

// Add registers user classes, replacing any with the same name.
func (w *Workspace) Add(classes ...*bytecode.Class) error {
	return w.add(false, classes)
}

// AddInternal registers classes belonging to the runtime itself. They are
// only found when lookups include internal classes.
func (w *Workspace) AddInternal(classes ...*bytecode.Class) error {
	return w.add(true, classes)
}

func (w *Workspace) add(internal bool, classes []*bytecode.Class) error {
	entries := make([]*entry, 0, len(classes))
	for _, c := range classes {
		if c == nil || c.Name == "" {
			return fmt.Errorf("workspace: class without a name")
		}
		h, err := ContentHash(c)
		if err != nil {
			return fmt.Errorf("workspace: hashing %s: %w", c.Name, err)
		}
		entries = append(entries, &entry{class: c, hash: h, internal: internal})
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range entries {
		w.classes[e.class.Name] = e
		log.Debugf("added %s (%s)", e.class.Name, e.hash[:12])
	}
	if len(entries) > 0 {
		w.revision++
	}
	return nil
}

// Remove drops a class, reporting whether it was present.
func (w *Workspace) Remove(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.classes[name]; !ok {
		return false
	}
	delete(w.classes, name)
	w.revision++
	return true
}

// FindClass implements eval.ClassLookup.
func (w *Workspace) FindClass(name string, includeInternal bool) (*bytecode.Class, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.classes[name]
	if !ok || (e.internal && !includeInternal) {
		return nil, false
	}
	return e.class, true
}

// Revision implements eval.Revisioned.
func (w *Workspace) Revision() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.revision
}

// ContentHash implements eval.ContentHasher.
func (w *Workspace) ContentHash(name string) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.classes[name]
	if !ok {
		return "", false
	}
	return e.hash, true
}

// Names returns the names of all classes, sorted.
func (w *Workspace) Names() []string {
	w.mu.RLock()
	names := make([]string, 0, len(w.classes))
	for name := range w.classes {
		names = append(names, name)
	}
	w.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len returns the number of classes.
func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.classes)
}

// ContentHash returns the hex SHA-256 of a class's canonical CBOR encoding.
// Classes with equal members hash equally regardless of how they were loaded.
func ContentHash(c *bytecode.Class) (string, error) {
	data, err := encMode.Marshal(toClassDTO(c))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
