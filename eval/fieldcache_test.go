package eval

import (
	"fmt"
	"sync"
	"testing"

	"github.com/chazu/bceval/pkg/bytecode"
	"github.com/chazu/bceval/pkg/value"
)

func TestFieldCacheUnwrittenVersusNull(t *testing.T) {
	m := NewFieldCacheManager()
	c := m.Static("demo/Holder")

	if _, ok := c.Get("ref", "Ljava/lang/Object;"); ok {
		t.Error("Expected an unwritten field to miss")
	}
	c.Set("ref", "Ljava/lang/Object;", value.Null)
	v, ok := c.Get("ref", "Ljava/lang/Object;")
	if !ok || v != value.Null {
		t.Errorf("Expected the null sentinel, got %v (found %v)", v, ok)
	}
	if _, ok := c.Get("ref", "Ljava/lang/String;"); ok {
		t.Error("Expected fields to be keyed by descriptor too")
	}
}

func TestFieldCacheInstanceIdentity(t *testing.T) {
	m := NewFieldCacheManager()
	a := value.NewInstanced(bytecode.StringBuilderType)
	b := value.NewInstanced(bytecode.StringBuilderType)

	m.Instance(a).Set("n", "I", value.NewInt(1))
	if _, ok := m.Instance(b).Get("n", "I"); ok {
		t.Error("Expected distinct receivers to have distinct caches")
	}
	if m.Instance(a) != m.Instance(a) {
		t.Error("Expected the same receiver to reuse its cache")
	}
	if m.Static("demo/A") != m.Static("demo/A") {
		t.Error("Expected the same owner to reuse its cache")
	}
}

func TestFieldCacheReset(t *testing.T) {
	m := NewFieldCacheManager()
	recv := value.NewObject(bytecode.ObjectType, value.NotNull)
	m.Static("demo/A").Set("x", "I", value.NewInt(3))
	m.Instance(recv).Set("y", "I", value.NewInt(4))

	m.Reset()

	if _, ok := m.Static("demo/A").Get("x", "I"); ok {
		t.Error("Expected static fields to be cleared")
	}
	if _, ok := m.Instance(recv).Get("y", "I"); ok {
		t.Error("Expected instance fields to be cleared")
	}
}

func TestFieldCacheReplace(t *testing.T) {
	m := NewFieldCacheManager()
	old := value.NewArray(bytecode.MustParseType("[I"), []value.Value{value.NewInt(1)})
	repl := old.With(0, value.NewInt(2))
	recv := value.NewInstanced(bytecode.StringBuilderType)

	m.Static("demo/A").Set("arr", "[I", old)
	m.Instance(recv).Set("arr", "[I", old)
	m.Static("demo/A").Set("n", "I", value.NewInt(3))
	m.Replace(old, repl)

	if v, _ := m.Static("demo/A").Get("arr", "[I"); v != value.Value(repl) {
		t.Errorf("Expected the static field to hold the replacement, got %s", v)
	}
	if v, _ := m.Instance(recv).Get("arr", "[I"); v != value.Value(repl) {
		t.Errorf("Expected the instance field to hold the replacement, got %s", v)
	}
	if v, _ := m.Static("demo/A").Get("n", "I"); v.(*value.Int).Value() != 3 {
		t.Errorf("Expected other fields untouched, got %s", v)
	}
}

func TestFieldCacheConcurrentPopulation(t *testing.T) {
	m := NewFieldCacheManager()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Static(fmt.Sprintf("demo/C%d", j%4)).Set(fmt.Sprintf("f%d", i), "I", value.NewInt(int32(j)))
			}
		}(i)
	}
	wg.Wait()

	for j := 0; j < 4; j++ {
		if n := m.Static(fmt.Sprintf("demo/C%d", j)).Len(); n != 8 {
			t.Errorf("Expected 8 fields on demo/C%d, got %d", j, n)
		}
	}
}

func TestFeasibilityCache(t *testing.T) {
	c := NewFeasibilityCache()
	key := VerdictKey{Owner: "demo/A", Name: "f", Desc: "()I"}
	if _, ok := c.Get(key); ok {
		t.Fatal("Expected an empty cache")
	}
	c.Put(key, true)
	if v, ok := c.Get(key); !ok || !v {
		t.Errorf("Expected a cached true verdict, got %v (found %v)", v, ok)
	}
	other := key
	other.Revision = 1
	if _, ok := c.Get(other); ok {
		t.Error("Expected verdicts to be keyed by revision")
	}
	c.Reset()
	if c.Len() != 0 {
		t.Errorf("Expected 0 verdicts after reset, got %d", c.Len())
	}
}

func TestBudget(t *testing.T) {
	b := NewBudget(2)
	if !b.take() || !b.take() {
		t.Fatal("Expected two steps to be available")
	}
	if b.take() {
		t.Error("Expected the budget to be exhausted")
	}
	if b.Spent() != 2 || b.Remaining() != 0 {
		t.Errorf("Expected 2 spent and 0 remaining, got %d and %d", b.Spent(), b.Remaining())
	}
	b.Reset()
	if b.Remaining() != 2 {
		t.Errorf("Expected a full budget after reset, got %d", b.Remaining())
	}
	if NewBudget(0).Limit() != DefaultMaxSteps {
		t.Errorf("Expected the default limit, got %d", NewBudget(0).Limit())
	}

	b.SetMaxDepth(2)
	if !b.enter() || !b.enter() {
		t.Fatal("Expected two nested levels to be available")
	}
	if b.enter() {
		t.Error("Expected the nesting limit to stop a third level")
	}
	b.leave()
	b.leave()
	if b.Depth() != 0 {
		t.Errorf("Expected depth 0, got %d", b.Depth())
	}
	b.SetMaxDepth(0)
	if b.MaxDepth() != DefaultMaxDepth {
		t.Errorf("Expected the default nesting limit, got %d", b.MaxDepth())
	}
}
