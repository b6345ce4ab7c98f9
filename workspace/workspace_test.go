package workspace

import (
	"path/filepath"
	"testing"

	"github.com/chazu/bceval/eval"
	"github.com/chazu/bceval/pkg/bytecode"
	"github.com/chazu/bceval/pkg/value"
)

const sampleYAML = `
classes:
  - name: demo/Calc
    access: public
    fields:
      - name: ANSWER
        desc: I
        access: public static final
        value: "42"
    methods:
      - name: calc
        desc: ()I
        access: public static
        code: |
          iconst_2
          iconst_3
          iconst_4
          imul
          iadd
          ireturn
      - name: scale
        desc: (JI)J
        access: public static
        code: |
          lload 0
          iload 2
          i2l
          lmul
          lstore 3
          lload 3
          lreturn
      - name: answer
        desc: ()I
        access: public static
        code: |
          getstatic demo/Calc.ANSWER I
          ireturn
      - name: todo
        desc: ()I
        access: public abstract
  - name: java/lang/Helper
    internal: true
    methods:
      - name: one
        desc: ()I
        access: public static
        code: |
          iconst_1
          ireturn
`

func loadSample(t *testing.T) *Workspace {
	t.Helper()
	user, internal, err := Parse([]byte(sampleYAML), "sample.yaml")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	w := New()
	if err := w.Add(user...); err != nil {
		t.Fatal(err)
	}
	if err := w.AddInternal(internal...); err != nil {
		t.Fatal(err)
	}
	return w
}

func TestParseYAML(t *testing.T) {
	w := loadSample(t)

	c, ok := w.FindClass("demo/Calc", false)
	if !ok {
		t.Fatal("Expected demo/Calc to be found")
	}
	if c.Super != "java/lang/Object" {
		t.Errorf("Expected the default superclass, got %q", c.Super)
	}

	scale, ok := c.FindMethod("scale", "(JI)J")
	if !ok {
		t.Fatal("Expected scale to be declared")
	}
	if scale.MaxLocals != 5 {
		t.Errorf("Expected 5 computed locals, got %d", scale.MaxLocals)
	}
	if scale.MaxStack != DefaultMaxStack {
		t.Errorf("Expected the default stack size, got %d", scale.MaxStack)
	}

	todo, _ := c.FindMethod("todo", "()I")
	if todo.Instructions != nil {
		t.Error("Expected a method without code to have no instructions")
	}

	f, ok := c.FindField("ANSWER", "I")
	if !ok || f.Value == nil || f.Value.Int != 42 {
		t.Errorf("Expected ANSWER = 42, got %+v", f)
	}
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing name", "classes:\n  - access: public\n"},
		{"bad access", "classes:\n  - name: a/B\n    access: sometimes\n"},
		{"bad descriptor", "classes:\n  - name: a/B\n    methods:\n      - name: f\n        desc: (Q)V\n"},
		{"bad code", "classes:\n  - name: a/B\n    methods:\n      - name: f\n        desc: ()I\n        code: frobnicate\n"},
		{"duplicate method", "classes:\n  - name: a/B\n    methods:\n      - {name: f, desc: ()I}\n      - {name: f, desc: ()I}\n"},
		{"not yaml", "classes: [\n"},
	}
	for _, tt := range tests {
		if _, _, err := Parse([]byte(tt.src), "bad.yaml"); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}

func TestInternalClassesAreHidden(t *testing.T) {
	w := loadSample(t)
	if _, ok := w.FindClass("java/lang/Helper", false); ok {
		t.Error("Expected internal classes to be hidden")
	}
	if _, ok := w.FindClass("java/lang/Helper", true); !ok {
		t.Error("Expected internal classes to be found when included")
	}
	if w.Len() != 2 {
		t.Errorf("Expected 2 classes, got %d", w.Len())
	}
	names := w.Names()
	if names[0] != "demo/Calc" || names[1] != "java/lang/Helper" {
		t.Errorf("Expected sorted names, got %v", names)
	}
}

func TestRevisionAndHash(t *testing.T) {
	w := loadSample(t)
	rev := w.Revision()

	h1, ok := w.ContentHash("demo/Calc")
	if !ok || len(h1) != 64 {
		t.Fatalf("Expected a hex SHA-256, got %q", h1)
	}

	c, _ := w.FindClass("demo/Calc", false)
	again, err := ContentHash(c)
	if err != nil {
		t.Fatal(err)
	}
	if again != h1 {
		t.Errorf("Expected a stable hash, got %s and %s", h1, again)
	}

	edited := *c
	edited.Access |= bytecode.AccFinal
	if err := w.Add(&edited); err != nil {
		t.Fatal(err)
	}
	if w.Revision() == rev {
		t.Error("Expected the revision to change")
	}
	if h2, _ := w.ContentHash("demo/Calc"); h2 == h1 {
		t.Error("Expected the hash to change with the class")
	}

	if !w.Remove("demo/Calc") || w.Remove("demo/Calc") {
		t.Error("Expected exactly one successful removal")
	}
	if _, ok := w.FindClass("demo/Calc", true); ok {
		t.Error("Expected a removed class to be gone")
	}
}

func TestEvaluateLoadedClasses(t *testing.T) {
	dir := t.TempDir()
	w := loadSample(t)
	classes := []*bytecode.Class{}
	for _, name := range w.Names() {
		c, _ := w.FindClass(name, true)
		classes = append(classes, c)
	}
	path := filepath.Join(dir, "sample.cbor")
	if err := WriteBundleFile(path, classes); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadBundleFile(path)
	if err != nil {
		t.Fatal(err)
	}
	w2 := New()
	if err := w2.Add(loaded...); err != nil {
		t.Fatal(err)
	}

	ev := eval.New(w2, eval.Options{Feasibility: eval.NewFeasibilityCache()})

	y, ok := ev.Evaluate("demo/Calc", "calc", "()I", nil, nil).(*eval.Yield)
	if !ok || y.Value.(*value.Int).Value() != 14 {
		t.Errorf("Expected 14, got %v", y)
	}

	res := ev.Evaluate("demo/Calc", "scale", "(JI)J", nil, []value.Value{value.NewLong(6), value.NewInt(7)})
	y, ok = res.(*eval.Yield)
	if !ok || y.Value.(*value.Long).Value() != 42 {
		t.Errorf("Expected 42L, got %s", res)
	}

	y, ok = ev.Evaluate("demo/Calc", "answer", "()I", nil, nil).(*eval.Yield)
	if !ok || y.Value.(*value.Int).Value() != 42 {
		t.Errorf("Expected the constant 42, got %v", y)
	}

	if ev.CanEvaluate("demo/Calc", "todo", "()I") {
		t.Error("Expected a method without code to be infeasible")
	}
}
