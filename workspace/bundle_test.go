package workspace

import (
	"bytes"
	"testing"

	"github.com/chazu/bceval/pkg/bytecode"
)

func TestBundleRoundTripPreservesHash(t *testing.T) {
	w := loadSample(t)
	c, _ := w.FindClass("demo/Calc", false)
	want, _ := w.ContentHash("demo/Calc")

	var buf bytes.Buffer
	if err := WriteBundle(&buf, []*bytecode.Class{c}); err != nil {
		t.Fatalf("WriteBundle failed: %v", err)
	}
	classes, err := UnmarshalBundle(buf.Bytes())
	if err != nil {
		t.Fatalf("UnmarshalBundle failed: %v", err)
	}
	if len(classes) != 1 {
		t.Fatalf("Expected 1 class, got %d", len(classes))
	}
	got, err := ContentHash(classes[0])
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Expected hash %s after round trip, got %s", want, got)
	}

	m, ok := classes[0].FindMethod("calc", "()I")
	if !ok || m.Instructions.CountRealInsns() != 6 {
		t.Errorf("Expected calc with 6 instructions, got %+v", m)
	}
	if todo, _ := classes[0].FindMethod("todo", "()I"); todo.Instructions != nil {
		t.Error("Expected the abstract method to stay without code")
	}
}

func TestBundleIsDeterministic(t *testing.T) {
	w := loadSample(t)
	c, _ := w.FindClass("demo/Calc", false)
	a, err := MarshalBundle([]*bytecode.Class{c})
	if err != nil {
		t.Fatal(err)
	}
	b, err := MarshalBundle([]*bytecode.Class{c})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("Expected identical encodings")
	}
}

func TestBundleRejectsUnknownVersion(t *testing.T) {
	data, err := encMode.Marshal(&Bundle{Version: 99})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := UnmarshalBundle(data); err == nil {
		t.Error("Expected an error for an unknown version")
	}
	if _, err := UnmarshalBundle([]byte{0xff, 0x00}); err == nil {
		t.Error("Expected an error for malformed data")
	}
}
