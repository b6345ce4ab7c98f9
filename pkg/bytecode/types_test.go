package bytecode

import "testing"

func TestParseType(t *testing.T) {
	tests := []struct {
		desc string
		sort Sort
		size int
	}{
		{"I", SortInt, 1},
		{"J", SortLong, 2},
		{"D", SortDouble, 2},
		{"Z", SortBoolean, 1},
		{"Ljava/lang/String;", SortObject, 1},
		{"[I", SortArray, 1},
		{"[[Ljava/lang/Object;", SortArray, 1},
	}

	for _, tt := range tests {
		typ, err := ParseType(tt.desc)
		if err != nil {
			t.Errorf("ParseType(%q) failed: %v", tt.desc, err)
			continue
		}
		if typ.Sort() != tt.sort {
			t.Errorf("ParseType(%q).Sort() = %s, want %s", tt.desc, typ.Sort(), tt.sort)
		}
		if typ.Size() != tt.size {
			t.Errorf("ParseType(%q).Size() = %d, want %d", tt.desc, typ.Size(), tt.size)
		}
		if typ.Descriptor() != tt.desc {
			t.Errorf("Expected descriptor %q, got %q", tt.desc, typ.Descriptor())
		}
	}
}

func TestParseTypeErrors(t *testing.T) {
	for _, desc := range []string{"", "Q", "Ljava/lang/String", "[V", "II"} {
		if _, err := ParseType(desc); err == nil {
			t.Errorf("Expected error for %q", desc)
		}
	}
}

func TestTypeQueries(t *testing.T) {
	if StringType.InternalName() != "java/lang/String" {
		t.Errorf("Expected java/lang/String, got %s", StringType.InternalName())
	}
	arr := MustParseType("[[I")
	if arr.Dimensions() != 2 {
		t.Errorf("Expected 2 dimensions, got %d", arr.Dimensions())
	}
	if arr.ElementType().Descriptor() != "[I" {
		t.Errorf("Expected element [I, got %s", arr.ElementType())
	}
	if ObjectTypeOf("[I") != MustParseType("[I") {
		t.Error("Expected array internal names to pass through ObjectTypeOf")
	}
	if !CharType.IsIntFamily() || LongType.IsIntFamily() {
		t.Error("int family mismatch")
	}
	if !arr.IsReference() || IntType.IsReference() {
		t.Error("reference mismatch")
	}
	var zero Type
	if zero.Sort() != SortVoid || zero.Descriptor() != "V" {
		t.Error("Expected zero Type to be void")
	}
}

func TestParseMethodType(t *testing.T) {
	mt, err := ParseMethodType("(IJLjava/lang/String;[D)V")
	if err != nil {
		t.Fatalf("ParseMethodType failed: %v", err)
	}
	if len(mt.Args) != 4 {
		t.Fatalf("Expected 4 args, got %d", len(mt.Args))
	}
	if mt.ArgumentSlots() != 5 {
		t.Errorf("Expected 5 argument slots, got %d", mt.ArgumentSlots())
	}
	if mt.Return.Sort() != SortVoid {
		t.Errorf("Expected void return, got %s", mt.Return)
	}
	if ArgumentCount("()I") != 0 {
		t.Error("Expected no arguments")
	}
	if ArgumentCount("bogus") != -1 {
		t.Error("Expected -1 for malformed descriptor")
	}
	if ReturnType("(I)J") != LongType {
		t.Error("Expected long return type")
	}
}

func TestPrimitiveArrayType(t *testing.T) {
	typ, ok := PrimitiveArrayType(TChar)
	if !ok || typ.Descriptor() != "[C" {
		t.Errorf("Expected [C, got %s", typ)
	}
	if _, ok := PrimitiveArrayType(99); ok {
		t.Error("Expected unknown array type code to fail")
	}
}

func TestMethodArgumentLocals(t *testing.T) {
	m := &Method{Name: "f", Desc: "(JI)I"}
	if m.ArgumentLocals() != 4 {
		t.Errorf("Expected 4 locals for instance method, got %d", m.ArgumentLocals())
	}
	m.Access = AccStatic
	if m.ArgumentLocals() != 3 {
		t.Errorf("Expected 3 locals for static method, got %d", m.ArgumentLocals())
	}
}

func TestAccessFlags(t *testing.T) {
	a, err := ParseAccess("public static final")
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if a != AccPublic|AccStatic|AccFinal {
		t.Errorf("Unexpected flags 0x%04X", uint16(a))
	}
	if a.String() != "public static final" {
		t.Errorf("Expected %q, got %q", "public static final", a.String())
	}
	if _, err := ParseAccess("sneaky"); err == nil {
		t.Error("Expected unknown modifier error")
	}
}
