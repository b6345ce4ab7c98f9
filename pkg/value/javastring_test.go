package value

import (
	"math"
	"testing"
)

func TestJavaLength(t *testing.T) {
	tests := []struct {
		s    string
		want int
	}{
		{"", 0},
		{"hello", 5},
		{"héllo", 5},
		{"a😀b", 4}, // surrogate pair counts as two units
	}

	for _, tt := range tests {
		if got := JavaLength(tt.s); got != tt.want {
			t.Errorf("JavaLength(%q) = %d, want %d", tt.s, got, tt.want)
		}
	}
}

func TestCharAtAndSubstring(t *testing.T) {
	c, err := CharAt("abc", 1)
	if err != nil || c != 'b' {
		t.Errorf("Expected 'b', got %q (%v)", rune(c), err)
	}
	if _, err := CharAt("abc", 3); err == nil {
		t.Error("Expected out of range error")
	}

	sub, err := Substring("hello world", 6, 11)
	if err != nil || sub != "world" {
		t.Errorf("Expected world, got %q (%v)", sub, err)
	}
	if _, err := Substring("abc", 2, 1); err == nil {
		t.Error("Expected error for begin > end")
	}
}

func TestIndexOf(t *testing.T) {
	if got := IndexOf("banana", "an", 0); got != 1 {
		t.Errorf("Expected 1, got %d", got)
	}
	if got := IndexOf("banana", "an", 2); got != 3 {
		t.Errorf("Expected 3, got %d", got)
	}
	if got := IndexOf("banana", "x", 0); got != -1 {
		t.Errorf("Expected -1, got %d", got)
	}
}

func TestHashCode(t *testing.T) {
	tests := []struct {
		s    string
		want int32
	}{
		{"", 0},
		{"a", 97},
		{"hello", 99162322},
		{"polygenelubricants", math.MinInt32},
	}

	for _, tt := range tests {
		if got := HashCode(tt.s); got != tt.want {
			t.Errorf("HashCode(%q) = %d, want %d", tt.s, got, tt.want)
		}
	}
}

func TestFormatDouble(t *testing.T) {
	tests := []struct {
		d    float64
		want string
	}{
		{1, "1.0"},
		{0.5, "0.5"},
		{-2.25, "-2.25"},
		{1e7, "1.0E7"},
		{1.5e-5, "1.5E-5"},
		{0, "0.0"},
		{math.NaN(), "NaN"},
		{math.Inf(-1), "-Infinity"},
	}

	for _, tt := range tests {
		if got := FormatDouble(tt.d); got != tt.want {
			t.Errorf("FormatDouble(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	if got := FormatFloat(0.1); got != "0.1" {
		t.Errorf("Expected 0.1, got %q", got)
	}
	if got := FormatFloat(3); got != "3.0" {
		t.Errorf("Expected 3.0, got %q", got)
	}
}
