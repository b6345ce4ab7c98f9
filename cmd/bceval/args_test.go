package main

import (
	"testing"

	"github.com/chazu/bceval/pkg/value"
)

func TestParseTarget(t *testing.T) {
	owner, name, err := parseTarget("demo/Calc.scale")
	if err != nil || owner != "demo/Calc" || name != "scale" {
		t.Errorf("Expected demo/Calc and scale, got %q %q %v", owner, name, err)
	}
	for _, bad := range []string{"noDot", ".x", "a/B."} {
		if _, _, err := parseTarget(bad); err == nil {
			t.Errorf("Expected an error for %q", bad)
		}
	}
}

func TestParseArguments(t *testing.T) {
	args, err := parseArguments("(JIZLjava/lang/String;Ljava/lang/Object;D)V",
		[]string{"6", "7", "true", "\"hi\"", "null", "2.5"})
	if err != nil {
		t.Fatalf("parseArguments failed: %v", err)
	}
	if l := args[0].(*value.Long); l.Value() != 6 {
		t.Errorf("Expected 6L, got %s", l)
	}
	if i := args[1].(*value.Int); i.Value() != 7 {
		t.Errorf("Expected 7, got %s", i)
	}
	if b := args[2].(*value.Int); b.Value() != 1 {
		t.Errorf("Expected true, got %s", b)
	}
	if s, ok := value.ToJavaString(args[3]); !ok || s != "hi" {
		t.Errorf("Expected \"hi\", got %s", args[3])
	}
	if args[4] != value.Null {
		t.Errorf("Expected null, got %s", args[4])
	}
	if d := args[5].(*value.Double); d.Value() != 2.5 {
		t.Errorf("Expected 2.5, got %s", d)
	}
}

func TestParseArgumentErrors(t *testing.T) {
	tests := []struct {
		desc string
		args []string
	}{
		{"(I)V", []string{}},
		{"(I)V", []string{"x"}},
		{"(B)V", []string{"300"}},
		{"(Z)V", []string{"maybe"}},
		{"(Ljava/util/List;)V", []string{"[]"}},
		{"(Q)V", []string{"1"}},
	}
	for _, tt := range tests {
		if _, err := parseArguments(tt.desc, tt.args); err == nil {
			t.Errorf("%s %v: expected an error", tt.desc, tt.args)
		}
	}
}
