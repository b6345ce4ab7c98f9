package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[evaluator]
max-steps = 500
max-depth = 40
evaluate-internals = true
trace = true

[cache]
path = ".bceval/verdicts.db"

[log]
verbosity = 2
file = "bceval.log"

[workspace]
classes = ["classes/demo.yaml", "/abs/other.yaml"]
bundles = ["out/demo.cbor"]
`)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Evaluator.MaxSteps != 500 {
		t.Errorf("Expected max-steps 500, got %d", c.Evaluator.MaxSteps)
	}
	if c.Evaluator.MaxDepth != 40 {
		t.Errorf("Expected max-depth 40, got %d", c.Evaluator.MaxDepth)
	}
	if !c.Evaluator.EvaluateInternals || !c.Evaluator.Trace {
		t.Errorf("Expected evaluate-internals and trace, got %+v", c.Evaluator)
	}
	if c.Log.Verbosity != 2 {
		t.Errorf("Expected verbosity 2, got %d", c.Log.Verbosity)
	}

	abs, _ := filepath.Abs(dir)
	if got := c.CachePath(); got != filepath.Join(abs, ".bceval", "verdicts.db") {
		t.Errorf("Expected the cache path under the config dir, got %q", got)
	}
	if got := c.LogPath(); got == nil || *got != filepath.Join(abs, "bceval.log") {
		t.Errorf("Expected the log path under the config dir, got %v", got)
	}

	classes := c.ClassPaths()
	if len(classes) != 2 || classes[0] != filepath.Join(abs, "classes", "demo.yaml") || classes[1] != "/abs/other.yaml" {
		t.Errorf("Expected resolved class paths, got %v", classes)
	}
	if bundles := c.BundlePaths(); len(bundles) != 1 {
		t.Errorf("Expected 1 bundle, got %v", bundles)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[evaluator]\ntrace = false\n")

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Evaluator.MaxSteps != DefaultMaxSteps {
		t.Errorf("Expected the default budget, got %d", c.Evaluator.MaxSteps)
	}
	if c.Evaluator.MaxDepth != DefaultMaxDepth {
		t.Errorf("Expected the default nesting limit, got %d", c.Evaluator.MaxDepth)
	}
	if c.CachePath() != "" {
		t.Errorf("Expected no cache, got %q", c.CachePath())
	}
	if c.LogPath() != nil {
		t.Error("Expected logging to stderr")
	}
	if d := Default("."); d.Evaluator.MaxSteps != DefaultMaxSteps {
		t.Errorf("Expected Default to apply defaults, got %d", d.Evaluator.MaxSteps)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", "[evaluator\n"},
		{"unknown key", "[evaluator]\nmax-stepz = 3\n"},
		{"negative budget", "[evaluator]\nmax-steps = -1\n"},
		{"negative depth", "[evaluator]\nmax-depth = -1\n"},
		{"wrong type", "[evaluator]\ntrace = \"yes\"\n"},
	}
	for _, tt := range tests {
		if _, err := Parse([]byte(tt.src), t.TempDir()); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}

	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[evaluator]\nmax-steps = 7\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c == nil || c.Evaluator.MaxSteps != 7 {
		t.Fatalf("Expected the parent config, got %+v", c)
	}
	abs, _ := filepath.Abs(root)
	if c.Dir != abs {
		t.Errorf("Expected Dir %q, got %q", abs, c.Dir)
	}
}
