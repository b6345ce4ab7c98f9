// bceval CLI - checks and evaluates methods of YAML-defined or bundled classes
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/bceval/config"
	"github.com/chazu/bceval/eval"
	"github.com/chazu/bceval/pkg/bytecode"
	"github.com/chazu/bceval/pkg/value"
	"github.com/chazu/bceval/store"
	"github.com/chazu/bceval/workspace"
)

var log = commonlog.GetLogger("bceval.cli")

func main() {
	configDir := flag.String("C", ".", "Directory to search for bceval.toml")
	verbosity := flag.Int("v", -1, "Log verbosity (overrides [log].verbosity)")
	maxSteps := flag.Int("max-steps", 0, "Step budget (overrides [evaluator].max-steps)")
	maxDepth := flag.Int("max-depth", 0, "Nesting limit for evaluated calls (overrides [evaluator].max-depth)")
	internals := flag.Bool("internals", false, "Evaluate the runtime's built-in classes too")
	trace := flag.Bool("trace", false, "Log every executed instruction")
	classes := flag.String("classes", "", "Comma-separated YAML class files to load in addition to the config")
	noCache := flag.Bool("no-cache", false, "Do not use the persistent verdict store")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bceval [options] <command> [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  check [owner.method desc]...       Report which methods can be evaluated\n")
		fmt.Fprintf(os.Stderr, "  eval owner.method desc [args...]   Evaluate a method with literal arguments\n")
		fmt.Fprintf(os.Stderr, "  bundle <out.cbor>                  Write all loaded classes to a bundle\n")
		fmt.Fprintf(os.Stderr, "  prune                              Drop cached verdicts for classes no longer loaded\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  bceval -classes calc.yaml check\n")
		fmt.Fprintf(os.Stderr, "  bceval -classes calc.yaml eval demo/Calc.scale '(JI)J' 6 7\n")
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *verbosity >= 0 {
		cfg.Log.Verbosity = *verbosity
	}
	if *maxSteps > 0 {
		cfg.Evaluator.MaxSteps = *maxSteps
	}
	if *maxDepth > 0 {
		cfg.Evaluator.MaxDepth = *maxDepth
	}
	if *internals {
		cfg.Evaluator.EvaluateInternals = true
	}
	if *trace {
		cfg.Evaluator.Trace = true
	}
	if *noCache {
		cfg.Cache.Path = ""
	}
	commonlog.Configure(cfg.Log.Verbosity, cfg.LogPath())

	w, err := loadWorkspace(cfg, splitList(*classes))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := eval.Options{
		MaxSteps:          cfg.Evaluator.MaxSteps,
		MaxDepth:          cfg.Evaluator.MaxDepth,
		EvaluateInternals: cfg.Evaluator.EvaluateInternals,
		Trace:             cfg.Evaluator.Trace,
	}
	var st *store.Store
	if path := cfg.CachePath(); path != "" {
		st, err = store.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		opts.Verdicts = st
	}
	ev := eval.New(w, opts)
	out := newPrinter(os.Stdout)
	log.Infof("session %s: %d classes loaded", ev.Session(), w.Len())

	code := 0
	switch args[0] {
	case "check":
		code = runCheck(ev, w, args[1:], out)
	case "eval":
		code = runEval(ev, w, cfg.Evaluator.EvaluateInternals, args[1:], out)
	case "bundle":
		code = runBundle(w, args[1:])
	case "prune":
		code = runPrune(w, st)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		flag.Usage()
		code = 2
	}
	if st != nil {
		st.Close()
	}
	os.Exit(code)
}

func loadConfig(dir string) (*config.Config, error) {
	cfg, err := config.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return config.Default(dir), nil
	}
	return cfg, nil
}

func loadWorkspace(cfg *config.Config, extra []string) (*workspace.Workspace, error) {
	w := workspace.New()
	for _, path := range cfg.BundlePaths() {
		classes, err := workspace.LoadBundleFile(path)
		if err != nil {
			return nil, err
		}
		if err := w.Add(classes...); err != nil {
			return nil, err
		}
	}
	for _, path := range append(cfg.ClassPaths(), extra...) {
		if err := workspace.LoadInto(w, path); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func runCheck(ev *eval.Evaluator, w *workspace.Workspace, args []string, out *printer) int {
	if len(args)%2 != 0 {
		fmt.Fprintln(os.Stderr, "Usage: bceval check [owner.method desc]...")
		return 2
	}

	feasible := 0
	total := 0
	report := func(owner, name, desc string) {
		total++
		ok := ev.CanEvaluate(owner, name, desc)
		if ok {
			feasible++
		}
		out.verdict(owner+"."+name+desc, ok)
	}

	if len(args) > 0 {
		for i := 0; i < len(args); i += 2 {
			owner, name, err := parseTarget(args[i])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return 2
			}
			report(owner, name, args[i+1])
		}
	} else {
		for _, className := range w.Names() {
			c, ok := w.FindClass(className, false)
			if !ok {
				continue
			}
			for _, m := range c.Methods {
				report(c.Name, m.Name, m.Desc)
			}
		}
	}

	fmt.Fprintf(out.w, "%d of %d methods can be evaluated\n", feasible, total)
	return 0
}

func runEval(ev *eval.Evaluator, w *workspace.Workspace, internals bool, args []string, out *printer) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: bceval eval owner.method desc [args...]")
		return 2
	}
	owner, name, err := parseTarget(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	desc := args[1]
	values, err := parseArguments(desc, args[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	res := ev.Evaluate(owner, name, desc, receiverFor(w, owner, name, desc, internals), values)
	out.result(res)
	fmt.Fprintf(out.w, "%d of %d steps used\n", ev.Budget().Spent(), ev.Budget().Limit())
	if _, ok := res.(*eval.Yield); ok {
		return 0
	}
	return 1
}

// receiverFor returns an unknown receiver when owner.name+desc is an
// instance method visible to the evaluator, and nil otherwise.
func receiverFor(w *workspace.Workspace, owner, name, desc string, internals bool) value.Value {
	c, ok := w.FindClass(owner, internals)
	if !ok {
		return nil
	}
	if m, ok := c.FindMethod(name, desc); ok && !m.IsStatic() {
		return value.NewObject(bytecode.ObjectTypeOf(owner), value.NotNull)
	}
	return nil
}

func runBundle(w *workspace.Workspace, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: bceval bundle <out.cbor>")
		return 2
	}
	var classes []*bytecode.Class
	for _, name := range w.Names() {
		if c, ok := w.FindClass(name, false); ok {
			classes = append(classes, c)
		}
	}
	if err := workspace.WriteBundleFile(args[0], classes); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Wrote %d classes to %s\n", len(classes), args[0])
	return 0
}

func runPrune(w *workspace.Workspace, st *store.Store) int {
	if st == nil {
		fmt.Fprintln(os.Stderr, "No verdict store configured; set [cache].path in bceval.toml")
		return 1
	}
	var keep []string
	for _, name := range w.Names() {
		if h, ok := w.ContentHash(name); ok {
			keep = append(keep, h)
		}
	}
	n, err := st.Prune(keep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Pruned %d verdicts\n", n)
	return 0
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
