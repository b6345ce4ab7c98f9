package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/chazu/bceval/eval"
)

const (
	ansiReset = "\033[0m"
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
)

// printer writes results, colouring them when the output is a terminal.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(f *os.File) *printer {
	return &printer{
		w:     f,
		color: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()),
	}
}

func (p *printer) paint(color, s string) string {
	if !p.color {
		return s
	}
	return color + s + ansiReset
}

func (p *printer) verdict(method string, ok bool) {
	if ok {
		fmt.Fprintf(p.w, "%s %s\n", p.paint(ansiGreen, "yes"), method)
	} else {
		fmt.Fprintf(p.w, "%s %s\n", p.paint(ansiRed, "no "), method)
	}
}

func (p *printer) result(res eval.Result) {
	switch r := res.(type) {
	case *eval.Yield:
		fmt.Fprintln(p.w, p.paint(ansiGreen, r.String()))
	default:
		fmt.Fprintln(p.w, p.paint(ansiRed, r.String()))
	}
}
