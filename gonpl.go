// GoNPL: an NPL (NSIGII protocol language) parser and interpreter written in Go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/obinexus/gonpl/internal/parseutil"
	"github.com/obinexus/gonpl/interp"
	"github.com/obinexus/gonpl/parser"
)

const version = "v0.1.0"

func main() {
	var progFiles multiString
	flag.Var(&progFiles, "f", "load NPL source from `progfile` (can be given multiple times)")
	debug := flag.Bool("d", false, "print parsed program and exit")
	topoFile := flag.String("t", "", "load channel topology overrides from `topofile`")
	showVersion := flag.Bool("version", false, "show GoNPL version and exit")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: gonpl [-f progfile ...] [-t topofile] [-d] [prog]")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	fr := &parseutil.FileReader{}
	args := flag.Args()
	switch {
	case len(progFiles) > 0:
		for _, path := range progFiles {
			f, err := os.Open(path)
			if err != nil {
				errorExitf(2, "can't open file %q", path)
			}
			err = fr.AddFile(path, f)
			f.Close()
			if err != nil {
				errorExitf(2, "can't read file %q: %v", path, err)
			}
		}
	case len(args) > 0:
		_ = fr.AddFile("<cmdline>", strings.NewReader(args[0]))
	default:
		if term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "reading program from stdin (end with Ctrl-D); or pass prog or -f progfile")
		}
		if err := fr.AddFile("<stdin>", os.Stdin); err != nil {
			errorExitf(2, "can't read stdin: %v", err)
		}
	}

	prog, err := parser.ParseProgram(fr.Source(), nil)
	if err != nil {
		if parseError, ok := err.(*parser.ParseError); ok {
			path, line := fr.FileLine(parseError.Position.Line)
			if path != "" {
				errorExitf(3, "%s:%d:%d: %s",
					path, line, parseError.Position.Column, parseError.Message)
			}
		}
		errorExitf(3, "%s", err)
	}

	if *debug {
		fmt.Println(prog)
		return
	}

	config := &interp.Config{Output: os.Stdout}
	if *topoFile != "" {
		topo, err := interp.LoadTopology(*topoFile)
		if err != nil {
			errorExitf(2, "%s", err)
		}
		config.Topology = topo
	}

	interpreter, err := interp.New(prog)
	if err != nil {
		errorExitf(1, "%s", err)
	}
	report, err := interpreter.Execute(config)
	if err != nil {
		errorExitf(1, "%s", err)
	}
	fmt.Fprintf(os.Stderr, "delivered %d, dropped %d, verified %d\n",
		report.Delivered, report.Dropped, report.Verified)
}

// Print a formatted error to stderr (in red if stderr is a terminal)
// and exit with the given code.
func errorExitf(code int, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if term.IsTerminal(int(os.Stderr.Fd())) {
		color.New(color.FgRed).Fprintln(os.Stderr, message)
	} else {
		fmt.Fprintln(os.Stderr, message)
	}
	os.Exit(code)
}

// multiString collects the values of a repeatable flag.
type multiString []string

func (m *multiString) String() string {
	return strings.Join(*m, " ")
}

func (m *multiString) Set(value string) error {
	*m = append(*m, value)
	return nil
}
