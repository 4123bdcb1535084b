package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"nilan/compiler"
	"nilan/config"
	"nilan/host"
	"nilan/lexer"
	"nilan/parser"
	"nilan/vm"
)

// replCmd implements a minimal line-at-a-time REPL: one statement per
// line, no continuation handling. See cRepl for the readline-backed,
// multi-line-aware session.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start a line-at-a-time REPL session" }
func (*replCmd) Usage() string {
	return `repl:
  Start interactive REPL session.
`
}
func (r *replCmd) SetFlags(f *flag.FlagSet) {}

func repl(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	hostFns := host.NewTable(host.NewPrintln(out))
	translator := compiler.NewTranslator(hostFns)
	machine := vm.New()
	machine.SetDebug(config.Debug())
	machine.SetStackLimit(config.StackLimit())

	for {
		fmt.Fprintf(out, ">>> ")
		scanned := scanner.Scan()
		if !scanned {
			return
		}
		line := scanner.Text()
		if line == "exit" {
			os.Exit(0)
		}
		tokens, err := lexer.New(line).Scan()
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		stmts, err := parser.New(tokens).Parse()
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		// The same translator is reused across lines, so its code buffer
		// keeps growing with each line's statements appended after the
		// last; Translate returns the whole accumulated program, and the
		// VM re-runs it from the top, replaying every earlier line's side
		// effects along with the new one.
		bytecode, err := translator.Translate(stmts)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if _, err := machine.Run(bytecode, hostFns); err != nil {
			fmt.Fprintln(out, err)
		}
	}
}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("\n\nWelcome to Nilan!")
	repl(os.Stdin, os.Stdout)
	return subcommands.ExitSuccess
}
