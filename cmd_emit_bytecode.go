package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"nilan/compiler"
	"nilan/host"
	"nilan/lexer"
	"nilan/parser"
)

type emitBytecodeCmd struct {
	diassemble   bool
	dumpBytecode bool
}

func (*emitBytecodeCmd) Name() string { return "emit" }
func (*emitBytecodeCmd) Synopsis() string {
	return "Emit the bytecode representation from a source file"
}
func (*emitBytecodeCmd) Usage() string {
	return `nilan emit <file>`
}

func (cmd *emitBytecodeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.diassemble, "diassemble", true, "write a human-readable disassembly to <file>.dnic")
	f.BoolVar(&cmd.dumpBytecode, "dumpBytecode", true, "write the encoded bytecode as hexadecimal to <file>.nic")
}

func (r *emitBytecodeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	nilanFile := args[0]
	data, err := os.ReadFile(nilanFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file:\n\t%v\n", err.Error())
		return subcommands.ExitFailure
	}

	tokens, err := lexer.New(string(data)).Scan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lexing error: %v\n", err)
		return subcommands.ExitFailure
	}

	statements, parseErr := parser.New(tokens).Parse()
	if parseErr != nil {
		fmt.Fprintf(os.Stderr, "💥 Parsing error:\n\t%v\n", parseErr)
		return subcommands.ExitFailure
	}

	hostFns := host.NewTable(host.NewPrintln(os.Stdout))
	bytecode, cErr := compiler.NewTranslator(hostFns).Translate(statements)
	if cErr != nil {
		fmt.Fprintf(os.Stderr, "💥 Compilation error:\n\t%v\n", cErr)
		return subcommands.ExitFailure
	}

	baseName := strings.TrimSuffix(nilanFile, filepathExt(nilanFile))

	if r.dumpBytecode {
		if err := dumpBytecodeHex(bytecode, baseName+".nic"); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Dump bytecode error:\n\t%s\n", err.Error())
			return subcommands.ExitFailure
		}
	}

	if r.diassemble {
		if err := writeDisassembly(bytecode, baseName+".dnic"); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Bytecode diassemble error:\n\t%s\n", err.Error())
			return subcommands.ExitFailure
		}
	}

	return subcommands.ExitSuccess
}

// filepathExt returns the last "."-delimited extension of path, including
// the leading dot, or "" if path has none.
func filepathExt(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return ""
	}
	return path[idx:]
}

// writeDisassembly writes a program's combined instruction tape to path
// in human-readable form, one line per instruction.
func writeDisassembly(bytecode compiler.Bytecode, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for offset := 0; offset < len(bytecode.Instructions); {
		line, width := compiler.Disassemble(bytecode.Instructions, offset)
		if _, err := fmt.Fprintln(f, line); err != nil {
			return err
		}
		if width <= 0 {
			break
		}
		offset += width
	}
	return nil
}
