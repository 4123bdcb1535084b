package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"nilan/compiler"
	"nilan/config"
	"nilan/host"
	"nilan/lexer"
	"nilan/parser"
	"nilan/token"
	"nilan/vm"
)

type replCompiledCmd struct {
	diassemble   bool
	dumpBytecode bool
	dumpAST      bool
}

func (*replCompiledCmd) Name() string { return "cRepl" }
func (*replCompiledCmd) Synopsis() string {
	return "Start REPL session with the compiled version of nilan"
}
func (*replCompiledCmd) Usage() string {
	return `nilan cRepl`
}

func (cmd *replCompiledCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.diassemble, "diassemble", false, "print each instruction's disassembly after every statement")
	f.BoolVar(&cmd.dumpBytecode, "dumpBytecode", false, "write the program's combined instruction tape as hex to bytecode.nic")
	f.BoolVar(&cmd.dumpAST, "dumpAST", false, "write the parsed AST as JSON to ast.json")
	f.BoolVar(&cmd.diassemble, "di", false, "Shorthand for diassemble.")
	f.BoolVar(&cmd.dumpBytecode, "du", false, "Shorthand for dumpBytecode")
	f.BoolVar(&cmd.dumpAST, "da", false, "Shorthand for dumpAST.")
}

func (cmd *replCompiledCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {

	fmt.Println("\nWelcome to the Nilan programming language!")
	fmt.Println("")

	fmt.Print(`
	███╗   ██╗██╗██╗      █████╗ ███╗   ██╗    ██████╗ █████╗  █████╗ ██╗
	████╗  ██║██║██║     ██╔══██╗████╗  ██║    ██╔══██╗██╔══██╗██╔══██╗██║
	██╔██╗ ██║██║██║     ███████║██╔██╗ ██║    ██████╔╝███████║██████╔╝██║
	██║╚██╗██║██║██║     ██╔══██║██║╚██╗██║    ██╔══██╗██╔══╝  ██╔══██╗██║
	██║ ╚████║██║███████╗██║  ██║██║ ╚████║    ██║  ██║███████╗██████╔╝███████╗
	╚═╝  ╚═══╝╚═╝╚══════╝╚═╝  ╚═╝╚═╝  ╚═══╝    ╚═╝  ╚═╝╚══════╝╚═════╝ ╚══════╝

`)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     config.HistoryFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to start readline: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	hostFns := host.NewTable(host.NewPrintln(os.Stdout))
	translator := compiler.NewTranslator(hostFns)
	machine := vm.New()
	machine.SetDebug(config.Debug())
	machine.SetStackLimit(config.StackLimit())

	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if buffer.Len() == 0 {
				continue
			}
			buffer.Reset()
			continue
		} else if err == io.EOF {
			return subcommands.ExitSuccess
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %s\n", err.Error())
			return subcommands.ExitFailure
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		tokens, err := lexer.New(source).Scan()
		if err != nil {
			fmt.Println(err)
			buffer.Reset()
			continue
		}

		if !isInputReady(tokens) {
			continue
		}

		statements, parseErr := parser.New(tokens).Parse()
		if parseErr != nil {
			// If the parse error sits at the position of the EOF token, the
			// user likely hasn't finished typing yet; wait for more input
			// instead of reporting an error.
			if syntaxErrAtEOF(parseErr, tokens[len(tokens)-1]) {
				continue
			}
			fmt.Fprintf(os.Stdout, "Parse error: %v\n", parseErr)
			buffer.Reset()
			continue
		}

		if cmd.dumpAST {
			if err := parser.WriteASTJSONToFile(statements, "ast.json"); err != nil {
				fmt.Fprintf(os.Stderr, "💥 Dump AST error:\n\t%s\n", err.Error())
			}
		}

		// The translator and VM are shared across statements, so its
		// instruction tape keeps growing with each one appended after the
		// last; every Readline iteration recompiles and re-runs the whole
		// accumulated program from the top.
		bytecode, err := translator.Translate(statements)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			buffer.Reset()
			continue
		}

		if cmd.dumpBytecode {
			if err := dumpBytecodeHex(bytecode, "bytecode.nic"); err != nil {
				fmt.Fprintf(os.Stderr, "💥 Dump bytecode error:\n\t%s\n", err.Error())
			}
		}
		if cmd.diassemble {
			printDisassembly(bytecode)
		}

		if _, err := machine.Run(bytecode, hostFns); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			buffer.Reset()
			continue
		}
		buffer.Reset()
	}
}

// dumpBytecodeHex writes a program's combined instruction tape to path as
// a plain hexadecimal dump, one byte pair per instruction byte.
func dumpBytecodeHex(bytecode compiler.Bytecode, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, b := range bytecode.Instructions {
		if _, err := fmt.Fprintf(f, "%02x", b); err != nil {
			return err
		}
	}
	return nil
}

// printDisassembly prints every instruction in a program's combined tape
// in human-readable form, one line per instruction.
func printDisassembly(bytecode compiler.Bytecode) {
	for offset := 0; offset < len(bytecode.Instructions); {
		line, width := compiler.Disassemble(bytecode.Instructions, offset)
		fmt.Println(line)
		if width <= 0 {
			break
		}
		offset += width
	}
}

// isInputReady checks if the input is ready to be parsed and executed. It
// checks for balanced braces, and also checks if the last non-EOF token
// is an operator or keyword that expects more input.
//
// For example, if the user types `if x > 5 {`, the REPL should wait for
// more input until the user finishes the block with a `}`.
func isInputReady(tokens []token.Token) bool {

	braceBalance := 0
	for _, tok := range tokens {
		switch tok.Type {
		case token.LBRACE:
			braceBalance++
		case token.RBRACE:
			braceBalance--
		}
	}

	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.Type {
	case token.ASSIGN,
		token.ADD,
		token.SUB,
		token.MULT,
		token.DIV,
		token.MOD,
		token.BANG,
		token.EQUAL_EQUAL,
		token.NOT_EQUAL,
		token.LESS,
		token.LESS_EQUAL,
		token.LARGER,
		token.LARGER_EQUAL,
		token.AND,
		token.OR,
		token.COMMA,
		token.LPAREN,
		token.LBRACE,
		token.IF,
		token.ELSE,
		token.WHILE,
		token.FN,
		token.RETURN,
		token.LET:
		return false
	}

	return true
}

// lastNonEOF returns the last non-EOF token from the list of tokens. If
// all tokens are EOF, it returns nil.
func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].Type != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

// syntaxErrAtEOF checks if a parse error is a syntax error positioned at
// the EOF token's own span, the signature of unfinished input rather
// than a genuine mistake.
func syntaxErrAtEOF(parseErr error, eof token.Token) bool {
	syntaxErr, ok := parseErr.(parser.SyntaxError)
	if !ok {
		return false
	}
	return syntaxErr.Span == eof.Span
}
