package vm

import (
	"bytes"
	"strings"
	"testing"

	"nilan/compiler"
	"nilan/host"
	"nilan/lexer"
	"nilan/parser"
	"nilan/value"
)

func run(t *testing.T, source string, hostFns *host.Table) (value.Value, error) {
	t.Helper()
	toks, err := lexer.New(source).Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	stmts, err := parser.New(toks).Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	bc, err := compiler.NewTranslator(hostFns).Translate(stmts)
	if err != nil {
		t.Fatalf("translate error: %v", err)
	}
	return New().Run(bc, hostFns)
}

func captureOutput(t *testing.T, source string) string {
	t.Helper()
	var buf bytes.Buffer
	hostFns := host.NewTable(host.NewPrintln(&buf))
	if _, err := run(t, source, hostFns); err != nil {
		t.Fatalf("run error: %v", err)
	}
	return buf.String()
}

// TestRunArithmeticPrecedence covers S1.
func TestRunArithmeticPrecedence(t *testing.T) {
	out := captureOutput(t, `println("{}", 2 + 3 * 4)`)
	if strings.TrimSpace(out) != "14" {
		t.Fatalf("expected 14, got %q", out)
	}
}

// TestRunWhileLoopAccumulates covers a basic while loop running to
// completion and leaving the accumulated value visible via println.
func TestRunWhileLoopAccumulates(t *testing.T) {
	out := captureOutput(t, `
		let i = 0
		let sum = 0
		while i < 5 {
			sum = sum + i
			i = i + 1
		}
		println("{}", sum)
	`)
	if strings.TrimSpace(out) != "10" {
		t.Fatalf("expected 10, got %q", out)
	}
}

// TestRunIfElseIfElseExactlyOneBranch covers S3: exactly one branch of an
// if/else-if/else chain executes.
func TestRunIfElseIfElseExactlyOneBranch(t *testing.T) {
	out := captureOutput(t, `
		let x = 2
		if x == 1 {
			println("{}", "a")
		} else if x == 2 {
			println("{}", "b")
		} else {
			println("{}", "c")
		}
	`)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 || lines[0] != "b" {
		t.Fatalf("expected exactly one line \"b\", got %q", out)
	}
}

// TestRunNestedCallInArgumentPosition covers S4: a user-defined function
// called as an argument to a host call.
func TestRunNestedCallInArgumentPosition(t *testing.T) {
	out := captureOutput(t, `
		fn add(a, b) {
			return a + b
		}
		println("{}", add(3, 4))
	`)
	if strings.TrimSpace(out) != "7" {
		t.Fatalf("expected 7, got %q", out)
	}
}

// TestRunRecursiveFunction exercises CallLocal/Return frame collapse
// across multiple nested invocations.
func TestRunRecursiveFunction(t *testing.T) {
	out := captureOutput(t, `
		fn factorial(n) {
			if n <= 1 {
				return 1
			}
			return n * factorial(n - 1)
		}
		println("{}", factorial(5))
	`)
	if strings.TrimSpace(out) != "120" {
		t.Fatalf("expected 120, got %q", out)
	}
}

// TestRunGeLeLowering exercises the swapped-operand Compare lowering for
// >= and <=.
func TestRunGeLeLowering(t *testing.T) {
	out := captureOutput(t, `
		println("{}", 3 >= 3)
		println("{}", 2 >= 3)
		println("{}", 3 <= 3)
		println("{}", 4 <= 3)
	`)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{"true", "false", "true", "false"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d (%q)", len(want), len(lines), out)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

// TestRunModulo exercises the Mod opcode against IEEE-754 float remainder.
func TestRunModulo(t *testing.T) {
	out := captureOutput(t, `println("{}", 7 % 3)`)
	if strings.TrimSpace(out) != "1" {
		t.Fatalf("expected 1, got %q", out)
	}
}

// TestRunUnaryNot exercises the Not opcode.
func TestRunUnaryNot(t *testing.T) {
	out := captureOutput(t, `println("{}", !false)`)
	if strings.TrimSpace(out) != "true" {
		t.Fatalf("expected true, got %q", out)
	}
}

// TestRunReassignmentIsVisible exercises Mov-based reassignment cleanup.
func TestRunReassignmentIsVisible(t *testing.T) {
	out := captureOutput(t, `
		let x = 1
		x = 2
		println("{}", x)
	`)
	if strings.TrimSpace(out) != "2" {
		t.Fatalf("expected 2, got %q", out)
	}
}

func TestRunTypeMismatchIsRuntimeError(t *testing.T) {
	var buf bytes.Buffer
	hostFns := host.NewTable(host.NewPrintln(&buf))
	_, err := run(t, `println("{}", "abc" + 1)`, hostFns)
	if _, ok := err.(RuntimeError); !ok {
		t.Fatalf("expected RuntimeError, got %v (%T)", err, err)
	}
}

func TestRunHostFunctionCallFailurePropagates(t *testing.T) {
	hostFns := host.NewTable(host.Function{
		Name:   "fail",
		Params: nil,
		Call: func(args []value.Value) (value.Value, bool) {
			return value.NullValue, false
		},
	})
	_, err := run(t, `fail()`, hostFns)
	if _, ok := err.(host.Error); !ok {
		t.Fatalf("expected host.Error, got %v (%T)", err, err)
	}
}
