// Package host defines the interface through which externally-registered
// functions are exposed to engine programs. A host function is resolved
// by name at compile time to a fixed function-table index, the same way
// the translator resolves any other call target.
package host

import (
	"fmt"

	"nilan/value"
)

// Function describes a single externally-registered callable: its name
// (as referenced from engine source), the kind expected for each
// parameter, whether it accepts a variable number of trailing arguments
// beyond those listed in Params, and the Go callback implementing it.
type Function struct {
	Name     string
	Params   []value.Kind
	Variadic bool
	Call     func(args []value.Value) (value.Value, bool)
}

// Error wraps a failure signaled by a host callback (Call returning
// ok=false), so it can be distinguished from a VM-internal RuntimeError
// while still satisfying the error interface.
type Error struct {
	FuncName string
}

func (e Error) Error() string {
	return fmt.Sprintf("💥 Nilan host error: call to %q failed", e.FuncName)
}

// Table is an ordered, name-indexed registry of host Functions. The
// translator resolves Call targets against a Table at compile time; the
// VM invokes entries by the resolved index at runtime.
type Table struct {
	functions []Function
	byName    map[string]int
}

// NewTable constructs a Table from the given functions. Registration
// order determines function-table index, matching the translator's
// convention of resolving host calls to a fixed index.
func NewTable(functions ...Function) *Table {
	t := &Table{
		functions: functions,
		byName:    make(map[string]int, len(functions)),
	}
	for i, f := range functions {
		t.byName[f.Name] = i
	}
	return t
}

// Resolve looks up a function's table index by name.
func (t *Table) Resolve(name string) (index int, ok bool) {
	index, ok = t.byName[name]
	return index, ok
}

// Get returns the function at index. It panics if index is out of range,
// since a resolved index is always produced by Resolve against this same
// Table.
func (t *Table) Get(index int) Function {
	return t.functions[index]
}

// Len reports how many functions are registered.
func (t *Table) Len() int {
	return len(t.functions)
}

// CheckArity reports whether argCount is acceptable for fn: exactly
// len(fn.Params) unless fn.Variadic, in which case argCount must be at
// least len(fn.Params).
func CheckArity(fn Function, argCount int) bool {
	if fn.Variadic {
		return argCount >= len(fn.Params)
	}
	return argCount == len(fn.Params)
}
