// Package config reads the process environment variables that tune the
// nilan CLI and VM, each with a typed default so the binary runs sensibly
// with no environment configured at all.
package config

import (
	"os"
	"strconv"
)

const (
	debugEnv       = "NILAN_DEBUG"
	stackLimitEnv  = "NILAN_STACK_LIMIT"
	historyFileEnv = "NILAN_HISTORY_FILE"

	defaultStackLimit  = 4096
	defaultHistoryFile = ".nilan_history"
)

// Debug reports whether NILAN_DEBUG is set to a truthy value, enabling
// per-instruction disassembly tracing during VM.Run. Defaults to false.
func Debug() bool {
	v, ok := os.LookupEnv(debugEnv)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

// StackLimit returns the maximum number of slots the VM's operand stack
// may grow to before Run fails with a RuntimeError, read from
// NILAN_STACK_LIMIT. Defaults to 4096 if unset or unparseable, guarding
// against unbounded recursion through CallLocal.
func StackLimit() int {
	v, ok := os.LookupEnv(stackLimitEnv)
	if !ok {
		return defaultStackLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultStackLimit
	}
	return n
}

// HistoryFile returns the path the compiled REPL (cRepl) persists its
// readline history to, read from NILAN_HISTORY_FILE. Defaults to
// ".nilan_history" in the current directory if unset.
func HistoryFile() string {
	v, ok := os.LookupEnv(historyFileEnv)
	if !ok || v == "" {
		return defaultHistoryFile
	}
	return v
}
