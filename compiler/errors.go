package compiler

import "fmt"

// SemanticError is a catch-all for malformed-statement style compile
// errors not otherwise given their own type.
type SemanticError struct {
	Message string
}

func (e SemanticError) Error() string {
	return fmt.Sprintf("💥 SemanticError: %s", e.Message)
}

// DeveloperError signals an invariant violation inside the translator
// itself (a bug in the translator, not the translated program).
type DeveloperError struct {
	Message string
}

func (e DeveloperError) Error() string {
	return fmt.Sprintf("🤖 DeveloperError: %s", e.Message)
}

// UnknownSymbolError is raised when an identifier does not resolve to any
// known variable, host function, or internal function.
type UnknownSymbolError struct {
	Name string
}

func (e UnknownSymbolError) Error() string {
	return fmt.Sprintf("💥 SemanticError: unknown symbol %q", e.Name)
}

// ArgumentCountMismatchError is raised when a call site's argument count
// does not satisfy the callee's formal parameter list (exact match for
// non-variadic host functions and internal functions, at-least match for
// variadic host functions).
type ArgumentCountMismatchError struct {
	Name     string
	Expected int
	Got      int
}

func (e ArgumentCountMismatchError) Error() string {
	return fmt.Sprintf("💥 SemanticError: %q expects %d argument(s), got %d", e.Name, e.Expected, e.Got)
}

// NestedFunctionDefinitionError is raised when a `fn` statement is
// encountered while already translating the body of another function.
type NestedFunctionDefinitionError struct {
	Name string
}

func (e NestedFunctionDefinitionError) Error() string {
	return fmt.Sprintf("💥 SemanticError: function %q is defined inside another function body, nested function definitions are forbidden", e.Name)
}

// InconsistentReturnError is raised when a function sometimes returns a
// value and sometimes returns nothing, across its different `return`
// statements.
type InconsistentReturnError struct {
	Name string
}

func (e InconsistentReturnError) Error() string {
	return fmt.Sprintf("💥 SemanticError: function %q returns a value on some paths but not others", e.Name)
}
