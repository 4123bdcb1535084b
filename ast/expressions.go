// expressions.go contains all the expression AST nodes. An expression node
// always evaluates to a value.

package ast

import "nilan/token"

// Literal represents a literal value in the source code (a number, string,
// or boolean). Value holds the interpreted Go value (float64, string, or
// bool), matching token.Token's Literal field.
type Literal struct {
	Token token.Token
	Value any
}

func (literal Literal) Accept(v ExpressionVisitor) any {
	return v.VisitLiteral(literal)
}

// Variable represents the retrieval of a value previously bound to a
// variable name.
type Variable struct {
	Name token.Token // An IDENTIFIER token
}

func (variable Variable) Accept(v ExpressionVisitor) any {
	return v.VisitVariable(variable)
}

// Unary represents a unary operation expression. Only "!" (logical not)
// is supported; the operand must evaluate to a Bool.
type Unary struct {
	Operator token.Token // "!"
	Right    Expression
}

func (unary Unary) Accept(v ExpressionVisitor) any {
	return v.VisitUnary(unary)
}

// Binary represents a binary operation expression (e.g. "a + b", "a >=
// b"). It consists of a left-hand side expression, an operator token, and
// a right-hand side expression.
type Binary struct {
	Left     Expression
	Operator token.Token
	Right    Expression
}

func (binary Binary) Accept(v ExpressionVisitor) any {
	return v.VisitBinary(binary)
}

// Call represents a function call used in a value-producing position,
// e.g. "let x = sum(1, 2)" or as an operand of a binary expression. Name
// resolves to either a host function or a user-defined function.
type Call struct {
	Name token.Token
	Args []Expression
}

func (call Call) Accept(v ExpressionVisitor) any {
	return v.VisitCall(call)
}
