package parser

import (
	"fmt"

	"nilan/token"
)

// SyntaxError is returned for any malformed construct the parser
// encounters, carrying the byte span of the offending token.
type SyntaxError struct {
	Span    token.Span
	Message string
}

func CreateSyntaxError(span token.Span, message string) SyntaxError {
	return SyntaxError{
		Span:    span,
		Message: message,
	}
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("💥 Nilan Syntax error at [%d:%d] - %s", e.Span.Start, e.Span.End, e.Message)
}
