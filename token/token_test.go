package token

import (
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		tokenType TokenType
		lexeme    string
		want      Token
	}{
		{
			name:      "create ASSIGN token",
			tokenType: ASSIGN,
			lexeme:    "=",
			want:      Token{Type: ASSIGN, Lexeme: "="},
		},
		{
			name:      "create IDENTIFIER token",
			tokenType: IDENTIFIER,
			lexeme:    "myVar",
			want:      Token{Type: IDENTIFIER, Lexeme: "myVar"},
		},
		{
			name:      "create MULT token",
			tokenType: MULT,
			lexeme:    "*",
			want:      Token{Type: MULT, Lexeme: "*"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.tokenType, tt.lexeme, Span{})
			if got != tt.want {
				t.Errorf("New() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewLiteral(t *testing.T) {
	got := NewLiteral(NUMBER, "42", 42.0, Span{Start: 0, End: 2})
	if got.Literal != 42.0 {
		t.Errorf("NewLiteral() literal = %v, want 42.0", got.Literal)
	}
	if got.Span != (Span{Start: 0, End: 2}) {
		t.Errorf("NewLiteral() span = %v, want {0 2}", got.Span)
	}
}

func TestKeyWords(t *testing.T) {
	tests := []struct {
		lexeme string
		want   TokenType
	}{
		{"fn", FN},
		{"return", RETURN},
		{"let", LET},
		{"while", WHILE},
		{"if", IF},
		{"else", ELSE},
		{"true", BOOL},
		{"false", BOOL},
	}
	for _, tt := range tests {
		got, ok := KeyWords[tt.lexeme]
		if !ok {
			t.Errorf("KeyWords[%q] missing", tt.lexeme)
			continue
		}
		if got != tt.want {
			t.Errorf("KeyWords[%q] = %v, want %v", tt.lexeme, got, tt.want)
		}
	}
}
