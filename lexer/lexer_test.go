package lexer

import (
	"testing"

	"nilan/token"
)

func typesOf(tokens []token.Token) []token.TokenType {
	types := make([]token.TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func assertTypes(t *testing.T, source string, want []token.TokenType) []token.Token {
	t.Helper()
	tokens, err := New(source).Scan()
	if err != nil {
		t.Fatalf("Scan(%q) returned error: %v", source, err)
	}
	got := typesOf(tokens)
	if len(got) != len(want) {
		t.Fatalf("Scan(%q) = %v, want %v", source, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Scan(%q)[%d] = %v, want %v", source, i, got[i], want[i])
		}
	}
	return tokens
}

func TestScanPunctuationAndOperators(t *testing.T) {
	assertTypes(t, "(){},=", []token.TokenType{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.COMMA, token.ASSIGN, token.EOF,
	})
	assertTypes(t, "== != < <= > >= && || !", []token.TokenType{
		token.EQUAL_EQUAL, token.NOT_EQUAL, token.LESS, token.LESS_EQUAL,
		token.LARGER, token.LARGER_EQUAL, token.AND, token.OR, token.BANG, token.EOF,
	})
	assertTypes(t, "+ - * / %", []token.TokenType{
		token.ADD, token.SUB, token.MULT, token.DIV, token.MOD, token.EOF,
	})
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	assertTypes(t, "fn return let while if else foo", []token.TokenType{
		token.FN, token.RETURN, token.LET, token.WHILE, token.IF, token.ELSE, token.IDENTIFIER, token.EOF,
	})
}

func TestScanBoolLiterals(t *testing.T) {
	tokens := assertTypes(t, "true false", []token.TokenType{token.BOOL, token.BOOL, token.EOF})
	if tokens[0].Literal != true {
		t.Errorf("true literal = %v, want true", tokens[0].Literal)
	}
	if tokens[1].Literal != false {
		t.Errorf("false literal = %v, want false", tokens[1].Literal)
	}
}

func TestScanNumber(t *testing.T) {
	tokens := assertTypes(t, "42 3.14", []token.TokenType{token.NUMBER, token.NUMBER, token.EOF})
	if tokens[0].Literal != 42.0 {
		t.Errorf("42 literal = %v, want 42.0", tokens[0].Literal)
	}
	if tokens[1].Literal != 3.14 {
		t.Errorf("3.14 literal = %v, want 3.14", tokens[1].Literal)
	}
}

func TestScanNumberTooManyDots(t *testing.T) {
	_, err := New("1.2.3").Scan()
	if err == nil {
		t.Fatal("expected error for number with more than one dot")
	}
	if _, ok := err.(LexError); !ok {
		t.Fatalf("error = %T, want LexError", err)
	}
}

func TestScanString(t *testing.T) {
	tokens := assertTypes(t, `"hello world"`, []token.TokenType{token.STRING, token.EOF})
	if tokens[0].Literal != "hello world" {
		t.Errorf("string literal = %v, want %q", tokens[0].Literal, "hello world")
	}
}

func TestScanUnterminatedString(t *testing.T) {
	_, err := New(`"unterminated`).Scan()
	if err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestScanLineComment(t *testing.T) {
	assertTypes(t, "let x = 1 // this is ignored\nlet y = 2", []token.TokenType{
		token.LET, token.IDENTIFIER, token.ASSIGN, token.NUMBER,
		token.LET, token.IDENTIFIER, token.ASSIGN, token.NUMBER,
		token.EOF,
	})
}

func TestScanLoneAmpersandIsError(t *testing.T) {
	_, err := New("a & b").Scan()
	if err == nil {
		t.Fatal("expected error for lone '&'")
	}
}

func TestScanLonePipeIsError(t *testing.T) {
	_, err := New("a | b").Scan()
	if err == nil {
		t.Fatal("expected error for lone '|'")
	}
}

func TestScanSpans(t *testing.T) {
	tokens, err := New("let x").Scan()
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if tokens[0].Span != (token.Span{Start: 0, End: 3}) {
		t.Errorf("'let' span = %v, want {0 3}", tokens[0].Span)
	}
	if tokens[1].Span != (token.Span{Start: 4, End: 5}) {
		t.Errorf("'x' span = %v, want {4 5}", tokens[1].Span)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	source := "let x = 1 + 2 * foo ( y , z )"
	tokens, err := New(source).Scan()
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	rendered := Render(tokens)
	reTokens, err := New(rendered).Scan()
	if err != nil {
		t.Fatalf("re-Scan(%q) returned error: %v", rendered, err)
	}
	if len(reTokens) != len(tokens) {
		t.Fatalf("round-trip token count = %d, want %d", len(reTokens), len(tokens))
	}
	for i := range tokens {
		if reTokens[i].Type != tokens[i].Type {
			t.Errorf("round-trip token[%d].Type = %v, want %v", i, reTokens[i].Type, tokens[i].Type)
		}
	}
}
