// Package parser implements the recursive-descent parser that turns a
// token stream into a tree of ast.Stmt / ast.Expression nodes.
package parser

import (
	"fmt"

	"nilan/ast"
	"nilan/token"
)

// Parser holds parsing state over a fixed token slice.
type Parser struct {
	tokens   []token.Token
	position int
	// grouped reports whether the expression tryParseBinOp last returned
	// is a parenthesised group returned as-is.
	grouped bool
}

// New constructs a Parser over tokens, normally the output of lexer.Scan.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

func (p *Parser) isFinished() bool {
	return p.peek().Type == token.EOF
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.position]
}

func (p *Parser) advance() token.Token {
	tok := p.tokens[p.position]
	if tok.Type != token.EOF {
		p.position++
	}
	return tok
}

func (p *Parser) check(tokenType token.TokenType) bool {
	return p.peek().Type == tokenType
}

// match consumes the next token if it has the given type.
func (p *Parser) match(tokenType token.TokenType) bool {
	if p.check(tokenType) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(tokenType token.TokenType, message string) (token.Token, error) {
	if p.check(tokenType) {
		return p.advance(), nil
	}
	return token.Token{}, CreateSyntaxError(p.peek().Span, message)
}

// Parse consumes the entire token stream, producing a sequence of
// top-level statements. It stops and returns the first parse error
// encountered.
func (p *Parser) Parse() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.isFinished() {
		stmt, err := p.parseStmt()
		if err != nil {
			return stmts, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch {
	case p.match(token.WHILE):
		return p.parseWhile()
	case p.match(token.IF):
		return p.parseIf()
	case p.match(token.LET):
		return p.parseLet()
	case p.match(token.FN):
		return p.parseFn()
	case p.match(token.RETURN):
		return p.parseReturn(), nil
	case p.check(token.IDENTIFIER):
		return p.parseIdentStmt()
	default:
		tok := p.peek()
		return nil, CreateSyntaxError(tok.Span, fmt.Sprintf("didn't expect %q when parsing statement", tok.Lexeme))
	}
}

// parseBlock parses statements up to and including a closing `}`.
func (p *Parser) parseBlock() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.match(token.RBRACE) {
		if p.isFinished() {
			return nil, CreateSyntaxError(p.peek().Span, "missing `}` to close block")
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	cond, err := p.tryParseBinOp()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "missing `{` in while"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.WhileStmt{Condition: cond, Body: body}, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	var branches []ast.Branch
	var fallback []ast.Stmt
	for {
		cond, err := p.tryParseBinOp()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.LBRACE, "missing `{` in if"); err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		branches = append(branches, ast.Branch{Condition: cond, Body: body})

		if !p.match(token.ELSE) {
			break
		}
		if p.match(token.IF) {
			continue
		}
		if _, err := p.consume(token.LBRACE, "missing `{` in else"); err != nil {
			return nil, err
		}
		fallback, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
		break
	}
	return ast.IfStmt{Branches: branches, Fallback: fallback}, nil
}

func (p *Parser) parseLet() (ast.Stmt, error) {
	name, err := p.consume(token.IDENTIFIER, "missing variable name in let")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.ASSIGN, "missing `=` in let"); err != nil {
		return nil, err
	}
	val, err := p.tryParseBinOp()
	if err != nil {
		return nil, err
	}
	return ast.VarStmt{Name: name, Initializer: val, Reassign: false}, nil
}

func (p *Parser) parseFn() (ast.Stmt, error) {
	name, err := p.consume(token.IDENTIFIER, "missing function name in fn")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LPAREN, "missing `(` in fn"); err != nil {
		return nil, err
	}
	var params []token.Token
	if !p.check(token.RPAREN) {
		for {
			param, err := p.consume(token.IDENTIFIER, "expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.consume(token.RPAREN, "missing `)` to match `(` in fn params"); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "missing `{` in fn"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.FuncStmt{Name: name, Params: params, Body: body}, nil
}

// parseReturn parses `return expr?`. If no expression can be parsed at
// the current position, the token position is rolled back and the
// statement is treated as a value-less return.
func (p *Parser) parseReturn() ast.Stmt {
	save := p.position
	val, err := p.tryParseBinOp()
	if err != nil {
		p.position = save
		return ast.ReturnStmt{Value: nil}
	}
	return ast.ReturnStmt{Value: val}
}

func (p *Parser) parseIdentStmt() (ast.Stmt, error) {
	name := p.advance()
	switch {
	case p.match(token.LPAREN):
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return ast.CallStmt{Name: name, Args: args}, nil
	case p.match(token.ASSIGN):
		val, err := p.tryParseBinOp()
		if err != nil {
			return nil, err
		}
		return ast.VarStmt{Name: name, Initializer: val, Reassign: true}, nil
	default:
		tok := p.peek()
		return nil, CreateSyntaxError(tok.Span, fmt.Sprintf("can't parse variable or function, expected `(` or `=`, found %q", tok.Lexeme))
	}
}

// parseArgs parses a comma-separated expression list up to and including
// the closing `)`.
func (p *Parser) parseArgs() ([]ast.Expression, error) {
	var args []ast.Expression
	if p.match(token.RPAREN) {
		return args, nil
	}
	for {
		arg, err := p.tryParseBinOp()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.match(token.COMMA) {
			break
		}
	}
	if _, err := p.consume(token.RPAREN, "missing `)` to match `(` for function call"); err != nil {
		return nil, err
	}
	return args, nil
}

// binOpPriority maps a binary operator's token type to its priority
// tier: boolean/comparison operators are tier 0, +/- are tier 1, and
// */÷/% are tier 2.
func binOpPriority(tokenType token.TokenType) int {
	switch tokenType {
	case token.ADD, token.SUB:
		return 1
	case token.MULT, token.DIV, token.MOD:
		return 2
	default:
		return 0
	}
}

func isBinOpToken(tokenType token.TokenType) bool {
	switch tokenType {
	case token.ADD, token.SUB, token.MULT, token.DIV, token.MOD,
		token.AND, token.OR,
		token.EQUAL_EQUAL, token.NOT_EQUAL,
		token.LARGER, token.LARGER_EQUAL, token.LESS, token.LESS_EQUAL:
		return true
	default:
		return false
	}
}

// tryParseBinOp parses a single expression: a primary (literal, variable,
// call, grouping, or unary-not), optionally followed by a binary operator
// and another expression. Chained/nested binary nodes on either side are
// flattened into parallel atom/operator lists and recombined by
// repeatedly selecting the highest-priority operator (ties broken
// leftmost), in the manner of the reference engine's try_parse_bin_op,
// including how it threads through already-finished nodes once the
// original atom list is exhausted. A parenthesised operand is kept as a
// single atom and is not flattened.
func (p *Parser) tryParseBinOp() (ast.Expression, error) {
	tok := p.advance()

	var lhs ast.Expression
	lhsGrouped := false
	switch tok.Type {
	case token.BANG:
		right, err := p.tryParseBinOp()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Operator: tok, Right: right}, nil
	case token.LPAREN:
		inner, err := p.tryParseBinOp()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RPAREN, "missing `)` to match `(`"); err != nil {
			return nil, err
		}
		lhs = inner
		lhsGrouped = true
	case token.IDENTIFIER:
		if p.match(token.LPAREN) {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			lhs = ast.Call{Name: tok, Args: args}
		} else {
			lhs = ast.Variable{Name: tok}
		}
	case token.STRING, token.NUMBER, token.BOOL:
		lhs = ast.Literal{Token: tok, Value: tok.Literal}
	default:
		return nil, CreateSyntaxError(tok.Span, fmt.Sprintf("found unexpected token %q when parsing expression", tok.Lexeme))
	}

	if !isBinOpToken(p.peek().Type) {
		p.grouped = lhsGrouped
		return lhs, nil
	}
	opTok := p.advance()
	rhs, err := p.tryParseBinOp()
	if err != nil {
		return nil, err
	}
	rhsGrouped := p.grouped

	var nodes []ast.Expression
	var ops []token.Token

	if lhsBin, ok := lhs.(ast.Binary); ok && !lhsGrouped {
		nodes = append(nodes, lhsBin.Left, lhsBin.Right)
		ops = append(ops, lhsBin.Operator)
	} else {
		nodes = append(nodes, lhs)
	}
	ops = append(ops, opTok)
	if rhsBin, ok := rhs.(ast.Binary); ok && !rhsGrouped {
		nodes = append(nodes, rhsBin.Left, rhsBin.Right)
		ops = append(ops, rhsBin.Operator)
	} else {
		nodes = append(nodes, rhs)
	}

	var finished []ast.Expression
	for len(ops) > 0 {
		highestIdx := 0
		highestPrio := 0
		for i, op := range ops {
			if binOpPriority(op.Type) > highestPrio {
				highestPrio = binOpPriority(op.Type)
				highestIdx = i
			}
		}

		var left, right ast.Expression
		if len(nodes) > 0 {
			left = nodes[highestIdx]
			nodes = append(nodes[:highestIdx], nodes[highestIdx+1:]...)
		} else {
			left = finished[0]
			finished = finished[1:]
		}
		if len(nodes) > 0 {
			right = nodes[highestIdx]
			nodes = append(nodes[:highestIdx], nodes[highestIdx+1:]...)
		} else {
			right = finished[0]
			finished = finished[1:]
		}
		op := ops[highestIdx]
		ops = append(ops[:highestIdx], ops[highestIdx+1:]...)
		finished = append(finished, ast.Binary{Left: left, Operator: op, Right: right})
	}
	p.grouped = false
	return finished[len(finished)-1], nil
}
