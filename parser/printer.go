package parser

import (
	"encoding/json"
	"fmt"
	"os"

	"nilan/ast"
)

const (
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// astPrinter implements ast.ExpressionVisitor and ast.StmtVisitor,
// building a JSON-friendly representation of the AST out of maps and
// slices. Each Visit method returns an object that can be marshaled to
// JSON.
type astPrinter struct{}

func (p astPrinter) VisitVarStmt(stmt ast.VarStmt) any {
	return map[string]any{
		"type":        "VarStmt",
		"name":        stmt.Name.Lexeme,
		"reassign":    stmt.Reassign,
		"initializer": nilOrAcceptExpr(stmt.Initializer, p),
	}
}

func (p astPrinter) VisitCallStmt(stmt ast.CallStmt) any {
	return map[string]any{
		"type": "CallStmt",
		"name": stmt.Name.Lexeme,
		"args": acceptExprs(stmt.Args, p),
	}
}

func (p astPrinter) VisitWhileStmt(stmt ast.WhileStmt) any {
	return map[string]any{
		"type":      "WhileStmt",
		"condition": stmt.Condition.Accept(p),
		"body":      acceptStmts(stmt.Body, p),
	}
}

func (p astPrinter) VisitIfStmt(stmt ast.IfStmt) any {
	branches := make([]any, 0, len(stmt.Branches))
	for _, branch := range stmt.Branches {
		branches = append(branches, map[string]any{
			"condition": branch.Condition.Accept(p),
			"body":      acceptStmts(branch.Body, p),
		})
	}
	return map[string]any{
		"type":     "IfStmt",
		"branches": branches,
		"fallback": acceptStmts(stmt.Fallback, p),
	}
}

func (p astPrinter) VisitFuncStmt(stmt ast.FuncStmt) any {
	params := make([]string, 0, len(stmt.Params))
	for _, param := range stmt.Params {
		params = append(params, param.Lexeme)
	}
	return map[string]any{
		"type":   "FuncStmt",
		"name":   stmt.Name.Lexeme,
		"params": params,
		"body":   acceptStmts(stmt.Body, p),
	}
}

func (p astPrinter) VisitReturnStmt(stmt ast.ReturnStmt) any {
	return map[string]any{
		"type":  "ReturnStmt",
		"value": nilOrAcceptExpr(stmt.Value, p),
	}
}

func (p astPrinter) VisitBinary(b ast.Binary) any {
	return map[string]any{
		"type":     "Binary",
		"operator": b.Operator.Lexeme,
		"left":     b.Left.Accept(p),
		"right":    b.Right.Accept(p),
	}
}

func (p astPrinter) VisitUnary(u ast.Unary) any {
	return map[string]any{
		"type":     "Unary",
		"operator": u.Operator.Lexeme,
		"right":    u.Right.Accept(p),
	}
}

func (p astPrinter) VisitLiteral(l ast.Literal) any {
	// literals are terminal values and can be used directly in JSON
	return l.Value
}

func (p astPrinter) VisitVariable(v ast.Variable) any {
	return map[string]any{
		"type": "Variable",
		"name": v.Name.Lexeme,
	}
}

func (p astPrinter) VisitCall(c ast.Call) any {
	return map[string]any{
		"type": "Call",
		"name": c.Name.Lexeme,
		"args": acceptExprs(c.Args, p),
	}
}

// nilOrAcceptExpr returns nil if expr is nil, otherwise it continues
// processing the expression and returns the result.
func nilOrAcceptExpr(expr ast.Expression, p ast.ExpressionVisitor) any {
	if expr == nil {
		return nil
	}
	return expr.Accept(p)
}

func acceptExprs(exprs []ast.Expression, p ast.ExpressionVisitor) []any {
	out := make([]any, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, e.Accept(p))
	}
	return out
}

func acceptStmts(stmts []ast.Stmt, p astPrinter) []any {
	out := make([]any, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, s.Accept(p))
	}
	return out
}

// PrintASTJSON converts a slice of statements into a prettified JSON
// string, printing it to stdout for interactive inspection.
func PrintASTJSON(statements []ast.Stmt) (string, error) {
	printer := astPrinter{}
	out := acceptStmts(statements, printer)
	bytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}

	jsonStr := string(bytes)
	fmt.Println(colorYellow + "----- AST JSON -----")
	fmt.Println(colorYellow + jsonStr)
	fmt.Println(colorYellow + "-----" + colorReset)
	fmt.Println("")
	return jsonStr, nil
}

// WriteASTJSONToFile writes the prettified AST JSON to the given file
// path.
func WriteASTJSONToFile(statements []ast.Stmt, path string) error {
	s, err := PrintASTJSON(statements)
	if err != nil {
		return err
	}
	fDescriptor, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating AST file: %s", err.Error())
	}
	defer fDescriptor.Close()

	if _, err := fDescriptor.Write([]byte(s)); err != nil {
		return fmt.Errorf("error writing AST to file: %s", err.Error())
	}
	return nil
}
