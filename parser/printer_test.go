package parser

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"nilan/ast"
	"nilan/token"
)

func ident(name string) token.Token {
	return token.New(token.IDENTIFIER, name, token.Span{})
}

func numberLit(lexeme string, value float64) token.Token {
	return token.NewLiteral(token.NUMBER, lexeme, value, token.Span{})
}

func TestPrintASTJSON_VarStmt(t *testing.T) {
	stmts := []ast.Stmt{
		ast.VarStmt{Name: ident("x"), Initializer: ast.Literal{Token: numberLit("42", 42), Value: 42.0}},
	}

	jsonStr, err := PrintASTJSON(stmts)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(out))
	}

	node := out[0]
	if typ, ok := node["type"].(string); !ok || typ != "VarStmt" {
		t.Fatalf("expected type VarStmt, got %v", node["type"])
	}
	if name, ok := node["name"].(string); !ok || name != "x" {
		t.Fatalf("expected name 'x', got %v", node["name"])
	}
	if reassign, ok := node["reassign"].(bool); !ok || reassign {
		t.Fatalf("expected reassign false, got %v", node["reassign"])
	}
	if init, ok := node["initializer"].(float64); !ok || init != 42 {
		t.Fatalf("expected initializer 42, got %v", node["initializer"])
	}
}

func TestPrintASTJSON_ReturnStmt_NilValue(t *testing.T) {
	stmts := []ast.Stmt{
		ast.ReturnStmt{Value: nil},
	}

	jsonStr, err := PrintASTJSON(stmts)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(out))
	}

	node := out[0]
	if typ, ok := node["type"].(string); !ok || typ != "ReturnStmt" {
		t.Fatalf("expected type ReturnStmt, got %v", node["type"])
	}
	if val, exists := node["value"]; !exists || val != nil {
		t.Fatalf("expected value to be nil, got %v", val)
	}
}

func TestPrintASTJSON_BinaryExpression(t *testing.T) {
	stmts := []ast.Stmt{
		ast.CallStmt{
			Name: ident("println"),
			Args: []ast.Expression{
				ast.Binary{
					Left:     ast.Literal{Token: numberLit("1", 1), Value: 1.0},
					Operator: token.New(token.ADD, "+", token.Span{}),
					Right:    ast.Literal{Token: numberLit("2", 2), Value: 2.0},
				},
			},
		},
	}

	jsonStr, err := PrintASTJSON(stmts)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(out))
	}

	node := out[0]
	if typ, ok := node["type"].(string); !ok || typ != "CallStmt" {
		t.Fatalf("expected type CallStmt, got %v", node["type"])
	}

	args, ok := node["args"].([]any)
	if !ok || len(args) != 1 {
		t.Fatalf("expected 1 arg, got %v", node["args"])
	}

	expr, ok := args[0].(map[string]any)
	if !ok {
		t.Fatalf("expected expression object, got %v", args[0])
	}
	if typ, ok := expr["type"].(string); !ok || typ != "Binary" {
		t.Fatalf("expected Binary expression, got %v", expr["type"])
	}
	if op, ok := expr["operator"].(string); !ok || op != "+" {
		t.Fatalf("expected operator '+', got %v", expr["operator"])
	}
	if left, ok := expr["left"].(float64); !ok || left != 1 {
		t.Fatalf("expected left 1, got %v", expr["left"])
	}
	if right, ok := expr["right"].(float64); !ok || right != 2 {
		t.Fatalf("expected right 2, got %v", expr["right"])
	}
}

func TestPrintASTJSON_IfStmtBranchesAndFallback(t *testing.T) {
	stmts := []ast.Stmt{
		ast.IfStmt{
			Branches: []ast.Branch{
				{Condition: ast.Literal{Value: true}, Body: []ast.Stmt{ast.CallStmt{Name: ident("println")}}},
			},
			Fallback: []ast.Stmt{ast.CallStmt{Name: ident("println")}},
		},
	}

	jsonStr, err := PrintASTJSON(stmts)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}

	node := out[0]
	if typ, ok := node["type"].(string); !ok || typ != "IfStmt" {
		t.Fatalf("expected type IfStmt, got %v", node["type"])
	}
	branches, ok := node["branches"].([]any)
	if !ok || len(branches) != 1 {
		t.Fatalf("expected 1 branch, got %v", node["branches"])
	}
	fallback, ok := node["fallback"].([]any)
	if !ok || len(fallback) != 1 {
		t.Fatalf("expected 1 fallback statement, got %v", node["fallback"])
	}
}

func TestWriteASTJSONToFile(t *testing.T) {
	stmts := []ast.Stmt{
		ast.CallStmt{
			Name: ident("println"),
			Args: []ast.Expression{ast.Literal{Value: "hellow nilan!"}},
		},
	}

	filePath := filepath.Join(os.TempDir(), "nilan_ast_printer_test.json")
	defer os.Remove(filePath)

	if err := WriteASTJSONToFile(stmts, filePath); err != nil {
		t.Fatalf("WriteASTJSONToFile error: %v", err)
	}

	bytes, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal(bytes, &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(out))
	}

	node := out[0]
	if typ, ok := node["type"].(string); !ok || typ != "CallStmt" {
		t.Fatalf("expected type CallStmt, got %v", node["type"])
	}
	args, ok := node["args"].([]any)
	if !ok || len(args) != 1 {
		t.Fatalf("expected 1 arg, got %v", node["args"])
	}
	if expr, ok := args[0].(string); !ok || expr != "hellow nilan!" {
		t.Fatalf("expected arg 'hellow nilan!', got %v", args[0])
	}
}
