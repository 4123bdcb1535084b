package ast

import (
	"testing"

	"nilan/token"
)

type recordingVisitor struct {
	calls []string
}

func (r *recordingVisitor) VisitLiteral(Literal) any   { r.calls = append(r.calls, "Literal"); return nil }
func (r *recordingVisitor) VisitVariable(Variable) any { r.calls = append(r.calls, "Variable"); return nil }
func (r *recordingVisitor) VisitUnary(Unary) any       { r.calls = append(r.calls, "Unary"); return nil }
func (r *recordingVisitor) VisitBinary(Binary) any     { r.calls = append(r.calls, "Binary"); return nil }
func (r *recordingVisitor) VisitCall(Call) any         { r.calls = append(r.calls, "Call"); return nil }

func (r *recordingVisitor) VisitVarStmt(VarStmt) any     { r.calls = append(r.calls, "VarStmt"); return nil }
func (r *recordingVisitor) VisitCallStmt(CallStmt) any   { r.calls = append(r.calls, "CallStmt"); return nil }
func (r *recordingVisitor) VisitWhileStmt(WhileStmt) any { r.calls = append(r.calls, "WhileStmt"); return nil }
func (r *recordingVisitor) VisitIfStmt(IfStmt) any       { r.calls = append(r.calls, "IfStmt"); return nil }
func (r *recordingVisitor) VisitFuncStmt(FuncStmt) any   { r.calls = append(r.calls, "FuncStmt"); return nil }
func (r *recordingVisitor) VisitReturnStmt(ReturnStmt) any {
	r.calls = append(r.calls, "ReturnStmt")
	return nil
}

func TestExpressionAcceptDispatch(t *testing.T) {
	v := &recordingVisitor{}
	exprs := []Expression{
		Literal{Value: 1.0},
		Variable{Name: token.New(token.IDENTIFIER, "x", token.Span{})},
		Unary{Operator: token.New(token.BANG, "!", token.Span{}), Right: Literal{Value: true}},
		Binary{Left: Literal{Value: 1.0}, Operator: token.New(token.ADD, "+", token.Span{}), Right: Literal{Value: 2.0}},
		Call{Name: token.New(token.IDENTIFIER, "f", token.Span{})},
	}
	for _, e := range exprs {
		e.Accept(v)
	}
	want := []string{"Literal", "Variable", "Unary", "Binary", "Call"}
	if len(v.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", v.calls, want)
	}
	for i := range want {
		if v.calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, v.calls[i], want[i])
		}
	}
}

func TestStmtAcceptDispatch(t *testing.T) {
	v := &recordingVisitor{}
	stmts := []Stmt{
		VarStmt{Name: token.New(token.IDENTIFIER, "x", token.Span{})},
		CallStmt{Name: token.New(token.IDENTIFIER, "f", token.Span{})},
		WhileStmt{},
		IfStmt{},
		FuncStmt{Name: token.New(token.IDENTIFIER, "f", token.Span{})},
		ReturnStmt{},
	}
	for _, s := range stmts {
		s.Accept(v)
	}
	want := []string{"VarStmt", "CallStmt", "WhileStmt", "IfStmt", "FuncStmt", "ReturnStmt"}
	if len(v.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", v.calls, want)
	}
	for i := range want {
		if v.calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, v.calls[i], want[i])
		}
	}
}
