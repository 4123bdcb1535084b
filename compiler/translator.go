// Package compiler lowers a statement/expression tree into linear bytecode,
// tracking a simulated operand stack and variable-to-slot bindings so the
// VM's runtime stack depth matches the translator's compile-time count at
// every instruction.
package compiler

import (
	"nilan/ast"
	"nilan/host"
	"nilan/token"
	"nilan/value"
)

// internalFn holds everything known about a user-defined function: its
// formal parameters, its own independently-translated body (own offset 0),
// its table index (used for first-class function-reference values), an
// offset field that linking leaves unset (the linked entry offsets are
// recorded in Bytecode.Functions instead), and the has-value flag of the first Return seen in it (for inconsistent-return
// detection).
type internalFn struct {
	name       string
	params     []string
	index      int
	body       Instructions
	offset     int
	seenReturn bool
	hasValue   bool
}

// callSite records an unresolved CallLocal placeholder: the callee name,
// the unit it lives in ("" for the top-level unit, otherwise the name of
// the enclosing function), and the byte offset of its opcode within that
// unit's own instruction tape. Linking rewrites the operand once every
// function's final offset in the combined tape is known. This closes a gap
// left open in the reference engine, whose call-resolution bookkeeping for
// CallLocal sites is declared but never actually populated.
type callSite struct {
	calleeName string
	unit       string
	localOffset int
}

// Translator lowers a parsed program into Bytecode. It is not safe for
// concurrent use. Repeated calls to Translate keep appending to the same
// top-level code buffer, and each returns the whole accumulated program.
type Translator struct {
	hostFns *host.Table

	code      []byte
	constants []value.Value
	stackIdx  int
	vars      map[string][]int
	scopes    [][]string

	internalFns map[string]*internalFn
	fnOrder     []string
	callSites   []callSite

	currentFn string // "" while translating the top-level unit
}

// NewTranslator constructs a Translator that resolves bare call identifiers
// against hostFns before falling back to user-defined functions.
func NewTranslator(hostFns *host.Table) *Translator {
	return &Translator{
		hostFns:     hostFns,
		vars:        make(map[string][]int),
		internalFns: make(map[string]*internalFn),
	}
}

// Translate compiles a full program's top-level statements into Bytecode,
// discovering all function definitions first so forward and mutually
// recursive calls resolve, then linking every CallLocal placeholder to its
// callee's final offset in the combined tape.
func (t *Translator) Translate(statements []ast.Stmt) (Bytecode, error) {
	if err := t.discoverFnDefs(statements); err != nil {
		return Bytecode{}, err
	}
	if err := t.translateStatements(statements); err != nil {
		return Bytecode{}, err
	}
	topCode := t.code

	offsets := make(map[string]int, len(t.fnOrder))
	combined := make([]byte, len(topCode))
	copy(combined, topCode)
	// End the top-level unit with a Return so execution stops there instead
	// of running on into the function bodies appended after it.
	combined = append(combined, MakeInstruction(OpReturn, 0)...)
	funcMetas := make([]FuncMeta, 0, len(t.fnOrder))
	for _, name := range t.fnOrder {
		fn := t.internalFns[name]
		offsets[name] = len(combined)
		funcMetas = append(funcMetas, FuncMeta{Offset: len(combined), ParamCount: len(fn.params)})
		combined = append(combined, fn.body...)
	}

	for _, site := range t.callSites {
		callee, ok := t.internalFns[site.calleeName]
		if !ok {
			return Bytecode{}, UnknownSymbolError{Name: site.calleeName}
		}
		unitBase := 0
		if site.unit != "" {
			unitBase = offsets[site.unit]
		}
		absOffset := unitBase + site.localOffset
		relOff := offsets[callee.name] - absOffset
		binaryPutInt16(combined, absOffset+1, relOff)
	}

	funcOffsets := make([]*int, len(funcMetas))
	for i := range funcMetas {
		funcOffsets[i] = &funcMetas[i].Offset
	}
	combined = t.optimize(combined, funcOffsets)

	return Bytecode{Instructions: Instructions(combined), ConstantsPool: t.constants, Functions: funcMetas}, nil
}

// discoverFnDefs registers every top-level function's name and parameter
// list before any statement is translated, so calls anywhere in the
// program (forward references, recursion, mutual recursion) resolve to a
// stable function-table index regardless of declaration order.
func (t *Translator) discoverFnDefs(statements []ast.Stmt) error {
	for _, stmt := range statements {
		fnStmt, ok := stmt.(ast.FuncStmt)
		if !ok {
			continue
		}
		name := fnStmt.Name.Lexeme
		params := make([]string, len(fnStmt.Params))
		for i, p := range fnStmt.Params {
			params[i] = p.Lexeme
		}
		t.internalFns[name] = &internalFn{
			name:   name,
			params: params,
			index:  len(t.fnOrder),
		}
		t.fnOrder = append(t.fnOrder, name)
	}
	return nil
}

// translateStatements lowers a sequence of statements in program order,
// discarding any statements following a Return (dead code).
func (t *Translator) translateStatements(statements []ast.Stmt) error {
	for _, stmt := range statements {
		terminal, err := t.translateStmt(stmt)
		if err != nil {
			return err
		}
		if terminal {
			break
		}
	}
	return nil
}

// translateStmt lowers a single statement, returning terminal=true if it
// was a Return (so the caller stops translating the rest of the block).
func (t *Translator) translateStmt(stmt ast.Stmt) (terminal bool, err error) {
	switch s := stmt.(type) {
	case ast.VarStmt:
		return false, t.translateVarStmt(s)
	case ast.CallStmt:
		return false, t.translateCallStmt(s)
	case ast.WhileStmt:
		return false, t.translateWhileStmt(s)
	case ast.IfStmt:
		return false, t.translateIfStmt(s)
	case ast.FuncStmt:
		return false, t.translateFuncStmt(s)
	case ast.ReturnStmt:
		if err := t.translateReturnStmt(s); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, SemanticError{Message: "unrecognized statement"}
	}
}

func (t *Translator) translateVarStmt(s ast.VarStmt) error {
	idx, err := t.translateExpr(s.Initializer)
	if err != nil {
		return err
	}
	if !s.Reassign {
		t.declareVar(s.Name.Lexeme, idx)
		return nil
	}
	bindingIdx, ok := t.resolveVar(s.Name.Lexeme)
	if !ok {
		return UnknownSymbolError{Name: s.Name.Lexeme}
	}
	t.emit(OpMov, idx, bindingIdx)
	t.emit(OpPop, 0)
	t.stackIdx--
	return nil
}

func (t *Translator) translateCallStmt(s ast.CallStmt) error {
	name := s.Name.Lexeme
	if fnIdx, ok := t.hostFns.Resolve(name); ok {
		fn := t.hostFns.Get(fnIdx)
		if !host.CheckArity(fn, len(s.Args)) {
			return ArgumentCountMismatchError{Name: name, Expected: len(fn.Params), Got: len(s.Args)}
		}
		argIndices, pops, err := t.translateArgs(s.Args)
		if err != nil {
			return err
		}
		t.emitRaw(makeCallBytes(fnIdx, false, argIndices))
		for i := 0; i < pops; i++ {
			t.emit(OpPop, 0)
		}
		t.stackIdx -= pops
		return nil
	}
	if fn, ok := t.internalFns[name]; ok {
		if len(s.Args) != len(fn.params) {
			return ArgumentCountMismatchError{Name: name, Expected: len(fn.params), Got: len(s.Args)}
		}
		if err := t.translateInternalCallArgs(s.Args); err != nil {
			return err
		}
		t.emitCallLocal(name)
		// Return collapses the whole frame (args, now all fresh temps) down
		// to a single result slot; this is a statement, so discard it too.
		t.stackIdx -= len(s.Args) - 1
		t.emit(OpPop, 0)
		t.stackIdx--
		return nil
	}
	return UnknownSymbolError{Name: name}
}

// translateArgs lowers a host-call argument list, where each argument may
// reference an existing binding directly (OpCall addresses arguments by
// absolute stack index, so no duplication is needed). It returns the
// resulting argument indices and the total number of fresh temporaries
// created across all of them, for the caller to clean up afterward.
func (t *Translator) translateArgs(args []ast.Expression) (indices []int, pops int, err error) {
	indices = make([]int, len(args))
	for i, a := range args {
		temps := t.exprTempCount(a)
		idx, err := t.translateExpr(a)
		if err != nil {
			return nil, 0, err
		}
		indices[i] = idx
		pops += temps
	}
	return indices, pops, nil
}

// translateInternalCallArgs lowers an internal-call argument list. Unlike
// a host call, CallLocal carries no argument-index list: the callee's
// parameters bind to fixed absolute indices at the top of the stack, so
// every argument must land in its own fresh, contiguous temporary even if
// it's a bare reference to an existing binding.
func (t *Translator) translateInternalCallArgs(args []ast.Expression) error {
	for _, a := range args {
		temps := t.exprTempCount(a)
		idx, err := t.translateExpr(a)
		if err != nil {
			return err
		}
		if temps == 0 {
			t.duplicateToFreshTemp(idx)
		}
	}
	return nil
}

// duplicateToFreshTemp copies the value at srcIdx into a brand-new top
// slot. Used only to materialize a fresh temporary for an internal call
// argument that otherwise reused an existing binding without growing the
// stack.
func (t *Translator) duplicateToFreshTemp(srcIdx int) int {
	placeholderConst := t.addConstant(value.NullValue)
	t.emit(OpPush, placeholderConst)
	newIdx := t.stackIdx
	t.stackIdx++
	t.emit(OpMov, srcIdx, newIdx)
	return newIdx
}

// emitCallLocal emits a CallLocal placeholder and records it for linking.
func (t *Translator) emitCallLocal(calleeName string) {
	localOffset := len(t.code)
	t.code = append(t.code, MakeInstruction(OpCallLocal, 0)...)
	t.callSites = append(t.callSites, callSite{calleeName: calleeName, unit: t.currentFn, localOffset: localOffset})
}

func (t *Translator) translateWhileStmt(s ast.WhileStmt) error {
	pops := t.exprTempCount(s.Condition)

	leadingJumpPos := len(t.code)
	t.code = append(t.code, MakeInstruction(OpJump, 0)...)
	// The loop-back JumpCond lands here, so each iteration first drops the
	// previous condition's temporaries.
	bodyStartPos := len(t.code)
	for i := 0; i < pops; i++ {
		t.emit(OpPop, 0)
	}

	t.beginScope()
	if err := t.translateStatements(s.Body); err != nil {
		return err
	}
	t.endScope()

	condStartPos := len(t.code)
	condIdx, err := t.translateExpr(s.Condition)
	if err != nil {
		return err
	}

	t.patchRelOffset(leadingJumpPos, condStartPos-leadingJumpPos)

	jumpCondPos := len(t.code)
	t.code = append(t.code, MakeInstruction(OpJumpCond, 0, condIdx)...)
	t.patchRelOffset(jumpCondPos, bodyStartPos-jumpCondPos)

	for i := 0; i < pops; i++ {
		t.emit(OpPop, 0)
	}
	t.stackIdx -= pops
	return nil
}

// translateIfStmt lowers an ordered sequence of (condition, body) pairs
// plus an optional fallback using the standard "test, branch-to-then,
// fall-through to next-check" idiom: a JumpCond to the then-branch
// followed by an unconditional Jump to the next check, rather than a
// single forward-skipping JumpCond. The reference engine's Conditional
// lowering inverts this (its single forward JumpCond would, per the VM's
// own branch-iff-true semantics, skip the body exactly when the condition
// is true) — not reproduced here; see DESIGN.md.
func (t *Translator) translateIfStmt(s ast.IfStmt) error {
	var endJumps []int
	for _, branch := range s.Branches {
		condIdx, err := t.translateExpr(branch.Condition)
		if err != nil {
			return err
		}
		condPops := t.exprTempCount(branch.Condition)

		jumpCondPos := len(t.code)
		t.code = append(t.code, MakeInstruction(OpJumpCond, 0, condIdx)...)

		for i := 0; i < condPops; i++ {
			t.emit(OpPop, 0)
		}
		skipToNextPos := len(t.code)
		t.code = append(t.code, MakeInstruction(OpJump, 0)...)
		t.stackIdx -= condPops

		thenStart := len(t.code)
		t.patchRelOffset(jumpCondPos, thenStart-jumpCondPos)
		for i := 0; i < condPops; i++ {
			t.emit(OpPop, 0)
		}

		t.beginScope()
		if err := t.translateStatements(branch.Body); err != nil {
			return err
		}
		t.endScope()

		endJumpPos := len(t.code)
		t.code = append(t.code, MakeInstruction(OpJump, 0)...)
		endJumps = append(endJumps, endJumpPos)

		nextCheckStart := len(t.code)
		t.patchRelOffset(skipToNextPos, nextCheckStart-skipToNextPos)
	}

	t.beginScope()
	if err := t.translateStatements(s.Fallback); err != nil {
		return err
	}
	t.endScope()

	end := len(t.code)
	for _, pos := range endJumps {
		t.patchRelOffset(pos, end-pos)
	}
	return nil
}

func (t *Translator) translateFuncStmt(s ast.FuncStmt) error {
	if t.currentFn != "" {
		return NestedFunctionDefinitionError{Name: s.Name.Lexeme}
	}
	fn := t.internalFns[s.Name.Lexeme]

	savedCode, savedStackIdx, savedVars, savedScopes, savedCurrentFn := t.code, t.stackIdx, t.vars, t.scopes, t.currentFn
	t.code = nil
	t.vars = make(map[string][]int)
	t.scopes = nil
	t.currentFn = s.Name.Lexeme

	for i, p := range fn.params {
		t.vars[p] = []int{i}
	}
	t.stackIdx = len(fn.params)

	err := t.translateStatements(s.Body)
	if err == nil && (len(t.code) < 3 || Opcode(t.code[len(t.code)-InstructionWidth(OpReturn)]) != OpReturn) {
		t.emit(OpReturn, 0)
		t.recordReturn(fn, false)
	}

	fn.body = Instructions(t.code)

	t.code, t.stackIdx, t.vars, t.scopes, t.currentFn = savedCode, savedStackIdx, savedVars, savedScopes, savedCurrentFn
	return err
}

func (t *Translator) translateReturnStmt(s ast.ReturnStmt) error {
	hasVal := s.Value != nil
	// Code after this statement only runs on paths that did not return, so
	// the value pushed for the Return does not count toward their depth.
	entryStackIdx := t.stackIdx
	defer func() { t.stackIdx = entryStackIdx }()
	if hasVal {
		if _, err := t.translateExpr(s.Value); err != nil {
			return err
		}
	}
	if fn, ok := t.internalFns[t.currentFn]; ok {
		if err := t.recordReturn(fn, hasVal); err != nil {
			return err
		}
	}
	val := 0
	if hasVal {
		val = 1
	}
	t.emit(OpReturn, val)
	return nil
}

func (t *Translator) recordReturn(fn *internalFn, hasValue bool) error {
	if fn.seenReturn && fn.hasValue != hasValue {
		return InconsistentReturnError{Name: fn.name}
	}
	fn.seenReturn = true
	fn.hasValue = hasValue
	return nil
}

// translateExpr lowers a single expression, returning the absolute stack
// index where its result lives. Every case except Variable (resolving to
// an existing binding) increments stackIdx by exactly one net temporary.
func (t *Translator) translateExpr(expr ast.Expression) (int, error) {
	switch e := expr.(type) {
	case ast.Literal:
		return t.translateLiteral(e)
	case ast.Variable:
		return t.translateVariable(e)
	case ast.Unary:
		return t.translateUnary(e)
	case ast.Binary:
		return t.translateBinary(e)
	case ast.Call:
		return t.translateCallExpr(e)
	default:
		return 0, SemanticError{Message: "unrecognized expression"}
	}
}

func (t *Translator) translateLiteral(l ast.Literal) (int, error) {
	var v value.Value
	switch l.Token.Type {
	case token.NUMBER:
		v = value.NewDecimal(l.Value.(float64))
	case token.STRING:
		v = value.NewString(l.Value.(string))
	case token.BOOL:
		v = value.NewBool(l.Value.(bool))
	default:
		return 0, SemanticError{Message: "literal token carries no interpretable value"}
	}
	constIdx := t.addConstant(v)
	t.emit(OpPush, constIdx)
	idx := t.stackIdx
	t.stackIdx++
	return idx, nil
}

func (t *Translator) translateVariable(v ast.Variable) (int, error) {
	if idx, ok := t.resolveVar(v.Name.Lexeme); ok {
		return idx, nil
	}
	if fn, ok := t.internalFns[v.Name.Lexeme]; ok {
		constIdx := t.addConstant(value.NewFunction(uint64(fn.index)))
		t.emit(OpPush, constIdx)
		idx := t.stackIdx
		t.stackIdx++
		return idx, nil
	}
	return 0, UnknownSymbolError{Name: v.Name.Lexeme}
}

func (t *Translator) translateUnary(u ast.Unary) (int, error) {
	operandTemps := t.exprTempCount(u.Right)
	operandIdx, err := t.translateExpr(u.Right)
	if err != nil {
		return 0, err
	}
	t.emit(OpNot, operandIdx)
	result := t.stackIdx
	t.stackIdx++
	for i := 0; i < operandTemps; i++ {
		t.emit(OpPop, 1)
	}
	t.stackIdx -= operandTemps
	return result - operandTemps, nil
}

func (t *Translator) translateBinary(b ast.Binary) (int, error) {
	leftTemps := t.exprTempCount(b.Left)
	leftIdx, err := t.translateExpr(b.Left)
	if err != nil {
		return 0, err
	}
	rightTemps := t.exprTempCount(b.Right)
	rightIdx, err := t.translateExpr(b.Right)
	if err != nil {
		return 0, err
	}

	switch b.Operator.Type {
	case token.ADD:
		t.emit(OpAdd, leftIdx, rightIdx)
	case token.SUB:
		t.emit(OpSub, leftIdx, rightIdx)
	case token.MULT:
		t.emit(OpMul, leftIdx, rightIdx)
	case token.DIV:
		t.emit(OpDiv, leftIdx, rightIdx)
	case token.MOD:
		t.emit(OpMod, leftIdx, rightIdx)
	case token.AND:
		t.emit(OpAnd, leftIdx, rightIdx)
	case token.OR:
		t.emit(OpOr, leftIdx, rightIdx)
	case token.EQUAL_EQUAL:
		t.emit(OpCompare, leftIdx, rightIdx, int(OrderingEqual))
	case token.NOT_EQUAL:
		t.emit(OpCompare, leftIdx, rightIdx, int(OrderingNotEqual))
	case token.LARGER:
		t.emit(OpCompare, leftIdx, rightIdx, int(OrderingGreater))
	case token.LESS:
		t.emit(OpCompare, leftIdx, rightIdx, int(OrderingLess))
	case token.LARGER_EQUAL:
		// Ge: swap operands, test Less.
		t.emit(OpCompare, rightIdx, leftIdx, int(OrderingLess))
	case token.LESS_EQUAL:
		// Le: swap operands, test Greater.
		t.emit(OpCompare, rightIdx, leftIdx, int(OrderingGreater))
	default:
		return 0, SemanticError{Message: "unrecognized binary operator " + string(b.Operator.Type)}
	}

	result := t.stackIdx
	t.stackIdx++
	// Only genuine temporaries need cleaning up: an operand that's a bare
	// reference to an existing binding contributed nothing to the stack and
	// must not be popped, or it would remove that binding's own slot.
	pops := leftTemps + rightTemps
	for i := 0; i < pops; i++ {
		t.emit(OpPop, 1)
	}
	t.stackIdx -= pops
	return result - pops, nil
}

func (t *Translator) translateCallExpr(c ast.Call) (int, error) {
	name := c.Name.Lexeme
	if fnIdx, ok := t.hostFns.Resolve(name); ok {
		fn := t.hostFns.Get(fnIdx)
		if !host.CheckArity(fn, len(c.Args)) {
			return 0, ArgumentCountMismatchError{Name: name, Expected: len(fn.Params), Got: len(c.Args)}
		}
		argIndices, pops, err := t.translateArgs(c.Args)
		if err != nil {
			return 0, err
		}
		t.emitRaw(makeCallBytes(fnIdx, true, argIndices))
		result := t.stackIdx
		t.stackIdx++
		for i := 0; i < pops; i++ {
			t.emit(OpPop, 1)
		}
		t.stackIdx -= pops
		return result - pops, nil
	}
	if fn, ok := t.internalFns[name]; ok {
		if len(c.Args) != len(fn.params) {
			return 0, ArgumentCountMismatchError{Name: name, Expected: len(fn.params), Got: len(c.Args)}
		}
		frameBase := t.stackIdx
		if err := t.translateInternalCallArgs(c.Args); err != nil {
			return 0, err
		}
		t.emitCallLocal(name)
		// The callee's Return collapses its whole frame (params + locals)
		// down to a single slot at frameBase holding the return value.
		t.stackIdx = frameBase + 1
		return frameBase, nil
	}
	return 0, UnknownSymbolError{Name: name}
}

// exprTempCount predicts, without emitting any code, how many temporaries
// translating expr will leave for the caller to clean up: zero for a bare
// reference to an existing binding, one otherwise. This lets loop
// translation size its pre-body pop block before the condition itself is
// translated (the condition is lowered after the body, once scope exit has
// restored stackIdx to the loop's entry value).
func (t *Translator) exprTempCount(expr ast.Expression) int {
	if v, ok := expr.(ast.Variable); ok {
		if _, ok := t.resolveVar(v.Name.Lexeme); ok {
			return 0
		}
	}
	return 1
}

func (t *Translator) resolveVar(name string) (int, bool) {
	indices, ok := t.vars[name]
	if !ok || len(indices) == 0 {
		return 0, false
	}
	return indices[len(indices)-1], true
}

func (t *Translator) declareVar(name string, idx int) {
	t.vars[name] = append(t.vars[name], idx)
	if len(t.scopes) > 0 {
		t.scopes[len(t.scopes)-1] = append(t.scopes[len(t.scopes)-1], name)
	}
}

func (t *Translator) beginScope() {
	t.scopes = append(t.scopes, []string{})
}

// endScope pops every variable binding introduced in the current scope and
// emits one Pop 0 per net slot of stack growth, restoring stackIdx to the
// value it held on scope entry.
func (t *Translator) endScope() {
	names := t.scopes[len(t.scopes)-1]
	t.scopes = t.scopes[:len(t.scopes)-1]
	for _, name := range names {
		indices := t.vars[name]
		t.vars[name] = indices[:len(indices)-1]
	}
	for range names {
		t.emit(OpPop, 0)
	}
	t.stackIdx -= len(names)
}

func (t *Translator) addConstant(v value.Value) int {
	t.constants = append(t.constants, v)
	return len(t.constants) - 1
}

func (t *Translator) emit(op Opcode, operands ...int) int {
	pos := len(t.code)
	t.code = append(t.code, MakeInstruction(op, operands...)...)
	return pos
}

// emitRaw appends an already-encoded instruction (used for OpCall, whose
// variable-length argument tail MakeCall encodes directly).
func (t *Translator) emitRaw(instr []byte) int {
	pos := len(t.code)
	t.code = append(t.code, instr...)
	return pos
}

func makeCallBytes(fnIdx int, pushRet bool, argIndices []int) []byte {
	return MakeCall(fnIdx, pushRet, argIndices)
}

// patchRelOffset rewrites the relative-offset operand of the Jump,
// JumpCond, or CallLocal instruction at pos to target.
func (t *Translator) patchRelOffset(pos int, relOff int) {
	binaryPutInt16(t.code, pos+1, relOff)
}

// optimize repeatedly removes adjacent Push+Pop(0) pairs, repairing any
// Jump/JumpCond/CallLocal relative offset that straddles the removed bytes
// (so branch and call targets remain stable) and any funcOffsets entry
// past the removal point, until no more such pairs remain.
func (t *Translator) optimize(code []byte, funcOffsets []*int) []byte {
	for {
		removedAt := -1
		pushWidth := InstructionWidth(OpPush)
		popWidth := InstructionWidth(OpPop)
		for i := 0; i+pushWidth+popWidth <= len(code); {
			op := Opcode(code[i])
			width := instructionWidthAt(code, i)
			if op == OpPush && i+pushWidth+popWidth <= len(code) && Opcode(code[i+pushWidth]) == OpPop && ReadUint16(Instructions(code), i+pushWidth+1) == 0 {
				removedAt = i
				break
			}
			i += width
		}
		if removedAt == -1 {
			return code
		}
		removedWidth := pushWidth + popWidth
		code = repairJumpsAcrossRemoval(code, removedAt, removedWidth)
		for _, off := range funcOffsets {
			if *off > removedAt {
				*off -= removedWidth
			}
		}
		code = append(code[:removedAt], code[removedAt+removedWidth:]...)
	}
}

// instructionWidthAt returns the byte width of the instruction starting at
// offset, handling OpCall's variable-length argument-index tail.
func instructionWidthAt(code []byte, offset int) int {
	op := Opcode(code[offset])
	if op == OpCall {
		_, _, _, width := ReadCallOperands(Instructions(code), offset+1)
		return width
	}
	return InstructionWidth(op)
}

// repairJumpsAcrossRemoval decrements (or increments, if the jump runs
// backward) the relative offset of every Jump/JumpCond/CallLocal whose
// instruction range straddles [removedAt, removedAt+removedWidth), so its
// target byte position is unaffected by the upcoming splice.
func repairJumpsAcrossRemoval(code []byte, removedAt int, removedWidth int) []byte {
	for i := 0; i < len(code); {
		op := Opcode(code[i])
		width := instructionWidthAt(code, i)
		switch op {
		case OpJump, OpCallLocal:
			rel := ReadInt16(Instructions(code), i+1)
			target := i + rel
			adjustIfStraddling(code, i, target, removedAt, removedWidth, i+1)
		case OpJumpCond:
			rel := ReadInt16(Instructions(code), i+1)
			target := i + rel
			adjustIfStraddling(code, i, target, removedAt, removedWidth, i+1)
		}
		i += width
	}
	return code
}

func adjustIfStraddling(code []byte, instrPos, target, removedAt, removedWidth, operandPos int) {
	low, high := instrPos, target
	if high < low {
		low, high = high, low
	}
	if removedAt < low || removedAt >= high {
		return
	}
	rel := ReadInt16(Instructions(code), operandPos)
	if target >= instrPos {
		rel -= removedWidth
	} else {
		rel += removedWidth
	}
	binaryPutInt16(code, operandPos, rel)
}

func binaryPutInt16(code []byte, offset int, v int) {
	code[offset] = byte(int16(v) >> 8)
	code[offset+1] = byte(int16(v))
}
