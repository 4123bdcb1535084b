package vm

import (
	"fmt"
	"math"

	"nilan/compiler"
	"nilan/host"
	"nilan/value"
)

// frame records what a CallLocal instruction needs Return to restore: the
// instruction offset execution resumes at in the caller, and the absolute
// stack index where the callee's args/locals begin (its "base pointer").
// Return truncates the stack back to base before pushing the result,
// collapsing the whole frame down to a single slot.
type frame struct {
	returnIP int
	base     int
}

// Represents a stack based virtual-machine (VM).
// It is the runtime environment where Nilan bytecode
// gets executed.
type VM struct {
	stack      Stack
	ip         int
	debug      bool
	frames     []frame
	stackLimit int
}

// Creates a new VM instance
func New() *VM {
	return &VM{}
}

// frameBase returns the absolute stack index every frame-relative operand
// in the currently executing unit must be offset by: the active call
// frame's base, or 0 while running top-level code. The translator resets
// its simulated stack index to 0 (params bound at 0..paramCount-1) at the
// start of each function body, so every index it bakes into an
// instruction is relative to that function's own frame, not the physical
// stack — this is what turns it back into an absolute index.
func (vm *VM) frameBase() int {
	if len(vm.frames) == 0 {
		return 0
	}
	return vm.frames[len(vm.frames)-1].base
}

// SetDebug toggles instruction-trace printing during Run, matching the
// teacher's original "debug" field on VM.
func (vm *VM) SetDebug(debug bool) {
	vm.debug = debug
}

// SetStackLimit bounds how many slots the operand stack may grow to; Run
// fails with a RuntimeError rather than growing past it. A limit of 0
// (the zero value) leaves the stack unbounded.
func (vm *VM) SetStackLimit(limit int) {
	vm.stackLimit = limit
}

// Run executes bytecode to completion against hostFns, returning the
// value of the program's final top-level Return (or Null if it falls off
// the end of its instructions without one).
//
// It fetches and decodes each instruction starting at the VM's current
// instruction pointer (ip), dispatches on its opcode, and mutates the
// VM's stack and frame state accordingly. The instruction pointer is
// advanced by the size of the current instruction after execution, except
// for Jump/JumpCond/CallLocal/Return, which set it directly.
func (vm *VM) Run(bytecode compiler.Bytecode, hostFns *host.Table) (value.Value, error) {
	vm.stack = nil
	vm.ip = 0
	vm.frames = nil

	paramCountAt := make(map[int]int, len(bytecode.Functions))
	for _, fn := range bytecode.Functions {
		paramCountAt[fn.Offset] = fn.ParamCount
	}

	ins := bytecode.Instructions
	for vm.ip < len(ins) {
		if vm.debug {
			line, _ := compiler.Disassemble(ins, vm.ip)
			fmt.Println(line)
		}

		op := compiler.Opcode(ins[vm.ip])
		if vm.stackLimit > 0 && vm.stack.Len() >= vm.stackLimit {
			return value.NullValue, RuntimeError{Message: "stack limit exceeded"}
		}
		switch op {
		case compiler.OpPush:
			constIdx := compiler.ReadUint16(ins, vm.ip+1)
			if constIdx < 0 || constIdx >= len(bytecode.ConstantsPool) {
				return value.NullValue, RuntimeError{Message: "Push references an out-of-range constant"}
			}
			vm.stack.Push(bytecode.ConstantsPool[constIdx].Clone())
			vm.ip += compiler.InstructionWidth(op)

		case compiler.OpPop:
			offset := compiler.ReadUint16(ins, vm.ip+1)
			if _, ok := vm.stack.RemoveAt(offset); !ok {
				return value.NullValue, RuntimeError{Message: "Pop references an out-of-range stack offset"}
			}
			vm.ip += compiler.InstructionWidth(op)

		case compiler.OpMov:
			base := vm.frameBase()
			src := base + compiler.ReadUint16(ins, vm.ip+1)
			dst := base + compiler.ReadUint16(ins, vm.ip+3)
			v, ok := vm.stack.Get(src)
			if !ok {
				return value.NullValue, RuntimeError{Message: "Mov source index out of range"}
			}
			if ok := vm.stack.Set(dst, v.Clone()); !ok {
				return value.NullValue, RuntimeError{Message: "Mov destination index out of range"}
			}
			vm.ip += compiler.InstructionWidth(op)

		case compiler.OpCall:
			fnIdx, pushRet, argIndices, width := compiler.ReadCallOperands(ins, vm.ip+1)
			fn := hostFns.Get(fnIdx)
			base := vm.frameBase()
			args := make([]value.Value, len(argIndices))
			for i, idx := range argIndices {
				v, ok := vm.stack.Get(base + idx)
				if !ok {
					return value.NullValue, RuntimeError{Message: "Call argument index out of range"}
				}
				args[i] = v
			}
			result, ok := fn.Call(args)
			if !ok {
				return value.NullValue, host.Error{FuncName: fn.Name}
			}
			if pushRet {
				vm.stack.Push(result)
			}
			vm.ip += width

		case compiler.OpCallLocal:
			relOff := compiler.ReadInt16(ins, vm.ip+1)
			target := vm.ip + relOff
			paramCount, ok := paramCountAt[target]
			if !ok {
				return value.NullValue, RuntimeError{Message: "CallLocal target is not a known function entry point"}
			}
			base := vm.stack.Len() - paramCount
			if base < 0 {
				return value.NullValue, RuntimeError{Message: "stack underflow computing call frame base"}
			}
			vm.frames = append(vm.frames, frame{
				returnIP: vm.ip + compiler.InstructionWidth(op),
				base:     base,
			})
			vm.ip = target

		case compiler.OpReturn:
			hasVal := ins[vm.ip+1] != 0
			retVal := value.NullValue
			if hasVal {
				v, ok := vm.stack.Pop()
				if !ok {
					return value.NullValue, RuntimeError{Message: "Return with has_val but an empty stack"}
				}
				retVal = v
			}
			if len(vm.frames) == 0 {
				return retVal, nil
			}
			fr := vm.frames[len(vm.frames)-1]
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.stack.Truncate(fr.base)
			vm.stack.Push(retVal)
			vm.ip = fr.returnIP

		case compiler.OpAdd, compiler.OpSub, compiler.OpMul, compiler.OpDiv, compiler.OpMod:
			result, err := vm.arith(op, ins)
			if err != nil {
				return value.NullValue, err
			}
			vm.stack.Push(result)
			vm.ip += compiler.InstructionWidth(op)

		case compiler.OpAnd, compiler.OpOr:
			result, err := vm.boolOp(op, ins)
			if err != nil {
				return value.NullValue, err
			}
			vm.stack.Push(result)
			vm.ip += compiler.InstructionWidth(op)

		case compiler.OpNot:
			idx := vm.frameBase() + compiler.ReadUint16(ins, vm.ip+1)
			v, ok := vm.stack.Get(idx)
			if !ok {
				return value.NullValue, RuntimeError{Message: "Not operand index out of range"}
			}
			b, ok := v.AsBool()
			if !ok {
				return value.NullValue, RuntimeError{Message: "Not operand is not a Bool"}
			}
			vm.stack.Push(value.NewBool(!b))
			vm.ip += compiler.InstructionWidth(op)

		case compiler.OpJump:
			relOff := compiler.ReadInt16(ins, vm.ip+1)
			vm.ip += relOff

		case compiler.OpJumpCond:
			relOff := compiler.ReadInt16(ins, vm.ip+1)
			condIdx := vm.frameBase() + compiler.ReadUint16(ins, vm.ip+3)
			v, ok := vm.stack.Get(condIdx)
			if !ok {
				return value.NullValue, RuntimeError{Message: "JumpCond condition index out of range"}
			}
			b, ok := v.AsBool()
			if !ok {
				return value.NullValue, RuntimeError{Message: "JumpCond condition is not a Bool"}
			}
			if b {
				vm.ip += relOff
			} else {
				vm.ip += compiler.InstructionWidth(op)
			}

		case compiler.OpCompare:
			result, err := vm.compare(ins)
			if err != nil {
				return value.NullValue, err
			}
			vm.stack.Push(result)
			vm.ip += compiler.InstructionWidth(op)

		default:
			return value.NullValue, RuntimeError{Message: fmt.Sprintf("unknown opcode %v at ip %d", op, vm.ip)}
		}
	}

	return value.NullValue, nil
}

func (vm *VM) operandDecimals(ins compiler.Instructions, op compiler.Opcode) (float64, float64, error) {
	base := vm.frameBase()
	arg1 := base + compiler.ReadUint16(ins, vm.ip+1)
	arg2 := base + compiler.ReadUint16(ins, vm.ip+3)
	v1, ok := vm.stack.Get(arg1)
	if !ok {
		return 0, 0, RuntimeError{Message: "binary operand index out of range"}
	}
	v2, ok := vm.stack.Get(arg2)
	if !ok {
		return 0, 0, RuntimeError{Message: "binary operand index out of range"}
	}
	d1, ok := v1.AsDecimal()
	if !ok {
		return 0, 0, RuntimeError{Message: fmt.Sprintf("%s operand is not a Decimal", opName(op))}
	}
	d2, ok := v2.AsDecimal()
	if !ok {
		return 0, 0, RuntimeError{Message: fmt.Sprintf("%s operand is not a Decimal", opName(op))}
	}
	return d1, d2, nil
}

func (vm *VM) arith(op compiler.Opcode, ins compiler.Instructions) (value.Value, error) {
	d1, d2, err := vm.operandDecimals(ins, op)
	if err != nil {
		return value.NullValue, err
	}
	switch op {
	case compiler.OpAdd:
		return value.NewDecimal(d1 + d2), nil
	case compiler.OpSub:
		return value.NewDecimal(d1 - d2), nil
	case compiler.OpMul:
		return value.NewDecimal(d1 * d2), nil
	case compiler.OpDiv:
		return value.NewDecimal(d1 / d2), nil
	case compiler.OpMod:
		return value.NewDecimal(math.Mod(d1, d2)), nil
	default:
		return value.NullValue, RuntimeError{Message: "unreachable arithmetic opcode"}
	}
}

func (vm *VM) boolOp(op compiler.Opcode, ins compiler.Instructions) (value.Value, error) {
	base := vm.frameBase()
	arg1 := base + compiler.ReadUint16(ins, vm.ip+1)
	arg2 := base + compiler.ReadUint16(ins, vm.ip+3)
	v1, ok := vm.stack.Get(arg1)
	if !ok {
		return value.NullValue, RuntimeError{Message: "binary operand index out of range"}
	}
	v2, ok := vm.stack.Get(arg2)
	if !ok {
		return value.NullValue, RuntimeError{Message: "binary operand index out of range"}
	}
	b1, ok := v1.AsBool()
	if !ok {
		return value.NullValue, RuntimeError{Message: fmt.Sprintf("%s operand is not a Bool", opName(op))}
	}
	b2, ok := v2.AsBool()
	if !ok {
		return value.NullValue, RuntimeError{Message: fmt.Sprintf("%s operand is not a Bool", opName(op))}
	}
	switch op {
	case compiler.OpAnd:
		return value.NewBool(b1 && b2), nil
	case compiler.OpOr:
		return value.NewBool(b1 || b2), nil
	default:
		return value.NullValue, RuntimeError{Message: "unreachable boolean opcode"}
	}
}

func (vm *VM) compare(ins compiler.Instructions) (value.Value, error) {
	base := vm.frameBase()
	arg1 := base + compiler.ReadUint16(ins, vm.ip+1)
	arg2 := base + compiler.ReadUint16(ins, vm.ip+3)
	expected := compiler.Ordering(ins[vm.ip+5])
	v1, ok := vm.stack.Get(arg1)
	if !ok {
		return value.NullValue, RuntimeError{Message: "Compare operand index out of range"}
	}
	v2, ok := vm.stack.Get(arg2)
	if !ok {
		return value.NullValue, RuntimeError{Message: "Compare operand index out of range"}
	}
	if v1.Kind != v2.Kind {
		return value.NullValue, RuntimeError{Message: "Compare operands have mismatched kinds"}
	}
	cmp, ok := v1.Compare(v2)
	if !ok {
		return value.NullValue, RuntimeError{Message: fmt.Sprintf("%s values are not orderable", v1.Kind)}
	}
	var actual compiler.Ordering
	switch {
	case cmp < 0:
		actual = compiler.OrderingLess
	case cmp > 0:
		actual = compiler.OrderingGreater
	default:
		actual = compiler.OrderingEqual
	}
	if expected == compiler.OrderingNotEqual {
		return value.NewBool(actual != compiler.OrderingEqual), nil
	}
	return value.NewBool(actual == expected), nil
}

func opName(op compiler.Opcode) string {
	def, err := compiler.Get(op)
	if err != nil {
		return "opcode"
	}
	return def.Name
}
