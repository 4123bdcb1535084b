package compiler

import (
	"encoding/binary"
	"fmt"

	"nilan/value"
)

// Bytecode is the translator's output: a linear instruction tape plus the
// constant pool referenced by Push instructions, ready to be handed to the
// VM for execution.
type Bytecode struct {
	Instructions  Instructions
	ConstantsPool []value.Value
	Functions     []FuncMeta
}

// FuncMeta records where a linked internal function's body begins in the
// combined instruction tape and how many parameters it takes. CallLocal's
// own operand is only a relative jump offset, so the VM looks up the
// landing offset here to learn how many stack slots the call's frame
// occupies — needed to compute the frame's base pointer when CallLocal
// executes.
type FuncMeta struct {
	Offset     int
	ParamCount int
}

type Opcode byte

type Instructions []byte

// Ordering is the comparison outcome a Compare instruction tests the two
// operands against. Values mirror the reference engine's ordering enum.
type Ordering byte

const (
	OrderingLess Ordering = iota
	OrderingEqual
	OrderingGreater
	OrderingNotEqual
)

func (o Ordering) String() string {
	switch o {
	case OrderingLess:
		return "Less"
	case OrderingEqual:
		return "Equal"
	case OrderingGreater:
		return "Greater"
	case OrderingNotEqual:
		return "NotEqual"
	default:
		return "Unknown"
	}
}

// opcodes
// iota generates a distinct byte for each bytecode.
const (
	// OpPush has a single operand: a uint16 index into the constant pool.
	OpPush Opcode = iota
	// OpPop has a single operand: the uint16 offset from the top of the
	// stack to remove (0 = top, 1 = second-from-top).
	OpPop
	// OpMov has two uint16 operands: src absolute stack index, dst
	// absolute stack index.
	OpMov
	// OpCall has a uint16 fn_idx and a byte push_ret flag, followed by a
	// variable-length list of uint16 argument stack indices (see
	// MakeCall/ReadCallOperands, since the generic fixed-width operand
	// table can't express a count-prefixed tail).
	OpCall
	// OpCallLocal has a single operand: a relative instruction offset,
	// stored as a two's-complement uint16.
	OpCallLocal
	// OpReturn has a single operand: a byte has_val flag.
	OpReturn
	// OpAdd/OpSub/OpMul/OpDiv/OpMod/OpAnd/OpOr each have two uint16
	// operands: the absolute stack indices of the two operands.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	// OpNot has a single uint16 operand: the absolute stack index of its
	// boolean operand.
	OpNot
	// OpJump has a single operand: a relative instruction offset, stored
	// as a two's-complement uint16.
	OpJump
	// OpJumpCond has a relative offset operand followed by a uint16
	// absolute stack index naming the boolean condition operand.
	OpJumpCond
	// OpCompare has two uint16 operand indices followed by a byte
	// Ordering to test for.
	OpCompare
)

// OpCodeDefinition describes an opcode's human-readable name and the width
// (in bytes) of each of its fixed-position operands. OpCall's trailing
// argument-index list is not represented here; it is handled by the
// dedicated MakeCall/ReadCallOperands pair.
type OpCodeDefinition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*OpCodeDefinition{
	OpPush:      {Name: "OpPush", OperandWidths: []int{2}},
	OpPop:       {Name: "OpPop", OperandWidths: []int{2}},
	OpMov:       {Name: "OpMov", OperandWidths: []int{2, 2}},
	OpCall:      {Name: "OpCall", OperandWidths: []int{2, 1}},
	OpCallLocal: {Name: "OpCallLocal", OperandWidths: []int{2}},
	OpReturn:    {Name: "OpReturn", OperandWidths: []int{1}},
	OpAdd:       {Name: "OpAdd", OperandWidths: []int{2, 2}},
	OpSub:       {Name: "OpSub", OperandWidths: []int{2, 2}},
	OpMul:       {Name: "OpMul", OperandWidths: []int{2, 2}},
	OpDiv:       {Name: "OpDiv", OperandWidths: []int{2, 2}},
	OpMod:       {Name: "OpMod", OperandWidths: []int{2, 2}},
	OpAnd:       {Name: "OpAnd", OperandWidths: []int{2, 2}},
	OpOr:        {Name: "OpOr", OperandWidths: []int{2, 2}},
	OpNot:       {Name: "OpNot", OperandWidths: []int{2}},
	OpJump:      {Name: "OpJump", OperandWidths: []int{2}},
	OpJumpCond:  {Name: "OpJumpCond", OperandWidths: []int{2, 2}},
	OpCompare:   {Name: "OpCompare", OperandWidths: []int{2, 2, 1}},
}

func Get(op Opcode) (*OpCodeDefinition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("opcode: '%d' undefined", op)
	}
	return def, nil
}

// InstructionWidth returns the total byte length (opcode + operands) of op's
// fixed-shape encoding. For OpCall this is only the fixed prefix; callers
// must additionally account for the trailing argument-index list.
func InstructionWidth(op Opcode) int {
	def, err := Get(op)
	if err != nil {
		return 0
	}
	width := 1
	for _, w := range def.OperandWidths {
		width += w
	}
	return width
}

// MakeInstruction encodes an opcode and its fixed-position operands in
// Big-Endian order. Operand values wider than their declared width are
// truncated; negative values (used for relative jump offsets) are stored
// as their two's-complement bit pattern.
//
// Example:
//
//	instr := MakeInstruction(OpPush, 42)
//	// instr now contains: [<opcode for OpPush>, 0x00, 0x2A]
func MakeInstruction(op Opcode, operands ...int) []byte {
	def, err := Get(op)
	if err != nil {
		return []byte{}
	}

	instruction := make([]byte, InstructionWidth(op))
	instruction[0] = byte(op)

	byteOffset := 1
	for i, o := range operands {
		width := def.OperandWidths[i]
		switch width {
		case 1:
			instruction[byteOffset] = byte(o)
		case 2:
			binary.BigEndian.PutUint16(instruction[byteOffset:], uint16(int16(o)))
		}
		byteOffset += width
	}
	return instruction
}

// MakeCall encodes an OpCall instruction: the fixed fn_idx/push_ret prefix
// followed by a byte argument count and one uint16 per argument stack
// index. The count-prefixed tail is why OpCall can't be expressed through
// the generic fixed-width OperandWidths table alone.
func MakeCall(fnIdx int, pushRet bool, argIndices []int) []byte {
	pushRetByte := 0
	if pushRet {
		pushRetByte = 1
	}
	instruction := MakeInstruction(OpCall, fnIdx, pushRetByte)
	instruction = append(instruction, byte(len(argIndices)))
	for _, idx := range argIndices {
		buf := make([]byte, 2)
		binary.BigEndian.PutUint16(buf, uint16(idx))
		instruction = append(instruction, buf...)
	}
	return instruction
}

// ReadUint16 reads a Big-Endian uint16 operand starting at offset.
func ReadUint16(ins Instructions, offset int) int {
	return int(binary.BigEndian.Uint16(ins[offset:]))
}

// ReadInt16 reads a Big-Endian two's-complement int16 operand starting at
// offset, used for relative jump/call offsets which may be negative.
func ReadInt16(ins Instructions, offset int) int {
	return int(int16(binary.BigEndian.Uint16(ins[offset:])))
}

// ReadCallOperands decodes an OpCall instruction's operands starting right
// after its opcode byte at offset. It returns fn_idx, push_ret, the
// argument stack indices, and the total width of the instruction
// (including the opcode byte), for advancing the instruction pointer.
func ReadCallOperands(ins Instructions, offset int) (fnIdx int, pushRet bool, argIndices []int, width int) {
	fnIdx = ReadUint16(ins, offset)
	pushRet = ins[offset+2] != 0
	argc := int(ins[offset+3])
	cursor := offset + 4
	argIndices = make([]int, argc)
	for i := 0; i < argc; i++ {
		argIndices[i] = ReadUint16(ins, cursor)
		cursor += 2
	}
	width = (cursor - offset) + 1 // +1 for the opcode byte itself
	return fnIdx, pushRet, argIndices, width
}

// Disassemble renders a single instruction at offset as a human-readable
// line, for debugging and the REPL's bytecode-dump command.
func Disassemble(ins Instructions, offset int) (string, int) {
	op := Opcode(ins[offset])
	def, err := Get(op)
	if err != nil {
		if op == OpCall {
			fnIdx, pushRet, argIndices, width := ReadCallOperands(ins, offset+1)
			return fmt.Sprintf("%04d OpCall fn=%d push_ret=%v args=%v", offset, fnIdx, pushRet, argIndices), width
		}
		return fmt.Sprintf("%04d ERROR: %s", offset, err), 1
	}
	if op == OpCall {
		fnIdx, pushRet, argIndices, width := ReadCallOperands(ins, offset+1)
		return fmt.Sprintf("%04d OpCall fn=%d push_ret=%v args=%v", offset, fnIdx, pushRet, argIndices), width
	}

	cursor := offset + 1
	operands := make([]int, len(def.OperandWidths))
	for i, w := range def.OperandWidths {
		switch w {
		case 1:
			operands[i] = int(ins[cursor])
		case 2:
			operands[i] = ReadInt16(ins, cursor)
		}
		cursor += w
	}
	return fmt.Sprintf("%04d %s %v", offset, def.Name, operands), cursor - offset
}
