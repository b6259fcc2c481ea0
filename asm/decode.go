// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package asm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrUnaligned     = errors.New("code length is not a multiple of the instruction size")
)

// Op is a decoded instruction. Operands that the opcode does not use are
// zero.
type Op struct {
	Opcode Opcode
	A      RegID
	B      RegID
	C      RegID
	D      RegID
	Imm    uint16
}

// Decode splits [i] into its opcode and operands.
func Decode(i Instruction) (Op, error) {
	info, ok := opcodes[i.Opcode()]
	if !ok {
		return Op{}, fmt.Errorf("%w: 0x%02x", ErrUnknownOpcode, i[0])
	}

	w := i.operands()
	op := Op{
		Opcode: i.Opcode(),
		A:      RegID(w >> 18 & 0x3F),
		B:      RegID(w >> 12 & 0x3F),
	}
	switch info.layout {
	case layoutRegs1:
		op.B = 0
	case layoutRegs2:
	case layoutRegs3:
		op.C = RegID(w >> 6 & 0x3F)
	case layoutRegs4:
		op.C = RegID(w >> 6 & 0x3F)
		op.D = RegID(w & 0x3F)
	case layoutRegs2Imm12:
		op.Imm = uint16(w & MaxImm12)
	case layoutRegs3Imm06:
		op.C = RegID(w >> 6 & 0x3F)
		op.Imm = uint16(w & MaxImm06)
	}
	return op, nil
}

// Encode is the inverse of Decode.
func (op Op) Encode() Instruction {
	switch opcodes[op.Opcode].layout {
	case layoutRegs2Imm12:
		return imm12(op.Opcode, op.A, op.B, op.Imm)
	case layoutRegs3Imm06:
		return Ldc(op.A, op.B, op.C, uint8(op.Imm))
	default:
		return regs(op.Opcode, op.A, op.B, op.C, op.D)
	}
}

func (op Op) String() string {
	info, ok := opcodes[op.Opcode]
	if !ok {
		return op.Opcode.String()
	}

	var sb strings.Builder
	sb.WriteString(info.name)
	operands := func(rs ...RegID) {
		for _, r := range rs {
			sb.WriteByte(' ')
			sb.WriteString(r.String())
		}
	}
	switch info.layout {
	case layoutRegs1:
		operands(op.A)
	case layoutRegs2:
		operands(op.A, op.B)
	case layoutRegs3:
		operands(op.A, op.B, op.C)
	case layoutRegs4:
		operands(op.A, op.B, op.C, op.D)
	case layoutRegs2Imm12:
		operands(op.A, op.B)
		fmt.Fprintf(&sb, " %d", op.Imm)
	case layoutRegs3Imm06:
		operands(op.A, op.B, op.C)
		fmt.Fprintf(&sb, " %d", op.Imm)
	}
	return sb.String()
}

// Split cuts [code] into instructions without decoding them.
func Split(code []byte) ([]Instruction, error) {
	if len(code)%InstructionSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrUnaligned, len(code))
	}
	instructions := make([]Instruction, len(code)/InstructionSize)
	for i := range instructions {
		copy(instructions[i][:], code[i*InstructionSize:])
	}
	return instructions, nil
}

// Disassemble decodes every instruction in [code].
func Disassemble(code []byte) ([]Op, error) {
	instructions, err := Split(code)
	if err != nil {
		return nil, err
	}
	ops := make([]Op, len(instructions))
	for i, ins := range instructions {
		op, err := Decode(ins)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		ops[i] = op
	}
	return ops, nil
}
