// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package asm

import "fmt"

const (
	// InstructionSize is the width in bytes of every encoded instruction.
	InstructionSize = 4

	MaxImm06 = 1<<6 - 1
	MaxImm12 = 1<<12 - 1
)

// Instruction is a single encoded VM operation: the opcode byte followed by
// 24 big-endian operand bits.
type Instruction [InstructionSize]byte

func (i Instruction) Opcode() Opcode { return Opcode(i[0]) }

func (i Instruction) operands() uint32 {
	return uint32(i[1])<<16 | uint32(i[2])<<8 | uint32(i[3])
}

func (i Instruction) String() string {
	op, err := Decode(i)
	if err != nil {
		return fmt.Sprintf("%s %06x", i.Opcode(), i.operands())
	}
	return op.String()
}

func encode(op Opcode, operands uint32) Instruction {
	return Instruction{byte(op), byte(operands >> 16), byte(operands >> 8), byte(operands)}
}

func reg(r RegID) uint32 {
	if r > RegMax {
		panic(fmt.Sprintf("asm: register 0x%x does not fit in 6 bits", uint8(r)))
	}
	return uint32(r)
}

func regs(op Opcode, a, b, c, d RegID) Instruction {
	return encode(op, reg(a)<<18|reg(b)<<12|reg(c)<<6|reg(d))
}

func imm12(op Opcode, a, b RegID, imm uint16) Instruction {
	if imm > MaxImm12 {
		panic(fmt.Sprintf("asm: %s immediate %d does not fit in 12 bits", op, imm))
	}
	return encode(op, reg(a)<<18|reg(b)<<12|uint32(imm))
}

// Add sets dst = lhs + rhs.
func Add(dst, lhs, rhs RegID) Instruction { return regs(OpAdd, dst, lhs, rhs, 0) }

// Move copies src into dst.
func Move(dst, src RegID) Instruction { return regs(OpMove, dst, src, 0, 0) }

// Sub sets dst = lhs - rhs.
func Sub(dst, lhs, rhs RegID) Instruction { return regs(OpSub, dst, lhs, rhs, 0) }

// Mcp copies len bytes of memory from src to dst.
func Mcp(dst, src, length RegID) Instruction { return regs(OpMcp, dst, src, length, 0) }

// Ldc loads length bytes starting at offset of the code named by the id at
// idAddr onto the stack. Mode 1 selects a blob as the source.
func Ldc(idAddr, offset, length RegID, mode uint8) Instruction {
	if mode > MaxImm06 {
		panic(fmt.Sprintf("asm: ldc mode %d does not fit in 6 bits", mode))
	}
	return encode(OpLdc, reg(idAddr)<<18|reg(offset)<<12|reg(length)<<6|uint32(mode))
}

// Logd emits a log record holding length bytes of memory starting at addr.
func Logd(a, b, addr, length RegID) Instruction { return regs(OpLogd, a, b, addr, length) }

// Jmp jumps to instruction index target, relative to $is.
func Jmp(target RegID) Instruction { return regs(OpJmp, target, 0, 0, 0) }

// Addi sets dst = lhs + imm.
func Addi(dst, lhs RegID, imm uint16) Instruction { return imm12(OpAddi, dst, lhs, imm) }

// Divi sets dst = lhs / imm.
func Divi(dst, lhs RegID, imm uint16) Instruction { return imm12(OpDivi, dst, lhs, imm) }

// Lw loads the big-endian word at addr + offset*8 into dst.
func Lw(dst, addr RegID, offset uint16) Instruction { return imm12(OpLw, dst, addr, offset) }

// Cfe extends the current call frame's stack by amount bytes.
func Cfe(amount RegID) Instruction { return regs(OpCfe, amount, 0, 0, 0) }

// Bsiz sets dst to the size of the blob whose id is stored at idAddr.
func Bsiz(dst, idAddr RegID) Instruction { return regs(OpBsiz, dst, idAddr, 0, 0) }

// Bytes concatenates the encodings of [instructions].
func Bytes(instructions ...Instruction) []byte {
	out := make([]byte, 0, len(instructions)*InstructionSize)
	for _, i := range instructions {
		out = append(out, i[:]...)
	}
	return out
}
