// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package asm

import "fmt"

// Opcode is the first byte of every encoded instruction. The numbers are
// part of the VM's instruction set and cannot be changed here.
type Opcode uint8

const (
	OpAdd  Opcode = 0x10
	OpDiv  Opcode = 0x12
	OpMove Opcode = 0x1A
	OpSub  Opcode = 0x20
	OpMcp  Opcode = 0x28
	OpLdc  Opcode = 0x32
	OpLogd Opcode = 0x34
	OpJmp  Opcode = 0x4A
	OpJne  Opcode = 0x4B
	OpAddi Opcode = 0x50
	OpDivi Opcode = 0x52
	OpLw   Opcode = 0x5D
	OpCfe  Opcode = 0x93
	OpBsiz Opcode = 0xBA
)

// layout describes how the 24 operand bits of an instruction are split.
type layout uint8

const (
	layoutRegs1      layout = iota + 1 // ra
	layoutRegs2                        // ra rb
	layoutRegs3                        // ra rb rc
	layoutRegs4                        // ra rb rc rd
	layoutRegs2Imm12                   // ra rb imm12
	layoutRegs3Imm06                   // ra rb rc imm06
)

type opcodeInfo struct {
	name   string
	layout layout
}

var opcodes = map[Opcode]opcodeInfo{
	OpAdd:  {"add", layoutRegs3},
	OpDiv:  {"div", layoutRegs3},
	OpMove: {"move", layoutRegs2},
	OpSub:  {"sub", layoutRegs3},
	OpMcp:  {"mcp", layoutRegs3},
	OpLdc:  {"ldc", layoutRegs3Imm06},
	OpLogd: {"logd", layoutRegs4},
	OpJmp:  {"jmp", layoutRegs1},
	OpJne:  {"jne", layoutRegs3},
	OpAddi: {"addi", layoutRegs2Imm12},
	OpDivi: {"divi", layoutRegs2Imm12},
	OpLw:   {"lw", layoutRegs2Imm12},
	OpCfe:  {"cfe", layoutRegs1},
	OpBsiz: {"bsiz", layoutRegs2},
}

func (op Opcode) String() string {
	if info, ok := opcodes[op]; ok {
		return info.name
	}
	return fmt.Sprintf("opcode(0x%02x)", uint8(op))
}
