// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package loader

import (
	"fmt"
	"math"

	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/blobloader/asm"
)

// Scratch registers used by the loader. They belong to the VM's general
// purpose range and are checked against it on package load.
const (
	// RegDataPointer walks the bytes appended after the instructions: the
	// blob id, then the data length, then the data itself.
	RegDataPointer asm.RegID = 0x10
	// RegLoadedCode holds the address the blob is loaded at.
	RegLoadedCode asm.RegID = 0x11
	// RegScratch holds the blob size and then the data length.
	RegScratch asm.RegID = 0x12
	// RegCopyDestination is where the data section is copied to.
	RegCopyDestination asm.RegID = 0x13
	// RegLoadedLength accumulates code length + data length for the log.
	RegLoadedLength asm.RegID = 0x16
)

const (
	// BlobIDLen is the width of the blob id appended after the instructions.
	BlobIDLen = hashing.HashLen

	// InstructionCount is the number of instructions Instructions emits.
	InstructionCount = 17

	// ldcModeBlob makes ldc read from a blob instead of a contract.
	ldcModeBlob = 1
	// jmp multiplies its operand by the instruction size and adds $is.
	jumpScale = asm.InstructionSize
)

func init() {
	if err := asm.CheckWritable(
		RegDataPointer,
		RegLoadedCode,
		RegScratch,
		RegCopyDestination,
		RegLoadedLength,
	); err != nil {
		panic(fmt.Sprintf("loader: bad scratch register: %s", err))
	}
}

// Instructions returns the loader program assuming it is [count]
// instructions long. [count] positions the self-relative pointer at the blob
// id that directly follows the instructions, so callers must pass
// len(Instructions(0)) for the output to be runnable.
func Instructions(count uint16) []asm.Instruction {
	return []asm.Instruction{
		// Point at the blob id appended after the last instruction.
		asm.Move(RegDataPointer, asm.RegPC),
		asm.Addi(RegDataPointer, RegDataPointer, selfOffset(count)),
		// The blob is pushed at the current stack top; remember it as the
		// jump target.
		asm.Move(RegLoadedCode, asm.RegSP),
		asm.Bsiz(RegScratch, RegDataPointer),
		asm.Move(RegLoadedLength, RegScratch),
		asm.Ldc(RegDataPointer, asm.RegZero, RegScratch, ldcModeBlob),
		// Skip the id and read the data length.
		asm.Addi(RegDataPointer, RegDataPointer, BlobIDLen),
		asm.Lw(RegScratch, RegDataPointer, 0),
		asm.Addi(RegDataPointer, RegDataPointer, wrappers.LongLen),
		// Grow the stack and copy the data section right after the code.
		asm.Cfe(RegScratch),
		asm.Sub(RegCopyDestination, asm.RegSP, RegScratch),
		asm.Mcp(RegCopyDestination, RegDataPointer, RegScratch),
		// Log everything that was loaded.
		asm.Add(RegLoadedLength, RegLoadedLength, RegScratch),
		asm.Logd(asm.RegZero, asm.RegZero, RegLoadedCode, RegLoadedLength),
		// jmp adds $is back and scales by the instruction size.
		asm.Sub(RegLoadedCode, RegLoadedCode, asm.RegIS),
		asm.Divi(RegLoadedCode, RegLoadedCode, jumpScale),
		asm.Jmp(RegLoadedCode),
	}
}

func selfOffset(count uint16) uint16 {
	offset := uint32(count) * asm.InstructionSize
	if offset > asm.MaxImm12 {
		panic(fmt.Sprintf("loader: %d instructions cannot be skipped with one addi", count))
	}
	return uint16(offset)
}

// loaderProgram measures the program and then emits it with its own
// length baked in.
func loaderProgram() []asm.Instruction {
	count := len(Instructions(0))
	if count > math.MaxUint16 {
		panic(fmt.Sprintf("loader: %d instructions overflow the count", count))
	}
	return Instructions(uint16(count))
}
