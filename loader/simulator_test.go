// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package loader

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/blobloader/asm"
	"github.com/ava-labs/blobloader/blob"
)

// simulator executes the handful of opcodes a loader uses, with the memory
// layout of a script: the artifact is placed at $is and the stack starts
// at the first word boundary after it. It stops at the first jmp.
type simulator struct {
	regs  [asm.RegMax + 1]uint64
	mem   []byte
	blobs blob.State

	logs       [][]byte
	jumpTarget uint64
}

const (
	simMemorySize  = 1 << 16
	simScriptStart = 0x400
	simMaxSteps    = 1024
)

var (
	errOutOfBounds  = errors.New("memory access out of bounds")
	errReservedDest = errors.New("write to reserved register")
	errStepLimit    = errors.New("step limit reached without a jump")
	errUnsupported  = errors.New("unsupported instruction")
	errOverlap      = errors.New("overlapping memory copy")
	errArithmetic   = errors.New("arithmetic error")
)

func runLoader(artifact []byte, blobs blob.State) (*simulator, error) {
	s := &simulator{
		mem:   make([]byte, simMemorySize),
		blobs: blobs,
	}
	if simScriptStart+len(artifact) > len(s.mem) {
		return nil, errOutOfBounds
	}
	copy(s.mem[simScriptStart:], artifact)

	sp := uint64(simScriptStart + len(artifact))
	sp += (wrappers.LongLen - sp%wrappers.LongLen) % wrappers.LongLen
	s.regs[asm.RegOne] = 1
	s.regs[asm.RegIS] = simScriptStart
	s.regs[asm.RegPC] = simScriptStart
	s.regs[asm.RegSSP] = sp
	s.regs[asm.RegSP] = sp

	for step := 0; step < simMaxSteps; step++ {
		raw, err := s.read(s.regs[asm.RegPC], asm.InstructionSize)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		var ins asm.Instruction
		copy(ins[:], raw)
		op, err := asm.Decode(ins)
		if err != nil {
			return nil, err
		}
		jumped, err := s.exec(op)
		if err != nil {
			return nil, fmt.Errorf("%s at 0x%x: %w", op, s.regs[asm.RegPC], err)
		}
		if jumped {
			return s, nil
		}
		s.regs[asm.RegPC] += asm.InstructionSize
	}
	return nil, errStepLimit
}

func (s *simulator) exec(op asm.Op) (bool, error) {
	r := &s.regs
	switch op.Opcode {
	case asm.OpMove:
		return false, s.set(op.A, r[op.B])
	case asm.OpAdd:
		return false, s.set(op.A, r[op.B]+r[op.C])
	case asm.OpAddi:
		return false, s.set(op.A, r[op.B]+uint64(op.Imm))
	case asm.OpSub:
		if r[op.C] > r[op.B] {
			return false, errArithmetic
		}
		return false, s.set(op.A, r[op.B]-r[op.C])
	case asm.OpDivi:
		if op.Imm == 0 {
			return false, errArithmetic
		}
		return false, s.set(op.A, r[op.B]/uint64(op.Imm))
	case asm.OpBsiz:
		blobID, err := s.readID(r[op.B])
		if err != nil {
			return false, err
		}
		size, err := s.blobs.BlobSize(blobID)
		if err != nil {
			return false, err
		}
		return false, s.set(op.A, size)
	case asm.OpLdc:
		if op.Imm != ldcModeBlob {
			return false, errUnsupported
		}
		blobID, err := s.readID(r[op.A])
		if err != nil {
			return false, err
		}
		code, err := s.blobs.GetBlob(blobID)
		if err != nil {
			return false, err
		}
		offset, length := r[op.B], r[op.C]
		if offset+length > uint64(len(code)) {
			return false, errOutOfBounds
		}
		if err := s.write(r[asm.RegSP], code[offset:offset+length]); err != nil {
			return false, err
		}
		r[asm.RegSP] += length
		return false, nil
	case asm.OpLw:
		word, err := s.read(r[op.B]+uint64(op.Imm)*wrappers.LongLen, wrappers.LongLen)
		if err != nil {
			return false, err
		}
		return false, s.set(op.A, binary.BigEndian.Uint64(word))
	case asm.OpCfe:
		grown := make([]byte, r[op.A])
		if err := s.write(r[asm.RegSP], grown); err != nil {
			return false, err
		}
		r[asm.RegSP] += r[op.A]
		return false, nil
	case asm.OpMcp:
		dst, src, length := r[op.A], r[op.B], r[op.C]
		if length > 0 && dst < src+length && src < dst+length {
			return false, errOverlap
		}
		data, err := s.read(src, length)
		if err != nil {
			return false, err
		}
		return false, s.write(dst, append([]byte(nil), data...))
	case asm.OpLogd:
		data, err := s.read(r[op.C], r[op.D])
		if err != nil {
			return false, err
		}
		s.logs = append(s.logs, append([]byte{}, data...))
		return false, nil
	case asm.OpJmp:
		s.jumpTarget = r[asm.RegIS] + r[op.A]*asm.InstructionSize
		return true, nil
	default:
		return false, errUnsupported
	}
}

func (s *simulator) set(reg asm.RegID, value uint64) error {
	if !reg.Writable() {
		return fmt.Errorf("%w: %s", errReservedDest, reg)
	}
	s.regs[reg] = value
	return nil
}

func (s *simulator) read(addr, length uint64) ([]byte, error) {
	end := addr + length
	if end < addr || end > uint64(len(s.mem)) {
		return nil, errOutOfBounds
	}
	return s.mem[addr:end], nil
}

func (s *simulator) write(addr uint64, data []byte) error {
	dst, err := s.read(addr, uint64(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

func (s *simulator) readID(addr uint64) (ids.ID, error) {
	raw, err := s.read(addr, BlobIDLen)
	if err != nil {
		return ids.Empty, err
	}
	return ids.ToID(raw)
}
