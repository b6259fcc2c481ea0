// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package asm

import (
	"errors"
	"fmt"
)

// RegID identifies one of the 64 registers of the target VM. Only the low 6
// bits are encodable.
type RegID uint8

// Registers below RegWritable have a fixed meaning in the VM and must not be
// used as scratch space by generated code.
const (
	RegZero     RegID = 0x00
	RegOne      RegID = 0x01
	RegOverflow RegID = 0x02
	RegPC       RegID = 0x03
	RegSSP      RegID = 0x04
	RegSP       RegID = 0x05
	RegFP       RegID = 0x06
	RegHP       RegID = 0x07
	RegErr      RegID = 0x08
	RegGGas     RegID = 0x09
	RegCGas     RegID = 0x0A
	RegBal      RegID = 0x0B
	RegIS       RegID = 0x0C
	RegRet      RegID = 0x0D
	RegRetLen   RegID = 0x0E
	RegFlag     RegID = 0x0F

	// RegWritable is the first general purpose register.
	RegWritable RegID = 0x10
	// RegMax is the highest register id that fits in an operand.
	RegMax RegID = 0x3F
)

var (
	ErrReservedRegister = errors.New("register is reserved by the vm")
	ErrInvalidRegister  = errors.New("register id does not fit in 6 bits")

	reservedNames = [RegWritable]string{
		"zero", "one", "of", "pc", "ssp", "sp", "fp", "hp",
		"err", "ggas", "cgas", "bal", "is", "ret", "retl", "flag",
	}
)

func (r RegID) String() string {
	if r < RegWritable {
		return "$" + reservedNames[r]
	}
	return fmt.Sprintf("$r%d", uint8(r))
}

// Writable reports whether generated code may freely overwrite [r].
func (r RegID) Writable() bool {
	return r >= RegWritable && r <= RegMax
}

// CheckWritable returns an error if any of [regs] is reserved or out of
// range.
func CheckWritable(regs ...RegID) error {
	for _, r := range regs {
		switch {
		case r > RegMax:
			return fmt.Errorf("%w: 0x%x", ErrInvalidRegister, uint8(r))
		case r < RegWritable:
			return fmt.Errorf("%w: %s", ErrReservedRegister, r)
		}
	}
	return nil
}
