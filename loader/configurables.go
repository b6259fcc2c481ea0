// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package loader

import (
	"errors"
	"fmt"
)

var ErrConfigurableOutOfRange = errors.New("configurable is outside the data section")

// Configurable overrides a constant stored in the data section. Offset is
// relative to the start of the binary, the same way the compiler reports it.
type Configurable struct {
	Offset uint64
	Data   []byte
}

// ApplyConfigurables returns a copy of [bin] with every configurable
// written in order. Code bytes can't be patched since they are shared
// through the blob.
func ApplyConfigurables(bin []byte, configurables []Configurable) ([]byte, error) {
	offset, err := checkedDataOffset(bin)
	if err != nil {
		return nil, err
	}

	patched := append([]byte(nil), bin...)
	size := uint64(len(bin))
	for i, c := range configurables {
		end := c.Offset + uint64(len(c.Data))
		if c.Offset < offset || end > size || end < c.Offset {
			return nil, fmt.Errorf(
				"%w: configurable %d spans [%d, %d), data section is [%d, %d)",
				ErrConfigurableOutOfRange, i, c.Offset, end, offset, size,
			)
		}
		copy(patched[c.Offset:end], c.Data)
	}
	return patched, nil
}
