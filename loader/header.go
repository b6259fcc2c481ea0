// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	dataOffsetStart = 8

	// HeaderLen is the minimum length of an executable: the data offset is
	// stored big-endian in bytes [8, 16).
	HeaderLen = dataOffsetStart + 8
)

var (
	ErrBinaryTooShort    = errors.New("binary is shorter than its header")
	ErrInvalidDataOffset = errors.New("data offset is past the end of the binary")
)

// DataOffset returns the index at which [bin]'s data section starts.
// The caller must supply at least HeaderLen bytes.
func DataOffset(bin []byte) uint64 {
	if len(bin) < HeaderLen {
		panic(fmt.Sprintf("loader: %d byte binary has no data offset", len(bin)))
	}
	return binary.BigEndian.Uint64(bin[dataOffsetStart:HeaderLen])
}

// Split returns copies of the code (everything before the data offset) and
// the data section of [bin].
func Split(bin []byte) ([]byte, []byte, error) {
	offset, err := checkedDataOffset(bin)
	if err != nil {
		return nil, nil, err
	}
	code := append([]byte(nil), bin[:offset]...)
	data := append([]byte(nil), bin[offset:]...)
	return code, data, nil
}

func checkedDataOffset(bin []byte) (uint64, error) {
	if len(bin) < HeaderLen {
		return 0, fmt.Errorf("%w: got %d bytes, need %d", ErrBinaryTooShort, len(bin), HeaderLen)
	}
	offset := DataOffset(bin)
	if offset > uint64(len(bin)) {
		return 0, fmt.Errorf("%w: offset %d, length %d", ErrInvalidDataOffset, offset, len(bin))
	}
	return offset, nil
}
