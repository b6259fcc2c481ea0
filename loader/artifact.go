// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package loader

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/blobloader/asm"
)

var (
	ErrMalformedArtifact = errors.New("malformed loader artifact")

	// programInstructions is the loader, identical for every artifact.
	programInstructions = loaderProgram()
	program             = asm.Bytes(programInstructions...)
)

// Artifact is a decoded loader:
// [instructions][blob id][8-byte big-endian len(Data)][Data]
type Artifact struct {
	Instructions []asm.Instruction
	BlobID       ids.ID
	Data         []byte
}

// Size returns the length of the encoded artifact.
func (a *Artifact) Size() int {
	return len(a.Instructions)*asm.InstructionSize + BlobIDLen + wrappers.LongLen + len(a.Data)
}

// Bytes encodes the artifact.
func (a *Artifact) Bytes() ([]byte, error) {
	size := a.Size()
	p := wrappers.Packer{
		MaxSize: size,
		Bytes:   make([]byte, 0, size),
	}
	for _, ins := range a.Instructions {
		p.PackFixedBytes(ins[:])
	}
	p.PackFixedBytes(a.BlobID[:])
	p.PackLong(uint64(len(a.Data)))
	p.PackFixedBytes(a.Data)
	if p.Errored() {
		return nil, fmt.Errorf("couldn't pack loader: %w", p.Err)
	}
	return p.Bytes, nil
}

// Build turns [bin] into a loader that fetches [blobID] at run time and
// executes it with [bin]'s data section appended. [blobID] must identify
// the bytes of [bin] before its data offset.
func Build(bin []byte, blobID ids.ID) ([]byte, error) {
	offset, err := checkedDataOffset(bin)
	if err != nil {
		return nil, err
	}
	artifact := Artifact{
		Instructions: programInstructions,
		BlobID:       blobID,
		Data:         bin[offset:],
	}
	return artifact.Bytes()
}

// BuildWithConfigurables is Build on a copy of [bin] with [configurables]
// written into its data section.
func BuildWithConfigurables(bin []byte, blobID ids.ID, configurables []Configurable) ([]byte, error) {
	patched, err := ApplyConfigurables(bin, configurables)
	if err != nil {
		return nil, err
	}
	return Build(patched, blobID)
}

// Parse decodes a loader produced by Build. The returned artifact does not
// alias [artifact].
func Parse(artifact []byte) (*Artifact, error) {
	minLen := len(program) + BlobIDLen + wrappers.LongLen
	if len(artifact) < minLen {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedArtifact, len(artifact), minLen)
	}
	if !bytes.Equal(artifact[:len(program)], program) {
		return nil, fmt.Errorf("%w: unexpected loader instructions", ErrMalformedArtifact)
	}

	instructions, err := asm.Split(artifact[:len(program)])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedArtifact, err)
	}

	p := wrappers.Packer{Bytes: artifact, Offset: len(program)}
	var blobID ids.ID
	copy(blobID[:], p.UnpackFixedBytes(BlobIDLen))
	dataLen := p.UnpackLong()
	if p.Errored() {
		return nil, fmt.Errorf("%w: %s", ErrMalformedArtifact, p.Err)
	}
	if remaining := uint64(len(artifact) - p.Offset); remaining != dataLen {
		return nil, fmt.Errorf("%w: data length is %d but %d bytes follow", ErrMalformedArtifact, dataLen, remaining)
	}

	return &Artifact{
		Instructions: instructions,
		BlobID:       blobID,
		Data:         append([]byte{}, artifact[p.Offset:]...),
	}, nil
}
