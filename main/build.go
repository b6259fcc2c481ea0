// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/blobloader/asm"
	"github.com/ava-labs/blobloader/blob"
	"github.com/ava-labs/blobloader/loader"
)

const (
	loaderFileName = "loader.bin"
	blobFileName   = "blob.bin"
)

// build writes the loader for cfg.binary and the blob it references to
// cfg.out, and prints the blob id to [w].
func build(cfg config, w io.Writer) error {
	bin, err := os.ReadFile(cfg.binary)
	if err != nil {
		return fmt.Errorf("couldn't read binary: %w", err)
	}
	code, data, err := loader.Split(bin)
	if err != nil {
		return fmt.Errorf("couldn't split %s: %w", cfg.binary, err)
	}

	blobID := blob.ComputeID(code)
	artifact, err := loader.Build(bin, blobID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.out, 0o755); err != nil {
		return err
	}
	loaderPath := filepath.Join(cfg.out, loaderFileName)
	if err := os.WriteFile(loaderPath, artifact, 0o644); err != nil {
		return fmt.Errorf("couldn't write loader: %w", err)
	}
	blobPath := filepath.Join(cfg.out, blobFileName)
	if err := os.WriteFile(blobPath, code, 0o644); err != nil {
		return fmt.Errorf("couldn't write blob: %w", err)
	}
	log.Info("built loader",
		"binary", cfg.binary,
		"blobID", blobID,
		"codeLen", len(code),
		"dataLen", len(data),
		"loader", loaderPath,
		"blob", blobPath,
	)

	fmt.Fprintln(w, blobID)
	if !cfg.disasm {
		return nil
	}
	parsed, err := loader.Parse(artifact)
	if err != nil {
		return err
	}
	ops, err := asm.Disassemble(asm.Bytes(parsed.Instructions...))
	if err != nil {
		return err
	}
	for i, op := range ops {
		ins := op.Encode()
		fmt.Fprintf(w, "%04x  %x  %s\n", i*asm.InstructionSize, ins[:], op)
	}
	return nil
}
