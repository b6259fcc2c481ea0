// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package blob

import (
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

// ComputeID returns the content address of [code]: its sha256 digest.
func ComputeID(code []byte) ids.ID {
	return ids.ID(hashing.ComputeHash256Array(code))
}
