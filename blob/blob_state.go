// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package blob

import (
	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
)

var _ BlobState = &blobState{}

// BlobState stores blob contents keyed by their id.
type BlobState interface {
	GetBlob(blobID ids.ID) ([]byte, error)
	HasBlob(blobID ids.ID) (bool, error)
	PutBlob(blobID ids.ID, code []byte) error
	DeleteBlob(blobID ids.ID) error

	ClearCache()
}

type blobState struct {
	blobCache cache.Cacher
	blobDB    database.Database
}

func NewBlobState(db database.Database, blobCache cache.Cacher) BlobState {
	return &blobState{
		blobCache: blobCache,
		blobDB:    db,
	}
}

func (s *blobState) GetBlob(blobID ids.ID) ([]byte, error) {
	if code, ok := s.blobCache.Get(blobID); ok {
		return copyBytes(code.([]byte)), nil
	}

	code, err := s.blobDB.Get(blobID[:])
	if err != nil {
		return nil, err
	}

	s.blobCache.Put(blobID, code)
	return copyBytes(code), nil
}

func (s *blobState) HasBlob(blobID ids.ID) (bool, error) {
	if _, ok := s.blobCache.Get(blobID); ok {
		return true, nil
	}
	return s.blobDB.Has(blobID[:])
}

func (s *blobState) PutBlob(blobID ids.ID, code []byte) error {
	code = copyBytes(code)
	s.blobCache.Put(blobID, code)
	return s.blobDB.Put(blobID[:], code)
}

func (s *blobState) DeleteBlob(blobID ids.ID) error {
	s.blobCache.Evict(blobID)
	return s.blobDB.Delete(blobID[:])
}

func (s *blobState) ClearCache() {
	s.blobCache.Flush()
}

func copyBytes(b []byte) []byte {
	return append([]byte{}, b...)
}
