// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package blob

import (
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
)

var (
	errMetaWrongVersion = errors.New("wrong metadata version")

	_ MetaState = (*metaState)(nil)
)

// Meta describes a published blob.
type Meta struct {
	Size uint64 `serialize:"true" json:"size"`
	// Unix time the blob was first published
	Published int64 `serialize:"true" json:"published"`
}

// MetaState stores blob metadata so sizes can be answered without reading
// the blob itself.
type MetaState interface {
	GetMeta(blobID ids.ID) (Meta, error)
	PutMeta(blobID ids.ID, meta Meta) error
}

type metaState struct {
	metaDB database.Database
}

func NewMetaState(db database.Database) MetaState {
	return &metaState{
		metaDB: db,
	}
}

func (s *metaState) GetMeta(blobID ids.ID) (Meta, error) {
	metaBytes, err := s.metaDB.Get(blobID[:])
	if err != nil {
		return Meta{}, err
	}

	meta := Meta{}
	parsedVersion, err := Codec.Unmarshal(metaBytes, &meta)
	if err != nil {
		return Meta{}, err
	}
	if parsedVersion != CodecVersion {
		return Meta{}, errMetaWrongVersion
	}
	return meta, nil
}

func (s *metaState) PutMeta(blobID ids.ID, meta Meta) error {
	metaBytes, err := Codec.Marshal(CodecVersion, &meta)
	if err != nil {
		return err
	}
	return s.metaDB.Put(blobID[:], metaBytes)
}
