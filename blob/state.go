// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package blob

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/cache/metercacher"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
)

const blobCacheSize = 256

var (
	// These are prefixes for db keys.
	// Each sub state gets its own prefix so their keys can't collide.
	blobStatePrefix = []byte("blob")
	metaStatePrefix = []byte("meta")

	ErrEmptyBlob = errors.New("blob is empty")
	ErrNotFound  = errors.New("blob not found")

	_ State = &state{}
)

// State is a content addressed blob store. Blobs are identified by
// ComputeID of their contents, so publishing the same bytes twice is a
// no-op.
//
// Writes are buffered until Commit.
type State interface {
	Publish(code []byte) (ids.ID, error)
	GetBlob(blobID ids.ID) ([]byte, error)
	BlobSize(blobID ids.ID) (uint64, error)
	GetMeta(blobID ids.ID) (Meta, error)
	HasBlob(blobID ids.ID) (bool, error)

	Commit() error
	Abort()
	Close() error
}

type state struct {
	lock sync.RWMutex

	clock  mockable.Clock
	blobs  BlobState
	metas  MetaState
	baseDB *versiondb.Database
}

// NewState builds a blob store on top of [db]. Cache metrics are registered
// on [registerer].
func NewState(db database.Database, registerer prometheus.Registerer) (State, error) {
	blobCache, err := metercacher.New(
		"blob_cache",
		registerer,
		&cache.LRU{Size: blobCacheSize},
	)
	if err != nil {
		return nil, fmt.Errorf("couldn't create blob cache: %w", err)
	}

	baseDB := versiondb.New(db)
	return &state{
		blobs:  NewBlobState(prefixdb.New(blobStatePrefix, baseDB), blobCache),
		metas:  NewMetaState(prefixdb.New(metaStatePrefix, baseDB)),
		baseDB: baseDB,
	}, nil
}

func (s *state) Publish(code []byte) (ids.ID, error) {
	if len(code) == 0 {
		return ids.Empty, ErrEmptyBlob
	}
	blobID := ComputeID(code)

	s.lock.Lock()
	defer s.lock.Unlock()

	has, err := s.blobs.HasBlob(blobID)
	if err != nil {
		return ids.Empty, fmt.Errorf("couldn't check blob %s: %w", blobID, err)
	}
	if has {
		log.Debug("blob already published", "blobID", blobID)
		return blobID, nil
	}

	if err := s.blobs.PutBlob(blobID, code); err != nil {
		return ids.Empty, fmt.Errorf("couldn't store blob %s: %w", blobID, err)
	}
	meta := Meta{
		Size:      uint64(len(code)),
		Published: s.clock.Time().Unix(),
	}
	if err := s.metas.PutMeta(blobID, meta); err != nil {
		// every stored blob has metadata
		if delErr := s.blobs.DeleteBlob(blobID); delErr != nil {
			log.Error("couldn't drop blob without metadata", "blobID", blobID, "error", delErr)
		}
		return ids.Empty, fmt.Errorf("couldn't store metadata of blob %s: %w", blobID, err)
	}
	log.Info("published blob", "blobID", blobID, "size", len(code))
	return blobID, nil
}

func (s *state) GetBlob(blobID ids.ID) ([]byte, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	code, err := s.blobs.GetBlob(blobID)
	return code, notFound(blobID, err)
}

func (s *state) BlobSize(blobID ids.ID) (uint64, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	meta, err := s.metas.GetMeta(blobID)
	return meta.Size, notFound(blobID, err)
}

func (s *state) GetMeta(blobID ids.ID) (Meta, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	meta, err := s.metas.GetMeta(blobID)
	return meta, notFound(blobID, err)
}

func (s *state) HasBlob(blobID ids.ID) (bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.blobs.HasBlob(blobID)
}

// Commit writes pending blobs to the underlying database.
func (s *state) Commit() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.baseDB.Commit()
}

// Abort drops pending blobs.
func (s *state) Abort() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.baseDB.Abort()
	s.blobs.ClearCache()
}

// Close closes the versioned view of the database.
func (s *state) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.baseDB.Close()
}

func notFound(blobID ids.ID, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, blobID)
	}
	return err
}
