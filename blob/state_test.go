// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package blob

import (
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
)

func newTestState(t *testing.T) (State, *memdb.Database) {
	db := memdb.New()
	s, err := NewState(db, prometheus.NewRegistry())
	require.NoError(t, err)
	return s, db
}

func TestComputeID(t *testing.T) {
	code := []byte("some code")
	assert.Equal(t, ids.ID(sha256.Sum256(code)), ComputeID(code))
	assert.NotEqual(t, ComputeID(code), ComputeID([]byte("other code")))
}

func TestPublishAndGet(t *testing.T) {
	assert := assert.New(t)
	s, _ := newTestState(t)

	code := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	blobID, err := s.Publish(code)
	assert.NoError(err)
	assert.Equal(ComputeID(code), blobID)

	has, err := s.HasBlob(blobID)
	assert.NoError(err)
	assert.True(has)

	got, err := s.GetBlob(blobID)
	assert.NoError(err)
	assert.Equal(code, got)

	size, err := s.BlobSize(blobID)
	assert.NoError(err)
	assert.EqualValues(len(code), size)

	meta, err := s.GetMeta(blobID)
	assert.NoError(err)
	assert.EqualValues(len(code), meta.Size)
	assert.Positive(meta.Published)

	// returned bytes must not alias the store
	got[0] = 0xFF
	again, err := s.GetBlob(blobID)
	assert.NoError(err)
	assert.Equal(code, again)
}

func TestPublishIsIdempotent(t *testing.T) {
	assert := assert.New(t)
	s, _ := newTestState(t)

	code := []byte("loader target")
	first, err := s.Publish(code)
	assert.NoError(err)
	second, err := s.Publish(code)
	assert.NoError(err)
	assert.Equal(first, second)
}

func TestPublishEmpty(t *testing.T) {
	s, _ := newTestState(t)

	_, err := s.Publish(nil)
	assert.ErrorIs(t, err, ErrEmptyBlob)
}

func TestMissingBlob(t *testing.T) {
	assert := assert.New(t)
	s, _ := newTestState(t)

	missing := ids.ID{1, 2, 3}
	_, err := s.GetBlob(missing)
	assert.ErrorIs(err, ErrNotFound)
	_, err = s.BlobSize(missing)
	assert.ErrorIs(err, ErrNotFound)
	_, err = s.GetMeta(missing)
	assert.ErrorIs(err, ErrNotFound)
	has, err := s.HasBlob(missing)
	assert.NoError(err)
	assert.False(has)
}

func TestCommitAndAbort(t *testing.T) {
	assert := assert.New(t)
	s, db := newTestState(t)

	committed, err := s.Publish([]byte("committed"))
	assert.NoError(err)
	assert.NoError(s.Commit())

	// a second store over the same database sees committed blobs only
	aborted, err := s.Publish([]byte("aborted"))
	assert.NoError(err)
	s.Abort()

	reopened, err := NewState(db, prometheus.NewRegistry())
	assert.NoError(err)

	has, err := reopened.HasBlob(committed)
	assert.NoError(err)
	assert.True(has)

	has, err = reopened.HasBlob(aborted)
	assert.NoError(err)
	assert.False(has)

	has, err = s.HasBlob(aborted)
	assert.NoError(err)
	assert.False(has)

	assert.NoError(s.Close())
}

type failingMetaState struct {
	MetaState
	err error
}

func (f *failingMetaState) PutMeta(ids.ID, Meta) error { return f.err }

func TestPublishDropsBlobWhenMetaFails(t *testing.T) {
	assert := assert.New(t)
	s, _ := newTestState(t)
	st := s.(*state)

	errPut := errors.New("meta put failed")
	realMetas := st.metas
	st.metas = &failingMetaState{MetaState: realMetas, err: errPut}

	code := []byte("no metadata")
	_, err := s.Publish(code)
	assert.ErrorIs(err, errPut)

	has, err := s.HasBlob(ComputeID(code))
	assert.NoError(err)
	assert.False(has)

	// a retry writes both the blob and its metadata
	st.metas = realMetas
	blobID, err := s.Publish(code)
	assert.NoError(err)
	size, err := s.BlobSize(blobID)
	assert.NoError(err)
	assert.EqualValues(len(code), size)
}
