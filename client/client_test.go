// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/blobloader/blob"
	"github.com/ava-labs/blobloader/loader"
	"github.com/ava-labs/blobloader/service"
)

func newTestClient(t *testing.T) (Client, blob.State) {
	state, err := blob.NewState(memdb.New(), prometheus.NewRegistry())
	require.NoError(t, err)
	s, err := service.NewService(state, prometheus.NewRegistry())
	require.NoError(t, err)
	handler, err := service.NewHandler(s)
	require.NoError(t, err)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL), state
}

func testBinary(code, data []byte) []byte {
	bin := make([]byte, loader.HeaderLen)
	binary.BigEndian.PutUint64(bin[8:], uint64(loader.HeaderLen+len(code)))
	bin = append(bin, code...)
	return append(bin, data...)
}

func TestPublishAndGetBlob(t *testing.T) {
	assert := assert.New(t)
	cli, state := newTestClient(t)
	ctx := context.Background()

	code := []byte{0xde, 0xad, 0xbe, 0xef}
	blobID, err := cli.PublishBlob(ctx, code)
	assert.NoError(err)
	assert.Equal(blob.ComputeID(code), blobID)

	stored, err := state.GetBlob(blobID)
	assert.NoError(err)
	assert.Equal(code, stored)

	fetched, err := cli.GetBlob(ctx, blobID)
	assert.NoError(err)
	assert.Equal(code, fetched)
}

func TestGetMissingBlob(t *testing.T) {
	cli, _ := newTestClient(t)

	_, err := cli.GetBlob(context.Background(), ids.ID{9})
	assert.Error(t, err)
}

func TestBuildAndInspectLoader(t *testing.T) {
	assert := assert.New(t)
	cli, state := newTestClient(t)
	ctx := context.Background()

	bin := testBinary([]byte("code body"), []byte{0, 0, 0, 0, 0, 0, 0, 0})
	offset := loader.DataOffset(bin)

	artifact, blobID, err := cli.BuildLoader(ctx, bin, loader.Configurable{Offset: offset + 7, Data: []byte{42}})
	assert.NoError(err)
	assert.Equal(blob.ComputeID(bin[:offset]), blobID)

	has, err := state.HasBlob(blobID)
	assert.NoError(err)
	assert.True(has)

	expected, err := loader.BuildWithConfigurables(bin, blobID, []loader.Configurable{{Offset: offset + 7, Data: []byte{42}}})
	assert.NoError(err)
	assert.Equal(expected, artifact)

	reply, err := cli.InspectLoader(ctx, artifact)
	assert.NoError(err)
	assert.Equal(blobID, reply.BlobID)
	assert.True(reply.Published)
	assert.Len(reply.Instructions, loader.InstructionCount)
	assert.Equal("move $r16 $pc", reply.Instructions[0])
	assert.Equal("jmp $r17", reply.Instructions[loader.InstructionCount-1])
}

func TestBuildLoaderRejectsBadInput(t *testing.T) {
	assert := assert.New(t)
	cli, state := newTestClient(t)
	ctx := context.Background()

	_, _, err := cli.BuildLoader(ctx, []byte{1, 2, 3})
	assert.Error(err)

	// an out of range configurable must not publish anything
	bin := testBinary([]byte("code"), []byte{1})
	_, _, err = cli.BuildLoader(ctx, bin, loader.Configurable{Offset: 0, Data: []byte{1}})
	assert.Error(err)
	has, err := state.HasBlob(blob.ComputeID(bin[:loader.DataOffset(bin)]))
	assert.NoError(err)
	assert.False(has)

	_, err = cli.InspectLoader(ctx, []byte{1, 2, 3, 4})
	assert.Error(err)
}

func TestRequestsTargetService(t *testing.T) {
	assert := assert.New(t)

	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			method = req.Method
		}
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := New(server.URL).PublishBlob(context.Background(), []byte{1})
	require.Error(t, err)
	assert.Contains(err.Error(), "503")
	assert.Equal(service.Name+".publishBlob", method)
}
