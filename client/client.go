// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/rpc"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/blobloader/loader"
	"github.com/ava-labs/blobloader/service"
)

// Client defines blobloader client operations.
type Client interface {
	// PublishBlob stores code and returns its id
	PublishBlob(ctx context.Context, code []byte) (ids.ID, error)

	// GetBlob fetches the contents of a published blob
	GetBlob(ctx context.Context, blobID ids.ID) ([]byte, error)

	// BuildLoader publishes the binary's code and returns the loader and the
	// id of the published blob
	BuildLoader(ctx context.Context, bin []byte, configurables ...loader.Configurable) ([]byte, ids.ID, error)

	// InspectLoader decodes a loader on the server
	InspectLoader(ctx context.Context, artifact []byte) (*service.InspectLoaderReply, error)
}

// New creates a new client object for the service served at [uri].
func New(uri string) Client {
	req := rpc.NewEndpointRequester(uri, "", service.Name)
	return &client{req: req}
}

type client struct {
	req rpc.EndpointRequester
}

func (cli *client) PublishBlob(ctx context.Context, code []byte) (ids.ID, error) {
	encoded, err := formatting.EncodeWithChecksum(formatting.Hex, code)
	if err != nil {
		return ids.Empty, err
	}

	resp := new(service.PublishBlobReply)
	err = cli.req.SendRequest(ctx,
		"publishBlob",
		&service.PublishBlobArgs{Code: encoded},
		resp,
	)
	if err != nil {
		return ids.Empty, err
	}
	return resp.BlobID, nil
}

func (cli *client) GetBlob(ctx context.Context, blobID ids.ID) ([]byte, error) {
	resp := new(service.GetBlobReply)
	err := cli.req.SendRequest(ctx,
		"getBlob",
		&service.GetBlobArgs{BlobID: blobID},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return formatting.Decode(formatting.Hex, resp.Code)
}

func (cli *client) BuildLoader(ctx context.Context, bin []byte, configurables ...loader.Configurable) ([]byte, ids.ID, error) {
	encoded, err := formatting.EncodeWithChecksum(formatting.Hex, bin)
	if err != nil {
		return nil, ids.Empty, err
	}
	args := &service.BuildLoaderArgs{
		Binary:        encoded,
		Configurables: make([]service.ConfigurableArg, len(configurables)),
	}
	for i, c := range configurables {
		data, err := formatting.EncodeWithChecksum(formatting.Hex, c.Data)
		if err != nil {
			return nil, ids.Empty, err
		}
		args.Configurables[i] = service.ConfigurableArg{
			Offset: cjson.Uint64(c.Offset),
			Data:   data,
		}
	}

	resp := new(service.BuildLoaderReply)
	if err := cli.req.SendRequest(ctx, "buildLoader", args, resp); err != nil {
		return nil, ids.Empty, err
	}
	artifact, err := formatting.Decode(formatting.Hex, resp.Loader)
	if err != nil {
		return nil, ids.Empty, err
	}
	return artifact, resp.BlobID, nil
}

func (cli *client) InspectLoader(ctx context.Context, artifact []byte) (*service.InspectLoaderReply, error) {
	encoded, err := formatting.EncodeWithChecksum(formatting.Hex, artifact)
	if err != nil {
		return nil, err
	}

	resp := new(service.InspectLoaderReply)
	err = cli.req.SendRequest(ctx,
		"inspectLoader",
		&service.InspectLoaderArgs{Loader: encoded},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
