// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/rpc/v2"

	log "github.com/inconshreveable/log15"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/blobloader/blob"
	"github.com/ava-labs/blobloader/loader"
)

const (
	// Name is the JSON-RPC service name; methods are called as
	// "blobloader.<method>".
	Name = "blobloader"

	metricsNamespace = "blobloader"
)

var (
	errNoBinary = errors.New("no binary given")
	errNoLoader = errors.New("no loader given")
)

// Service is the API service for publishing blobs and building loaders.
type Service struct {
	state blob.State

	blobsPublished prometheus.Counter
	loadersBuilt   prometheus.Counter
}

// NewService returns a service storing blobs in [state]. Its metrics are
// registered on [registerer].
func NewService(state blob.State, registerer prometheus.Registerer) (*Service, error) {
	s := &Service{
		state: state,
		blobsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "blobs_published",
			Help:      "Number of publish calls that stored or found a blob",
		}),
		loadersBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "loaders_built",
			Help:      "Number of loaders built",
		}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(s.blobsPublished),
		registerer.Register(s.loadersBuilt),
	)
	if errs.Errored() {
		return nil, fmt.Errorf("couldn't register metrics: %w", errs.Err)
	}
	return s, nil
}

// NewHandler returns an http.Handler serving [s] over JSON-RPC.
func NewHandler(s *Service) (http.Handler, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	return server, server.RegisterService(s, Name)
}

// PublishBlobArgs are the arguments to PublishBlob
type PublishBlobArgs struct {
	// Code is hex-encoded
	Code string `json:"code"`
}

// PublishBlobReply is the reply from PublishBlob
type PublishBlobReply struct {
	BlobID ids.ID `json:"blobID"`
}

// PublishBlob stores [args].Code and returns its content address.
func (s *Service) PublishBlob(_ *http.Request, args *PublishBlobArgs, reply *PublishBlobReply) error {
	code, err := formatting.Decode(formatting.Hex, args.Code)
	if err != nil {
		return fmt.Errorf("couldn't decode code: %w", err)
	}
	blobID, err := s.publish(code)
	if err != nil {
		return err
	}
	reply.BlobID = blobID
	return nil
}

// GetBlobArgs are the arguments to GetBlob
type GetBlobArgs struct {
	BlobID ids.ID `json:"blobID"`
}

// GetBlobReply is the reply from GetBlob
type GetBlobReply struct {
	Code string       `json:"code"`
	Size cjson.Uint64 `json:"size"`
	// Published is the unix time the blob was first stored
	Published cjson.Uint64 `json:"published"`
}

// GetBlob returns the contents of a published blob.
func (s *Service) GetBlob(_ *http.Request, args *GetBlobArgs, reply *GetBlobReply) error {
	code, err := s.state.GetBlob(args.BlobID)
	if err != nil {
		return err
	}
	reply.Code, err = formatting.EncodeWithChecksum(formatting.Hex, code)
	if err != nil {
		return fmt.Errorf("couldn't encode code: %w", err)
	}
	meta, err := s.state.GetMeta(args.BlobID)
	if err != nil {
		return err
	}
	reply.Size = cjson.Uint64(meta.Size)
	reply.Published = cjson.Uint64(meta.Published)
	return nil
}

// ConfigurableArg overrides part of the data section before the loader is
// built.
type ConfigurableArg struct {
	Offset cjson.Uint64 `json:"offset"`
	// Data is hex-encoded
	Data string `json:"data"`
}

// BuildLoaderArgs are the arguments to BuildLoader
type BuildLoaderArgs struct {
	// Binary is the hex-encoded executable
	Binary        string            `json:"binary"`
	Configurables []ConfigurableArg `json:"configurables"`
}

// BuildLoaderReply is the reply from BuildLoader
type BuildLoaderReply struct {
	// Loader is hex-encoded
	Loader     string       `json:"loader"`
	BlobID     ids.ID       `json:"blobID"`
	DataOffset cjson.Uint64 `json:"dataOffset"`
	DataLen    cjson.Uint64 `json:"dataLen"`
}

// BuildLoader publishes the code of [args].Binary and returns a loader for
// it.
func (s *Service) BuildLoader(_ *http.Request, args *BuildLoaderArgs, reply *BuildLoaderReply) error {
	if args.Binary == "" {
		return errNoBinary
	}
	bin, err := formatting.Decode(formatting.Hex, args.Binary)
	if err != nil {
		return fmt.Errorf("couldn't decode binary: %w", err)
	}
	configurables := make([]loader.Configurable, len(args.Configurables))
	for i, arg := range args.Configurables {
		data, err := formatting.Decode(formatting.Hex, arg.Data)
		if err != nil {
			return fmt.Errorf("couldn't decode configurable %d: %w", i, err)
		}
		configurables[i] = loader.Configurable{
			Offset: uint64(arg.Offset),
			Data:   data,
		}
	}

	// Patch first so a bad configurable doesn't leave a published blob behind.
	patched, err := loader.ApplyConfigurables(bin, configurables)
	if err != nil {
		return err
	}
	code, data, err := loader.Split(patched)
	if err != nil {
		return err
	}
	blobID, err := s.publish(code)
	if err != nil {
		return err
	}
	artifact, err := loader.Build(patched, blobID)
	if err != nil {
		return err
	}
	s.loadersBuilt.Inc()
	log.Info("built loader", "blobID", blobID, "codeLen", len(code), "dataLen", len(data), "loaderLen", len(artifact))

	reply.Loader, err = formatting.EncodeWithChecksum(formatting.Hex, artifact)
	if err != nil {
		return fmt.Errorf("couldn't encode loader: %w", err)
	}
	reply.BlobID = blobID
	reply.DataOffset = cjson.Uint64(len(code))
	reply.DataLen = cjson.Uint64(len(data))
	return nil
}

// InspectLoaderArgs are the arguments to InspectLoader
type InspectLoaderArgs struct {
	// Loader is hex-encoded
	Loader string `json:"loader"`
}

// InspectLoaderReply is the reply from InspectLoader
type InspectLoaderReply struct {
	BlobID       ids.ID   `json:"blobID"`
	Instructions []string `json:"instructions"`
	// Data is hex-encoded
	Data string `json:"data"`
	// Published is true if this service stores the referenced blob
	Published bool `json:"published"`
}

// InspectLoader decodes a loader built by BuildLoader.
func (s *Service) InspectLoader(_ *http.Request, args *InspectLoaderArgs, reply *InspectLoaderReply) error {
	if args.Loader == "" {
		return errNoLoader
	}
	raw, err := formatting.Decode(formatting.Hex, args.Loader)
	if err != nil {
		return fmt.Errorf("couldn't decode loader: %w", err)
	}
	artifact, err := loader.Parse(raw)
	if err != nil {
		return err
	}

	reply.BlobID = artifact.BlobID
	reply.Instructions = make([]string, len(artifact.Instructions))
	for i, ins := range artifact.Instructions {
		reply.Instructions[i] = ins.String()
	}
	reply.Data, err = formatting.EncodeWithChecksum(formatting.Hex, artifact.Data)
	if err != nil {
		return fmt.Errorf("couldn't encode data: %w", err)
	}
	reply.Published, err = s.state.HasBlob(artifact.BlobID)
	return err
}

func (s *Service) publish(code []byte) (ids.ID, error) {
	blobID, err := s.state.Publish(code)
	if err != nil {
		return ids.Empty, err
	}
	if err := s.state.Commit(); err != nil {
		s.state.Abort()
		return ids.Empty, fmt.Errorf("couldn't commit blob %s: %w", blobID, err)
	}
	s.blobsPublished.Inc()
	return blobID, nil
}
