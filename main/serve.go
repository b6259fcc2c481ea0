// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	log "github.com/inconshreveable/log15"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/blobloader/blob"
	"github.com/ava-labs/blobloader/service"
)

const shutdownTimeout = 5 * time.Second

// newServer wires an in-memory blob store to the JSON-RPC service. Metrics
// are served on /metrics.
func newServer(addr string) (*http.Server, blob.State, error) {
	registry := prometheus.NewRegistry()
	state, err := blob.NewState(memdb.New(), registry)
	if err != nil {
		return nil, nil, err
	}
	s, err := service.NewService(state, registry)
	if err != nil {
		return nil, nil, err
	}
	handler, err := service.NewHandler(s)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't register service: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}, state, nil
}

// serve runs the API until [ctx] is cancelled.
func serve(ctx context.Context, cfg config) error {
	addr := net.JoinHostPort(cfg.httpHost, strconv.Itoa(cfg.httpPort))
	server, state, err := newServer(addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving blobloader API", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down blobloader API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := wrappers.Errs{}
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs.Add(err)
	}
	errs.Add(state.Close())
	return errs.Err
}
