// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/blobloader/service"
)

// Version of the blobloader binary
var Version = "v0.1.0"

func main() {
	v, err := getViper(os.Args[1:])
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	cfg, err := getConfig(v)
	if err != nil {
		fmt.Printf("invalid config: %s\n", err)
		os.Exit(1)
	}
	// Print version and exit
	if cfg.version {
		fmt.Printf("%s@%s\n", service.Name, Version)
		os.Exit(0)
	}

	lvl, err := log.LvlFromString(cfg.logLevel)
	if err != nil {
		fmt.Printf("invalid log level %q: %s\n", cfg.logLevel, err)
		os.Exit(1)
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.TerminalFormat())))

	if cfg.serve {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err = serve(ctx, cfg)
		stop()
	} else {
		err = build(cfg, os.Stdout)
	}
	if err != nil {
		log.Error("blobloader failed", "err", err)
		os.Exit(1)
	}
}
