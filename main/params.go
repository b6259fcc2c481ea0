// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"flag"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	versionKey  = "version"
	binaryKey   = "binary"
	outKey      = "out"
	disasmKey   = "disasm"
	serveKey    = "serve"
	httpHostKey = "http-host"
	httpPortKey = "http-port"
	logLevelKey = "log-level"

	envPrefix = "BLOBLOADER"
)

var (
	errNoBinary    = errors.New("--binary is required unless --serve is set")
	errInvalidPort = errors.New("--http-port must be between 1 and 65535")
)

type config struct {
	version  bool
	binary   string
	out      string
	disasm   bool
	serve    bool
	httpHost string
	httpPort int
	logLevel string
}

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("blobloader", flag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints the version and quits")
	fs.String(binaryKey, "", "Path of the executable to turn into a loader")
	fs.String(outKey, ".", "Directory to write loader.bin and blob.bin to")
	fs.Bool(disasmKey, false, "If true, prints the loader instructions")
	fs.Bool(serveKey, false, "If true, serves the JSON-RPC API instead of building a loader")
	fs.String(httpHostKey, "127.0.0.1", "Address the API listens on")
	fs.Int(httpPortKey, 9680, "Port the API listens on")
	fs.String(logLevelKey, "info", "Log level: crit, eror, warn, info, dbug")

	return fs
}

// getViper returns the viper environment for the binary. Flags take
// precedence over BLOBLOADER_* environment variables.
func getViper(args []string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("blobloader", pflag.ContinueOnError)
	fs.AddGoFlagSet(buildFlagSet())
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	return v, nil
}

func getConfig(v *viper.Viper) (config, error) {
	c := config{
		version:  v.GetBool(versionKey),
		binary:   v.GetString(binaryKey),
		out:      v.GetString(outKey),
		disasm:   v.GetBool(disasmKey),
		serve:    v.GetBool(serveKey),
		httpHost: v.GetString(httpHostKey),
		httpPort: v.GetInt(httpPortKey),
		logLevel: v.GetString(logLevelKey),
	}
	switch {
	case c.version:
	case c.serve:
		if c.httpPort <= 0 || c.httpPort > 65535 {
			return config{}, errInvalidPort
		}
	case c.binary == "":
		return config{}, errNoBinary
	}
	return c, nil
}
