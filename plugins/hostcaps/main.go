package main

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	caprpc "pahm/internal/modules/capability/adapter/out/rpc"
)

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "hostcaps",
		Level:      hclog.LevelFromString(os.Getenv("PAHM_HOSTCAPS_LOG_LEVEL")),
		Output:     os.Stderr,
		JSONFormat: true,
	})
	var backend hostBackend
	if os.Getenv("PAHM_HOSTCAPS_BACKEND") == "memory" {
		backend = &memoryBackend{}
	} else {
		backend = detectSystemBackend(logger)
	}
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: caprpc.HandshakeConfig,
		Plugins:         caprpc.PluginMap(newServer(backend, logger)),
		GRPCServer:      plugin.DefaultGRPCServer,
		Logger:          logger,
	})
}
