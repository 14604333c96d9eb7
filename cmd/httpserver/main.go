package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/simple-artefact-registry/cmd/flags"
	"github.com/ruteri/simple-artefact-registry/config"
	"github.com/ruteri/simple-artefact-registry/httpserver"
	"github.com/ruteri/simple-artefact-registry/storage"
	"github.com/urfave/cli/v2"
)

var LogServiceFlag = flags.LogServiceFlagFn("artefact-registry")

func main() {
	app := &cli.App{
		Name:  "artefact-registry",
		Usage: "Serve artefact files configured in a YAML artefact tree",
		Flags: append([]cli.Flag{flags.ConfigFileFlag, flags.PortFlag, flags.HostFlag, LogServiceFlag}, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			configFile := cCtx.String(flags.ConfigFileFlag.Name)
			logger.Info("Loading configuration", "file", configFile)
			cfg, err := config.Load(configFile)
			if err != nil {
				logger.Error("Failed to load configuration", "err", err)
				return err
			}
			cfg.WithOverrides(cCtx.String(flags.HostFlag.Name), cCtx.Int(flags.PortFlag.Name))
			if err := cfg.Validate(); err != nil {
				logger.Error("Invalid configuration", "err", err)
				return err
			}

			// Compile the artefact tree, failing before we listen on anything
			routes, err := cfg.Routes()
			if err != nil {
				logger.Error("Invalid artefact tree", "err", err)
				return err
			}
			logger.Info("Compiled artefact routes", "count", len(routes))

			storageFactory := storage.NewStorageBackendFactory(logger)

			server, err := httpserver.New(flags.ConfigureServer(cCtx, logger, cfg), routes, storageFactory)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server")
			server.RunInBackground()

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
