// Package main (cmd/httpserver) implements the artefact registry server.
//
// The server reads a YAML configuration file describing the artefact tree,
// compiles it into one route per artefact and serves GET (read) and PUT
// (write) requests for each of them, guarded by optional bearer tokens.
//
// Configuration is handled through the configuration file, with command-line
// flags overriding the listen host and port and controlling logging, metrics
// and profiling.
//
// The artefact tree is validated before the server starts listening: an
// artefact without a resolvable base directory, a malformed tree, or an
// artefact shadowing a built-in endpoint aborts startup.
//
// The server implements graceful shutdown on receiving termination signals (SIGINT/SIGTERM)
// and supports health checks, metrics collection, and optional profiling endpoints.
//
// Example usage:
//
//	artefact-registry --config=/etc/sar/sar.yaml \
//	    --port=9000 \
//	    --metrics-addr=127.0.0.1:8090 \
//	    --log-json
package main
