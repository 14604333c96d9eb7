/*
Package httpserver implements the HTTP surface of the artefact registry.

Every route compiled from the artefact tree gets its own ArtefactHandler bound
to the route's URL path, storage path and effective settings. The router
exposes exactly two methods per artefact:

  - GET <url_path> returns the artefact bytes (200), or 401 / 404
  - PUT <url_path> replaces the artefact with the request body (204), or 401

# Authorization

When a route has a read or write token configured, the matching request must
carry the header

	Authorization: bearer <token>

with the lowercase "bearer " prefix and the exact token. Without a configured
token the operation is open to everyone, which for PUT means anybody may
replace the artefact.

# Errors

All error responses, including 404 for unknown paths, 405 for unsupported
methods and 500 for storage failures, have the numeric status code as their
plain text body and carry

	WWW-Authenticate: bearer realm="Simple Artefact Registry"

# Streaming

GET responses are written in 1024 byte chunks, each flushed to the client, so
memory use does not grow with artefact size. A client disconnecting ends the
transfer quietly. PUT reads the whole body before replacing the artefact.

# Operations

  - /livez, /readyz: liveness and readiness probes
  - /drain, /undrain: toggle readiness ahead of a shutdown
  - /debug/pprof: profiling, when enabled

Artefacts may not be configured at any of these paths.
*/
package httpserver
