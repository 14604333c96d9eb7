// Package routes compiles the hierarchical artefact configuration into a flat
// list of routes.
//
// The artefact tree mirrors the layout of the stored files:
//
//	artefacts:
//	  _base_directory: /var/lib/sar
//	  _write_token: secret
//	  releases:
//	    _read_token: reader
//	    app.tar.gz:
//	    nightly:
//	      app.tar.gz:
//	        _write_token: ~
//
// Keys starting with "_" are settings (base_directory, read_token, write_token).
// All other keys are children. A node without children is an artefact and is
// served at the "/"-joined chain of keys leading to it, here
// /releases/app.tar.gz and /releases/nightly/app.tar.gz.
//
// Settings are inherited from parent keys and can be overridden by any
// descendant, including the artefact itself. A null token still protects the
// operation but matches no request, so the nightly artefact above cannot be
// replaced over HTTP. A null base directory removes the inherited one.
package routes
