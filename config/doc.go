// Package config loads the registry configuration file.
//
// The file is YAML with two top-level keys:
//
//	server:
//	  host: 0.0.0.0
//	  port: 8080
//	artefacts:
//	  _base_directory: /var/lib/sar
//	  dir_name:
//	    file_name:
//
// The server section is optional; host and port default to 0.0.0.0 and 8080
// and may be overridden on the command line. The artefacts section is compiled
// into routes by package routes.
package config
