// Package interfaces defines core interfaces and types for the artefact
// registry, separating interface definitions from implementations.
//
// # Routing Types
//
// Settings: the inheritance-resolved base directory and bearer tokens in effect
// at a node of the artefact tree. Nil fields are unset.
//
// Route: the compiled (URL path, storage path, settings) triple for one leaf
// artefact, produced once at startup and never mutated.
//
// # Storage Interfaces
//
// ArtefactStore: reads and replaces whole artefacts below a base directory
// (local filesystem or S3-compatible object storage).
//
// ArtefactStoreFactory: maps a base directory setting to a shared backend.
//
// # Errors
//
// ErrArtefactNotFound and ErrUnauthorized are mapped by the HTTP layer to
// 404 and 401 responses respectively.
package interfaces
