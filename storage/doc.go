// Package storage provides the artefact stores the registry reads from and
// writes to.
//
// Each route's base directory setting selects a backend:
//
//   - /var/lib/sar, ./relative or file:///var/lib/sar - local file system
//   - s3://bucket/prefix/?region=us-west-2&endpoint=minio:9000 - S3-compatible storage
//
// The artefact's URL path is appended to the base directory, so the artefact
// served at /releases/app.tar.gz with base directory /var/lib/sar lives in
// /var/lib/sar/releases/app.tar.gz, and with s3://bucket/sar in the object
// sar/releases/app.tar.gz of bucket.
//
// Writes always replace the whole artefact. The file backend writes a
// temporary file and renames it into place; concurrent writers to the same
// artefact are not coordinated and the last rename wins.
//
// StorageBackendFactory caches one backend per distinct base directory so that
// all routes sharing a base directory share a backend.
package storage
