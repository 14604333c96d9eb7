// Package interfaces defines the core interfaces and types for the artefact registry.
// It provides the contract between different components without implementation details.
package interfaces

import (
	"errors"
	"fmt"
)

// Setting names as they appear in the artefact tree, without the setting prefix.
const (
	SettingBaseDirectory = "base_directory"
	SettingReadToken     = "read_token"
	SettingWriteToken    = "write_token"
)

// Settings holds the access and storage settings in effect at one node of the
// artefact tree. A nil field means the setting is not configured.
type Settings struct {
	// BaseDirectory is the storage location prefix artefact paths are appended to.
	BaseDirectory *string

	// ReadToken is the bearer token required for GET. Nil means reads are public.
	ReadToken *string

	// WriteToken is the bearer token required for PUT. Nil means writes are public.
	WriteToken *string
}

// NullToken is the token a read or write token setting takes when it is given
// an explicit null. It counts as configured, so the operation is protected, but
// no request can present it. Compare by identity, never by value.
var NullToken = new(string)

// Merge returns a copy of s with every setting present in override replaced.
// Settings listed in nulls were given an explicit null: tokens become
// NullToken and the base directory is removed.
func (s Settings) Merge(override Settings, nulls ...string) Settings {
	merged := s
	if override.BaseDirectory != nil {
		merged.BaseDirectory = override.BaseDirectory
	}
	if override.ReadToken != nil {
		merged.ReadToken = override.ReadToken
	}
	if override.WriteToken != nil {
		merged.WriteToken = override.WriteToken
	}
	for _, name := range nulls {
		switch name {
		case SettingBaseDirectory:
			merged.BaseDirectory = nil
		case SettingReadToken:
			merged.ReadToken = NullToken
		case SettingWriteToken:
			merged.WriteToken = NullToken
		}
	}
	return merged
}

// Set assigns the named setting. Unknown names are reported with ok=false.
func (s *Settings) Set(name, value string) (ok bool) {
	v := value
	switch name {
	case SettingBaseDirectory:
		s.BaseDirectory = &v
	case SettingReadToken:
		s.ReadToken = &v
	case SettingWriteToken:
		s.WriteToken = &v
	default:
		return false
	}
	return true
}

// KnownSetting reports whether name is one of the recognized settings.
func KnownSetting(name string) bool {
	switch name {
	case SettingBaseDirectory, SettingReadToken, SettingWriteToken:
		return true
	}
	return false
}

// Route is the compiled form of one leaf artefact: the URL it is served at,
// the suffix appended to the base directory to locate it, and its settings.
type Route struct {
	URLPath     string
	StoragePath string
	Settings    Settings
}

// BaseDirectory returns the route's base directory or an empty string.
func (r Route) BaseDirectory() string {
	if r.Settings.BaseDirectory == nil {
		return ""
	}
	return *r.Settings.BaseDirectory
}

// String returns a representation suitable for logging. Tokens are never included.
func (r Route) String() string {
	return fmt.Sprintf("%s (base=%q read_protected=%t write_protected=%t)",
		r.URLPath, r.BaseDirectory(), r.Settings.ReadToken != nil, r.Settings.WriteToken != nil)
}

var (
	// ErrArtefactNotFound is returned when no artefact has been stored at the requested path.
	ErrArtefactNotFound = errors.New("artefact not found")

	// ErrUnauthorized is returned when a request does not carry the bearer token
	// configured for the operation.
	ErrUnauthorized = errors.New("unauthorized")
)
