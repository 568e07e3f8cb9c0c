package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration validation.
var (
	ErrConfigRequired = errors.New("config is required")
	ErrInvalidServer  = errors.New("server URL must start with http:// or https://")
)

// Errors for input validation.
var (
	ErrEmptyPath  = errors.New("path is required")
	ErrUnsafePath = errors.New("archive entry escapes destination")
)

// ErrNotListing is returned by List when the remote path is served as a file.
var ErrNotListing = errors.New("not a directory")
