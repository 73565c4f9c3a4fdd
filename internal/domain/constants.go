package domain

import "time"

// Artifact constants.
const (
	// ArtifactURL is the fixed location of the cloudenv artifact.
	ArtifactURL = "https://raw.githubusercontent.com/cloudenvhq/cli/master/bin/cloudenv"
	// BinaryName is the installed executable's file name.
	BinaryName = "cloudenv"
	// MinBashMajor is the lowest bash major version the artifact runs under.
	MinBashMajor = 4
)

// Prefix defaults.
const (
	// DefaultPrefix is the system prefix used on macOS and unconstrained Linux.
	DefaultPrefix = "/usr/local"
	// LinuxFallbackDir is the prefix component appended to $HOME when Linux
	// installs redirect to a user-writable location.
	LinuxFallbackDir = ".local"
)

// File permission constants.
const (
	// DirectoryPermissions is the default permission for created directories (rwxrwxr-x).
	DirectoryPermissions = 0o775
	// ExecutablePermissions is the mode applied to the installed artifact (rwxr-xr-x).
	ExecutablePermissions = 0o755
)

// Ownership constants.
const (
	// MacOSAdminGroup owns created directories on macOS.
	MacOSAdminGroup = "admin"
)

// Timeout constants.
const (
	// DefaultDownloadTimeout bounds the single artifact fetch attempt.
	DefaultDownloadTimeout = 120 * time.Second
	// DefaultProbeTimeout bounds shell version and privilege probes.
	DefaultProbeTimeout = 10 * time.Second
)
