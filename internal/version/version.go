// Package version holds build metadata stamped via -ldflags.
package version

// Version is the installer version, overridden at build time.
var Version = "v0.3.0"

// Commit is the git commit the binary was built from.
var Commit = ""

// BuildDate is the build timestamp.
var BuildDate = ""
