package domain

import (
	"context"
	"path/filepath"
)

// InstallTarget resolves where the artifact lands on disk.
// The invariant BinaryPath == Prefix/bin/<BinaryName> holds for every value
// produced by NewInstallTarget; the prefix may only be replaced wholesale
// (Linux fallback redirect), never partially edited.
type InstallTarget struct {
	Prefix     string
	BinDir     string
	BinaryPath string
}

// NewInstallTarget builds a target rooted at prefix.
func NewInstallTarget(prefix string) InstallTarget {
	binDir := filepath.Join(prefix, "bin")
	return InstallTarget{
		Prefix:     prefix,
		BinDir:     binDir,
		BinaryPath: filepath.Join(binDir, BinaryName),
	}
}

// PrepPlan describes the filesystem work required before the download runs.
// Plans are computed without side effects so the confirmation gate can show
// them to the user before anything is created.
type PrepPlan struct {
	Target         InstallTarget
	Redirected     bool      // Linux fallback redirect happened
	MissingDirs    []string  // directories that will be created, in order
	NeedsElevation bool      // creation/ownership must run under sudo
	DirectWrite    bool      // binary path already writable, skip negotiation
	Owner          Ownership // assigned to elevated creations
}

// Ownership names the user and group assigned to created paths.
type Ownership struct {
	User  string
	Group string
}

// InstallRequest captures one invocation of the install pipeline.
type InstallRequest struct {
	Context        context.Context
	PrefixOverride string
	URLOverride    string
	AssumeYes      bool
	NonInteractive bool
	DryRun         bool
	Debug          bool
}

// InstallReport is the canonical result propagated back to the CLI.
type InstallReport struct {
	Environment ShellEnvironment
	Target      InstallTarget
	ArtifactURL string
	CreatedDirs []string
	Redirected  bool
	Elevated    bool
	ShimApplied bool
	DryRun      bool
}

// InstallService exposes the use-case boundary for running an install.
type InstallService interface {
	Run(InstallRequest) (InstallReport, error)
}
