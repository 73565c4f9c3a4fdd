package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/cloudenvhq/cloudenv-install/internal/domain"
	"github.com/cloudenvhq/cloudenv-install/internal/infrastructure/runner"
	"github.com/cloudenvhq/cloudenv-install/internal/pkg/logger"
)

type stubRunner struct {
	versions map[string]string // shell path -> --version stdout
	paths    map[string]string // tool name -> resolved path
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) (runner.Result, error) {
	out, ok := s.versions[name]
	if !ok {
		return runner.Result{ExitCode: 127}, nil
	}
	return runner.Result{Stdout: out}, nil
}

func (s *stubRunner) LookPath(name string) (string, error) {
	if path, ok := s.paths[name]; ok {
		return path, nil
	}
	return "", errors.New("not found")
}

func newTestDetector(goos string, euid int, env map[string]string, run commandRunner) *Detector {
	return &Detector{
		goos: goos,
		euid: func() int { return euid },
		getenv: func(key string) string {
			return env[key]
		},
		run:    run,
		logger: logger.NewStd(false),
	}
}

func TestParseMajorVersion(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   int
	}{
		{"bash release line", "GNU bash, version 5.1.16(1)-release (x86_64-pc-linux-gnu)", 5},
		{"macos stock bash", "GNU bash, version 3.2.57(1)-release (arm64-apple-darwin22)", 3},
		{"zsh", "zsh 5.9 (x86_64-apple-darwin22.0)", 5},
		{"multiline keeps first line", "GNU bash, version 4.4.20(1)-release\nCopyright (C) 2016", 4},
		{"no version", "no numbers here", 0},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseMajorVersion(tt.output); got != tt.want {
				t.Fatalf("ParseMajorVersion(%q) = %d, want %d", tt.output, got, tt.want)
			}
		})
	}
}

func TestMapPlatform(t *testing.T) {
	if p, err := mapPlatform("linux"); err != nil || p != domain.PlatformLinux {
		t.Fatalf("linux: got (%v, %v)", p, err)
	}
	if p, err := mapPlatform("darwin"); err != nil || p != domain.PlatformMacOS {
		t.Fatalf("darwin: got (%v, %v)", p, err)
	}

	_, err := mapPlatform("windows")
	var unsupported *domain.UnsupportedPlatformError
	if !errors.As(err, &unsupported) {
		t.Fatalf("windows: expected UnsupportedPlatformError, got %v", err)
	}
	if unsupported.OS != "windows" {
		t.Fatalf("error should name the kernel, got %q", unsupported.OS)
	}
}

func TestDetectModernBashIsInteractive(t *testing.T) {
	run := &stubRunner{
		versions: map[string]string{"/bin/bash": "GNU bash, version 5.1.16(1)-release"},
	}
	d := newTestDetector("linux", 1000, map[string]string{"SHELL": "/bin/bash"}, run)

	env, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	want := domain.ShellEnvironment{
		Platform:    domain.PlatformLinux,
		Shell:       domain.ShellBash,
		ShellPath:   "/bin/bash",
		ShellMajor:  5,
		Interactive: true,
	}
	if diff := cmp.Diff(want, env, cmpopts.IgnoreFields(domain.ShellEnvironment{}, "PlatformDesc")); diff != "" {
		t.Fatalf("environment mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectRootIsNonInteractive(t *testing.T) {
	run := &stubRunner{
		versions: map[string]string{"/bin/bash": "GNU bash, version 5.0.0(1)-release"},
	}
	d := newTestDetector("linux", 0, map[string]string{"SHELL": "/bin/bash"}, run)

	env, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if env.Interactive {
		t.Fatal("root invocation must be non-interactive")
	}
}

func TestDetectEnvOverrideIsNonInteractive(t *testing.T) {
	run := &stubRunner{
		versions: map[string]string{"/bin/bash": "GNU bash, version 5.0.0(1)-release"},
	}
	d := newTestDetector("linux", 1000, map[string]string{
		"SHELL":           "/bin/bash",
		EnvNonInteractive: "1",
	}, run)

	env, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if env.Interactive {
		t.Fatal("override must force non-interactive mode")
	}
}

func TestDetectOldBashFlagsShimWhenZshAvailable(t *testing.T) {
	run := &stubRunner{
		versions: map[string]string{"/bin/bash": "GNU bash, version 3.2.57(1)-release"},
		paths:    map[string]string{"zsh": "/bin/zsh"},
	}
	d := newTestDetector("darwin", 501, map[string]string{"SHELL": "/bin/bash"}, run)

	env, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !env.NeedsShim {
		t.Fatal("expected shim flag for bash 3 with zsh on PATH")
	}
	if env.AlternateShell != "/bin/zsh" {
		t.Fatalf("alternate shell = %q, want /bin/zsh", env.AlternateShell)
	}
}

func TestDetectOldBashWithoutZshFails(t *testing.T) {
	run := &stubRunner{
		versions: map[string]string{"/bin/bash": "GNU bash, version 3.2.57(1)-release"},
	}
	d := newTestDetector("darwin", 501, map[string]string{"SHELL": "/bin/bash"}, run)

	_, err := d.Detect(context.Background())
	var incompatible *domain.IncompatibleShellError
	if !errors.As(err, &incompatible) {
		t.Fatalf("expected IncompatibleShellError, got %v", err)
	}
	if incompatible.Minimum != domain.MinBashMajor {
		t.Fatalf("error minimum = %d, want %d", incompatible.Minimum, domain.MinBashMajor)
	}
}

func TestDetectZshLoginShellNeedsNoShim(t *testing.T) {
	run := &stubRunner{
		versions: map[string]string{
			"/bin/zsh":  "zsh 5.9 (x86_64-apple-darwin22.0)",
			"/bin/bash": "GNU bash, version 3.2.57(1)-release",
		},
		paths: map[string]string{"bash": "/bin/bash", "zsh": "/bin/zsh"},
	}
	d := newTestDetector("darwin", 501, map[string]string{"SHELL": "/bin/zsh"}, run)

	env, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if env.NeedsShim {
		t.Fatal("zsh login shell should not require a shim")
	}
	if env.Shell != domain.ShellZsh || env.ShellMajor != 5 {
		t.Fatalf("got shell %s major %d", env.Shell, env.ShellMajor)
	}
}
