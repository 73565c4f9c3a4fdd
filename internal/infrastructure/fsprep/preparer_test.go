package fsprep

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cloudenvhq/cloudenv-install/internal/domain"
	"github.com/cloudenvhq/cloudenv-install/internal/pkg/logger"
)

type fakeOps struct {
	ops []string
}

func (f *fakeOps) MkdirAll(_ context.Context, path string, _ os.FileMode, elevated bool) error {
	f.ops = append(f.ops, tag("mkdir", path, elevated))
	return nil
}

func (f *fakeOps) Chmod(_ context.Context, path string, _ os.FileMode, elevated bool) error {
	f.ops = append(f.ops, tag("chmod", path, elevated))
	return nil
}

func (f *fakeOps) Chown(_ context.Context, path string, _ domain.Ownership, elevated bool) error {
	f.ops = append(f.ops, tag("chown", path, elevated))
	return nil
}

func (f *fakeOps) Move(_ context.Context, _, dst string, elevated bool) error {
	f.ops = append(f.ops, tag("mv", dst, elevated))
	return nil
}

func tag(op, path string, elevated bool) string {
	if elevated {
		return "sudo " + op + " " + path
	}
	return op + " " + path
}

type fakeNegotiator struct {
	granted bool
	probes  int
}

func (f *fakeNegotiator) Ensure(context.Context) (bool, error) {
	f.probes++
	return f.granted, nil
}

func (f *fakeNegotiator) Revoke() {}

type nullReporter struct{}

func (nullReporter) Headline(string, ...interface{}) {}
func (nullReporter) Step(string, ...interface{})     {}
func (nullReporter) Warn(string, ...interface{})     {}
func (nullReporter) Success(string, ...interface{})  {}
func (nullReporter) Detail(string, ...interface{})   {}

func newTestPreparer(neg *fakeNegotiator, ops *fakeOps, fallback, home string) *Preparer {
	return &Preparer{
		Ops:            ops,
		Negotiator:     neg,
		Reporter:       nullReporter{},
		Logger:         logger.NewStd(false),
		DefaultPrefix:  domain.DefaultPrefix,
		FallbackPrefix: fallback,
		HomeRoot:       home,
		Owner:          domain.Ownership{User: "jo", Group: "staff"},
	}
}

func requireNonRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("permission probes are meaningless as root")
	}
}

func linuxEnv(interactive bool) domain.ShellEnvironment {
	return domain.ShellEnvironment{Platform: domain.PlatformLinux, Interactive: interactive}
}

func macEnv() domain.ShellEnvironment {
	return domain.ShellEnvironment{Platform: domain.PlatformMacOS, Interactive: true}
}

func TestPlanWritableBinaryPathSkipsNegotiation(t *testing.T) {
	prefix := t.TempDir()
	if err := os.MkdirAll(filepath.Join(prefix, "bin"), 0o775); err != nil {
		t.Fatal(err)
	}
	neg := &fakeNegotiator{}
	p := newTestPreparer(neg, &fakeOps{}, t.TempDir(), t.TempDir())

	plan, err := p.Plan(context.Background(), macEnv(), domain.NewInstallTarget(prefix))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if !plan.DirectWrite || plan.NeedsElevation {
		t.Fatalf("expected direct write plan, got %+v", plan)
	}
	if len(plan.MissingDirs) != 0 {
		t.Fatalf("no dirs should be missing, got %v", plan.MissingDirs)
	}
	if neg.probes != 0 {
		t.Fatalf("privilege probed %d times, want 0", neg.probes)
	}
}

func TestPlanWritablePrefixListsMissingBin(t *testing.T) {
	prefix := t.TempDir()
	p := newTestPreparer(&fakeNegotiator{}, &fakeOps{}, t.TempDir(), t.TempDir())

	plan, err := p.Plan(context.Background(), linuxEnv(true), domain.NewInstallTarget(prefix))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if !plan.DirectWrite {
		t.Fatalf("expected direct write, got %+v", plan)
	}
	want := []string{filepath.Join(prefix, "bin")}
	if diff := cmp.Diff(want, plan.MissingDirs); diff != "" {
		t.Fatalf("missing dirs mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanNonTraversablePrefixAborts(t *testing.T) {
	requireNonRoot(t)

	root := t.TempDir()
	prefix := filepath.Join(root, "opt")
	if err := os.Mkdir(prefix, 0o666); err != nil { // rw, no search bit
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(prefix, 0o755) })

	ops := &fakeOps{}
	p := newTestPreparer(&fakeNegotiator{}, ops, t.TempDir(), t.TempDir())

	_, err := p.Plan(context.Background(), linuxEnv(true), domain.NewInstallTarget(prefix))
	var unsafe *domain.UnsafePrefixError
	if !errors.As(err, &unsafe) {
		t.Fatalf("expected UnsafePrefixError, got %v", err)
	}
	if unsafe.Prefix != prefix {
		t.Fatalf("error names %q, want %q", unsafe.Prefix, prefix)
	}
	if len(ops.ops) != 0 {
		t.Fatalf("no write may happen before validation, got %v", ops.ops)
	}
}

func TestPlanMacOSNegotiatesElevation(t *testing.T) {
	requireNonRoot(t)

	root := t.TempDir()
	prefix := filepath.Join(root, "usr", "local")
	if err := os.MkdirAll(filepath.Dir(prefix), 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(filepath.Dir(prefix), 0o755) })

	neg := &fakeNegotiator{granted: true}
	p := newTestPreparer(neg, &fakeOps{}, t.TempDir(), t.TempDir())

	plan, err := p.Plan(context.Background(), macEnv(), domain.NewInstallTarget(prefix))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if !plan.NeedsElevation || plan.DirectWrite || plan.Redirected {
		t.Fatalf("expected elevated plan at default prefix, got %+v", plan)
	}
	want := []string{prefix, filepath.Join(prefix, "bin")}
	if diff := cmp.Diff(want, plan.MissingDirs); diff != "" {
		t.Fatalf("missing dirs mismatch (-want +got):\n%s", diff)
	}
	if neg.probes != 1 {
		t.Fatalf("privilege probed %d times, want 1", neg.probes)
	}
}

func TestPlanMacOSDeniedEchoesRealProbe(t *testing.T) {
	requireNonRoot(t)

	root := t.TempDir()
	prefix := filepath.Join(root, "usr", "local")
	if err := os.MkdirAll(filepath.Dir(prefix), 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(filepath.Dir(prefix), 0o755) })

	cases := []struct {
		interactive bool
		wantCommand string
	}{
		{interactive: true, wantCommand: "sudo -v"},
		{interactive: false, wantCommand: "sudo -n true"},
	}
	for _, tc := range cases {
		p := newTestPreparer(&fakeNegotiator{granted: false}, &fakeOps{}, t.TempDir(), t.TempDir())
		env := domain.ShellEnvironment{Platform: domain.PlatformMacOS, Interactive: tc.interactive}

		_, err := p.Plan(context.Background(), env, domain.NewInstallTarget(prefix))
		var failed *domain.CommandFailedError
		if !errors.As(err, &failed) {
			t.Fatalf("interactive=%v: expected CommandFailedError, got %v", tc.interactive, err)
		}
		if failed.Command != tc.wantCommand {
			t.Fatalf("interactive=%v: echoed %q, want %q", tc.interactive, failed.Command, tc.wantCommand)
		}
	}
}

func TestPlanLinuxNonInteractiveRedirects(t *testing.T) {
	requireNonRoot(t)

	root := t.TempDir()
	prefix := filepath.Join(root, "usr", "local")
	if err := os.MkdirAll(filepath.Dir(prefix), 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(filepath.Dir(prefix), 0o755) })

	fallback := filepath.Join(t.TempDir(), ".local")
	unwritableHome := filepath.Join(root, "home")
	if err := os.Mkdir(unwritableHome, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(unwritableHome, 0o755) })

	neg := &fakeNegotiator{}
	p := newTestPreparer(neg, &fakeOps{}, fallback, unwritableHome)

	plan, err := p.Plan(context.Background(), linuxEnv(false), domain.NewInstallTarget(prefix))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if !plan.Redirected || !plan.DirectWrite || plan.NeedsElevation {
		t.Fatalf("expected fallback redirect, got %+v", plan)
	}
	if plan.Target.BinaryPath != filepath.Join(fallback, "bin", "cloudenv") {
		t.Fatalf("redirected binary path = %q", plan.Target.BinaryPath)
	}
	if neg.probes != 0 {
		t.Fatal("non-interactive run must not probe privileges")
	}
}

func TestPlanLinuxInteractiveElevatesWhenNoFallback(t *testing.T) {
	requireNonRoot(t)

	root := t.TempDir()
	prefix := filepath.Join(root, "usr", "local")
	if err := os.MkdirAll(filepath.Dir(prefix), 0o555); err != nil {
		t.Fatal(err)
	}
	fallback := filepath.Join(root, "blocked", ".local")
	home := filepath.Join(root, "home")
	for _, dir := range []string{filepath.Join(root, "blocked"), home} {
		if err := os.Mkdir(dir, 0o555); err != nil {
			t.Fatal(err)
		}
	}
	t.Cleanup(func() {
		for _, dir := range []string{filepath.Dir(prefix), filepath.Join(root, "blocked"), home} {
			_ = os.Chmod(dir, 0o755)
		}
	})

	neg := &fakeNegotiator{granted: true}
	p := newTestPreparer(neg, &fakeOps{}, fallback, home)

	plan, err := p.Plan(context.Background(), linuxEnv(true), domain.NewInstallTarget(prefix))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if !plan.NeedsElevation || plan.Redirected {
		t.Fatalf("expected elevated install at default prefix, got %+v", plan)
	}
	if neg.probes != 1 {
		t.Fatalf("privilege probed %d times, want 1", neg.probes)
	}

	// Denied elevation falls back to the user prefix instead of failing.
	neg = &fakeNegotiator{granted: false}
	p = newTestPreparer(neg, &fakeOps{}, fallback, home)
	plan, err = p.Plan(context.Background(), linuxEnv(true), domain.NewInstallTarget(prefix))
	if err != nil {
		t.Fatalf("Plan() after denial error = %v", err)
	}
	if !plan.Redirected {
		t.Fatalf("expected redirect after denial, got %+v", plan)
	}
}

func TestApplyElevatedAssignsOwnership(t *testing.T) {
	ops := &fakeOps{}
	p := newTestPreparer(&fakeNegotiator{granted: true}, ops, t.TempDir(), t.TempDir())

	plan := domain.PrepPlan{
		Target:         domain.NewInstallTarget("/usr/local"),
		NeedsElevation: true,
		MissingDirs:    []string{"/usr/local", "/usr/local/bin"},
	}
	created, err := p.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if diff := cmp.Diff(plan.MissingDirs, created); diff != "" {
		t.Fatalf("created dirs mismatch (-want +got):\n%s", diff)
	}

	want := []string{
		"sudo mkdir /usr/local",
		"sudo chmod /usr/local",
		"sudo chown /usr/local",
		"sudo mkdir /usr/local/bin",
		"sudo chmod /usr/local/bin",
		"sudo chown /usr/local/bin",
	}
	if diff := cmp.Diff(want, ops.ops); diff != "" {
		t.Fatalf("op sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyDirectSkipsOwnership(t *testing.T) {
	ops := &fakeOps{}
	p := newTestPreparer(&fakeNegotiator{}, ops, t.TempDir(), t.TempDir())

	prefix := filepath.Join(t.TempDir(), ".local")
	plan := domain.PrepPlan{
		Target:      domain.NewInstallTarget(prefix),
		DirectWrite: true,
		MissingDirs: []string{prefix, filepath.Join(prefix, "bin")},
	}
	if _, err := p.Apply(context.Background(), plan); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	for _, op := range ops.ops {
		if op == "sudo chown "+prefix || op == "chown "+prefix {
			t.Fatalf("direct apply must not reassign ownership: %v", ops.ops)
		}
	}
}
