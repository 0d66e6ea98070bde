package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/dai/shuttle"
	"github.com/dai/shuttle/cache"
	"github.com/dai/shuttle/domain"
	"github.com/dai/shuttle/engine"
	"github.com/dai/shuttle/jobs"
	"github.com/dai/shuttle/runner"
)

func TestManifestLayout(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	l := jobs.ManifestLayout{Root: root, Environment: "production"}

	want := filepath.Join(root, "manifest", "production", "42", "manifest.yaml")
	if got := l.Path(42, "yaml"); got != want {
		t.Fatalf("Path = %q, want %q", got, want)
	}

	path, ok, err := l.Cached(42, "yaml")
	if err != nil || ok || path != want {
		t.Fatalf("Cached before write = %q, %v, %v", path, ok, err)
	}

	if err := os.MkdirAll(filepath.Dir(want), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(want, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := l.Cached(42, "yaml"); err != nil || !ok {
		t.Fatalf("Cached after write = %v, %v", ok, err)
	}
}

type manifestHarness struct {
	eng      *engine.Engine
	compiler *fakeCompiler
	layout   jobs.ManifestLayout
}

func newManifestHarness(t *testing.T, compiler *fakeCompiler, opts ...jobs.PrecompilerOption) *manifestHarness {
	t.Helper()
	eng := newTestEngine(t)
	layout := jobs.ManifestLayout{Root: t.TempDir(), Environment: "test"}
	p := jobs.NewManifestPrecompiler(newFakeCommits(5), compiler, layout, cache.NewWriter(), opts...)
	engine.Register(eng, p.Definition())
	return &manifestHarness{eng: eng, compiler: compiler, layout: layout}
}

func (h *manifestHarness) dispatch(format string) (runner.Outcome, error) {
	return engine.Dispatch(context.Background(), h.eng, jobs.ManifestPrecompileName,
		jobs.ManifestPrecompileArgs{CommitID: 5, Format: format})
}

func TestManifestPrecompiler_WritesManifest(t *testing.T) {
	t.Parallel()
	h := newManifestHarness(t, &fakeCompiler{})

	out, err := h.dispatch("yaml")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.Status != runner.Executed {
		t.Fatalf("status = %v", out.Status)
	}

	data, err := os.ReadFile(h.layout.Path(5, "yaml"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if string(data) != "commit: 5\nformat: yaml\n" {
		t.Fatalf("manifest = %q", data)
	}
	if len(h.compiler.force) != 1 || !h.compiler.force[0] {
		t.Fatalf("compiler force flags = %v, want [true]", h.compiler.force)
	}
}

func TestManifestPrecompiler_ForceRebuilds(t *testing.T) {
	t.Parallel()
	h := newManifestHarness(t, &fakeCompiler{})
	for range 2 {
		if _, err := h.dispatch("json"); err != nil {
			t.Fatal(err)
		}
	}
	if n := h.compiler.callCount(); n != 2 {
		t.Fatalf("compiler calls = %d, want 2", n)
	}
}

func TestManifestPrecompiler_NoForceUsesCache(t *testing.T) {
	t.Parallel()
	h := newManifestHarness(t, &fakeCompiler{}, jobs.WithForce(false))
	for range 2 {
		if _, err := h.dispatch("json"); err != nil {
			t.Fatal(err)
		}
	}
	if n := h.compiler.callCount(); n != 1 {
		t.Fatalf("compiler calls = %d, want 1", n)
	}
}

func TestManifestPrecompiler_NotReadyIsIgnored(t *testing.T) {
	t.Parallel()
	compiler := &fakeCompiler{}
	h := newManifestHarness(t, compiler)

	if _, err := h.dispatch("yaml"); err != nil {
		t.Fatal(err)
	}
	path := h.layout.Path(5, "yaml")
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	compiler.manifest = func(context.Context, domain.Commit, string) ([]byte, error) {
		return nil, fmt.Errorf("compile: %w", domain.ErrCommitNotReady)
	}
	out, err := h.dispatch("yaml")
	if err != nil {
		t.Fatalf("not-ready must be swallowed, got %v", err)
	}
	if out.Status != runner.Ignored {
		t.Fatalf("status = %v, want ignored", out.Status)
	}
	if !errors.Is(out.Err, shuttle.ErrNotReady) {
		t.Fatalf("outcome err = %v, want not ready", out.Err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != string(before) {
		t.Fatal("not-ready run must leave the cached manifest unchanged")
	}

	if lk, err := h.eng.InspectLock(context.Background(), out.Key); !errors.Is(err, shuttle.ErrLockNotHeld) {
		t.Fatalf("lock still held after ignored run: %+v, %v", lk, err)
	}
}

func TestManifestPrecompiler_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		args   jobs.ManifestPrecompileArgs
		wantIs error
	}{
		{name: "unknown commit", args: jobs.ManifestPrecompileArgs{CommitID: 6, Format: "yaml"}, wantIs: domain.ErrNotFound},
		{name: "path traversal format", args: jobs.ManifestPrecompileArgs{CommitID: 5, Format: "../x"}},
		{name: "empty format", args: jobs.ManifestPrecompileArgs{CommitID: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newManifestHarness(t, &fakeCompiler{})
			out, err := engine.Dispatch(context.Background(), h.eng, jobs.ManifestPrecompileName, tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Fatalf("err = %v, want %v", err, tt.wantIs)
			}
			if out.Status != runner.Failed {
				t.Fatalf("status = %v, want failed", out.Status)
			}
			if h.compiler.callCount() != 0 {
				t.Fatal("compiler must not run")
			}
		})
	}
}

func TestManifestPrecompiler_DuplicateSkippedWhileRunning(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	compiler := &fakeCompiler{}
	compiler.manifest = func(_ context.Context, _ domain.Commit, _ string) ([]byte, error) {
		close(entered)
		<-release
		return []byte("done"), nil
	}
	h := newManifestHarness(t, compiler)

	var g errgroup.Group
	var first runner.Outcome
	g.Go(func() error {
		var err error
		first, err = h.dispatch("yaml")
		return err
	})

	<-entered
	second, err := h.dispatch("yaml")
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if second.Status != runner.Skipped {
		t.Fatalf("second status = %v, want skipped", second.Status)
	}

	close(release)
	if err := g.Wait(); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	if first.Status != runner.Executed {
		t.Fatalf("first status = %v, want executed", first.Status)
	}
	if n := compiler.callCount(); n != 1 {
		t.Fatalf("compiler calls = %d, want 1", n)
	}
}
