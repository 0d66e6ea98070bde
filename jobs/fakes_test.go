package jobs_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/dai/shuttle/domain"
)

// ──────────────────────────────────────────────────
// In-memory domain fakes
// ──────────────────────────────────────────────────

type fakeCommit struct{ id int64 }

func (c *fakeCommit) ID() int64 { return c.id }

type fakeCommits struct {
	mu      sync.Mutex
	commits map[int64]*fakeCommit
	err     error
}

func newFakeCommits(ids ...int64) *fakeCommits {
	fc := &fakeCommits{commits: make(map[int64]*fakeCommit)}
	for _, i := range ids {
		fc.commits[i] = &fakeCommit{id: i}
	}
	return fc
}

func (f *fakeCommits) FindCommit(_ context.Context, commitID int64) (domain.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.commits[commitID]
	if !ok {
		return nil, fmt.Errorf("commit %d: %w", commitID, domain.ErrNotFound)
	}
	return c, nil
}

type importCall struct {
	path string
	opts domain.ImportOptions
}

type fakeBlob struct {
	sha string

	mu      sync.Mutex
	imports []importCall
	hook    func(ctx context.Context) error
}

func (b *fakeBlob) SHA() string { return b.sha }

func (b *fakeBlob) ImportStrings(ctx context.Context, path string, opts domain.ImportOptions) error {
	if b.hook != nil {
		if err := b.hook(ctx); err != nil {
			return err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.imports = append(b.imports, importCall{path: path, opts: opts})
	return nil
}

func (b *fakeBlob) calls() []importCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]importCall(nil), b.imports...)
}

type fakeProject struct {
	id int64

	mu    sync.Mutex
	blobs map[string]*fakeBlob
	hook  func(ctx context.Context) error
}

func (p *fakeProject) ID() int64 { return p.id }

func (p *fakeProject) FindOrCreateBlob(_ context.Context, sha string) (domain.Blob, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.blobs[sha]
	if !ok {
		b = &fakeBlob{sha: sha}
		if p.hook != nil {
			b.hook = p.hook
		}
		p.blobs[sha] = b
	}
	return b, nil
}

func (p *fakeProject) blob(sha string) *fakeBlob {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blobs[sha]
}

type fakeProjects struct {
	projects map[int64]*fakeProject
}

func newFakeProjects(ids ...int64) *fakeProjects {
	fp := &fakeProjects{projects: make(map[int64]*fakeProject)}
	for _, i := range ids {
		fp.projects[i] = &fakeProject{id: i, blobs: make(map[string]*fakeBlob)}
	}
	return fp
}

func (f *fakeProjects) FindProject(_ context.Context, projectID int64) (domain.Project, error) {
	p, ok := f.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", projectID, domain.ErrNotFound)
	}
	return p, nil
}

type fakeCompiler struct {
	mu    sync.Mutex
	calls int
	force []bool

	// manifest returns the bytes for a call; nil uses a default body.
	manifest func(ctx context.Context, commit domain.Commit, format string) ([]byte, error)
}

func (c *fakeCompiler) Manifest(ctx context.Context, commit domain.Commit, format string, force bool) ([]byte, error) {
	c.mu.Lock()
	c.calls++
	c.force = append(c.force, force)
	c.mu.Unlock()
	if c.manifest != nil {
		return c.manifest(ctx, commit, format)
	}
	return []byte(fmt.Sprintf("commit: %d\nformat: %s\n", commit.ID(), format)), nil
}

func (c *fakeCompiler) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
