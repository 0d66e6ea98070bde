// Package domain declares the narrow collaborator interfaces the concrete
// jobs depend on. The application supplies implementations backed by its
// own persistence; shuttle ships none.
package domain

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"

	"github.com/dai/shuttle"
)

var (
	// ErrNotFound is returned by finders when no record matches.
	ErrNotFound = errors.New("domain: not found")

	// ErrCommitNotReady is returned by a Compiler when the commit has left
	// the ready state since the job was enqueued. It wraps
	// shuttle.ErrNotReady so the default policy treats it as ignorable.
	ErrCommitNotReady = fmt.Errorf("domain: commit not ready: %w", shuttle.ErrNotReady)
)

// ── Projects and blobs ──────────────────────────────────

// ProjectFinder looks projects up by id.
type ProjectFinder interface {
	FindProject(ctx context.Context, projectID int64) (Project, error)
}

// Project is a repository whose blobs hold translatable strings.
type Project interface {
	ID() int64

	// FindOrCreateBlob returns the project's blob with the given sha,
	// creating the record when it does not exist yet.
	FindOrCreateBlob(ctx context.Context, sha string) (Blob, error)
}

// ImportOptions carries the optional context of a blob import.
type ImportOptions struct {
	// Commit the import is attributed to. Nil imports without one.
	Commit Commit

	// Locale overrides the project's base locale. Nil uses the default.
	Locale *language.Tag
}

// Blob is one file revision identified by its git sha.
type Blob interface {
	SHA() string

	// ImportStrings extracts translatable strings from the blob at path.
	ImportStrings(ctx context.Context, path string, opts ImportOptions) error
}

// ── Commits and manifests ───────────────────────────────

// CommitFinder looks commits up by id.
type CommitFinder interface {
	FindCommit(ctx context.Context, commitID int64) (Commit, error)
}

// Commit is an imported revision of a project.
type Commit interface {
	ID() int64
}

// Compiler renders a commit's translations into a manifest.
type Compiler interface {
	// Manifest returns the manifest of commit in format. force bypasses
	// any compiler-side cache. It returns an error wrapping
	// ErrCommitNotReady if the commit is no longer ready.
	Manifest(ctx context.Context, commit Commit, format string, force bool) ([]byte, error)
}

// ── Locales ─────────────────────────────────────────────

// ParseLocale parses an RFC 5646 language tag. A nil input means no
// override and yields a nil tag.
func ParseLocale(s *string) (*language.Tag, error) {
	if s == nil {
		return nil, nil
	}
	tag, err := language.Parse(*s)
	if err != nil {
		return nil, fmt.Errorf("domain: parse locale %q: %w", *s, err)
	}
	return &tag, nil
}
