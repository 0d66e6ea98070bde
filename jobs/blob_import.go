// Package jobs defines the concrete background jobs: importing a blob's
// strings and precompiling a commit's manifest into the artifact cache.
//
// Each job type exposes a Definition for registration with an engine.
// Collaborators are the interfaces in package domain.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dai/shuttle/domain"
	"github.com/dai/shuttle/job"
	"github.com/dai/shuttle/registry"
)

// BlobImportName is the job name of a blob import.
const BlobImportName = "blob.import"

// BlobImportArgs identifies one blob import. All fields take part in the
// lock key, in declaration order.
type BlobImportArgs struct {
	ProjectID int64   `json:"project_id"`
	SHA       string  `json:"sha"`
	Path      string  `json:"path"`
	CommitID  int64   `json:"commit_id"`
	Locale    *string `json:"locale"`
}

// KeyArgs implements job.Args.
func (a BlobImportArgs) KeyArgs() []any {
	return []any{a.ProjectID, a.SHA, a.Path, a.CommitID, a.Locale}
}

// Owner attributes the import to its commit so the commit can report that
// it still has imports in flight.
func (a BlobImportArgs) Owner() (registry.OwnerRef, bool) {
	if a.CommitID <= 0 {
		return registry.OwnerRef{}, false
	}
	return registry.Commit(a.CommitID), true
}

// BlobImporter imports translatable strings from one blob of a project.
type BlobImporter struct {
	projects domain.ProjectFinder
	commits  domain.CommitFinder
	logger   *slog.Logger
}

// NewBlobImporter creates a BlobImporter.
func NewBlobImporter(projects domain.ProjectFinder, commits domain.CommitFinder, logger *slog.Logger) *BlobImporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlobImporter{projects: projects, commits: commits, logger: logger}
}

// Definition returns the job definition for registration.
func (b *BlobImporter) Definition(opts ...job.Option) *job.Definition[BlobImportArgs] {
	opts = append([]job.Option{job.WithQueue("high")}, opts...)
	return job.NewDefinition(BlobImportName, b.Import, opts...)
}

// Import finds or creates the blob and imports its strings.
//
// A missing commit is tolerated: the blob is imported without one. A
// missing project or an unparseable locale is an error.
func (b *BlobImporter) Import(ctx context.Context, args BlobImportArgs) error {
	commit, err := b.commits.FindCommit(ctx, args.CommitID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		b.logger.Info("blob import without commit",
			slog.Int64("commit_id", args.CommitID),
			slog.String("sha", args.SHA),
		)
		commit = nil
	case err != nil:
		return fmt.Errorf("blob import: find commit %d: %w", args.CommitID, err)
	}

	locale, err := domain.ParseLocale(args.Locale)
	if err != nil {
		return fmt.Errorf("blob import: %w", err)
	}

	project, err := b.projects.FindProject(ctx, args.ProjectID)
	if err != nil {
		return fmt.Errorf("blob import: find project %d: %w", args.ProjectID, err)
	}

	blob, err := project.FindOrCreateBlob(ctx, args.SHA)
	if err != nil {
		return fmt.Errorf("blob import: find or create blob %s: %w", args.SHA, err)
	}

	if err := blob.ImportStrings(ctx, args.Path, domain.ImportOptions{Commit: commit, Locale: locale}); err != nil {
		return fmt.Errorf("blob import: import %s@%s: %w", args.Path, args.SHA, err)
	}
	return nil
}
