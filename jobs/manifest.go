package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/dai/shuttle/cache"
	"github.com/dai/shuttle/domain"
	"github.com/dai/shuttle/job"
)

// ManifestPrecompileName is the job name of a manifest precompilation.
const ManifestPrecompileName = "manifest.precompile"

var formatPattern = regexp.MustCompile(`^[a-z0-9]+$`)

// ManifestPrecompileArgs identifies one manifest precompilation.
type ManifestPrecompileArgs struct {
	CommitID int64  `json:"commit_id"`
	Format   string `json:"format"`
}

// KeyArgs implements job.Args.
func (a ManifestPrecompileArgs) KeyArgs() []any {
	return []any{a.CommitID, a.Format}
}

// PrecompilerOption configures a ManifestPrecompiler.
type PrecompilerOption func(*ManifestPrecompiler)

// WithForce sets whether an existing cached manifest is rebuilt.
// Default true.
func WithForce(force bool) PrecompilerOption {
	return func(p *ManifestPrecompiler) { p.force = force }
}

// WithPrecompilerLogger sets the logger.
func WithPrecompilerLogger(l *slog.Logger) PrecompilerOption {
	return func(p *ManifestPrecompiler) { p.logger = l }
}

// ManifestPrecompiler renders a commit's manifest and stores it in the
// artifact cache for later download.
type ManifestPrecompiler struct {
	commits  domain.CommitFinder
	compiler domain.Compiler
	layout   ManifestLayout
	writer   *cache.Writer
	force    bool
	logger   *slog.Logger
}

// NewManifestPrecompiler creates a ManifestPrecompiler.
func NewManifestPrecompiler(
	commits domain.CommitFinder,
	compiler domain.Compiler,
	layout ManifestLayout,
	writer *cache.Writer,
	opts ...PrecompilerOption,
) *ManifestPrecompiler {
	p := &ManifestPrecompiler{
		commits:  commits,
		compiler: compiler,
		layout:   layout,
		writer:   writer,
		force:    true,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.writer == nil {
		p.writer = cache.NewWriter(cache.WithLogger(p.logger))
	}
	return p
}

// Definition returns the job definition for registration.
func (p *ManifestPrecompiler) Definition(opts ...job.Option) *job.Definition[ManifestPrecompileArgs] {
	opts = append([]job.Option{job.WithQueue("low")}, opts...)
	return job.NewDefinition(ManifestPrecompileName, p.Precompile, opts...)
}

// Precompile compiles and caches the manifest. A commit that is no longer
// ready yields an error wrapping domain.ErrCommitNotReady and leaves the
// cache untouched.
func (p *ManifestPrecompiler) Precompile(ctx context.Context, args ManifestPrecompileArgs) error {
	if !formatPattern.MatchString(args.Format) {
		return fmt.Errorf("manifest precompile: invalid format %q", args.Format)
	}

	commit, err := p.commits.FindCommit(ctx, args.CommitID)
	if err != nil {
		return fmt.Errorf("manifest precompile: find commit %d: %w", args.CommitID, err)
	}

	path := p.layout.Path(commit.ID(), args.Format)
	_, err = p.writer.Materialize(ctx, path, p.force, func(ctx context.Context) ([]byte, error) {
		return p.compiler.Manifest(ctx, commit, args.Format, true)
	})
	if err != nil {
		return fmt.Errorf("manifest precompile: commit %d: %w", args.CommitID, err)
	}

	p.logger.Debug("manifest precompiled",
		slog.Int64("commit_id", args.CommitID),
		slog.String("format", args.Format),
		slog.String("path", path),
	)
	return nil
}
