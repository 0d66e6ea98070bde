package jobs

import (
	"path/filepath"
	"strconv"

	"github.com/dai/shuttle/cache"
)

// ManifestLayout places precompiled manifests under
// <Root>/manifest/<Environment>/<commit id>/manifest.<format>.
type ManifestLayout struct {
	Root        string
	Environment string
}

// Path returns where the manifest of commitID in format is cached.
func (l ManifestLayout) Path(commitID int64, format string) string {
	return filepath.Join(
		l.Root,
		"manifest",
		l.Environment,
		strconv.FormatInt(commitID, 10),
		"manifest."+format,
	)
}

// Cached returns the manifest path and whether a complete manifest is
// already there.
func (l ManifestLayout) Cached(commitID int64, format string) (string, bool, error) {
	path := l.Path(commitID, format)
	ok, err := cache.Exists(path)
	if err != nil {
		return path, false, err
	}
	return path, ok, nil
}
