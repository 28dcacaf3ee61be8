// Package corpus manages corpus versions on disk: the directory layout,
// the marker naming the active version, and the atomic swap that
// promotes a freshly built version. A corpus version is immutable once
// promoted; rebuilds always produce a new version directory.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
)

const (
	// versionsDir holds one subdirectory per corpus version.
	versionsDir = "versions"

	// currentMarker names the active version. Written atomically so
	// readers never observe a half-promoted corpus.
	currentMarker = "CURRENT"

	// buildSuffix marks an in-progress version directory. A crash mid
	// build leaves a *.building directory behind, never a live version.
	buildSuffix = ".building"
)

// Layout resolves paths within a corpus data directory.
type Layout struct {
	root string
}

// NewLayout creates a layout rooted at dataDir, creating the versions
// directory if needed.
func NewLayout(dataDir string) (*Layout, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: data directory must not be empty", domain.ErrConfiguration)
	}
	if err := os.MkdirAll(filepath.Join(dataDir, versionsDir), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &Layout{root: dataDir}, nil
}

// Root returns the data directory.
func (l *Layout) Root() string {
	return l.root
}

// VersionDir returns the directory for a promoted version.
func (l *Layout) VersionDir(version string) string {
	return filepath.Join(l.root, versionsDir, version)
}

// Begin allocates a new version id and creates its staging directory.
// Artifacts are written into the staging directory; Promote renames it
// into place and flips the marker.
func (l *Layout) Begin() (version, stagingDir string, err error) {
	version = uuid.NewString()
	stagingDir = l.VersionDir(version) + buildSuffix
	if err := os.MkdirAll(stagingDir, 0700); err != nil {
		return "", "", fmt.Errorf("creating staging directory: %w", err)
	}
	return version, stagingDir, nil
}

// Promote renames the staging directory to its final name and atomically
// updates the current marker. Queries running against the previous
// version keep their open file handles; new readers see the new version.
func (l *Layout) Promote(version string) error {
	staging := l.VersionDir(version) + buildSuffix
	final := l.VersionDir(version)

	if _, err := os.Stat(staging); err != nil {
		return fmt.Errorf("staging directory for version %s: %w", version, err)
	}
	if err := os.Rename(staging, final); err != nil {
		return fmt.Errorf("promoting version %s: %w", version, err)
	}

	// Marker update is write-to-temp then rename, the only atomic
	// replace the filesystem gives us.
	tmp := filepath.Join(l.root, currentMarker+".tmp")
	if err := os.WriteFile(tmp, []byte(version+"\n"), 0600); err != nil {
		return fmt.Errorf("writing version marker: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(l.root, currentMarker)); err != nil {
		return fmt.Errorf("activating version %s: %w", version, err)
	}
	return nil
}

// Abort removes the staging directory of a failed build.
func (l *Layout) Abort(version string) error {
	return os.RemoveAll(l.VersionDir(version) + buildSuffix)
}

// Current returns the active version id, or a wrapped domain.ErrNotFound
// when no version has been promoted yet.
func (l *Layout) Current() (string, error) {
	data, err := os.ReadFile(filepath.Join(l.root, currentMarker))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no corpus built yet: %w", domain.ErrNotFound)
		}
		return "", fmt.Errorf("reading version marker: %w", err)
	}
	version := strings.TrimSpace(string(data))
	if version == "" {
		return "", fmt.Errorf("empty version marker: %w", domain.ErrConfiguration)
	}
	return version, nil
}

// Versions lists promoted version ids, most useful for cleanup tooling.
func (l *Layout) Versions() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.root, versionsDir))
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	var versions []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasSuffix(entry.Name(), buildSuffix) {
			versions = append(versions, entry.Name())
		}
	}
	return versions, nil
}
