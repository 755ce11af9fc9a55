// Package bundle materializes the base APK of an APKM bundle into a scoped
// temporary workspace.
package bundle

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bitrise-io/go-utils/log"
	"github.com/bitrise-io/go-utils/pathutil"
	"github.com/bitrise-steplib/steps-apk-inspector/archive"
	"github.com/pkg/errors"
)

const (
	tempDirPrefix = "apkm-"
	baseAPKName   = "base.apk"
)

// ErrBaseAPKNotFound is returned when a bundle has no base.apk entry.
var ErrBaseAPKNotFound = errors.New("no base.apk found in APKM file")

// Workspace is a uniquely named temporary directory owned by a single
// inspection. Whoever created it removes it, on success and on failure.
type Workspace struct {
	Dir string
}

// NewWorkspace ...
func NewWorkspace() (*Workspace, error) {
	dir, err := pathutil.NormalizedOSTempDirPath(tempDirPrefix)
	if err != nil {
		return nil, err
	}
	return &Workspace{Dir: dir}, nil
}

// Remove deletes the workspace recursively. Removing an already removed
// workspace is not an error.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.Dir)
}

// IsBaseAPK reports whether a bundle entry name designates the base package.
func IsBaseAPK(entryName string) bool {
	name := strings.ToLower(strings.ReplaceAll(entryName, `\`, "/"))
	return name == baseAPKName || strings.HasSuffix(name, "/"+baseAPKName)
}

// ExtractBaseAPK copies the first base.apk entry of the bundle to
// <workspace>/base.apk and returns that path.
func (w *Workspace) ExtractBaseAPK(bundlePath string) (string, error) {
	r, err := archive.Open(bundlePath)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Warnf("Failed to close bundle (%s): %s", bundlePath, err)
		}
	}()

	var base *archive.Entry
	it := r.Entries()
	for it.Next() {
		entry := it.Entry()
		if IsBaseAPK(entry.Name) {
			base = entry
			break
		}
		if strings.HasSuffix(strings.ToLower(entry.Name), ".apk") {
			log.Debugf("Skipping split package: %s", entry.Name)
		}
	}
	if base == nil {
		return "", ErrBaseAPKNotFound
	}

	outputPath := filepath.Join(w.Dir, baseAPKName)
	out, err := os.Create(outputPath)
	if err != nil {
		return "", errors.Wrap(err, "failed to create base.apk")
	}

	n, err := r.CopyTo(out, base)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = errors.Wrap(cerr, "failed to write base.apk")
	}
	if err != nil {
		return "", err
	}

	log.Debugf("Extracted %s (%d bytes) to %s", base.Name, n, outputPath)
	return outputPath, nil
}
