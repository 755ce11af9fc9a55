// Package inspect composes bundle resolution, manifest decoding, query
// extraction and the hardware API scan into one result per input file.
package inspect

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bitrise-io/go-utils/log"
	"github.com/bitrise-steplib/steps-apk-inspector/bundle"
	"github.com/bitrise-steplib/steps-apk-inspector/hwapi"
	"github.com/bitrise-steplib/steps-apk-inspector/manifest"
	"github.com/pkg/errors"
)

const (
	apkExt  = ".apk"
	apkmExt = ".apkm"
)

// Feature is a <uses-feature> entry of the result.
type Feature struct {
	Name     string `yaml:"name"`
	Required bool   `yaml:"required"`
}

// Result is the immutable outcome of inspecting one file. PackageName and the
// version fields are empty when the manifest does not declare them.
type Result struct {
	FilePath         string    `yaml:"file"`
	PackageName      string    `yaml:"package,omitempty"`
	VersionName      string    `yaml:"version_name,omitempty"`
	VersionCode      string    `yaml:"version_code,omitempty"`
	MinSDKVersion    string    `yaml:"min_sdk_version,omitempty"`
	TargetSDKVersion string    `yaml:"target_sdk_version,omitempty"`
	Permissions      []string  `yaml:"permissions"`
	UsesFeatures     []Feature `yaml:"uses_features"`
	HardwareAPIs     []string  `yaml:"hardware_apis"`
	QueriedPackages  []string  `yaml:"queried_packages"`
	QueriedIntents   []string  `yaml:"queried_intents"`
	QueriedProviders []string  `yaml:"queried_providers"`
}

// IsBundle reports whether the path names an APKM bundle.
func IsBundle(pth string) bool {
	return strings.EqualFold(filepath.Ext(pth), apkmExt)
}

// IsSupported reports whether the path has an inspectable extension.
func IsSupported(pth string) bool {
	ext := filepath.Ext(pth)
	return strings.EqualFold(ext, apkExt) || strings.EqualFold(ext, apkmExt)
}

// Inspector ...
type Inspector struct {
	openManifest func(apkPath string) (*manifest.Manifest, error)
	scan         func(apkPath string) ([]string, error)
}

// New returns an Inspector backed by apkparser and the dex scanner.
func New() *Inspector {
	return &Inspector{
		openManifest: manifest.Open,
		scan:         hwapi.Scan,
	}
}

// Inspect inspects an APK or APKM file. No partial result is returned on
// error. A workspace created for a bundle is removed before Inspect returns.
func (i *Inspector) Inspect(filePath string) (Result, error) {
	apkPath := filePath

	if IsBundle(filePath) {
		ws, err := bundle.NewWorkspace()
		if err != nil {
			return Result{}, errors.Wrap(err, "failed to create temp dir")
		}
		defer func() {
			if err := ws.Remove(); err != nil {
				log.Warnf("Failed to remove temp dir (%s): %s", ws.Dir, err)
			}
		}()

		log.Debugf("Extracting base.apk from APKM bundle: %s", filePath)
		apkPath, err = ws.ExtractBaseAPK(filePath)
		if err != nil {
			return Result{}, errors.Wrap(err, "resolve base package")
		}
	}

	result, err := i.inspectAPK(apkPath)
	if err != nil {
		return Result{}, err
	}
	result.FilePath = filePath

	return result, nil
}

func (i *Inspector) inspectAPK(apkPath string) (Result, error) {
	m, err := i.openManifest(apkPath)
	if err != nil {
		return Result{}, errors.Wrap(err, "decode manifest")
	}

	queries := manifest.ExtractQueries(m.Root)

	hardwareAPIs, err := i.scan(apkPath)
	if err != nil {
		return Result{}, errors.Wrap(err, "scan bytecode")
	}

	sort.Strings(queries.Packages)
	sort.Strings(queries.Intents)
	sort.Strings(queries.Providers)

	return Result{
		FilePath:         apkPath,
		PackageName:      m.Summary.Package,
		VersionName:      m.Summary.VersionName,
		VersionCode:      m.Summary.VersionCode,
		MinSDKVersion:    m.Summary.MinSDKVersion,
		TargetSDKVersion: m.Summary.TargetSDKVersion,
		Permissions:      permissions(m.Summary),
		UsesFeatures:     features(m.Summary),
		HardwareAPIs:     hardwareAPIs,
		QueriedPackages:  queries.Packages,
		QueriedIntents:   queries.Intents,
		QueriedProviders: queries.Providers,
	}, nil
}

// permissions keeps duplicates; only the order is normalized.
func permissions(s manifest.Summary) []string {
	perms := []string{}
	for _, p := range s.UsesPermissions {
		if p.Name != "" {
			perms = append(perms, p.Name)
		}
	}
	sort.Strings(perms)
	return perms
}

func features(s manifest.Summary) []Feature {
	feats := []Feature{}
	for _, f := range s.UsesFeatures {
		if f.Name != "" {
			feats = append(feats, Feature{Name: f.Name, Required: f.IsRequired()})
		}
	}
	sort.SliceStable(feats, func(a, b int) bool {
		return feats[a].Name < feats[b].Name
	})
	return feats
}
