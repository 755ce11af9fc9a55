// Package manifest decodes the binary AndroidManifest.xml of an APK into a
// typed summary and a generic element tree.
package manifest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"

	"github.com/avast/apkparser"
	"github.com/bitrise-io/go-utils/log"
	"github.com/bitrise-steplib/steps-apk-inspector/archive"
	"github.com/pkg/errors"
)

// DecodeError is returned when the package has no recognizable manifest or
// the binary manifest is malformed.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode AndroidManifest.xml (%s): %s", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Permission ...
type Permission struct {
	Name string `xml:"name,attr"`
}

// Feature is a <uses-feature> declaration. Required holds the raw attribute
// value; it is empty when the manifest omits it.
type Feature struct {
	Name     string `xml:"name,attr"`
	Required string `xml:"required,attr"`
}

// IsRequired reports whether the feature is required. Features are required
// unless explicitly marked android:required="false".
func (f Feature) IsRequired() bool {
	return f.Required != "false"
}

type usesSDK struct {
	MinSDKVersion    string `xml:"minSdkVersion,attr"`
	TargetSDKVersion string `xml:"targetSdkVersion,attr"`
}

type manifestXML struct {
	XMLName         xml.Name     `xml:"manifest"`
	Package         string       `xml:"package,attr"`
	VersionCode     string       `xml:"versionCode,attr"`
	VersionName     string       `xml:"versionName,attr"`
	UsesSDK         usesSDK      `xml:"uses-sdk"`
	UsesPermissions []Permission `xml:"uses-permission"`
	UsesFeatures    []Feature    `xml:"uses-feature"`
}

// Summary is the typed view of the manifest.
type Summary struct {
	Package          string
	VersionCode      string
	VersionName      string
	MinSDKVersion    string
	TargetSDKVersion string
	UsesPermissions  []Permission
	UsesFeatures     []Feature
}

// Manifest is a decoded manifest: both views come from the same decode pass.
type Manifest struct {
	Summary Summary
	Root    *Node
}

// multiEncoder fans the token stream out to several encoders.
type multiEncoder []apkparser.ManifestEncoder

func (m multiEncoder) EncodeToken(t xml.Token) error {
	for _, enc := range m {
		if err := enc.EncodeToken(t); err != nil {
			return err
		}
	}
	return nil
}

func (m multiEncoder) Flush() error {
	for _, enc := range m {
		if err := enc.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// document collects one decode pass into both the XML text used for the
// typed summary and the element tree.
type document struct {
	buf  bytes.Buffer
	tree treeEncoder
	enc  multiEncoder
}

func newDocument() *document {
	d := &document{}
	xmlEnc := xml.NewEncoder(&d.buf)
	xmlEnc.Indent("", "\t")
	d.enc = multiEncoder{xmlEnc, &d.tree}
	return d
}

func (d *document) manifest() (*Manifest, error) {
	if d.tree.root == nil {
		return nil, errors.New("manifest is empty")
	}

	var m manifestXML
	if err := xml.Unmarshal(d.buf.Bytes(), &m); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal AndroidManifest.xml")
	}

	return &Manifest{
		Summary: Summary{
			Package:          m.Package,
			VersionCode:      m.VersionCode,
			VersionName:      m.VersionName,
			MinSDKVersion:    m.UsesSDK.MinSDKVersion,
			TargetSDKVersion: m.UsesSDK.TargetSDKVersion,
			UsesPermissions:  m.UsesPermissions,
			UsesFeatures:     m.UsesFeatures,
		},
		Root: d.tree.root,
	}, nil
}

// Open decodes the manifest of the APK at apkPath. A missing or unparsable
// resources.arsc only costs resource resolution; a missing or malformed
// manifest is a DecodeError.
func Open(apkPath string) (*Manifest, error) {
	r, err := archive.Open(apkPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Warnf("Failed to close APK (%s): %s", apkPath, err)
		}
	}()

	doc := newDocument()
	resErr, manErr := apkparser.ParseApkWithZip(r.ZipReader(), doc.enc)
	if manErr != nil {
		return nil, &DecodeError{Path: apkPath, Err: manErr}
	}
	if resErr != nil {
		if os.IsNotExist(resErr) {
			log.Debugf("No resources.arsc in %s", apkPath)
		} else {
			log.Warnf("Failed to parse resources of %s, attribute references stay unresolved: %s", apkPath, resErr)
		}
	}

	m, err := doc.manifest()
	if err != nil {
		return nil, &DecodeError{Path: apkPath, Err: err}
	}
	return m, nil
}
