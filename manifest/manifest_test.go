package manifest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/bitrise-steplib/steps-apk-inspector/archive"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

const androidNS = "http://schemas.android.com/apk/res/android"

func start(tag string, attrs ...xml.Attr) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: tag}, Attr: attrs}
}

func end(tag string) xml.EndElement {
	return xml.EndElement{Name: xml.Name{Local: tag}}
}

func androidAttr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Space: androidNS, Local: name}, Value: value}
}

func plainAttr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// decodeTokens drives a document the same way apkparser does.
func decodeTokens(t *testing.T, tokens ...xml.Token) *Manifest {
	doc := newDocument()
	for _, tok := range tokens {
		require.NoError(t, doc.enc.EncodeToken(tok))
	}
	require.NoError(t, doc.enc.Flush())

	m, err := doc.manifest()
	require.NoError(t, err)
	return m
}

func TestDocumentSummary(t *testing.T) {
	m := decodeTokens(t,
		start("manifest",
			androidAttr("versionCode", "42"),
			androidAttr("versionName", "1.4.2"),
			plainAttr("package", "com.example.app"),
		),
		start("uses-sdk", androidAttr("minSdkVersion", "21"), androidAttr("targetSdkVersion", "33")),
		end("uses-sdk"),
		start("uses-permission", androidAttr("name", "android.permission.INTERNET")),
		end("uses-permission"),
		start("uses-permission", androidAttr("name", "android.permission.CAMERA")),
		end("uses-permission"),
		start("uses-feature", androidAttr("name", "android.hardware.camera"), androidAttr("required", "false")),
		end("uses-feature"),
		start("uses-feature", androidAttr("name", "android.hardware.nfc")),
		end("uses-feature"),
		start("application", androidAttr("label", "App")),
		end("application"),
		end("manifest"),
	)

	require.Equal(t, "com.example.app", m.Summary.Package)
	require.Equal(t, "42", m.Summary.VersionCode)
	require.Equal(t, "1.4.2", m.Summary.VersionName)
	require.Equal(t, "21", m.Summary.MinSDKVersion)
	require.Equal(t, "33", m.Summary.TargetSDKVersion)
	require.Equal(t, []Permission{
		{Name: "android.permission.INTERNET"},
		{Name: "android.permission.CAMERA"},
	}, m.Summary.UsesPermissions)

	require.Len(t, m.Summary.UsesFeatures, 2)
	require.Equal(t, "android.hardware.camera", m.Summary.UsesFeatures[0].Name)
	require.False(t, m.Summary.UsesFeatures[0].IsRequired())
	require.Equal(t, "android.hardware.nfc", m.Summary.UsesFeatures[1].Name)
	require.True(t, m.Summary.UsesFeatures[1].IsRequired())

	t.Log("the element tree mirrors the token stream")
	{
		require.Equal(t, "manifest", m.Root.Tag)
		require.Len(t, m.Root.Children, 6)
		require.Equal(t, "application", m.Root.Children[5].Tag)

		pkg, ok := m.Root.AttrValue("package")
		require.True(t, ok)
		require.Equal(t, "com.example.app", pkg)
	}
}

func TestDocumentWithoutPackage(t *testing.T) {
	m := decodeTokens(t,
		start("manifest"),
		end("manifest"),
	)
	require.Empty(t, m.Summary.Package)
	require.Empty(t, m.Summary.UsesPermissions)
	require.Empty(t, m.Summary.UsesFeatures)
}

func TestEmptyDocument(t *testing.T) {
	doc := newDocument()
	_, err := doc.manifest()
	require.Error(t, err)
}

func TestNodeAttrValue(t *testing.T) {
	n := &Node{
		Tag: "provider",
		Attrs: []Attr{
			{Namespace: xmlnsSpace, Name: "name", Value: androidNS},
			{Namespace: androidNS, Name: "exported", Value: ""},
			{Namespace: androidNS, Name: "name", Value: "com.example.Provider"},
		},
	}

	v, ok := n.AttrValue("name")
	require.True(t, ok)
	require.Equal(t, "com.example.Provider", v)

	_, ok = n.AttrValue("exported")
	require.False(t, ok)

	_, ok = n.AttrValue("authorities")
	require.False(t, ok)
}

func TestNodeFind(t *testing.T) {
	first := &Node{Tag: "queries", Attrs: []Attr{{Name: "id", Value: "first"}}}
	second := &Node{Tag: "queries", Attrs: []Attr{{Name: "id", Value: "second"}}}
	root := &Node{
		Tag: "manifest",
		Children: []*Node{
			{Tag: "application", Children: []*Node{first}},
			second,
		},
	}

	require.Same(t, first, root.Find("queries"))
	require.Same(t, root, root.Find("manifest"))
	require.Nil(t, root.Find("instrumentation"))

	var nilNode *Node
	require.Nil(t, nilNode.Find("queries"))
}

func TestOpen(t *testing.T) {
	t.Log("a non zip file is an archive error")
	{
		pth := filepath.Join(t.TempDir(), "broken.apk")
		require.NoError(t, ioutil.WriteFile(pth, []byte("not an apk"), 0600))

		_, err := Open(pth)
		var openErr *archive.OpenError
		require.True(t, errors.As(err, &openErr))
	}

	t.Log("a package without AndroidManifest.xml is a decode error")
	{
		pth := filepath.Join(t.TempDir(), "nomanifest.apk")
		var buf bytes.Buffer
		w := zip.NewWriter(&buf)
		f, err := w.Create("classes.dex")
		require.NoError(t, err)
		_, err = f.Write([]byte("dex\n035\x00"))
		require.NoError(t, err)
		require.NoError(t, w.Close())
		require.NoError(t, ioutil.WriteFile(pth, buf.Bytes(), 0600))

		_, err = Open(pth)
		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr))
		require.Equal(t, pth, decodeErr.Path)
	}
}
