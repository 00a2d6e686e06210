package cnxepub

import (
	"archive/zip"
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportFixture(t *testing.T) *Binder {
	t.Helper()
	root := NewBinder("book9@2.1", Metadata{
		Title:      "Export Me",
		Language:   "en",
		LicenseURL: "http://creativecommons.org/licenses/by/4.0/",
	})
	m1 := NewDocument("m1@1", mustBody(t, `<body>
<p>With an inline image <img src="data:image/png;base64,aGVsbG8="/>.</p>
</body>`), Metadata{Title: "One"})
	m2 := NewDocument("m2@1", nil, Metadata{Title: "Two"})
	root.Append(m1, m2)
	return root
}

func TestExportPackage(t *testing.T) {
	pkg, err := ExportPackage(exportFixture(t))
	require.NoError(t, err)

	assert.Equal(t, "book9", pkg.ID)
	require.NotNil(t, pkg.Navigation())
	assert.Equal(t, "contents/book9.xhtml", pkg.Navigation().Name)

	var pages, resources int
	for _, item := range pkg.Items() {
		switch {
		case strings.HasPrefix(item.Name, "contents/") && !item.IsNavigation:
			pages++
		case strings.HasPrefix(item.Name, "resources/"):
			resources++
		}
	}
	assert.Equal(t, 2, pages)
	assert.Equal(t, 1, resources, "inline data URI hoisted into a package resource")

	page, err := pkg.GrabByName("contents/m1@1.xhtml")
	require.NoError(t, err)
	assert.Contains(t, string(page.Data), `src="../resources/`,
		"inline reference rewritten to the hoisted resource")
	assert.Contains(t, string(page.Data), `data-type="metadata"`)
}

func TestExportPackageNavigation(t *testing.T) {
	pkg, err := ExportPackage(exportFixture(t))
	require.NoError(t, err)

	nav := string(pkg.Navigation().Data)
	assert.Contains(t, nav, "m1@1.xhtml")
	assert.Contains(t, nav, "m2@1.xhtml")
	assert.Less(t, strings.Index(nav, "m1@1"), strings.Index(nav, "m2@1"),
		"navigation lists pages in binder order")
	assert.NotContains(t, nav, `data-value="translucent"`,
		"a multi-page binder is a real navigation level")
}

func TestExportSingleDocumentBinderIsTranslucent(t *testing.T) {
	root := NewBinder("solo@1", Metadata{Title: "Solo", LicenseURL: "http://example.org/l"})
	root.Append(NewDocument("m1@1", nil, Metadata{Title: "Only"}))

	pkg, err := ExportPackage(root)
	require.NoError(t, err)
	assert.Contains(t, string(pkg.Navigation().Data), `data-value="translucent"`,
		"single-document binder exports with a translucent binding marker")
}

func TestExportPackageMintsMissingID(t *testing.T) {
	root := NewBinder("", Metadata{Title: "Anon"})
	root.Append(NewDocument("m1@1", nil, Metadata{Title: "Only"}))

	pkg, err := ExportPackage(root)
	require.NoError(t, err)
	assert.NotEmpty(t, pkg.ID)
	assert.NotEqual(t, "", pkg.Name)
}

func TestWriteEPUB(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEPUB(&buf, exportFixture(t)))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.NotEmpty(t, zr.File)

	first := zr.File[0]
	assert.Equal(t, "mimetype", first.Name, "mimetype must be the first entry")
	assert.Equal(t, zip.Store, first.Method, "mimetype must be stored uncompressed")

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["META-INF/container.xml"])
	assert.True(t, names["book9.opf"])
	assert.True(t, names["contents/book9.xhtml"])
}

func TestWriteEPUBRoundTrip(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, WriteEPUB(&buf, exportFixture(t)))

	path := dir + "/out.epub"
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	pkgs, err := ReadEPUB(path)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)

	binder, err := AdaptPackage(pkgs[0])
	require.NoError(t, err)
	assert.Equal(t, "Export Me", binder.Meta().Title)

	docs := FlattenToDocuments(binder)
	require.Len(t, docs, 2)
	assert.Equal(t, "m1", docs[0].ID())
	assert.Equal(t, "m2", docs[1].ID())
}
