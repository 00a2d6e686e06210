package cnxepub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPageHTML = `<html lang="en">
<body>
<div data-type="metadata">
<h1 data-type="document-title">Forces <em>and</em> Motion</h1>
<span data-type="cnx-archive-uri" data-value="m42081@1.4"></span>
<span data-type="cnx-archive-shortid" data-value="QhHLxZ"></span>
<meta itemprop="inLanguage" data-type="language" content="de"/>
<meta itemprop="dateCreated" data-type="created" content="2013-07-31T19:07Z"/>
<meta itemprop="dateModified" data-type="revised" content="2014-08-18T11:23Z"/>
<div class="authors">
<span data-type="author" data-display-seq="2"><a href="https://example.org/u/beta">Beta Author</a></span>
<span data-type="author" data-display-seq="1"><a href="https://example.org/u/alpha">Alpha Author</a></span>
</div>
<div data-type="license-holder">
<a data-type="license" href="http://creativecommons.org/licenses/by/4.0/">CC BY 4.0</a>
</div>
<div data-type="description" itemprop="description">About <b>forces</b>.</div>
<span data-type="keyword">force</span>
<span data-type="keyword">motion</span>
<span data-type="subject">Science</span>
</div>
<p>Body content.</p>
</body>
</html>`

func TestParseMetadata(t *testing.T) {
	root, err := ParseHTML([]byte(testPageHTML))
	require.NoError(t, err)

	meta := ParseMetadata(root)
	assert.Equal(t, "Forces <em>and</em> Motion", meta.Title)
	assert.Equal(t, "de", meta.Language, "stanza declaration wins over the html lang attribute")
	assert.Equal(t, "2013-07-31T19:07Z", meta.Created)
	assert.Equal(t, "2014-08-18T11:23Z", meta.Revised)
	assert.Equal(t, "http://creativecommons.org/licenses/by/4.0/", meta.LicenseURL)
	assert.Equal(t, "CC BY 4.0", meta.LicenseText)
	assert.Equal(t, "About <b>forces</b>.", meta.Summary)
	assert.Equal(t, []string{"force", "motion"}, meta.Keywords)
	assert.Equal(t, []string{"Science"}, meta.Subjects)
	assert.Equal(t, "m42081@1.4", meta.URI("cnx-archive"))
	assert.Equal(t, "1.4", meta.Version)
	assert.Equal(t, "QhHLxZ", meta.ShortID)

	require.Len(t, meta.Authors, 2)
	assert.Equal(t, "Alpha Author", meta.Authors[0].Name, "display-seq reorders authors")
	assert.Equal(t, "Beta Author", meta.Authors[1].Name)
	assert.Equal(t, "https://example.org/u/alpha", meta.Authors[0].ID)
}

func TestParseMetadataLanguageFallback(t *testing.T) {
	root, err := ParseHTML([]byte(`<html lang="fr"><body><div data-type="metadata"><h1 data-type="document-title">T</h1></div></body></html>`))
	require.NoError(t, err)
	meta := ParseMetadata(root)
	assert.Equal(t, "fr", meta.Language)
}

func TestValidateDocumentMetadata(t *testing.T) {
	tests := []struct {
		name    string
		meta    Metadata
		wantErr bool
	}{
		{"complete", Metadata{Title: "T", LicenseURL: "http://example.org/l"}, false},
		{"no title", Metadata{LicenseURL: "http://example.org/l"}, true},
		{"no license", Metadata{Title: "T"}, true},
		{"empty", Metadata{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentMetadata(tt.meta)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingMetadata)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsDocumentPointer(t *testing.T) {
	pointer, err := ParseHTML([]byte(`<html><body><div data-type="metadata"><span data-type="document" data-value="pointer"></span></div></body></html>`))
	require.NoError(t, err)
	assert.True(t, IsDocumentPointer(pointer))

	page, err := ParseHTML([]byte(testPageHTML))
	require.NoError(t, err)
	assert.False(t, IsDocumentPointer(page))
}

func TestParseResourceEntries(t *testing.T) {
	root, err := ParseHTML([]byte(`<html><body><div data-type="metadata">
<div data-type="resources"><ul>
<li data-media-type="image/png"><a href="../resources/abc.png">abc.png</a></li>
<li data-media-type="text/css"><a href="../resources/style.css">style.css</a></li>
</ul></div>
</div></body></html>`))
	require.NoError(t, err)

	entries := ParseResourceEntries(root)
	require.Len(t, entries, 2)
	assert.Equal(t, "image/png", entries[0].MediaType)
	assert.Equal(t, "abc.png", entries[0].Name)
}
