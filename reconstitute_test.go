package cnxepub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstituteFromCollation(t *testing.T) {
	source := collationFixture(t)
	collation, err := NewCollator().Collate(context.Background(), source)
	require.NoError(t, err)

	binder, err := Reconstitute(collation.Root)
	require.NoError(t, err)

	assert.Equal(t, "book1", binder.ID())
	assert.Equal(t, "The Book", binder.Meta().Title)
	require.Equal(t, 1, binder.Len())

	chapter, ok := binder.Child(0).(*TranslucentBinder)
	require.True(t, ok)
	assert.Equal(t, "Chapter 1", chapter.Meta().Title)
	require.Equal(t, 2, chapter.Len())

	m1, ok := chapter.Child(0).(*Document)
	require.True(t, ok)
	assert.Equal(t, "m1", m1.ID())
	assert.Equal(t, "1", m1.Version(), "version carried through the archive uri")

	out, err := renderChildren(m1.Body())
	require.NoError(t, err)
	assert.Contains(t, string(out), "auto_m1_intro", "collation-namespaced ids survive")
	assert.NotContains(t, string(out), `data-type="document-title"`,
		"the title division is structural, not content")
}

func TestReconstituteCompositePage(t *testing.T) {
	root := NewBinder("b@1", Metadata{Title: "B"})
	root.Append(NewDocument("m1", mustBody(t, "<body><p>one</p></body>"), Metadata{Title: "One"}))
	root.Append(NewCompositeDocument("idx", mustBody(t, "<body><p>index</p></body>"), Metadata{Title: "Index"}))

	collation, err := NewCollator().Collate(context.Background(), root)
	require.NoError(t, err)

	binder, err := Reconstitute(collation.Root)
	require.NoError(t, err)
	require.Equal(t, 2, binder.Len())

	_, ok := binder.Child(1).(*CompositeDocument)
	assert.True(t, ok, "composite page reconstitutes as a composite document")
}

func TestReconstituteRejectsNonBook(t *testing.T) {
	doc, err := ParseHTML([]byte(`<html><body><p>not a book</p></body></html>`))
	require.NoError(t, err)
	_, err = Reconstitute(doc)
	assert.Error(t, err)
}
