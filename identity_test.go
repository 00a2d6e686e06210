package cnxepub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDoc(id string) *Document {
	return NewDocument(id, nil, Metadata{Title: "doc " + id})
}

func TestResolveOwnValuesWin(t *testing.T) {
	root := NewBinder("book@2.1", Metadata{})
	doc := NewDocument("m1@7", nil, Metadata{})
	root.Append(doc)

	r := NewIdentityResolver()
	r.Register(root)

	id, err := r.Resolve(root, doc)
	require.NoError(t, err)
	assert.Equal(t, "m1", id.ID)
	assert.Equal(t, "7", id.Version)
	assert.Equal(t, "m1@7", id.IdentHash())
}

func TestResolveVersionInheritsFromRootOnly(t *testing.T) {
	// Versions declared on intermediate binders must not leak into
	// descendants; only the root's version is inherited.
	root := NewBinder("book@2.1", Metadata{})
	mid := NewBinder("part@9.9", Metadata{})
	doc := newTestDoc("m1")
	mid.Append(doc)
	root.Append(mid)

	r := NewIdentityResolver()
	r.Register(root)

	id, err := r.Resolve(root, mid, doc)
	require.NoError(t, err)
	assert.Equal(t, "2.1", id.Version)

	// Extra structural depth between the intermediate binder and the
	// document changes nothing.
	sub := NewTranslucentBinder(Metadata{})
	sub.Append(doc)
	id, err = r.Resolve(root, mid, sub, doc)
	require.NoError(t, err)
	assert.Equal(t, "2.1", id.Version)
}

func TestResolveCompositeVersionMatchesRoot(t *testing.T) {
	// Generated pages carry no version of their own and sit arbitrarily
	// deep; they version with the book that generated them.
	root := NewBinder("book@4.2", Metadata{})
	unit := NewTranslucentBinder(Metadata{Title: "Unit 1"})
	chapter := NewTranslucentBinder(Metadata{Title: "Chapter 1"})
	composite := NewCompositeDocument("chapter-summary", nil, Metadata{Title: "Summary"})
	chapter.Append(composite)
	unit.Append(chapter)
	root.Append(unit)

	r := NewIdentityResolver()
	r.Register(root)

	id, err := r.Resolve(root, unit, chapter, composite)
	require.NoError(t, err)
	assert.Equal(t, "chapter-summary", id.ID)
	assert.Equal(t, "4.2", id.Version)
	assert.Equal(t, "chapter-summary@4.2", id.IdentHash())
}

func TestResolveIDInheritsFromNearestAncestor(t *testing.T) {
	root := NewBinder("book@1", Metadata{})
	mid := NewBinder("part", Metadata{})
	sub := NewTranslucentBinder(Metadata{})
	root.Append(mid)
	mid.Append(sub)

	r := NewIdentityResolver()
	r.Register(root)

	id, err := r.Resolve(root, mid, sub)
	require.NoError(t, err)
	assert.Equal(t, "part", id.ID, "nearest declaring ancestor wins over the root")
	assert.Equal(t, "1", id.Version)
}

func TestResolvePointer(t *testing.T) {
	root := NewBinder("book@3", Metadata{})
	target := NewDocument("m5@4", nil, Metadata{Title: "Target"})
	pointer := NewDocumentPointer("m5", Metadata{ShortID: "abc123"})
	root.Append(target, pointer)

	r := NewIdentityResolver()
	r.Register(root)

	id, err := r.Resolve(root, pointer)
	require.NoError(t, err)
	assert.Equal(t, "m5", id.ID)
	assert.Equal(t, "4", id.Version, "pointer resolves against its target")
	assert.Equal(t, "abc123", id.ShortID, "locally declared short id is preserved")
}

func TestResolveDanglingPointer(t *testing.T) {
	root := NewBinder("book@3", Metadata{})
	pointer := NewDocumentPointer("gone@2", Metadata{})
	root.Append(pointer)

	r := NewIdentityResolver()
	r.Register(root)

	id, err := r.Resolve(root, pointer)
	require.NoError(t, err)
	assert.Equal(t, "gone", id.ID)
	assert.Equal(t, "2", id.Version)
}

func TestResolvePointerCycle(t *testing.T) {
	root := NewBinder("book@1", Metadata{})
	a := NewDocumentPointer("a", Metadata{})
	b := NewDocumentPointer("b", Metadata{})
	root.Append(a, b)

	r := NewIdentityResolver()
	// Arena wired by hand so the pointers reference each other.
	r.arena["a"] = b
	r.arena["b"] = a

	_, err := r.Resolve(root, a)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIdentityConflict)
}

func TestValidateSiblingConflicts(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		wantErr bool
	}{
		{"distinct ids", []string{"m1", "m2"}, false},
		{"exact duplicate", []string{"m1", "m1"}, true},
		{"case variant", []string{"m1", "M1"}, true},
		{"whitespace variant", []string{"m1", " m1 "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := NewBinder("book@1", Metadata{})
			for _, id := range tt.ids {
				root.Append(newTestDoc(id))
			}
			r := NewIdentityResolver()
			r.Register(root)

			err := r.Validate(root)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIdentityConflict)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAllowsInheritedSiblings(t *testing.T) {
	// Two translucent binders under the same parent share the parent's
	// id through inheritance; that is not a conflict.
	root := NewBinder("book@1", Metadata{})
	root.Append(NewTranslucentBinder(Metadata{Title: "A"}))
	root.Append(NewTranslucentBinder(Metadata{Title: "B"}))

	r := NewIdentityResolver()
	r.Register(root)
	assert.NoError(t, r.Validate(root))
}
