package cnxepub

import "strings"

const (
	// TranslucentBinderID is the placeholder identifier used in
	// navigation trees for binders that carry no identity of their own.
	TranslucentBinderID = "subcol"

	// DocumentMediaType is the media type of every document-like node.
	DocumentMediaType = "application/xhtml+xml"
)

// Node is implemented by every member of a content tree: documents,
// binders, translucent binders, composite documents and document
// pointers.
type Node interface {
	// Meta returns the node's metadata. The returned pointer refers to
	// the node's own metadata; mutations are visible to the node.
	Meta() *Metadata

	// IdentHash returns the node's "id@version" identity token, "id"
	// when no version is known, or "" when the node carries no identity
	// of its own (translucent binders always return "").
	IdentHash() string
}

// Container is a Node with an ordered sequence of children.
type Container interface {
	Node

	// Len returns the number of children.
	Len() int

	// Child returns the i-th child.
	Child(i int) Node
}

// Actor is an attributed role entry: an author, editor, illustrator,
// translator, publisher or copyright holder.
type Actor struct {
	// Name is the display name.
	Name string

	// Type identifies the account system the actor id lives in
	// (e.g., "cnx-id").
	Type string

	// ID is a URI identifying the actor, if known.
	ID string
}

// Metadata holds the descriptive metadata attached to a content node.
// Version is a plain string token; it is compared only for equality and
// is never interpreted as semver.
type Metadata struct {
	Title    string
	Summary  string
	Language string
	Version  string

	// Created and Revised are raw timestamp strings as they appear in
	// the source markup.
	Created string
	Revised string

	LicenseURL  string
	LicenseText string

	Subjects []string
	Keywords []string

	Authors          []Actor
	Editors          []Actor
	Illustrators     []Actor
	Translators      []Actor
	Publishers       []Actor
	CopyrightHolders []Actor

	// ShortID is the short symbolic identifier, independent of the
	// node's full id.
	ShortID string

	DerivedFromURI   string
	DerivedFromTitle string
	PrintStyle       string

	// PublicationMessage accompanies a publication request and is
	// carried into the package metadata.
	PublicationMessage string

	// uris maps an external system name to the node's identity URI in
	// that system (e.g., "cnx-archive" -> "ab1c2d3e@4").
	uris map[string]string
}

// URI returns the node's identity URI in the given system, or "" when
// none is recorded.
func (m *Metadata) URI(system string) string {
	return m.uris[system]
}

// SetURI records the node's identity URI in the given system.
func (m *Metadata) SetURI(system, uri string) {
	if m.uris == nil {
		m.uris = make(map[string]string)
	}
	m.uris[system] = uri
}

// Clone returns a deep copy of the metadata.
func (m *Metadata) Clone() Metadata {
	out := *m
	out.Subjects = append([]string(nil), m.Subjects...)
	out.Keywords = append([]string(nil), m.Keywords...)
	out.Authors = append([]Actor(nil), m.Authors...)
	out.Editors = append([]Actor(nil), m.Editors...)
	out.Illustrators = append([]Actor(nil), m.Illustrators...)
	out.Translators = append([]Actor(nil), m.Translators...)
	out.Publishers = append([]Actor(nil), m.Publishers...)
	out.CopyrightHolders = append([]Actor(nil), m.CopyrightHolders...)
	if m.uris != nil {
		out.uris = make(map[string]string, len(m.uris))
		for k, v := range m.uris {
			out.uris[k] = v
		}
	}
	return out
}

// splitIdentHash splits an "id@version" token. The version part is empty
// when the token carries none.
func splitIdentHash(v string) (id, version string) {
	if at := strings.IndexByte(v, '@'); at >= 0 {
		return v[:at], v[at+1:]
	}
	return v, ""
}

// joinIdentHash joins an id and version back into an "id@version" token.
// An empty version yields the bare id; an empty id yields "".
func joinIdentHash(id, version string) string {
	if id == "" {
		return ""
	}
	if version == "" {
		return id
	}
	return id + "@" + version
}
