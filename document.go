package cnxepub

import (
	"strings"

	"golang.org/x/net/html"
)

// Document is a leaf content node holding a parsed HTML content body and
// the resources it references. The body is mutated only during parse and
// build; once a document is handed to a Collator it is treated as
// immutable.
type Document struct {
	id         string
	meta       Metadata
	body       *html.Node
	resources  []*Resource
	references []*Reference
}

// NewDocument creates a document from a parsed content body. A nil body
// is replaced with an empty one. The id may be an "id@version" token, in
// which case the version part is split off into the metadata.
func NewDocument(id string, body *html.Node, meta Metadata) *Document {
	d := &Document{meta: meta}
	d.SetID(id)
	d.SetBody(body)
	return d
}

func (d *Document) ID() string { return d.id }

// SetID sets the document id. An "id@version" token also updates the
// metadata version.
func (d *Document) SetID(id string) {
	plain, version := splitIdentHash(id)
	d.id = plain
	if version != "" {
		d.meta.Version = version
	}
}

// Version returns the document's own version token.
func (d *Document) Version() string { return d.meta.Version }

// IdentHash returns "id@version" (or the bare id when no version is
// set), or "" when the document has no id.
func (d *Document) IdentHash() string {
	return joinIdentHash(d.id, d.meta.Version)
}

func (d *Document) Meta() *Metadata { return &d.meta }

// MediaType returns the document media type.
func (d *Document) MediaType() string { return DocumentMediaType }

// Body returns the content-bearing element of the document.
func (d *Document) Body() *html.Node { return d.body }

// SetBody replaces the content body and rescans its references.
func (d *Document) SetBody(body *html.Node) {
	if body == nil {
		body = newElement("body")
	}
	d.body = body
	d.references = scanReferences(body)
}

// References returns the reference points found in the document body:
// resources, other documents, external links.
func (d *Document) References() []*Reference {
	return append([]*Reference(nil), d.references...)
}

// Resources returns the resources owned by the document.
func (d *Document) Resources() []*Resource {
	return append([]*Resource(nil), d.resources...)
}

// AddResource attaches a resource to the document.
func (d *Document) AddResource(r *Resource) {
	d.resources = append(d.resources, r)
}

// CompositeDocument is a document synthesized by flattening a binder
// subtree during collation. Its version is inherited from the root
// binder of the composition, never from an intermediate ancestor.
type CompositeDocument struct {
	Document
}

// NewCompositeDocument creates a composite document.
func NewCompositeDocument(id string, body *html.Node, meta Metadata) *CompositeDocument {
	c := &CompositeDocument{}
	c.meta = meta
	c.SetID(id)
	c.SetBody(body)
	return c
}

// DocumentPointer is a weak reference to a document or binder defined
// elsewhere. It carries its own metadata (including an optional short
// id) but never owns the referenced content.
type DocumentPointer struct {
	id   string
	meta Metadata
}

// NewDocumentPointer creates a pointer from an "id@version" token.
func NewDocumentPointer(identHash string, meta Metadata) *DocumentPointer {
	p := &DocumentPointer{meta: meta}
	p.id, p.meta.Version = splitIdentHashKeep(identHash, p.meta.Version)
	return p
}

// DocumentPointerFromURI derives a pointer from a content URI; the last
// path segment is taken as the ident hash.
func DocumentPointerFromURI(uri string) *DocumentPointer {
	path := uri
	if at := strings.IndexAny(path, "?#"); at >= 0 {
		path = path[:at]
	}
	if at := strings.LastIndexByte(path, '/'); at >= 0 {
		path = path[at+1:]
	}
	return NewDocumentPointer(path, Metadata{})
}

func (p *DocumentPointer) ID() string { return p.id }

// Version returns the pointer's own version token.
func (p *DocumentPointer) Version() string { return p.meta.Version }

func (p *DocumentPointer) IdentHash() string {
	return joinIdentHash(p.id, p.meta.Version)
}

func (p *DocumentPointer) Meta() *Metadata { return &p.meta }

// MediaType returns the document media type.
func (p *DocumentPointer) MediaType() string { return DocumentMediaType }

// splitIdentHashKeep splits an ident hash, falling back to the current
// version when the token carries none.
func splitIdentHashKeep(v, current string) (id, version string) {
	id, version = splitIdentHash(v)
	if version == "" {
		version = current
	}
	return id, version
}
