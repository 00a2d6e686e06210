package cnxepub

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ReferenceKind classifies where a reference URI points.
type ReferenceKind int

const (
	// ReferenceInternal points inside the package (relative path or
	// fragment).
	ReferenceInternal ReferenceKind = iota

	// ReferenceExternal points at a remote host.
	ReferenceExternal

	// ReferenceInline carries its payload in a data: URI.
	ReferenceInline
)

func (k ReferenceKind) String() string {
	switch k {
	case ReferenceInternal:
		return "internal"
	case ReferenceExternal:
		return "external"
	case ReferenceInline:
		return "inline"
	default:
		return fmt.Sprintf("ReferenceKind(%d)", int(k))
	}
}

// Reference is a reference point within a document body: a hyperlink or
// a media inclusion. It binds a URI-bearing attribute on a live element
// of the document tree, so updating the reference updates the document.
type Reference struct {
	elem     *html.Node
	attr     string
	kind     ReferenceKind
	boundID  string
	template string
}

// Kind returns the reference classification.
func (r *Reference) Kind() ReferenceKind { return r.kind }

// Elem returns the element carrying the reference.
func (r *Reference) Elem() *html.Node { return r.elem }

// URI returns the current reference target.
func (r *Reference) URI() string {
	if r.boundID != "" {
		// Refresh from the bound id before reading.
		setAttr(r.elem, r.attr, fmt.Sprintf(r.template, r.boundID))
	}
	return getAttr(r.elem, r.attr)
}

// SetURI sets the reference target directly. It fails when the
// reference is bound; unbind first.
func (r *Reference) SetURI(uri string) error {
	if r.boundID != "" {
		return fmt.Errorf("cnxepub: reference is bound to %q; unbind first", r.boundID)
	}
	setAttr(r.elem, r.attr, uri)
	return nil
}

// Bind ties the reference to a model id. The template must contain one
// %s verb; the URI is produced from it whenever the reference is read.
// A bound reference to an internal target is internal by definition.
func (r *Reference) Bind(id, template string) {
	r.boundID = id
	r.template = template
	r.kind = ReferenceInternal
	setAttr(r.elem, r.attr, fmt.Sprintf(template, id))
}

// Unbind releases a bound reference, keeping its last URI value.
func (r *Reference) Unbind() {
	r.boundID = ""
	r.template = ""
}

// Bound reports whether the reference is bound to a model id.
func (r *Reference) Bound() bool { return r.boundID != "" }

// BoundID returns the model id a bound reference points at.
func (r *Reference) BoundID() string { return r.boundID }

// mediaAttrs maps element tags to the attribute that carries their
// resource URI.
var mediaAttrs = map[string]string{
	"img":    "src",
	"audio":  "src",
	"video":  "src",
	"source": "src",
	"object": "data",
	"span":   "data-src",
}

// scanReferences walks the content body and collects all reference
// points: anchors first, then media elements, each in document order.
func scanReferences(root *html.Node) []*Reference {
	var anchors, media []*Reference
	walkElements(root, func(n *html.Node) {
		if n.Data == "a" {
			if getAttr(n, "href") != "" {
				anchors = append(anchors, newReference(n, "href"))
			}
			return
		}
		attr, ok := mediaAttrs[n.Data]
		if !ok {
			return
		}
		if n.Data == "object" {
			// <object> may carry the URI itself or in an <embed> child.
			if getAttr(n, "data") != "" {
				media = append(media, newReference(n, "data"))
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && c.Data == "embed" && getAttr(c, "src") != "" {
					media = append(media, newReference(c, "src"))
				}
			}
			return
		}
		if getAttr(n, attr) != "" {
			media = append(media, newReference(n, attr))
		}
	})
	return append(anchors, media...)
}

func newReference(elem *html.Node, attr string) *Reference {
	return &Reference{
		elem: elem,
		attr: attr,
		kind: classifyURI(getAttr(elem, attr)),
	}
}

// classifyURI determines whether a URI is internal, external or inline.
func classifyURI(uri string) ReferenceKind {
	parsed, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return ReferenceInternal
	}
	if parsed.Host != "" {
		return ReferenceExternal
	}
	if parsed.Scheme == "data" {
		return ReferenceInline
	}
	return ReferenceInternal
}
