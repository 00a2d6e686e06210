package cnxepub

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Reconstitute rebuilds a binder from a combined single-page document,
// the inverse of collation. Sectioning divs become binders, page divs
// become documents, and composite pages come back as composite
// documents. Ids namespaced during collation are left as they are; the
// documents' own ids come from the page divs.
func Reconstitute(root *html.Node) (*Binder, error) {
	body := findElement(root, "body")
	if body == nil {
		return nil, fmt.Errorf("cnxepub: reconstitute: document has no body element")
	}

	book := findByDataType(body, "book")
	if book == nil {
		return nil, fmt.Errorf("cnxepub: reconstitute: document has no book division")
	}

	meta := ParseMetadata(root)
	if meta.Title == "" {
		meta.Title = sectionTitle(book)
	}
	binder := NewBinder(archiveID(book), meta)

	for child := book.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			continue
		}
		node, err := reconstituteNode(child)
		if err != nil {
			return nil, err
		}
		if node != nil {
			binder.AppendWithTitle(node, "")
		}
	}
	return binder, nil
}

// reconstituteNode converts one sectioning div back into a model node.
// Divs that are not sections (the book title, for instance) yield nil.
func reconstituteNode(div *html.Node) (Node, error) {
	switch dataType(div) {
	case "unit", "chapter":
		sub := NewTranslucentBinder(Metadata{Title: sectionTitle(div)})
		for child := div.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode {
				continue
			}
			node, err := reconstituteNode(child)
			if err != nil {
				return nil, err
			}
			if node != nil {
				sub.AppendWithTitle(node, "")
			}
		}
		return sub, nil
	case "page":
		return reconstitutePage(div, false)
	case "composite-page":
		return reconstitutePage(div, true)
	default:
		return nil, nil
	}
}

// reconstitutePage converts a page div back into a document, dropping
// the title division the collation added.
func reconstitutePage(div *html.Node, composite bool) (Node, error) {
	id := getAttr(div, "id")
	if id == "" {
		id = archiveID(div)
	}

	body := newElement("body")
	for child := div.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && dataType(child) == "document-title" {
			continue
		}
		body.AppendChild(cloneTree(child))
	}

	meta := Metadata{Title: sectionTitle(div)}
	if uri := getAttr(div, "cnx-archive-uri"); uri != "" {
		meta.SetURI("cnx-archive", strings.TrimPrefix(uri, "/contents/"))
		if _, version := splitIdentHash(strings.TrimPrefix(uri, "/contents/")); version != "" {
			meta.Version = version
		}
	}

	if composite {
		return NewCompositeDocument(id, body, meta), nil
	}
	return NewDocument(id, body, meta), nil
}

// sectionTitle reads the title division of a sectioning div.
func sectionTitle(div *html.Node) string {
	for child := div.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && dataType(child) == "document-title" {
			return strings.TrimSpace(nodeTextContent(child))
		}
	}
	return ""
}

// archiveID extracts a bare document id from a div's archive uri.
func archiveID(div *html.Node) string {
	uri := getAttr(div, "cnx-archive-uri")
	if uri == "" {
		return ""
	}
	id, _ := splitIdentHash(strings.TrimPrefix(uri, "/contents/"))
	return id
}
