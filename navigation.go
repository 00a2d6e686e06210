package cnxepub

import (
	"fmt"

	"golang.org/x/net/html"
)

// NavEntry is one ordered entry of a navigation tree.
type NavEntry struct {
	// Target is the link target: an ident hash, an item name, or
	// TranslucentBinderID for a structural subtree.
	Target string

	// Title is the entry's display markup (inline elements preserved,
	// namespace declarations stripped).
	Title string

	// ShortID is the entry's short identifier attribute, if any.
	ShortID string

	// IsDocument reports whether the target is document-like. Entries
	// whose targets are absent from the rest of the package are
	// classified as resources, never documents.
	IsDocument bool

	// Children holds nested entries, scoped in order under this entry.
	Children []NavEntry
}

// NavigationTree is the canonical order and classification authority for
// a package: presentation order is fully determined here, and anything
// not listed is a resource. The tree is immutable once extracted and may
// be walked any number of times.
type NavigationTree struct {
	// ID is the tree's own identifier, or TranslucentBinderID when the
	// binding is translucent.
	ID string

	// Title is the tree's document title.
	Title string

	// Translucent reports whether the navigation document declared a
	// translucent binding.
	Translucent bool

	// Entries are the ordered top-level entries.
	Entries []NavEntry
}

// ExtractNavigation derives a NavigationTree from a parsed navigation
// document body. The id names the top-level tree; known reports whether
// a target is present in the rest of the package and drives the
// document-versus-resource classification; absent targets demote to
// resources without erroring. Sibling order is the document order of
// appearance in the markup; nothing is re-sorted.
func ExtractNavigation(doc *html.Node, id string, known func(target string) bool) (*NavigationTree, error) {
	if known == nil {
		known = func(string) bool { return true }
	}

	tree := &NavigationTree{ID: id}
	if binding := findByDataType(doc, "binding"); binding != nil {
		tree.Translucent = getAttr(binding, "data-value") == "translucent"
	}
	if tree.Translucent {
		tree.ID = TranslucentBinderID
	}
	if title := findByDataType(doc, "document-title"); title != nil {
		tree.Title = squashToText(title, true)
	}

	nav := findElement(doc, "nav")
	if nav == nil {
		return nil, fmt.Errorf("cnxepub: navigation document has no nav element: %w", ErrMissingNavigation)
	}
	if ol := findElement(nav, "ol"); ol != nil {
		tree.Entries = extractNavList(ol, known)
	}
	return tree, nil
}

// extractNavList walks an ordered list, producing one entry per item in
// document order.
func extractNavList(ol *html.Node, known func(string) bool) []NavEntry {
	var entries []NavEntry
	for li := ol.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		if entry, ok := extractNavItem(li, known); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// extractNavItem converts one list item. An item with a nested list is a
// subtree; otherwise it is a leaf pointing at a package item.
func extractNavItem(li *html.Node, known func(string) bool) (NavEntry, bool) {
	var sublist *html.Node
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "ol" {
			sublist = c
			break
		}
	}

	if sublist != nil {
		target := getAttr(li, "cnx-archive-uri")
		if target == "" {
			target = TranslucentBinderID
		}
		entry := NavEntry{
			Target:     target,
			ShortID:    getAttr(li, "cnx-archive-shortid"),
			IsDocument: target != TranslucentBinderID && known(target),
			Children:   extractNavList(sublist, known),
		}
		// The subtree title is wrapped in a span, div or anchor ahead
		// of the nested list.
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c != sublist {
				entry.Title = squashToText(c, true)
				break
			}
		}
		return entry, true
	}

	a := findElement(li, "a")
	if a == nil {
		return NavEntry{}, false
	}
	target := getAttr(a, "href")
	return NavEntry{
		Target:     target,
		Title:      squashToText(a, true),
		ShortID:    getAttr(li, "cnx-archive-shortid"),
		IsDocument: known(target),
	}, true
}

// Walk visits every entry depth-first in canonical order, passing its
// nesting depth (top-level entries are depth 0). Returning false from fn
// stops the walk. The walk is restartable: the tree is immutable input.
func (t *NavigationTree) Walk(fn func(entry NavEntry, depth int) bool) bool {
	return walkEntries(t.Entries, 0, fn)
}

func walkEntries(entries []NavEntry, depth int, fn func(NavEntry, int) bool) bool {
	for _, e := range entries {
		if !fn(e, depth) {
			return false
		}
		if !walkEntries(e.Children, depth+1, fn) {
			return false
		}
	}
	return true
}

// Flatten returns every entry in canonical depth-first order.
func (t *NavigationTree) Flatten() []NavEntry {
	var out []NavEntry
	t.Walk(func(e NavEntry, _ int) bool {
		out = append(out, e)
		return true
	})
	return out
}

// Documents returns the targets classified as documents, in canonical
// order.
func (t *NavigationTree) Documents() []string {
	var out []string
	t.Walk(func(e NavEntry, _ int) bool {
		if e.IsDocument {
			out = append(out, e.Target)
		}
		return true
	})
	return out
}
