package cnxepub

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// AdaptPackage converts a package into a Binder built from its
// navigation document. Presentation order comes from the navigation
// tree alone; spine order in the package document is ignored. Items the
// navigation never mentions become resources of the binder. A
// translucent binding yields a binder whose id is the translucent
// marker, so re-exporting treats it as structural.
func AdaptPackage(pkg *Package) (*Binder, error) {
	nav := pkg.Navigation()
	navDoc, err := ParseHTML(nav.Data)
	if err != nil {
		return nil, fmt.Errorf("cnxepub: adapt package %q: %w", pkg.Name, err)
	}

	listed := make(map[string]bool)
	known := func(target string) bool {
		name := hrefWithoutFragment(target)
		if name == "" {
			return false
		}
		_, err := pkg.GrabByName(name)
		return err == nil
	}
	tree, err := ExtractNavigation(navDoc, strings.TrimSuffix(path.Base(nav.Name), path.Ext(nav.Name)), known)
	if err != nil {
		return nil, fmt.Errorf("cnxepub: adapt package %q: %w", pkg.Name, err)
	}
	tree.Walk(func(e NavEntry, _ int) bool {
		if e.Target != TranslucentBinderID {
			// Targets are hrefs relative to the navigation document;
			// track base names so container-layout prefixes never
			// shadow the listing.
			listed[path.Base(hrefWithoutFragment(e.Target))] = true
		}
		return true
	})

	meta := ParseMetadata(navDoc)
	if meta.Title == "" {
		meta.Title = tree.Title
	}
	if meta.Title == "" {
		meta.Title = pkg.Meta.Title
	}

	binderID := tree.ID
	if tree.Translucent {
		binderID = ""
	}
	binder := NewBinder(binderID, meta)

	for _, entry := range tree.Entries {
		child, err := adaptEntry(pkg, entry)
		if err != nil {
			return nil, err
		}
		binder.AppendWithTitle(child, entry.Title)
	}

	// Anything the navigation never lists rides along as a resource.
	for _, item := range pkg.Items() {
		if item == nav || listed[path.Base(item.Name)] || item.Name == pkg.Name {
			continue
		}
		binder.AddResource(NewResource(path.Base(item.Name), item.Data, item.MediaType, path.Base(item.Name)))
	}
	return binder, nil
}

// adaptEntry converts one navigation entry into a model node: a nested
// binder for subtrees, a document or pointer for leaves.
func adaptEntry(pkg *Package, entry NavEntry) (Node, error) {
	if len(entry.Children) > 0 {
		var sub *TranslucentBinder
		if entry.Target == TranslucentBinderID || entry.Target == "" {
			sub = NewTranslucentBinder(Metadata{Title: entry.Title})
		} else {
			b := NewBinder(entry.Target, Metadata{Title: entry.Title, ShortID: entry.ShortID})
			for _, child := range entry.Children {
				node, err := adaptEntry(pkg, child)
				if err != nil {
					return nil, err
				}
				b.AppendWithTitle(node, child.Title)
			}
			return b, nil
		}
		for _, child := range entry.Children {
			node, err := adaptEntry(pkg, child)
			if err != nil {
				return nil, err
			}
			sub.AppendWithTitle(node, child.Title)
		}
		return sub, nil
	}
	return adaptItem(pkg, entry)
}

// adaptItem converts a leaf navigation entry into a document, composite
// document or document pointer, depending on what the item declares.
func adaptItem(pkg *Package, entry NavEntry) (Node, error) {
	name := hrefWithoutFragment(entry.Target)
	item, err := pkg.GrabByName(name)
	if err != nil {
		// Target missing from the package: a pointer by URI.
		p := DocumentPointerFromURI(entry.Target)
		p.Meta().Title = entry.Title
		p.Meta().ShortID = entry.ShortID
		return p, nil
	}

	root, err := ParseHTML(item.Data)
	if err != nil {
		return nil, fmt.Errorf("cnxepub: adapt item %q: %w", item.Name, err)
	}
	meta := ParseMetadata(root)
	if meta.Title == "" {
		meta.Title = entry.Title
	}
	if meta.ShortID == "" {
		meta.ShortID = entry.ShortID
	}

	id := strings.TrimSuffix(path.Base(item.Name), path.Ext(item.Name))
	if archiveURI := meta.URI("cnx-archive"); archiveURI != "" {
		id = strings.TrimPrefix(archiveURI, "/contents/")
	}

	if IsDocumentPointer(root) {
		return NewDocumentPointer(id, meta), nil
	}

	body := findElement(root, "body")
	if body == nil {
		return nil, fmt.Errorf("cnxepub: adapt item %q: content has no body element", item.Name)
	}
	content := newElement("body")
	for child := body.FirstChild; child != nil; {
		next := child.NextSibling
		if child.Type == html.ElementNode && dataType(child) == "metadata" {
			child = next
			continue
		}
		detach(child)
		content.AppendChild(child)
		child = next
	}

	if isCompositeStanza(root) {
		composite := NewCompositeDocument(id, content, meta)
		bindItemResources(pkg, composite.References(), composite)
		return composite, nil
	}
	doc := NewDocument(id, content, meta)
	bindItemResources(pkg, doc.References(), doc)
	return doc, nil
}

// isCompositeStanza reports whether a page declares itself
// collation-generated.
func isCompositeStanza(root *html.Node) bool {
	stanza := findByDataType(root, "metadata")
	if stanza == nil {
		return false
	}
	composite := findByDataType(stanza, "generated-content")
	return composite != nil && getAttr(composite, "data-value") == "true"
}

// resourceAdder is satisfied by documents and composite documents.
type resourceAdder interface {
	AddResource(*Resource)
}

// bindItemResources attaches package files referenced from a document's
// body as its resources and binds the references to them. Binding is
// best effort: a reference whose target is missing from the package
// stays as written.
func bindItemResources(pkg *Package, refs []*Reference, dst resourceAdder) {
	for _, ref := range refs {
		if ref.Kind() != ReferenceInternal {
			continue
		}
		name := hrefWithoutFragment(ref.URI())
		if name == "" || !strings.Contains(name, "resources/") {
			continue
		}
		item, err := pkg.GrabByName(name)
		if err != nil {
			continue
		}
		base := path.Base(item.Name)
		dst.AddResource(NewResource(base, item.Data, item.MediaType, base))
		ref.Bind(base, "../resources/%s")
	}
}
