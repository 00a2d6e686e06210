package cnxepub

import (
	"fmt"

	"github.com/google/uuid"
)

// PackageFile is one output file of a serialized package, named
// relative to the container root.
type PackageFile struct {
	Path string
	Data []byte
}

// ExportPackage turns a binder into an EPUB package: one page per
// document, a navigation document reflecting the binder tree, and the
// deduplicated resources of all pages. A binder without an id gets a
// freshly minted one so the package document can be addressed.
func ExportPackage(binder *Binder) (*Package, error) {
	pkgID := binder.ID()
	if pkgID == "" {
		pkgID = uuid.NewString()
	}

	resolver := NewResourceResolver(ModePackage)
	for _, r := range binder.Resources() {
		resolver.Add(r)
	}
	for _, doc := range FlattenToDocuments(binder) {
		for _, r := range doc.Resources() {
			resolver.Add(r)
		}
	}

	var items []*Item
	for _, page := range FlattenToPages(binder) {
		item, err := exportPage(page, resolver)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	translucent := !NeedsNavigationPage(binder)
	navData, err := FormatNavigationPage(binder, translucent)
	if err != nil {
		return nil, err
	}
	navName := fmt.Sprintf("contents/%s.xhtml", pkgID)
	items = append(items, &Item{
		Name:         navName,
		Data:         navData,
		MediaType:    DocumentMediaType,
		IsNavigation: true,
	})

	for _, r := range resolver.All() {
		items = append(items, &Item{
			Name:      "resources/" + r.Filename(),
			Data:      r.Data(),
			MediaType: r.MediaType(),
		})
	}

	meta := binder.Meta().Clone()
	return NewPackage(pkgID, fmt.Sprintf("%s.opf", pkgID), meta, items)
}

// exportPage renders one page node into its package item. Inline data
// URIs hoist into shared resources before rendering, so page markup
// only ever references files.
func exportPage(page Node, resolver *ResourceResolver) (*Item, error) {
	var (
		data []byte
		err  error
	)
	switch t := page.(type) {
	case *CompositeDocument:
		hoistInlineResources(t.References(), t, resolver)
		data, err = FormatCompositePage(t, resolver)
	case *Document:
		hoistInlineResources(t.References(), t, resolver)
		data, err = FormatDocumentPage(t, resolver)
	case *DocumentPointer:
		data, err = FormatPointerPage(t)
	default:
		return nil, fmt.Errorf("cnxepub: cannot export node %T as a page", page)
	}
	if err != nil {
		return nil, err
	}

	name := page.IdentHash()
	if name == "" {
		name = uuid.NewString()
	}
	return &Item{
		Name:      fmt.Sprintf("contents/%s.xhtml", name),
		Data:      data,
		MediaType: DocumentMediaType,
	}, nil
}

// hoistInlineResources converts data: URI references into package
// resources bound by filename.
func hoistInlineResources(refs []*Reference, dst resourceAdder, resolver *ResourceResolver) {
	for _, ref := range refs {
		if ref.Kind() != ReferenceInline {
			continue
		}
		r, err := resourceFromDataURI(ref.URI())
		if err != nil {
			continue
		}
		dst.AddResource(r)
		resolver.Add(r)
		ref.Bind(r.Filename(), "../resources/%s")
	}
}

// PackageFiles lays a package out as container files: the package
// document at the root plus its items at their manifest paths.
func PackageFiles(pkg *Package) ([]PackageFile, error) {
	opf, err := BuildOPF(pkg)
	if err != nil {
		return nil, err
	}
	files := []PackageFile{{Path: pkg.Name, Data: opf}}
	for _, item := range pkg.Items() {
		files = append(files, PackageFile{Path: item.Name, Data: item.Data})
	}
	return files, nil
}
