package cnxepub

import "fmt"

// Compose merges packages into a single content tree. A lone package
// adapts directly: its binder is the root, keeping the book's own id
// and title at the top level. Multiple packages each adapt to their own
// binder and nest under a fresh translucent root in argument order.
// Merging requires enough information to order and title every part:
// when more than one package contributes a top-level tree without a
// title of its own, the combination is ambiguous and fails rather than
// guessing.
func Compose(pkgs ...*Package) (Node, error) {
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("cnxepub: compose: no packages given")
	}
	if len(pkgs) == 1 {
		return AdaptPackage(pkgs[0])
	}

	root := NewTranslucentBinder(Metadata{})
	untitled := 0
	for _, pkg := range pkgs {
		binder, err := AdaptPackage(pkg)
		if err != nil {
			return nil, err
		}
		if binder.Meta().Title == "" {
			untitled++
		}
		root.Append(binder)
	}
	if untitled > 1 {
		return nil, fmt.Errorf("cnxepub: compose: %d of %d packages carry no distinguishing title: %w",
			untitled, len(pkgs), ErrAmbiguousComposition)
	}
	return root, nil
}

// NeedsNavigationPage reports whether a binder needs a listed
// navigation entry of its own when exported. A binder holding exactly
// one addressable document is redundant as a navigation level: the
// navigation document is still produced (a package always has exactly
// one) but carries a translucent binding and adds no extra entry for
// the binder itself.
func NeedsNavigationPage(b *Binder) bool {
	docs := 0
	for _, n := range FlattenModel(b) {
		switch n.(type) {
		case *Document, *CompositeDocument, *DocumentPointer:
			docs++
			if docs > 1 {
				return true
			}
		}
	}
	return docs > 1
}
