// Package cnxepub models a library of structured educational content,
// from single documents to hierarchical books composed of documents, and
// converts between that content model and an EPUB3-style package.
//
// Order and document classification are derived from the navigation
// document, never from a package spine: items absent from the navigation
// tree are treated as resources. The polymorphic content tree is built
// from [Document], [Binder], [TranslucentBinder], [CompositeDocument] and
// [DocumentPointer] nodes, each carrying [Metadata] and a set of
// [Resource] references.
//
// # Adapting a package
//
// Use [ReadEPUB] to load packages from an .epub file or unpacked
// directory, then [AdaptPackage] to build the content tree:
//
//	pkgs, err := cnxepub.ReadEPUB("book.epub")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	binder, err := cnxepub.AdaptPackage(pkgs[0])
//
// # Collation
//
// A [Collator] merges a binder's ordered documents into one linear HTML
// artifact: element ids are rewritten to be globally unique, intra-book
// links are rewritten to in-page fragments, resources are deduplicated
// and registered transform callbacks (math rendering, exercise
// injection) are invoked per matching element:
//
//	c := cnxepub.NewCollator(cnxepub.WithRules(rules...))
//	result, err := c.Collate(ctx, binder)
//
// Content-level problems confined to one element or one link degrade to
// warnings; structural problems that would corrupt the navigation
// contract fail with [ErrIdentityConflict], [ErrAmbiguousComposition]
// or a [CollationError] naming the offending document.
//
// # Export
//
// [ExportPackage] turns a binder back into an EPUB3-shaped package and
// [WriteEPUB] writes one or more binders to an .epub archive.
// [Reconstitute] is the inverse of collation: it parses a collated
// single-HTML tree back into a content model.
package cnxepub
