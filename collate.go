package cnxepub

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Transform rewrites a single element during collation. It may edit the
// element in place or return a replacement node; returning nil keeps
// the element unchanged. The docID names the page the element belongs
// to.
type Transform func(ctx context.Context, elem *html.Node, docID string) (*html.Node, error)

// TransformRule pairs an element predicate with a transform. Rules run
// in registration order over every element of the combined document.
type TransformRule struct {
	// Name labels the rule in logs and warnings.
	Name string

	// Match selects the elements the rule applies to.
	Match func(elem *html.Node) bool

	// Apply rewrites one matched element.
	Apply Transform
}

// CollatorOption configures a Collator.
type CollatorOption func(*Collator)

// WithLogger sets the collation logger. The default discards logs.
func WithLogger(log *zap.Logger) CollatorOption {
	return func(c *Collator) { c.log = log }
}

// WithRules appends transform rules, run in the order given.
func WithRules(rules ...TransformRule) CollatorOption {
	return func(c *Collator) { c.rules = append(c.rules, rules...) }
}

// WithTimeout bounds each transform invocation. Zero means no bound
// beyond the caller's context.
func WithTimeout(d time.Duration) CollatorOption {
	return func(c *Collator) { c.timeout = d }
}

// Collator merges a binder's pages into one combined document, applying
// transform rules and rewriting intra-book links. A collator holds no
// per-run state and may be reused; collation of the same tree with the
// same rules produces byte-identical output.
type Collator struct {
	log     *zap.Logger
	rules   []TransformRule
	timeout time.Duration
}

// NewCollator creates a collator.
func NewCollator(opts ...CollatorOption) *Collator {
	c := &Collator{log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collation is the result of a collation run.
type Collation struct {
	// Root is the combined document.
	Root *html.Node

	// Resources are the distinct resources of all pages, first seen
	// wins on name collisions.
	Resources []*Resource

	// Warnings lists non-fatal problems: broken links and failed
	// transforms. Collation always completes; warnings accumulate.
	Warnings []string
}

// Bytes serializes the combined document.
func (c *Collation) Bytes() ([]byte, error) {
	return renderNode(c.Root)
}

// collationRun carries the per-run state of one Collate call.
type collationRun struct {
	*Collator
	binder   Node
	docIDs   map[string]bool
	resolver *ResourceResolver
	warnings []string
}

// Collate merges the binder's pages into a single document. Page order
// and nesting follow the binder tree. Element ids are namespaced per
// document so merged pages cannot collide; links between pages of the
// book are rewritten to in-document fragments. Transform failures and
// broken links become warnings, never errors: the pipeline completes
// with what it has.
func (c *Collator) Collate(ctx context.Context, binder Node) (*Collation, error) {
	run := &collationRun{
		Collator: c,
		binder:   binder,
		docIDs:   make(map[string]bool),
		resolver: NewResourceResolver(ModeSingleDocument),
	}
	for _, doc := range FlattenToDocuments(binder) {
		run.docIDs[doc.ID()] = true
		for _, r := range doc.Resources() {
			run.resolver.Add(r)
		}
	}
	if b, ok := binder.(*Binder); ok {
		for _, r := range b.Resources() {
			run.resolver.Add(r)
		}
	}

	root := newElement("html")
	head := newElement("head")
	title := newElement("title")
	title.AppendChild(newText(plainText(binder.Meta().Title)))
	head.AppendChild(title)
	root.AppendChild(head)

	body := newElement("body")
	body.AppendChild(run.buildNode(binder, ""))
	root.AppendChild(body)

	run.rewriteLinks(body)
	if err := run.applyRules(ctx, body); err != nil {
		return nil, err
	}
	normalizeNamespaces(root)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(root)
	return &Collation{
		Root:      doc,
		Resources: run.resolver.All(),
		Warnings:  run.warnings,
	}, nil
}

// nodeTypeFor classifies a tree node for the combined document's
// sectioning divs.
func nodeTypeFor(n Node, isRoot bool) string {
	switch t := n.(type) {
	case *CompositeDocument:
		return "composite-page"
	case *Document:
		return "page"
	case *DocumentPointer:
		return "page"
	case Container:
		if isRoot {
			return "book"
		}
		for i := 0; i < t.Len(); i++ {
			if _, ok := t.Child(i).(Container); ok {
				return "unit"
			}
		}
		return "chapter"
	default:
		return "page"
	}
}

// buildNode renders one tree node into its combined-document div.
func (r *collationRun) buildNode(n Node, titleOverride string) *html.Node {
	div := newElement("div", "data-type", nodeTypeFor(n, n == r.binder))
	title := titleOverride
	if title == "" {
		title = n.Meta().Title
	}

	switch t := n.(type) {
	case *CompositeDocument:
		r.buildPage(div, &t.Document, title)
	case *Document:
		r.buildPage(div, t, title)
	case *DocumentPointer:
		setAttr(div, "id", t.ID())
		r.appendTitle(div, title)
	case Container:
		if hash := n.IdentHash(); hash != "" {
			setAttr(div, "cnx-archive-uri", "/contents/"+hash)
		}
		r.appendTitle(div, title)
		for i := 0; i < t.Len(); i++ {
			var override string
			if tb, ok := t.(interface{ TitleForChild(int) string }); ok {
				override = tb.TitleForChild(i)
			}
			div.AppendChild(r.buildNode(t.Child(i), override))
		}
	}
	return div
}

// buildPage copies a document's body into its page div, namespacing
// every element id so merged pages cannot collide.
func (r *collationRun) buildPage(div *html.Node, doc *Document, title string) {
	setAttr(div, "id", doc.ID())
	if hash := doc.IdentHash(); hash != doc.ID() {
		setAttr(div, "cnx-archive-uri", "/contents/"+hash)
	}
	r.appendTitle(div, title)

	content := cloneTree(doc.Body())
	seen := make(map[string]bool)
	counter := 0
	walkElements(content, func(e *html.Node) {
		old := getAttr(e, "id")
		if old == "" {
			return
		}
		next := namespacedID(doc.ID(), old)
		for seen[next] {
			counter++
			next = fmt.Sprintf("%s_%d", namespacedID(doc.ID(), old), counter)
		}
		seen[next] = true
		setAttr(e, "id", next)
	})
	for child := content.FirstChild; child != nil; {
		following := child.NextSibling
		detach(child)
		div.AppendChild(child)
		child = following
	}
}

func (r *collationRun) appendTitle(div *html.Node, title string) {
	h := newElement("div", "data-type", "document-title")
	h.AppendChild(newText(plainText(title)))
	div.AppendChild(h)
}

// namespacedID maps a source element id into the combined document's id
// space. Underscores are dropped from the document id so the mapping is
// unambiguous to split on.
func namespacedID(docID, oldID string) string {
	return fmt.Sprintf("auto_%s_%s", strings.ReplaceAll(docID, "_", ""), oldID)
}

// rewriteLinks turns links between pages of the book into in-document
// fragment links. Links whose targets are not part of the book become
// warnings and stay as written.
func (r *collationRun) rewriteLinks(body *html.Node) {
	walkElements(body, func(e *html.Node) {
		if e.Data != "a" {
			return
		}
		href := getAttr(e, "href")
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		if rewritten, ok := r.rewriteHref(href); ok {
			setAttr(e, "href", rewritten)
		}
	})
}

// rewriteHref maps one href into the combined document's fragment
// space.
func (r *collationRun) rewriteHref(href string) (string, bool) {
	target := href
	fragment := ""
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target, fragment = target[:i], target[i+1:]
	}

	switch {
	case strings.HasPrefix(target, "/contents/"):
		target = strings.TrimPrefix(target, "/contents/")
	case strings.Contains(target, "://"):
		return "", false
	default:
		target = strings.TrimSuffix(target, ".xhtml")
	}
	if id, _ := splitIdentHash(target); id != "" {
		target = id
	}

	if target == "" {
		if fragment == "" {
			return "", false
		}
		return "#" + fragment, true
	}
	if !r.docIDs[target] {
		r.warn(fmt.Sprintf("link target %q is not part of the book", href))
		return "", false
	}
	if fragment == "" {
		return "#" + target, true
	}
	return "#" + namespacedID(target, fragment), true
}

// applyRules runs every transform rule over the combined body. A failed
// transform logs, warns and leaves its element as it was.
func (r *collationRun) applyRules(ctx context.Context, body *html.Node) error {
	if len(r.rules) == 0 {
		return nil
	}
	for _, rule := range r.rules {
		var matched []*html.Node
		walkElements(body, func(e *html.Node) {
			if rule.Match(e) {
				matched = append(matched, e)
			}
		})
		for _, elem := range matched {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("cnxepub: collate: %w", err)
			}
			docID := owningDocID(elem)
			if err := r.applyRule(ctx, rule, elem, docID); err != nil {
				cerr := &CollationError{DocumentID: docID, Err: err}
				r.log.Warn("transform failed",
					zap.String("rule", rule.Name),
					zap.String("document", docID),
					zap.Error(err))
				r.warn(cerr.Error())
			}
		}
	}
	return nil
}

func (r *collationRun) applyRule(ctx context.Context, rule TransformRule, elem *html.Node, docID string) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	replacement, err := rule.Apply(ctx, elem, docID)
	if err != nil {
		return err
	}
	if replacement != nil && replacement != elem {
		replaceNode(elem, replacement)
	}
	return nil
}

func (r *collationRun) warn(msg string) {
	r.warnings = append(r.warnings, msg)
}

// owningDocID walks up from an element to the page div enclosing it.
func owningDocID(elem *html.Node) string {
	for n := elem; n != nil; n = n.Parent {
		if n.Type == html.ElementNode {
			if dt := dataType(n); dt == "page" || dt == "composite-page" {
				return getAttr(n, "id")
			}
		}
	}
	return ""
}
