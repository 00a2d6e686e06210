package cnxepub

// TreeNode is the summarized form of a content tree: identifiers,
// titles and nesting without content bodies.
type TreeNode struct {
	// ID is the node's ident hash, or TranslucentBinderID for
	// structural binders.
	ID string

	// Title is the effective navigation title.
	Title string

	// ShortID is the short symbolic identifier, if any.
	ShortID string

	// Contents is non-nil (possibly empty) for container nodes and nil
	// for leaves.
	Contents []*TreeNode
}

// ModelToTree summarizes a content tree into TreeNodes.
func ModelToTree(n Node) *TreeNode {
	return modelToTree(n, "")
}

func modelToTree(n Node, titleOverride string) *TreeNode {
	id := n.IdentHash()
	if id == "" {
		if _, ok := n.(*TranslucentBinder); ok {
			id = TranslucentBinderID
		}
	}
	title := titleOverride
	if title == "" {
		title = n.Meta().Title
	}
	tree := &TreeNode{ID: id, Title: title, ShortID: n.Meta().ShortID}
	if c, ok := n.(Container); ok {
		tree.Contents = []*TreeNode{}
		for i := 0; i < c.Len(); i++ {
			var override string
			if tb, ok := c.(interface{ TitleForChild(int) string }); ok {
				override = tb.TitleForChild(i)
			}
			tree.Contents = append(tree.Contents, modelToTree(c.Child(i), override))
		}
	}
	return tree
}

// FlattenTreeToIdentHashes flattens a summarized tree to the ident
// hashes of its addressable nodes, in depth-first order. Translucent
// placeholders contribute their children but not themselves.
func FlattenTreeToIdentHashes(tree *TreeNode) []string {
	var out []string
	var walk func(t *TreeNode)
	walk = func(t *TreeNode) {
		if t.Contents != nil {
			if t.ID != TranslucentBinderID {
				out = append(out, t.ID)
			}
			for _, c := range t.Contents {
				walk(c)
			}
			return
		}
		out = append(out, t.ID)
	}
	walk(tree)
	return out
}

// FlattenModel flattens a content tree to the list of all contained
// nodes, the root first, in depth-first order.
func FlattenModel(n Node) []Node {
	out := []Node{n}
	if c, ok := n.(Container); ok {
		for i := 0; i < c.Len(); i++ {
			out = append(out, FlattenModel(c.Child(i))...)
		}
	}
	return out
}

// FlattenTo flattens a content tree to the nodes matching the filter,
// in depth-first order.
func FlattenTo(n Node, filter func(Node) bool) []Node {
	var out []Node
	for _, m := range FlattenModel(n) {
		if filter(m) {
			out = append(out, m)
		}
	}
	return out
}

// FlattenToDocuments flattens a content tree to its documents
// (composite documents included), in depth-first order.
func FlattenToDocuments(n Node) []*Document {
	var out []*Document
	for _, m := range FlattenModel(n) {
		switch doc := m.(type) {
		case *CompositeDocument:
			out = append(out, &doc.Document)
		case *Document:
			out = append(out, doc)
		}
	}
	return out
}

// FlattenToPages flattens a content tree to its document-like leaves:
// documents, composite documents and document pointers.
func FlattenToPages(n Node) []Node {
	return FlattenTo(n, func(m Node) bool {
		switch m.(type) {
		case *Document, *CompositeDocument, *DocumentPointer:
			return true
		default:
			return false
		}
	})
}
