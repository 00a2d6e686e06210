package cnxepub

// TranslucentBinder is an ordered grouping of content nodes with no
// identity of its own. It is used for purely structural grouping (an
// unlabeled unit or chapter): it never appears as an addressable unit in
// the navigation order, but its children still compose into the order.
type TranslucentBinder struct {
	meta           Metadata
	nodes          []Node
	titleOverrides []string
}

// NewTranslucentBinder creates a structural binder carrying the given
// metadata (typically only a title).
func NewTranslucentBinder(meta Metadata) *TranslucentBinder {
	return &TranslucentBinder{meta: meta}
}

func (b *TranslucentBinder) Meta() *Metadata { return &b.meta }

// IdentHash always returns "" for a translucent binder; lookups for an
// addressable unit must skip it.
func (b *TranslucentBinder) IdentHash() string { return "" }

// Translucent reports whether the binder carries no identity of its own.
func (b *TranslucentBinder) Translucent() bool { return true }

func (b *TranslucentBinder) Len() int { return len(b.nodes) }

func (b *TranslucentBinder) Child(i int) Node { return b.nodes[i] }

// Children returns a copy of the ordered child sequence.
func (b *TranslucentBinder) Children() []Node {
	return append([]Node(nil), b.nodes...)
}

// Append adds nodes at the end of the child sequence.
func (b *TranslucentBinder) Append(nodes ...Node) {
	b.nodes = append(b.nodes, nodes...)
	for range nodes {
		b.titleOverrides = append(b.titleOverrides, "")
	}
}

// AppendWithTitle adds a node with a binder-local title override. The
// override shadows the node's own title in navigation output only.
func (b *TranslucentBinder) AppendWithTitle(n Node, title string) {
	b.nodes = append(b.nodes, n)
	b.titleOverrides = append(b.titleOverrides, title)
}

// Insert inserts a node at position i.
func (b *TranslucentBinder) Insert(i int, n Node) {
	b.nodes = append(b.nodes[:i], append([]Node{n}, b.nodes[i:]...)...)
	b.titleOverrides = append(b.titleOverrides[:i], append([]string{""}, b.titleOverrides[i:]...)...)
}

// Remove removes the child at position i.
func (b *TranslucentBinder) Remove(i int) {
	b.nodes = append(b.nodes[:i], b.nodes[i+1:]...)
	b.titleOverrides = append(b.titleOverrides[:i], b.titleOverrides[i+1:]...)
}

// Replace swaps the child at position i, keeping its title override.
func (b *TranslucentBinder) Replace(i int, n Node) {
	b.nodes[i] = n
}

// SetTitleForChild sets a binder-local title override for the i-th child.
func (b *TranslucentBinder) SetTitleForChild(i int, title string) {
	b.titleOverrides[i] = title
}

// TitleForChild returns the effective navigation title of the i-th
// child: the binder-local override when set, otherwise the child's own
// title.
func (b *TranslucentBinder) TitleForChild(i int) string {
	if b.titleOverrides[i] != "" {
		return b.titleOverrides[i]
	}
	return b.nodes[i].Meta().Title
}

// Binder is an ordered composite node representing a book or collection.
// It owns its children; shared content is referenced through
// [DocumentPointer] nodes rather than owned twice.
type Binder struct {
	TranslucentBinder
	id        string
	resources []*Resource
}

// NewBinder creates a binder. The id may be an "id@version" token, in
// which case the version part is split off into the metadata.
func NewBinder(id string, meta Metadata) *Binder {
	b := &Binder{TranslucentBinder: TranslucentBinder{meta: meta}}
	b.SetID(id)
	return b
}

func (b *Binder) ID() string { return b.id }

// SetID sets the binder id. An "id@version" token also updates the
// metadata version.
func (b *Binder) SetID(id string) {
	plain, version := splitIdentHash(id)
	b.id = plain
	if version != "" {
		b.meta.Version = version
	}
}

// Version returns the binder's own version token.
func (b *Binder) Version() string { return b.meta.Version }

// IdentHash returns "id@version" (or the bare id when no version is
// set). It returns "" when the binder has no id or is the translucent
// placeholder.
func (b *Binder) IdentHash() string {
	if b.id == "" || b.id == TranslucentBinderID {
		return ""
	}
	return joinIdentHash(b.id, b.meta.Version)
}

func (b *Binder) Translucent() bool { return false }

// Resources returns the resources owned by the binder itself (cover
// images, shared stylesheets).
func (b *Binder) Resources() []*Resource {
	return append([]*Resource(nil), b.resources...)
}

// AddResource attaches a resource to the binder.
func (b *Binder) AddResource(r *Resource) {
	b.resources = append(b.resources, r)
}
