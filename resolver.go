package cnxepub

import "fmt"

// OutputMode selects the directory layout reference targets are
// rewritten for.
type OutputMode int

const (
	// ModePackage lays resources out beside the contents directory, so
	// pages reach them via "../resources/".
	ModePackage OutputMode = iota

	// ModeSingleDocument keeps resources below the document, reached
	// via "resources/".
	ModeSingleDocument
)

// ResourceResolver maps resource identifiers to output URIs for one
// export run. All documents of a run share one resolver so that a
// resource deduplicated across documents resolves to one path.
type ResourceResolver struct {
	mode      OutputMode
	resources map[string]*Resource
	ordered   []*Resource
}

// NewResourceResolver creates a resolver for the given layout.
func NewResourceResolver(mode OutputMode) *ResourceResolver {
	return &ResourceResolver{mode: mode, resources: make(map[string]*Resource)}
}

// Add registers a resource under its id and filename. The first
// registration of each key wins; a resource whose filename is new is
// always emitted, even when its id is already taken, so every resolved
// path names a file the export actually writes.
func (rr *ResourceResolver) Add(r *Resource) {
	if _, ok := rr.resources[r.ID()]; !ok {
		rr.resources[r.ID()] = r
	}
	if _, ok := rr.resources[r.Filename()]; !ok {
		rr.resources[r.Filename()] = r
		rr.ordered = append(rr.ordered, r)
	}
}

// Lookup returns the resource registered under the id or filename.
func (rr *ResourceResolver) Lookup(key string) (*Resource, bool) {
	r, ok := rr.resources[key]
	return r, ok
}

// Resolve returns the output URI for a resource key, relative to a
// content page in the selected layout.
func (rr *ResourceResolver) Resolve(key string) (string, error) {
	r, ok := rr.resources[key]
	if !ok {
		return "", fmt.Errorf("cnxepub: no resource registered for %q: %w", key, ErrUnresolvedResource)
	}
	switch rr.mode {
	case ModeSingleDocument:
		return "resources/" + r.Filename(), nil
	default:
		return "../resources/" + r.Filename(), nil
	}
}

// All returns the distinct registered resources in first-seen order.
func (rr *ResourceResolver) All() []*Resource {
	return append([]*Resource(nil), rr.ordered...)
}
