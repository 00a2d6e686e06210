package cnxepub

import (
	"fmt"
	"strings"
)

// Identity is the resolved identifier and version of a node within a
// content tree.
type Identity struct {
	ID      string
	ShortID string
	Version string
}

// IdentHash returns the identity as an "id@version" token.
func (id Identity) IdentHash() string {
	return joinIdentHash(id.ID, id.Version)
}

// IdentityResolver computes stable identities and version inheritance
// for nodes in a composite tree. Document pointers are resolved through
// an arena that maps ids to nodes without owning them, so shared content
// and cross-references never form owning cycles.
//
// Resolution is a pure function of the registered tree snapshot: no
// side effects, deterministic for the same inputs.
type IdentityResolver struct {
	arena map[string]Node
}

// NewIdentityResolver creates an empty resolver.
func NewIdentityResolver() *IdentityResolver {
	return &IdentityResolver{arena: make(map[string]Node)}
}

// Register indexes a tree's addressable nodes by id for pointer lookups.
func (r *IdentityResolver) Register(root Node) {
	for _, n := range FlattenModel(root) {
		if _, ok := n.(*DocumentPointer); ok {
			continue
		}
		if id, _ := splitIdentHash(n.IdentHash()); id != "" {
			if _, exists := r.arena[id]; !exists {
				r.arena[id] = n
			}
		}
	}
}

// Lookup returns the registered node with the given id.
func (r *IdentityResolver) Lookup(id string) (Node, bool) {
	n, ok := r.arena[id]
	return n, ok
}

// Resolve computes the identity of the last node in a root-to-node
// chain. A node's own id and version win; an undeclared id inherits from
// the nearest declaring ancestor; an undeclared version inherits
// strictly from the chain's root, never from an intermediate parent.
// Document pointers resolve against their referenced target while
// preserving a locally declared short id.
func (r *IdentityResolver) Resolve(chain ...Node) (Identity, error) {
	if len(chain) == 0 {
		return Identity{}, fmt.Errorf("cnxepub: resolve identity: empty chain")
	}
	target := chain[len(chain)-1]

	if p, ok := target.(*DocumentPointer); ok {
		return r.resolvePointer(chain, p)
	}

	id := Identity{ShortID: target.Meta().ShortID}
	id.ID, id.Version = splitIdentHash(target.IdentHash())
	if id.Version == "" {
		id.Version = target.Meta().Version
	}

	if id.ID == "" {
		// Inherit the id from the nearest declaring ancestor.
		for i := len(chain) - 2; i >= 0; i-- {
			if anc, _ := splitIdentHash(chain[i].IdentHash()); anc != "" {
				id.ID = anc
				break
			}
		}
	}
	if id.Version == "" {
		// Version inherits from the root only, regardless of depth.
		id.Version = rootVersion(chain[0])
	}
	return id, nil
}

// resolvePointer follows a pointer chain through the arena with a
// visited-set guard; a cycle is an identity conflict, not a hang.
func (r *IdentityResolver) resolvePointer(chain []Node, p *DocumentPointer) (Identity, error) {
	visited := map[string]bool{}
	shortID := p.Meta().ShortID
	current := p
	for {
		if visited[current.ID()] {
			return Identity{}, fmt.Errorf("cnxepub: document pointer cycle through %q: %w",
				current.ID(), ErrIdentityConflict)
		}
		visited[current.ID()] = true

		target, ok := r.arena[current.ID()]
		if !ok {
			// Dangling pointer: resolve to the pointer's own identity.
			id := Identity{ID: current.ID(), Version: current.Version(), ShortID: shortID}
			if id.Version == "" {
				id.Version = rootVersion(chain[0])
			}
			return id, nil
		}
		next, isPointer := target.(*DocumentPointer)
		if !isPointer {
			resolved, err := r.Resolve(append(chain[:len(chain)-1:len(chain)-1], target)...)
			if err != nil {
				return Identity{}, err
			}
			if shortID != "" {
				resolved.ShortID = shortID
			}
			return resolved, nil
		}
		current = next
	}
}

// rootVersion returns the version declared at the root of a chain.
func rootVersion(root Node) string {
	if _, v := splitIdentHash(root.IdentHash()); v != "" {
		return v
	}
	return root.Meta().Version
}

// Validate walks a tree and reports identity conflicts: two sibling
// nodes resolving to the same id within one navigation tree, including
// ids that differ only in case or surrounding whitespace.
func (r *IdentityResolver) Validate(root Node) error {
	return r.validate(root, []Node{root})
}

func (r *IdentityResolver) validate(n Node, chain []Node) error {
	c, ok := n.(Container)
	if !ok {
		return nil
	}
	seen := make(map[string]string, c.Len())
	for i := 0; i < c.Len(); i++ {
		child := c.Child(i)
		childChain := append(chain[:len(chain):len(chain)], child)

		// Only ids the child declares (or resolves to, for pointers)
		// participate in conflict detection; an inherited id is shared
		// with siblings by design.
		var declared string
		if _, ok := child.(*DocumentPointer); ok {
			identity, err := r.Resolve(childChain...)
			if err != nil {
				return err
			}
			declared = identity.ID
		} else {
			declared, _ = splitIdentHash(child.IdentHash())
		}
		if declared != "" {
			key := strings.ToLower(strings.TrimSpace(declared))
			if prev, dup := seen[key]; dup {
				return fmt.Errorf("cnxepub: sibling nodes %q and %q resolve to the same id: %w",
					prev, declared, ErrIdentityConflict)
			}
			seen[key] = declared
		}
		if err := r.validate(child, childChain); err != nil {
			return err
		}
	}
	return nil
}
