package cnxepub

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"
)

// Item is one file of an EPUB package: content page, navigation
// document or resource.
type Item struct {
	// Name is the item's path relative to the package document.
	Name string

	// Data is the raw file content.
	Data []byte

	// MediaType is the item's declared media type.
	MediaType string

	// IsNavigation marks the package's navigation document.
	IsNavigation bool

	// Properties holds additional manifest properties (for example
	// "mathml" or "remote-resources"). "nav" is implied by
	// IsNavigation and never listed here.
	Properties []string
}

// Package is a single publication within an EPUB container: its
// metadata plus an ordered set of items, exactly one of which is the
// navigation document.
type Package struct {
	// ID is the package identifier (the publication's unique id).
	ID string

	// Name is the package document's file name within the container.
	Name string

	// Meta is the publication-level metadata.
	Meta Metadata

	items []*Item
	nav   *Item
}

// NewPackage assembles a package and enforces the navigation invariant:
// exactly one item flagged as navigation.
func NewPackage(id, name string, meta Metadata, items []*Item) (*Package, error) {
	p := &Package{ID: id, Name: name, Meta: meta}
	for _, item := range items {
		if err := p.add(item); err != nil {
			return nil, err
		}
	}
	if p.nav == nil {
		return nil, fmt.Errorf("cnxepub: package %q has no navigation item: %w", name, ErrMissingNavigation)
	}
	return p, nil
}

func (p *Package) add(item *Item) error {
	if item.IsNavigation {
		if p.nav != nil {
			return fmt.Errorf("cnxepub: package %q has more than one navigation item (%q and %q): %w",
				p.Name, p.nav.Name, item.Name, ErrAdditionalNavigation)
		}
		p.nav = item
	}
	p.items = append(p.items, item)
	return nil
}

// Len returns the number of items in the package.
func (p *Package) Len() int { return len(p.items) }

// Items returns the package items in manifest order.
func (p *Package) Items() []*Item {
	return append([]*Item(nil), p.items...)
}

// Navigation returns the package's navigation document.
func (p *Package) Navigation() *Item { return p.nav }

// GrabByName returns the item with the given name. Lookups tolerate
// leading "./" and "../" segments so that hrefs from sibling directories
// resolve.
func (p *Package) GrabByName(name string) (*Item, error) {
	cleaned := strings.TrimPrefix(path.Clean(name), "../")
	for _, item := range p.items {
		if item.Name == name || item.Name == cleaned || path.Base(item.Name) == path.Base(cleaned) {
			return item, nil
		}
	}
	return nil, fmt.Errorf("cnxepub: package %q has no item named %q: %w", p.Name, name, ErrItemNotFound)
}

// opfPackage mirrors the OPF package document for encoding and decoding.
type opfPackage struct {
	XMLName          xml.Name    `xml:"http://www.idpf.org/2007/opf package"`
	Version          string      `xml:"version,attr"`
	UniqueIdentifier string      `xml:"unique-identifier,attr"`
	Metadata         opfMetadata `xml:"metadata"`
	Manifest         opfManifest `xml:"manifest"`
	Spine            opfSpine    `xml:"spine"`
}

type opfMetadata struct {
	Identifier opfDCField `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Title      opfDCField `xml:"http://purl.org/dc/elements/1.1/ title"`
	Language   string     `xml:"http://purl.org/dc/elements/1.1/ language,omitempty"`
	Creators   []string   `xml:"http://purl.org/dc/elements/1.1/ creator,omitempty"`
	Publishers []string   `xml:"http://purl.org/dc/elements/1.1/ publisher,omitempty"`
	Rights     string     `xml:"http://purl.org/dc/elements/1.1/ rights,omitempty"`
	Metas      []opfMeta  `xml:"meta,omitempty"`
}

type opfDCField struct {
	ID    string `xml:"id,attr,omitempty"`
	Value string `xml:",chardata"`
}

type opfMeta struct {
	Property string `xml:"property,attr,omitempty"`
	Name     string `xml:"name,attr,omitempty"`
	Content  string `xml:"content,attr,omitempty"`
	Value    string `xml:",chardata"`
}

type opfManifest struct {
	Items []opfItem `xml:"item"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr,omitempty"`
}

type opfSpine struct {
	ItemRefs []opfItemRef `xml:"itemref"`
}

type opfItemRef struct {
	IDRef string `xml:"idref,attr"`
}

// BuildOPF serializes the package into its OPF package document.
// Manifest order follows item order; the spine lists content documents
// in the same order, though readers of these packages derive order from
// the navigation document instead.
func BuildOPF(p *Package) ([]byte, error) {
	doc := opfPackage{
		Version:          "3.0",
		UniqueIdentifier: "pub-id",
		Metadata: opfMetadata{
			Identifier: opfDCField{ID: "pub-id", Value: p.ID},
			Title:      opfDCField{Value: p.Meta.Title},
			Language:   p.Meta.Language,
			Rights:     p.Meta.LicenseText,
		},
	}
	for _, a := range p.Meta.Authors {
		doc.Metadata.Creators = append(doc.Metadata.Creators, a.Name)
	}
	for _, a := range p.Meta.Publishers {
		doc.Metadata.Publishers = append(doc.Metadata.Publishers, a.Name)
	}
	if p.Meta.LicenseURL != "" {
		doc.Metadata.Metas = append(doc.Metadata.Metas,
			opfMeta{Property: "cc:license", Value: p.Meta.LicenseURL})
	}

	for i, item := range p.items {
		entry := opfItem{
			ID:        fmt.Sprintf("item-%d", i+1),
			Href:      item.Name,
			MediaType: item.MediaType,
		}
		props := item.Properties
		if item.IsNavigation {
			props = append([]string{"nav"}, props...)
		}
		entry.Properties = strings.Join(props, " ")
		doc.Manifest.Items = append(doc.Manifest.Items, entry)
		if item.MediaType == DocumentMediaType {
			doc.Spine.ItemRefs = append(doc.Spine.ItemRefs, opfItemRef{IDRef: entry.ID})
		}
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("cnxepub: build opf: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// ParseOPF decodes an OPF package document into its metadata and
// manifest entries. Item data is not loaded here; the reader attaches
// it from the container.
func ParseOPF(data []byte) (id string, meta Metadata, items []opfItem, err error) {
	var doc opfPackage
	if err = xml.Unmarshal(data, &doc); err != nil {
		return "", Metadata{}, nil, fmt.Errorf("cnxepub: parse opf: %w", err)
	}
	meta = Metadata{
		Title:       doc.Metadata.Title.Value,
		Language:    doc.Metadata.Language,
		LicenseText: doc.Metadata.Rights,
	}
	for _, name := range doc.Metadata.Creators {
		meta.Authors = append(meta.Authors, Actor{Name: name, Type: "person"})
	}
	for _, name := range doc.Metadata.Publishers {
		meta.Publishers = append(meta.Publishers, Actor{Name: name, Type: "person"})
	}
	for _, m := range doc.Metadata.Metas {
		if m.Property == "cc:license" {
			meta.LicenseURL = strings.TrimSpace(m.Value)
		}
	}
	return doc.Metadata.Identifier.Value, meta, doc.Manifest.Items, nil
}
