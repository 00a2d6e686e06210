package cnxepub

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// actorTypes lists the metadata stanza data-types holding people and
// organizations, mapped to their Metadata field selectors.
var actorTypes = []struct {
	dataType string
	field    func(*Metadata) *[]Actor
}{
	{"author", func(m *Metadata) *[]Actor { return &m.Authors }},
	{"editor", func(m *Metadata) *[]Actor { return &m.Editors }},
	{"illustrator", func(m *Metadata) *[]Actor { return &m.Illustrators }},
	{"translator", func(m *Metadata) *[]Actor { return &m.Translators }},
	{"publisher", func(m *Metadata) *[]Actor { return &m.Publishers }},
	{"copyright-holder", func(m *Metadata) *[]Actor { return &m.CopyrightHolders }},
}

// ParseMetadata reads the metadata stanza of a content page into a
// Metadata value. Parsing is lenient: absent fields stay zero, and the
// caller decides which ones are required. The stanza is the first
// element with data-type="metadata"; fields missing from the stanza fall
// back to declarations on the surrounding document where the stanza
// format allows it, with the nearest declaration winning.
func ParseMetadata(root *html.Node) Metadata {
	var meta Metadata

	stanza := findByDataType(root, "metadata")
	scope := stanza
	if scope == nil {
		scope = root
	}

	if title := findByDataType(scope, "document-title"); title != nil {
		meta.Title = squashToText(title, true)
	} else if title := findElement(root, "title"); title != nil {
		meta.Title = strings.TrimSpace(nodeTextContent(title))
	}

	meta.Language = parseLanguage(root, scope)

	for _, field := range []struct {
		dataType string
		dst      *string
	}{
		{"created", &meta.Created},
		{"revised", &meta.Revised},
		{"print-style", &meta.PrintStyle},
		{"publication-message", &meta.PublicationMessage},
	} {
		if elm := findByDataType(scope, field.dataType); elm != nil {
			if v := getAttr(elm, "content"); v != "" {
				*field.dst = v
			} else {
				*field.dst = strings.TrimSpace(nodeTextContent(elm))
			}
		}
	}

	if lic := nearestLicense(scope, root); lic != nil {
		meta.LicenseURL = getAttr(lic, "href")
		meta.LicenseText = strings.TrimSpace(nodeTextContent(lic))
	}

	if summary := findByDataType(scope, "description"); summary != nil {
		meta.Summary = squashToText(summary, true)
	}
	for _, kw := range collectByDataType(scope, "keyword") {
		meta.Keywords = append(meta.Keywords, strings.TrimSpace(nodeTextContent(kw)))
	}
	for _, subj := range collectByDataType(scope, "subject") {
		meta.Subjects = append(meta.Subjects, strings.TrimSpace(nodeTextContent(subj)))
	}

	for _, at := range actorTypes {
		*at.field(&meta) = parseActors(scope, at.dataType)
	}

	if derived := findByDataType(scope, "derived-from"); derived != nil {
		meta.DerivedFromURI = getAttr(derived, "href")
		meta.DerivedFromTitle = strings.TrimSpace(nodeTextContent(derived))
	}

	if uri := findByDataType(scope, "cnx-archive-uri"); uri != nil {
		if v := getAttr(uri, "data-value"); v != "" {
			meta.SetURI("cnx-archive", v)
			if _, version := splitIdentHash(v); version != "" {
				meta.Version = version
			}
		}
	}
	if short := findByDataType(scope, "cnx-archive-shortid"); short != nil {
		meta.ShortID = getAttr(short, "data-value")
	}

	return meta
}

// parseLanguage resolves the document language: a meta declaration in
// the stanza wins over a lang attribute on the root html element, with
// the deepest declaration preferred.
func parseLanguage(root, scope *html.Node) string {
	lang := ""
	if htmlElm := findElement(root, "html"); htmlElm != nil {
		if v := getAttr(htmlElm, "lang"); v != "" {
			lang = v
		}
	}
	walkElements(scope, func(n *html.Node) {
		if n.Data == "meta" && getAttr(n, "itemprop") == "inLanguage" {
			if v := getAttr(n, "data-value"); v != "" {
				lang = v
			} else if v := getAttr(n, "content"); v != "" {
				lang = v
			}
		}
	})
	return lang
}

// nearestLicense finds the license anchor closest to the stanza,
// checking the stanza itself before the whole document.
func nearestLicense(scope, root *html.Node) *html.Node {
	for _, n := range []*html.Node{scope, root} {
		var found *html.Node
		walkElements(n, func(e *html.Node) {
			if found == nil && e.Data == "a" && dataType(e) == "license" {
				found = e
			}
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// parseActors collects the actors of one kind in presentation order.
// Elements carrying a data-display-seq attribute are reordered by it; a
// stable sort keeps document order among untagged entries.
func parseActors(scope *html.Node, actorType string) []Actor {
	elems := collectByDataType(scope, actorType)
	type seqActor struct {
		actor Actor
		seq   int
	}
	actors := make([]seqActor, 0, len(elems))
	for i, elm := range elems {
		actor := Actor{Type: "person"}
		if name := findElement(elm, "a"); name != nil {
			actor.Name = strings.TrimSpace(nodeTextContent(name))
			actor.ID = getAttr(name, "href")
		} else {
			actor.Name = strings.TrimSpace(nodeTextContent(elm))
		}
		if id := getAttr(elm, "data-id"); id != "" {
			actor.ID = id
		}
		if t := getAttr(elm, "data-actor-type"); t != "" {
			actor.Type = t
		}
		seq := i
		if v := getAttr(elm, "data-display-seq"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				seq = parsed
			}
		}
		actors = append(actors, seqActor{actor: actor, seq: seq})
	}
	sort.SliceStable(actors, func(i, j int) bool { return actors[i].seq < actors[j].seq })

	out := make([]Actor, 0, len(actors))
	for _, a := range actors {
		out = append(out, a.actor)
	}
	return out
}

// ValidateDocumentMetadata checks the fields every publishable document
// must carry.
func ValidateDocumentMetadata(meta Metadata) error {
	var missing []string
	if meta.Title == "" {
		missing = append(missing, "title")
	}
	if meta.LicenseURL == "" {
		missing = append(missing, "license_url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("cnxepub: required metadata missing: %s: %w",
			strings.Join(missing, ", "), ErrMissingMetadata)
	}
	return nil
}

// IsDocumentPointer reports whether a parsed page declares itself a
// pointer to externally hosted content rather than carrying content of
// its own.
func IsDocumentPointer(root *html.Node) bool {
	var found bool
	walkElements(root, func(n *html.Node) {
		if !found && n.Data == "span" && dataType(n) == "document" && getAttr(n, "data-value") == "pointer" {
			found = true
		}
	})
	return found
}

// ParseResourceEntries reads the optional resources listing of a
// metadata stanza: list items naming files the document depends on,
// each with a media type and a name.
func ParseResourceEntries(root *html.Node) []struct{ ID, MediaType, Name string } {
	var out []struct{ ID, MediaType, Name string }
	resources := findByDataType(root, "resources")
	if resources == nil {
		return out
	}
	walkElements(resources, func(n *html.Node) {
		if n.Data != "li" {
			return
		}
		a := findElement(n, "a")
		if a == nil {
			return
		}
		out = append(out, struct{ ID, MediaType, Name string }{
			ID:        getAttr(a, "href"),
			MediaType: getAttr(n, "data-media-type"),
			Name:      strings.TrimSpace(nodeTextContent(a)),
		})
	})
	return out
}
