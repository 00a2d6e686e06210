package cnxepub

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// pageTemplate renders a full content page: an XHTML document whose
// body opens with the metadata stanza and continues with the content.
// Titles may carry inline markup and are injected pre-rendered; plain
// string fields are escaped by the template engine.
var pageTemplate = template.Must(template.New("page").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
<title>{{.PlainTitle}}</title>
</head>
<body itemscope="itemscope" itemtype="http://schema.org/Book">
<div data-type="metadata">
<h1 data-type="document-title" itemprop="name">{{.Title}}</h1>
{{- if .Pointer}}
<span data-type="document" data-value="pointer"></span>
{{- end}}
{{- if .Composite}}
<span data-type="generated-content" data-value="true"></span>
{{- end}}
{{- if .Translucent}}
<span data-type="binding" data-value="translucent"></span>
{{- end}}
{{- if .ArchiveURI}}
<span data-type="cnx-archive-uri" data-value="{{.ArchiveURI}}"></span>
{{- end}}
{{- if .ShortID}}
<span data-type="cnx-archive-shortid" data-value="{{.ShortID}}"></span>
{{- end}}
{{- if .Language}}
<meta itemprop="inLanguage" data-type="language" content="{{.Language}}"/>
{{- end}}
{{- if .Created}}
<meta itemprop="dateCreated" data-type="created" content="{{.Created}}"/>
{{- end}}
{{- if .Revised}}
<meta itemprop="dateModified" data-type="revised" content="{{.Revised}}"/>
{{- end}}
{{- range .ActorGroups}}
{{- $dt := .DataType}}
<div class="{{.Class}}">
{{- range .Actors}}
<span data-type="{{$dt}}"{{if .ID}} data-id="{{.ID}}"{{end}}>{{.Name}}</span>
{{- end}}
</div>
{{- end}}
{{- if .LicenseURL}}
<div data-type="license-holder">
<a data-type="license" href="{{.LicenseURL}}">{{.LicenseText}}</a>
</div>
{{- end}}
{{- if .Summary}}
<div data-type="description" itemprop="description">{{.Summary}}</div>
{{- end}}
{{- range .Keywords}}
<span data-type="keyword" itemprop="keywords">{{.}}</span>
{{- end}}
{{- range .Subjects}}
<span data-type="subject" itemprop="about">{{.}}</span>
{{- end}}
{{- if .DerivedFromURI}}
<div data-type="derived-from">
<a href="{{.DerivedFromURI}}">{{.DerivedFromTitle}}</a>
</div>
{{- end}}
{{- if .PrintStyle}}
<span data-type="print-style">{{.PrintStyle}}</span>
{{- end}}
{{- if .Resources}}
<div data-type="resources">
<ul>
{{- range .Resources}}
<li data-media-type="{{.MediaType}}"><a href="{{.Href}}">{{.Name}}</a></li>
{{- end}}
</ul>
</div>
{{- end}}
</div>
{{.Body}}
</body>
</html>
`))

type pageActorGroup struct {
	Class    string
	DataType string
	Actors   []Actor
}

type pageResource struct {
	MediaType string
	Href      string
	Name      string
}

type pageContext struct {
	PlainTitle       string
	Title            template.HTML
	Pointer          bool
	Composite        bool
	Translucent      bool
	ArchiveURI       string
	ShortID          string
	Language         string
	Created          string
	Revised          string
	ActorGroups      []pageActorGroup
	LicenseURL       string
	LicenseText      string
	Summary          template.HTML
	Keywords         []string
	Subjects         []string
	DerivedFromURI   string
	DerivedFromTitle string
	PrintStyle       string
	Resources        []pageResource
	Body             template.HTML
}

func actorGroups(meta *Metadata) []pageActorGroup {
	groups := []pageActorGroup{
		{Class: "authors", DataType: "author", Actors: meta.Authors},
		{Class: "editors", DataType: "editor", Actors: meta.Editors},
		{Class: "illustrators", DataType: "illustrator", Actors: meta.Illustrators},
		{Class: "translators", DataType: "translator", Actors: meta.Translators},
		{Class: "publishers", DataType: "publisher", Actors: meta.Publishers},
		{Class: "copyright-holders", DataType: "copyright-holder", Actors: meta.CopyrightHolders},
	}
	out := groups[:0]
	for _, g := range groups {
		if len(g.Actors) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// FormatDocumentPage renders a document as a standalone content page
// with its metadata stanza. The resolver, when given, rewrites the
// document's internal resource references for the output layout.
func FormatDocumentPage(doc *Document, resolver *ResourceResolver) ([]byte, error) {
	if resolver != nil {
		rebindResources(doc.References(), resolver)
	}
	body, err := renderChildren(doc.Body())
	if err != nil {
		return nil, err
	}
	return renderPage(doc.Meta(), pageContext{
		ArchiveURI: archiveURIFor(doc.IdentHash(), doc.Meta()),
		Resources:  resourceListing(doc.Resources(), resolver),
		Body:       template.HTML(body),
	})
}

// resourceListing builds the stanza's resources list: every file the
// document depends on, at its output path.
func resourceListing(resources []*Resource, resolver *ResourceResolver) []pageResource {
	var out []pageResource
	for _, r := range resources {
		href := "../resources/" + r.Filename()
		if resolver != nil {
			if resolved, err := resolver.Resolve(r.Filename()); err == nil {
				href = resolved
			}
		}
		out = append(out, pageResource{
			MediaType: r.MediaType(),
			Href:      href,
			Name:      r.Filename(),
		})
	}
	return out
}

// rebindResources rewrites bound resource references for the resolver's
// output layout. References whose targets the resolver does not know
// stay as written.
func rebindResources(refs []*Reference, resolver *ResourceResolver) {
	for _, ref := range refs {
		if !ref.Bound() {
			continue
		}
		uri, err := resolver.Resolve(ref.BoundID())
		if err != nil {
			continue
		}
		ref.Unbind()
		ref.SetURI(uri)
	}
}

// FormatCompositePage renders a composite document page; identical to a
// document page except for the generated-content marker.
func FormatCompositePage(doc *CompositeDocument, resolver *ResourceResolver) ([]byte, error) {
	if resolver != nil {
		rebindResources(doc.References(), resolver)
	}
	body, err := renderChildren(doc.Body())
	if err != nil {
		return nil, err
	}
	return renderPage(doc.Meta(), pageContext{
		Composite:  true,
		ArchiveURI: archiveURIFor(doc.IdentHash(), doc.Meta()),
		Resources:  resourceListing(doc.Resources(), resolver),
		Body:       template.HTML(body),
	})
}

// FormatPointerPage renders the placeholder page for a document
// pointer: a stanza declaring the pointer plus a link to the target.
func FormatPointerPage(p *DocumentPointer) ([]byte, error) {
	link := fmt.Sprintf("<div><p>Link to document: <a href=\"/contents/%s\">%s</a></p></div>",
		template.HTMLEscapeString(p.IdentHash()), template.HTMLEscapeString(p.Meta().Title))
	return renderPage(p.Meta(), pageContext{
		Pointer:    true,
		ArchiveURI: archiveURIFor(p.IdentHash(), p.Meta()),
		Body:       template.HTML(link),
	})
}

// FormatNavigationPage renders a binder's navigation document: the
// metadata stanza followed by the nav tree in canonical order. A binder
// that needs no navigation level of its own gets a translucent binding
// marker instead of a listed entry.
func FormatNavigationPage(b *Binder, translucent bool) ([]byte, error) {
	tree := ModelToTree(b)
	var sb strings.Builder
	sb.WriteString(`<nav id="toc">`)
	writeNavList(&sb, tree.Contents)
	sb.WriteString(`</nav>`)

	return renderPage(b.Meta(), pageContext{
		Translucent: translucent || b.Translucent(),
		ArchiveURI:  archiveURIFor(b.IdentHash(), b.Meta()),
		Body:        template.HTML(sb.String()),
	})
}

// writeNavList emits nested ordered lists for a summarized tree,
// carrying archive uri and short id attributes on the list items.
func writeNavList(sb *strings.Builder, nodes []*TreeNode) {
	if len(nodes) == 0 {
		return
	}
	sb.WriteString("<ol>")
	for _, node := range nodes {
		sb.WriteString("<li")
		if node.ID != "" && node.ID != TranslucentBinderID {
			fmt.Fprintf(sb, ` cnx-archive-uri=%q`, node.ID)
		}
		if node.ShortID != "" {
			fmt.Fprintf(sb, ` cnx-archive-shortid=%q`, node.ShortID)
		}
		sb.WriteString(">")
		if node.Contents != nil {
			fmt.Fprintf(sb, "<span>%s</span>", node.Title)
			writeNavList(sb, node.Contents)
		} else {
			fmt.Fprintf(sb, `<a href="%s%s">%s</a>`,
				template.HTMLEscapeString(node.ID), extensionForIdentHash(node.ID), node.Title)
		}
		sb.WriteString("</li>")
	}
	sb.WriteString("</ol>")
}

// extensionForIdentHash returns the page file extension used when a nav
// entry links to a sibling page by ident hash.
func extensionForIdentHash(string) string { return ".xhtml" }

// renderPage fills in the metadata-driven fields and executes the page
// template.
func renderPage(meta *Metadata, ctx pageContext) ([]byte, error) {
	ctx.PlainTitle = strings.TrimSpace(plainText(meta.Title))
	ctx.Title = template.HTML(meta.Title)
	ctx.Language = meta.Language
	ctx.Created = meta.Created
	ctx.Revised = meta.Revised
	ctx.ActorGroups = actorGroups(meta)
	ctx.LicenseURL = meta.LicenseURL
	ctx.LicenseText = meta.LicenseText
	ctx.Summary = template.HTML(meta.Summary)
	ctx.Keywords = meta.Keywords
	ctx.Subjects = meta.Subjects
	ctx.DerivedFromURI = meta.DerivedFromURI
	ctx.DerivedFromTitle = meta.DerivedFromTitle
	ctx.PrintStyle = meta.PrintStyle
	if ctx.ShortID == "" {
		ctx.ShortID = meta.ShortID
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, ctx); err != nil {
		return nil, fmt.Errorf("cnxepub: render page: %w", err)
	}
	return buf.Bytes(), nil
}

// archiveURIFor derives the archive uri stanza value: an explicit
// system uri wins over one derived from the ident hash.
func archiveURIFor(identHash string, meta *Metadata) string {
	if uri := meta.URI("cnx-archive"); uri != "" {
		return uri
	}
	if identHash == "" {
		return ""
	}
	return "/contents/" + identHash
}

// plainText strips markup from a title for use in head/title.
func plainText(markup string) string {
	node, err := ParseBody([]byte(markup))
	if err != nil {
		return markup
	}
	return nodeTextContent(node)
}
