package cnxepub

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// xhtmlNamespace is the default namespace declared on every produced
// document root.
const xhtmlNamespace = "http://www.w3.org/1999/xhtml"

// knownNamespaces maps the namespace prefixes that appear in educational
// content markup to their URIs. Used when hoisting declarations onto the
// root of a merged document for prefixes the sources used but never
// declared locally.
var knownNamespaces = map[string]string{
	"m":       "http://www.w3.org/1998/Math/MathML",
	"epub":    "http://www.idpf.org/2007/ops",
	"rdf":     "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"dc":      "http://purl.org/dc/elements/1.1/",
	"lrmi":    "http://lrmi.net/the-specification",
	"bib":     "http://bibtexml.sf.net/",
	"qml":     "http://cnx.rice.edu/qml/1.0",
	"datadev": "http://dev.w3.org/html5/spec/#custom",
	"mod":     "http://cnx.rice.edu/#moduleIds",
	"md":      "http://cnx.rice.edu/mdml",
	"c":       "http://cnx.rice.edu/cnxml",
}

// ParseHTML parses a complete HTML/XHTML document into a tree handle.
func ParseHTML(data []byte) (*html.Node, error) {
	doc, err := html.Parse(bytes.NewReader(stripBOM(data)))
	if err != nil {
		return nil, fmt.Errorf("cnxepub: parse html: %w", err)
	}
	return doc, nil
}

// ParseBody parses HTML data and returns its <body> element. Fragments
// without an explicit body are placed into one by the parser.
func ParseBody(data []byte) (*html.Node, error) {
	doc, err := ParseHTML(data)
	if err != nil {
		return nil, err
	}
	body := findElement(doc, "body")
	if body == nil {
		return nil, fmt.Errorf("cnxepub: content has no body element")
	}
	return body, nil
}

// stripBOM removes a leading UTF-8 BOM (0xEF 0xBB 0xBF) from data, if present.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// newElement creates a detached element node with the given tag and
// optional key/value attribute pairs.
func newElement(tag string, attrPairs ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrPairs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrPairs[i], Val: attrPairs[i+1]})
	}
	return n
}

// newText creates a detached text node.
func newText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// getAttr returns the value of the attribute with the given key on n.
func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasAttr reports whether n carries the attribute, even when empty.
func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// setAttr sets or replaces an attribute on n.
func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// dataType returns the data-type attribute of n.
func dataType(n *html.Node) string {
	return getAttr(n, "data-type")
}

// walkElements visits every element in the subtree rooted at n (n
// included) in document order.
func walkElements(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkElements(c, fn)
	}
}

// findElement performs a depth-first search for the first element with
// the given tag name.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// findByDataType performs a depth-first search for the first element
// whose data-type attribute equals value.
func findByDataType(n *html.Node, value string) *html.Node {
	var found *html.Node
	walkElements(n, func(e *html.Node) {
		if found == nil && dataType(e) == value {
			found = e
		}
	})
	return found
}

// collectByDataType returns all elements whose data-type attribute
// equals value, in document order.
func collectByDataType(n *html.Node, value string) []*html.Node {
	var out []*html.Node
	walkElements(n, func(e *html.Node) {
		if dataType(e) == value {
			out = append(out, e)
		}
	})
	return out
}

// nodeTextContent recursively collects all text content within a node.
func nodeTextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeTextContent(c))
	}
	return sb.String()
}

// cloneTree returns a deep, detached copy of the subtree rooted at n.
func cloneTree(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneTree(child))
	}
	return c
}

// detach removes n from its parent, leaving it free to be re-appended.
func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// replaceNode substitutes newNode for old in old's parent.
func replaceNode(old, newNode *html.Node) {
	parent := old.Parent
	if parent == nil {
		return
	}
	detach(newNode)
	parent.InsertBefore(newNode, old)
	parent.RemoveChild(old)
}

// renderNode serializes the subtree rooted at n.
func renderNode(n *html.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return nil, fmt.Errorf("cnxepub: render html: %w", err)
	}
	return buf.Bytes(), nil
}

// renderChildren serializes the children of n, dropping the outer tag.
func renderChildren(n *html.Node) ([]byte, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return nil, fmt.Errorf("cnxepub: render html: %w", err)
		}
	}
	return buf.Bytes(), nil
}

var xmlnsDeclPattern = regexp.MustCompile(` xmlns:?[^=]*="[^"]*"`)

// squashToText returns the inner markup of elm as a string: leading
// text plus each child serialized, surrounding whitespace stripped.
// Titles in navigation markup keep inline elements this way.
func squashToText(elm *html.Node, removeNamespaces bool) string {
	inner, err := renderChildren(elm)
	if err != nil {
		return strings.TrimSpace(nodeTextContent(elm))
	}
	value := string(inner)
	if removeNamespaces {
		value = xmlnsDeclPattern.ReplaceAllString(value, "")
	}
	return strings.TrimSpace(value)
}

// hrefWithoutFragment returns the href with the fragment (#...) removed.
func hrefWithoutFragment(href string) string {
	if idx := strings.IndexByte(href, '#'); idx >= 0 {
		return href[:idx]
	}
	return href
}

// normalizeNamespaces hoists every xmlns declaration in the subtree onto
// root, drops declarations for prefixes nothing uses, and guarantees the
// XHTML default namespace on root. Non-declaration attributes, text and
// comment nodes are left untouched.
func normalizeNamespaces(root *html.Node) {
	decls := make(map[string]string) // prefix ("" for default) -> uri
	used := make(map[string]bool)

	walkElements(root, func(n *html.Node) {
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			switch {
			case a.Key == "xmlns":
				if _, ok := decls[""]; !ok {
					decls[""] = a.Val
				}
			case strings.HasPrefix(a.Key, "xmlns:"):
				prefix := a.Key[len("xmlns:"):]
				if _, ok := decls[prefix]; !ok {
					decls[prefix] = a.Val
				}
			default:
				if i := strings.IndexByte(a.Key, ':'); i > 0 {
					used[a.Key[:i]] = true
				}
				kept = append(kept, a)
			}
		}
		n.Attr = kept
		if i := strings.IndexByte(n.Data, ':'); i > 0 {
			used[n.Data[:i]] = true
		}
	})

	if _, ok := decls[""]; !ok {
		decls[""] = xhtmlNamespace
	}

	attrs := []html.Attribute{{Key: "xmlns", Val: decls[""]}}
	prefixes := make([]string, 0, len(used))
	for prefix := range used {
		if prefix == "xml" || prefix == "xmlns" {
			continue
		}
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		uri := decls[prefix]
		if uri == "" {
			uri = knownNamespaces[prefix]
		}
		if uri == "" {
			continue
		}
		attrs = append(attrs, html.Attribute{Key: "xmlns:" + prefix, Val: uri})
	}
	root.Attr = append(attrs, root.Attr...)
}
