package cnxepub

import (
	"strings"
	"testing"
)

func TestNormalizeNamespaces(t *testing.T) {
	body, err := ParseBody([]byte(`<body>
<div xmlns:m="http://www.w3.org/1998/Math/MathML"><m:math><m:mi>x</m:mi></m:math></div>
<!-- a comment to keep -->
<div xmlns:unused="http://example.org/unused"><p epub:type="noteref">note</p></div>
</body>`))
	if err != nil {
		t.Fatal(err)
	}

	normalizeNamespaces(body)
	out, err := renderNode(body)
	if err != nil {
		t.Fatal(err)
	}
	html := string(out)

	if !strings.Contains(html, `xmlns="http://www.w3.org/1999/xhtml"`) {
		t.Error("default namespace missing from root")
	}
	if !strings.Contains(html, `xmlns:m="http://www.w3.org/1998/Math/MathML"`) {
		t.Error("used m prefix not hoisted to root")
	}
	if !strings.Contains(html, `xmlns:epub=`) {
		t.Error("epub prefix used but undeclared locally; known table should supply it")
	}
	if strings.Contains(html, "xmlns:unused") {
		t.Error("unused declaration survived")
	}
	if strings.Count(html, "xmlns:m=") != 1 {
		t.Error("m declaration should appear exactly once, on the root")
	}
	if !strings.Contains(html, "a comment to keep") {
		t.Error("comment node was dropped")
	}
}

func TestSquashToText(t *testing.T) {
	body, err := ParseBody([]byte(`<body><h1>  Forces <em xmlns:x="http://example.org/">and</em> Motion  </h1></body>`))
	if err != nil {
		t.Fatal(err)
	}
	h1 := findElement(body, "h1")
	if h1 == nil {
		t.Fatal("no h1")
	}
	got := squashToText(h1, true)
	if got != "Forces <em>and</em> Motion" {
		t.Errorf("squashToText = %q", got)
	}
}

func TestHrefWithoutFragment(t *testing.T) {
	tests := []struct{ in, want string }{
		{"m1.xhtml#sec1", "m1.xhtml"},
		{"m1.xhtml", "m1.xhtml"},
		{"#sec1", ""},
	}
	for _, tt := range tests {
		if got := hrefWithoutFragment(tt.in); got != tt.want {
			t.Errorf("hrefWithoutFragment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("<html></html>")...)
	if got := string(stripBOM(data)); got != "<html></html>" {
		t.Errorf("stripBOM = %q", got)
	}
	if got := string(stripBOM([]byte("plain"))); got != "plain" {
		t.Errorf("stripBOM without BOM = %q", got)
	}
}
