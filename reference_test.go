package cnxepub

import (
	"strings"
	"testing"
)

func TestScanReferences(t *testing.T) {
	body, err := ParseBody([]byte(`<body>
<p><a href="http://example.org/x">external</a></p>
<p><a href="/contents/m2">internal</a></p>
<img src="../resources/pic.png"/>
<object data="../resources/anim.swf"><embed src="../resources/anim.swf"/></object>
<span data-src="../resources/extra.bin">fallback</span>
<img src="data:image/png;base64,iVBORw0KGgo="/>
</body>`))
	if err != nil {
		t.Fatal(err)
	}

	refs := scanReferences(body)
	if len(refs) != 7 {
		t.Fatalf("got %d references, want 7", len(refs))
	}

	// Anchors come first, in document order.
	if refs[0].Kind() != ReferenceExternal {
		t.Errorf("refs[0].Kind = %v, want external", refs[0].Kind())
	}
	if refs[1].Kind() != ReferenceInternal {
		t.Errorf("refs[1].Kind = %v, want internal", refs[1].Kind())
	}

	kinds := map[ReferenceKind]int{}
	for _, r := range refs {
		kinds[r.Kind()]++
	}
	if kinds[ReferenceInline] != 1 {
		t.Errorf("inline references = %d, want 1", kinds[ReferenceInline])
	}
	if kinds[ReferenceExternal] != 1 {
		t.Errorf("external references = %d, want 1", kinds[ReferenceExternal])
	}
}

func TestReferenceBind(t *testing.T) {
	body, err := ParseBody([]byte(`<body><img src="old.png"/></body>`))
	if err != nil {
		t.Fatal(err)
	}
	refs := scanReferences(body)
	if len(refs) != 1 {
		t.Fatalf("got %d references, want 1", len(refs))
	}
	ref := refs[0]

	ref.Bind("abc123.png", "../resources/%s")
	if got := ref.URI(); got != "../resources/abc123.png" {
		t.Errorf("bound URI = %q", got)
	}
	if err := ref.SetURI("direct.png"); err == nil {
		t.Error("SetURI on a bound reference must fail")
	}

	ref.Unbind()
	if err := ref.SetURI("direct.png"); err != nil {
		t.Errorf("SetURI after Unbind: %v", err)
	}
	if got := ref.URI(); got != "direct.png" {
		t.Errorf("URI after direct set = %q", got)
	}
}

func TestResourceFromDataURI(t *testing.T) {
	// "hello" base64-encoded.
	r, err := resourceFromDataURI("data:text/plain;base64,aGVsbG8=")
	if err != nil {
		t.Fatal(err)
	}
	if string(r.Data()) != "hello" {
		t.Errorf("data = %q", r.Data())
	}
	if r.MediaType() != "text/plain" {
		t.Errorf("media type = %q", r.MediaType())
	}
	if r.ID() != r.Filename() {
		t.Errorf("inline resource id %q should equal its filename %q", r.ID(), r.Filename())
	}

	if _, err := resourceFromDataURI("http://example.org/"); err == nil {
		t.Error("non-data URI must fail")
	}
}

func TestResourceHashFilename(t *testing.T) {
	r := NewResource("r1", []byte("payload"), "image/png", "")
	if !strings.HasSuffix(r.Filename(), ".png") {
		t.Errorf("filename %q should carry the media type extension", r.Filename())
	}
	if !strings.HasPrefix(r.Filename(), r.Hash()) {
		t.Errorf("filename %q should start with the content hash", r.Filename())
	}

	same := NewResource("r2", []byte("payload"), "image/png", "")
	if same.Hash() != r.Hash() {
		t.Error("identical payloads must hash identically")
	}
}
