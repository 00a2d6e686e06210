package cnxepub

import (
	"errors"
	"testing"
)

func TestResourceResolverModes(t *testing.T) {
	res := NewResource("r1", []byte("x"), "image/png", "pic.png")

	pkg := NewResourceResolver(ModePackage)
	pkg.Add(res)
	if got, err := pkg.Resolve("r1"); err != nil || got != "../resources/pic.png" {
		t.Errorf("package mode resolve = %q, %v", got, err)
	}

	single := NewResourceResolver(ModeSingleDocument)
	single.Add(res)
	if got, err := single.Resolve("pic.png"); err != nil || got != "resources/pic.png" {
		t.Errorf("single mode resolve = %q, %v", got, err)
	}
}

func TestResourceResolverUnresolved(t *testing.T) {
	rr := NewResourceResolver(ModePackage)
	_, err := rr.Resolve("nope")
	if !errors.Is(err, ErrUnresolvedResource) {
		t.Errorf("err = %v, want ErrUnresolvedResource", err)
	}
}

func TestResourceResolverFirstSeenWins(t *testing.T) {
	rr := NewResourceResolver(ModePackage)
	rr.Add(NewResource("a", []byte("one"), "text/css", "style.css"))
	rr.Add(NewResource("b", []byte("two"), "text/css", "style.css"))

	r, ok := rr.Lookup("style.css")
	if !ok || string(r.Data()) != "one" {
		t.Error("first registration of a filename must win")
	}
	if got := len(rr.All()); got != 1 {
		t.Errorf("All() = %d resources, want 1 after filename dedup", got)
	}
}

func TestResourceResolverEmitsNewFilenameUnderTakenID(t *testing.T) {
	rr := NewResourceResolver(ModePackage)
	rr.Add(NewResource("logo", []byte("one"), "image/png", "a.png"))
	rr.Add(NewResource("logo", []byte("two"), "image/png", "b.png"))

	all := rr.All()
	if len(all) != 2 {
		t.Fatalf("All() = %d resources, want both filenames emitted", len(all))
	}
	if all[0].Filename() != "a.png" || all[1].Filename() != "b.png" {
		t.Errorf("All() order = %q, %q, want a.png then b.png", all[0].Filename(), all[1].Filename())
	}
	if got, err := rr.Resolve("b.png"); err != nil || got != "../resources/b.png" {
		t.Errorf("Resolve(b.png) = %q, %v; a resolvable path must name an emitted file", got, err)
	}
	if r, ok := rr.Lookup("logo"); !ok || string(r.Data()) != "one" {
		t.Error("first registration of an id must win")
	}
}
