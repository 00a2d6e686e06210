package cnxepub

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// containerXMLPath locates the container descriptor inside an EPUB.
const containerXMLPath = "META-INF/container.xml"

// epubContainer mirrors META-INF/container.xml.
type epubContainer struct {
	XMLName   xml.Name `xml:"urn:oasis:names:tc:opendocument:xmlns:container container"`
	Version   string   `xml:"version,attr"`
	Rootfiles struct {
		Rootfile []epubRootfile `xml:"rootfile"`
	} `xml:"rootfiles"`
}

type epubRootfile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// ReadEPUB opens an EPUB container, either a .epub zip file or an
// unzipped directory, and loads every package it declares.
func ReadEPUB(epubPath string) ([]*Package, error) {
	info, err := os.Stat(epubPath)
	if err != nil {
		return nil, fmt.Errorf("cnxepub: open epub %q: %w", epubPath, err)
	}
	if info.IsDir() {
		return readContainer(os.DirFS(epubPath))
	}

	zr, err := zip.OpenReader(epubPath)
	if err != nil {
		return nil, fmt.Errorf("cnxepub: open epub %q: %w", epubPath, err)
	}
	defer zr.Close()
	return readContainer(&zr.Reader)
}

// readContainer loads every package a container's descriptor declares.
func readContainer(fsys fs.FS) ([]*Package, error) {
	data, err := fs.ReadFile(fsys, containerXMLPath)
	if err != nil {
		return nil, fmt.Errorf("cnxepub: read container descriptor: %w", err)
	}
	var container epubContainer
	if err := xml.Unmarshal(data, &container); err != nil {
		return nil, fmt.Errorf("cnxepub: parse container descriptor: %w", err)
	}
	if len(container.Rootfiles.Rootfile) == 0 {
		return nil, fmt.Errorf("cnxepub: container declares no packages")
	}

	var pkgs []*Package
	for _, rootfile := range container.Rootfiles.Rootfile {
		pkg, err := readPackage(fsys, rootfile.FullPath)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

// readPackage loads one package: its OPF document plus every manifest
// item's data.
func readPackage(fsys fs.FS, opfPath string) (*Package, error) {
	opfData, err := fs.ReadFile(fsys, opfPath)
	if err != nil {
		return nil, fmt.Errorf("cnxepub: read package document %q: %w", opfPath, err)
	}
	id, meta, manifest, err := ParseOPF(opfData)
	if err != nil {
		return nil, err
	}

	base := path.Dir(opfPath)
	items := make([]*Item, 0, len(manifest))
	for _, entry := range manifest {
		itemPath := entry.Href
		if base != "." {
			itemPath = path.Join(base, entry.Href)
		}
		data, err := fs.ReadFile(fsys, itemPath)
		if err != nil {
			return nil, fmt.Errorf("cnxepub: read item %q of package %q: %w", entry.Href, opfPath, err)
		}
		props := strings.Fields(entry.Properties)
		item := &Item{
			Name:      entry.Href,
			Data:      data,
			MediaType: entry.MediaType,
		}
		for _, prop := range props {
			if prop == "nav" {
				item.IsNavigation = true
				continue
			}
			item.Properties = append(item.Properties, prop)
		}
		items = append(items, item)
	}
	return NewPackage(id, path.Base(opfPath), meta, items)
}
