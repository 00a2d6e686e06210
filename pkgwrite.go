package cnxepub

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
)

const epubMimeType = "application/epub+zip"

// WriteEPUB serializes binders into an EPUB container on w. Each binder
// becomes one package. The mimetype entry is written first and
// uncompressed, as EPUB readers require.
func WriteEPUB(w io.Writer, binders ...*Binder) error {
	if len(binders) == 0 {
		return fmt.Errorf("cnxepub: write epub: no binders given")
	}

	zw := zip.NewWriter(w)
	mimetype, err := zw.CreateHeader(&zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	})
	if err != nil {
		return fmt.Errorf("cnxepub: write epub: %w", err)
	}
	if _, err := mimetype.Write([]byte(epubMimeType)); err != nil {
		return fmt.Errorf("cnxepub: write epub: %w", err)
	}

	var pkgs []*Package
	for _, binder := range binders {
		pkg, err := ExportPackage(binder)
		if err != nil {
			return err
		}
		pkgs = append(pkgs, pkg)
	}

	descriptor, err := buildContainerXML(pkgs)
	if err != nil {
		return err
	}
	if err := writeZipFile(zw, containerXMLPath, descriptor); err != nil {
		return err
	}

	for _, pkg := range pkgs {
		files, err := PackageFiles(pkg)
		if err != nil {
			return err
		}
		for _, f := range files {
			if err := writeZipFile(zw, f.Path, f.Data); err != nil {
				return err
			}
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("cnxepub: write epub: %w", err)
	}
	return nil
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("cnxepub: write %q: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("cnxepub: write %q: %w", name, err)
	}
	return nil
}

// buildContainerXML produces the container descriptor naming every
// package document.
func buildContainerXML(pkgs []*Package) ([]byte, error) {
	container := epubContainer{Version: "1.0"}
	for _, pkg := range pkgs {
		container.Rootfiles.Rootfile = append(container.Rootfiles.Rootfile, epubRootfile{
			FullPath:  pkg.Name,
			MediaType: "application/oebps-package+xml",
		})
	}
	out, err := xml.MarshalIndent(container, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("cnxepub: build container descriptor: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
