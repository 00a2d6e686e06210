package cnxepub

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"mime"
	"net/url"
	"strings"
)

// preferredExtensions pins extensions for common media types so that
// hash-derived filenames are stable across platforms; mime.ExtensionsByType
// ordering varies with the host's mime tables.
var preferredExtensions = map[string]string{
	"application/xhtml+xml": ".xhtml",
	"text/html":             ".html",
	"text/css":              ".css",
	"image/jpeg":            ".jpg",
	"image/png":             ".png",
	"image/gif":             ".gif",
	"image/svg+xml":         ".svg",
	"application/pdf":       ".pdf",
}

// extensionForMediaType returns a filename extension (with leading dot)
// for the media type, or "" when none is known.
func extensionForMediaType(mediaType string) string {
	if ext, ok := preferredExtensions[mediaType]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

// Resource is a binary or text asset (image, stylesheet, etc.) addressed
// by a symbolic reference. It is owned by the document or binder that
// declares it, and deduplicated by content hash at collation time.
type Resource struct {
	id        string
	data      []byte
	mediaType string
	filename  string
	hash      string
}

// NewResource creates a resource. When filename is empty, one is derived
// from the sha1 content hash and the media type extension.
func NewResource(id string, data []byte, mediaType, filename string) *Resource {
	sum := sha1.Sum(data)
	hash := hex.EncodeToString(sum[:])
	if filename == "" {
		filename = hash + extensionForMediaType(mediaType)
	}
	return &Resource{
		id:        id,
		data:      data,
		mediaType: mediaType,
		filename:  filename,
		hash:      hash,
	}
}

func (r *Resource) ID() string { return r.id }

// SetID renames the resource; used when an inline resource adopts its
// hash-derived filename as its id.
func (r *Resource) SetID(id string) { r.id = id }

// Data returns the raw asset bytes.
func (r *Resource) Data() []byte { return r.data }

func (r *Resource) MediaType() string { return r.mediaType }

func (r *Resource) Filename() string { return r.filename }

// Hash returns the sha1 content hash in hex.
func (r *Resource) Hash() string { return r.hash }

// resourceFromDataURI materializes a Resource from a data: URI. The
// resource id is its hash-derived filename, so identical payloads
// deduplicate naturally.
func resourceFromDataURI(uri string) (*Resource, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, fmt.Errorf("cnxepub: not a data URI: %q", truncateURI(uri))
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("cnxepub: malformed data URI: %q", truncateURI(uri))
	}

	mediaType := "text/plain"
	isBase64 := false
	for i, part := range strings.Split(meta, ";") {
		switch {
		case part == "base64":
			isBase64 = true
		case i == 0 && part != "":
			mediaType = part
		}
	}

	var data []byte
	var err error
	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
	} else {
		var s string
		s, err = url.PathUnescape(payload)
		data = []byte(s)
	}
	if err != nil {
		return nil, fmt.Errorf("cnxepub: decode data URI: %w", err)
	}

	res := NewResource("", data, mediaType, "")
	res.SetID(res.Filename())
	return res, nil
}

// truncateURI shortens long URIs (data: payloads in particular) for
// error messages.
func truncateURI(uri string) string {
	if len(uri) > 64 {
		return uri[:64] + "..."
	}
	return uri
}
