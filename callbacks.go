package cnxepub

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Cache stores rendered transform results across elements of one
// collation run. Implementations must be safe for concurrent use.
// Callers inject a fresh cache per run; nothing here is global.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string][]byte)}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *MemoryCache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
}

func cacheKey(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// MathMLRule converts TeX math elements to MathML through a conversion
// service. Elements matched carry data-math (span for inline, div for
// block display). Conversion results are cached by source expression;
// one retry covers transient service hiccups.
func MathMLRule(serviceURL string, client *http.Client, cache Cache) TransformRule {
	if client == nil {
		client = http.DefaultClient
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return TransformRule{
		Name: "mathml",
		Match: func(e *html.Node) bool {
			return (e.Data == "span" || e.Data == "div") && hasAttr(e, "data-math")
		},
		Apply: func(ctx context.Context, elem *html.Node, docID string) (*html.Node, error) {
			tex := getAttr(elem, "data-math")
			if tex == "" {
				return nil, nil
			}
			block := elem.Data == "div"

			key := cacheKey("mathml", tex, fmt.Sprint(block))
			mml, ok := cache.Get(key)
			if !ok {
				var err error
				mml, err = convertMath(ctx, client, serviceURL, tex)
				if err != nil {
					// One retry before giving up on the element.
					mml, err = convertMath(ctx, client, serviceURL, tex)
				}
				if err != nil {
					return nil, fmt.Errorf("cnxepub: convert math %q: %w", truncateURI(tex), err)
				}
				cache.Set(key, mml)
			}

			markup := string(mml)
			if block {
				markup = strings.Replace(markup, "<math", `<math display="block"`, 1)
			}
			frag, err := ParseBody([]byte(markup))
			if err != nil {
				return nil, err
			}
			replacement := cloneTree(elem)
			replacement.Attr = nil
			for _, a := range elem.Attr {
				if a.Key != "data-math" {
					replacement.Attr = append(replacement.Attr, a)
				}
			}
			for c := replacement.FirstChild; c != nil; {
				next := c.NextSibling
				replacement.RemoveChild(c)
				c = next
			}
			for c := frag.FirstChild; c != nil; {
				next := c.NextSibling
				detach(c)
				replacement.AppendChild(c)
				c = next
			}
			return replacement, nil
		},
	}
}

// convertMath posts one TeX expression to the conversion service and
// extracts the MathML component of its response.
func convertMath(ctx context.Context, client *http.Client, serviceURL, tex string) ([]byte, error) {
	form := url.Values{
		"math":     {tex},
		"mathType": {"TeX"},
		"mml":      {"true"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serviceURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("conversion service returned %s", resp.Status)
	}

	var payload struct {
		Components []struct {
			Format string `json:"format"`
			Source string `json:"source"`
		} `json:"components"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	for _, comp := range payload.Components {
		if comp.Format == "mml" {
			return []byte(comp.Source), nil
		}
	}
	return nil, fmt.Errorf("conversion service returned no mml component")
}

// exercisePayload is the relevant slice of an exercise service
// response.
type exercisePayload struct {
	Total int `json:"total_count"`
	Items []struct {
		Questions []struct {
			Stem string `json:"stem_html"`
		} `json:"questions"`
	} `json:"items"`
}

// ExerciseRule embeds exercises fetched from an exercise service.
// Anchors whose href matches the given prefix (for example "#ost/api/ex/")
// name an exercise by tag; the rule fetches it and replaces the
// enclosing paragraph with the rendered exercise. A missing exercise
// leaves a marked placeholder instead of failing the run.
func ExerciseRule(hrefPrefix, urlTemplate, token string, client *http.Client, cache Cache) TransformRule {
	if client == nil {
		client = http.DefaultClient
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return TransformRule{
		Name: "exercise",
		Match: func(e *html.Node) bool {
			return e.Data == "a" && strings.HasPrefix(getAttr(e, "href"), hrefPrefix)
		},
		Apply: func(ctx context.Context, elem *html.Node, docID string) (*html.Node, error) {
			tag := strings.TrimPrefix(getAttr(elem, "href"), hrefPrefix)
			if tag == "" {
				return nil, nil
			}

			key := cacheKey("exercise", urlTemplate, tag)
			body, ok := cache.Get(key)
			if !ok {
				var err error
				body, err = fetchExercise(ctx, client, fmt.Sprintf(urlTemplate, tag), token)
				if err != nil {
					return nil, fmt.Errorf("cnxepub: fetch exercise %q: %w", tag, err)
				}
				cache.Set(key, body)
			}

			var payload exercisePayload
			if err := json.Unmarshal(body, &payload); err != nil {
				return nil, fmt.Errorf("cnxepub: decode exercise %q: %w", tag, err)
			}

			var replacement *html.Node
			if payload.Total == 0 {
				replacement = newElement("div", "data-type", "missing-exercise")
				replacement.AppendChild(newText(fmt.Sprintf("MISSING EXERCISE: tag:%s", tag)))
			} else {
				replacement = newElement("div", "data-type", "exercise")
				for _, item := range payload.Items {
					for _, q := range item.Questions {
						stem, err := ParseBody([]byte(q.Stem))
						if err != nil {
							return nil, fmt.Errorf("cnxepub: parse exercise %q: %w", tag, err)
						}
						question := newElement("div", "data-type", "question")
						for c := stem.FirstChild; c != nil; {
							next := c.NextSibling
							detach(c)
							question.AppendChild(c)
							c = next
						}
						replacement.AppendChild(question)
					}
				}
			}

			// An exercise link alone in a paragraph replaces the whole
			// paragraph, since a div cannot nest inside p.
			target := elem
			if p := elem.Parent; p != nil && p.Data == "p" && onlyChild(p, elem) {
				target = p
			}
			replaceNode(target, replacement)
			return nil, nil
		},
	}
}

// onlyChild reports whether elem is the only non-whitespace child of p.
func onlyChild(p, elem *html.Node) bool {
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		if c == elem {
			continue
		}
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		return false
	}
	return true
}

func fetchExercise(ctx context.Context, client *http.Client, exerciseURL, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exerciseURL, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exercise service returned %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
