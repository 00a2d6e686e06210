package cnxepub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMathMLRule(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "TeX", r.Form.Get("mathType"))
		assert.NotEmpty(t, r.Form.Get("math"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"components":[{"format":"mml","source":"<math><mi>x</mi></math>"}]}`))
	}))
	defer srv.Close()

	cache := NewMemoryCache()
	rule := MathMLRule(srv.URL, srv.Client(), cache)

	inline := newElement("span", "data-math", `x^2`)
	require.True(t, rule.Match(inline))

	replacement, err := rule.Apply(context.Background(), inline, "m1")
	require.NoError(t, err)
	require.NotNil(t, replacement)

	out, err := renderNode(replacement)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<math")
	assert.NotContains(t, string(out), "data-math", "source attribute dropped after conversion")

	// Same expression again: served from cache, no second request.
	again := newElement("span", "data-math", `x^2`)
	_, err = rule.Apply(context.Background(), again, "m2")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMathMLRuleBlockDisplay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"components":[{"format":"mml","source":"<math><mi>y</mi></math>"}]}`))
	}))
	defer srv.Close()

	rule := MathMLRule(srv.URL, srv.Client(), nil)
	block := newElement("div", "data-math", `\sum y`)
	replacement, err := rule.Apply(context.Background(), block, "m1")
	require.NoError(t, err)

	out, err := renderNode(replacement)
	require.NoError(t, err)
	assert.Contains(t, string(out), `display="block"`)
}

func TestExerciseRule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		w.Write([]byte(`{"total_count":1,"items":[{"questions":[{"stem_html":"<p>What is force?</p>"}]}]}`))
	}))
	defer srv.Close()

	rule := ExerciseRule("#ost/api/ex/", srv.URL+"?q=tag:%s", "sekrit", srv.Client(), nil)

	body := mustBody(t, `<body><p><a href="#ost/api/ex/phys-ch01-ex001">[link]</a></p></body>`)
	link := findElement(body, "a")
	require.True(t, rule.Match(link))

	_, err := rule.Apply(context.Background(), link, "m1")
	require.NoError(t, err)

	out, err := renderChildren(body)
	require.NoError(t, err)
	assert.Contains(t, string(out), `data-type="exercise"`)
	assert.Contains(t, string(out), "What is force?")
	assert.NotContains(t, string(out), "<p><a", "the lone-link paragraph is replaced whole")
}

func TestExerciseRuleMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_count":0,"items":[]}`))
	}))
	defer srv.Close()

	rule := ExerciseRule("#ost/api/ex/", srv.URL+"?q=tag:%s", "", srv.Client(), nil)
	body := mustBody(t, `<body><p><a href="#ost/api/ex/nope">[link]</a></p></body>`)
	link := findElement(body, "a")

	_, err := rule.Apply(context.Background(), link, "m1")
	require.NoError(t, err)

	out, err := renderChildren(body)
	require.NoError(t, err)
	assert.Contains(t, string(out), "missing-exercise")
	assert.Contains(t, string(out), "tag:nope")
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	if _, ok := c.Get("k"); ok {
		t.Fatal("empty cache returned a value")
	}
	c.Set("k", []byte("v"))
	v, ok := c.Get("k")
	if !ok || string(v) != "v" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
}

func TestMathMLRuleRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"components":[{"format":"mml","source":"<math><mi>z</mi></math>"}]}`))
	}))
	defer srv.Close()

	rule := MathMLRule(srv.URL, srv.Client(), nil)
	elem := newElement("span", "data-math", "z")
	replacement, err := rule.Apply(context.Background(), elem, "m1")
	require.NoError(t, err, "one transient failure is retried")
	require.NotNil(t, replacement)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	out, _ := renderNode(replacement)
	if !strings.Contains(string(out), "<math") {
		t.Errorf("replacement = %s", out)
	}
}
