package shell

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestRenderDefaultLayout(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := s.Render(Page{
		Title:       "Hello <World>",
		Stylesheets: []string{"/app.css"},
		Scripts:     []string{"/app.js"},
		Body:        `<div><h1>Hello Glimmer!</h1></div>`,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	html := string(out)
	for _, want := range []string{
		`<!DOCTYPE html>`,
		`<html lang="en">`,
		`<title>Hello &lt;World&gt;</title>`,
		`<link rel="stylesheet" href="/app.css">`,
		`<script src="/app.js"></script>`,
		`<div><h1>Hello Glimmer!</h1></div>`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output:\n%s", want, html)
		}
	}
}

func TestRenderCustomLayout(t *testing.T) {
	fsys := fstest.MapFS{
		"layout.html": {Data: []byte(`<main data-env="{{ env }}">{{ body|safe }}</main>{{ data.note }}`)},
	}
	s, err := New(WithLayoutFS(fsys), WithLayout("layout.html"), WithGlobals(map[string]any{"env": "test"}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := s.Render(Page{Body: "<p>x</p>", Data: map[string]any{"note": "ok"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if diff := cmp.Diff(`<main data-env="test"><p>x</p></main>ok`, string(out)); diff != "" {
		t.Fatalf("layout mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderMissingLayout(t *testing.T) {
	s, err := New(WithLayoutFS(fstest.MapFS{}), WithLayout("nope.html"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Render(Page{}); err == nil || !strings.Contains(err.Error(), "nope.html") {
		t.Fatalf("expected missing layout error, got %v", err)
	}
}
