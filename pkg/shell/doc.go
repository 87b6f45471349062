// Package shell renders full HTML pages around application markup using
// pongo2 layouts. An embedded default layout covers the title, stylesheets
// and scripts; custom layouts receive the same context (title, lang,
// stylesheets, scripts, body, data).
package shell
