// Package glimmer renders Glimmer-style component templates on the server.
//
// Templates use curly syntax: named arguments (@name), block params with
// yield, inline and block helpers, and capitalized component tags. Output is
// a golang.org/x/net/html tree that serializes to HTML.
//
// Most callers start with New (an app.Builder) or RenderFS for a directory of
// .hbs templates plus an optional app.yaml.
package glimmer
