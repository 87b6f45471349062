// Package syntax parses Glimmer-style templates: HTML with mustache
// expressions, block helpers, named arguments and block params. Parse returns
// an AST; package render evaluates it.
package syntax
