// Package dom provides the document handle, the tree-construction capability
// and the serializer used by render passes. Nodes are golang.org/x/net/html
// nodes so any consumer of that package can walk or render them.
package dom
