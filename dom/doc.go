// Package dom provides a live, headless HTML document that stands in for a
// browser page.
//
// The tree is a golang.org/x/net/html node tree. On top of it the package
// keeps the state a browser keeps outside the markup: native control values
// and carets, the document text selection, focus, host-supplied geometry and
// a queue of focus, input, structural-change and resize events.
//
// A Document is not safe for concurrent use; hosts drive it from their event
// loop.
package dom
