// Package buffer implements the value model of native text controls
// (single-line inputs and multi-line textareas).
//
// Offsets are 0-based rune offsets into the control value. Selections are
// half-open ranges [Start, End). A collapsed selection is the caret.
package buffer
