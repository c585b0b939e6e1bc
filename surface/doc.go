// Package surface adapts heterogeneous editable regions of a dom.Document
// to one capability set: detection, eligibility, context reading and
// commit.
//
// Three kinds of surface exist:
//   - PlainInput: <input> and <textarea>, backed by the control value.
//   - ContentEditable: elements with an editing contenteditable attribute,
//     backed by the document selection.
//   - RichEditorProxy: third-party editor widgets recognised by a marker
//     selector or by -webkit-user-modify. Canvas-rendered editors are polled
//     and read from the rendered line that holds the cursor marker.
//
// Offsets are rune offsets.
package surface
