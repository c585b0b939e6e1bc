package surface

// Kind is the closed set of surface variants.
type Kind uint8

const (
	PlainInput Kind = iota + 1
	ContentEditable
	RichEditorProxy
)

func (k Kind) String() string {
	switch k {
	case PlainInput:
		return "plain-input"
	case ContentEditable:
		return "contenteditable"
	case RichEditorProxy:
		return "rich-editor"
	default:
		return "unknown"
	}
}
