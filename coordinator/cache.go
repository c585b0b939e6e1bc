package coordinator

import "github.com/iw2rmb/ghostline/surface"

type cacheKey struct {
	surfaceID string
	text      string
	caret     int
}

// suggestionCache remembers the last shown suggestion so that returning to
// the same text and caret (e.g. type then backspace) shows it again without
// a provider round trip.
type suggestionCache struct {
	valid bool
	key   cacheKey
	sg    *surface.Suggestion
}

func keyFor(s *surface.Surface, in surface.InputContext) cacheKey {
	return cacheKey{surfaceID: s.ID(), text: in.Text, caret: in.CaretOffset}
}

func (c *suggestionCache) get(key cacheKey) (*surface.Suggestion, bool) {
	if !c.valid || c.key != key {
		return nil, false
	}
	if _, err := c.sg.Surface(); err != nil {
		c.reset()
		return nil, false
	}
	return c.sg, true
}

func (c *suggestionCache) put(key cacheKey, sg *surface.Suggestion) {
	c.valid = true
	c.key = key
	c.sg = sg
}

func (c *suggestionCache) reset() {
	*c = suggestionCache{}
}
