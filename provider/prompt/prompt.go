// Package prompt builds completion prompts and stop sequences for an input
// context.
package prompt

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iw2rmb/ghostline/surface"
)

// DefaultTemperature keeps continuations close to the most likely text.
const DefaultTemperature = 0.3

// Mode is the kind of text being completed.
type Mode uint8

const (
	Prose Mode = iota
	Search
	Code
	PythonSolution
)

func (m Mode) String() string {
	switch m {
	case Search:
		return "search"
	case Code:
		return "code"
	case PythonSolution:
		return "python-solution"
	default:
		return "prose"
	}
}

// ModeOf classifies in. Code wins over search.
func ModeOf(in surface.InputContext) Mode {
	switch {
	case in.IsCodeLike && isPythonSolution(in.BeforeCaret()):
		return PythonSolution
	case in.IsCodeLike:
		return Code
	case in.IsSearchField:
		return Search
	default:
		return Prose
	}
}

func isPythonSolution(text string) bool {
	return strings.Contains(text, "class Solution:") || strings.Contains(text, "def ")
}

// Completion returns the prompt for a raw completions endpoint.
func Completion(in surface.InputContext) string {
	text := in.BeforeCaret()
	switch ModeOf(in) {
	case PythonSolution:
		return "Complete this Python solution. Return the most optimal solution and keep the indentation consistent:\n" + text
	case Code:
		return "Complete this code. Maintain proper indentation:\n" + text
	case Search:
		hint := ""
		if in.Placeholder != "" {
			hint = fmt.Sprintf(" (%s)", in.Placeholder)
		}
		return fmt.Sprintf("Complete this search query%s:\n%s", hint, text)
	default:
		return "Complete this text naturally:\n" + text
	}
}

// Instruction returns the prompt for an instruction-following model that
// must answer with the continuation only.
func Instruction(in surface.InputContext) string {
	return "You are an English language autocomplete system. Complete this text naturally " +
		"with 7-9 words or 1-2 sentences wherever necessary but in English only. " +
		"Respond with ONLY the completion:\n" +
		fmt.Sprintf("TEXT: %q\nCONTINUATION:", in.BeforeCaret())
}

// StopSequences returns where generation should stop for in.
func StopSequences(in surface.InputContext) []string {
	switch ModeOf(in) {
	case Code, PythonSolution:
		return []string{"\n\n", "class ", "def ", "# ", "'''"}
	case Search:
		return []string{"\n"}
	default:
		return []string{".", "!", "?", "\n"}
	}
}

// Clean turns a raw model answer into a continuation of before: it trims
// whitespace and surrounding quotes and removes an echoed copy of the input.
// A leading space is kept when the answer starts a new word after before.
// With asciiOnly, non-ASCII runes are dropped.
func Clean(raw, before string, asciiOnly bool) string {
	lead := startsWithSpace(raw)
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimPrefix(s, `'`)
	s = strings.TrimSuffix(s, `"`)
	s = strings.TrimSuffix(s, `'`)
	if t := strings.TrimSpace(before); t != "" && strings.HasPrefix(s, t) {
		s = strings.TrimPrefix(s, t)
		lead = startsWithSpace(s)
	}
	if asciiOnly {
		s = strings.Map(func(r rune) rune {
			if r > unicode.MaxASCII {
				return -1
			}
			return r
		}, s)
	}
	s = strings.TrimSpace(s)
	if s != "" && lead && before != "" && !endsWithSpace(before) {
		s = " " + s
	}
	return s
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return s != "" && unicode.IsSpace(r)
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return s != "" && unicode.IsSpace(r)
}
