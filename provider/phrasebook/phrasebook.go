// Package phrasebook is an offline provider completing the text before the
// caret from a fixed table of phrases.
package phrasebook

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/iw2rmb/ghostline/surface"
)

const ID = "phrasebook"

// maxContextWords bounds how far back a phrase may start.
const maxContextWords = 8

var DefaultPhrases = []string{
	"hello world",
	"thank you for your help",
	"thanks for the quick reply",
	"looking forward to hearing from you",
	"let me know if you have any questions",
	"best regards",
	"kind regards",
	"have a nice day",
	"dear team, please find the report attached",
	"the quick brown fox jumps over the lazy dog",
	"how to center a div",
	"how to write a unit test in go",
	"weather tomorrow",
	"func main() {",
	"if err != nil {",
	"return nil, err",
}

// Provider answers from a phrase table. The zero delay answers at once.
type Provider struct {
	phrases []string
	delay   time.Duration
}

type Option func(*Provider)

// WithPhrases replaces the phrase table.
func WithPhrases(phrases ...string) Option {
	return func(p *Provider) { p.phrases = phrases }
}

// WithDelay simulates model latency.
func WithDelay(d time.Duration) Option {
	return func(p *Provider) { p.delay = d }
}

func New(opts ...Option) *Provider {
	p := &Provider{phrases: DefaultPhrases}
	for _, opt := range opts {
		opt(p)
	}
	// longest first so a specific phrase beats a generic one
	p.phrases = append([]string(nil), p.phrases...)
	sort.SliceStable(p.phrases, func(i, j int) bool { return len(p.phrases[i]) > len(p.phrases[j]) })
	return p
}

func (p *Provider) ID() string { return ID }

func (p *Provider) Suggest(ctx context.Context, in surface.InputContext) (string, error) {
	if p.delay > 0 {
		t := time.NewTimer(p.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}
	return p.Complete(in.BeforeCaret()), nil
}

// Complete returns the rest of the first phrase that continues before.
// Matching is case-insensitive and counts runes, so the returned rest never
// splits a character of the phrase.
func (p *Provider) Complete(before string) string {
	for _, start := range wordStarts(before, maxContextWords) {
		tail := before[start:]
		if utf8.RuneCountInString(strings.TrimSpace(tail)) < 2 {
			continue
		}
		n := utf8.RuneCountInString(tail)
		for _, ph := range p.phrases {
			rs := []rune(ph)
			if len(rs) > n && strings.EqualFold(string(rs[:n]), tail) {
				return string(rs[n:])
			}
		}
	}
	return ""
}

// wordStarts returns the byte offsets where the last n words of s begin,
// earliest first.
func wordStarts(s string, n int) []int {
	var starts []int
	prevSpace := true
	for i, r := range s {
		space := unicode.IsSpace(r)
		if prevSpace && !space {
			starts = append(starts, i)
		}
		prevSpace = space
	}
	if len(starts) > n {
		starts = starts[len(starts)-n:]
	}
	return starts
}
