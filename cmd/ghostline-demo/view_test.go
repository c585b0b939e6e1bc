package main

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

var plain = lipgloss.NewStyle()

func TestComposeLineCaretAtEnd(t *testing.T) {
	assert.Equal(t, "abc   ", composeLine("abc", 6, 4, 3, nil, plain))
}

func TestComposeLineGhostAfterCaret(t *testing.T) {
	g := &ghost{col: 3, width: 2, painted: "ld"}
	assert.Equal(t, "abcld ", composeLine("abc", 6, 4, 3, g, plain))
}

func TestComposeLineGhostCoversText(t *testing.T) {
	g := &ghost{col: 2, width: 2, painted: "XY"}
	assert.Equal(t, "abXYef", composeLine("abcdef", 6, 4, -1, g, plain))
}

func TestComposeLineClipsToWidth(t *testing.T) {
	got := composeLine("abcdefgh", 4, 4, -1, nil, plain)
	assert.Equal(t, "abcd", got)
}

func TestComposeLineExpandsTabs(t *testing.T) {
	assert.Equal(t, "a   b     ", composeLine("a\tb", 10, 4, -1, nil, plain))
}

func TestViewShowsFieldsAndStatus(t *testing.T) {
	m := newTestModel(t)
	v := m.View()
	for _, want := range []string{"Name", "Notes", "Dear team,", "The quick", "state: idle"} {
		assert.True(t, strings.Contains(v, want), want)
	}
}
