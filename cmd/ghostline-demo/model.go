package main

import (
	"strconv"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/net/html"

	"github.com/iw2rmb/ghostline/coordinator"
	"github.com/iw2rmb/ghostline/dom"
)

// lateEditor is mounted on demand to show discovery of editors that appear
// after load.
const lateEditor = `<div data-field data-label="Late editor (mounted after load)" data-rows="2" id="late" class="ProseMirror">Thanks for </div>`

type keyMap struct {
	Suggest coordinator.KeyMap
	Next    key.Binding
	Prev    key.Binding
	Mount   key.Binding
	Copy    key.Binding
	Quit    key.Binding
}

func defaultKeyMap(suggest coordinator.KeyMap) keyMap {
	return keyMap{
		Suggest: suggest,
		Next:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "next field")),
		Prev:    key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "prev field")),
		Mount:   key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "mount editor")),
		Copy:    key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy accepted")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Suggest.Accept, k.Suggest.Dismiss, k.Next, k.Prev, k.Mount, k.Copy, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type model struct {
	doc    *dom.Document
	coord  *coordinator.Coordinator
	layout *layout
	keys   keyMap
	help   help.Model
	styles styles

	// copy writes to the system clipboard.
	copy   func(string) error
	status string
	width  int
	height int
}

func newModel(doc *dom.Document, coord *coordinator.Coordinator, lay *layout) model {
	m := model{
		doc:    doc,
		coord:  coord,
		layout: lay,
		keys:   defaultKeyMap(coord.KeyMap()),
		help:   help.New(),
		styles: defaultStyles(),
		copy:   clipboard.WriteAll,
	}
	if len(lay.fields) > 0 {
		doc.Focus(lay.fields[0].el)
	}
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.coord.Init(), m.drain())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.layout.reflow(msg.Width)
		m.doc.Resize(msg.Width, msg.Height)
		return m, m.drain()

	case tea.KeyMsg:
		var cmd tea.Cmd
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.coord.Close()
			cmd = tea.Quit
		case key.Matches(msg, m.keys.Next):
			cmd = m.cycleFocus(1)
		case key.Matches(msg, m.keys.Prev):
			cmd = m.cycleFocus(-1)
		case key.Matches(msg, m.keys.Mount):
			cmd = m.mountLateEditor()
		case key.Matches(msg, m.keys.Copy):
			m.copyAccepted()
		default:
			cmd = m.dispatchKey(msg)
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.coord, cmd = m.coord.Update(msg)
	if _, ok := msg.(coordinator.ProbedMsg); ok {
		m.status = "providers probed"
	}
	m.layout.reflow(m.width)
	return m, cmd
}

// dispatchKey runs a key through the page: the coordinator listens first
// and may prevent the default action.
func (m *model) dispatchKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Paste {
		m.doc.TypeText(string(msg.Runes))
		m.layout.reflow(m.width)
		return m.drain()
	}

	ev := m.doc.NewKeyEvent(keyName(msg))
	_, cmd := m.coord.Update(ev)
	if !ev.DefaultPrevented() {
		if ev.Target != nil && ev.Target.Matches(canvasSelector) {
			m.canvasKey(ev)
		} else {
			m.doc.DefaultKeyAction(ev)
		}
	}
	m.layout.reflow(m.width)
	return tea.Batch(cmd, m.drain())
}

// canvasKey plays the canvas editor: it edits its rendered line directly
// and queues no input event, so the coordinator has to poll for changes.
func (m *model) canvasKey(ev *dom.KeyEvent) {
	cursor := m.doc.Query(cursorSelector)
	if cursor == nil {
		return
	}
	switch ev.Key {
	case "backspace":
		for n := cursor.Node().PrevSibling; n != nil; n = n.PrevSibling {
			if n.Type != html.TextNode || n.Data == "" {
				continue
			}
			_, size := utf8.DecodeLastRuneInString(n.Data)
			n.Data = n.Data[:len(n.Data)-size]
			return
		}
	default:
		if utf8.RuneCountInString(ev.Key) == 1 {
			m.doc.InsertTextBefore(cursor, ev.Key)
		}
	}
}

func (m *model) cycleFocus(delta int) tea.Cmd {
	n := len(m.layout.fields)
	if n == 0 {
		return nil
	}
	i := 0
	for j, f := range m.layout.fields {
		if f.el == m.doc.Focused() {
			i = (j + delta + n) % n
			break
		}
	}
	m.doc.Focus(m.layout.fields[i].el)
	m.layout.reflow(m.width)
	return m.drain()
}

func (m *model) mountLateEditor() tea.Cmd {
	if m.doc.ByID("late") != nil {
		m.status = "editor already mounted"
		return nil
	}
	if _, err := m.doc.AppendHTML(m.doc.Body(), lateEditor); err != nil {
		m.status = "mount failed: " + err.Error()
		return nil
	}
	m.status = "late editor mounted"
	m.layout.reflow(m.width)
	return m.drain()
}

func (m *model) copyAccepted() {
	sg := m.coord.LastAccepted()
	if sg == nil {
		m.status = "nothing accepted yet"
		return
	}
	if err := m.copy(sg.Text); err != nil {
		m.status = "clipboard: " + err.Error()
		return
	}
	m.status = "copied " + strconv.Quote(sg.Text)
}

// drain hands queued document events to the coordinator.
func (m *model) drain() tea.Cmd {
	return m.coord.Dispatch(m.doc.Events()...)
}

// keyName maps bubbletea key names onto the names the document uses.
func keyName(msg tea.KeyMsg) string {
	if msg.Type == tea.KeySpace {
		return " "
	}
	return msg.String()
}
