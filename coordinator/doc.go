// Package coordinator drives ghost-text suggestions for one document.
//
// A Coordinator is a Bubble Tea style state machine: the host forwards
// document events (focus, keys, input, structural changes, resizes) to
// Update, executes the returned commands and feeds their messages back.
// All coordinator state changes happen inside Update; provider calls run in
// commands with cancellable contexts, and a generation counter discards
// results that were overtaken by newer input.
//
// Typical host loop:
//
//	c := coordinator.New(doc, gw, coordinator.Options{})
//	cmd := c.Init()
//	...
//	ev := doc.NewKeyEvent("tab")
//	c, cmd = c.Update(ev)
//	if !ev.DefaultPrevented() {
//		doc.DefaultKeyAction(ev)
//	}
//	cmd = tea.Batch(cmd, c.Dispatch(doc.Events()...))
package coordinator
