// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mbuf is a reference, in-memory implementation of
// [mtypes.Buffer] over a rune slice with attribute runs. Host
// integrations that already have an attributed-string text view should
// implement [mtypes.Buffer] directly over it instead of using this
// package; mbuf exists so every operation the controller needs from a
// buffer has at least one concrete, testable implementation (see
// SPEC_FULL.md's package-layout section), grounded on core/textfield.go's
// rune-slice text storage generalized to carry attribute runs (see
// DESIGN.md).
package mbuf

import (
	"cogentcore.org/mentions/mtypes"
)

type attrRun struct {
	name  mtypes.AttributeName
	value any
	rng   mtypes.Range
}

// Buffer is a minimal attributed rune buffer satisfying [mtypes.Buffer].
type Buffer struct {
	runes []rune
	attrs []attrRun
	sel   mtypes.Range

	shouldChange        func(r mtypes.Range, replacement string) bool
	didChange           func()
	didChangeSelection  func()
	didReplaceWholeText func()
}

// New returns a Buffer seeded with text.
func New(text string) *Buffer {
	return &Buffer{runes: []rune(text)}
}

func (b *Buffer) Text() string    { return string(b.runes) }
func (b *Buffer) TextLength() int { return len(b.runes) }

func (b *Buffer) Selection() mtypes.Range     { return b.sel }
func (b *Buffer) SetSelection(r mtypes.Range) {
	b.sel = r
	if b.didChangeSelection != nil {
		b.didChangeSelection()
	}
}

// Replace implements [mtypes.Buffer.Replace]. Any existing attribute run
// that overlaps the edited range (including an insertion point strictly
// inside the run) is dropped rather than clipped: per spec §5, the
// mention-attribute run index is derived data, and an edit that
// overlaps a run without the controller having
// bleached it first (lifecycle's responsibility) has already broken
// invariant I1 for that run, so there is nothing consistent left to keep.
func (b *Buffer) Replace(r mtypes.Range, newText string, attrs map[mtypes.AttributeName]any) {
	if b.shouldChange != nil && !b.shouldChange(r, newText) {
		return
	}
	newRunes := []rune(newText)
	delta := len(newRunes) - r.Length

	out := make([]rune, 0, len(b.runes)+delta)
	out = append(out, b.runes[:r.Start]...)
	out = append(out, newRunes...)
	out = append(out, b.runes[r.End():]...)
	b.runes = out

	kept := b.attrs[:0]
	for _, a := range b.attrs {
		switch {
		case a.rng.End() <= r.Start:
			kept = append(kept, a)
		case a.rng.Start >= r.End():
			a.rng.Start += delta
			kept = append(kept, a)
		default:
			// overlaps the edit: dropped, see doc comment above.
		}
	}
	b.attrs = kept

	for name, val := range attrs {
		b.attrs = append(b.attrs, attrRun{name: name, value: val, rng: mtypes.Range{Start: r.Start, Length: len(newRunes)}})
	}

	oldSel := b.sel
	b.adjustSelectionForEdit(r, delta)

	if b.didChange != nil {
		b.didChange()
	}
	if b.sel != oldSel && b.didChangeSelection != nil {
		b.didChangeSelection()
	}
}

func (b *Buffer) adjustSelectionForEdit(r mtypes.Range, delta int) {
	s := b.sel.Start
	switch {
	case s >= r.End():
		b.sel.Start = s + delta
	case s > r.Start:
		b.sel.Start = r.Start + r.Length + delta
	}
	if b.sel.Start < 0 {
		b.sel.Start = 0
	}
	n := len(b.runes)
	if b.sel.Start > n {
		b.sel.Start = n
	}
	if b.sel.Start+b.sel.Length > n {
		b.sel.Length = n - b.sel.Start
	}
}

func (b *Buffer) AttributeAt(index int, name mtypes.AttributeName) (mtypes.AttributeValue, bool) {
	for _, a := range b.attrs {
		if a.name == name && a.rng.Contains(index) {
			return mtypes.AttributeValue{Value: a.value, RunRange: a.rng}, true
		}
	}
	return mtypes.AttributeValue{}, false
}

func (b *Buffer) SetAttribute(name mtypes.AttributeName, value any, r mtypes.Range) {
	b.RemoveAttribute(name, r)
	b.attrs = append(b.attrs, attrRun{name: name, value: value, rng: r})
}

func (b *Buffer) RemoveAttribute(name mtypes.AttributeName, r mtypes.Range) {
	kept := b.attrs[:0]
	for _, a := range b.attrs {
		if a.name == name && a.rng.Overlaps(r) {
			continue
		}
		kept = append(kept, a)
	}
	b.attrs = kept
}

func (b *Buffer) OnShouldChange(fn func(r mtypes.Range, replacement string) bool) { b.shouldChange = fn }
func (b *Buffer) OnDidChange(fn func())                                          { b.didChange = fn }
func (b *Buffer) OnDidChangeSelection(fn func())                                 { b.didChangeSelection = fn }
func (b *Buffer) OnDidReplaceWholeText(fn func())                                { b.didReplaceWholeText = fn }

// ReplaceWholeText swaps the entire buffer contents programmatically
// (e.g. loading a new document) and fires the DidReplaceWholeText hook
// instead of the normal ShouldChange/DidChange cycle, per spec §4.B.
func (b *Buffer) ReplaceWholeText(text string) {
	b.runes = []rune(text)
	b.attrs = nil
	b.sel = mtypes.Range{}
	if b.didReplaceWholeText != nil {
		b.didReplaceWholeText()
	}
}
