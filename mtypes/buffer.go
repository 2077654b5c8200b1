// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mtypes

// AttributeName identifies an attribute kind carried by a buffer run.
// The only attribute this module reads or writes is MentionAttributeName;
// the type exists so a host buffer that carries other attributes (font,
// color) is not forced to special-case this module's key.
type AttributeName string

// MentionAttributeName is the attribute key under which a committed
// Mention's highlight state is stored in the buffer.
const MentionAttributeName AttributeName = "mention"

// AttributeValue is what [Buffer.AttributeAt] returns: the attribute's
// value together with the full run it spans, so callers never have to
// re-scan to find a run's bounds.
type AttributeValue struct {
	Value    any
	RunRange Range
}

// Buffer is the narrow interface the controller requires of the host
// text view's attributed-string model (spec §4.B, Component B). It is a
// single struct-shaped contract with required methods — there are no
// optional methods on this interface; "optional" capability instead
// lives in the separate [Chooser] and [Delegate] protocols, following the
// capability-record redesign spec §9 calls for.
type Buffer interface {
	// Text returns the full buffer contents.
	Text() string
	// TextLength returns len([]rune(Text())) — the count the rest of this
	// interface's positions are expressed in.
	TextLength() int

	// Selection returns the current caret/selection range. A zero-length
	// range at Start is a plain caret.
	Selection() Range
	// SetSelection moves the caret/selection.
	SetSelection(r Range)

	// Replace atomically replaces the text in r with newText, optionally
	// tagging the inserted text with attrs (nil for no attributes). It is
	// the only entry point that changes the text. It calls the
	// ShouldChange hook once; if that refuses the edit, nothing changes
	// and no other hook fires; otherwise DidChange fires once, followed by
	// DidChangeSelection if the edit moved the selection (spec §4.B/§5).
	Replace(r Range, newText string, attrs map[AttributeName]any)

	// AttributeAt returns the named attribute's value and enclosing run at
	// index, or ok=false if index carries no such attribute.
	AttributeAt(index int, name AttributeName) (av AttributeValue, ok bool)
	// SetAttribute tags r with the given attribute.
	SetAttribute(name AttributeName, value any, r Range)
	// RemoveAttribute strips the named attribute from r.
	RemoveAttribute(name AttributeName, r Range)

	// OnShouldChange registers a pre-change hook: the core may return
	// false to refuse an edit (e.g. one that would land inside a mention
	// without first bleaching it). Exactly one hook is expected; a second
	// call replaces the first, mirroring a single-owner adapter.
	OnShouldChange(fn func(r Range, replacement string) bool)
	// OnDidChange registers the post-change hook, called after every
	// successful Replace.
	OnDidChange(fn func())
	// OnDidChangeSelection registers the selection-changed hook.
	OnDidChangeSelection(fn func())
	// OnDidReplaceWholeText registers the programmatic-update hook: fired
	// when the host replaces the entire buffer contents out from under the
	// controller (e.g. loading a new document), so the controller can
	// rebuild its derived indexes by rescanning attributes.
	OnDidReplaceWholeText(fn func())
}
