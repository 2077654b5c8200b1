// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mtypes

// ChooserPositionMode enumerates the 11 positioning strategies of spec §6:
// {Enclosed, CustomLockTop, CustomLockBottom, CustomNoLock} x
// {ArrowUp, ArrowDown, NoArrow}, minus the combinations that don't apply
// (Enclosed has no separate top/bottom lock variant — "Enclosed*" always
// locks the single-line viewport to whichever edge the arrow points away
// from).
type ChooserPositionMode int

const (
	EnclosedArrowUp ChooserPositionMode = iota
	EnclosedArrowDown
	EnclosedNoArrow
	CustomLockTopArrowUp
	CustomLockTopArrowDown
	CustomLockTopNoArrow
	CustomLockBottomArrowUp
	CustomLockBottomArrowDown
	CustomLockBottomNoArrow
	CustomNoLockArrowUp
	CustomNoLockArrowDown
	CustomNoLockNoArrow
)

// Locks reports whether this mode locks the editor's single-line viewport
// to the chooser's edge.
func (m ChooserPositionMode) Locks() bool {
	switch m {
	case CustomNoLockArrowUp, CustomNoLockArrowDown, CustomNoLockNoArrow:
		return false
	default:
		return true
	}
}

// Chooser is the minimal protocol the floating candidate list must honor
// (spec §4.E). Following the capability-record redesign of spec §9, a
// Chooser declares which of the two data-access shapes it implements by
// leaving the other's fields nil; [Chooser.Valid] checks which fields are
// non-nil rather than doing any runtime type assertion. A Chooser
// advertising neither shape is refused by the controller, which logs
// [UnsupportedChooserProtocol] and runs without a chooser (spec §7,
// error kind 5).
type Chooser struct {
	// ReloadData asks the chooser to re-read its model and redraw.
	ReloadData func()
	// BecomeVisible shows the chooser.
	BecomeVisible func()
	// ResetScrollPositionAndHide scrolls to top and hides the chooser;
	// called on cancel/commit.
	ResetScrollPositionAndHide func()
	// SetInsertionPointMarker optionally draws a caret marker at the given
	// x-position within the chooser (used by some enclosed layouts); nil
	// if the chooser doesn't support it.
	SetInsertionPointMarker func(x float64)

	// --- simple custom-delegate protocol (spec §4.E) ---

	// NumberOfModelObjects returns the row count. Non-nil iff this chooser
	// uses the simple protocol.
	NumberOfModelObjects func() int
	// ModelObjectForIndex returns the Entity backing row i.
	ModelObjectForIndex func(i int) Entity
	// ModelObjectSelectedAtIndex is called when the user picks row i.
	ModelObjectSelectedAtIndex func(i int)
	// ShouldDisplayLoadingIndicator reports whether a trailing "loading"
	// row should be shown (used while AwaitingMoreResults).
	ShouldDisplayLoadingIndicator func() bool

	// --- table-style delegate/data-source protocol ---

	// TableNumberOfRows and TableRowAt mirror a host's existing table
	// delegate/data-source pair, for chooser implementations built on a
	// pre-existing list widget rather than this module's simple protocol.
	TableNumberOfRows func() int
	TableRowAt        func(i int) Entity
	TableRowSelected  func(i int)
}

// SupportsSimpleProtocol reports whether c declares the simple
// custom-delegate shape.
func (c *Chooser) SupportsSimpleProtocol() bool {
	return c != nil && c.NumberOfModelObjects != nil && c.ModelObjectForIndex != nil && c.ModelObjectSelectedAtIndex != nil
}

// SupportsTableProtocol reports whether c declares the table-delegate
// shape.
func (c *Chooser) SupportsTableProtocol() bool {
	return c != nil && c.TableNumberOfRows != nil && c.TableRowAt != nil && c.TableRowSelected != nil
}

// Valid reports whether c advertises at least one of the two protocols.
func (c *Chooser) Valid() bool {
	return c.SupportsSimpleProtocol() || c.SupportsTableProtocol()
}

// RowCount returns the chooser's current row count, using whichever
// protocol it advertises.
func (c *Chooser) RowCount() int {
	if c.SupportsSimpleProtocol() {
		return c.NumberOfModelObjects()
	}
	if c.SupportsTableProtocol() {
		return c.TableNumberOfRows()
	}
	return 0
}

// RowAt returns the Entity for row i, using whichever protocol c
// advertises.
func (c *Chooser) RowAt(i int) Entity {
	if c.SupportsSimpleProtocol() {
		return c.ModelObjectForIndex(i)
	}
	return c.TableRowAt(i)
}

// Select notifies the chooser that row i was picked, using whichever
// protocol c advertises.
func (c *Chooser) Select(i int) {
	if c.SupportsSimpleProtocol() {
		c.ModelObjectSelectedAtIndex(i)
		return
	}
	c.TableRowSelected(i)
}
