// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lifecycle implements the per-adjacency Mention Lifecycle state
// machine (spec §4.F, Component F): once a mention is committed, this is
// what makes backspacing into it select-then-trim-or-delete instead of
// eating one character at a time, and what makes editing inside it (or
// typing over it once selected) bleach the attribute first.
//
// Grounded on core/textfield.go's cursor/selection bookkeeping around
// backspace and delete (see DESIGN.md) generalized from "select a
// character" to "select an atomic run."
package lifecycle

import (
	"strings"

	"cogentcore.org/mentions/mconfig"
	"cogentcore.org/mentions/mevents"
	"cogentcore.org/mentions/mtypes"
)

// State is the per-adjacency lifecycle state (spec §3, §4.F).
type State int

const (
	Quiescent State = iota
	AboutToSelect
	Selected
	LosingFocus
)

func (s State) String() string {
	switch s {
	case Quiescent:
		return "Quiescent"
	case AboutToSelect:
		return "AboutToSelect"
	case Selected:
		return "Selected"
	case LosingFocus:
		return "LosingFocus"
	default:
		return "State(?)"
	}
}

// Action is the decision a lifecycle event produces for the controller to
// apply to the buffer; the zero value is NoOp.
type Action struct {
	Kind        ActionKind
	Range       mtypes.Range // the run affected
	DisplayText string       // new display text, for Trim
	Mention     mtypes.Mention // the mention the run held, for Trim/Delete/Bleach
}

// ActionKind enumerates what the controller must now do to the buffer.
type ActionKind int

const (
	// NoOp: state changed (or didn't) but no buffer mutation is needed.
	NoOp ActionKind = iota
	// SelectRun: set the buffer selection to Range, the whole mention run.
	SelectRun
	// Trim: replace the run's display text with DisplayText, keeping the
	// attribute.
	Trim
	// Delete: remove the attribute and the run's text entirely.
	Delete
	// Bleach: remove the attribute from Range, leaving the text as plain
	// characters so a subsequent edit applies normally.
	Bleach
)

// StateMachine is the Mention Lifecycle state machine for the single
// adjacency the caret currently occupies; the root controller resets it
// whenever the caret moves to track a different mention (or none).
type StateMachine struct {
	cfg       *mconfig.Config
	delegate  *mtypes.Delegate
	listeners *mevents.Listeners

	state   State
	mention mtypes.Mention
}

// New returns a StateMachine. cfg, delegate and listeners must be
// non-nil.
func New(cfg *mconfig.Config, delegate *mtypes.Delegate, listeners *mevents.Listeners) *StateMachine {
	return &StateMachine{cfg: cfg, delegate: delegate, listeners: listeners}
}

func (sm *StateMachine) fireTrimmed(entityID string, location int) {
	if sm.cfg.NotifyTextViewDelegateOnMentionTrim {
		sm.listeners.Call(mevents.NewTrimmedMention(entityID, location))
	}
}

func (sm *StateMachine) fireDeleted(entityID string, location int) {
	if sm.cfg.NotifyTextViewDelegateOnMentionDeletion {
		sm.listeners.Call(mevents.NewDeletedMention(entityID, location))
	}
}

// State returns the current state.
func (sm *StateMachine) State() State { return sm.state }

// Reset returns the machine to Quiescent, e.g. because the caret moved
// away from the tracked mention without an editing event (spec §4.F
// "caret moves elsewhere without an editing event ⇒ back to Quiescent").
func (sm *StateMachine) Reset() {
	sm.state = Quiescent
	sm.mention = mtypes.Mention{}
}

// Backspace handles a single backspace keypress. adjacent is the mention
// whose run ends exactly at the caret, or nil if none. It implements the
// arm/select/act chain of spec §4.F: the first backspace at a mention's
// trailing edge only arms AboutToSelect; the second selects the whole
// run; only a third (handled by the Selected branch, after the caller
// has applied SelectRun) trims or deletes.
func (sm *StateMachine) Backspace(adjacent *mtypes.Mention) Action {
	switch sm.state {
	case Quiescent:
		if adjacent == nil {
			return Action{}
		}
		sm.state = AboutToSelect
		sm.mention = *adjacent
		return Action{}
	case AboutToSelect:
		sm.state = Selected
		return Action{Kind: SelectRun, Range: sm.mention.Range}
	case Selected:
		return sm.actOnSelected()
	default:
		return Action{}
	}
}

// Delete handles a forward-delete keypress while Selected; spec §4.F
// treats backspace and delete identically once a run is Selected.
func (sm *StateMachine) Delete() Action {
	if sm.state != Selected {
		return Action{}
	}
	return sm.actOnSelected()
}

func (sm *StateMachine) actOnSelected() Action {
	m := sm.mention
	sm.Reset()
	if trimmed, ok := sm.computeTrim(m); ok {
		sm.fireTrimmed(m.EntityID, m.Range.Start)
		return Action{Kind: Trim, Range: m.Range, DisplayText: trimmed, Mention: m}
	}
	sm.fireDeleted(m.EntityID, m.Range.Start)
	return Action{Kind: Delete, Range: m.Range, Mention: m}
}

// TypedWhileSelected handles a printable character typed while Selected:
// spec §4.F calls for bleaching the run (stripping the attribute) so the
// input applies as an ordinary replacement afterward.
func (sm *StateMachine) TypedWhileSelected() Action {
	if sm.state != Selected {
		return Action{}
	}
	m := sm.mention
	sm.Reset()
	sm.fireDeleted(m.EntityID, m.Range.Start)
	return Action{Kind: Bleach, Range: m.Range, Mention: m}
}

// BleachForInternalEdit handles an edit landing inside a mention run
// (e.g. a paste into the middle) rather than at a tracked adjacency: spec
// §4.F requires bleaching the whole run first regardless of this
// machine's current adjacency state.
func (sm *StateMachine) BleachForInternalEdit(m mtypes.Mention) Action {
	if sm.mention.Dedup() == m.Dedup() {
		sm.Reset()
	}
	sm.fireDeleted(m.EntityID, m.Range.Start)
	return Action{Kind: Bleach, Range: m.Range, Mention: m}
}

// computeTrim applies the trim rules of spec §4.F.
func (sm *StateMachine) computeTrim(m mtypes.Mention) (string, bool) {
	if sm.delegate == nil || sm.delegate.EntityCanBeTrimmed == nil {
		return "", false // rule 1
	}
	e := mtypes.Entity{EntityID: m.EntityID, EntityName: m.DisplayText, EntityMetadata: m.Metadata, UniqueID: m.UniqueID}
	if !sm.delegate.EntityCanBeTrimmed(e) {
		return "", false
	}
	trimmed, ok := defaultOrCustomTrim(sm.delegate, e, m.DisplayText)
	if !ok {
		return "", false
	}
	if trimmed == m.DisplayText {
		return "", false // rule 3: already-trimmed falls through to deletion
	}
	return trimmed, true
}

func defaultOrCustomTrim(delegate *mtypes.Delegate, e mtypes.Entity, displayText string) (string, bool) {
	if delegate.TrimmedName != nil {
		if trimmed, ok := delegate.TrimmedName(e); ok {
			return trimmed, true
		}
	}
	if i := strings.IndexAny(displayText, " \t\n"); i > 0 {
		return displayText[:i], true // rule 2: first whitespace-delimited word
	}
	return "", false
}
