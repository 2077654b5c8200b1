// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package creation implements the Mention Creation state machine (spec
// §4.E, Component E): the superstate active between a Start Detection
// "begin" and the attempt's eventual commit or cancel, driving the
// [query.Pipeline] and the host's [mtypes.Chooser] together.
//
// Grounded on core/complete.go's Complete.Update/Show/Cancel cycle, which
// plays the same role (evolving prefix → async candidates → popup
// lifecycle → accept/cancel) for Cogent Core's own completion popup; see
// DESIGN.md.
package creation

import (
	"cogentcore.org/mentions/mconfig"
	"cogentcore.org/mentions/mevents"
	"cogentcore.org/mentions/mtypes"
	"cogentcore.org/mentions/query"
)

// State is the Mention Creation SM's state (spec §3, §4.E).
type State int

const (
	Idle State = iota
	PrimedBeforeResults
	ChooserShown
	AwaitingMoreResults
	Cancelled
	CommittedExternally
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case PrimedBeforeResults:
		return "PrimedBeforeResults"
	case ChooserShown:
		return "ChooserShown"
	case AwaitingMoreResults:
		return "AwaitingMoreResults"
	case Cancelled:
		return "Cancelled"
	case CommittedExternally:
		return "CommittedExternally"
	default:
		return "State(?)"
	}
}

// CommitFunc is called when the user picks a candidate, with the query as
// it stood at commit time and the chosen entity. The caller (the root
// controller) is responsible for computing the replacement range, writing
// the Mention Attribute to the buffer, and firing createdMention.
type CommitFunc func(q mtypes.Query, e mtypes.Entity)

// CancelFunc is called when the attempt ends without a commit, for any
// reason: empty results, an out-of-range cursor move, a cancelling edit,
// or an explicit Cancel call.
type CancelFunc func(q mtypes.Query)

// StateMachine is the Mention Creation state machine for one attempt at a
// time; the root controller constructs a fresh one (or resets this one)
// each time Start Detection fires begin.
type StateMachine struct {
	cfg       *mconfig.Config
	pipeline  *query.Pipeline
	chooser   *mtypes.Chooser
	listeners *mevents.Listeners
	onCommit  CommitFunc
	onCancel  CancelFunc

	state          State
	q              mtypes.Query
	baseSearchType mtypes.SearchType
	results        []mtypes.Entity
	chooserVisible bool
}

// New returns a StateMachine wired to pipeline, chooser (may be nil, in
// which case the attempt proceeds without a visible chooser — useful for
// addMention-only integrations) and listeners. onCommit and onCancel must
// be non-nil.
func New(cfg *mconfig.Config, pipeline *query.Pipeline, chooser *mtypes.Chooser, listeners *mevents.Listeners, onCommit CommitFunc, onCancel CancelFunc) *StateMachine {
	return &StateMachine{
		cfg:       cfg,
		pipeline:  pipeline,
		chooser:   chooser,
		listeners: listeners,
		onCommit:  onCommit,
		onCancel:  onCancel,
		state:     Idle,
	}
}

// State returns the current state.
func (sm *StateMachine) State() State { return sm.state }

// Query returns the attempt's query as it currently stands.
func (sm *StateMachine) Query() mtypes.Query { return sm.q }

// Results returns the candidates accumulated so far for the current
// attempt, in arrival order.
func (sm *StateMachine) Results() []mtypes.Entity { return sm.results }

func (sm *StateMachine) active() bool {
	return sm.state != Idle && sm.state != Cancelled && sm.state != CommittedExternally
}

// Begin starts a new attempt with q, issuing the query immediately. While
// an explicit attempt's KeyString is empty (at Begin, or after deletions
// bring it back to empty), each fetch is tagged [mtypes.SearchInitial]
// rather than [mtypes.SearchExplicit] so a delegate can distinguish "show
// me a default list" from "filter by this text" (SPEC_FULL.md §5.4);
// every other fetch uses the attempt's real search type.
func (sm *StateMachine) Begin(q mtypes.Query) {
	sm.q = q
	sm.baseSearchType = q.SearchType
	sm.results = nil
	sm.chooserVisible = false
	sm.state = PrimedBeforeResults
	sm.requery()
}

func (sm *StateMachine) effectiveSearchType() mtypes.SearchType {
	if sm.baseSearchType == mtypes.SearchExplicit && sm.q.KeyString == "" {
		return mtypes.SearchInitial
	}
	return sm.baseSearchType
}

func (sm *StateMachine) requery() {
	q := sm.q
	q.SearchType = sm.effectiveSearchType()
	sm.pipeline.Start(q)
}

// HandleResults processes a non-stale batch from the query pipeline.
func (sm *StateMachine) HandleResults(q mtypes.Query, results []mtypes.Entity, isComplete bool) {
	if !sm.active() {
		return
	}
	sm.results = append(sm.results, results...)
	if !isComplete {
		sm.state = AwaitingMoreResults
		if len(sm.results) == 0 && !sm.showLoadingIndicator() {
			// nothing to show yet and the chooser has no loading row to
			// render in the meantime (loadingCellSupported == false):
			// withhold the chooser rather than pop it up empty.
			return
		}
	} else if len(sm.results) > 0 {
		sm.state = ChooserShown
	}
	sm.showChooser()
}

// showLoadingIndicator reports whether the chooser wants to render a
// trailing loading row while AwaitingMoreResults has nothing yet to show.
func (sm *StateMachine) showLoadingIndicator() bool {
	return sm.chooser != nil && sm.chooser.ShouldDisplayLoadingIndicator != nil && sm.chooser.ShouldDisplayLoadingIndicator()
}

// HandleEmpty processes a final-empty or timed-out batch, applying the
// empty-result policy of spec §4.D/§6.
func (sm *StateMachine) HandleEmpty(q mtypes.Query) {
	if !sm.active() {
		return
	}
	if sm.cfg.ShouldContinueSearchingAfterEmptyResults {
		sm.results = nil
		sm.state = ChooserShown
		sm.showChooser()
		return
	}
	sm.cancel()
}

func (sm *StateMachine) showChooser() {
	if sm.chooser == nil {
		return
	}
	if !sm.chooserVisible {
		sm.chooserVisible = true
		sm.listeners.Call(mevents.NewChooserWillActivate())
		if sm.chooser.BecomeVisible != nil {
			sm.chooser.BecomeVisible()
		}
		sm.listeners.Call(mevents.NewChooserActivated())
	}
	if sm.chooser.ReloadData != nil {
		sm.chooser.ReloadData()
	}
}

// CharacterTyped appends a typed character to the evolving key string and
// re-queries, or cancels the attempt, per spec §4.E's rule for
// word/non-word characters.
func (sm *StateMachine) CharacterTyped(c rune, isWordChar, isLineTerminator bool) {
	if !sm.active() {
		return
	}
	if !isWordChar {
		if isLineTerminator || (len(sm.results) == 0 && !sm.cfg.ShouldContinueSearchingAfterEmptyResults) {
			sm.cancel()
			return
		}
	}
	sm.q.KeyString += string(c)
	sm.results = nil
	sm.state = PrimedBeforeResults
	sm.requery()
}

// SetKeyString replaces the evolving key string after a deletion that the
// controller has determined keeps the attempt alive (spec §4.E
// stringDeleted), and re-queries.
func (sm *StateMachine) SetKeyString(s string) {
	if !sm.active() {
		return
	}
	sm.q.KeyString = s
	sm.results = nil
	sm.state = PrimedBeforeResults
	sm.requery()
}

// CursorMoved cancels the attempt if withinRange is false, per spec
// §4.E's cursorMoved rule.
func (sm *StateMachine) CursorMoved(withinRange bool) {
	if !withinRange {
		sm.Cancel()
	}
}

// Cancel ends the attempt without committing, for any controller-detected
// reason (an out-of-range cursor move, a deletion that consumed the
// control character or shrank an implicit prefix below threshold, or an
// explicit host-requested cancelMentionCreation).
func (sm *StateMachine) Cancel() {
	if !sm.active() {
		return
	}
	sm.cancel()
}

func (sm *StateMachine) cancel() {
	sm.state = Cancelled
	sm.pipeline.Cancel()
	sm.hideChooser()
	sm.onCancel(sm.q)
}

// UserSelectedEntity commits the attempt with e, per spec §4.E's
// userSelectedEntity rule.
func (sm *StateMachine) UserSelectedEntity(e mtypes.Entity) {
	if !sm.active() {
		return
	}
	sm.state = CommittedExternally
	sm.pipeline.Cancel()
	sm.hideChooser()
	sm.onCommit(sm.q, e)
}

func (sm *StateMachine) hideChooser() {
	if sm.chooser == nil {
		return
	}
	if sm.chooserVisible {
		sm.chooserVisible = false
		if sm.chooser.ResetScrollPositionAndHide != nil {
			sm.chooser.ResetScrollPositionAndHide()
		}
		sm.listeners.Call(mevents.NewChooserDeactivated())
	}
}
