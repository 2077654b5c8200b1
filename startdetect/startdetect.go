// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package startdetect implements the Start Detection state machine (spec
// §4.C, Component C): it watches character insertion, deletion and caret
// moves and decides when a mention query should begin.
//
// Grounded on
// _examples/original_source/Hakawai/Mentions/_HKWMentionsStartDetectionStateMachine.h
// for the method surface and on core/textfield.go's big, flat
// event-classification switch for the idiom of small mutator methods
// driven by a dispatch point (see DESIGN.md). Unlike the Objective-C
// original, this state machine's events carry an explicit buffer
// location rather than relying on the host to track a separate running
// cursor counter — a deliberate simplification available because this is
// a from-scratch Go API, not a port of the original method signatures.
package startdetect

import (
	"cogentcore.org/mentions/mconfig"
)

// State is the Start Detection SM's state (spec §3).
type State int

const (
	Quiescent State = iota
	CreatingMention
)

func (s State) String() string {
	if s == CreatingMention {
		return "CreatingMention"
	}
	return "Quiescent"
}

// BeginFunc is called when the machine decides a mention should begin
// (spec §4.C's beginMentionsCreation). usingControl is true iff the
// mention was started by a control character, in which case controlChar
// holds it.
type BeginFunc func(prefix string, location int, usingControl bool, controlChar rune)

// Primed describes a pending resume opportunity found by
// [StateMachine.ResetStateUsingString]: a control-char-plus-query tail
// at the end of the examined string, which the caller may turn into an
// actual resume by calling [StateMachine.MentionCreationResumed] (spec
// §4.C rule 5).
type Primed struct {
	Prefix       string
	ControlChar  rune
	UsingControl bool
	Location     int
}

// StateMachine is the Start Detection state machine.
type StateMachine struct {
	cfg   *mconfig.Config
	begin BeginFunc
	state State

	runActive   bool
	runStart    int
	runChars    []rune

	primed   *Primed
}

// New returns a new StateMachine. cfg and begin must be non-nil.
func New(cfg *mconfig.Config, begin BeginFunc) *StateMachine {
	return &StateMachine{cfg: cfg, begin: begin}
}

// State returns the machine's current state.
func (sm *StateMachine) State() State { return sm.state }

// PrimedResume returns the pending resume opportunity set by the most recent
// call to [StateMachine.ResetStateUsingString], if any.
func (sm *StateMachine) PrimedResume() (Primed, bool) {
	if sm.primed == nil {
		return Primed{}, false
	}
	return *sm.primed, true
}

func (sm *StateMachine) isWordChar(r rune) bool {
	if sm.cfg.IsWordChar != nil {
		return sm.cfg.IsWordChar(r)
	}
	return mconfig.DefaultIsWordChar(r)
}

// isSeparator reports whether r is a word-separator: whitespace, newline,
// or any rune the host's classifier doesn't consider a word character
// (spec §4.C rule 1: "whitespace, newline, start-of-buffer, or any
// non-word classification the host defines").
func (sm *StateMachine) isSeparator(r rune) bool {
	return !sm.isWordChar(r)
}

func (sm *StateMachine) resetRun() {
	sm.runActive = false
	sm.runStart = 0
	sm.runChars = sm.runChars[:0]
}

// ValidStringInserted directly starts mention creation with the given
// already-determined prefix (spec's validStringInserted input): used when
// the caller (typically the controller, after scanning a paste per
// SPEC_FULL.md §5.2, or replaying a resumed state) has already decided a
// mention should begin. A no-op if the machine isn't Quiescent.
func (sm *StateMachine) ValidStringInserted(s string, location int, usingControl bool, controlChar rune) {
	if sm.state != Quiescent {
		return
	}
	sm.resetRun()
	sm.primed = nil
	sm.state = CreatingMention
	sm.begin(s, location, usingControl, controlChar)
}

// CharacterTyped handles a single character insertion (spec §4.C rules
// 1-3). location is the buffer index the character now occupies;
// hasPrevious/previousChar describe the character immediately before it,
// or hasPrevious=false at buffer start. nextWord is any run of word
// characters immediately following the caret already present in the
// buffer (e.g. when inserting in the middle of an existing word); a
// non-empty nextWord suppresses a new implicit run, since the user is
// editing inside an existing word rather than composing a new prefix.
func (sm *StateMachine) CharacterTyped(c rune, location int, previousChar rune, hasPrevious bool, nextWord string) {
	if sm.state != Quiescent {
		return
	}

	if sm.cfg.IsControlChar(c) {
		boundary := !hasPrevious || sm.isSeparator(previousChar)
		sm.resetRun()
		if !boundary {
			return // rule 3: control char typed inside a word does not start a mention
		}
		sm.state = CreatingMention
		sm.begin("", location, true, c)
		return
	}

	if sm.isWordChar(c) {
		if nextWord != "" {
			sm.resetRun()
			return
		}
		if !sm.runActive {
			boundary := !hasPrevious || sm.isSeparator(previousChar)
			if !boundary {
				return
			}
			sm.runActive = true
			sm.runStart = location
			sm.runChars = sm.runChars[:0]
		}
		sm.runChars = append(sm.runChars, c)
		if sm.cfg.ImplicitMentionsEnabled && sm.cfg.ImplicitSearchLength > 0 && len(sm.runChars) == sm.cfg.ImplicitSearchLength {
			prefix := string(sm.runChars)
			start := sm.runStart
			sm.resetRun()
			sm.state = CreatingMention
			sm.begin(prefix, start, false, 0)
		}
		return
	}

	// whitespace/newline/other non-word character: breaks any run in progress.
	sm.resetRun()
}

// DeleteTypedCharacter handles a single character deletion (spec §4.C).
// location is the index the deletion occurred at (post-delete caret
// position); bufferText is the buffer's full text after the deletion.
// Implements the "resume" edge case: backspacing a word back down to
// exactly ImplicitSearchLength characters re-fires an implicit start.
func (sm *StateMachine) DeleteTypedCharacter(deletedChar rune, precedingChar rune, hasPreceding bool, location int, bufferText string) {
	sm.primed = nil
	if sm.state != Quiescent {
		return
	}
	sm.resetRun()
	if !sm.cfg.ImplicitMentionsEnabled || sm.cfg.ImplicitSearchLength <= 0 {
		return
	}
	run, start, ok := trailingWordRun(bufferText, location, sm.cfg.ImplicitSearchLength, sm.isWordChar, sm.isSeparator)
	if !ok {
		return
	}
	sm.state = CreatingMention
	sm.begin(run, start, false, 0)
}

// CursorMoved handles a caret move not accompanied by an editing event
// (spec §4.C rule 4). While Quiescent it resets any partial implicit run
// and, if [mconfig.Config.ResumeMentionsCreationEnabled] is set, checks
// whether the new position lands just past a complete
// ImplicitSearchLength-character word run and re-fires (SPEC_FULL.md §5.3
// "resume on caret re-entry"). While CreatingMention it is a no-op: the
// creation superstate (not start detection) decides whether an
// out-of-range cursor move cancels the attempt.
func (sm *StateMachine) CursorMoved(location int, bufferText string) {
	sm.primed = nil
	if sm.state != Quiescent {
		return
	}
	sm.resetRun()
	if !sm.cfg.ResumeMentionsCreationEnabled || !sm.cfg.ImplicitMentionsEnabled || sm.cfg.ImplicitSearchLength <= 0 {
		return
	}
	run, start, ok := trailingWordRun(bufferText, location, sm.cfg.ImplicitSearchLength, sm.isWordChar, sm.isSeparator)
	if !ok {
		return
	}
	sm.state = CreatingMention
	sm.begin(run, start, false, 0)
}

// MentionCreationEnded returns the machine to Quiescent. Per spec §4.C
// edge case, it does not rescan the current caret position even if
// canImmediatelyRestart is true: a new CharacterTyped or CursorMoved event
// is required to re-trigger detection.
func (sm *StateMachine) MentionCreationEnded(canImmediatelyRestart bool) {
	sm.state = Quiescent
	sm.resetRun()
	sm.primed = nil
	_ = canImmediatelyRestart
}

// MentionCreationResumed forces the machine into CreatingMention. Calling
// it without an actual active creation attempt leaves the machine
// suppressing detection with nothing driving it, per the original
// warning this is ported from.
func (sm *StateMachine) MentionCreationResumed() {
	sm.state = CreatingMention
	sm.resetRun()
	sm.primed = nil
}

// ResetStateUsingString examines s — the new trailing buffer context up
// to the caret, supplied by the controller after a programmatic buffer
// change — and either leaves the machine Quiescent or primes it with a
// pending resume opportunity if a control-char-plus-query tail is present
// (spec §4.C rule 5).
func (sm *StateMachine) ResetStateUsingString(s string) {
	sm.state = Quiescent
	sm.resetRun()
	sm.primed = nil

	runes := []rune(s)
	// scan backward for a control char such that every rune after it to
	// the end is a word character, and the control char itself sits at a
	// boundary.
	tailEnd := len(runes)
	for i := tailEnd - 1; i >= 0; i-- {
		r := runes[i]
		if sm.cfg.IsControlChar(r) {
			boundary := i == 0 || sm.isSeparator(runes[i-1])
			if boundary {
				sm.primed = &Primed{
					Prefix:       string(runes[i+1:]),
					ControlChar:  r,
					UsingControl: true,
					Location:     i,
				}
			}
			return
		}
		if !sm.isWordChar(r) {
			return
		}
	}
}

// WordAfterLocation returns the run of word characters in text starting
// at location and continuing until a separator or end of text, per the
// original's +wordAfterLocation:text:.
func WordAfterLocation(text string, location int, isWordChar func(rune) bool) string {
	runes := []rune(text)
	if location < 0 || location >= len(runes) {
		return ""
	}
	end := location
	for end < len(runes) && isWordChar(runes[end]) {
		end++
	}
	return string(runes[location:end])
}

// ScanPasteForControlChar scans a pasted string for the first control
// character eligible to start an explicit mention under rule 1 (a control
// char preceded, within the paste or by precedingChar, by a word
// separator or start-of-buffer), per SPEC_FULL.md §5.2's paste
// interception. offset is the rune offset within s; the caller adds it to
// the paste's insertion location to get an absolute buffer location.
func ScanPasteForControlChar(s string, precedingChar rune, hasPreceding bool, cfg *mconfig.Config) (offset int, controlChar rune, ok bool) {
	runes := []rune(s)
	isWordChar := cfg.IsWordChar
	if isWordChar == nil {
		isWordChar = mconfig.DefaultIsWordChar
	}
	for i, r := range runes {
		if !cfg.IsControlChar(r) {
			continue
		}
		var boundary bool
		if i == 0 {
			boundary = !hasPreceding || !isWordChar(precedingChar)
		} else {
			boundary = !isWordChar(runes[i-1])
		}
		if boundary {
			return i, r, true
		}
	}
	return 0, 0, false
}

// trailingWordRun scans bufferText backward from location for a run of
// exactly n word characters immediately preceded by a separator or
// start-of-buffer, returning the run and its start location.
func trailingWordRun(bufferText string, location, n int, isWordChar func(rune) bool, isSeparator func(rune) bool) (string, int, bool) {
	runes := []rune(bufferText)
	if location < 0 || location > len(runes) {
		return "", 0, false
	}
	i := location
	count := 0
	for i > 0 && isWordChar(runes[i-1]) {
		i--
		count++
		if count > n {
			return "", 0, false
		}
	}
	if count != n {
		return "", 0, false
	}
	if i > 0 && !isSeparator(runes[i-1]) {
		return "", 0, false
	}
	return string(runes[i:location]), i, true
}
