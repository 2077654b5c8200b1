// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mentions is the Controller façade (spec §4.G, Component G): it
// installs on a host's [mtypes.Buffer], routes its pre/post-change hooks
// to the Start Detection, Mention Creation and Mention Lifecycle state
// machines, and exposes addMention/mentions/state-change notifications to
// the host.
//
// Grounded on core/textfield.go's Lifer/HandleEvents wiring, which plays
// the same "install on a widget and dispatch its low-level events to the
// right internal state" role for Cogent Core's own text field; see
// DESIGN.md.
package mentions

import (
	"unicode/utf8"

	"cogentcore.org/mentions/creation"
	"cogentcore.org/mentions/lifecycle"
	"cogentcore.org/mentions/mconfig"
	"cogentcore.org/mentions/mevents"
	"cogentcore.org/mentions/mtypes"
	"cogentcore.org/mentions/query"
	"cogentcore.org/mentions/startdetect"
)

// pendingEdit stashes a shouldChange call's parameters for the matching
// didChange to process, since the buffer's text does not yet reflect the
// edit at shouldChange time.
type pendingEdit struct {
	r    mtypes.Range
	text string
}

// Controller is the mentions engine installed on one host [mtypes.Buffer]
// at a time. The zero value is not usable; use [New].
type Controller struct {
	cfg      *mconfig.Config
	buf      mtypes.Buffer
	delegate *mtypes.Delegate
	chooser  *mtypes.Chooser

	listeners mevents.Listeners

	pipeline    *query.Pipeline
	start       *startdetect.StateMachine
	creationSM  *creation.StateMachine
	lifecycleSM *lifecycle.StateMachine

	ignoreDepth int
	pending     *pendingEdit
}

// New installs a Controller on buf. cfg, buf and delegate must be
// non-nil; chooser may be nil for an addMention-only integration with no
// interactive UI. If chooser is non-nil but advertises neither the simple
// nor table protocol, it is refused per spec §7's UnsupportedChooserProtocol
// policy: the controller is still returned, fully functional, just
// without a chooser.
func New(cfg *mconfig.Config, buf mtypes.Buffer, delegate *mtypes.Delegate, chooser *mtypes.Chooser) *Controller {
	if chooser != nil && !chooser.Valid() {
		mtypes.LogDebug(mtypes.UnsupportedChooserProtocol, "chooser advertises neither protocol, refusing attachment")
		chooser = nil
	}

	c := &Controller{cfg: cfg, buf: buf, delegate: delegate, chooser: chooser}

	c.pipeline = query.New(cfg, delegate, c.handlePipelineResults, c.handlePipelineEmpty)
	c.creationSM = creation.New(cfg, c.pipeline, chooser, &c.listeners, c.handleCommit, c.handleCancel)
	c.lifecycleSM = lifecycle.New(cfg, delegate, &c.listeners)
	c.start = startdetect.New(cfg, c.handleBegin)

	buf.OnShouldChange(c.shouldChange)
	buf.OnDidChange(c.didChange)
	buf.OnDidChangeSelection(c.didChangeSelection)
	buf.OnDidReplaceWholeText(c.didReplaceWholeText)

	return c
}

// AddListener registers fn to receive notifications of type t (spec §6's
// "State change observer"); listeners are called in reverse registration
// order and may call ev.SetHandled() to suppress later ones.
func (c *Controller) AddListener(t mevents.Type, fn func(mevents.Event)) {
	c.listeners.Add(t, fn)
}

// IgnoreDepth returns the controller's current ignore-stack depth (spec
// §5): zero means the next buffer mutation is user-originated.
func (c *Controller) IgnoreDepth() int { return c.ignoreDepth }

func (c *Controller) beginIgnoring() { c.ignoreDepth++ }
func (c *Controller) endIgnoring()   { c.ignoreDepth = mtypes.AssertOrClamp(c.ignoreDepth - 1) }

// ignoreEdit runs fn with the ignore stack incremented so the Controller's
// own pre/post-change hooks treat fn's buffer mutation as
// controller-originated rather than user-originated (spec §5).
func (c *Controller) ignoreEdit(fn func()) {
	c.beginIgnoring()
	fn()
	c.endIgnoring()
}

// Detach resets both state machines and the chooser as if the controller
// had just been installed, and cancels any in-flight query, per spec §5
// "controller detachment from an editor resets chooser and both SMs; all
// pending queries become stale."
func (c *Controller) Detach() {
	if c.creationSM.State() != creation.Idle {
		c.creationSM.Cancel()
	}
	c.lifecycleSM.Reset()
}

func (c *Controller) isWordChar(r rune) bool {
	if c.cfg.IsWordChar != nil {
		return c.cfg.IsWordChar(r)
	}
	return mconfig.DefaultIsWordChar(r)
}

// ---- addMention / mentions ----

// AddMention validates and inserts m's attribute into the buffer at
// m.Range (spec §4.G): the declared range's length must equal
// len([]rune(m.DisplayText)), the buffer substring at that range must
// equal m.DisplayText, and the range must not already carry a mention
// attribute (invariant I2). An invalid mention is silently dropped, per
// spec §7 InvalidMentionInsertion policy, and AddMention reports false.
func (c *Controller) AddMention(m mtypes.Mention) bool {
	runes := []rune(c.buf.Text())
	want := []rune(m.DisplayText)
	if m.Range.Length != len(want) {
		mtypes.LogDebug(mtypes.InvalidMentionInsertion, "declared range length does not match display text length")
		return false
	}
	if m.Range.Start < 0 || m.Range.End() > len(runes) {
		mtypes.LogDebug(mtypes.InvalidMentionInsertion, "declared range out of bounds")
		return false
	}
	if string(runes[m.Range.Start:m.Range.End()]) != m.DisplayText {
		mtypes.LogDebug(mtypes.InvalidMentionInsertion, "declared text does not match buffer contents at range")
		return false
	}
	for i := m.Range.Start; i < m.Range.End(); i++ {
		if _, ok := c.buf.AttributeAt(i, mtypes.MentionAttributeName); ok {
			mtypes.LogDebug(mtypes.InvalidMentionInsertion, "range already carries a mention attribute")
			return false
		}
	}
	c.ignoreEdit(func() {
		c.buf.SetAttribute(mtypes.MentionAttributeName, mtypes.MentionAttributeValue{
			EntityID: m.EntityID,
			UniqueID: m.Dedup(),
			Metadata: m.Metadata,
		}, m.Range)
	})
	return true
}

// AddMentions calls [Controller.AddMention] for each m in ms and returns
// how many were accepted. Applying the same set twice on an otherwise
// unchanged buffer is idempotent: the second pass finds every range
// already attributed and drops all of them.
func (c *Controller) AddMentions(ms []mtypes.Mention) int {
	n := 0
	for _, m := range ms {
		if c.AddMention(m) {
			n++
		}
	}
	return n
}

// Mentions scans the buffer's attribute runs in ascending order and
// returns every committed mention (spec §4.G).
func (c *Controller) Mentions() []mtypes.Mention {
	return scanMentions(c.buf)
}

// ---- pipeline glue ----

func (c *Controller) handlePipelineResults(q mtypes.Query, results []mtypes.Entity, isComplete bool) {
	c.creationSM.HandleResults(q, results, isComplete)
}

func (c *Controller) handlePipelineEmpty(q mtypes.Query) {
	c.creationSM.HandleEmpty(q)
}

// ---- start detection glue ----

func (c *Controller) handleBegin(prefix string, location int, usingControl bool, controlChar rune) {
	searchType := mtypes.SearchImplicit
	if usingControl {
		searchType = mtypes.SearchExplicit
	}
	c.listeners.Call(mevents.NewStateChanged(startdetect.Quiescent.String(), startdetect.CreatingMention.String()))
	c.creationSM.Begin(mtypes.Query{
		KeyString:      prefix,
		SearchType:     searchType,
		ControlChar:    controlChar,
		HasControlChar: usingControl,
		AnchorLocation: location,
	})
}

// ---- creation glue ----

func (c *Controller) handleCommit(q mtypes.Query, e mtypes.Entity) {
	displayText := e.EntityName
	keyLen := utf8.RuneCountInString(q.KeyString)

	var rng mtypes.Range
	switch {
	case q.HasControlChar && c.cfg.ShouldPrepend(q.ControlChar):
		rng = mtypes.Range{Start: q.AnchorLocation + 1, Length: keyLen}
	case q.HasControlChar:
		rng = mtypes.Range{Start: q.AnchorLocation, Length: 1 + keyLen}
	default:
		rng = mtypes.Range{Start: q.AnchorLocation, Length: keyLen}
	}

	mention := e.ToMention(displayText)
	c.ignoreEdit(func() {
		c.buf.Replace(rng, displayText, map[mtypes.AttributeName]any{
			mtypes.MentionAttributeName: mtypes.MentionAttributeValue{
				EntityID: mention.EntityID,
				UniqueID: mention.UniqueID,
				Metadata: mention.Metadata,
			},
		})
		c.buf.SetSelection(mtypes.Range{Start: rng.Start + utf8.RuneCountInString(displayText)})
	})

	c.start.MentionCreationEnded(true)
	if c.cfg.NotifyTextViewDelegateOnMentionCreation {
		c.listeners.Call(mevents.NewCreatedMention(mention.EntityID, rng.Start))
	}
	c.listeners.Call(mevents.NewStateChanged(startdetect.CreatingMention.String(), startdetect.Quiescent.String()))
}

func (c *Controller) handleCancel(q mtypes.Query) {
	c.start.MentionCreationEnded(false)
	c.listeners.Call(mevents.NewStateChanged(startdetect.CreatingMention.String(), startdetect.Quiescent.String()))
}

// ---- lifecycle glue ----

func (c *Controller) mentionFromAttr(av mtypes.AttributeValue) mtypes.Mention {
	val, _ := av.Value.(mtypes.MentionAttributeValue)
	runes := []rune(c.buf.Text())
	end := av.RunRange.End()
	if end > len(runes) {
		end = len(runes)
	}
	return mtypes.Mention{
		EntityID:    val.EntityID,
		UniqueID:    val.UniqueID,
		DisplayText: string(runes[av.RunRange.Start:end]),
		Metadata:    val.Metadata,
		Range:       av.RunRange,
	}
}

// mentionEndingAt returns the mention whose run ends exactly at index, if
// any (the "←" adjacency of spec §4.F).
func (c *Controller) mentionEndingAt(index int) (mtypes.Mention, bool) {
	if index <= 0 {
		return mtypes.Mention{}, false
	}
	av, ok := c.buf.AttributeAt(index-1, mtypes.MentionAttributeName)
	if !ok || av.RunRange.End() != index {
		return mtypes.Mention{}, false
	}
	return c.mentionFromAttr(av), true
}

// exactMention returns the mention whose run is exactly r, if any.
func (c *Controller) exactMention(r mtypes.Range) (mtypes.Mention, bool) {
	if r.Length == 0 {
		return mtypes.Mention{}, false
	}
	av, ok := c.buf.AttributeAt(r.Start, mtypes.MentionAttributeName)
	if !ok || av.RunRange != r {
		return mtypes.Mention{}, false
	}
	return c.mentionFromAttr(av), true
}

// overlappingMention returns a mention whose run overlaps r without being
// exactly equal to it — an edit landing inside or across the edge of a
// run (spec §4.F "editing inside a mention run").
func (c *Controller) overlappingMention(r mtypes.Range) (mtypes.Mention, bool) {
	probe := r.Start
	if r.Length == 0 && probe > 0 {
		probe--
	}
	av, ok := c.buf.AttributeAt(probe, mtypes.MentionAttributeName)
	if !ok {
		if r.Length > 0 {
			if av2, ok2 := c.buf.AttributeAt(r.Start, mtypes.MentionAttributeName); ok2 {
				av, ok = av2, true
			}
		}
		if !ok {
			return mtypes.Mention{}, false
		}
	}
	if av.RunRange == r {
		return mtypes.Mention{}, false
	}
	if !av.RunRange.Overlaps(r) {
		return mtypes.Mention{}, false
	}
	return c.mentionFromAttr(av), true
}

func (c *Controller) applyLifecycleAction(action lifecycle.Action) {
	switch action.Kind {
	case lifecycle.SelectRun:
		c.ignoreEdit(func() { c.buf.SetSelection(action.Range) })
	case lifecycle.Trim:
		c.ignoreEdit(func() {
			c.buf.Replace(action.Range, action.DisplayText, map[mtypes.AttributeName]any{
				mtypes.MentionAttributeName: mtypes.MentionAttributeValue{
					EntityID: action.Mention.EntityID,
					UniqueID: action.Mention.UniqueID,
					Metadata: action.Mention.Metadata,
				},
			})
		})
	case lifecycle.Delete:
		c.ignoreEdit(func() { c.buf.Replace(action.Range, "", nil) })
	case lifecycle.Bleach:
		c.ignoreEdit(func() { c.buf.RemoveAttribute(mtypes.MentionAttributeName, action.Range) })
	}
}

// ---- buffer hooks ----

func (c *Controller) shouldChange(r mtypes.Range, replacement string) bool {
	if c.ignoreDepth > 0 {
		return true
	}

	if _, ok := c.exactMention(r); ok && c.lifecycleSM.State() == lifecycle.Selected {
		if replacement == "" {
			action := c.lifecycleSM.Delete()
			if action.Kind != lifecycle.NoOp {
				c.applyLifecycleAction(action)
				return false
			}
		} else {
			action := c.lifecycleSM.TypedWhileSelected()
			if action.Kind == lifecycle.Bleach {
				c.applyLifecycleAction(action)
				return true
			}
		}
	}

	// A single-character backspace landing exactly at a mention's end takes
	// the dedicated arm/select path (invariant I3) rather than the generic
	// overlap-bleach below, even though the edited range lies within the
	// run: checked first so it wins that ordering.
	if replacement == "" && r.Length == 1 {
		if m, ok := c.mentionEndingAt(r.End()); ok {
			switch c.lifecycleSM.State() {
			case lifecycle.Quiescent:
				c.lifecycleSM.Backspace(&m)
				return false
			case lifecycle.AboutToSelect:
				action := c.lifecycleSM.Backspace(nil)
				if action.Kind == lifecycle.SelectRun {
					c.applyLifecycleAction(action)
				}
				return false
			}
		}
	}

	if m, ok := c.overlappingMention(r); ok {
		action := c.lifecycleSM.BleachForInternalEdit(m)
		c.applyLifecycleAction(action)
		return true
	}

	c.pending = &pendingEdit{r: r, text: replacement}
	return true
}

func (c *Controller) didChange() {
	if c.ignoreDepth > 0 {
		return
	}
	pending := c.pending
	c.pending = nil
	if pending == nil {
		return
	}
	c.processEdit(*pending)
}

func (c *Controller) processEdit(e pendingEdit) {
	insLen := utf8.RuneCountInString(e.text)
	switch {
	case insLen == 0 && e.r.Length > 0:
		c.handleDeletion(e.r)
	case e.r.Length == 0 && insLen == 1:
		rs := []rune(e.text)
		c.handleCharacterTyped(rs[0], e.r.Start)
	case e.r.Length == 0 && insLen > 1:
		c.handlePaste(e.text, e.r.Start)
	default:
		// a selection replaced by new text: treated as an insertion at the
		// replacement's start for start-detection purposes.
		if insLen == 1 {
			c.handleCharacterTyped([]rune(e.text)[0], e.r.Start)
		} else if insLen > 1 {
			c.handlePaste(e.text, e.r.Start)
		}
	}
}

func (c *Controller) handleCharacterTyped(ch rune, location int) {
	text := []rune(c.buf.Text())

	if c.creationSM.State() != creation.Idle && c.creationSM.State() != creation.Cancelled && c.creationSM.State() != creation.CommittedExternally {
		isWord := c.isWordChar(ch)
		isLineTerm := ch == '\n' || ch == '\r'
		c.creationSM.CharacterTyped(ch, isWord, isLineTerm)
		return
	}

	var previousChar rune
	hasPrevious := false
	if location > 0 && location-1 < len(text) {
		previousChar = text[location-1]
		hasPrevious = true
	}
	nextWord := ""
	if location+1 <= len(text) {
		nextWord = startdetect.WordAfterLocation(string(text), location+1, c.isWordChar)
	}
	c.start.CharacterTyped(ch, location, previousChar, hasPrevious, nextWord)
}

func (c *Controller) handleDeletion(r mtypes.Range) {
	text := c.buf.Text()
	if c.creationSM.State() != creation.Idle && c.creationSM.State() != creation.Cancelled && c.creationSM.State() != creation.CommittedExternally {
		q := c.creationSM.Query()
		newKeyLen := utf8.RuneCountInString(q.KeyString) - r.Length
		if newKeyLen < 0 {
			c.creationSM.Cancel()
			return
		}
		if q.SearchType == mtypes.SearchImplicit && newKeyLen < c.cfg.ImplicitSearchLength {
			c.creationSM.Cancel()
			return
		}
		runes := []rune(q.KeyString)
		trimStart := r.Start - q.AnchorLocation
		if q.HasControlChar {
			// the control character occupies the anchor position itself
			// while an attempt is in progress, regardless of whether it's
			// kept after commit, so the key string starts one past it.
			trimStart--
		}
		if trimStart < 0 || trimStart > len(runes) {
			c.creationSM.Cancel()
			return
		}
		newKey := string(runes[:trimStart]) + string(runes[min(trimStart+r.Length, len(runes)):])
		c.creationSM.SetKeyString(newKey)
		return
	}

	runes := []rune(text)
	deletedChar := rune(0)
	var preceding rune
	hasPreceding := r.Start > 0
	if hasPreceding {
		preceding = runes[r.Start-1]
	}
	c.start.DeleteTypedCharacter(deletedChar, preceding, hasPreceding, r.Start, text)
}

func (c *Controller) handlePaste(s string, location int) {
	if c.creationSM.State() != creation.Idle && c.creationSM.State() != creation.Cancelled && c.creationSM.State() != creation.CommittedExternally {
		c.creationSM.SetKeyString(c.creationSM.Query().KeyString + s)
		return
	}
	text := []rune(c.buf.Text())
	var preceding rune
	hasPreceding := location > 0
	if hasPreceding {
		preceding = text[location-1]
	}
	if offset, ctrlChar, ok := startdetect.ScanPasteForControlChar(s, preceding, hasPreceding, c.cfg); ok {
		sr := []rune(s)
		tail := string(sr[offset+1:])
		c.start.ValidStringInserted(tail, location+offset, true, ctrlChar)
	}
}

func (c *Controller) didChangeSelection() {
	if c.ignoreDepth > 0 {
		return
	}
	c.lifecycleSM.Reset()
	loc := c.buf.Selection().Start
	c.start.CursorMoved(loc, c.buf.Text())

	switch c.creationSM.State() {
	case creation.Idle, creation.Cancelled, creation.CommittedExternally:
	default:
		q := c.creationSM.Query()
		liveStart := q.AnchorLocation
		liveEnd := q.AnchorLocation
		if q.HasControlChar {
			liveEnd++ // the control character's own buffer position
		}
		liveEnd += utf8.RuneCountInString(q.KeyString)
		within := loc >= liveStart && loc <= liveEnd
		c.creationSM.CursorMoved(within)
	}
}

// didReplaceWholeText is wired to the buffer's programmatic-update hook.
// When the replacement leaves a control-char-plus-query tail at the caret
// and [mconfig.Config.ResumeMentionsCreationEnabled] is set, it re-enters
// Creation at that tail rather than leaving the primed opportunity unused
// (spec §4.C rule 5; SPEC_FULL.md §5.3).
func (c *Controller) didReplaceWholeText() {
	if c.creationSM.State() != creation.Idle {
		c.creationSM.Cancel()
	}
	c.lifecycleSM.Reset()
	loc := c.buf.Selection().Start
	text := []rune(c.buf.Text())
	if loc > len(text) {
		loc = len(text)
	}
	c.start.ResetStateUsingString(string(text[:loc]))

	if !c.cfg.ResumeMentionsCreationEnabled {
		return
	}
	primed, ok := c.start.PrimedResume()
	if !ok {
		return
	}
	c.start.MentionCreationResumed()
	c.listeners.Call(mevents.NewStateChanged(startdetect.Quiescent.String(), startdetect.CreatingMention.String()))
	c.creationSM.Begin(mtypes.Query{
		KeyString:      primed.Prefix,
		SearchType:     mtypes.SearchExplicit,
		ControlChar:    primed.ControlChar,
		HasControlChar: primed.UsingControl,
		AnchorLocation: primed.Location,
	})
}
