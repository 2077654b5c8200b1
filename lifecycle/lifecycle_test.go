// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cogentcore.org/mentions/mconfig"
	"cogentcore.org/mentions/mevents"
	"cogentcore.org/mentions/mtypes"
)

func testMention() mtypes.Mention {
	return mtypes.Mention{EntityID: "e1", DisplayText: "Jane Doe", Range: mtypes.Range{Start: 5, Length: 8}}
}

func TestBackspaceArmsThenSelectsThenActs(t *testing.T) {
	var listeners mevents.Listeners
	sm := New(mconfig.Defaults(), &mtypes.Delegate{}, &listeners)
	m := testMention()

	a1 := sm.Backspace(&m)
	assert.Equal(t, NoOp, a1.Kind)
	assert.Equal(t, AboutToSelect, sm.State())

	a2 := sm.Backspace(nil)
	assert.Equal(t, SelectRun, a2.Kind)
	assert.Equal(t, m.Range, a2.Range)
	assert.Equal(t, Selected, sm.State())

	a3 := sm.Backspace(nil)
	assert.Equal(t, Delete, a3.Kind)
	assert.Equal(t, Quiescent, sm.State())
}

func TestBackspaceNoAdjacentMentionIsNoop(t *testing.T) {
	var listeners mevents.Listeners
	sm := New(mconfig.Defaults(), &mtypes.Delegate{}, &listeners)
	a := sm.Backspace(nil)
	assert.Equal(t, NoOp, a.Kind)
	assert.Equal(t, Quiescent, sm.State())
}

func TestDeleteWhileNotSelectedIsNoop(t *testing.T) {
	var listeners mevents.Listeners
	sm := New(mconfig.Defaults(), &mtypes.Delegate{}, &listeners)
	a := sm.Delete()
	assert.Equal(t, NoOp, a.Kind)
}

func TestTrimUsesDefaultFirstWord(t *testing.T) {
	var listeners mevents.Listeners
	delegate := &mtypes.Delegate{EntityCanBeTrimmed: func(e mtypes.Entity) bool { return true }}
	sm := New(mconfig.Defaults(), delegate, &listeners)
	m := testMention()

	sm.Backspace(&m)
	sm.Backspace(nil)
	action := sm.Backspace(nil)
	assert.Equal(t, Trim, action.Kind)
	assert.Equal(t, "Jane", action.DisplayText)
	assert.Equal(t, m.EntityID, action.Mention.EntityID)
}

func TestTrimFallsThroughToDeleteWhenNoWhitespace(t *testing.T) {
	var listeners mevents.Listeners
	delegate := &mtypes.Delegate{EntityCanBeTrimmed: func(e mtypes.Entity) bool { return true }}
	sm := New(mconfig.Defaults(), delegate, &listeners)
	m := mtypes.Mention{EntityID: "e1", DisplayText: "Jane", Range: mtypes.Range{Start: 0, Length: 4}}

	sm.Backspace(&m)
	sm.Backspace(nil)
	action := sm.Backspace(nil)
	assert.Equal(t, Delete, action.Kind)
}

func TestTrimFallsThroughToDeleteWhenAlreadyTrimmed(t *testing.T) {
	var listeners mevents.Listeners
	delegate := &mtypes.Delegate{
		EntityCanBeTrimmed: func(e mtypes.Entity) bool { return true },
		TrimmedName:        func(e mtypes.Entity) (string, bool) { return e.EntityName, true },
	}
	sm := New(mconfig.Defaults(), delegate, &listeners)
	m := mtypes.Mention{EntityID: "e1", DisplayText: "Jane", Range: mtypes.Range{Start: 0, Length: 4}}

	sm.Backspace(&m)
	sm.Backspace(nil)
	action := sm.Backspace(nil)
	assert.Equal(t, Delete, action.Kind)
}

func TestTrimDisallowedByDelegateDeletes(t *testing.T) {
	var listeners mevents.Listeners
	delegate := &mtypes.Delegate{EntityCanBeTrimmed: func(e mtypes.Entity) bool { return false }}
	sm := New(mconfig.Defaults(), delegate, &listeners)
	m := testMention()

	sm.Backspace(&m)
	sm.Backspace(nil)
	action := sm.Backspace(nil)
	assert.Equal(t, Delete, action.Kind)
}

func TestTrimUsesDelegateCustomName(t *testing.T) {
	var listeners mevents.Listeners
	delegate := &mtypes.Delegate{
		EntityCanBeTrimmed: func(e mtypes.Entity) bool { return true },
		TrimmedName:        func(e mtypes.Entity) (string, bool) { return "J.", true },
	}
	sm := New(mconfig.Defaults(), delegate, &listeners)
	m := testMention()

	sm.Backspace(&m)
	sm.Backspace(nil)
	action := sm.Backspace(nil)
	assert.Equal(t, Trim, action.Kind)
	assert.Equal(t, "J.", action.DisplayText)
}

func TestTypedWhileSelectedBleaches(t *testing.T) {
	var listeners mevents.Listeners
	sm := New(mconfig.Defaults(), &mtypes.Delegate{}, &listeners)
	m := testMention()
	sm.Backspace(&m)
	sm.Backspace(nil)

	action := sm.TypedWhileSelected()
	assert.Equal(t, Bleach, action.Kind)
	assert.Equal(t, Quiescent, sm.State())
}

func TestTypedWhileNotSelectedIsNoop(t *testing.T) {
	var listeners mevents.Listeners
	sm := New(mconfig.Defaults(), &mtypes.Delegate{}, &listeners)
	action := sm.TypedWhileSelected()
	assert.Equal(t, NoOp, action.Kind)
}

func TestBleachForInternalEditResetsTrackedAdjacency(t *testing.T) {
	var listeners mevents.Listeners
	sm := New(mconfig.Defaults(), &mtypes.Delegate{}, &listeners)
	m := testMention()
	sm.Backspace(&m)
	assert.Equal(t, AboutToSelect, sm.State())

	action := sm.BleachForInternalEdit(m)
	assert.Equal(t, Bleach, action.Kind)
	assert.Equal(t, Quiescent, sm.State())
}

func TestResetReturnsToQuiescent(t *testing.T) {
	var listeners mevents.Listeners
	sm := New(mconfig.Defaults(), &mtypes.Delegate{}, &listeners)
	m := testMention()
	sm.Backspace(&m)
	sm.Reset()
	assert.Equal(t, Quiescent, sm.State())
}

func TestEventsGatedByConfig(t *testing.T) {
	var listeners mevents.Listeners
	var fired []mevents.Type
	listeners.Add(mevents.TrimmedMention, func(ev mevents.Event) { fired = append(fired, ev.Type()) })
	listeners.Add(mevents.DeletedMention, func(ev mevents.Event) { fired = append(fired, ev.Type()) })

	cfg := mconfig.Defaults()
	cfg.NotifyTextViewDelegateOnMentionTrim = false
	cfg.NotifyTextViewDelegateOnMentionDeletion = false
	sm := New(cfg, &mtypes.Delegate{}, &listeners)
	m := testMention()

	sm.Backspace(&m)
	sm.Backspace(nil)
	sm.Backspace(nil) // no delegate -> deletes, would fire DeletedMention if enabled

	assert.Empty(t, fired)
}
