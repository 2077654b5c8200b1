// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mevents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListenersReverseOrder(t *testing.T) {
	var ls Listeners
	var order []string
	ls.Add(CreatedMention, func(ev Event) { order = append(order, "first") })
	ls.Add(CreatedMention, func(ev Event) { order = append(order, "second") })

	ls.Call(NewCreatedMention("e1", 0))
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestListenersStopOnHandled(t *testing.T) {
	var ls Listeners
	var order []string
	ls.Add(CreatedMention, func(ev Event) { order = append(order, "base") })
	ls.Add(CreatedMention, func(ev Event) {
		order = append(order, "override")
		ev.SetHandled()
	})

	ls.Call(NewCreatedMention("e1", 0))
	assert.Equal(t, []string{"override"}, order)
}

func TestListenersUnregisteredTypeIsNoop(t *testing.T) {
	var ls Listeners
	assert.NotPanics(t, func() { ls.Call(NewChooserActivated()) })
}

func TestMentionEventData(t *testing.T) {
	ev := NewTrimmedMention("e42", 7)
	assert.Equal(t, TrimmedMention, ev.Type())
	assert.Equal(t, "e42", ev.EntityID)
	assert.Equal(t, 7, ev.Location)
	assert.False(t, ev.IsHandled())
	ev.SetHandled()
	assert.True(t, ev.IsHandled())
}
