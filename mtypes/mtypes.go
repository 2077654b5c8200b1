// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mtypes holds the data model and external-interface protocols
// shared by every package in the mentions controller: the Mention and
// Query value types, the Buffer adapter the host text view must
// implement, and the Chooser/Delegate protocols the host integrator
// supplies.
package mtypes

import "fmt"

// SearchType classifies why a Query was started.
type SearchType int

const (
	// SearchImplicit means the query was started by N consecutive word
	// characters at a word boundary.
	SearchImplicit SearchType = iota
	// SearchExplicit means the query was started by a control character.
	SearchExplicit
	// SearchInitial means the query is a fetch for an explicit mention
	// whose keyString is empty (the bare control character), so a
	// delegate can show a default/recent list before any filtering.
	SearchInitial
)

func (s SearchType) String() string {
	switch s {
	case SearchImplicit:
		return "Implicit"
	case SearchExplicit:
		return "Explicit"
	case SearchInitial:
		return "Initial"
	default:
		return fmt.Sprintf("SearchType(%d)", int(s))
	}
}

// Range is a half-open [Start, Start+Length) span into buffer text.
type Range struct {
	Start  int
	Length int
}

// End returns the exclusive end of the range.
func (r Range) End() int { return r.Start + r.Length }

// Contains reports whether index i falls within the range.
func (r Range) Contains(i int) bool { return i >= r.Start && i < r.End() }

// Overlaps reports whether r and o share any index.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End() && o.Start < r.End()
}

// Mention is an atomic entity reference embedded in editable text.
//
// Range is set only when surfacing a Mention to a caller (e.g. via
// [mentions.Controller.Mentions]); it is never authoritative at rest. The
// buffer's attribute run is the single source of truth for where a
// mention currently lives, per spec invariant I1.
type Mention struct {
	EntityID    string
	UniqueID    string
	DisplayText string
	Metadata    map[string]any
	Range       Range
}

// Dedup returns the key used to deduplicate this mention against others,
// defaulting to EntityID when UniqueID is unset.
func (m Mention) Dedup() string {
	if m.UniqueID != "" {
		return m.UniqueID
	}
	return m.EntityID
}

// Entity is what a Delegate's asynchronous lookup returns: candidates the
// chooser will display, one of which the user may pick to become a
// Mention. ValueForCustomKey lets a host's Chooser read delegate-specific
// display fields (e.g. an avatar URL) without the core needing to know
// about them.
type Entity struct {
	EntityID          string
	EntityName        string
	EntityMetadata    map[string]any
	UniqueID          string
	ValueForCustomKey func(key string) any
}

// Dedup returns the key used to deduplicate this entity, defaulting to
// EntityID when UniqueID is unset.
func (e Entity) Dedup() string {
	if e.UniqueID != "" {
		return e.UniqueID
	}
	return e.EntityID
}

// ToMention converts a selected Entity into a Mention using the given
// display text (the controller passes the entity's EntityName).
func (e Entity) ToMention(displayText string) Mention {
	return Mention{
		EntityID:    e.EntityID,
		UniqueID:    e.Dedup(),
		DisplayText: displayText,
		Metadata:    e.EntityMetadata,
	}
}

// Query describes one in-progress mention attempt's search state.
type Query struct {
	KeyString      string
	SearchType     SearchType
	ControlChar    rune
	HasControlChar bool
	AnchorLocation int
	Generation     int
}

// HighlightState is the Mention Attribute's highlight tag (spec §4.A);
// actual colors are an external theme hook, not part of this module.
type HighlightState int

const (
	Unhighlighted HighlightState = iota
	Highlighted
)

// MentionAttributeValue is the value stored under [MentionAttributeName]
// for a committed mention's run (spec §4.A): an immutable, atomic
// descriptor carrying everything needed to reconstruct a [Mention] from a
// buffer scan, plus its highlight tag.
type MentionAttributeValue struct {
	EntityID  string
	UniqueID  string
	Metadata  map[string]any
	Highlight HighlightState
}

