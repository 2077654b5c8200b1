// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mtypes

// ResultsFunc is the completion callback a Delegate calls, possibly more
// than once for the same generation while isComplete is false (spec §6).
// dedupe, when true, asks the query pipeline to drop entities already seen
// for this generation before they reach the chooser.
type ResultsFunc func(results []Entity, dedupe bool, isComplete bool)

// Delegate is the async data source contract of spec §6. It is supplied
// by the host integrator, not implemented by this module.
type Delegate struct {
	// AsyncRetrieveEntities issues (or re-issues) a lookup for the given
	// query and must eventually call completion, possibly asynchronously
	// and possibly on another goroutine — [query.Pipeline] marshals the
	// result back onto the caller's goroutine before touching any state
	// (spec §5).
	AsyncRetrieveEntities func(keyString string, searchType SearchType, controlChar rune, completion ResultsFunc)

	// EntityCanBeTrimmed reports whether a mention backed by this entity
	// may ever be trimmed (spec §4.F trim rule 1). Nil means "never."
	EntityCanBeTrimmed func(e Entity) bool
	// TrimmedName returns a custom trimmed display text for e; if nil,
	// [lifecycle] falls back to the default "first whitespace-delimited
	// word" rule (spec §4.F trim rule 2).
	TrimmedName func(e Entity) (trimmed string, ok bool)
}

// CanTrim reports whether e may be trimmed under this delegate's policy.
func (d *Delegate) CanTrim(e Entity) bool {
	return d != nil && d.EntityCanBeTrimmed != nil && d.EntityCanBeTrimmed(e)
}
