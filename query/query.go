// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package query implements the Query Pipeline (spec §4.D, Component D):
// it turns a prefix change from the creation state machine into a
// generation-stamped call against the host's [mtypes.Delegate], discards
// stale or duplicate results, and applies the debounce/cooldown and
// empty-result policies of spec §6.
//
// Grounded on core/complete.go's Complete type, which drives essentially
// the same problem (an async candidate-list fetch keyed to a changing
// prefix, with a cancel-in-flight-on-new-request discipline) for
// Cogent Core's own completion popup; see DESIGN.md.
package query

import (
	"context"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"cogentcore.org/mentions/mconfig"
	"cogentcore.org/mentions/mtypes"
)

// ResultsHandler receives a non-stale, possibly-partial batch of entities
// for q. isComplete mirrors the delegate's own isComplete flag.
type ResultsHandler func(q mtypes.Query, results []mtypes.Entity, isComplete bool)

// EmptyHandler is called when a query's final (isComplete=true) batch is
// empty, or when the query times out, so the creation state machine can
// apply the empty-result policy (spec §4.D).
type EmptyHandler func(q mtypes.Query)

// Pipeline is the Query Pipeline state. The zero value is not usable; use
// [New].
type Pipeline struct {
	cfg      *mconfig.Config
	delegate *mtypes.Delegate
	onResult ResultsHandler
	onEmpty  EmptyHandler

	mu         sync.Mutex
	generation int
	current    mtypes.Query
	active     bool
	cancel     context.CancelFunc
	seen       map[string]bool
	lastFinal  time.Time
	haveFinal  bool

	pendingTimer *time.Timer
	pendingQuery *mtypes.Query

	caser cases.Caser
}

// New returns a Pipeline. cfg, delegate, onResult and onEmpty must be
// non-nil.
func New(cfg *mconfig.Config, delegate *mtypes.Delegate, onResult ResultsHandler, onEmpty EmptyHandler) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		delegate: delegate,
		onResult: onResult,
		onEmpty:  onEmpty,
		caser:    cases.Fold(),
	}
}

// Generation returns the pipeline's current generation counter. It
// advances on every dispatch (the new value is stamped on the dispatched
// query) and on every [Pipeline.Cancel].
func (p *Pipeline) Generation() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// Active reports whether a query is currently in flight.
func (p *Pipeline) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Start issues q, honoring the debounce/cooldown policy: if the previous
// query finished (its final batch, empty or not, arrived, or it timed
// out) less than [mconfig.Config.QueryDebounce] ago, dispatch is deferred until the
// cooldown elapses, and a later call to Start before that deferred
// dispatch fires simply replaces the pending query (spec §4.D
// "Cooldown" — only the most recent keystroke's query matters once it
// fires).
func (p *Pipeline) Start(q mtypes.Query) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pendingTimer != nil {
		p.pendingTimer.Stop()
		p.pendingTimer = nil
	}

	if p.haveFinal && p.cfg.QueryDebounce > 0 {
		wait := p.cfg.QueryDebounce - time.Since(p.lastFinal)
		if wait > 0 {
			qCopy := q
			p.pendingQuery = &qCopy
			p.pendingTimer = time.AfterFunc(wait, func() {
				p.mu.Lock()
				pending := p.pendingQuery
				p.pendingQuery = nil
				p.pendingTimer = nil
				p.mu.Unlock()
				if pending != nil {
					p.dispatch(*pending)
				}
			})
			return
		}
	}
	p.dispatchLocked(q)
}

// Cancel discards any in-flight or pending-debounce query without
// invoking either handler, per the staleness discipline of spec §4.D:
// the creation state machine calls this whenever the attempt is
// cancelled or committed so a late-arriving callback cannot be mistaken
// for belonging to a new attempt.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	p.active = false
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.pendingTimer != nil {
		p.pendingTimer.Stop()
		p.pendingTimer = nil
	}
	p.pendingQuery = nil
}

// dispatch acquires the lock and calls dispatchLocked; it exists so the
// debounce timer's callback (which runs without the lock held) can
// dispatch safely.
func (p *Pipeline) dispatch(q mtypes.Query) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dispatchLocked(q)
}

func (p *Pipeline) dispatchLocked(q mtypes.Query) {
	if p.cancel != nil {
		p.cancel()
	}

	p.generation++
	gen := p.generation
	q.Generation = gen
	p.current = q
	p.active = true
	p.seen = make(map[string]bool)

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.QueryTimeout)
	p.cancel = cancel

	// dispatchLocked itself is the one-in-flight-per-generation guarantee
	// (it cancels p.cancel for the prior generation before bumping the
	// counter above), so the delegate call and its timeout watcher need
	// nothing fancier than a context and a goroutine apiece.
	go func() {
		<-ctx.Done()
		if ctx.Err() == context.DeadlineExceeded {
			p.onTimeout(gen)
		}
	}()

	go func() {
		done := make(chan struct{})
		var once sync.Once
		p.delegate.AsyncRetrieveEntities(q.KeyString, q.SearchType, q.ControlChar, func(results []mtypes.Entity, dedupe bool, isComplete bool) {
			p.onResults(gen, q, results, dedupe, isComplete)
			if isComplete {
				once.Do(func() { close(done) })
			}
		})
		select {
		case <-done:
		case <-ctx.Done():
		}
		cancel()
	}()
}

func (p *Pipeline) onTimeout(gen int) {
	p.mu.Lock()
	if gen != p.generation || !p.active {
		p.mu.Unlock()
		return
	}
	q := p.current
	p.active = false
	p.haveFinal = true
	p.lastFinal = time.Now()
	p.mu.Unlock()
	p.onEmpty(q)
}

// onResults is the delegate's completion callback, invoked possibly on
// another goroutine; it marshals straight onto the pipeline's own mutex
// before touching any state (spec §5's "marshaled back" requirement) and
// drops the batch outright if gen no longer matches the current
// generation (spec §7 StaleQueryResult policy: discard).
func (p *Pipeline) onResults(gen int, q mtypes.Query, results []mtypes.Entity, dedupe bool, isComplete bool) {
	p.mu.Lock()
	if gen != p.generation || !p.active {
		p.mu.Unlock()
		mtypes.LogDebug(mtypes.StaleQueryResult, "dropped results for stale generation")
		return
	}
	if dedupe {
		results = p.dedupeLocked(results)
	}
	if isComplete {
		p.active = false
		p.haveFinal = true
		p.lastFinal = time.Now()
	}
	empty := isComplete && len(results) == 0
	p.mu.Unlock()

	if len(results) > 0 {
		p.onResult(q, results, isComplete)
	}
	if empty {
		p.onEmpty(q)
	}
}

// dedupeLocked drops entities already seen for the current generation,
// comparing dedupe keys case- and normalization-insensitively so that
// e.g. "Jane" and "jane" (or NFC/NFD variants of an accented name typed
// differently by client code building the Entity) are not both shown.
func (p *Pipeline) dedupeLocked(results []mtypes.Entity) []mtypes.Entity {
	out := results[:0]
	for _, e := range results {
		key := p.foldKey(e.Dedup())
		if key == "" || p.seen[key] {
			continue
		}
		p.seen[key] = true
		out = append(out, e)
	}
	return out
}

func (p *Pipeline) foldKey(s string) string {
	return p.caser.String(norm.NFC.String(s))
}
