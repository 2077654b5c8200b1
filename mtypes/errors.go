// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mtypes

import (
	"log/slog"
	"runtime"
	"strconv"
)

// Debug gates the debug-only logging and assertion behavior spec §7 calls
// for (DelegateContractViolation logged in debug; IgnoreStackUnderflow
// clamped in release, asserted in debug). It defaults to false so
// embedding this module in a host application is silent unless the host
// opts in, mirroring the teacher's own debug-trace gates such as
// DebugSettings.KeyEventTrace in core/textfield.go.
var Debug = false

// Kind names the five documented error kinds of spec §7. None of them are
// returned across the module's public API as a Go error — the core never
// throws across its public surface (spec §7) — they exist only to label
// the handful of places this module logs or counts a contract violation.
type Kind int

const (
	// InvalidMentionInsertion: addMention whose declared range/text does
	// not match the buffer. Policy: silently drop.
	InvalidMentionInsertion Kind = iota
	// StaleQueryResult: generation mismatch. Policy: discard.
	StaleQueryResult
	// DelegateContractViolation: e.g. completion called after
	// isComplete=true. Policy: ignore, log in debug.
	DelegateContractViolation
	// IgnoreStackUnderflow: pop without matching push. Policy: clamp to
	// zero in release, assert (panic) in debug.
	IgnoreStackUnderflow
	// UnsupportedChooserProtocol: chooser advertises neither protocol
	// variant. Policy: refuse attachment, controller stays Quiescent.
	UnsupportedChooserProtocol
)

func (k Kind) String() string {
	switch k {
	case InvalidMentionInsertion:
		return "InvalidMentionInsertion"
	case StaleQueryResult:
		return "StaleQueryResult"
	case DelegateContractViolation:
		return "DelegateContractViolation"
	case IgnoreStackUnderflow:
		return "IgnoreStackUnderflow"
	case UnsupportedChooserProtocol:
		return "UnsupportedChooserProtocol"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// LogDebug logs msg tagged with kind and the caller's location, but only
// when [Debug] is set. It is the grounded-on-base/errors.Log helper
// adapted to this module's local, non-error-returning contract violations.
func LogDebug(kind Kind, msg string) {
	if !Debug {
		return
	}
	slog.Debug(msg, "kind", kind.String(), "at", callerInfo())
}

func callerInfo() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	return file + ":" + strconv.Itoa(line)
}

// AssertOrClamp implements the IgnoreStackUnderflow policy: in debug mode
// it panics (the spec's "assert in debug"); otherwise it silently returns
// the clamped value.
func AssertOrClamp(depth int) int {
	if depth >= 0 {
		return depth
	}
	if Debug {
		panic("mtypes: ignore stack underflow")
	}
	LogDebug(IgnoreStackUnderflow, "ignore stack popped below zero, clamped")
	return 0
}
