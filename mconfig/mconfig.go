// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mconfig is the settings layer for the mentions controller,
// grounded on core/settings.go's struct-tag-default Settings pattern
// (see DESIGN.md). Unlike the teacher, which persists settings through a
// reflection-walked GUI settings panel, this module's settings are loaded
// non-interactively from an optional TOML file and may be hot-reloaded.
package mconfig

import (
	"os"
	"path/filepath"
	"time"
	"unicode"

	homedir "github.com/mitchellh/go-homedir"
	toml "github.com/pelletier/go-toml/v2"

	"cogentcore.org/mentions/mtypes"
)

// Config holds every tunable named in spec §6's configuration table, plus
// the Query Pipeline timing parameters spec §4.D leaves
// implementation-defined.
type Config struct { //types:add -setters

	// ChooserPositionMode selects one of the 11 chooser positioning
	// strategies (spec §6).
	ChooserPositionMode mtypes.ChooserPositionMode `default:"1"`

	// ControlCharacters is the set of start-trigger codepoints; empty
	// disables explicit mentions.
	ControlCharacters []rune `default:"['@']"`

	// ControlCharactersToPrepend is the subset of ControlCharacters kept
	// in the buffer, as a plain leading literal, after commit (spec §9
	// Open Question 1, resolved in SPEC_FULL.md §5.1).
	ControlCharactersToPrepend []rune

	// ImplicitSearchLength is N >= 0; 0 disables implicit mentions.
	ImplicitSearchLength int `default:"0"`

	// ImplicitMentionsEnabled gates rule 2 of spec §4.C independently of
	// ImplicitSearchLength so a host can disable implicit mentions without
	// losing its configured N.
	ImplicitMentionsEnabled bool `default:"false"`

	// ResumeMentionsCreationEnabled allows re-entering Creation on caret
	// move back into a valid prefix (spec §6, SPEC_FULL.md §5.3).
	ResumeMentionsCreationEnabled bool `default:"true"`

	// ShouldContinueSearchingAfterEmptyResults controls the empty-result
	// policy of spec §4.D.
	ShouldContinueSearchingAfterEmptyResults bool `default:"false"`

	// NotifyTextViewDelegateOnMentionCreation/Trim/Deletion gate whether
	// the host's own buffer-change callbacks fire on these
	// controller-originated edits (spec §6).
	NotifyTextViewDelegateOnMentionCreation bool `default:"true"`
	NotifyTextViewDelegateOnMentionTrim     bool `default:"true"`
	NotifyTextViewDelegateOnMentionDeletion bool `default:"true"`

	// QueryDebounce is the minimum interval between keystroke-driven
	// re-queries after a query has finished, whether by a final batch
	// (empty or not) or by timing out (spec §4.D "Cooldown").
	// Defaults to the midpoint of the spec's suggested 100-200ms range
	// (DESIGN.md Open Question 2).
	QueryDebounce time.Duration `default:"150ms"`

	// QueryTimeout is the per-query timeout after which an in-flight
	// delegate call is treated as empty (spec §4.D).
	QueryTimeout time.Duration `default:"5s"`

	// IsWordChar classifies a rune as a "word character" for start
	// detection and for the controller's word/non-word classification of
	// characters typed during creation (spec §9 Open
	// Question 3, resolved in DESIGN.md). Not serialized to/from TOML;
	// callers that load a Config from a file should set this afterward.
	IsWordChar func(r rune) bool `toml:"-"`
}

// Defaults returns a Config with every field set to the default named in
// its struct tag (mirroring core/settings.go's Defaults() method), with
// IsWordChar set to the module's default classifier.
func Defaults() *Config {
	return &Config{
		ChooserPositionMode:                       mtypes.EnclosedArrowDown,
		ControlCharacters:                         []rune{'@'},
		ImplicitSearchLength:                      0,
		ImplicitMentionsEnabled:                   false,
		ResumeMentionsCreationEnabled:              true,
		ShouldContinueSearchingAfterEmptyResults:   false,
		NotifyTextViewDelegateOnMentionCreation:    true,
		NotifyTextViewDelegateOnMentionTrim:        true,
		NotifyTextViewDelegateOnMentionDeletion:    true,
		QueryDebounce:                              150 * time.Millisecond,
		QueryTimeout:                               5 * time.Second,
		IsWordChar:                                 DefaultIsWordChar,
	}
}

// DefaultIsWordChar classifies letters, digits and underscore as word
// characters (DESIGN.md Open Question 3).
func DefaultIsWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// IsControlChar reports whether r is one of c's configured control
// characters.
func (c *Config) IsControlChar(r rune) bool {
	for _, cc := range c.ControlCharacters {
		if cc == r {
			return true
		}
	}
	return false
}

// ShouldPrepend reports whether control character r should be kept in the
// buffer as a plain literal after commit.
func (c *Config) ShouldPrepend(r rune) bool {
	for _, cc := range c.ControlCharactersToPrepend {
		if cc == r {
			return true
		}
	}
	return false
}

// DefaultPath returns ~/.config/mentions/settings.toml, resolved via
// go-homedir for portability across platforms where os.UserHomeDir alone
// is insufficient (DESIGN.md, SPEC_FULL.md §3 Configuration).
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mentions", "settings.toml"), nil
}

// Load reads and parses a TOML settings file at path, starting from
// [Defaults] so any field the file omits keeps its default value.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	wordChar := cfg.IsWordChar
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.IsWordChar == nil {
		cfg.IsWordChar = wordChar
	}
	return cfg, nil
}
