// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mconfig

import (
	"io"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch watches path for writes and calls onChange with a freshly [Load]ed
// Config after each one, so a host can let a user edit settings (e.g.
// ControlCharacters, ImplicitSearchLength) live without restarting (spec
// §6, SPEC_FULL.md §3 Configuration). The returned io.Closer stops the
// watch.
func Watch(path string, onChange func(*Config)) (io.Closer, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					cfg, err := Load(path)
					if err != nil {
						slog.Warn("mconfig: reload failed", "path", path, "err", err)
						continue
					}
					onChange(cfg)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("mconfig: watch error", "err", err)
			}
		}
	}()
	return w, nil
}
