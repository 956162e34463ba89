// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/gohugoio/hashstructure"

	"github.com/netdata/hostprobe/logger"
)

// configWatcher signals on changed when the config file content changes in a way
// that yields a different Config. Edits that parse to the same Config are ignored.
type configWatcher struct {
	*logger.Logger

	path    string
	changed chan struct{}
	last    uint64
}

func newConfigWatcher(path string, log *logger.Logger) *configWatcher {
	w := &configWatcher{
		Logger:  log,
		path:    filepath.Clean(path),
		changed: make(chan struct{}, 1),
	}
	if cfg, err := LoadConfig(path); err == nil {
		w.last = configHash(cfg)
	}
	return w
}

// run watches the file's directory: editors replace files by rename, which drops a watch on the file itself.
func (w *configWatcher) run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Warningf("watching '%s': %v", w.path, err)
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.check()
		}
	}
}

func (w *configWatcher) check() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		w.Debugf("config '%s' not reloaded: %v", w.path, err)
		return
	}
	h := configHash(cfg)
	if h == w.last {
		return
	}
	w.last = h

	select {
	case w.changed <- struct{}{}:
	default:
	}
}

func configHash(cfg Config) uint64 {
	h, _ := hashstructure.Hash(cfg, nil)
	return h
}
