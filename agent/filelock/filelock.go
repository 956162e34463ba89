// SPDX-License-Identifier: GPL-3.0-or-later

// Package filelock keeps two probes from monitoring the same host at once.
package filelock

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/gohugoio/hashstructure"
)

// ErrLocked means another process monitors the target.
var ErrLocked = errors.New("target is locked by another process")

const suffix = ".hostprobe.lock"

func New(dir string) *Locker {
	return &Locker{
		dir:  dir,
		held: make(map[string]*flock.Flock),
	}
}

type Locker struct {
	dir string

	mu   sync.Mutex
	held map[string]*flock.Flock
}

// Acquire locks target, any hashable value identifying a monitored host.
// Acquiring a target this Locker already holds succeeds. The returned func releases the lock.
func (l *Locker) Acquire(target any) (func(), error) {
	name, err := Name(target)
	if err != nil {
		return nil, err
	}
	filename := filepath.Join(l.dir, name+suffix)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[filename]; !ok {
		fl := flock.New(filename)
		ok, err := fl.TryLock()
		if err != nil {
			_ = fl.Close()
			return nil, fmt.Errorf("lock '%s': %v", filename, err)
		}
		if !ok {
			_ = fl.Close()
			return nil, fmt.Errorf("lock '%s': %w", filename, ErrLocked)
		}
		l.held[filename] = fl
	}

	return func() { l.release(filename) }, nil
}

func (l *Locker) release(filename string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if fl, ok := l.held[filename]; ok {
		delete(l.held, filename)
		_ = fl.Close()
	}
}

// ReleaseAll drops every lock this Locker holds.
func (l *Locker) ReleaseAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for filename, fl := range l.held {
		delete(l.held, filename)
		_ = fl.Close()
	}
}

func (l *Locker) holds(target any) bool {
	name, err := Name(target)
	if err != nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[filepath.Join(l.dir, name+suffix)]
	return ok
}

// Name derives a stable lock name from target.
func Name(target any) (string, error) {
	h, err := hashstructure.Hash(target, nil)
	if err != nil {
		return "", fmt.Errorf("hash lock target: %v", err)
	}
	return fmt.Sprintf("target-%016x", h), nil
}
