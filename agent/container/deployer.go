// SPDX-License-Identifier: GPL-3.0-or-later

package container

import (
	"context"
	"errors"
	"sync"

	"github.com/netdata/hostprobe/agent/mbus"
)

// CheckForUpdates runs the host deployer's check for name under its "serviced" mark:
// IDLE -> IN_SERVICE -> IDLE. If the mark is already set nothing happens. Once set by this call,
// the mark is always cleared, even when ctx is cancelled during the check.
func (a *tomcatAdaptor) CheckForUpdates(ctx context.Context, name string) error {
	name = normalizeName(name)

	acquired, err := a.markServiced(ctx, name)
	if err != nil || !acquired {
		return err
	}
	defer a.clearServiced(ctx, name)

	a.Debugf("deployer: checking '%s'", name)
	_, err = a.bus.Invoke(ctx, a.deployerName, "check", name)
	return err
}

// markServiced is the test-and-set half of the guard. The host offers no atomic test-and-set,
// so callers in this process are serialized per name around the two calls.
func (a *tomcatAdaptor) markServiced(ctx context.Context, name string) (bool, error) {
	unlock := a.guard.Lock(name)
	defer unlock()

	v, err := a.bus.Invoke(ctx, a.deployerName, "isServiced", name)
	if err != nil {
		return false, err
	}
	serviced, err := v.Bool()
	if err != nil {
		return false, err
	}
	if serviced {
		a.Debugf("deployer: '%s' is already serviced, skipping check", name)
		return false, nil
	}

	if _, err := a.bus.Invoke(ctx, a.deployerName, "addServiced", name); err != nil {
		// the host may have applied the mark before the reply was lost
		if !errors.Is(err, mbus.ErrNotFound) {
			a.clearServiced(ctx, name)
		}
		return false, err
	}
	return true, nil
}

func (a *tomcatAdaptor) clearServiced(ctx context.Context, name string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.clearTimeout)
	defer cancel()

	if _, err := a.bus.Invoke(ctx, a.deployerName, "removeServiced", name); err != nil {
		a.Errorf("deployer: failed to clear serviced mark of '%s': %v", name, err)
	}
}

// keyedMutex hands out one mutex per key and drops it once nobody holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()

	return func() {
		m.Unlock()
		k.mu.Lock()
		if m.refs--; m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
