// SPDX-License-Identifier: GPL-3.0-or-later

// Package mbustest provides an in-memory management bus for tests.
package mbustest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/netdata/hostprobe/agent/mbus"
)

// OpFunc handles an operation invocation.
type OpFunc func(args []any) (any, error)

// Call records one request made to the bus.
type Call struct {
	Kind   string // read, exec, search
	Name   string
	Member string
	Args   []any
}

type Object struct {
	name mbus.ObjectName

	mu    sync.Mutex
	attrs map[string]any
	ops   map[string]OpFunc
}

// Set changes an attribute.
func (o *Object) Set(attr string, v any) *Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attrs[attr] = v
	return o
}

// On registers an operation handler.
func (o *Object) On(op string, fn OpFunc) *Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops[op] = fn
	return o
}

// Bus implements mbus.Client over registered objects.
type Bus struct {
	mu          sync.Mutex
	objects     map[string]*Object
	order       []string
	server      *mbus.ServerHandle
	unavailable bool
	failures    map[string]error
	calls       []Call
}

func New() *Bus {
	return &Bus{
		objects:  make(map[string]*Object),
		failures: make(map[string]error),
		server:   &mbus.ServerHandle{Product: "test", Agent: "mbustest"},
	}
}

// Add registers an object. It panics on a malformed name.
func (b *Bus) Add(name string, attrs map[string]any) *Object {
	on := mbus.MustParseObjectName(name)
	o := &Object{name: on, attrs: make(map[string]any), ops: make(map[string]OpFunc)}
	for k, v := range attrs {
		o.attrs[k] = v
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	key := on.Canonical()
	if _, ok := b.objects[key]; !ok {
		b.order = append(b.order, key)
	}
	b.objects[key] = o
	return o
}

// Object returns a registered object or nil.
func (b *Bus) Object(name string) *Object {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.objects[mbus.MustParseObjectName(name).Canonical()]
}

// Remove unregisters an object.
func (b *Bus) Remove(name string) {
	key := mbus.MustParseObjectName(name).Canonical()
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	for i, k := range b.order {
		if k == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

func (b *Bus) SetServer(h *mbus.ServerHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.server = h
}

// SetUnavailable makes every call fail with mbus.ErrUnavailable.
func (b *Bus) SetUnavailable(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unavailable = v
}

// FailOn makes kind ("read", "exec", "search") calls on name/member fail with err.
// An empty member matches every member.
func (b *Bus) FailOn(kind, name, member string, err error) {
	key := failureKey(kind, mbus.MustParseObjectName(name).Canonical(), member)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[key] = err
}

func (b *Bus) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Invocations lists the exec calls as "op name" strings in call order.
func (b *Bus) Invocations() []string {
	var out []string
	for _, c := range b.Calls() {
		if c.Kind == "exec" {
			out = append(out, c.Member+" "+c.Name)
		}
	}
	return out
}

func (b *Bus) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

func (b *Bus) FindServer(_ context.Context, domainHint string) (*mbus.ServerHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, Call{Kind: "version", Name: domainHint})
	if b.unavailable {
		return nil, &mbus.Error{Op: "version", Err: mbus.ErrUnavailable}
	}
	if domainHint == "" {
		return b.server, nil
	}
	for _, key := range b.order {
		if b.objects[key].name.Domain() == domainHint {
			h := *b.server
			h.Domain = domainHint
			return &h, nil
		}
	}
	return nil, nil
}

func (b *Bus) GetAttribute(_ context.Context, name mbus.ObjectName, attr string) (mbus.Value, error) {
	o, err := b.lookup("read", name, attr, nil)
	if err != nil {
		return mbus.Value{}, err
	}

	o.mu.Lock()
	v, ok := o.attrs[attr]
	o.mu.Unlock()
	if !ok {
		return mbus.Value{}, &mbus.Error{Op: "read", Name: name.String(), Member: attr, Err: mbus.ErrNotFound}
	}
	return toValue("read", name, attr, v)
}

func (b *Bus) Invoke(_ context.Context, name mbus.ObjectName, op string, args ...any) (mbus.Value, error) {
	o, err := b.lookup("exec", name, op, args)
	if err != nil {
		return mbus.Value{}, err
	}

	o.mu.Lock()
	fn, ok := o.ops[op]
	o.mu.Unlock()
	if !ok {
		return mbus.Value{}, &mbus.Error{Op: "exec", Name: name.String(), Member: op, Err: mbus.ErrNotFound}
	}

	res, err := fn(args)
	if err != nil {
		var me *mbus.Error
		if errors.As(err, &me) {
			return mbus.Value{}, err
		}
		return mbus.Value{}, &mbus.Error{Op: "exec", Name: name.String(), Member: op, Err: mbus.ErrRemote, Detail: err.Error()}
	}
	return toValue("exec", name, op, res)
}

func (b *Bus) QueryNames(_ context.Context, pattern mbus.ObjectName) ([]mbus.ObjectName, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, Call{Kind: "search", Name: pattern.String()})
	if b.unavailable {
		return nil, &mbus.Error{Op: "search", Name: pattern.String(), Err: mbus.ErrUnavailable}
	}
	if err := b.failures[failureKey("search", pattern.Canonical(), "")]; err != nil {
		return nil, err
	}

	var names []mbus.ObjectName
	for _, key := range b.order {
		if on := b.objects[key].name; pattern.Match(on) {
			names = append(names, on)
		}
	}
	return names, nil
}

func (b *Bus) lookup(kind string, name mbus.ObjectName, member string, args []any) (*Object, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, Call{Kind: kind, Name: name.String(), Member: member, Args: args})

	if b.unavailable {
		return nil, &mbus.Error{Op: kind, Name: name.String(), Member: member, Err: mbus.ErrUnavailable}
	}
	key := name.Canonical()
	for _, fk := range []string{failureKey(kind, key, member), failureKey(kind, key, "")} {
		if err := b.failures[fk]; err != nil {
			return nil, err
		}
	}

	o, ok := b.objects[key]
	if !ok {
		return nil, &mbus.Error{Op: kind, Name: name.String(), Member: member, Err: mbus.ErrNotFound}
	}
	return o, nil
}

func toValue(kind string, name mbus.ObjectName, member string, v any) (mbus.Value, error) {
	if raw, ok := v.(mbus.Value); ok {
		return raw, nil
	}
	val, err := mbus.ValueOf(v)
	if err != nil {
		return mbus.Value{}, &mbus.Error{Op: kind, Name: name.String(), Member: member, Err: mbus.ErrTypeMismatch, Detail: err.Error()}
	}
	return val, nil
}

func failureKey(kind, name, member string) string {
	return strings.Join([]string{kind, name, member}, "|")
}

// Err is a shortcut for a bus error of the given kind, for use in FailOn.
func Err(kind error, format string, a ...any) error {
	return &mbus.Error{Op: "test", Err: kind, Detail: fmt.Sprintf(format, a...)}
}
