// SPDX-License-Identifier: GPL-3.0-or-later

package container

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/model"
)

func (a *tomcatAdaptor) namingResourcesName(app *Application) (mbus.ObjectName, error) {
	return mbus.NewObjectName(a.engine, "type", "NamingResources", "context", app.DisplayPath(), "host", a.host)
}

// AddContextResource appends the resources the application declares.
func (a *tomcatAdaptor) AddContextResource(ctx context.Context, app *Application, to *[]model.ApplicationResource) error {
	return a.eachNamingEntry(ctx, app, "resources", func(on mbus.ObjectName) error {
		r := model.ApplicationResource{ApplicationName: app.Name}
		var auth string
		if err := a.readStrings(ctx, on, map[string]*string{
			"name":        &r.Name,
			"type":        &r.Type,
			"scope":       &r.Scope,
			"auth":        &auth,
			"description": &r.Description,
		}); err != nil {
			return err
		}
		if r.Name == "" {
			r.Name = on.Key("name")
		}
		r.Auth = model.ParseAuthMode(auth)
		r.Kind = model.KindOf(r.Type)

		a.Debugf("reading resource '%s' of '%s'", r.Name, app.DisplayPath())
		*to = append(*to, r)
		return nil
	})
}

// AddContextResourceLink appends the links to global resources the application declares.
func (a *tomcatAdaptor) AddContextResourceLink(ctx context.Context, app *Application, to *[]model.ApplicationResource) error {
	return a.eachNamingEntry(ctx, app, "resourceLinks", func(on mbus.ObjectName) error {
		r := model.ApplicationResource{ApplicationName: app.Name}
		if err := a.readStrings(ctx, on, map[string]*string{
			"name":   &r.Name,
			"type":   &r.Type,
			"global": &r.LinkTo,
		}); err != nil {
			return err
		}
		if r.Name == "" {
			r.Name = on.Key("name")
		}
		r.Kind = model.KindOf(r.Type)

		a.Debugf("reading resource link '%s' -> '%s' of '%s'", r.Name, r.LinkTo, app.DisplayPath())
		*to = append(*to, r)
		return nil
	})
}

func (a *tomcatAdaptor) eachNamingEntry(ctx context.Context, app *Application, attr string, fn func(mbus.ObjectName) error) error {
	nr, err := a.namingResourcesName(app)
	if err != nil {
		return err
	}
	v, err := a.bus.GetAttribute(ctx, nr, attr)
	if err != nil {
		return err
	}
	names, err := v.Strings()
	if err != nil {
		return err
	}

	for _, s := range names {
		on, err := mbus.ParseObjectName(s)
		if err != nil {
			a.Warningf("naming resources of '%s': %v", app.DisplayPath(), err)
			continue
		}
		if err := fn(on); err != nil {
			if mbus.IsUnavailable(err) {
				return err
			}
			a.Warningf("naming resources of '%s': skip '%s': %v", app.DisplayPath(), on, err)
		}
	}
	return nil
}

// readStrings reads string attributes. Missing attributes leave the destination empty.
func (a *tomcatAdaptor) readStrings(ctx context.Context, on mbus.ObjectName, attrs map[string]*string) error {
	for attr, dst := range attrs {
		s, err := mbus.GetString(ctx, a.bus, on, attr)
		switch {
		case err == nil:
			*dst = s
		case mbus.IsUnavailable(err):
			return err
		}
	}
	return nil
}

// Binding associates a caller scope with an application's naming scope.
type Binding struct {
	App   string
	Scope string
	token any
}

type bindingKey struct{}

// BindingFrom returns the binding carried by ctx.
func BindingFrom(ctx context.Context) (*Binding, bool) {
	b, ok := ctx.Value(bindingKey{}).(*Binding)
	return b, ok
}

func (a *tomcatAdaptor) BindToContext(ctx context.Context, app *Application) (context.Context, error) {
	token, err := a.namingToken(ctx, app)
	if err != nil {
		return ctx, &BindingError{App: app.DisplayPath(), Err: err}
	}

	b := &Binding{App: app.Name, Scope: uuid.NewString(), token: token}
	if _, err := a.bus.Invoke(ctx, app.ObjectName, "bindClassLoader", b.Scope, token); err != nil {
		return ctx, &BindingError{App: app.DisplayPath(), Err: err}
	}

	return context.WithValue(ctx, bindingKey{}, b), nil
}

func (a *tomcatAdaptor) UnbindFromContext(ctx context.Context, app *Application) error {
	b, ok := BindingFrom(ctx)
	if !ok || b.App != app.Name {
		return &BindingError{App: app.DisplayPath(), Err: errNotBound}
	}
	if _, err := a.bus.Invoke(ctx, app.ObjectName, "unbindClassLoader", b.Scope, b.token); err != nil {
		return &BindingError{App: app.DisplayPath(), Err: err}
	}
	return nil
}

// namingToken returns the token the host accepts for the application: the null token when
// allowed, otherwise the application's own token. Hosts without naming tokens only accept null.
func (a *tomcatAdaptor) namingToken(ctx context.Context, app *Application) (any, error) {
	ok, err := a.checkToken(ctx, app, nil)
	if err != nil || ok {
		return nil, err
	}
	if !a.dialect.namingToken {
		return nil, fmt.Errorf("%w: null token rejected", errInvalidToken)
	}

	v, err := a.bus.GetAttribute(ctx, app.ObjectName, "namingToken")
	if err != nil {
		return nil, err
	}
	var token any = v.Raw()
	if s, err := v.String(); err == nil {
		token = s
	}

	if ok, err = a.checkToken(ctx, app, token); err != nil {
		return nil, err
	}
	if !ok {
		a.Error("couldn't get a valid security token, naming scope binding will fail")
		return nil, errInvalidToken
	}
	return token, nil
}

func (a *tomcatAdaptor) checkToken(ctx context.Context, app *Application, token any) (bool, error) {
	v, err := a.bus.Invoke(ctx, app.ObjectName, "checkSecurityToken", token)
	if err != nil {
		return false, err
	}
	return v.Bool()
}
