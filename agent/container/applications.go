// SPDX-License-Identifier: GPL-3.0-or-later

package container

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/netdata/hostprobe/agent/mbus"
)

func normalizeName(name string) string {
	if name == "/" {
		return ""
	}
	return name
}

func (a *tomcatAdaptor) moduleName(path string) (mbus.ObjectName, error) {
	if path == "" {
		path = "/"
	}
	return mbus.NewObjectName(a.engine,
		"j2eeType", "WebModule",
		"name", "//"+a.host+path,
		"J2EEApplication", "none",
		"J2EEServer", "none",
	)
}

func (a *tomcatAdaptor) FindApplications(ctx context.Context) ([]*Application, error) {
	names, err := a.bus.QueryNames(ctx, a.modules)
	if err != nil {
		return nil, err
	}

	prefix := "//" + a.host + "/"
	var apps []*Application
	for _, on := range names {
		if !strings.HasPrefix(on.Key("name"), prefix) {
			continue
		}
		app, err := a.readApplication(ctx, on)
		if err != nil {
			if mbus.IsUnavailable(err) {
				return nil, err
			}
			a.Warningf("skip web module '%s': %v", on, err)
			continue
		}
		apps = append(apps, app)
	}

	sort.Slice(apps, func(i, j int) bool { return apps[i].Name < apps[j].Name })
	return apps, nil
}

func (a *tomcatAdaptor) FindApplication(ctx context.Context, name string) (*Application, error) {
	on, err := a.moduleName(normalizeName(name))
	if err != nil {
		return nil, nil
	}
	app, err := a.readApplication(ctx, on)
	if errors.Is(err, mbus.ErrNotFound) {
		return nil, nil
	}
	return app, err
}

func (a *tomcatAdaptor) readApplication(ctx context.Context, on mbus.ObjectName) (*Application, error) {
	state, err := mbus.GetString(ctx, a.bus, on, "stateName")
	if err != nil {
		return nil, err
	}

	app := &Application{
		Name:       normalizeName(strings.TrimPrefix(on.Key("name"), "//"+a.host)),
		State:      state,
		ObjectName: on,
	}

	for _, f := range []struct {
		attr string
		dst  *string
	}{
		{"path", &app.Name},
		{"baseName", &app.BaseName},
		{"docBase", &app.DocBase},
		{"displayName", &app.DisplayName},
	} {
		v, err := mbus.GetString(ctx, a.bus, on, f.attr)
		switch {
		case err == nil:
			*f.dst = v
		case mbus.IsUnavailable(err):
			return nil, err
		default:
			a.Debugf("web module '%s' attribute '%s': %v", on, f.attr, err)
		}
	}
	app.Name = normalizeName(app.Name)

	return app, nil
}
