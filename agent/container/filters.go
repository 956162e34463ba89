// SPDX-License-Identifier: GPL-3.0-or-later

package container

import (
	"context"
	"sort"

	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/model"
)

func (a *tomcatAdaptor) GetApplicationFilters(ctx context.Context, app *Application) ([]model.FilterInfo, error) {
	defs, err := a.filterDefs(ctx, app)
	if err != nil {
		return nil, err
	}

	filters := make([]model.FilterInfo, 0, len(defs))
	for _, def := range defs {
		filters = append(filters, model.FilterInfo{
			Name:        str(def.Get("filterName")),
			Class:       str(def.Get("filterClass")),
			Description: str(def.Get("description")),
		})
	}
	return filters, nil
}

// GetApplicationFilterMaps flattens every filter map into one mapping per URL pattern
// followed by one per servlet name.
func (a *tomcatAdaptor) GetApplicationFilterMaps(ctx context.Context, app *Application) ([]model.FilterMapping, error) {
	v, err := a.bus.Invoke(ctx, app.ObjectName, "findFilterMaps")
	if err != nil {
		return nil, err
	}
	maps, err := v.Array()
	if err != nil {
		return nil, err
	}
	if len(maps) == 0 {
		return nil, nil
	}

	defs, err := a.filterDefs(ctx, app)
	if err != nil {
		return nil, err
	}
	classes := make(map[string]string, len(defs))
	for _, def := range defs {
		classes[str(def.Get("filterName"))] = str(def.Get("filterClass"))
	}

	var mappings []model.FilterMapping
	for _, fm := range maps {
		if fm.IsNull() {
			continue
		}
		mappings = append(mappings, a.filterMappings(fm, classes)...)
	}
	return mappings, nil
}

func (a *tomcatAdaptor) filterMappings(fm mbus.Value, classes map[string]string) []model.FilterMapping {
	name := str(fm.Get("filterName"))
	dispatcher := a.dialect.decodeDispatcher(fm)
	class := classes[name]

	urls, _ := fm.Get("URLPatterns").Strings()
	servlets, _ := fm.Get("servletNames").Strings()

	out := make([]model.FilterMapping, 0, len(urls)+len(servlets))
	for _, url := range urls {
		out = append(out, model.FilterMapping{FilterName: name, FilterClass: class, URL: url, Dispatcher: dispatcher})
	}
	for _, servlet := range servlets {
		out = append(out, model.FilterMapping{FilterName: name, FilterClass: class, ServletName: servlet, Dispatcher: dispatcher})
	}
	return out
}

func (a *tomcatAdaptor) filterDefs(ctx context.Context, app *Application) ([]mbus.Value, error) {
	v, err := a.bus.Invoke(ctx, app.ObjectName, "findFilterDefs")
	if err != nil {
		return nil, err
	}
	defs, err := v.Array()
	if err != nil {
		return nil, err
	}
	out := defs[:0]
	for _, d := range defs {
		if !d.IsNull() {
			out = append(out, d)
		}
	}
	return out, nil
}

// GetApplicationInitParams lists the effective init parameters. A parameter counts as coming
// from the deployment descriptor when the descriptor declares it and the context descriptor
// does not pin it with override=false. The host does not expose provenance, so this is a guess;
// ties go to "not from the deployment descriptor".
func (a *tomcatAdaptor) GetApplicationInitParams(ctx context.Context, app *Application) ([]model.ApplicationParam, error) {
	v, err := a.bus.Invoke(ctx, app.ObjectName, "findApplicationParameters")
	if err != nil {
		return nil, err
	}
	appParams, err := v.Array()
	if err != nil {
		return nil, err
	}

	nonOverridable := make(map[string]bool)
	for _, p := range appParams {
		if p.IsNull() {
			continue
		}
		if override, err := p.Get("override").Bool(); err == nil && !override {
			nonOverridable[str(p.Get("name"))] = true
		}
	}

	v, err = a.bus.GetAttribute(ctx, app.ObjectName, "initParameters")
	if err != nil {
		return nil, err
	}
	effective, err := v.Map()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(effective))
	for name := range effective {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]model.ApplicationParam, 0, len(names))
	for _, name := range names {
		declared, err := a.bus.Invoke(ctx, app.ObjectName, "findParameter", name)
		if err != nil {
			return nil, err
		}
		params = append(params, model.ApplicationParam{
			Name:                     name,
			Value:                    str(effective[name]),
			FromDeploymentDescriptor: !declared.IsNull() && !nonOverridable[name],
		})
	}
	return params, nil
}

// str is Value.String for fields where a wrong type is as good as absent.
func str(v mbus.Value) string {
	s, _ := v.String()
	return s
}
