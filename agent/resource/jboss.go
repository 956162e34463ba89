// SPDX-License-Identifier: GPL-3.0-or-later

package resource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/netdata/hostprobe/agent/container"
	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/model"
)

const (
	jbossDomain  = "jboss.jca"
	jbossPools   = jbossDomain + ":service=ManagedConnectionPool,*"
	jbossPoolKey = jbossDomain + ":service=ManagedConnectionPool,name="
)

type jbossResolver struct {
	*base
}

func newJBossResolver(b *base) *jbossResolver {
	return &jbossResolver{base: b}
}

func (r *jbossResolver) Name() string                   { return KindJBoss }
func (r *jbossResolver) SupportsPrivateResources() bool { return false }
func (r *jbossResolver) SupportsGlobalResources() bool  { return true }
func (r *jbossResolver) SupportsDataSourceLookup() bool { return false }

func (r *jbossResolver) ListGlobalResources(ctx context.Context) ([]model.ApplicationResource, error) {
	names, err := r.queryPools(ctx, mbus.MustParseObjectName(jbossPools))
	if err != nil {
		return nil, err
	}
	return collect(ctx, r.base, names, r.readPool), nil
}

func (r *jbossResolver) ListApplicationResources(context.Context, *container.Application) ([]model.ApplicationResource, error) {
	return nil, nil
}

func (r *jbossResolver) ResetResource(ctx context.Context, _ *container.Application, name string) (bool, error) {
	on, err := mbus.ParseObjectName(jbossPoolKey + name)
	if err != nil {
		return false, fmt.Errorf("%w: '%s' makes a malformed object name: %v", ErrInvalidName, name, err)
	}
	if on.IsPattern() {
		return false, fmt.Errorf("%w: '%s' makes an object name pattern", ErrInvalidName, name)
	}
	return r.resetPool(ctx, on, name), nil
}

func (r *jbossResolver) LookupDataSource(context.Context, *container.Application, string) (*DataSource, error) {
	return nil, fmt.Errorf("jboss: data source lookup: %w", ErrUnsupported)
}

func (r *jbossResolver) readPool(ctx context.Context, on mbus.ObjectName) (*model.ApplicationResource, error) {
	res := &model.ApplicationResource{
		Name: on.Key("name"),
		Kind: model.KindPool,
		Type: "jboss",
	}

	criteria, err := mbus.GetString(ctx, r.bus, on, "Criteria")
	if err != nil && !errors.Is(err, mbus.ErrNotFound) {
		return nil, err
	}
	res.Auth = authFromCriteria(criteria)

	info := &model.DataSourceInfo{Resettable: true}
	for _, a := range []struct {
		attr string
		dst  *int64
	}{
		{"MaxSize", &info.MaxConnections},
		{"ConnectionCount", &info.EstablishedConnections},
		{"InUseConnectionCount", &info.BusyConnections},
	} {
		if *a.dst, err = mbus.GetInt64(ctx, r.bus, on, a.attr); err != nil {
			return nil, err
		}
	}

	factory, err := mbus.NewObjectName(jbossDomain, "service", "ManagedConnectionFactory", "name", res.Name)
	if err != nil {
		return nil, err
	}
	v, err := r.bus.GetAttribute(ctx, factory, "ManagedConnectionFactoryProperties")
	switch {
	case mbus.IsUnavailable(err):
		return nil, err
	case err != nil:
		r.Debugf("pool '%s': no factory properties: %v", res.Name, err)
	default:
		props, err := parseFactoryProperties(v)
		if err != nil {
			r.Warningf("pool '%s': factory properties: %v", res.Name, err)
			break
		}
		info.URL = props["ConnectionURL"]
		info.Username = props["UserName"]
		if jndi, ok := props["JmsProviderAdapterJNDI"]; ok {
			info.URL = jndi
			res.Type = "jms"
			res.Kind = model.KindMessaging
		}
	}

	res.Pool = info
	res.LookedUp = true
	return res, nil
}

func authFromCriteria(criteria string) model.AuthMode {
	switch criteria {
	case "ByApplication":
		return model.AuthApplication
	case "ByContainerAndApplication":
		return model.AuthBoth
	}
	return model.AuthContainer
}

// parseFactoryProperties reads the connection factory properties document.
// The bridge hands it over either as the serialized XML element
// (<properties><config-property name="ConnectionURL">...</config-property></properties>)
// or as a JSON object of property names to values.
func parseFactoryProperties(v mbus.Value) (map[string]string, error) {
	if v.IsNull() {
		return nil, nil
	}

	if m, err := v.Map(); err == nil {
		props := make(map[string]string, len(m))
		for k, e := range m {
			s, err := e.String()
			if err != nil {
				return nil, fmt.Errorf("property '%s': %v", k, err)
			}
			props[k] = s
		}
		return props, nil
	}

	doc, err := v.String()
	if err != nil {
		return nil, err
	}
	root, err := xmlquery.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("invalid XML: %v", err)
	}
	nodes, err := xmlquery.QueryAll(root, "//*[@name]")
	if err != nil {
		return nil, err
	}

	props := make(map[string]string, len(nodes))
	for _, n := range nodes {
		props[n.SelectAttr("name")] = strings.TrimSpace(n.InnerText())
	}
	return props, nil
}
