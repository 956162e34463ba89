// SPDX-License-Identifier: GPL-3.0-or-later

package resource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/netdata/hostprobe/agent/container"
	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/model"
)

const dataSourceClass = "javax.sql.DataSource"

type tomcatResolver struct {
	*base
	adaptor container.Adaptor
}

func newTomcatResolver(b *base, adaptor container.Adaptor) *tomcatResolver {
	return &tomcatResolver{base: b, adaptor: adaptor}
}

func (r *tomcatResolver) Name() string                   { return KindTomcat }
func (r *tomcatResolver) SupportsPrivateResources() bool { return true }
func (r *tomcatResolver) SupportsGlobalResources() bool  { return true }
func (r *tomcatResolver) SupportsDataSourceLookup() bool { return true }

func (r *tomcatResolver) ListGlobalResources(ctx context.Context) ([]model.ApplicationResource, error) {
	pattern, err := mbus.ParseObjectName(r.adaptor.EngineName() + ":type=DataSource,class=" + dataSourceClass + ",name=*")
	if err != nil {
		return nil, err
	}
	names, err := r.queryPools(ctx, pattern)
	if err != nil {
		return nil, err
	}

	return collect(ctx, r.base, names, func(ctx context.Context, on mbus.ObjectName) (*model.ApplicationResource, error) {
		info, err := r.readPool(ctx, on)
		if err != nil {
			return nil, err
		}
		return &model.ApplicationResource{
			Name:     on.Key("name"),
			Kind:     model.KindPool,
			Type:     dataSourceClass,
			Auth:     model.AuthContainer,
			LookedUp: true,
			Pool:     info,
		}, nil
	}), nil
}

func (r *tomcatResolver) ListApplicationResources(ctx context.Context, app *container.Application) ([]model.ApplicationResource, error) {
	var declared []model.ApplicationResource
	if err := r.adaptor.AddContextResource(ctx, app, &declared); err != nil {
		return r.degrade(app, err)
	}
	if err := r.adaptor.AddContextResourceLink(ctx, app, &declared); err != nil {
		return r.degrade(app, err)
	}

	var resources []model.ApplicationResource
	for _, res := range declared {
		if r.filter.MatchString(res.Name) {
			resources = append(resources, res)
		}
	}

	return collect(ctx, r.base, resources, func(ctx context.Context, res model.ApplicationResource) (*model.ApplicationResource, error) {
		r.enrich(ctx, app, &res)
		return &res, nil
	}), nil
}

func (r *tomcatResolver) degrade(app *container.Application, err error) ([]model.ApplicationResource, error) {
	if mbus.IsUnavailable(err) {
		r.Warningf("list resources of '%s': %v", app.DisplayPath(), err)
		return nil, nil
	}
	return nil, err
}

// enrich attaches the live pool state. A resource whose pool cannot be read is kept unenriched.
func (r *tomcatResolver) enrich(ctx context.Context, app *container.Application, res *model.ApplicationResource) {
	if res.Kind != model.KindPool {
		return
	}

	var on mbus.ObjectName
	var err error
	if res.LinkTo != "" {
		on, err = r.poolName(nil, res.LinkTo)
	} else {
		on, err = r.poolName(app, res.Name)
	}
	if err != nil {
		r.Debugf("resource '%s': %v", res.Name, err)
		return
	}

	info, err := r.readPool(ctx, on)
	if err != nil {
		r.Debugf("resource '%s' of '%s' not looked up: %v", res.Name, app.DisplayPath(), err)
		return
	}
	res.Pool = info
	res.LookedUp = true
}

func (r *tomcatResolver) ResetResource(ctx context.Context, app *container.Application, name string) (bool, error) {
	on, err := r.poolName(app, name)
	if err != nil {
		return false, err
	}
	return r.resetPool(ctx, on, name), nil
}

func (r *tomcatResolver) LookupDataSource(ctx context.Context, app *container.Application, name string) (*DataSource, error) {
	on, err := r.poolName(app, name)
	if err != nil {
		return nil, err
	}

	key := name
	url, err := mbus.GetString(ctx, r.bus, on, "url")
	if errors.Is(err, mbus.ErrNotFound) && app != nil {
		var global string
		if global, err = r.linkTarget(ctx, app, name); err != nil {
			return nil, err
		}
		if on, err = r.poolName(nil, global); err != nil {
			return nil, err
		}
		key = global
		url, err = mbus.GetString(ctx, r.bus, on, "url")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup '%s': %w", name, err)
	}

	username, err := mbus.GetString(ctx, r.bus, on, "username")
	if err != nil && !errors.Is(err, mbus.ErrNotFound) {
		return nil, fmt.Errorf("lookup '%s': %w", name, err)
	}

	cred, ok := r.credentials[name]
	if !ok {
		cred = r.credentials[key]
	}
	if cred.Username != "" {
		username = cred.Username
	}
	return NewDataSource(name, url, username, cred.Password)
}

func (r *tomcatResolver) linkTarget(ctx context.Context, app *container.Application, name string) (string, error) {
	var links []model.ApplicationResource
	if err := r.adaptor.AddContextResourceLink(ctx, app, &links); err != nil {
		return "", err
	}
	for _, l := range links {
		if l.Name == name && l.LinkTo != "" {
			return l.LinkTo, nil
		}
	}
	return "", fmt.Errorf("lookup '%s' of '%s': %w", name, app.DisplayPath(), container.ErrNotFound)
}

// poolName addresses the pool object of a resource. A nil app addresses a global pool.
func (r *tomcatResolver) poolName(app *container.Application, name string) (mbus.ObjectName, error) {
	if name == "" {
		return mbus.ObjectName{}, fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	var sb strings.Builder
	sb.WriteString(r.adaptor.EngineName())
	sb.WriteString(":type=DataSource")
	if app != nil {
		sb.WriteString(",host=" + mbus.QuoteIfNeeded(r.adaptor.HostName()))
		sb.WriteString(",context=" + mbus.QuoteIfNeeded(app.DisplayPath()))
	}
	sb.WriteString(",class=" + dataSourceClass)
	// the host always registers pool names quoted
	sb.WriteString(",name=" + mbus.Quote(name))

	on, err := mbus.ParseObjectName(sb.String())
	if err != nil {
		return mbus.ObjectName{}, fmt.Errorf("%w: '%s': %v", ErrInvalidName, name, err)
	}
	return on, nil
}

// readPool reads a pool of either flavour the host ships: dbcp2 or tomcat-jdbc.
func (r *tomcatResolver) readPool(ctx context.Context, on mbus.ObjectName) (*model.DataSourceInfo, error) {
	var info model.DataSourceInfo
	var err error

	if info.MaxConnections, err = mbus.GetFirstInt64(ctx, r.bus, on, "maxTotal", "maxActive"); err != nil {
		return nil, err
	}
	if info.BusyConnections, err = mbus.GetFirstInt64(ctx, r.bus, on, "numActive", "active"); err != nil {
		return nil, err
	}
	idle, err := mbus.GetFirstInt64(ctx, r.bus, on, "numIdle", "idle")
	if err != nil {
		return nil, err
	}
	info.EstablishedConnections = info.BusyConnections + idle

	for _, a := range []struct {
		attr string
		dst  *string
	}{
		{"url", &info.URL},
		{"username", &info.Username},
	} {
		s, err := mbus.GetString(ctx, r.bus, on, a.attr)
		if err != nil {
			if mbus.IsUnavailable(err) {
				return nil, err
			}
			continue
		}
		*a.dst = s
	}

	info.Resettable = true
	return &info, nil
}
