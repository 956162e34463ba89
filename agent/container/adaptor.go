// SPDX-License-Identifier: GPL-3.0-or-later

// Package container normalizes the version-specific management surface of the servlet host
// behind one Adaptor. Nothing above this package branches on the host version.
package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/model"
	"github.com/netdata/hostprobe/logger"
)

// Adaptor is the stable contract over every supported host version.
type Adaptor interface {
	Variant() string
	Banner() string
	HostName() string
	EngineName() string
	// AppBase is the host application base, resolved against the catalina base when relative.
	AppBase(ctx context.Context) (string, error)

	FindApplications(ctx context.Context) ([]*Application, error)
	// FindApplication returns nil, nil when no application is deployed under name.
	FindApplication(ctx context.Context, name string) (*Application, error)
	// CheckForUpdates asks the host deployer to check name for redeploy or reload.
	// It is a no-op while the deployer already services name.
	CheckForUpdates(ctx context.Context, name string) error

	GetApplicationFilters(ctx context.Context, app *Application) ([]model.FilterInfo, error)
	GetApplicationFilterMaps(ctx context.Context, app *Application) ([]model.FilterMapping, error)
	GetApplicationInitParams(ctx context.Context, app *Application) ([]model.ApplicationParam, error)

	AddContextResource(ctx context.Context, app *Application, to *[]model.ApplicationResource) error
	AddContextResourceLink(ctx context.Context, app *Application, to *[]model.ApplicationResource) error

	ResourceExists(ctx context.Context, app *Application, name string) bool
	GetResourceStream(ctx context.Context, app *Application, name string) (io.ReadCloser, error)
	GetResourceAttributes(ctx context.Context, app *Application, name string) (ResourceAttributes, error)

	// BindToContext returns a context carrying a binding to the application's naming scope.
	BindToContext(ctx context.Context, app *Application) (context.Context, error)
	UnbindFromContext(ctx context.Context, app *Application) error
}

// Application is a deployed web application as seen on the bus.
type Application struct {
	// Name is the context path, "" for the root application.
	Name        string          `yaml:"name" json:"name"`
	BaseName    string          `yaml:"base_name,omitempty" json:"base_name,omitempty"`
	DocBase     string          `yaml:"doc_base,omitempty" json:"doc_base,omitempty"`
	DisplayName string          `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	State       string          `yaml:"state" json:"state"`
	ObjectName  mbus.ObjectName `yaml:"-" json:"-"`
}

func (a *Application) Available() bool { return a.State == "STARTED" }

// DisplayPath is Name with the root application shown as "/".
func (a *Application) DisplayPath() string {
	if a.Name == "" {
		return "/"
	}
	return a.Name
}

type ResourceAttributes struct {
	Length       int64
	LastModified time.Time
}

// HostHandle is everything Attach needs to reach the host.
type HostHandle struct {
	Bus mbus.Client
	// Engine is the engine name, also the management domain of the host objects.
	Engine string
	Host   string
	// CatalinaBase resolves relative application bases.
	CatalinaBase string
	// Banner overrides the banner read from the host.
	Banner string
	Logger *logger.Logger
	// ClearTimeout bounds the deployer mark release, which runs even after the caller gave up.
	ClearTimeout time.Duration
}

const (
	defaultEngine       = "Catalina"
	defaultHost         = "localhost"
	defaultClearTimeout = 10 * time.Second
)

// Attach selects the variant for the host's banner and binds an Adaptor to the host.
// It is called once at startup.
func Attach(ctx context.Context, h HostHandle) (Adaptor, error) {
	if h.Bus == nil {
		return nil, errors.New("container: no management bus")
	}
	if h.Engine == "" {
		h.Engine = defaultEngine
	}
	if h.Host == "" {
		h.Host = defaultHost
	}
	if h.ClearTimeout <= 0 {
		h.ClearTimeout = defaultClearTimeout
	}

	banner := h.Banner
	if banner == "" {
		server, err := mbus.ParseObjectName(h.Engine + ":type=Server")
		if err != nil {
			return nil, fmt.Errorf("container: engine name %q: %v", h.Engine, err)
		}
		if banner, err = mbus.GetString(ctx, h.Bus, server, "serverInfo"); err != nil {
			return nil, fmt.Errorf("container: read server banner: %w", err)
		}
	}

	v, err := selectVariant(banner, variants)
	if err != nil {
		return nil, err
	}

	a, err := newTomcatAdaptor(v, banner, h)
	if err != nil {
		return nil, err
	}
	a.Infof("attached to '%s' as %s (engine '%s', host '%s')", banner, v.name, h.Engine, h.Host)
	return a, nil
}

// tomcatAdaptor is the shared core. Version differences live in its dialect.
type tomcatAdaptor struct {
	*logger.Logger

	variant string
	banner  string
	dialect dialect
	bus     mbus.Client

	engine       string
	host         string
	catalinaBase string
	clearTimeout time.Duration

	hostName     mbus.ObjectName
	deployerName mbus.ObjectName
	modules      mbus.ObjectName

	guard *keyedMutex
}

func newTomcatAdaptor(v variant, banner string, h HostHandle) (*tomcatAdaptor, error) {
	hostName, err := mbus.NewObjectName(h.Engine, "type", "Host", "host", h.Host)
	if err != nil {
		return nil, fmt.Errorf("container: %v", err)
	}
	deployerName, err := mbus.NewObjectName(h.Engine, "type", "Deployer", "host", h.Host)
	if err != nil {
		return nil, fmt.Errorf("container: %v", err)
	}
	modules, err := mbus.ParseObjectName(h.Engine + ":j2eeType=WebModule,*")
	if err != nil {
		return nil, fmt.Errorf("container: %v", err)
	}

	return &tomcatAdaptor{
		Logger:       h.Logger.With("component", "container", "variant", v.name),
		variant:      v.name,
		banner:       banner,
		dialect:      v.dialect,
		bus:          h.Bus,
		engine:       h.Engine,
		host:         h.Host,
		catalinaBase: h.CatalinaBase,
		clearTimeout: h.ClearTimeout,
		hostName:     hostName,
		deployerName: deployerName,
		modules:      modules,
		guard:        newKeyedMutex(),
	}, nil
}

func (a *tomcatAdaptor) Variant() string    { return a.variant }
func (a *tomcatAdaptor) Banner() string     { return a.banner }
func (a *tomcatAdaptor) HostName() string   { return a.host }
func (a *tomcatAdaptor) EngineName() string { return a.engine }

func (a *tomcatAdaptor) AppBase(ctx context.Context) (string, error) {
	base, err := mbus.GetString(ctx, a.bus, a.hostName, "appBase")
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(base) {
		base = filepath.Join(a.catalinaBase, base)
	}
	return base, nil
}
