// SPDX-License-Identifier: GPL-3.0-or-later

// Package model holds the records handed to operators: resources, pools, filters and init parameters.
// They are snapshots, rebuilt on every query.
package model

import "strings"

type AuthMode string

const (
	AuthContainer   AuthMode = "Container"
	AuthApplication AuthMode = "Application"
	AuthBoth        AuthMode = "Both"
)

// ParseAuthMode maps a declared auth attribute. Anything unknown is container auth.
func ParseAuthMode(s string) AuthMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "application":
		return AuthApplication
	case "both":
		return AuthBoth
	}
	return AuthContainer
}

type ResourceKind string

const (
	KindPool      ResourceKind = "pool"
	KindMessaging ResourceKind = "messaging"
	KindOther     ResourceKind = "other"
)

// ApplicationResource is a named resource declared by an application or globally by the host.
type ApplicationResource struct {
	Name string `yaml:"name" json:"name"`
	// ApplicationName is empty for global resources.
	ApplicationName string       `yaml:"application,omitempty" json:"application,omitempty"`
	Kind            ResourceKind `yaml:"kind" json:"kind"`
	// Type is the host-native type, e.g. javax.sql.DataSource.
	Type        string   `yaml:"type,omitempty" json:"type,omitempty"`
	Auth        AuthMode `yaml:"auth,omitempty" json:"auth,omitempty"`
	Scope       string   `yaml:"scope,omitempty" json:"scope,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	// LinkTo names the global resource a link points to.
	LinkTo   string          `yaml:"link_to,omitempty" json:"link_to,omitempty"`
	LookedUp bool            `yaml:"looked_up" json:"looked_up"`
	Pool     *DataSourceInfo `yaml:"pool,omitempty" json:"pool,omitempty"`
}

func (r ApplicationResource) IsGlobal() bool { return r.ApplicationName == "" }

// KindOf classifies a host-native type string.
func KindOf(typ string) ResourceKind {
	switch {
	case strings.HasPrefix(typ, "javax.jms."), strings.HasPrefix(typ, "jakarta.jms."), typ == "jms":
		return KindMessaging
	case strings.HasSuffix(typ, ".DataSource"), strings.HasSuffix(typ, "DataSource"):
		return KindPool
	}
	return KindOther
}

// DataSourceInfo is the live state of a connection pool.
type DataSourceInfo struct {
	MaxConnections         int64  `yaml:"max" json:"max"`
	EstablishedConnections int64  `yaml:"established" json:"established"`
	BusyConnections        int64  `yaml:"busy" json:"busy"`
	URL                    string `yaml:"url,omitempty" json:"url,omitempty"`
	Username               string `yaml:"username,omitempty" json:"username,omitempty"`
	Resettable             bool   `yaml:"resettable" json:"resettable"`
}

// Usage returns busy connections as a percentage of the pool capacity.
func (d DataSourceInfo) Usage() float64 {
	if d.MaxConnections <= 0 {
		return 0
	}
	return float64(d.BusyConnections) * 100 / float64(d.MaxConnections)
}

type FilterInfo struct {
	Name        string `yaml:"name" json:"name"`
	Class       string `yaml:"class" json:"class"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Dispatcher values of a filter mapping. Combined or unknown dispatcher sets are reported as "".
const (
	DispatcherRequest = "REQUEST"
	DispatcherForward = "FORWARD"
	DispatcherInclude = "INCLUDE"
	DispatcherError   = "ERROR"
)

// FilterMapping binds a filter to either a URL pattern or a handler (servlet) name.
type FilterMapping struct {
	FilterName  string `yaml:"filter" json:"filter"`
	FilterClass string `yaml:"class" json:"class"`
	URL         string `yaml:"url,omitempty" json:"url,omitempty"`
	ServletName string `yaml:"servlet,omitempty" json:"servlet,omitempty"`
	Dispatcher  string `yaml:"dispatcher" json:"dispatcher"`
}

// ApplicationParam is an effective init parameter of an application.
type ApplicationParam struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
	// FromDeploymentDescriptor is a best-effort guess; see container.Adaptor.GetApplicationInitParams.
	FromDeploymentDescriptor bool `yaml:"from_deployment_descriptor" json:"from_deployment_descriptor"`
}
