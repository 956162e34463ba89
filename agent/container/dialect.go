// SPDX-License-Identifier: GPL-3.0-or-later

package container

import (
	"github.com/netdata/hostprobe/agent/mbus"
	"github.com/netdata/hostprobe/agent/model"
)

// dialect is what differs between host major versions.
type dialect struct {
	// decodeDispatcher turns a serialized filter map into a dispatcher tag.
	decodeDispatcher func(filterMap mbus.Value) string
	// namingToken is false when the host predates per-context naming tokens
	// and only the null token is accepted.
	namingToken bool
}

var (
	tomcat7Dialect = dialect{
		decodeDispatcher: dispatcherFromMask,
		namingToken:      false,
	}
	tomcat80Dialect = dialect{
		decodeDispatcher: dispatcherFromMask,
		namingToken:      true,
	}
	tomcat85Dialect = dialect{
		decodeDispatcher: dispatcherFromNames,
		namingToken:      true,
	}
	tomcat9Dialect  = tomcat85Dialect
	tomcat10Dialect = tomcat85Dialect
)

// Filter map dispatcher bits as serialized by hosts up to 8.0.
const (
	maskError   = 1
	maskForward = 2
	maskInclude = 4
	maskRequest = 8
)

func dispatcherFromMask(fm mbus.Value) string {
	n, err := fm.Get("dispatcherMapping").Int64()
	if err != nil {
		return ""
	}
	switch n {
	case maskError:
		return model.DispatcherError
	case maskForward:
		return model.DispatcherForward
	case maskInclude:
		return model.DispatcherInclude
	case maskRequest:
		return model.DispatcherRequest
	}
	return ""
}

func dispatcherFromNames(fm mbus.Value) string {
	names, err := fm.Get("dispatcherNames").Strings()
	if err != nil || len(names) != 1 {
		return ""
	}
	switch names[0] {
	case model.DispatcherError, model.DispatcherForward, model.DispatcherInclude, model.DispatcherRequest:
		return names[0]
	}
	return ""
}
