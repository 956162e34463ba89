// SPDX-License-Identifier: GPL-3.0-or-later

// Package mbus is a synchronous client for the host's management bus:
// named objects exposing attributes and operations.
package mbus

import "context"

//go:generate mockgen -destination=mock_mbus/mock_client.go -package=mock_mbus . Client

// Client queries and invokes objects on the management bus.
// Every failure is an *Error wrapping ErrUnavailable, ErrNotFound, ErrTypeMismatch or ErrRemote.
// Invoke may change host state and is never retried.
type Client interface {
	// FindServer returns the server that hosts domainHint, or nil if none does.
	FindServer(ctx context.Context, domainHint string) (*ServerHandle, error)
	GetAttribute(ctx context.Context, name ObjectName, attr string) (Value, error)
	Invoke(ctx context.Context, name ObjectName, op string, args ...any) (Value, error)
	QueryNames(ctx context.Context, pattern ObjectName) ([]ObjectName, error)
}

// ServerHandle describes the server behind the bus.
type ServerHandle struct {
	Domain  string
	Product string
	Vendor  string
	Version string
	Agent   string
}

// GetInt64 reads an integer attribute.
func GetInt64(ctx context.Context, c Client, name ObjectName, attr string) (int64, error) {
	v, err := c.GetAttribute(ctx, name, attr)
	if err != nil {
		return 0, err
	}
	return v.Int64()
}

// GetString reads a string attribute.
func GetString(ctx context.Context, c Client, name ObjectName, attr string) (string, error) {
	v, err := c.GetAttribute(ctx, name, attr)
	if err != nil {
		return "", err
	}
	return v.String()
}

// GetFirstInt64 reads the first of attrs the object has. Pool implementations name the same
// counter differently.
func GetFirstInt64(ctx context.Context, c Client, name ObjectName, attrs ...string) (int64, error) {
	var lastErr error
	for _, attr := range attrs {
		n, err := GetInt64(ctx, c, name, attr)
		if err == nil {
			return n, nil
		}
		if IsUnavailable(err) {
			return 0, err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = &Error{Op: "read", Name: name.String(), Err: ErrNotFound}
	}
	return 0, lastErr
}
