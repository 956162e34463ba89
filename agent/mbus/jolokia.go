// SPDX-License-Identifier: GPL-3.0-or-later

package mbus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/netdata/hostprobe/logger"
	"github.com/netdata/hostprobe/pkg/confopt"
	"github.com/netdata/hostprobe/pkg/web"
)

// JolokiaConfig configures the HTTP bridge to the bus.
type JolokiaConfig struct {
	web.HTTPConfig `yaml:",inline" json:""`
	// MaxDepth limits how deep composite values are serialized by the agent.
	MaxDepth int `yaml:"max_depth,omitempty" json:"max_depth"`
}

func DefaultJolokiaConfig() JolokiaConfig {
	return JolokiaConfig{
		HTTPConfig: web.HTTPConfig{
			RequestConfig: web.RequestConfig{URL: "http://127.0.0.1:8080/jolokia"},
			ClientConfig:  web.ClientConfig{Timeout: confopt.Duration(5 * time.Second)},
		},
		MaxDepth: 6,
	}
}

// JolokiaClient talks to the bus through a Jolokia agent using its POST protocol.
type JolokiaClient struct {
	*logger.Logger

	cfg        JolokiaConfig
	httpClient *http.Client
}

func NewJolokiaClient(cfg JolokiaConfig, log *logger.Logger) (*JolokiaClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("jolokia: 'url' not set")
	}
	httpClient, err := web.NewHTTPClient(cfg.ClientConfig)
	if err != nil {
		return nil, fmt.Errorf("jolokia: init http client: %v", err)
	}
	return &JolokiaClient{
		Logger:     log.With("component", "jolokia"),
		cfg:        cfg,
		httpClient: httpClient,
	}, nil
}

type jolokiaRequest struct {
	Type      string         `json:"type"`
	MBean     string         `json:"mbean,omitempty"`
	Attribute string         `json:"attribute,omitempty"`
	Operation string         `json:"operation,omitempty"`
	Arguments []any          `json:"arguments,omitempty"`
	Config    map[string]any `json:"config,omitempty"`
}

func (c *JolokiaClient) FindServer(ctx context.Context, domainHint string) (*ServerHandle, error) {
	if domainHint != "" {
		pattern, err := ParseObjectName(domainHint + ":*")
		if err != nil {
			return nil, err
		}
		names, err := c.QueryNames(ctx, pattern)
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			return nil, nil
		}
	}

	v, err := c.do(ctx, jolokiaRequest{Type: "version"}, "", "")
	if err != nil {
		return nil, err
	}

	h := &ServerHandle{
		Domain: domainHint,
		Agent:  v.Get("agent").r.String(),
	}
	h.Product = v.Get("info.product").r.String()
	h.Vendor = v.Get("info.vendor").r.String()
	h.Version = v.Get("info.version").r.String()
	return h, nil
}

func (c *JolokiaClient) GetAttribute(ctx context.Context, name ObjectName, attr string) (Value, error) {
	return c.do(ctx, jolokiaRequest{Type: "read", MBean: name.String(), Attribute: attr}, name.String(), attr)
}

func (c *JolokiaClient) Invoke(ctx context.Context, name ObjectName, op string, args ...any) (Value, error) {
	req := jolokiaRequest{Type: "exec", MBean: name.String(), Operation: op, Arguments: args}
	return c.do(ctx, req, name.String(), op)
}

func (c *JolokiaClient) QueryNames(ctx context.Context, pattern ObjectName) ([]ObjectName, error) {
	v, err := c.do(ctx, jolokiaRequest{Type: "search", MBean: pattern.String()}, pattern.String(), "")
	if err != nil {
		return nil, err
	}
	raw, err := v.Strings()
	if err != nil {
		return nil, &Error{Op: "search", Name: pattern.String(), Err: ErrTypeMismatch, Detail: err.Error()}
	}

	names := make([]ObjectName, 0, len(raw))
	for _, s := range raw {
		on, err := ParseObjectName(s)
		if err != nil {
			c.Debugf("skip object name: %v", err)
			continue
		}
		names = append(names, on)
	}
	return names, nil
}

func (c *JolokiaClient) do(ctx context.Context, jr jolokiaRequest, name, member string) (Value, error) {
	if c.cfg.MaxDepth > 0 && jr.Type != "version" {
		jr.Config = map[string]any{"maxDepth": c.cfg.MaxDepth, "ignoreErrors": false}
	}

	body, err := json.Marshal(jr)
	if err != nil {
		return Value{}, newError(jr.Type, name, member, ErrTypeMismatch, "encode request: %v", err)
	}

	rc := c.cfg.RequestConfig.Copy()
	rc.Method = http.MethodPost
	rc.Body = string(body)
	if rc.Headers == nil {
		rc.Headers = make(map[string]string)
	}
	rc.Headers["Content-Type"] = "application/json"

	req, err := web.NewHTTPRequest(rc)
	if err != nil {
		return Value{}, newError(jr.Type, name, member, ErrUnavailable, "%v", err)
	}

	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return Value{}, newError(jr.Type, name, member, ErrUnavailable, "%v", err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return Value{}, newError(jr.Type, name, member, ErrUnavailable, "'%s' returned HTTP status code: %d", rc.URL, resp.StatusCode)
	}

	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		return Value{}, newError(jr.Type, name, member, ErrUnavailable, "read response: %v", err)
	}
	if !gjson.ValidBytes(bs) {
		return Value{}, newError(jr.Type, name, member, ErrUnavailable, "response is not valid JSON")
	}

	reply := gjson.ParseBytes(bs)
	if reply.IsArray() {
		reply = reply.Get("0")
	}

	if status := reply.Get("status").Int(); status != http.StatusOK {
		kind := classifyError(status, reply.Get("error_type").String())
		return Value{}, newError(jr.Type, name, member, kind, "%s", reply.Get("error").String())
	}

	return valueFromResult(reply.Get("value")), nil
}

func classifyError(status int64, errorType string) error {
	switch {
	case strings.HasSuffix(errorType, "InstanceNotFoundException"),
		strings.HasSuffix(errorType, "AttributeNotFoundException"),
		status == http.StatusNotFound:
		return ErrNotFound
	case strings.HasSuffix(errorType, "IllegalArgumentException"),
		strings.HasSuffix(errorType, "ClassCastException"),
		strings.HasSuffix(errorType, "NumberFormatException"):
		return ErrTypeMismatch
	case strings.HasSuffix(errorType, "MalformedObjectNameException"):
		return ErrMalformedName
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == 0:
		return ErrUnavailable
	}
	return ErrRemote
}

func closeBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
}
