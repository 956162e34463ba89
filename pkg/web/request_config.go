// SPDX-License-Identifier: GPL-3.0-or-later

package web

import (
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/netdata/hostprobe/pkg/buildinfo"
	"github.com/netdata/hostprobe/pkg/executable"
)

// RequestConfig describes how requests to the endpoint are built.
type RequestConfig struct {
	URL string `yaml:"url" json:"url"`

	Username string `yaml:"username,omitempty" json:"username"`
	Password string `yaml:"password,omitempty" json:"password"`

	// BearerTokenFile takes precedence over basic auth.
	BearerTokenFile string `yaml:"bearer_token_file,omitempty" json:"bearer_token_file"`

	ProxyUsername string `yaml:"proxy_username,omitempty" json:"proxy_username"`
	ProxyPassword string `yaml:"proxy_password,omitempty" json:"proxy_password"`

	// Method defaults to GET.
	Method  string            `yaml:"method,omitempty" json:"method"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers"`
	Body    string            `yaml:"body,omitempty" json:"body"`
}

// Copy returns a deep copy of r.
func (r RequestConfig) Copy() RequestConfig {
	if r.Headers != nil {
		r.Headers = maps.Clone(r.Headers)
	}
	return r
}

var userAgent = fmt.Sprintf("%s/%s", executable.Name, buildinfo.Version)

// NewHTTPRequest builds a request from cfg.
func NewHTTPRequest(cfg RequestConfig) (*http.Request, error) {
	var body io.Reader
	if cfg.Body != "" {
		body = strings.NewReader(cfg.Body)
	}

	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequest(method, cfg.URL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)

	switch {
	case cfg.BearerTokenFile != "":
		bs, err := os.ReadFile(cfg.BearerTokenFile)
		if err != nil {
			return nil, fmt.Errorf("bearer token file: %w", err)
		}
		token := strings.TrimSpace(string(bs))
		if token == "" {
			return nil, fmt.Errorf("bearer token file '%s' is empty", cfg.BearerTokenFile)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case cfg.Username != "" || cfg.Password != "":
		req.SetBasicAuth(cfg.Username, cfg.Password)
	}

	if cfg.ProxyUsername != "" && cfg.ProxyPassword != "" {
		proxy := &http.Request{Header: http.Header{}}
		proxy.SetBasicAuth(cfg.ProxyUsername, cfg.ProxyPassword)
		req.Header.Set("Proxy-Authorization", proxy.Header.Get("Authorization"))
	}

	for k, v := range cfg.Headers {
		if strings.EqualFold(k, "host") {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}

	return req, nil
}

// NewHTTPRequestWithPath is NewHTTPRequest with urlPath joined to cfg.URL.
func NewHTTPRequestWithPath(cfg RequestConfig, urlPath string) (*http.Request, error) {
	cfg = cfg.Copy()

	v, err := url.JoinPath(cfg.URL, urlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to join URL path: %w", err)
	}
	cfg.URL = v

	return NewHTTPRequest(cfg)
}
