// SPDX-License-Identifier: GPL-3.0-or-later

package web

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"

	"golang.org/x/net/http2"

	"github.com/netdata/hostprobe/pkg/confopt"
)

// ErrRedirectAttempted is returned by the client when redirects are disabled.
var ErrRedirectAttempted = errors.New("redirect")

// ClientConfig configures the *http.Client.
type ClientConfig struct {
	// Timeout bounds every request. Zero means no timeout.
	Timeout confopt.Duration `yaml:"timeout,omitempty" json:"timeout"`

	NotFollowRedirect bool `yaml:"not_follow_redirects,omitempty" json:"not_follow_redirects"`

	// ProxyURL overrides HTTP_PROXY/HTTPS_PROXY/NO_PROXY when set.
	ProxyURL string `yaml:"proxy_url,omitempty" json:"proxy_url"`

	TLSConfig `yaml:",inline" json:""`

	// ForceHTTP2 talks HTTP/2 directly, including cleartext h2c for http:// URLs.
	ForceHTTP2 bool `yaml:"force_http2,omitempty" json:"force_http2"`
}

// TLSConfig is the subset of TLS options a Jolokia endpoint needs.
type TLSConfig struct {
	TLSCA              string `yaml:"tls_ca,omitempty" json:"tls_ca"`
	TLSCert            string `yaml:"tls_cert,omitempty" json:"tls_cert"`
	TLSKey             string `yaml:"tls_key,omitempty" json:"tls_key"`
	InsecureSkipVerify bool   `yaml:"tls_skip_verify,omitempty" json:"tls_skip_verify"`
}

func newTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	if cfg.TLSCA == "" && cfg.TLSCert == "" && cfg.TLSKey == "" && !cfg.InsecureSkipVerify {
		return nil, nil
	}

	conf := &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}

	if cfg.TLSCA != "" {
		pem, err := os.ReadFile(cfg.TLSCA)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %v", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates in CA file '%s'", cfg.TLSCA)
		}
		conf.RootCAs = pool
	}

	if cfg.TLSCert != "" || cfg.TLSKey != "" {
		if cfg.TLSCert == "" || cfg.TLSKey == "" {
			return nil, errors.New("both 'tls_cert' and 'tls_key' must be set")
		}
		cert, err := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return nil, fmt.Errorf("load client key pair: %v", err)
		}
		conf.Certificates = []tls.Certificate{cert}
	}

	return conf, nil
}

// NewHTTPClient builds an *http.Client from cfg.
func NewHTTPClient(cfg ClientConfig) (*http.Client, error) {
	tlsConfig, err := newTLSConfig(cfg.TLSConfig)
	if err != nil {
		return nil, fmt.Errorf("error on creating TLS config: %v", err)
	}

	if cfg.ProxyURL != "" {
		if _, err := url.Parse(cfg.ProxyURL); err != nil {
			return nil, fmt.Errorf("error on parsing proxy URL '%s': %v", cfg.ProxyURL, err)
		}
	}

	d := &net.Dialer{Timeout: cfg.Timeout.Duration()}

	var transport http.RoundTripper
	if cfg.ForceHTTP2 {
		transport = &http2Transport{
			tls: &http2.Transport{TLSClientConfig: tlsConfig},
			h2c: &http2.Transport{
				AllowHTTP: true,
				DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
					return d.DialContext(ctx, network, addr)
				},
			},
		}
	} else {
		transport = &http.Transport{
			Proxy:               proxyFunc(cfg.ProxyURL),
			TLSClientConfig:     tlsConfig,
			DialContext:         d.DialContext,
			TLSHandshakeTimeout: cfg.Timeout.Duration(),
			MaxIdleConnsPerHost: 4,
		}
	}

	return &http.Client{
		Timeout:       cfg.Timeout.Duration(),
		Transport:     transport,
		CheckRedirect: redirectFunc(cfg.NotFollowRedirect),
	}, nil
}

type http2Transport struct {
	tls *http2.Transport
	h2c *http2.Transport
}

func (t *http2Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme == "https" {
		return t.tls.RoundTrip(req)
	}
	return t.h2c.RoundTrip(req)
}

func (t *http2Transport) CloseIdleConnections() {
	t.tls.CloseIdleConnections()
	t.h2c.CloseIdleConnections()
}

func proxyFunc(raw string) func(*http.Request) (*url.URL, error) {
	if raw == "" {
		return http.ProxyFromEnvironment
	}
	u, _ := url.Parse(raw)
	return http.ProxyURL(u)
}

func redirectFunc(notFollow bool) func(*http.Request, []*http.Request) error {
	if notFollow {
		return func(*http.Request, []*http.Request) error { return ErrRedirectAttempted }
	}
	return nil
}
