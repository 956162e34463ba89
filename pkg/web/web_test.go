// SPDX-License-Identifier: GPL-3.0-or-later

package web

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netdata/hostprobe/pkg/confopt"
)

func TestRequestConfig_Copy(t *testing.T) {
	orig := RequestConfig{URL: "http://127.0.0.1:8080/jolokia", Headers: map[string]string{"X-A": "1"}}

	cp := orig.Copy()
	cp.Headers["X-B"] = "2"

	assert.Len(t, orig.Headers, 1)
	assert.Len(t, cp.Headers, 2)
}

func TestNewHTTPRequest(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte(" abc \n"), 0600))

	emptyToken := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(emptyToken, nil, 0600))

	tests := map[string]struct {
		cfg     RequestConfig
		wantErr bool
		check   func(t *testing.T, req *http.Request)
	}{
		"defaults to GET": {
			cfg: RequestConfig{URL: "http://127.0.0.1/jolokia"},
			check: func(t *testing.T, req *http.Request) {
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Equal(t, userAgent, req.UserAgent())
			},
		},
		"basic auth": {
			cfg: RequestConfig{URL: "http://127.0.0.1/jolokia", Username: "jmx", Password: "pw"},
			check: func(t *testing.T, req *http.Request) {
				u, p, ok := req.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "jmx", u)
				assert.Equal(t, "pw", p)
			},
		},
		"bearer token wins": {
			cfg: RequestConfig{URL: "http://127.0.0.1/jolokia", Username: "jmx", BearerTokenFile: tokenFile},
			check: func(t *testing.T, req *http.Request) {
				assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))
			},
		},
		"empty bearer token": {
			cfg:     RequestConfig{URL: "http://127.0.0.1/jolokia", BearerTokenFile: emptyToken},
			wantErr: true,
		},
		"proxy auth": {
			cfg: RequestConfig{URL: "http://127.0.0.1/jolokia", ProxyUsername: "p", ProxyPassword: "q"},
			check: func(t *testing.T, req *http.Request) {
				want := "Basic " + base64.StdEncoding.EncodeToString([]byte("p:q"))
				assert.Equal(t, want, req.Header.Get("Proxy-Authorization"))
			},
		},
		"headers and host": {
			cfg: RequestConfig{
				URL:     "http://127.0.0.1/jolokia",
				Method:  http.MethodPost,
				Body:    "{}",
				Headers: map[string]string{"Host": "tomcat.local", "Content-Type": "application/json"},
			},
			check: func(t *testing.T, req *http.Request) {
				assert.Equal(t, "tomcat.local", req.Host)
				assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
				bs, _ := io.ReadAll(req.Body)
				assert.Equal(t, "{}", string(bs))
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			req, err := NewHTTPRequest(test.cfg)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			test.check(t, req)
		})
	}
}

func TestNewHTTPRequestWithPath(t *testing.T) {
	req, err := NewHTTPRequestWithPath(RequestConfig{URL: "http://127.0.0.1:8080/jolokia"}, "version")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080/jolokia/version", req.URL.String())
}

func TestNewHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/redirect" {
			http.Redirect(w, r, "/ok", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client, err := NewHTTPClient(ClientConfig{Timeout: confopt.Duration(time.Second), NotFollowRedirect: true})
	require.NoError(t, err)
	assert.Equal(t, time.Second, client.Timeout)

	_, err = client.Get(srv.URL + "/redirect")
	assert.ErrorIs(t, err, ErrRedirectAttempted)

	resp, err := client.Get(srv.URL + "/ok")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewHTTPClient_Errors(t *testing.T) {
	_, err := NewHTTPClient(ClientConfig{TLSConfig: TLSConfig{TLSCA: "/nonexistent/ca.pem"}})
	assert.Error(t, err)

	_, err = NewHTTPClient(ClientConfig{TLSConfig: TLSConfig{TLSCert: "cert.pem"}})
	assert.Error(t, err)

	client, err := NewHTTPClient(ClientConfig{ForceHTTP2: true})
	require.NoError(t, err)
	assert.IsType(t, &http2Transport{}, client.Transport)
}
