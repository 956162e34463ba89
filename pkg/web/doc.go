// SPDX-License-Identifier: GPL-3.0-or-later

// Package web holds the HTTP client and request options shared by everything that talks to
// the host over HTTP. HTTPConfig is the part meant to be embedded in user configuration.
package web
