// SPDX-License-Identifier: GPL-3.0-or-later

package web

// HTTPConfig combines request and client options.
type HTTPConfig struct {
	RequestConfig `yaml:",inline" json:""`
	ClientConfig  `yaml:",inline" json:""`
}
