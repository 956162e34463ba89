// SPDX-License-Identifier: GPL-3.0-or-later

package container

import (
	"strings"

	"github.com/blang/semver/v4"
)

// variant is one host major version the adaptor understands.
type variant struct {
	name      string
	canBindTo func(banner string) bool
	dialect   dialect
}

// variants are evaluated in order. Exactly one may accept a banner.
var variants = []variant{
	newVariant("tomcat7", ">=7.0.0 <8.0.0", tomcat7Dialect),
	newVariant("tomcat80", ">=8.0.0 <8.1.0", tomcat80Dialect),
	newVariant("tomcat85", ">=8.5.0 <8.6.0", tomcat85Dialect),
	newVariant("tomcat9", ">=9.0.0 <10.0.0", tomcat9Dialect),
	newVariant("tomcat10", ">=10.0.0 <12.0.0", tomcat10Dialect),
}

func newVariant(name, versions string, d dialect) variant {
	r := semver.MustParseRange(versions)
	return variant{
		name: name,
		canBindTo: func(banner string) bool {
			v, ok := parseBanner(banner)
			return ok && r(v)
		},
		dialect: d,
	}
}

// Variants lists the supported variant names in evaluation order.
func Variants() []string {
	names := make([]string, 0, len(variants))
	for _, v := range variants {
		names = append(names, v.name)
	}
	return names
}

// CanBindTo reports the variant that accepts banner, if exactly one does.
func CanBindTo(banner string) (string, bool) {
	v, err := selectVariant(banner, variants)
	if err != nil {
		return "", false
	}
	return v.name, true
}

func selectVariant(banner string, from []variant) (variant, error) {
	var matched []variant
	for _, v := range from {
		if v.canBindTo(banner) {
			matched = append(matched, v)
		}
	}
	if len(matched) == 1 {
		return matched[0], nil
	}
	err := &ConfigurationError{Banner: banner}
	for _, v := range matched {
		err.Matches = append(err.Matches, v.name)
	}
	return variant{}, err
}

var bannerProducts = []string{
	"Apache Tomcat (TomEE)/",
	"Apache Tomcat/",
	"Pivotal tc",
	"VMware tc",
}

// parseBanner extracts the servlet container version from a server banner such as
// "Apache Tomcat/9.0.85", "Apache Tomcat (TomEE)/8.0.27 (1.7.3)" or
// "Pivotal tc Runtime 3.2.9.RELEASE/8.0.36.A.RELEASE".
func parseBanner(banner string) (semver.Version, bool) {
	known := false
	for _, p := range bannerProducts {
		if strings.HasPrefix(banner, p) {
			known = true
			break
		}
	}
	if !known {
		return semver.Version{}, false
	}

	i := strings.IndexByte(banner, '/')
	if i < 0 {
		return semver.Version{}, false
	}
	raw := banner[i+1:]
	if j := strings.IndexByte(raw, ' '); j >= 0 {
		raw = raw[:j]
	}

	// keep the leading numeric components: "8.0.36.A.RELEASE" -> "8.0.36", "9.0.0.M1" -> "9.0.0"
	var parts []string
	for _, p := range strings.Split(raw, ".") {
		if p == "" || strings.Trim(p, "0123456789") != "" || len(parts) == 3 {
			break
		}
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return semver.Version{}, false
	}
	for len(parts) < 3 {
		parts = append(parts, "0")
	}

	v, err := semver.ParseTolerant(strings.Join(parts, "."))
	if err != nil {
		return semver.Version{}, false
	}
	return v, true
}
