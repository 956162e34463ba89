// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"io"
	"maps"
	"slices"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/netdata/hostprobe/agent/stats"
)

// SeriesSummary is the state of one stats series.
type SeriesSummary struct {
	Key     string    `yaml:"key"`
	Samples int       `yaml:"samples"`
	Last    float64   `yaml:"last"`
	At      time.Time `yaml:"at"`
	Min     float64   `yaml:"min"`
	Max     float64   `yaml:"max"`
}

// Snapshot summarizes every series of store, ordered by key.
func Snapshot(store *stats.Store) []SeriesSummary {
	return FamilySnapshot(store, "", 0)
}

// FamilySnapshot summarizes the series whose keys start with prefix, ordered by key.
// With top > 0 only the top series by last value are included.
func FamilySnapshot(store *stats.Store, prefix string, top int) []SeriesSummary {
	family := store.SeriesWithPrefix(prefix, top, 1)

	var out []SeriesSummary
	for _, key := range slices.Sorted(maps.Keys(family)) {
		series := family[key]
		sum := SeriesSummary{Key: key, Samples: len(series), Min: series[0].Value, Max: series[0].Value}
		for _, s := range series {
			sum.Min = min(sum.Min, s.Value)
			sum.Max = max(sum.Max, s.Value)
		}
		last := series[len(series)-1]
		sum.Last, sum.At = last.Value, last.Timestamp
		out = append(out, sum)
	}
	return out
}

// WriteSnapshot writes Snapshot(store) as YAML.
func WriteSnapshot(w io.Writer, store *stats.Store) error {
	bs, err := yaml.Marshal(Snapshot(store))
	if err != nil {
		return err
	}
	_, err = w.Write(bs)
	return err
}
