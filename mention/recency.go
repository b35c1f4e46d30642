package mention

import (
	"sort"
	"time"

	"github.com/araddon/dateparse"
)

// MostRecentFirst returns a copy of ms ordered newest first. Timestamps come
// from collectors in whatever shape the source emits, so they are parsed
// leniently; mentions with an unparseable or empty timestamp sort after all
// dated ones, ordered by raw timestamp string descending. Stable, so equal
// keys keep their input order and the result is deterministic.
func MostRecentFirst(ms []Classified) []Classified {
	out := make([]Classified, len(ms))
	copy(out, ms)

	parsed := make(map[string]time.Time, len(out))
	for _, m := range out {
		if m.Timestamp == "" {
			continue
		}
		if t, err := dateparse.ParseAny(m.Timestamp); err == nil {
			parsed[m.ID] = t
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, iok := parsed[out[i].ID]
		tj, jok := parsed[out[j].ID]
		switch {
		case iok && jok:
			return ti.After(tj)
		case iok:
			return true
		case jok:
			return false
		default:
			return out[i].Timestamp > out[j].Timestamp
		}
	})
	return out
}
