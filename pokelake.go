// Package pokelake contains the pieces shared by the bronze and silver
// batch jobs: run/batch identifiers, content fingerprinting, column name
// normalization, and CSV delimiter sniffing.
package pokelake

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

const (
	runIDLayout   = "20060102T150405Z"
	batchIDLayout = "2006_01_02_15"
	dateLayout    = "2006-01-02"

	// Fixed-width UTC ISO-8601 with microsecond resolution, so that
	// lexicographic order of provenance timestamps matches time order.
	timestampLayout = "2006-01-02T15:04:05.000000Z07:00"
)

// TimestampUTC formats a provenance timestamp.
func TimestampUTC(now time.Time) string {
	return now.UTC().Format(timestampLayout)
}

// NewRunID generates a run identifier from the given wall clock time.
// Callers may supply their own run id instead; this is only the default.
func NewRunID(now time.Time) string {
	return now.UTC().Format(runIDLayout)
}

// BatchID returns the UTC-hour-granularity batch identifier, e.g.
// "2025_08_11_14". Re-runs within the same UTC hour share a batch id.
func BatchID(now time.Time) string {
	return now.UTC().Format(batchIDLayout)
}

// PartitionDate returns the UTC date used for partition keys.
func PartitionDate(now time.Time) string {
	return now.UTC().Format(dateLayout)
}

// Fingerprint returns the SHA-256 hex digest of the raw source bytes.
// It is computed over the pre-decode payload so that re-encoding a
// logically identical table never changes the fingerprint.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SlugifyColumn normalizes a column name to a lowercase ASCII underscore
// slug. It is pure and idempotent: "Pokédex #" and "pokedex" both yield
// "pokedex", and feeding a slug back in returns it unchanged.
func SlugifyColumn(name string) string {
	s := slug.Make(name)
	s = strings.ReplaceAll(s, "-", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// delimiterCandidates are tried in order by SniffDelimiter.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// SniffDelimiter inspects the first 4096 bytes of a CSV payload and tries
// to detect its delimiter. It returns ok=false when no candidate parses
// cleanly; the caller is expected to fall back to ','. Malformed samples
// never cause an error.
func SniffDelimiter(sample []byte) (delim rune, ok bool) {
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	text := string(sample)

	best := rune(0)
	bestFields := 1
	for _, cand := range delimiterCandidates {
		r := csv.NewReader(strings.NewReader(text))
		r.Comma = cand
		r.LazyQuotes = true
		r.FieldsPerRecord = -1
		first, err := r.Read()
		if err != nil || len(first) < 2 {
			continue
		}
		// The sample may be truncated mid-row; only use the second row
		// as a consistency check when it parses.
		if second, err := r.Read(); err == nil && len(second) != len(first) {
			continue
		}
		if len(first) > bestFields {
			best = cand
			bestFields = len(first)
		}
	}
	if best == 0 {
		return ',', false
	}
	return best, true
}
