package pokelake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIdentifiers(t *testing.T) {
	now := time.Date(2025, 8, 11, 14, 7, 9, 0, time.UTC)
	assert.Equal(t, "20250811T140709Z", NewRunID(now))
	assert.Equal(t, "2025_08_11_14", BatchID(now))
	assert.Equal(t, "2025-08-11", PartitionDate(now))
	assert.Equal(t, "2025-08-11T14:07:09.000000Z", TimestampUTC(now))

	// Batch ids group by UTC hour regardless of the local zone.
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	assert.Equal(t, "2025_08_11_14", BatchID(now.In(saoPaulo)))
}

func TestTimestampOrdering(t *testing.T) {
	// The fixed-width layout keeps lexicographic order aligned with
	// time order, which the silver dedup relies on.
	a := TimestampUTC(time.Date(2025, 8, 11, 14, 0, 5, 0, time.UTC))
	b := TimestampUTC(time.Date(2025, 8, 11, 14, 0, 5, 300*1e6, time.UTC))
	assert.Less(t, a, b)
}

func TestFingerprint(t *testing.T) {
	data := []byte("pokedex_number,name\n1,Bulbasaur\n")
	assert.Equal(t, Fingerprint(data), Fingerprint(data))
	assert.Len(t, Fingerprint(data), 64)
	assert.NotEqual(t, Fingerprint(data), Fingerprint([]byte("pokedex_number,name\n2,Ivysaur\n")))
	// Known digest of the empty payload.
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Fingerprint(nil))
}

func TestSlugifyColumn(t *testing.T) {
	cases := map[string]string{
		"Pokédex #":      "pokedex",
		"POKÉDEX #":      "pokedex",
		"pokedex":        "pokedex",
		"Sp. Atk":        "sp_atk",
		"Type 1":         "type_1",
		"against_flying": "against_flying",
		"  Name  ":       "name",
		"HP":             "hp",
		"base total":     "base_total",
	}
	for in, want := range cases {
		assert.Equal(t, want, SlugifyColumn(in), "input %q", in)
	}
}

func TestSlugifyColumnIdempotent(t *testing.T) {
	for _, name := range []string{"Pokédex #", "Sp. Atk", "Japanese Name", "weight_kg"} {
		once := SlugifyColumn(name)
		assert.Equal(t, once, SlugifyColumn(once))
	}
}

func TestSniffDelimiter(t *testing.T) {
	for _, tc := range []struct {
		name   string
		sample string
		delim  rune
		ok     bool
	}{
		{"semicolon", "a;b;c\n1;2;3\n", ';', true},
		{"comma", "a,b\n1,2\n", ',', true},
		{"tab", "a\tb\n1\t2\n", '\t', true},
		{"pipe", "a|b|c\n1|2|3\n", '|', true},
		{"single column", "justone\n1\n2\n", ',', false},
		{"empty", "", ',', false},
		{"garbage", "\x00\x01\x02", ',', false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			delim, ok := SniffDelimiter([]byte(tc.sample))
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, string(tc.delim), string(delim))
		})
	}
}

func TestSniffDelimiterTruncatedSample(t *testing.T) {
	// Build a payload whose 4096-byte sample cuts a row in half; the
	// sniffer must still settle on the delimiter without raising.
	long := "col_a;col_b;col_c\n"
	for len(long) < 5000 {
		long += "aaaaaaaaaa;bbbbbbbbbb;cccccccccc\n"
	}
	delim, ok := SniffDelimiter([]byte(long))
	assert.True(t, ok)
	assert.Equal(t, ';', delim)
}
