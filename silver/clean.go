package silver

import (
	"sort"
	"strings"

	"github.com/rdtavares/pokelake/frame"
)

const (
	businessKeyColumn    = "pokedex_number"
	ingestionTsColumn    = "_ingestion_ts_utc"
	abilitiesColumn      = "abilities"
	abilitiesListColumn  = "abilities_list"
	legacyClassification = "classfication" // known typo in the source dataset
)

// Columns coerced to nullable int64.
var intColumns = []string{
	"pokedex_number", "attack", "defense", "sp_attack", "sp_defense",
	"speed", "hp", "experience_growth", "capture_rate", "generation",
	"is_legendary",
}

// Columns coerced to nullable float64, on top of every "against_*" column.
var floatColumns = []string{"height_m", "weight_kg", "percentage_male"}

const comparativePrefix = "against_"

// Columns canonicalized to trimmed nullable strings.
var stringColumns = []string{"name", "japanese_name", "type1", "type2", "classification"}

// clean applies the silver cleaning pipeline in its fixed order. Later
// steps assume earlier ones ran: the typo rename must precede the string
// canonicalization of "classification", the int coercion of is_legendary
// precedes its bool coercion, and dedup relies on the ingestion timestamp
// appended in bronze.
func (m *Main) clean(f *frame.Frame, silverTS, batchID string) *frame.Frame {
	f.Rename(legacyClassification, "classification")

	for _, name := range intColumns {
		coerceColumn(f, name, func(v interface{}) interface{} {
			if n, ok := frame.ToInt64(v); ok {
				return n
			}
			return nil
		})
	}
	for _, name := range f.Names() {
		if strings.HasPrefix(name, comparativePrefix) {
			coerceFloat(f, name)
		}
	}
	for _, name := range floatColumns {
		coerceFloat(f, name)
	}
	for _, name := range stringColumns {
		coerceColumn(f, name, func(v interface{}) interface{} {
			if s, ok := frame.ToTrimmedString(v); ok {
				return s
			}
			return nil
		})
	}

	parseAbilities(f)

	coerceColumn(f, "is_legendary", func(v interface{}) interface{} {
		if b, ok := frame.ToBool(v); ok {
			return b
		}
		return nil
	})

	f = dedupByBusinessKey(f)

	f.AppendConst("_silver_ts_utc", silverTS)
	// Overwrites the bronze batch id: silver may aggregate several
	// bronze batches into one run.
	f.AppendConst("_batch_id", batchID)
	return f
}

func coerceColumn(f *frame.Frame, name string, conv func(interface{}) interface{}) {
	col, ok := f.Column(name)
	if !ok {
		return
	}
	data := make([]interface{}, len(col.Data))
	for i, v := range col.Data {
		data[i] = conv(v)
	}
	f.SetColumn(name, data)
}

func coerceFloat(f *frame.Frame, name string) {
	coerceColumn(f, name, func(v interface{}) interface{} {
		if fl, ok := frame.ToFloat64(v); ok {
			return fl
		}
		return nil
	})
}

// parseAbilities splits the textual abilities list into two forms: the
// parsed list (for the bridge table) and a comma-joined string replacing
// the original column (for the flat main table). Unparseable values
// become null in both.
func parseAbilities(f *frame.Frame) {
	col, ok := f.Column(abilitiesColumn)
	if !ok {
		return
	}
	lists := make([]interface{}, len(col.Data))
	joined := make([]interface{}, len(col.Data))
	for i, v := range col.Data {
		elems, ok := frame.ParseList(v)
		if !ok {
			continue
		}
		lists[i] = elems
		joined[i] = strings.Join(elems, ",")
	}
	f.SetColumn(abilitiesListColumn, lists)
	f.SetColumn(abilitiesColumn, joined)
}

// dedupByBusinessKey keeps at most one row per business key: rows are
// stably sorted ascending by ingestion timestamp and the last occurrence
// per key wins, so the most recently ingested row survives. Rows with a
// null key collapse to one as well. When either column is missing the
// frame passes through untouched.
func dedupByBusinessKey(f *frame.Frame) *frame.Frame {
	keyCol, okKey := f.Column(businessKeyColumn)
	tsCol, okTs := f.Column(ingestionTsColumn)
	if !okKey || !okTs {
		return f
	}

	order := make([]int, f.NumRows())
	for i := range order {
		order[i] = i
	}
	tsOf := func(r int) string {
		if s, ok := tsCol.Data[r].(string); ok {
			return s
		}
		return ""
	}
	sort.SliceStable(order, func(a, b int) bool {
		return tsOf(order[a]) < tsOf(order[b])
	})

	last := make(map[interface{}]int, len(order))
	for pos, r := range order {
		last[keyCol.Data[r]] = pos
	}
	keep := make([]int, 0, len(last))
	for pos, r := range order {
		if last[keyCol.Data[r]] == pos {
			keep = append(keep, r)
		}
	}
	return f.Select(keep)
}

// abilityBridge derives the one-to-many (business key, ability) table
// from the parsed abilities lists. Rows with a null key or null list
// contribute nothing. It reports false when either input column is
// absent, in which case the bridge output is skipped entirely.
func abilityBridge(f *frame.Frame) (*frame.Frame, bool) {
	keyCol, okKey := f.Column(businessKeyColumn)
	listCol, okList := f.Column(abilitiesListColumn)
	if !okKey || !okList {
		return nil, false
	}
	var keys, abilities []interface{}
	for i := range keyCol.Data {
		key := keyCol.Data[i]
		elems, ok := listCol.Data[i].([]string)
		if key == nil || !ok {
			continue
		}
		for _, ability := range elems {
			keys = append(keys, key)
			abilities = append(abilities, ability)
		}
	}
	bridge, err := frame.New(
		frame.Column{Name: businessKeyColumn, Data: keys},
		frame.Column{Name: "ability", Data: abilities},
	)
	if err != nil {
		// Unreachable: two distinct names, equal lengths.
		return nil, false
	}
	return bridge, true
}
