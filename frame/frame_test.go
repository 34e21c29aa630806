package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsDuplicateNames(t *testing.T) {
	// Two source columns can normalize to the same slug; frame
	// construction is where that collision surfaces.
	_, err := New(
		Column{Name: "type_1", Data: []interface{}{"grass"}},
		Column{Name: "type_1", Data: []interface{}{"poison"}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate column")
}

func TestNewRejectsRaggedColumns(t *testing.T) {
	_, err := New(
		Column{Name: "a", Data: []interface{}{int64(1), int64(2)}},
		Column{Name: "b", Data: []interface{}{int64(1)}},
	)
	require.Error(t, err)
}

func TestRenameOnlyWhenTargetAbsent(t *testing.T) {
	f, err := New(
		Column{Name: "classfication", Data: []interface{}{"Seed Pokémon"}},
		Column{Name: "name", Data: []interface{}{"Bulbasaur"}},
	)
	require.NoError(t, err)

	assert.True(t, f.Rename("classfication", "classification"))
	assert.False(t, f.Has("classfication"))
	assert.True(t, f.Has("classification"))

	// A second frame already carrying the corrected name keeps it.
	f2, err := New(
		Column{Name: "classfication", Data: []interface{}{"legacy"}},
		Column{Name: "classification", Data: []interface{}{"current"}},
	)
	require.NoError(t, err)
	assert.False(t, f2.Rename("classfication", "classification"))
	col, _ := f2.Column("classification")
	assert.Equal(t, "current", col.Data[0])
}

func TestSetColumnReplacesOrAppends(t *testing.T) {
	f, err := New(Column{Name: "a", Data: []interface{}{"x", "y"}})
	require.NoError(t, err)

	require.NoError(t, f.SetColumn("a", []interface{}{"z", "w"}))
	col, _ := f.Column("a")
	assert.Equal(t, []interface{}{"z", "w"}, col.Data)

	require.NoError(t, f.SetColumn("b", []interface{}{nil, "v"}))
	assert.Equal(t, 2, f.NumCols())

	assert.Error(t, f.SetColumn("c", []interface{}{"too", "many", "rows"}))
}

func TestDrop(t *testing.T) {
	f, err := New(
		Column{Name: "a", Data: []interface{}{"1"}},
		Column{Name: "b", Data: []interface{}{"2"}},
		Column{Name: "c", Data: []interface{}{"3"}},
	)
	require.NoError(t, err)
	f.Drop("b")
	assert.Equal(t, []string{"a", "c"}, f.Names())
	col, ok := f.Column("c")
	require.True(t, ok)
	assert.Equal(t, "3", col.Data[0])
	f.Drop("missing") // no-op
	assert.Equal(t, 2, f.NumCols())
}

func TestSelect(t *testing.T) {
	f, err := New(
		Column{Name: "n", Data: []interface{}{int64(1), int64(2), int64(3)}},
		Column{Name: "s", Data: []interface{}{"a", "b", "c"}},
	)
	require.NoError(t, err)
	out := f.Select([]int{2, 0})
	col, _ := out.Column("s")
	assert.Equal(t, []interface{}{"c", "a"}, col.Data)
	assert.Equal(t, 3, f.NumRows()) // original untouched
}

func TestConcatUnionsColumns(t *testing.T) {
	f1, err := New(
		Column{Name: "a", Data: []interface{}{"1", "2"}},
		Column{Name: "b", Data: []interface{}{"x", "y"}},
	)
	require.NoError(t, err)
	f2, err := New(
		Column{Name: "b", Data: []interface{}{"z"}},
		Column{Name: "c", Data: []interface{}{"new"}},
	)
	require.NoError(t, err)

	out := Concat(f1, f2)
	assert.Equal(t, []string{"a", "b", "c"}, out.Names())
	assert.Equal(t, 3, out.NumRows())

	a, _ := out.Column("a")
	assert.Equal(t, []interface{}{"1", "2", nil}, a.Data)
	b, _ := out.Column("b")
	assert.Equal(t, []interface{}{"x", "y", "z"}, b.Data)
	c, _ := out.Column("c")
	assert.Equal(t, []interface{}{nil, nil, "new"}, c.Data)
}

func TestConcatEmpty(t *testing.T) {
	out := Concat()
	assert.Equal(t, 0, out.NumRows())
	assert.Equal(t, 0, out.NumCols())
}
