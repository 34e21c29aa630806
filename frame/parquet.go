package frame

import (
	"bytes"
	"context"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet"
	"github.com/apache/arrow/go/v10/parquet/compress"
	"github.com/apache/arrow/go/v10/parquet/file"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"
	"github.com/pkg/errors"
)

// WriteParquet serializes the frame to an in-memory Parquet file with
// Snappy compression. The Arrow schema is inferred from the cell values;
// every column is nullable. meta is attached as file-level key/value
// metadata.
func (f *Frame) WriteParquet(meta map[string]string) ([]byte, error) {
	mem := memory.NewGoAllocator()

	fields := make([]arrow.Field, len(f.cols))
	for i, col := range f.cols {
		typ, err := inferArrowType(col)
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: col.Name, Type: typ, Nullable: true}
	}
	md := arrow.MetadataFrom(meta)
	schema := arrow.NewSchema(fields, &md)

	arrs := make([]arrow.Array, len(f.cols))
	for i, col := range f.cols {
		arr, err := buildArray(mem, fields[i].Type, col)
		if err != nil {
			return nil, err
		}
		defer arr.Release()
		arrs[i] = arr
	}
	rec := array.NewRecord(schema, arrs, int64(f.NumRows()))
	defer rec.Release()

	var buf bytes.Buffer
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	w, err := pqarrow.NewFileWriter(schema, &buf,
		props, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return nil, errors.Wrap(err, "creating parquet writer")
	}
	if err := w.Write(rec); err != nil {
		return nil, errors.Wrap(err, "writing record")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "closing parquet writer")
	}
	return buf.Bytes(), nil
}

// ReadParquet decodes an in-memory Parquet file into a frame, along with
// its file-level key/value metadata.
func ReadParquet(data []byte) (*Frame, map[string]string, error) {
	pf, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening parquet reader")
	}
	mem := memory.NewGoAllocator()
	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating arrow reader")
	}
	table, err := reader.ReadTable(context.Background())
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading table")
	}
	defer table.Release()

	cols := make([]Column, 0, table.NumCols())
	for i := 0; i < int(table.NumCols()); i++ {
		tcol := table.Column(i)
		data := make([]interface{}, 0, table.NumRows())
		for _, chunk := range tcol.Data().Chunks() {
			chunkData, err := arrayValues(chunk)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "column %q", tcol.Name())
			}
			data = append(data, chunkData...)
		}
		cols = append(cols, Column{Name: tcol.Name(), Data: data})
	}
	f, err := New(cols...)
	if err != nil {
		return nil, nil, err
	}

	meta := make(map[string]string)
	schemaMeta := table.Schema().Metadata()
	for i, k := range schemaMeta.Keys() {
		meta[k] = schemaMeta.Values()[i]
	}
	return f, meta, nil
}

// inferArrowType picks a column's Arrow type from its first non-null
// value. All-null columns are typed as string.
func inferArrowType(col Column) (arrow.DataType, error) {
	for _, v := range col.Data {
		switch v.(type) {
		case nil:
			continue
		case string:
			return arrow.BinaryTypes.String, nil
		case int64:
			return arrow.PrimitiveTypes.Int64, nil
		case float64:
			return arrow.PrimitiveTypes.Float64, nil
		case bool:
			return arrow.FixedWidthTypes.Boolean, nil
		case []string:
			return arrow.ListOf(arrow.BinaryTypes.String), nil
		default:
			return nil, errors.Errorf("column %q holds unsupported value type %T", col.Name, v)
		}
	}
	return arrow.BinaryTypes.String, nil
}

func buildArray(mem memory.Allocator, typ arrow.DataType, col Column) (arrow.Array, error) {
	switch typ.ID() {
	case arrow.STRING:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for _, v := range col.Data {
			if v == nil {
				b.AppendNull()
				continue
			}
			s, ok := v.(string)
			if !ok {
				return nil, errors.Errorf("column %q mixes string and %T values", col.Name, v)
			}
			b.Append(s)
		}
		return b.NewArray(), nil
	case arrow.INT64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		for _, v := range col.Data {
			if v == nil {
				b.AppendNull()
				continue
			}
			n, ok := v.(int64)
			if !ok {
				return nil, errors.Errorf("column %q mixes int64 and %T values", col.Name, v)
			}
			b.Append(n)
		}
		return b.NewArray(), nil
	case arrow.FLOAT64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		for _, v := range col.Data {
			if v == nil {
				b.AppendNull()
				continue
			}
			fl, ok := v.(float64)
			if !ok {
				return nil, errors.Errorf("column %q mixes float64 and %T values", col.Name, v)
			}
			b.Append(fl)
		}
		return b.NewArray(), nil
	case arrow.BOOL:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		for _, v := range col.Data {
			if v == nil {
				b.AppendNull()
				continue
			}
			t, ok := v.(bool)
			if !ok {
				return nil, errors.Errorf("column %q mixes bool and %T values", col.Name, v)
			}
			b.Append(t)
		}
		return b.NewArray(), nil
	case arrow.LIST:
		b := array.NewListBuilder(mem, arrow.BinaryTypes.String)
		defer b.Release()
		vb := b.ValueBuilder().(*array.StringBuilder)
		for _, v := range col.Data {
			if v == nil {
				b.AppendNull()
				continue
			}
			elems, ok := v.([]string)
			if !ok {
				return nil, errors.Errorf("column %q mixes []string and %T values", col.Name, v)
			}
			b.Append(true)
			for _, e := range elems {
				vb.Append(e)
			}
		}
		return b.NewArray(), nil
	}
	return nil, errors.Errorf("column %q has unsupported arrow type %v", col.Name, typ)
}

func arrayValues(arr arrow.Array) ([]interface{}, error) {
	out := make([]interface{}, 0, arr.Len())
	switch a := arr.(type) {
	case *array.String:
		for i := 0; i < a.Len(); i++ {
			if a.IsNull(i) {
				out = append(out, nil)
			} else {
				out = append(out, a.Value(i))
			}
		}
	case *array.Int64:
		for i := 0; i < a.Len(); i++ {
			if a.IsNull(i) {
				out = append(out, nil)
			} else {
				out = append(out, a.Value(i))
			}
		}
	case *array.Int32:
		for i := 0; i < a.Len(); i++ {
			if a.IsNull(i) {
				out = append(out, nil)
			} else {
				out = append(out, int64(a.Value(i)))
			}
		}
	case *array.Float64:
		for i := 0; i < a.Len(); i++ {
			if a.IsNull(i) {
				out = append(out, nil)
			} else {
				out = append(out, a.Value(i))
			}
		}
	case *array.Float32:
		for i := 0; i < a.Len(); i++ {
			if a.IsNull(i) {
				out = append(out, nil)
			} else {
				out = append(out, float64(a.Value(i)))
			}
		}
	case *array.Boolean:
		for i := 0; i < a.Len(); i++ {
			if a.IsNull(i) {
				out = append(out, nil)
			} else {
				out = append(out, a.Value(i))
			}
		}
	case *array.List:
		values, ok := a.ListValues().(*array.String)
		if !ok {
			return nil, errors.Errorf("unsupported list element type %v", a.ListValues().DataType())
		}
		offsets := a.Offsets()
		for i := 0; i < a.Len(); i++ {
			if a.IsNull(i) {
				out = append(out, nil)
				continue
			}
			elems := make([]string, 0, offsets[i+1]-offsets[i])
			for j := offsets[i]; j < offsets[i+1]; j++ {
				elems = append(elems, values.Value(int(j)))
			}
			out = append(out, elems)
		}
	default:
		return nil, errors.Errorf("unsupported arrow type %v", arr.DataType())
	}
	return out, nil
}
