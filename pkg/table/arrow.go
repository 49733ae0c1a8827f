package table

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/tabular-dev/tabular/pkg/taberrors"
)

// arrowType maps a column storage type onto its Arrow equivalent.
func arrowType(t Type) (arrow.DataType, error) {
	switch t {
	case Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case String:
		return arrow.BinaryTypes.String, nil
	default:
		return nil, taberrors.Newf(taberrors.ErrorTypeData, "no arrow mapping for type %s", t)
	}
}

// ToArrow copies the table into an Arrow record. NA cells become Arrow
// nulls. The caller releases the record; the table stays valid.
func (t *Table) ToArrow(mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	fields := make([]arrow.Field, t.NCols())
	for j := 0; j < t.NCols(); j++ {
		dt, err := arrowType(t.Column(j).Type())
		if err != nil {
			return nil, err
		}
		fields[j] = arrow.Field{Name: t.Name(j), Type: dt, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)
	rb := array.NewRecordBuilder(mem, schema)
	defer rb.Release()

	for j := 0; j < t.NCols(); j++ {
		col := t.Column(j)
		fb := rb.Field(j)
		for i := 0; i < t.NRows(); i++ {
			if col.IsNA(i) {
				fb.AppendNull()
				continue
			}
			switch col.Type() {
			case Bool:
				fb.(*array.BooleanBuilder).Append(col.Bools()[i] != 0)
			case Int32:
				fb.(*array.Int32Builder).Append(col.Int32s()[i])
			case Int64:
				fb.(*array.Int64Builder).Append(col.Int64s()[i])
			case Float32:
				fb.(*array.Float32Builder).Append(col.Float32s()[i])
			case Float64:
				fb.(*array.Float64Builder).Append(col.Float64s()[i])
			case String:
				s, _ := col.StringAt(i)
				fb.(*array.StringBuilder).Append(s)
			}
		}
	}
	return rb.NewRecord(), nil
}
