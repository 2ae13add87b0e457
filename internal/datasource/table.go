package datasource

import (
	"fmt"
	"reflect"

	"github.com/specialistvlad/lightpath/internal/simerr"
)

// Payload is the data a source returns: a *Table or an *Array.
type Payload interface {
	payload()
}

// Column is a named, ordered list of cell values. Numeric cells are float64.
type Column struct {
	Name   string
	Unit   string
	Values []any
}

// FloatColumn builds a numeric column.
func FloatColumn(name string, values []float64) Column {
	col := Column{Name: name, Values: make([]any, len(values))}
	for i, v := range values {
		col.Values[i] = v
	}
	return col
}

// Len returns the number of cells.
func (c Column) Len() int {
	return len(c.Values)
}

// Floats returns the column as float64s. Non-numeric cells are a FormatError.
func (c Column) Floats() ([]float64, error) {
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		f, ok := ToFloat(v)
		if !ok {
			return nil, simerr.Format("datasource.Column.Floats", c.Name, "row %d holds non-numeric value %v", i, v)
		}
		out[i] = f
	}
	return out, nil
}

// Table is an ordered set of columns of one common length.
type Table struct {
	Columns []Column
	Meta    map[string]any
}

func (*Table) payload() {}

// NewTable checks that all columns share one length and have distinct names.
func NewTable(cols ...Column) (*Table, error) {
	seen := make(map[string]struct{}, len(cols))
	for _, col := range cols {
		if _, dup := seen[col.Name]; dup {
			return nil, simerr.Format("datasource.NewTable", col.Name, "duplicate column name")
		}
		seen[col.Name] = struct{}{}
		if col.Len() != cols[0].Len() {
			return nil, simerr.Format("datasource.NewTable", col.Name,
				"column has length %d, column %q has length %d", col.Len(), cols[0].Name, cols[0].Len())
		}
	}
	return &Table{Columns: cols, Meta: make(map[string]any)}, nil
}

// ColNames returns the column names in table order.
func (t *Table) ColNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// Floats returns the named column as float64s.
func (t *Table) Floats(name string) ([]float64, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, simerr.Format("datasource.Table.Floats", name, "no such column, have %v", t.ColNames())
	}
	return col.Floats()
}

// Array is an n-dimensional numeric array stored row-major: the last axis
// varies fastest, so Shape is {ny, nx} for an image and {nz, ny, nx} for a cube.
type Array struct {
	Shape []int
	Data  []float64
}

func (*Array) payload() {}

// NDim returns the number of axes.
func (a *Array) NDim() int {
	return len(a.Shape)
}

// Layer returns the 2-D slice at index i along the leading axis of a cube.
func (a *Array) Layer(i int) (*Array, error) {
	if a.NDim() != 3 {
		return nil, simerr.InvalidParameter("datasource.Array.Layer", fmt.Sprint(i), "array has %d axes, layers need 3", a.NDim())
	}
	if i < 0 || i >= a.Shape[0] {
		return nil, simerr.InvalidParameter("datasource.Array.Layer", fmt.Sprint(i), "cube has %d layers", a.Shape[0])
	}
	size := a.Shape[1] * a.Shape[2]
	return &Array{
		Shape: []int{a.Shape[1], a.Shape[2]},
		Data:  a.Data[i*size : (i+1)*size],
	}, nil
}

// ToFloat converts Go numeric values to float64. Booleans and strings are
// not numbers.
func ToFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	default:
		return 0, false
	}
}

// normalizeCell turns numeric cells into float64 and leaves the rest alone.
func normalizeCell(v any) any {
	if f, ok := ToFloat(v); ok {
		return f
	}
	return v
}
