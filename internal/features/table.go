package features

// Table is a column-oriented view of historical game rows. Non-numeric
// source columns (team names, dates) are dropped by the loader before the
// table is built, so every column here is float64.
type Table struct {
	columns map[string][]float64
	n       int
}

func NewTable(rows int) *Table {
	return &Table{columns: make(map[string][]float64), n: rows}
}

// SetColumn registers a column. Short columns are padded with zeros so a
// ragged source file cannot cause an index panic downstream.
func (t *Table) SetColumn(name string, values []float64) {
	if len(values) < t.n {
		padded := make([]float64, t.n)
		copy(padded, values)
		values = padded
	}
	t.columns[name] = values[:t.n]
}

func (t *Table) Column(name string) ([]float64, bool) {
	col, ok := t.columns[name]
	return col, ok
}

func (t *Table) Len() int { return t.n }

// value reads a single cell, treating a missing column as 0.
func (t *Table) value(name string, i int) float64 {
	if col, ok := t.columns[name]; ok {
		return col[i]
	}
	return 0
}
