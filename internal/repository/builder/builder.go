package builder

import (
	"fmt"
	"strings"
)

// Placeholder selects how "?" markers are rendered.
type Placeholder int

const (
	// Dollar renders $1, $2, ... (PostgreSQL).
	Dollar Placeholder = iota
	// Question keeps ? (SQLite).
	Question
)

// SQLBuilder helps construct SQL queries dynamically.
type SQLBuilder struct {
	placeholder Placeholder
	table       string
	columns     []string
	rows        [][]interface{}
	where       []string
	whereArgs   []interface{}
	orderBy     []string
	limit       int
	offset      int
	isInsert    bool
	isDelete    bool
	isSelect    bool
	conflict    string
}

// NewSQLBuilder creates a new instance of SQLBuilder with $n placeholders.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{}
}

// NewSQLBuilderFor creates a builder rendering the given placeholder style.
func NewSQLBuilderFor(p Placeholder) *SQLBuilder {
	return &SQLBuilder{placeholder: p}
}

// Select specifies the columns to retrieve.
func (b *SQLBuilder) Select(cols ...string) *SQLBuilder {
	b.isSelect = true
	b.columns = cols
	return b
}

// Insert specifies the table and columns for insertion.
func (b *SQLBuilder) Insert(table string, cols ...string) *SQLBuilder {
	b.isInsert = true
	b.table = table
	b.columns = cols
	return b
}

// Delete specifies the table to delete from.
func (b *SQLBuilder) Delete(table string) *SQLBuilder {
	b.isDelete = true
	b.table = table
	return b
}

// From specifies the table to select from.
func (b *SQLBuilder) From(table string) *SQLBuilder {
	b.table = table
	return b
}

// Values adds one row of values for insertion. Call it once per row for a
// multi-row insert.
func (b *SQLBuilder) Values(vals ...interface{}) *SQLBuilder {
	b.rows = append(b.rows, vals)
	return b
}

// OnConflictDoNothing skips rows violating a unique constraint.
func (b *SQLBuilder) OnConflictDoNothing() *SQLBuilder {
	b.conflict = " ON CONFLICT DO NOTHING"
	return b
}

// Where adds a condition to the query. Conditions are combined with AND.
func (b *SQLBuilder) Where(condition string, args ...interface{}) *SQLBuilder {
	b.where = append(b.where, condition)
	b.whereArgs = append(b.whereArgs, args...)
	return b
}

// OrderBy adds an ORDER BY clause.
func (b *SQLBuilder) OrderBy(order string) *SQLBuilder {
	b.orderBy = append(b.orderBy, order)
	return b
}

// Limit adds a LIMIT clause.
func (b *SQLBuilder) Limit(limit int) *SQLBuilder {
	b.limit = limit
	return b
}

// Offset adds an OFFSET clause.
func (b *SQLBuilder) Offset(offset int) *SQLBuilder {
	b.offset = offset
	return b
}

// BuildSafe is Build plus a check that every placeholder has an argument.
func (b *SQLBuilder) BuildSafe() (string, []interface{}, error) {
	if b.isInsert {
		for i, row := range b.rows {
			if len(row) != len(b.columns) {
				return "", nil, fmt.Errorf("row %d has %d values for %d columns", i, len(row), len(b.columns))
			}
		}
	}
	markers := 0
	for _, w := range b.where {
		markers += strings.Count(w, "?")
	}
	if markers != len(b.whereArgs) {
		return "", nil, fmt.Errorf("placeholder count (%d) does not match argument count (%d)", markers, len(b.whereArgs))
	}
	sql, args := b.Build()
	return sql, args, nil
}

// Build constructs the final SQL string and arguments.
func (b *SQLBuilder) Build() (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}
	argIndex := 1

	next := func() string {
		if b.placeholder == Question {
			return "?"
		}
		s := fmt.Sprintf("$%d", argIndex)
		argIndex++
		return s
	}

	switch {
	case b.isSelect:
		sb.WriteString("SELECT ")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(" FROM ")
		sb.WriteString(b.table)
	case b.isInsert:
		sb.WriteString("INSERT INTO ")
		sb.WriteString(b.table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(") VALUES ")
		for r, row := range b.rows {
			if r > 0 {
				sb.WriteString(", ")
			}
			placeholders := make([]string, len(row))
			for i := range row {
				placeholders[i] = next()
			}
			sb.WriteString("(" + strings.Join(placeholders, ", ") + ")")
			args = append(args, row...)
		}
		sb.WriteString(b.conflict)
		return sb.String(), args
	case b.isDelete:
		sb.WriteString("DELETE FROM ")
		sb.WriteString(b.table)
	}

	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		parts := strings.Split(strings.Join(b.where, " AND "), "?")
		for i, part := range parts {
			sb.WriteString(part)
			if i < len(parts)-1 {
				sb.WriteString(next())
			}
		}
		args = append(args, b.whereArgs...)
	}

	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}

	if b.limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", b.limit))
	}

	if b.offset > 0 {
		sb.WriteString(fmt.Sprintf(" OFFSET %d", b.offset))
	}

	return sb.String(), args
}
