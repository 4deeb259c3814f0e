package querybuilder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valyala/bytebufferpool"
)

// writer accumulates SQL text and positional args for one statement.
type writer struct {
	buf  *bytebufferpool.ByteBuffer
	args []any
	next int
}

func newWriter() *writer {
	return &writer{buf: bytebufferpool.Get(), next: 1}
}

func (w *writer) release() {
	bytebufferpool.Put(w.buf)
}

func (w *writer) str(s string) {
	_, _ = w.buf.WriteString(s)
}

func (w *writer) bind(v any) {
	w.str("$" + strconv.Itoa(w.next))
	w.args = append(w.args, v)
	w.next++
}

// expr writes expr, binding each '?' to the next of exprArgs in order.
func (w *writer) expr(expr string, exprArgs []any) {
	if len(exprArgs) == 0 {
		w.str(expr)
		return
	}
	used := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '?' && used < len(exprArgs) {
			w.bind(exprArgs[used])
			used++
			continue
		}
		_ = w.buf.WriteByte(expr[i])
	}
}

func (w *writer) finish() (string, []any) {
	return w.buf.String(), w.args
}

type Condition interface {
	write(w *writer)
}

type eqCondition struct {
	column string
	value  any
}

func Eq(column string, value any) Condition {
	return eqCondition{column: column, value: value}
}

func (c eqCondition) write(w *writer) {
	w.str(c.column)
	w.str(" = ")
	w.bind(c.value)
}

type inCondition struct {
	column string
	values []any
}

func In(column string, values ...any) Condition {
	return inCondition{column: column, values: values}
}

func (c inCondition) write(w *writer) {
	if len(c.values) == 0 {
		w.str("1=0")
		return
	}
	w.str(c.column)
	w.str(" IN (")
	for i, v := range c.values {
		if i > 0 {
			w.str(", ")
		}
		w.bind(v)
	}
	w.str(")")
}

type isNullCondition struct {
	column string
}

func IsNull(column string) Condition {
	return isNullCondition{column: column}
}

func (c isNullCondition) write(w *writer) {
	w.str(c.column)
	w.str(" IS NULL")
}

type exprCondition struct {
	expr string
	args []any
}

// Expr is a raw condition; each '?' binds the next arg.
func Expr(expr string, args ...any) Condition {
	return exprCondition{expr: expr, args: args}
}

func (c exprCondition) write(w *writer) {
	w.expr(c.expr, c.args)
}

type SelectBuilder struct {
	columns   []string
	table     string
	where     []Condition
	orderBy   []string
	limit     int
	forUpdate bool
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

// ForUpdate locks the selected rows until the surrounding transaction ends.
func (b *SelectBuilder) ForUpdate() *SelectBuilder {
	b.forUpdate = true
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	w := newWriter()
	defer w.release()

	w.str("SELECT ")
	w.str(strings.Join(b.columns, ", "))
	w.str(" FROM ")
	w.str(b.table)
	writeWhere(w, b.where)
	if len(b.orderBy) > 0 {
		w.str(" ORDER BY ")
		w.str(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		w.str(" LIMIT ")
		w.str(strconv.Itoa(b.limit))
	}
	if b.forUpdate {
		w.str(" FOR UPDATE")
	}

	query, args := w.finish()
	return query, args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	casts   map[string]string
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// Cast appends a type cast to the placeholder of column, e.g. "jsonb".
func (b *InsertBuilder) Cast(column, typ string) *InsertBuilder {
	if b.casts == nil {
		b.casts = make(map[string]string)
	}
	b.casts[column] = typ
	return b
}

func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}

	w := newWriter()
	defer w.release()

	w.str("INSERT INTO ")
	w.str(b.table)
	w.str(" (")
	w.str(strings.Join(b.columns, ", "))
	w.str(") VALUES ")

	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", rowIdx, len(row), len(b.columns))
		}
		if rowIdx > 0 {
			w.str(", ")
		}
		w.str("(")
		for colIdx, value := range row {
			if colIdx > 0 {
				w.str(", ")
			}
			w.bind(value)
			if typ, ok := b.casts[b.columns[colIdx]]; ok {
				w.str("::")
				w.str(typ)
			}
		}
		w.str(")")
	}

	if b.suffix != "" {
		w.str(" ")
		w.str(b.suffix)
	}

	query, args := w.finish()
	return query, args, nil
}

type setClause struct {
	column string
	value  any
	expr   *exprCondition
}

type UpdateBuilder struct {
	table  string
	sets   []setClause
	where  []Condition
	suffix string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, value: value})
	return b
}

// SetExpr assigns a raw expression; each '?' binds the next arg.
func (b *UpdateBuilder) SetExpr(column, expr string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{
		column: column,
		expr:   &exprCondition{expr: expr, args: args},
	})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) Suffix(sql string) *UpdateBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}

	w := newWriter()
	defer w.release()

	w.str("UPDATE ")
	w.str(b.table)
	w.str(" SET ")
	for i, s := range b.sets {
		if i > 0 {
			w.str(", ")
		}
		w.str(s.column)
		w.str(" = ")
		if s.expr != nil {
			s.expr.write(w)
			continue
		}
		w.bind(s.value)
	}

	writeWhere(w, b.where)
	if b.suffix != "" {
		w.str(" ")
		w.str(b.suffix)
	}

	query, args := w.finish()
	return query, args, nil
}

func writeWhere(w *writer, conditions []Condition) {
	if len(conditions) == 0 {
		return
	}
	w.str(" WHERE ")
	for i, c := range conditions {
		if i > 0 {
			w.str(" AND ")
		}
		c.write(w)
	}
}
