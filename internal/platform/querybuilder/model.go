package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// modelColumn describes one `db` tagged field. Supported tag options:
//
//	db:"doc,cast=jsonb"   bind the value as $n::jsonb
//	db:"note,omitempty"   leave the column out when the field is the zero value
type modelColumn struct {
	index     int
	name      string
	cast      string
	omitEmpty bool
}

var modelPlans sync.Map // reflect.Type -> []modelColumn

// InsertModel builds a single-row INSERT from the exported `db` tagged
// fields of model. suffix is appended verbatim, e.g. "ON CONFLICT DO NOTHING".
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	value, err := structValue(model)
	if err != nil {
		return "", nil, err
	}

	b := InsertInto(table).Suffix(suffix)
	cols := make([]string, 0, 4)
	vals := make([]any, 0, 4)
	for _, col := range planFor(value.Type()) {
		field := value.Field(col.index)
		if col.omitEmpty && field.IsZero() {
			continue
		}
		cols = append(cols, col.name)
		vals = append(vals, field.Interface())
		if col.cast != "" {
			b.Cast(col.name, col.cast)
		}
	}
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("model %s has no db columns", value.Type())
	}

	return b.Columns(cols...).Values(vals...).ToSQL()
}

func structValue(model any) (reflect.Value, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return reflect.Value{}, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("model must be struct, got %s", value.Kind())
	}
	return value, nil
}

func planFor(typ reflect.Type) []modelColumn {
	if cached, ok := modelPlans.Load(typ); ok {
		return cached.([]modelColumn)
	}

	plan := make([]modelColumn, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col, ok := parseColumnTag(field.Tag.Get("db"))
		if !ok {
			continue
		}
		col.index = i
		plan = append(plan, col)
	}

	actual, _ := modelPlans.LoadOrStore(typ, plan)
	return actual.([]modelColumn)
}

func parseColumnTag(tag string) (modelColumn, bool) {
	parts := strings.Split(tag, ",")
	name := strings.TrimSpace(parts[0])
	if name == "" || name == "-" {
		return modelColumn{}, false
	}

	col := modelColumn{name: name}
	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == "omitempty":
			col.omitEmpty = true
		case strings.HasPrefix(opt, "cast="):
			col.cast = strings.TrimPrefix(opt, "cast=")
		}
	}
	return col, true
}
