package postgres

import (
	"reflect"
	"sync"
)

// Columns lists the "db" tags of T in field order, descending into embedded
// structs. Repositories call it once at construction.
func Columns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			cols = append(cols, columnsOf(field.Type)...)
			continue
		}
		if tag := field.Tag.Get("db"); tag != "" && tag != "-" {
			cols = append(cols, tag)
		}
	}
	return cols
}

type taggedField struct {
	index int
	tag   string
}

type typeLayout struct {
	fields   []taggedField
	embedded []int
}

var layouts sync.Map // map[reflect.Type]*typeLayout

func layoutOf(t reflect.Type) *typeLayout {
	if cached, ok := layouts.Load(t); ok {
		return cached.(*typeLayout)
	}

	l := &typeLayout{}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			l.embedded = append(l.embedded, i)
			continue
		}
		if tag := field.Tag.Get("db"); tag != "" && tag != "-" {
			l.fields = append(l.fields, taggedField{index: i, tag: tag})
		}
	}

	actual, _ := layouts.LoadOrStore(t, l)
	return actual.(*typeLayout)
}

// StructToMap converts a struct (or pointer to one) to a column map using
// "db" tags, ready for squirrel's SetMap. Field layouts are cached per type.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	res := make(map[string]any)
	collectColumns(rv, res)
	return res
}

// collectColumns walks rv as a Value, so exported fields promoted from an
// unexported embedded struct stay readable.
func collectColumns(rv reflect.Value, res map[string]any) {
	l := layoutOf(rv.Type())
	for _, f := range l.fields {
		res[f.tag] = rv.Field(f.index).Interface()
	}
	for _, idx := range l.embedded {
		ev := rv.Field(idx)
		if ev.Kind() == reflect.Ptr {
			if ev.IsNil() {
				continue
			}
			ev = ev.Elem()
		}
		if ev.Kind() == reflect.Struct {
			collectColumns(ev, res)
		}
	}
}

// Only keeps the entries of m whose keys are in cols.
func Only(m map[string]any, cols ...string) map[string]any {
	out := make(map[string]any, len(cols))
	for _, c := range cols {
		if v, ok := m[c]; ok {
			out[c] = v
		}
	}
	return out
}
