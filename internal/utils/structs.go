package utils

import (
	"fmt"
	"reflect"
)

var ColumnTag = "db"

// columnFields walks the exported fields of a struct (or pointer to one)
// carrying a column tag and calls fn with the column name and value.
func columnFields(input any, fn func(column string, value reflect.Value)) {
	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}

		column := field.Tag.Get(ColumnTag)
		if column == "" || column == "-" {
			continue
		}

		fn(column, v.Field(i))
	}
}

// StructTagValues lists the column names of a row type in field order.
func StructTagValues(input any) []string {
	var result []string
	columnFields(input, func(column string, _ reflect.Value) {
		result = append(result, column)
	})
	return result
}

// StructToMap maps column names to field values, ready for squirrel's
// SetMap.
func StructToMap(input any) map[string]any {
	result := make(map[string]any)
	columnFields(input, func(column string, value reflect.Value) {
		result[column] = value.Interface()
	})
	return result
}

func ErrorWrapOrNil(err error, msg string) error {
	if err == nil {
		return nil
	}

	if msg == "" {
		return err
	}

	return fmt.Errorf("%s: %w", msg, err)
}
