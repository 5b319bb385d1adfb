package core

import (
	"reflect"
	"strings"

	"github.com/iancoleman/strcase"
)

// Column describes a listed field of a model.
type Column struct {
	// Field is the Go struct field name.
	Field string `json:"field"`
	// Key identifies the column in rendered tables (data-column).
	Key string `json:"key"`
	// DBName is the storage column.
	DBName     string `json:"db_name"`
	Title      string `json:"title"`
	Searchable bool   `json:"searchable"`
	Sortable   bool   `json:"sortable"`
}

// Columns discovers the listed columns of model, in field order. A field is
// listed when it carries a list tag; the tag value holds comma separated
// options ("searchable", "sortable").
func Columns(model any) []Column {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var columns []Column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag, listed := field.Tag.Lookup("list")
		if !listed {
			continue
		}
		col := Column{
			Field:  field.Name,
			Key:    strcase.ToLowerCamel(field.Name),
			DBName: columnName(field),
			Title:  displayName(field.Name),
		}
		for _, opt := range strings.Split(tag, ",") {
			switch strings.TrimSpace(opt) {
			case "searchable":
				col.Searchable = true
			case "sortable":
				col.Sortable = true
			}
		}
		columns = append(columns, col)
	}
	return columns
}

// ColumnName resolves the storage column of a model field: the db tag when
// present, snake_case of the field name otherwise.
func ColumnName(model any, fieldName string) string {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if field, ok := t.FieldByName(fieldName); ok {
		return columnName(field)
	}
	return strcase.ToSnake(fieldName)
}

func columnName(field reflect.StructField) string {
	if db := field.Tag.Get("db"); db != "" && db != "-" {
		return db
	}
	return strcase.ToSnake(field.Name)
}

// displayName turns "CreatedAt" into "Created at".
func displayName(name string) string {
	words := strcase.ToDelimited(name, ' ')
	if words == "" {
		return ""
	}
	return strings.ToUpper(words[:1]) + words[1:]
}
