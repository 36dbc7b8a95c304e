package debugui

import (
	"reflect"
	"sync"
)

// FieldInfo describes one exported struct field shown by the inspector.
type FieldInfo struct {
	Name      string
	Type      reflect.Type
	Index     int
	IsPointer bool
}

// FieldCache memoizes the exported fields of component struct types.
type FieldCache struct {
	fields sync.Map // reflect.Type -> []FieldInfo
}

func NewFieldCache() *FieldCache {
	return &FieldCache{}
}

// GetFields returns the exported fields of t in declaration order. Non-struct
// types have none.
func (fc *FieldCache) GetFields(t reflect.Type) []FieldInfo {
	if cached, ok := fc.fields.Load(t); ok {
		return cached.([]FieldInfo)
	}

	var fields []FieldInfo
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}

			fieldType := field.Type
			isPointer := fieldType.Kind() == reflect.Ptr
			if isPointer {
				fieldType = fieldType.Elem()
			}

			fields = append(fields, FieldInfo{
				Name:      field.Name,
				Type:      fieldType,
				Index:     i,
				IsPointer: isPointer,
			})
		}
	}

	actual, _ := fc.fields.LoadOrStore(t, fields)
	return actual.([]FieldInfo)
}

var globalFieldCache = NewFieldCache()
