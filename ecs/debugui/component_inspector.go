package debugui

import (
	"fmt"
	"reflect"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/kindecs/ecs"
)

func NewComponentInspectorComponent() *ComponentInspectorComponent {
	return &ComponentInspectorComponent{}
}

// Render shows every component of the selected entity. Fields of pointer
// components are editable; value components are shown read-only since the
// store hands out copies of them.
func (ci *ComponentInspectorComponent) Render(storage *ecs.Storage, selectedEntityId ecs.EntityId) {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ci.selectedEntityId = selectedEntityId

	if ci.selectedEntityId == 0 {
		imgui.Text("No entity selected")
		imgui.End()
		return
	}

	if !storage.Has(ci.selectedEntityId) {
		imgui.Text(fmt.Sprintf("Entity %s not found", ci.selectedEntityId))
		imgui.End()
		return
	}

	components := storage.Components(ci.selectedEntityId)
	imgui.Text(fmt.Sprintf("Entity ID: %s", ci.selectedEntityId))
	imgui.Text(fmt.Sprintf("Components: %d", len(components)))
	imgui.Separator()

	for i, component := range components {
		label := fmt.Sprintf("%s##%d", component.Kind(), i)
		if imgui.TreeNodeStr(label) {
			ci.renderComponent(component, i)
			imgui.TreePop()
		}
	}

	imgui.End()
}

func (ci *ComponentInspectorComponent) renderComponent(component ecs.Component, index int) {
	val := reflect.ValueOf(component)
	editable := val.Kind() == reflect.Ptr
	if editable {
		if val.IsNil() {
			imgui.Text("nil")
			return
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		imgui.Text(fmt.Sprintf("%v", val.Interface()))
		return
	}
	if !editable {
		imgui.Text("(read-only value component)")
	}

	for _, field := range globalFieldCache.GetFields(val.Type()) {
		fieldVal := val.Field(field.Index)
		if field.IsPointer && !fieldVal.IsNil() {
			fieldVal = fieldVal.Elem()
		}
		ci.renderField(fmt.Sprintf("%s##%d", field.Name, index), field.Name, fieldVal, field, editable)
	}
}

func (ci *ComponentInspectorComponent) renderField(id, name string, val reflect.Value, field FieldInfo, editable bool) {
	if !val.IsValid() {
		imgui.Text(fmt.Sprintf("%s: <invalid>", name))
		return
	}

	if field.IsPointer && val.Kind() == reflect.Ptr && val.IsNil() {
		imgui.Text(fmt.Sprintf("%s: nil", name))
		return
	}

	if !editable || !val.CanSet() {
		switch val.Kind() {
		case reflect.Struct:
			ci.renderStruct(id, name, val, false)
		default:
			imgui.Text(fmt.Sprintf("%s: %s", name, describeValue(val)))
		}
		return
	}

	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := int32(val.Int())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt("##"+id, &v) {
			setInt(val, int64(v))
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := int32(val.Uint())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt("##"+id, &v) && v >= 0 {
			setUint(val, uint64(v))
		}

	case reflect.Float32, reflect.Float64:
		v := float32(val.Float())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat("##"+id, &v) {
			setFloat(val, float64(v))
		}

	case reflect.Bool:
		v := val.Bool()
		if imgui.Checkbox(name+"##"+id, &v) {
			val.SetBool(v)
		}

	case reflect.String:
		v := val.String()
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint("##"+id, "", &v, imgui.InputTextFlagsNone, nil) {
			val.SetString(v)
		}

	case reflect.Struct:
		ci.renderStruct(id, name, val, true)

	default:
		imgui.Text(fmt.Sprintf("%s: %s", name, describeValue(val)))
	}
}

func (ci *ComponentInspectorComponent) renderStruct(id, name string, val reflect.Value, editable bool) {
	if !imgui.TreeNodeStr(name + "##" + id) {
		return
	}
	for _, nf := range globalFieldCache.GetFields(val.Type()) {
		nestedVal := val.Field(nf.Index)
		if nf.IsPointer && !nestedVal.IsNil() {
			nestedVal = nestedVal.Elem()
		}
		ci.renderField(id+"."+nf.Name, nf.Name, nestedVal, nf, editable)
	}
	imgui.TreePop()
}

func describeValue(val reflect.Value) string {
	switch val.Kind() {
	case reflect.Slice, reflect.Array:
		return fmt.Sprintf("[%d items]", val.Len())
	case reflect.Map:
		return fmt.Sprintf("map[%d items]", val.Len())
	case reflect.Func, reflect.Chan:
		return val.Type().String()
	default:
		if val.CanInterface() {
			return fmt.Sprintf("%v", val.Interface())
		}
		return val.Type().String()
	}
}

// setInt stores value in an int field, ignoring values the field cannot hold.
func setInt(field reflect.Value, value int64) {
	if field.OverflowInt(value) {
		return
	}
	field.SetInt(value)
}

func setUint(field reflect.Value, value uint64) {
	if field.OverflowUint(value) {
		return
	}
	field.SetUint(value)
}

func setFloat(field reflect.Value, value float64) {
	if field.OverflowFloat(value) {
		return
	}
	field.SetFloat(value)
}
