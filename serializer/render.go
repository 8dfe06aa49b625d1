package serializer

import (
	"fmt"
	"reflect"
	"strconv"
)

// LineWriter is the capability a rendered value writes itself into: a
// sink for raw bytes with no escaping, no quoting, and no separators.
// Types that want full control over their own wire form implement
// Renderable and write through this interface directly instead of
// going through reflection.
type LineWriter interface {
	WriteByte(b byte)
	WriteBytes(b []byte)
}

// Renderable lets a command value control its own rendering, the
// structural-visitor escape hatch for sum types (an interface
// implemented by several concrete command structs) and anything else
// reflection can't express cleanly.
type Renderable interface {
	RenderGcode(w LineWriter)
}

// Char marks a rune as a single G-code character: written as raw UTF-8,
// never as a decimal integer. A bare Go rune (which is just an int32)
// would otherwise render as a number under the integer rule below; wrap
// it in Char when the field is meant to be a literal character.
type Char rune

// Render writes v into w following the structural rendering rules of
// §4.A: primitives as ASCII, structs as name+fields with single-letter
// prefixes, slices/arrays/maps element-by-element, nil pointers and
// nil interfaces as nothing, non-nil pointers transparently.
func Render(w LineWriter, v any) {
	renderAny(w, v)
}

func renderAny(w LineWriter, v any) {
	if v == nil {
		return
	}
	if r, ok := v.(Renderable); ok {
		r.RenderGcode(w)
		return
	}
	renderValue(w, reflect.ValueOf(v))
}

func renderValue(w LineWriter, rv reflect.Value) {
	if !rv.IsValid() {
		return
	}

	if rv.CanInterface() {
		if r, ok := rv.Interface().(Renderable); ok {
			r.RenderGcode(w)
			return
		}
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return
		}
		renderValue(w, rv.Elem())

	case reflect.Bool:
		if rv.Bool() {
			w.WriteByte('1')
		} else {
			w.WriteByte('0')
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Type() == reflect.TypeOf(Char(0)) {
			w.WriteBytes([]byte(string(rune(rv.Int()))))
			return
		}
		w.WriteBytes(strconv.AppendInt(nil, rv.Int(), 10))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		w.WriteBytes(strconv.AppendUint(nil, rv.Uint(), 10))

	case reflect.Float32:
		w.WriteBytes(strconv.AppendFloat(nil, rv.Float(), 'g', -1, 32))

	case reflect.Float64:
		w.WriteBytes(strconv.AppendFloat(nil, rv.Float(), 'g', -1, 64))

	case reflect.String:
		w.WriteBytes([]byte(rv.String()))

	case reflect.Slice:
		if rv.IsNil() {
			return
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			w.WriteBytes(rv.Bytes())
			return
		}
		renderSequence(w, rv)

	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			w.WriteBytes(b)
			return
		}
		renderSequence(w, rv)

	case reflect.Map:
		renderMap(w, rv)

	case reflect.Struct:
		renderStruct(w, rv)

	default:
		panic(fmt.Sprintf("serializer: cannot render kind %s (%s)", rv.Kind(), rv.Type()))
	}
}

func renderSequence(w LineWriter, rv reflect.Value) {
	for i := 0; i < rv.Len(); i++ {
		renderValue(w, rv.Index(i))
	}
}

func renderMap(w LineWriter, rv reflect.Value) {
	iter := rv.MapRange()
	for iter.Next() {
		renderValue(w, iter.Key())
		renderValue(w, iter.Value())
	}
}

// renderStruct implements the record rule: the type name, then for each
// field the uppercased first character of its name (or its `gcode` tag)
// immediately followed by the rendered field value. A struct with no
// renderable fields renders as just its name, matching a unit struct.
func renderStruct(w LineWriter, rv reflect.Value) {
	w.WriteBytes([]byte(rv.Type().Name()))

	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		letter, skip := fieldLetter(field)
		if skip {
			continue
		}

		w.WriteByte(letter)
		renderValue(w, rv.Field(i))
	}
}

// fieldLetter derives the single-letter wire prefix for a struct field:
// the uppercased first byte of the `gcode` tag if present, else the
// uppercased first byte of the Go field name. A tag of "-" skips the
// field.
func fieldLetter(field reflect.StructField) (letter byte, skip bool) {
	tag := field.Tag.Get("gcode")
	if tag == "-" {
		return 0, true
	}
	if tag != "" {
		return upperASCII(tag[0]), false
	}
	return upperASCII(field.Name[0]), false
}

func upperASCII(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
