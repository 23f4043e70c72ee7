package router

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Params maps parameter names to the values captured from a path.
// A catch-all binding holds the remainder of the path joined by "/".
type Params map[string]string

// Get returns the value bound to name, or "".
func (p Params) Get(name string) string {
	return p[name]
}

// Clone returns a copy of p. The copy of a nil Params is an empty Params.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// Decode copies the bindings into the `param`-tagged fields of the struct
// target points to. Unbound fields are left alone.
//
//	var args struct {
//	    ID   int      `param:"id"`
//	    Page []string `param:"page"` // catch-all, split on "/"
//	}
//	err := params.Decode(&args)
//
// Fields may be strings, integers, floats, bools, string slices or any type
// implementing encoding.TextUnmarshaler. A nil target is a no-op.
func (p Params) Decode(target any) error {
	if target == nil {
		return nil
	}
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("router: decode target must be a pointer to a struct, got %T", target)
	}
	v = v.Elem()

	for _, f := range reflect.VisibleFields(v.Type()) {
		name := f.Tag.Get("param")
		if name == "" || !f.IsExported() {
			continue
		}
		raw, ok := p[name]
		if !ok {
			continue
		}
		field, err := v.FieldByIndexErr(f.Index)
		if err != nil {
			// promoted through a nil embedded pointer
			continue
		}
		if err := setParam(field, raw); err != nil {
			return fmt.Errorf("router: param %q: %w", name, err)
		}
	}
	return nil
}

func setParam(field reflect.Value, raw string) error {
	if field.CanAddr() && field.Addr().Type().Implements(textUnmarshalerType) {
		return field.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw))
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", field.Type().Elem())
		}
		var parts []string
		if raw != "" {
			parts = strings.Split(raw, "/")
		}
		field.Set(reflect.ValueOf(parts).Convert(field.Type()))
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}
