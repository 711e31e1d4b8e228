package router

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var textUnmarshaler = reflect.TypeFor[encoding.TextUnmarshaler]()

// Decode fills target from the layer's props. target must be a pointer to
// a struct; fields are matched by their `param` tag:
//
//	var p struct {
//	    ID int `param:"id,required"`
//	}
//	err := res.Leaf().Decode(&p)
//
// A layer whose route does not set Props decodes nothing.
func (l Layer) Decode(target any) error {
	return DecodeParams(l.Props, target)
}

// DecodeParams fills the `param`-tagged fields of the struct target points
// to from params. Missing keys leave fields untouched unless the tag says
// required. Every failing field is reported.
//
// Supported field types are strings, bools, integers, floats, pointers to
// those, and types implementing encoding.TextUnmarshaler.
func DecodeParams(params map[string]string, target any) error {
	if target == nil {
		return nil
	}
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode params: target must be a pointer to struct, got %T", target)
	}
	v = v.Elem()

	var errs []error
	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup("param")
		if !ok || !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		raw, present := params[name]
		if !present {
			if opts == "required" {
				errs = append(errs, fmt.Errorf("param %q: missing", name))
			}
			continue
		}
		if err := assign(v.Field(i), raw); err != nil {
			errs = append(errs, fmt.Errorf("param %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// assign parses raw into dst according to dst's type.
func assign(dst reflect.Value, raw string) error {
	if dst.CanAddr() && dst.Addr().Type().Implements(textUnmarshaler) {
		return dst.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw))
	}

	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), raw); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	bits := 0
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		bits = dst.Type().Bits()
	}

	switch dst.Kind() {
	case reflect.String:
		dst.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%q is not a boolean", raw)
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, bits)
		if err != nil {
			return fmt.Errorf("%q is not an int%d", raw, bits)
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, bits)
		if err != nil {
			return fmt.Errorf("%q is not a uint%d", raw, bits)
		}
		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, bits)
		if err != nil {
			return fmt.Errorf("%q is not a float%d", raw, bits)
		}
		dst.SetFloat(n)
	default:
		return fmt.Errorf("unsupported field type %s", dst.Type())
	}
	return nil
}
