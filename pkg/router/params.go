package router

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Bind copies route values into the struct target points to. Fields tagged
// `param` read Params, fields tagged `query` read Query. Keys missing from
// the route leave their field untouched.
//
//	var args struct {
//	    ID   int    `param:"id"`
//	    Tab  string `query:"tab"`
//	}
//	err := route.Bind(&args)
func (r *Route) Bind(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("router: Bind needs a pointer to a struct, got %T", target)
	}
	v = v.Elem()

	sources := map[string]map[string]string{"param": r.Params, "query": r.Query}
	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		for tag, values := range sources {
			key, ok := field.Tag.Lookup(tag)
			if !ok {
				continue
			}
			raw, ok := values[key]
			if !ok {
				continue
			}
			if err := setValue(v.Field(i), raw); err != nil {
				return fmt.Errorf("router: %s %q: %w", tag, key, err)
			}
		}
	}
	return nil
}

// setValue parses raw into a field of a basic kind. A []string field takes
// the slash-separated segments of a catch-all value.
func setValue(field reflect.Value, raw string) error {
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
		f, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("cannot bind into %s", field.Type())
		}
		var segs []string
		if raw != "" {
			segs = strings.Split(raw, "/")
		}
		field.Set(reflect.ValueOf(segs))
	default:
		return fmt.Errorf("cannot bind into %s", field.Type())
	}
	return nil
}

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// paramCheckers constrain typed path params such as ":id:int".
var paramCheckers = map[string]func(string) error{
	"int": func(s string) error {
		_, err := strconv.ParseInt(s, 10, 64)
		return err
	},
	"uint": func(s string) error {
		_, err := strconv.ParseUint(s, 10, 64)
		return err
	},
	"uuid": func(s string) error {
		if !uuidPattern.MatchString(s) {
			return fmt.Errorf("%q is not a UUID", s)
		}
		return nil
	},
}

// ValidateParam reports whether value satisfies a param type. Sized
// integer types share their base check. Unknown types accept anything.
func ValidateParam(value, paramType string) error {
	base := strings.TrimRight(paramType, "0123456789")
	check, ok := paramCheckers[base]
	if !ok {
		return nil
	}
	if err := check(value); err != nil {
		return fmt.Errorf("router: invalid %s param: %w", paramType, err)
	}
	return nil
}
