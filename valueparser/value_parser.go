package valueparser

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
)

// ParseValue converts a string value to the type T.
//
// Example usage:
//
//	bits, err := ParseValue[int]("2048")
//	if err != nil {
//		// Handle error
//	}
func ParseValue[T ParsableType](value string) (T, yaerrors.Error) {
	var zero T

	parsed, err := ParseReflect(value, reflect.TypeOf(zero))
	if err != nil {
		return zero, err
	}

	result, ok := parsed.Interface().(T)
	if !ok {
		return zero, yaerrors.FromError(
			http.StatusInternalServerError,
			ErrInvalidValue,
			fmt.Sprintf("parse value: %q is not %T", value, zero),
		)
	}

	return result, nil
}

// ParseReflect converts a string value to a reflect.Value of type typ.
// Types that implement encoding.TextUnmarshaler or Unmarshalable are parsed
// with it first, so named types such as log levels keep their own syntax.
func ParseReflect(value string, typ reflect.Type) (reflect.Value, yaerrors.Error) {
	if HasUnmarshaler(typ) {
		parsed, err := TryUnmarshal(value, typ)
		if err != nil {
			return reflect.Value{}, yaerrors.FromError(
				http.StatusInternalServerError,
				fmt.Errorf("%w: %w", ErrInvalidValue, err),
				fmt.Sprintf("parse value: %q as %s", value, typ),
			)
		}

		return parsed, nil
	}

	value = strings.TrimSpace(value)
	out := reflect.New(typ).Elem()

	var err error

	switch typ.Kind() {
	case reflect.String:
		out.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var parsed int64

		if parsed, err = strconv.ParseInt(value, 10, typ.Bits()); err == nil {
			out.SetInt(parsed)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var parsed uint64

		if parsed, err = strconv.ParseUint(value, 10, typ.Bits()); err == nil {
			out.SetUint(parsed)
		}

	case reflect.Float32, reflect.Float64:
		var parsed float64

		if parsed, err = strconv.ParseFloat(value, typ.Bits()); err == nil {
			out.SetFloat(parsed)
		}

	case reflect.Bool:
		var parsed bool

		if parsed, err = strconv.ParseBool(value); err == nil {
			out.SetBool(parsed)
		}

	default:
		return reflect.Value{}, yaerrors.FromError(
			http.StatusInternalServerError,
			ErrUnsupportedType,
			"parse value: unsupported type "+typ.String(),
		)
	}

	if err != nil {
		return reflect.Value{}, yaerrors.FromError(
			http.StatusInternalServerError,
			fmt.Errorf("%w: %w", ErrInvalidValue, err),
			fmt.Sprintf("parse value: %q as %s", value, typ),
		)
	}

	return out, nil
}
