package valueparser

import (
	"encoding"
	"reflect"
)

// TryUnmarshal parses value into a new instance of typ through
// encoding.TextUnmarshaler or Unmarshalable, whichever *typ implements.
//
// Example usage:
//
//	v, err := TryUnmarshal("debug", reflect.TypeOf(yalogger.Level(0)))
//	if err != nil {
//		// Handle error
//	}
//	level := v.Interface().(yalogger.Level)
func TryUnmarshal(value string, typ reflect.Type) (reflect.Value, error) {
	ptr := reflect.New(typ)

	if unmarshaler, ok := ptr.Interface().(encoding.TextUnmarshaler); ok {
		if err := unmarshaler.UnmarshalText([]byte(value)); err != nil {
			return reflect.Value{}, err
		}

		return ptr.Elem(), nil
	}

	if unmarshaler, ok := ptr.Interface().(Unmarshalable); ok {
		if err := unmarshaler.Unmarshal(value); err != nil {
			return reflect.Value{}, err
		}

		return ptr.Elem(), nil
	}

	return reflect.Value{}, ErrUnparsableValue
}

// HasUnmarshaler reports whether *typ can parse itself from a string.
func HasUnmarshaler(typ reflect.Type) bool {
	ptr := reflect.New(typ).Interface()

	_, text := ptr.(encoding.TextUnmarshaler)
	_, custom := ptr.(Unmarshalable)

	return text || custom
}
