package valueparser

// ParsableType is a type constraint for values that can be read from a single
// environment string.
type ParsableType interface {
	~string | ~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~bool
}

// Unmarshalable is implemented by custom types that parse themselves from a
// plain string without going through encoding.TextUnmarshaler.
type Unmarshalable interface {
	Unmarshal(data string) error
}
