package yalogger

import "errors"

// Level mirrors logrus levels one to one, so a Level converts directly.
type Level uint32

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

type BaseLoggerType uint8

const (
	Logrus BaseLoggerType = iota
)

// Field keys shared by every package that logs.
const (
	KeyRequestID = "request_id"
	KeyOperation = "operation"
	KeyKeyID     = "key_id"
	KeyBlocks    = "blocks"
	KeyBits      = "bits"
)

const defaultTimestampFormat = "2006-01-02 15:04:05"

var ErrInvalidLogLevel = errors.New("invalid log level")
