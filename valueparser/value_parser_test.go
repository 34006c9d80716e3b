package valueparser_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/YaCodeDev/GoYaVarRSA/valueparser"
	"github.com/YaCodeDev/GoYaVarRSA/yalogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue_Scalars(t *testing.T) {
	bits, err := valueparser.ParseValue[int](" 2048 ")
	require.Nil(t, err)
	assert.Equal(t, 2048, bits)

	verbose, err := valueparser.ParseValue[bool]("true")
	require.Nil(t, err)
	assert.True(t, verbose)

	db, err := valueparser.ParseValue[uint8]("3")
	require.Nil(t, err)
	assert.Equal(t, uint8(3), db)

	ratio, err := valueparser.ParseValue[float64]("0.5")
	require.Nil(t, err)
	assert.InDelta(t, 0.5, ratio, 1e-9)

	addr, err := valueparser.ParseValue[string](":8080")
	require.Nil(t, err)
	assert.Equal(t, ":8080", addr)
}

func TestParseValue_Overflow(t *testing.T) {
	_, err := valueparser.ParseValue[uint8]("256")

	require.NotNil(t, err)
	assert.ErrorIs(t, err, valueparser.ErrInvalidValue)
}

func TestParseValue_Garbage(t *testing.T) {
	_, err := valueparser.ParseValue[int]("twenty")

	require.NotNil(t, err)
	assert.ErrorIs(t, err, valueparser.ErrInvalidValue)
}

func TestParseReflect_TextUnmarshaler(t *testing.T) {
	parsed, err := valueparser.ParseReflect("debug", reflect.TypeOf(yalogger.Level(0)))
	require.Nil(t, err)

	assert.Equal(t, yalogger.DebugLevel, parsed.Interface())

	_, err = valueparser.ParseReflect("loud", reflect.TypeOf(yalogger.Level(0)))
	assert.NotNil(t, err)
}

func TestParseReflect_Unsupported(t *testing.T) {
	_, err := valueparser.ParseReflect("x", reflect.TypeOf([]int{}))

	require.NotNil(t, err)
	assert.ErrorIs(t, err, valueparser.ErrUnsupportedType)
}

func TestParseReflect_DurationIsNumeric(t *testing.T) {
	parsed, err := valueparser.ParseReflect("1500", reflect.TypeOf(time.Duration(0)))
	require.Nil(t, err)

	assert.Equal(t, time.Duration(1500), parsed.Interface())
}
