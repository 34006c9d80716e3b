package yagzip_test

import (
	"bytes"
	"math/rand/v2"
	"net/http"
	"testing"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yagzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlow_BasicCases(t *testing.T) {
	vectors := [][]byte{
		{},
		[]byte("a"),
		[]byte("Hello, RZK!"),
		bytes.Repeat([]byte("x"), 128),
		bytes.Repeat([]byte{0x00}, 1024),
		bytes.Repeat([]byte{0xEE, 0xFF, 0x00, 0x01}, 257),
	}

	gz := yagzip.NewGzip()

	for i, in := range vectors {
		z, err := gz.Zip(in)
		require.Nil(t, err, "case %d", i)

		out, err := gz.Unzip(z)
		require.Nil(t, err, "case %d", i)

		assert.True(t, bytes.Equal(in, out), "case %d", i)
	}
}

func TestFlow_LargeRandomCase(t *testing.T) {
	var seed [32]byte

	rng := rand.NewChaCha8(seed)
	gz := yagzip.NewGzip()

	for _, n := range []int{1 << 10, 64 << 10, 256 << 10} {
		in := make([]byte, n)
		_, _ = rng.Read(in)

		z, err := gz.Zip(in)
		require.Nil(t, err, "n=%d", n)

		out, err := gz.Unzip(z)
		require.Nil(t, err, "n=%d", n)

		assert.Equal(t, in, out, "n=%d", n)
	}
}

func TestUnzip_Errors(t *testing.T) {
	t.Run("Not gzip", func(t *testing.T) {
		_, err := yagzip.NewGzip().Unzip([]byte("plain text"))

		require.NotNil(t, err)
		assert.ErrorIs(t, err, yaerrors.ErrMalformedInput)
		assert.Equal(t, http.StatusBadRequest, err.Code())
	})

	t.Run("Truncated stream", func(t *testing.T) {
		z, err := yagzip.NewGzip().Zip(bytes.Repeat([]byte("abc"), 100))
		require.Nil(t, err)

		_, err = yagzip.NewGzip().Unzip(z[:len(z)/2])
		assert.ErrorIs(t, err, yaerrors.ErrMalformedInput)
	})

	t.Run("Limit", func(t *testing.T) {
		z, err := yagzip.NewGzip().Zip(bytes.Repeat([]byte{0}, 4096))
		require.Nil(t, err)

		_, err = yagzip.NewGzipWithLevelAndMaxSize(yagzip.DefaultCompression, 1024).Unzip(z)
		assert.ErrorIs(t, err, yagzip.ErrDecompressedPayloadTooLarge)
	})

	t.Run("Bad level", func(t *testing.T) {
		_, err := yagzip.NewGzipWithLevelAndMaxSize(42, 0).Zip([]byte("x"))
		assert.ErrorIs(t, err, yaerrors.ErrInvalidConfig)
	})
}
