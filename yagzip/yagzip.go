// Package yagzip compresses message payloads before they are split into
// RSA blocks. Fewer plaintext bytes means fewer blocks to exponentiate.
//
// Unzip caps the decompressed size so that a small ciphertext cannot
// expand into an unbounded amount of memory.
//
// Example:
//
//	packed, err := yagzip.NewGzip().Zip([]byte("Hello, RZK!"))
//	if err != nil {
//	    return err
//	}
//
//	plain, err := yagzip.NewGzip().Unzip(packed)
package yagzip

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
)

const (
	DefaultCompression               = flate.DefaultCompression
	DefaultMaxDecompressedSize int64 = 64 << 20
)

var ErrDecompressedPayloadTooLarge = errors.New("decompressed payload exceeds configured limit")

type Gzip struct {
	Level               int
	MaxDecompressedSize int64
}

func NewGzipWithLevelAndMaxSize(level int, maxDecompressedSize int64) *Gzip {
	return &Gzip{
		Level:               level,
		MaxDecompressedSize: maxDecompressedSize,
	}
}

func NewGzip() *Gzip {
	return NewGzipWithLevelAndMaxSize(DefaultCompression, DefaultMaxDecompressedSize)
}

// Zip compresses payload at the configured level.
func (g *Gzip) Zip(payload []byte) ([]byte, yaerrors.Error) {
	var buf bytes.Buffer

	w, err := gzip.NewWriterLevel(&buf, g.Level)
	if err != nil {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			fmt.Errorf("%w: %w", yaerrors.ErrInvalidConfig, err),
			"[GZIP] failed to create writer",
		)
	}

	if _, err := w.Write(payload); err != nil {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			"[GZIP] failed to write payload to gzip writer",
		)
	}

	if err := w.Close(); err != nil {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			"[GZIP] failed to close gzip writer",
		)
	}

	return buf.Bytes(), nil
}

// Unzip decompresses a gzip stream. A broken stream is ErrMalformedInput;
// output above MaxDecompressedSize is ErrDecompressedPayloadTooLarge.
func (g *Gzip) Unzip(compressed []byte) ([]byte, yaerrors.Error) {
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, yaerrors.FromError(
			http.StatusBadRequest,
			fmt.Errorf("%w: %w", yaerrors.ErrMalformedInput, err),
			"[GZIP] failed to create gzip reader",
		)
	}
	defer r.Close()

	maxSize := g.MaxDecompressedSize
	if maxSize <= 0 {
		maxSize = DefaultMaxDecompressedSize
	}

	var out bytes.Buffer

	if _, err := io.Copy(&out, io.LimitReader(r, maxSize+1)); err != nil {
		return nil, yaerrors.FromError(
			http.StatusBadRequest,
			fmt.Errorf("%w: %w", yaerrors.ErrMalformedInput, err),
			"[GZIP] failed to read from gzip stream",
		)
	}

	if int64(out.Len()) > maxSize {
		return nil, yaerrors.FromError(
			http.StatusRequestEntityTooLarge,
			ErrDecompressedPayloadTooLarge,
			fmt.Sprintf("[GZIP] decompressed payload is larger than %d bytes", maxSize),
		)
	}

	return out.Bytes(), nil
}
