// Package yablock maps variable-length messages to and from sequences of
// fixed-width blocks.
//
// A message is cut into plaintext blocks of PlainSize bytes after padding.
// Each block, read as a big-endian unsigned integer, is exponentiated by the
// caller and written back as a ciphertext block of exactly CipherSize bytes.
// Because PlainSize < CipherSize, every plaintext block value is smaller than
// any modulus whose byte length is CipherSize.
package yablock

import (
	"bytes"
	"fmt"
	"math/big"
	"net/http"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
)

// Codec holds the block geometry. It is immutable and safe for concurrent use.
type Codec struct {
	plainSize  int
	cipherSize int
	padding    Padding
}

// NewCodec validates 0 < plainSize < cipherSize and returns a Codec.
//
// Example:
//
//	codec, err := yablock.NewCodec(214, 256, yablock.PaddingMarker)
//	if err != nil {
//	    log.Fatalf("bad block sizes: %v", err)
//	}
func NewCodec(plainSize, cipherSize int, padding Padding) (*Codec, yaerrors.Error) {
	if plainSize <= 0 || plainSize >= cipherSize {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			yaerrors.ErrInvalidConfig,
			fmt.Sprintf(
				"[BLOCK] plaintext block size %d must be in (0, %d)",
				plainSize,
				cipherSize,
			),
		)
	}

	if padding != PaddingMarker && padding != PaddingZero {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			yaerrors.ErrInvalidConfig,
			"[BLOCK] unsupported padding "+padding.String(),
		)
	}

	return &Codec{
		plainSize:  plainSize,
		cipherSize: cipherSize,
		padding:    padding,
	}, nil
}

func (c *Codec) PlainSize() int {
	return c.plainSize
}

func (c *Codec) CipherSize() int {
	return c.cipherSize
}

func (c *Codec) Padding() Padding {
	return c.padding
}

// BlockCount returns how many blocks SegmentAndPad produces for a message of
// messageLen bytes. It is never zero.
func (c *Codec) BlockCount(messageLen int) int {
	if c.padding == PaddingMarker {
		return (messageLen + c.plainSize) / c.plainSize
	}

	if messageLen == 0 {
		return 1
	}

	return (messageLen + c.plainSize - 1) / c.plainSize
}

// CiphertextLen returns the exact ciphertext length for a message of messageLen bytes.
func (c *Codec) CiphertextLen(messageLen int) int {
	return c.BlockCount(messageLen) * c.cipherSize
}

// SegmentAndPad pads message and splits it into PlainSize-byte blocks.
// The input slice is never modified. An empty message gives one block.
func (c *Codec) SegmentAndPad(message []byte) [][]byte {
	count := c.BlockCount(len(message))

	padded := make([]byte, count*c.plainSize)
	copy(padded, message)

	if c.padding == PaddingMarker {
		padded[len(message)] = markerByte
	}

	blocks := make([][]byte, count)
	for i := range blocks {
		blocks[i] = padded[i*c.plainSize : (i+1)*c.plainSize : (i+1)*c.plainSize]
	}

	return blocks
}

// StripPadding removes the padding from the concatenated plaintext blocks.
//
// Zero padding removes every trailing zero byte. Marker padding removes the
// trailing zero bytes and the 0x80 marker before them; a missing marker, or
// padding longer than one block, is reported as ErrMalformedInput.
func (c *Codec) StripPadding(joined []byte) ([]byte, yaerrors.Error) {
	trimmed := bytes.TrimRight(joined, "\x00")

	if c.padding == PaddingZero {
		return trimmed, nil
	}

	if len(trimmed) == 0 || trimmed[len(trimmed)-1] != markerByte {
		return nil, yaerrors.FromError(
			http.StatusBadRequest,
			yaerrors.ErrMalformedInput,
			"[BLOCK] padding marker not found",
		)
	}

	message := trimmed[:len(trimmed)-1]

	if len(joined)-len(message) > c.plainSize {
		return nil, yaerrors.FromError(
			http.StatusBadRequest,
			yaerrors.ErrMalformedInput,
			fmt.Sprintf(
				"[BLOCK] padding spans %d bytes, more than one block",
				len(joined)-len(message),
			),
		)
	}

	return message, nil
}

// EncodeCipherBlock writes value as exactly CipherSize big-endian bytes.
// A value that needs more bytes means it was not reduced modulo a modulus of
// the configured size, which is an invariant violation.
func (c *Codec) EncodeCipherBlock(value *big.Int) ([]byte, yaerrors.Error) {
	out, ok := fixedWidth(value, c.cipherSize)
	if !ok {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			yaerrors.ErrInvariantViolation,
			fmt.Sprintf(
				"[BLOCK] ciphertext value of %d bits does not fit %d bytes",
				value.BitLen(),
				c.cipherSize,
			),
		)
	}

	return out, nil
}

// EncodePlainBlock writes a decrypted value back as exactly PlainSize bytes,
// restoring the leading zero bytes that the integer form dropped.
// A wider value means the key does not match the ciphertext.
func (c *Codec) EncodePlainBlock(value *big.Int) ([]byte, yaerrors.Error) {
	out, ok := fixedWidth(value, c.plainSize)
	if !ok {
		return nil, yaerrors.FromError(
			http.StatusUnprocessableEntity,
			yaerrors.ErrOversizedBlock,
			fmt.Sprintf(
				"[BLOCK] decrypted value needs %d bytes, block holds %d",
				(value.BitLen()+7)/8,
				c.plainSize,
			),
		)
	}

	return out, nil
}

// SplitCiphertext cuts ciphertext into CipherSize-byte blocks. A single
// leading zero byte in front of whole blocks is taken as a sign byte left by
// a signed integer encoding and dropped.
func (c *Codec) SplitCiphertext(ciphertext []byte) ([][]byte, yaerrors.Error) {
	if len(ciphertext)%c.cipherSize == 1 && ciphertext[0] == 0 {
		ciphertext = ciphertext[1:]
	}

	if len(ciphertext) == 0 || len(ciphertext)%c.cipherSize != 0 {
		return nil, yaerrors.FromError(
			http.StatusBadRequest,
			yaerrors.ErrMalformedInput,
			fmt.Sprintf(
				"[BLOCK] ciphertext length %d is not a positive multiple of %d",
				len(ciphertext),
				c.cipherSize,
			),
		)
	}

	blocks := make([][]byte, len(ciphertext)/c.cipherSize)
	for i := range blocks {
		blocks[i] = ciphertext[i*c.cipherSize : (i+1)*c.cipherSize]
	}

	return blocks, nil
}

// fixedWidth left-pads the magnitude of a non-negative value to width bytes.
func fixedWidth(value *big.Int, width int) ([]byte, bool) {
	if value.Sign() < 0 || (value.BitLen()+7)/8 > width {
		return nil, false
	}

	return value.FillBytes(make([]byte, width)), true
}
